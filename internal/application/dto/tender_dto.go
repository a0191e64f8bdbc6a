package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// TenderItemRequest ítem de una licitación.
type TenderItemRequest struct {
	ItemID             string          `json:"item_id"`
	Description        string          `json:"description"`
	Quantity           int64           `json:"quantity"`
	EstimatedUnitPrice decimal.Decimal `json:"estimated_unit_price"`
}

// CreateTenderRequest body para POST /api/tenders.
type CreateTenderRequest struct {
	Title           string              `json:"title"`
	ReferenceNumber string              `json:"reference_number"`
	Description     string              `json:"description"`
	AcquisitionType string              `json:"acquisition_type"` // vacío = Contract/Tender
	Items           []TenderItemRequest `json:"items"`
}

// UpdateTenderRequest body para PUT /api/tenders/:id. Campos nil no se modifican.
type UpdateTenderRequest struct {
	Title           *string `json:"title,omitempty"`
	ReferenceNumber *string `json:"reference_number,omitempty"`
	Description     *string `json:"description,omitempty"`
	AcquisitionType *string `json:"acquisition_type,omitempty"`
}

// TenderFilter filtros de GET /api/tenders.
type TenderFilter struct {
	State string `query:"state"`
	PageRequest
}

// TenderItemResponse ítem en respuestas.
type TenderItemResponse struct {
	ItemID             string          `json:"item_id"`
	Description        string          `json:"description"`
	Quantity           int64           `json:"quantity"`
	EstimatedUnitPrice decimal.Decimal `json:"estimated_unit_price"`
}

// TenderResponse licitación en respuestas.
type TenderResponse struct {
	ID              string               `json:"id"`
	Title           string               `json:"title"`
	ReferenceNumber string               `json:"reference_number"`
	Description     string               `json:"description"`
	AcquisitionType string               `json:"acquisition_type"`
	State           string               `json:"lifecycle_state"`
	Items           []TenderItemResponse `json:"items"`
	FinalizedAt     *time.Time           `json:"finalized_at,omitempty"`
	FinalizedBy     string               `json:"finalized_by,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// TenderListResponse listado paginado.
type TenderListResponse struct {
	Items []TenderResponse `json:"items"`
	Page  PageResponse     `json:"page"`
}
