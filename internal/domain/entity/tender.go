package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ciclo de vida de una licitación. Finalized es un punto de no retorno.
const (
	TenderStateDraft     = "Draft"
	TenderStatePublished = "Published"
	TenderStateFinalized = "Finalized"
)

// Tipos de adquisición (tender_spot_type en el sistema de origen).
const (
	AcquisitionTypeContract = "Contract/Tender"
	AcquisitionTypeSpot     = "Spot Purchase"
	AcquisitionTypeAnnual   = "Annual Tender"
)

// Tender representa una licitación con sus ítems.
type Tender struct {
	ID              string
	Title           string
	ReferenceNumber string
	Description     string
	AcquisitionType string
	State           string
	Items           []TenderLineItem
	FinalizedAt     *time.Time
	FinalizedBy     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TenderLineItem ítem ordenado dentro de una licitación.
type TenderLineItem struct {
	ItemID             string
	Description        string
	Quantity           int64
	EstimatedUnitPrice decimal.Decimal
}

// IsFinalized indica si la licitación ya no admite cambios.
func (t *Tender) IsFinalized() bool {
	return t.State == TenderStateFinalized
}

// Item devuelve el ítem con el itemID indicado.
func (t *Tender) Item(itemID string) (TenderLineItem, bool) {
	for _, it := range t.Items {
		if it.ItemID == itemID {
			return it, true
		}
	}
	return TenderLineItem{}, false
}

// ValidAcquisitionType valida el tipo de adquisición.
func ValidAcquisitionType(s string) bool {
	switch s {
	case AcquisitionTypeContract, AcquisitionTypeSpot, AcquisitionTypeAnnual:
		return true
	}
	return false
}
