package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ConfirmPricingRequest body para PUT /api/acquisitions/:id/pricing.
type ConfirmPricingRequest struct {
	ActualUnitPrice decimal.Decimal `json:"actual_unit_price"`
	Remarks         string          `json:"remarks"`
}

// AcquisitionRecordResponse registro de adquisición con acumulados derivados.
type AcquisitionRecordResponse struct {
	ID                    string           `json:"id"`
	TenderID              string           `json:"tender_id"`
	ItemID                string           `json:"item_id"`
	OrderedQuantity       int64            `json:"ordered_quantity"`
	EstimatedUnitPrice    decimal.Decimal  `json:"estimated_unit_price"`
	ActualUnitPrice       *decimal.Decimal `json:"actual_unit_price"`
	PricingConfirmed      bool             `json:"pricing_confirmed"`
	ConfirmedBy           string           `json:"confirmed_by,omitempty"`
	ConfirmedAt           *time.Time       `json:"confirmed_at,omitempty"`
	Remarks               string           `json:"remarks,omitempty"`
	TotalQuantityReceived int64            `json:"total_quantity_received"`
	TotalQuantityGood     int64            `json:"total_quantity_good"`
	PriceVariancePercent  *decimal.Decimal `json:"price_variance_percent"`
	CreatedAt             time.Time        `json:"created_at"`
}
