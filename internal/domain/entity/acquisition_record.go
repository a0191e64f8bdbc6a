package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AcquisitionRecord registro por ítem creado al finalizar la licitación.
// TotalQuantityReceived no se persiste: se deriva de las entregas en cada lectura.
type AcquisitionRecord struct {
	ID                    string
	TenderID              string
	ItemID                string
	OrderedQuantity       int64
	EstimatedUnitPrice    decimal.Decimal
	ActualUnitPrice       *decimal.Decimal
	PricingConfirmed      bool
	ConfirmedBy           string
	ConfirmedAt           *time.Time
	Remarks               string
	TotalQuantityReceived int64
	TotalQuantityGood     int64
	CreatedAt             time.Time
}

// Outstanding cantidad buena que aún falta por recibir (nunca negativa).
func (r *AcquisitionRecord) Outstanding() int64 {
	if r.TotalQuantityGood >= r.OrderedQuantity {
		return 0
	}
	return r.OrderedQuantity - r.TotalQuantityGood
}
