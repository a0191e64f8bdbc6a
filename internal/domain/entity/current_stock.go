package entity

import "time"

// Clasificación de salud del stock.
const (
	StockStatusOutOfStock   = "OutOfStock"
	StockStatusReorderNow   = "ReorderNow"
	StockStatusBelowMinimum = "BelowMinimum"
	StockStatusAboveMaximum = "AboveMaximum"
	StockStatusNormal       = "Normal"
)

// CurrentStock proyección materializada del stock de un ítem.
// Es el pliegue de entregas (cantidad buena) y ajustes; solo el agregador la escribe.
type CurrentStock struct {
	ItemID            string
	CurrentQuantity   int64
	ReservedQuantity  int64
	MinimumStockLevel int64
	MaximumStockLevel int64
	ReorderPoint      int64
	LastUpdated       time.Time
	UpdatedBy         string
}

// AvailableQuantity current - reserved. Puede ser negativa si hay sobre-reserva.
func (s *CurrentStock) AvailableQuantity() int64 {
	return s.CurrentQuantity - s.ReservedQuantity
}

// OverReserved indica reservas por encima del stock disponible.
func (s *CurrentStock) OverReserved() bool {
	return s.ReservedQuantity > s.CurrentQuantity
}
