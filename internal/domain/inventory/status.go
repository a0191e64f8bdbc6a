package inventory

import "github.com/jhoicas/procurement-api/internal/domain/entity"

// ClassifyStatus clasifica la salud del stock con precedencia fija:
// OutOfStock > ReorderNow > BelowMinimum > AboveMaximum > Normal.
// Un máximo <= 0 significa "sin tope".
func ClassifyStatus(current, minimum, maximum, reorder int64) string {
	switch {
	case current == 0:
		return entity.StockStatusOutOfStock
	case current <= reorder:
		return entity.StockStatusReorderNow
	case current < minimum:
		return entity.StockStatusBelowMinimum
	case maximum > 0 && current > maximum:
		return entity.StockStatusAboveMaximum
	default:
		return entity.StockStatusNormal
	}
}

// StatusOf clasifica una proyección de stock.
func StatusOf(s *entity.CurrentStock) string {
	return ClassifyStatus(s.CurrentQuantity, s.MinimumStockLevel, s.MaximumStockLevel, s.ReorderPoint)
}

// Urgency orden de prioridad para listados de alertas (menor = más urgente).
func Urgency(status string) int {
	switch status {
	case entity.StockStatusOutOfStock:
		return 0
	case entity.StockStatusReorderNow:
		return 1
	case entity.StockStatusBelowMinimum:
		return 2
	case entity.StockStatusAboveMaximum:
		return 3
	default:
		return 4
	}
}
