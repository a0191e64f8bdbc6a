package entity

import "time"

// Tipos de ajuste manual de stock.
const (
	AdjustmentKindBaseline   = "Baseline"   // carga inicial
	AdjustmentKindCorrection = "Correction" // corrección de conteo
	AdjustmentKindIssue      = "Issue"      // salida/consumo externo al motor
)

// StockAdjustment ajuste manual append-only. El ID hace de clave de idempotencia.
type StockAdjustment struct {
	ID        string
	ItemID    string
	Delta     int64
	Kind      string
	Reason    string
	Actor     string
	CreatedAt time.Time
}
