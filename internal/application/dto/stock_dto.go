package dto

import "time"

// StockAdjustmentRequest body para POST /api/stock/:itemId/adjustments.
type StockAdjustmentRequest struct {
	ItemID         string `json:"-"`
	Delta          int64  `json:"delta"`
	Kind           string `json:"kind"` // Baseline, Correction, Issue; vacío = Correction
	Reason         string `json:"reason"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// StockLevelsRequest body para PUT /api/stock/:itemId/levels.
type StockLevelsRequest struct {
	MinimumStockLevel int64 `json:"minimum_stock_level"`
	MaximumStockLevel int64 `json:"maximum_stock_level"` // 0 = sin tope
	ReorderPoint      int64 `json:"reorder_point"`
}

// ReservationRequest body para PUT /api/stock/:itemId/reservation.
type ReservationRequest struct {
	ReservedQuantity int64 `json:"reserved_quantity"`
}

// CurrentStockResponse stock vigente de un ítem con su estado derivado.
type CurrentStockResponse struct {
	ItemID            string    `json:"item_id"`
	CurrentQuantity   int64     `json:"current_quantity"`
	ReservedQuantity  int64     `json:"reserved_quantity"`
	AvailableQuantity int64     `json:"available_quantity"`
	OverReserved      bool      `json:"over_reserved"`
	MinimumStockLevel int64     `json:"minimum_stock_level"`
	MaximumStockLevel int64     `json:"maximum_stock_level"`
	ReorderPoint      int64     `json:"reorder_point"`
	Status            string    `json:"status"`
	LastUpdated       time.Time `json:"last_updated"`
	UpdatedBy         string    `json:"updated_by,omitempty"`
}

// VerifyResult comparación entre la proyección y el pliegue del log para un ítem.
type VerifyResult struct {
	ItemID        string `json:"item_id"`
	Materialized  int64  `json:"materialized_quantity"`
	Replayed      int64  `json:"replayed_quantity"`
	ReservedMatch bool   `json:"reserved_match"`
	LevelsMatch   bool   `json:"levels_match"`
	Consistent    bool   `json:"consistent"`
}

// RebuildResult resumen de una reconstrucción desde el log.
type RebuildResult struct {
	EventsReplayed int `json:"events_replayed"`
	Records        int `json:"acquisition_records"`
	StockItems     int `json:"stock_items"`
}
