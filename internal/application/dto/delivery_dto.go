package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryItemRequest cantidades por condición de un ítem recibido.
type DeliveryItemRequest struct {
	ItemID              string           `json:"item_id"`
	QuantityDelivered   int64            `json:"quantity_delivered"`
	QuantityGood        int64            `json:"quantity_good"`
	QuantityDamaged     int64            `json:"quantity_damaged"`
	QuantityRejected    int64            `json:"quantity_rejected"`
	UnitPriceAtDelivery *decimal.Decimal `json:"unit_price_at_delivery,omitempty"`
}

// RegisterDeliveryRequest body para POST /api/tenders/:id/deliveries.
// DeliveryID opcional: si se repite, se devuelve la entrega ya registrada.
type RegisterDeliveryRequest struct {
	TenderID       string                `json:"-"`
	DeliveryID     string                `json:"delivery_id,omitempty"`
	DeliveryNumber string                `json:"delivery_number,omitempty"`
	Type           string                `json:"delivery_type,omitempty"` // vacío = Regular
	DeliveryDate   *time.Time            `json:"delivery_date,omitempty"`
	ReceivedBy     string                `json:"received_by"`
	Remarks        string                `json:"remarks"`
	Items          []DeliveryItemRequest `json:"items"`
}

// DeliveryItemResponse ítem en respuestas.
type DeliveryItemResponse struct {
	ID                  string          `json:"id"`
	ItemID              string          `json:"item_id"`
	QuantityDelivered   int64           `json:"quantity_delivered"`
	QuantityGood        int64           `json:"quantity_good"`
	QuantityDamaged     int64           `json:"quantity_damaged"`
	QuantityRejected    int64           `json:"quantity_rejected"`
	UnitPriceAtDelivery decimal.Decimal `json:"unit_price_at_delivery"`
}

// DeliveryResponse entrega registrada.
type DeliveryResponse struct {
	ID             string                 `json:"id"`
	TenderID       string                 `json:"tender_id"`
	DeliveryNumber string                 `json:"delivery_number"`
	Type           string                 `json:"delivery_type"`
	DeliveryDate   time.Time              `json:"delivery_date"`
	ReceivedBy     string                 `json:"received_by"`
	Remarks        string                 `json:"remarks,omitempty"`
	Status         string                 `json:"status"`
	Items          []DeliveryItemResponse `json:"items"`
	CreatedAt      time.Time              `json:"created_at"`
}
