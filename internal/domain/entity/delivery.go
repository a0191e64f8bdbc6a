package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados derivados de una entrega (no se asignan directamente).
const (
	DeliveryStatusPending  = "Pending"
	DeliveryStatusPartial  = "Partial"
	DeliveryStatusComplete = "Complete"
	DeliveryStatusDamaged  = "Damaged"
)

// Tipos de entrega. Correction admite cantidades negativas para corregir entregas previas.
const (
	DeliveryTypeRegular    = "Regular"
	DeliveryTypeCorrection = "Correction"
)

// Delivery evento físico de recepción contra una licitación finalizada. Inmutable una vez guardada.
type Delivery struct {
	ID             string
	TenderID       string
	DeliveryNumber string
	Type           string
	DeliveryDate   time.Time
	ReceivedBy     string
	Remarks        string
	Status         string
	Items          []DeliveryItem
	CreatedAt      time.Time
}

// DeliveryItem cantidades por condición para un ítem de la entrega.
type DeliveryItem struct {
	ID                  string
	DeliveryID          string
	ItemID              string
	QuantityDelivered   int64
	QuantityGood        int64
	QuantityDamaged     int64
	QuantityRejected    int64
	UnitPriceAtDelivery decimal.Decimal
}

// Balanced verifica good + damaged + rejected == delivered.
func (i DeliveryItem) Balanced() bool {
	return i.QuantityGood+i.QuantityDamaged+i.QuantityRejected == i.QuantityDelivered
}
