// Package events define los payloads de los eventos del motor de conciliación.
// El tipo de cada evento es estable porque se persiste en el log.
package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de evento persistidos.
const (
	TypeTenderCreated           = "TenderCreated"
	TypeTenderPublished         = "TenderPublished"
	TypeTenderFinalized         = "TenderFinalized"
	TypeTenderDeleted           = "TenderDeleted"
	TypeAcquisitionRecordCreate = "AcquisitionRecordCreated"
	TypePricingConfirmed        = "PricingConfirmed"
	TypeDeliveryRegistered      = "DeliveryRegistered"
	TypeStockAdjusted           = "StockAdjusted"
	TypeStockLevelsConfigured   = "StockLevelsConfigured"
	TypeReservationChanged      = "ReservationChanged"
)

// Payload lo implementan todos los eventos.
type Payload interface {
	EventType() string
}

// TenderCreated se emite al registrar una licitación en borrador.
type TenderCreated struct {
	TenderID        string `json:"tender_id"`
	Title           string `json:"title"`
	ReferenceNumber string `json:"reference_number"`
	AcquisitionType string `json:"acquisition_type"`
}

func (TenderCreated) EventType() string { return TypeTenderCreated }

// TenderPublished Draft -> Published.
type TenderPublished struct {
	TenderID    string    `json:"tender_id"`
	PublishedBy string    `json:"published_by"`
	PublishedAt time.Time `json:"published_at"`
}

func (TenderPublished) EventType() string { return TypeTenderPublished }

// FinalizedItem copia congelada de un ítem al momento de finalizar.
type FinalizedItem struct {
	ItemID             string          `json:"item_id"`
	Quantity           int64           `json:"quantity"`
	EstimatedUnitPrice decimal.Decimal `json:"estimated_unit_price"`
}

// TenderFinalized único disparador de la creación de registros de adquisición.
type TenderFinalized struct {
	TenderID        string          `json:"tender_id"`
	ReferenceNumber string          `json:"reference_number"`
	FinalizedBy     string          `json:"finalized_by"`
	FinalizedAt     time.Time       `json:"finalized_at"`
	Items           []FinalizedItem `json:"items"`
}

func (TenderFinalized) EventType() string { return TypeTenderFinalized }

// TenderDeleted baja de una licitación en borrador.
type TenderDeleted struct {
	TenderID  string `json:"tender_id"`
	DeletedBy string `json:"deleted_by"`
}

func (TenderDeleted) EventType() string { return TypeTenderDeleted }

// AcquisitionRecordCreated entrada de auditoría del ledger; no tiene consumidores.
type AcquisitionRecordCreated struct {
	RecordID           string          `json:"record_id"`
	TenderID           string          `json:"tender_id"`
	ItemID             string          `json:"item_id"`
	OrderedQuantity    int64           `json:"ordered_quantity"`
	EstimatedUnitPrice decimal.Decimal `json:"estimated_unit_price"`
	SourceEventID      string          `json:"source_event_id"`
}

func (AcquisitionRecordCreated) EventType() string { return TypeAcquisitionRecordCreate }

// PricingConfirmed confirmación (o corrección) del precio real de un registro.
type PricingConfirmed struct {
	RecordID        string          `json:"record_id"`
	TenderID        string          `json:"tender_id"`
	ItemID          string          `json:"item_id"`
	ActualUnitPrice decimal.Decimal `json:"actual_unit_price"`
	Remarks         string          `json:"remarks,omitempty"`
	ConfirmedBy     string          `json:"confirmed_by"`
	ConfirmedAt     time.Time       `json:"confirmed_at"`
}

func (PricingConfirmed) EventType() string { return TypePricingConfirmed }

// DeliveredItem cantidades por condición de un ítem entregado.
type DeliveredItem struct {
	ItemID            string `json:"item_id"`
	QuantityDelivered int64  `json:"quantity_delivered"`
	QuantityGood      int64  `json:"quantity_good"`
	QuantityDamaged   int64  `json:"quantity_damaged"`
	QuantityRejected  int64  `json:"quantity_rejected"`
}

// DeliveryRegistered lo consume el agregador de inventario.
type DeliveryRegistered struct {
	DeliveryID     string          `json:"delivery_id"`
	TenderID       string          `json:"tender_id"`
	DeliveryNumber string          `json:"delivery_number"`
	DeliveryType   string          `json:"delivery_type"`
	Status         string          `json:"status"`
	ReceivedBy     string          `json:"received_by"`
	DeliveredAt    time.Time       `json:"delivered_at"`
	Items          []DeliveredItem `json:"items"`
}

func (DeliveryRegistered) EventType() string { return TypeDeliveryRegistered }

// StockAdjusted ajuste manual (carga inicial, corrección o salida).
type StockAdjusted struct {
	AdjustmentID string    `json:"adjustment_id"`
	ItemID       string    `json:"item_id"`
	Delta        int64     `json:"delta"`
	Kind         string    `json:"kind"`
	Reason       string    `json:"reason"`
	Actor        string    `json:"actor"`
	At           time.Time `json:"at"`
}

func (StockAdjusted) EventType() string { return TypeStockAdjusted }

// StockLevelsConfigured cambio de umbrales mínimo/máximo/reorden.
type StockLevelsConfigured struct {
	ItemID  string    `json:"item_id"`
	Minimum int64     `json:"minimum"`
	Maximum int64     `json:"maximum"`
	Reorder int64     `json:"reorder"`
	Actor   string    `json:"actor"`
	At      time.Time `json:"at"`
}

func (StockLevelsConfigured) EventType() string { return TypeStockLevelsConfigured }

// ReservationChanged nueva cantidad reservada (valor absoluto).
type ReservationChanged struct {
	ItemID   string    `json:"item_id"`
	Reserved int64     `json:"reserved"`
	Actor    string    `json:"actor"`
	At       time.Time `json:"at"`
}

func (ReservationChanged) EventType() string { return TypeReservationChanged }
