package entity

import (
	"encoding/json"
	"time"
)

// Streams del log de eventos (uno por componente que escribe).
const (
	StreamTender      = "tender"
	StreamAcquisition = "acquisition"
	StreamDelivery    = "delivery"
	StreamStock       = "stock"
)

// Event entrada del log append-only. Sequence lo asigna el store al insertar.
type Event struct {
	ID          string
	Sequence    int64
	Stream      string
	Type        string
	AggregateID string
	Actor       string
	OccurredAt  time.Time
	Payload     json.RawMessage
}
