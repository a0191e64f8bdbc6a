// Package eventing construye eventos del log y los despacha a los consumidores en proceso.
package eventing

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/procurement-api/internal/application/events"
	"github.com/jhoicas/procurement-api/internal/domain/entity"
)

// namespace fijo para ids deterministas (UUID v5).
var namespace = uuid.MustParse("6f1c2b9e-4d0a-5c3e-9b7a-2e8f1d4c6a10")

// Meta permite fijar id, fecha y actor del evento.
type Meta struct {
	EventID    string
	OccurredAt time.Time
	Actor      string
}

// DeterministicID deriva un UUID v5 estable a partir de las partes. Se usa para que
// repetir una operación produzca el mismo id de evento o de registro.
func DeterministicID(parts ...string) string {
	return uuid.NewSHA1(namespace, []byte(strings.Join(parts, "/"))).String()
}

// BuildEvent serializa el payload y completa los metadatos que falten.
func BuildEvent(stream, aggregateID string, payload events.Payload, meta Meta) (*entity.Event, error) {
	if payload == nil {
		return nil, errors.New("eventing: payload nil")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("eventing: serializar %s: %w", payload.EventType(), err)
	}
	id := meta.EventID
	if id == "" {
		id = uuid.New().String()
	}
	at := meta.OccurredAt
	if at.IsZero() {
		at = time.Now()
	}
	return &entity.Event{
		ID:          id,
		Stream:      stream,
		Type:        payload.EventType(),
		AggregateID: aggregateID,
		Actor:       meta.Actor,
		OccurredAt:  at.UTC(),
		Payload:     raw,
	}, nil
}

// Decode deserializa el payload de ev en T.
func Decode[T any](ev *entity.Event) (T, error) {
	var out T
	if err := json.Unmarshal(ev.Payload, &out); err != nil {
		return out, fmt.Errorf("eventing: decodificar %s %s: %w", ev.Type, ev.ID, err)
	}
	return out, nil
}
