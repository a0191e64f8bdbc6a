package repository

import (
	"context"

	"github.com/jhoicas/procurement-api/internal/domain/entity"
)

// EventFilter filtros para leer el log. AfterSequence permite paginar en orden de inserción.
type EventFilter struct {
	Stream        string
	AggregateID   string
	AfterSequence int64
	Limit         int
}

// EventRepository log append-only compartido por los cuatro streams.
type EventRepository interface {
	// Append asigna Sequence; domain.ErrDuplicate si el ID ya existe.
	Append(ctx context.Context, event *entity.Event) error
	GetByID(ctx context.Context, id string) (*entity.Event, error)
	// List devuelve eventos ordenados por Sequence ascendente.
	List(ctx context.Context, filter EventFilter) ([]*entity.Event, error)
}

// ProcessedEventRepository marca los eventos ya aplicados por cada consumidor (idempotencia).
type ProcessedEventRepository interface {
	HasProcessed(ctx context.Context, eventID, consumer string) (bool, error)
	MarkProcessed(ctx context.Context, eventID, consumer string) error
	Reset(ctx context.Context, consumer string) error
}
