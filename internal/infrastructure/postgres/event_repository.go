package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/procurement-api/internal/domain"
	"github.com/jhoicas/procurement-api/internal/domain/entity"
	"github.com/jhoicas/procurement-api/internal/domain/repository"
)

var _ repository.EventRepository = (*EventRepo)(nil)

// EventRepo log de eventos append-only; sequence lo asigna BIGSERIAL.
type EventRepo struct {
	q Querier
}

// NewEventRepository construye el adaptador del log. Pasar pool o tx (Querier).
func NewEventRepository(q Querier) *EventRepo {
	return &EventRepo{q: q}
}

const eventColumns = `sequence, id, stream, event_type, aggregate_id, actor, occurred_at, payload`

// Append con ON CONFLICT: un duplicado no aborta la transacción del productor.
func (r *EventRepo) Append(ctx context.Context, ev *entity.Event) error {
	query := `
		INSERT INTO engine_events (id, stream, event_type, aggregate_id, actor, occurred_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
		RETURNING sequence`
	err := r.q.QueryRow(ctx, query,
		ev.ID, ev.Stream, ev.Type, ev.AggregateID, ev.Actor, ev.OccurredAt, []byte(ev.Payload),
	).Scan(&ev.Sequence)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

func (r *EventRepo) GetByID(ctx context.Context, id string) (*entity.Event, error) {
	ev, err := scanEvent(r.q.QueryRow(ctx, `SELECT `+eventColumns+` FROM engine_events WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return ev, nil
}

func (r *EventRepo) List(ctx context.Context, f repository.EventFilter) ([]*entity.Event, error) {
	query := `
		SELECT ` + eventColumns + ` FROM engine_events
		WHERE sequence > $1 AND ($2 = '' OR stream = $2) AND ($3 = '' OR aggregate_id = $3)
		ORDER BY sequence
		LIMIT NULLIF($4, 0)`
	rows, err := r.q.Query(ctx, query, f.AfterSequence, f.Stream, f.AggregateID, f.Limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Event, 0)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		list = append(list, ev)
	}
	return list, rows.Err()
}

func scanEvent(row pgx.Row) (*entity.Event, error) {
	var ev entity.Event
	var payload []byte
	err := row.Scan(&ev.Sequence, &ev.ID, &ev.Stream, &ev.Type, &ev.AggregateID, &ev.Actor, &ev.OccurredAt, &payload)
	if err != nil {
		return nil, err
	}
	ev.Payload = payload
	return &ev, nil
}

var _ repository.ProcessedEventRepository = (*ProcessedEventRepo)(nil)

// ProcessedEventRepo marcadores (event_id, consumer) para idempotencia de los consumidores.
type ProcessedEventRepo struct {
	q Querier
}

// NewProcessedEventRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProcessedEventRepository(q Querier) *ProcessedEventRepo {
	return &ProcessedEventRepo{q: q}
}

func (r *ProcessedEventRepo) HasProcessed(ctx context.Context, eventID, consumer string) (bool, error) {
	var ok bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM processed_events WHERE event_id = $1 AND consumer_name = $2)`,
		eventID, consumer,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("has processed: %w", err)
	}
	return ok, nil
}

func (r *ProcessedEventRepo) MarkProcessed(ctx context.Context, eventID, consumer string) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO processed_events (event_id, consumer_name) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		eventID, consumer,
	)
	if err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}

func (r *ProcessedEventRepo) Reset(ctx context.Context, consumer string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM processed_events WHERE consumer_name = $1`, consumer); err != nil {
		return fmt.Errorf("reset processed: %w", err)
	}
	return nil
}
