package memory

import (
	"context"

	"github.com/jhoicas/procurement-api/internal/domain"
	"github.com/jhoicas/procurement-api/internal/domain/entity"
	"github.com/jhoicas/procurement-api/internal/domain/repository"
)

// EventRepo log de eventos en memoria con secuencia global.
type EventRepo struct {
	st *Store
}

var _ repository.EventRepository = (*EventRepo)(nil)

func (r *EventRepo) Append(_ context.Context, ev *entity.Event) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.s.eventIdx[ev.ID]; ok {
		return domain.ErrDuplicate
	}
	r.st.s.seq++
	ev.Sequence = r.st.s.seq
	c := *ev
	c.Payload = append([]byte(nil), ev.Payload...)
	r.st.s.eventIdx[ev.ID] = len(r.st.s.events)
	r.st.s.events = append(r.st.s.events, &c)
	return nil
}

func (r *EventRepo) GetByID(_ context.Context, id string) (*entity.Event, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	i, ok := r.st.s.eventIdx[id]
	if !ok {
		return nil, nil
	}
	c := *r.st.s.events[i]
	return &c, nil
}

func (r *EventRepo) List(_ context.Context, f repository.EventFilter) ([]*entity.Event, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	out := make([]*entity.Event, 0)
	for _, ev := range r.st.s.events {
		if ev.Sequence <= f.AfterSequence {
			continue
		}
		if f.Stream != "" && ev.Stream != f.Stream {
			continue
		}
		if f.AggregateID != "" && ev.AggregateID != f.AggregateID {
			continue
		}
		c := *ev
		out = append(out, &c)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

// ProcessedEventRepo marcadores (event_id, consumer) en memoria.
type ProcessedEventRepo struct {
	st *Store
}

var _ repository.ProcessedEventRepository = (*ProcessedEventRepo)(nil)

func processedKey(eventID, consumer string) string { return consumer + "|" + eventID }

func (r *ProcessedEventRepo) HasProcessed(_ context.Context, eventID, consumer string) (bool, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	_, ok := r.st.s.processed[processedKey(eventID, consumer)]
	return ok, nil
}

func (r *ProcessedEventRepo) MarkProcessed(_ context.Context, eventID, consumer string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.s.processed[processedKey(eventID, consumer)] = struct{}{}
	return nil
}

func (r *ProcessedEventRepo) Reset(_ context.Context, consumer string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	prefix := consumer + "|"
	for k := range r.st.s.processed {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(r.st.s.processed, k)
		}
	}
	return nil
}
