package eventing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jhoicas/procurement-api/internal/application/ports"
	"github.com/jhoicas/procurement-api/internal/domain"
	"github.com/jhoicas/procurement-api/internal/domain/entity"
)

// Handler aplica un evento usando los repositorios de la transacción en curso.
type Handler func(ctx context.Context, r ports.Repositories, ev *entity.Event) error

type subscription struct {
	consumer string
	handler  Handler
}

// Bus despacho síncrono: Publish agrega el evento al log y lo entrega a los consumidores
// dentro de la misma transacción, así un fallo del consumidor revierte también el evento.
type Bus struct {
	mu    sync.RWMutex
	subs  map[string][]subscription
	names map[string]struct{}
	log   zerolog.Logger
}

// NewBus crea un bus sin suscriptores.
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		subs:  make(map[string][]subscription),
		names: make(map[string]struct{}),
		log:   log,
	}
}

// Subscribe registra handler para eventType bajo el nombre consumer.
// El par (event_id, consumer) se marca como procesado tras aplicar el evento.
func (b *Bus) Subscribe(eventType, consumer string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[eventType] = append(b.subs[eventType], subscription{consumer: consumer, handler: handler})
	b.names[consumer] = struct{}{}
}

// Consumers nombres de consumidores registrados, ordenados.
func (b *Bus) Consumers() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.names))
	for n := range b.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Publish agrega ev al log y lo despacha. Si el id ya existe (evento determinista repetido)
// se despacha la versión almacenada; los marcadores de procesado lo vuelven un no-op.
func (b *Bus) Publish(ctx context.Context, r ports.Repositories, ev *entity.Event) error {
	err := r.Events.Append(ctx, ev)
	if errors.Is(err, domain.ErrDuplicate) {
		stored, gerr := r.Events.GetByID(ctx, ev.ID)
		if gerr != nil {
			return gerr
		}
		if stored == nil {
			return fmt.Errorf("eventing: evento %s duplicado pero no encontrado", ev.ID)
		}
		b.log.Debug().Str("event_id", ev.ID).Str("type", ev.Type).Msg("evento repetido, se omite el append")
		*ev = *stored
		return b.Dispatch(ctx, r, ev)
	}
	if err != nil {
		return err
	}
	return b.Dispatch(ctx, r, ev)
}

// Dispatch entrega ev a los consumidores suscritos a su tipo que aún no lo procesaron.
func (b *Bus) Dispatch(ctx context.Context, r ports.Repositories, ev *entity.Event) error {
	b.mu.RLock()
	subs := append([]subscription(nil), b.subs[ev.Type]...)
	b.mu.RUnlock()

	for _, s := range subs {
		done, err := r.Processed.HasProcessed(ctx, ev.ID, s.consumer)
		if err != nil {
			return err
		}
		if done {
			continue
		}
		if err := s.handler(ctx, r, ev); err != nil {
			b.log.Warn().Err(err).Str("event_id", ev.ID).Str("type", ev.Type).Str("consumer", s.consumer).Msg("consumidor rechazó el evento")
			return err
		}
		if err := r.Processed.MarkProcessed(ctx, ev.ID, s.consumer); err != nil {
			return err
		}
	}
	return nil
}
