// Package stock proyecta entregas y ajustes manuales en un CurrentStock por ítem.
// Toda escritura pasa por un evento del log para que la proyección sea reconstruible.
package stock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/procurement-api/internal/application/dto"
	"github.com/jhoicas/procurement-api/internal/application/events"
	"github.com/jhoicas/procurement-api/internal/application/ports"
	"github.com/jhoicas/procurement-api/internal/domain"
	"github.com/jhoicas/procurement-api/internal/domain/entity"
	"github.com/jhoicas/procurement-api/internal/domain/inventory"
	"github.com/jhoicas/procurement-api/internal/domain/repository"
	"github.com/jhoicas/procurement-api/internal/eventing"
	"github.com/jhoicas/procurement-api/internal/observability/metrics"
)

// ConsumerName nombre del consumidor en processed_events.
const ConsumerName = "stock.aggregator"

// AggregatorUseCase único escritor de la proyección CurrentStock.
type AggregatorUseCase struct {
	repos    ports.Repositories
	txRunner ports.TxRunner
	bus      *eventing.Bus
	log      zerolog.Logger
	now      func() time.Time
}

// NewAggregatorUseCase construye el caso de uso y suscribe sus proyectores al bus.
func NewAggregatorUseCase(repos ports.Repositories, txRunner ports.TxRunner, bus *eventing.Bus, log zerolog.Logger) *AggregatorUseCase {
	uc := &AggregatorUseCase{
		repos:    repos,
		txRunner: txRunner,
		bus:      bus,
		log:      log.With().Str("component", "stock").Logger(),
		now:      time.Now,
	}
	bus.Subscribe(events.TypeDeliveryRegistered, ConsumerName, uc.onDeliveryRegistered)
	bus.Subscribe(events.TypeStockAdjusted, ConsumerName, uc.onStockAdjusted)
	bus.Subscribe(events.TypeStockLevelsConfigured, ConsumerName, uc.onLevelsConfigured)
	bus.Subscribe(events.TypeReservationChanged, ConsumerName, uc.onReservationChanged)
	return uc
}

// ── Proyectores ─────────────────────────────────────────────────────────────

func (uc *AggregatorUseCase) onDeliveryRegistered(ctx context.Context, r ports.Repositories, ev *entity.Event) error {
	p, err := eventing.Decode[events.DeliveryRegistered](ev)
	if err != nil {
		return err
	}
	for _, it := range p.Items {
		if it.QuantityGood == 0 {
			continue
		}
		if _, err := r.Stock.Increment(ctx, it.ItemID, it.QuantityGood, ev.Actor, ev.OccurredAt); err != nil {
			return fmt.Errorf("stock: entrega %s, ítem %s: %w", p.DeliveryID, it.ItemID, err)
		}
	}
	return nil
}

func (uc *AggregatorUseCase) onStockAdjusted(ctx context.Context, r ports.Repositories, ev *entity.Event) error {
	p, err := eventing.Decode[events.StockAdjusted](ev)
	if err != nil {
		return err
	}
	_, err = r.Stock.Increment(ctx, p.ItemID, p.Delta, p.Actor, p.At)
	return err
}

func (uc *AggregatorUseCase) onLevelsConfigured(ctx context.Context, r ports.Repositories, ev *entity.Event) error {
	p, err := eventing.Decode[events.StockLevelsConfigured](ev)
	if err != nil {
		return err
	}
	_, err = r.Stock.SetLevels(ctx, p.ItemID, repository.StockLevels{Minimum: p.Minimum, Maximum: p.Maximum, Reorder: p.Reorder}, p.Actor, p.At)
	return err
}

func (uc *AggregatorUseCase) onReservationChanged(ctx context.Context, r ports.Repositories, ev *entity.Event) error {
	p, err := eventing.Decode[events.ReservationChanged](ev)
	if err != nil {
		return err
	}
	_, err = r.Stock.SetReserved(ctx, p.ItemID, p.Reserved, p.Actor, p.At)
	return err
}

// ── Escrituras ──────────────────────────────────────────────────────────────

// ApplyManualAdjustment registra un ajuste manual. Repetir la misma IdempotencyKey devuelve
// el stock vigente sin volver a aplicar el delta.
func (uc *AggregatorUseCase) ApplyManualAdjustment(ctx context.Context, actor string, in dto.StockAdjustmentRequest) (*dto.CurrentStockResponse, error) {
	kind := in.Kind
	if kind == "" {
		kind = entity.AdjustmentKindCorrection
	}
	err := validateAdjustment(in.ItemID, in.Delta, kind)
	if err != nil {
		metrics.IncStockAdjustment(kind, err)
		return nil, err
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" {
		key = uuid.New().String()
	}
	actor = actorOrSystem(actor)

	replayed := false
	err = uc.txRunner.Run(ctx, func(r ports.Repositories) error {
		prev, err := r.Adjustments.GetByID(ctx, key)
		if err != nil {
			return err
		}
		if prev != nil {
			replayed = true
			return nil
		}
		now := uc.now()
		adj := &entity.StockAdjustment{
			ID:        key,
			ItemID:    in.ItemID,
			Delta:     in.Delta,
			Kind:      kind,
			Reason:    in.Reason,
			Actor:     actor,
			CreatedAt: now,
		}
		if err := r.Adjustments.Create(ctx, adj); err != nil {
			return err
		}
		return uc.publish(ctx, r, in.ItemID, actor, now, events.StockAdjusted{
			AdjustmentID: key,
			ItemID:       in.ItemID,
			Delta:        in.Delta,
			Kind:         kind,
			Reason:       in.Reason,
			Actor:        actor,
			At:           now,
		}, eventing.DeterministicID(events.TypeStockAdjusted, key))
	})
	if errors.Is(err, domain.ErrDuplicate) {
		// carrera con otra petición de la misma clave
		replayed, err = true, nil
	}
	metrics.IncStockAdjustment(kind, err)
	if err != nil {
		uc.log.Warn().Err(err).Str("item_id", in.ItemID).Int64("delta", in.Delta).Msg("ajuste rechazado")
		return nil, err
	}
	if replayed {
		uc.log.Info().Str("item_id", in.ItemID).Str("idempotency_key", key).Msg("ajuste repetido, sin cambios")
	} else {
		uc.log.Info().Str("item_id", in.ItemID).Int64("delta", in.Delta).Str("kind", kind).Msg("ajuste aplicado")
	}
	return uc.GetCurrentStock(ctx, in.ItemID)
}

// ConfigureLevels fija mínimo, máximo (0 = sin tope) y punto de reorden.
func (uc *AggregatorUseCase) ConfigureLevels(ctx context.Context, itemID, actor string, in dto.StockLevelsRequest) (*dto.CurrentStockResponse, error) {
	if strings.TrimSpace(itemID) == "" {
		return nil, fmt.Errorf("%w: item_id obligatorio", domain.ErrInvalidInput)
	}
	if in.MinimumStockLevel < 0 || in.MaximumStockLevel < 0 || in.ReorderPoint < 0 {
		return nil, fmt.Errorf("%w: los niveles no pueden ser negativos", domain.ErrInvalidInput)
	}
	if in.MaximumStockLevel > 0 && in.MaximumStockLevel < in.MinimumStockLevel {
		return nil, fmt.Errorf("%w: el máximo es menor que el mínimo", domain.ErrInvalidInput)
	}
	actor = actorOrSystem(actor)
	err := uc.txRunner.Run(ctx, func(r ports.Repositories) error {
		now := uc.now()
		return uc.publish(ctx, r, itemID, actor, now, events.StockLevelsConfigured{
			ItemID:  itemID,
			Minimum: in.MinimumStockLevel,
			Maximum: in.MaximumStockLevel,
			Reorder: in.ReorderPoint,
			Actor:   actor,
			At:      now,
		}, "")
	})
	if err != nil {
		return nil, err
	}
	return uc.GetCurrentStock(ctx, itemID)
}

// SetReservation fija la cantidad reservada. Puede superar el stock; se marca over_reserved.
func (uc *AggregatorUseCase) SetReservation(ctx context.Context, itemID, actor string, in dto.ReservationRequest) (*dto.CurrentStockResponse, error) {
	if strings.TrimSpace(itemID) == "" {
		return nil, fmt.Errorf("%w: item_id obligatorio", domain.ErrInvalidInput)
	}
	if in.ReservedQuantity < 0 {
		return nil, fmt.Errorf("%w: la reserva no puede ser negativa", domain.ErrInvalidInput)
	}
	actor = actorOrSystem(actor)
	err := uc.txRunner.Run(ctx, func(r ports.Repositories) error {
		now := uc.now()
		return uc.publish(ctx, r, itemID, actor, now, events.ReservationChanged{
			ItemID:   itemID,
			Reserved: in.ReservedQuantity,
			Actor:    actor,
			At:       now,
		}, "")
	})
	if err != nil {
		return nil, err
	}
	out, err := uc.GetCurrentStock(ctx, itemID)
	if err == nil && out.OverReserved {
		uc.log.Warn().Str("item_id", itemID).Int64("reserved", out.ReservedQuantity).Int64("current", out.CurrentQuantity).Msg("reserva por encima del stock")
	}
	return out, err
}

// ── Lecturas ────────────────────────────────────────────────────────────────

// GetCurrentStock devuelve el stock del ítem; un ítem desconocido se reporta en cero (OutOfStock).
func (uc *AggregatorUseCase) GetCurrentStock(ctx context.Context, itemID string) (*dto.CurrentStockResponse, error) {
	s, err := uc.repos.Stock.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		s = &entity.CurrentStock{ItemID: itemID}
	}
	return ToStockResponse(s), nil
}

// ListAlerts ítems cuyo estado no es Normal, el más urgente primero. statuses filtra opcionalmente.
func (uc *AggregatorUseCase) ListAlerts(ctx context.Context, statuses []string) ([]dto.CurrentStockResponse, error) {
	list, err := uc.repos.Stock.List(ctx)
	if err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}
	out := make([]dto.CurrentStockResponse, 0)
	for _, s := range list {
		status := inventory.StatusOf(s)
		if status == entity.StockStatusNormal {
			continue
		}
		if len(want) > 0 && !want[status] {
			continue
		}
		out = append(out, *ToStockResponse(s))
	}
	sort.SliceStable(out, func(i, j int) bool {
		ui, uj := inventory.Urgency(out[i].Status), inventory.Urgency(out[j].Status)
		if ui != uj {
			return ui < uj
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out, nil
}

func (uc *AggregatorUseCase) publish(ctx context.Context, r ports.Repositories, itemID, actor string, at time.Time, p events.Payload, eventID string) error {
	ev, err := eventing.BuildEvent(entity.StreamStock, itemID, p, eventing.Meta{EventID: eventID, OccurredAt: at, Actor: actor})
	if err != nil {
		return err
	}
	return uc.bus.Publish(ctx, r, ev)
}

func validateAdjustment(itemID string, delta int64, kind string) error {
	if strings.TrimSpace(itemID) == "" {
		return fmt.Errorf("%w: item_id obligatorio", domain.ErrInvalidInput)
	}
	if delta == 0 {
		return fmt.Errorf("%w: el ajuste no puede ser cero", domain.ErrInvalidInput)
	}
	switch kind {
	case entity.AdjustmentKindBaseline:
		if delta < 0 {
			return fmt.Errorf("%w: la carga inicial debe ser positiva", domain.ErrInvalidInput)
		}
	case entity.AdjustmentKindIssue:
		if delta > 0 {
			return fmt.Errorf("%w: una salida debe ser negativa", domain.ErrInvalidInput)
		}
	case entity.AdjustmentKindCorrection:
	default:
		return fmt.Errorf("%w: tipo de ajuste %q", domain.ErrInvalidInput, kind)
	}
	return nil
}

func actorOrSystem(actor string) string {
	if strings.TrimSpace(actor) == "" {
		return "system"
	}
	return actor
}

// ToStockResponse mapea la proyección con su estado y disponible derivados.
func ToStockResponse(s *entity.CurrentStock) *dto.CurrentStockResponse {
	return &dto.CurrentStockResponse{
		ItemID:            s.ItemID,
		CurrentQuantity:   s.CurrentQuantity,
		ReservedQuantity:  s.ReservedQuantity,
		AvailableQuantity: s.AvailableQuantity(),
		OverReserved:      s.OverReserved(),
		MinimumStockLevel: s.MinimumStockLevel,
		MaximumStockLevel: s.MaximumStockLevel,
		ReorderPoint:      s.ReorderPoint,
		Status:            inventory.StatusOf(s),
		LastUpdated:       s.LastUpdated,
		UpdatedBy:         s.UpdatedBy,
	}
}
