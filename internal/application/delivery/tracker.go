// Package delivery registra entregas parciales clasificadas por condición contra
// los registros de adquisición de una licitación finalizada.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/procurement-api/internal/application/dto"
	"github.com/jhoicas/procurement-api/internal/application/events"
	"github.com/jhoicas/procurement-api/internal/application/ports"
	"github.com/jhoicas/procurement-api/internal/domain"
	rules "github.com/jhoicas/procurement-api/internal/domain/delivery"
	"github.com/jhoicas/procurement-api/internal/domain/entity"
	"github.com/jhoicas/procurement-api/internal/domain/repository"
	"github.com/jhoicas/procurement-api/internal/eventing"
	"github.com/jhoicas/procurement-api/internal/observability/metrics"
)

// Config parámetros de recepción.
type Config struct {
	// TolerancePercent sobre-entrega admitida sobre lo ordenado (0 = ninguna).
	TolerancePercent decimal.Decimal
}

// TrackerUseCase registra entregas. Cada ítem se serializa con ItemLocker y, dentro de la
// transacción, con el bloqueo de fila del registro de adquisición.
type TrackerUseCase struct {
	deliveries repository.DeliveryRepository
	txRunner   ports.TxRunner
	locker     ports.ItemLocker
	bus        *eventing.Bus
	cfg        Config
	log        zerolog.Logger
	now        func() time.Time
}

// NewTrackerUseCase construye el caso de uso.
func NewTrackerUseCase(repos ports.Repositories, txRunner ports.TxRunner, locker ports.ItemLocker, bus *eventing.Bus, cfg Config, log zerolog.Logger) *TrackerUseCase {
	return &TrackerUseCase{
		deliveries: repos.Deliveries,
		txRunner:   txRunner,
		locker:     locker,
		bus:        bus,
		cfg:        cfg,
		log:        log.With().Str("component", "delivery").Logger(),
		now:        time.Now,
	}
}

// LockKey clave de serialización de un ítem de licitación.
func LockKey(tenderID, itemID string) string {
	return "tender:" + tenderID + ":item:" + itemID
}

// RegisterDelivery valida y guarda una entrega y publica DeliveryRegistered, que el agregador
// de inventario aplica en la misma transacción. Si DeliveryID ya está registrado devuelve la
// entrega almacenada sin efectos.
func (uc *TrackerUseCase) RegisterDelivery(ctx context.Context, in dto.RegisterDeliveryRequest) (*dto.DeliveryResponse, error) {
	start := uc.now()
	d, err := uc.register(ctx, in)
	status := ""
	if d != nil {
		status = d.Status
	}
	metrics.ObserveDelivery(status, err, time.Since(start))
	if err != nil {
		uc.log.Warn().Err(err).Str("tender_id", in.TenderID).Str("delivery_id", in.DeliveryID).Msg("entrega rechazada")
		return nil, err
	}
	return toDeliveryResponse(d), nil
}

func (uc *TrackerUseCase) register(ctx context.Context, in dto.RegisterDeliveryRequest) (*entity.Delivery, error) {
	if in.DeliveryID != "" {
		existing, err := uc.deliveries.GetByID(ctx, in.DeliveryID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if err := sameTender(existing, in.TenderID); err != nil {
				return nil, err
			}
			uc.log.Info().Str("delivery_id", existing.ID).Msg("entrega repetida, se devuelve la registrada")
			return existing, nil
		}
	}
	if err := validate(in); err != nil {
		return nil, err
	}
	deliveryType := in.Type
	if deliveryType == "" {
		deliveryType = entity.DeliveryTypeRegular
	}

	keys := make([]string, 0, len(in.Items))
	for _, it := range in.Items {
		keys = append(keys, LockKey(in.TenderID, it.ItemID))
	}
	sort.Strings(keys)
	unlock, err := uc.locker.Lock(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("delivery: bloquear ítems: %w", err)
	}
	defer unlock()

	var out *entity.Delivery
	err = uc.txRunner.Run(ctx, func(r ports.Repositories) error {
		// Otra petición con el mismo id pudo terminar mientras esperábamos el lock.
		if in.DeliveryID != "" {
			existing, err := r.Deliveries.GetByID(ctx, in.DeliveryID)
			if err != nil {
				return err
			}
			if existing != nil {
				if err := sameTender(existing, in.TenderID); err != nil {
					return err
				}
				out = existing
				return nil
			}
		}
		// FOR UPDATE sobre la licitación: serializa la numeración DLV-NNNN entre ítems distintos.
		t, err := r.Tenders.GetForUpdate(ctx, in.TenderID)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.NotFound("tender", in.TenderID)
		}
		items := sortedItems(in.Items)
		if !t.IsFinalized() {
			return &domain.ItemError{Kind: domain.ErrUnknownAcquisitionItem, TenderID: t.ID, ItemID: items[0].ItemID, Detail: "la licitación no está finalizada"}
		}

		outstanding := make(map[string]int64, len(items))
		records := make(map[string]*entity.AcquisitionRecord, len(items))
		for _, it := range items {
			rec, err := r.Acquisitions.LockForDelivery(ctx, t.ID, it.ItemID)
			if err != nil {
				return err
			}
			if rec == nil {
				return &domain.ItemError{Kind: domain.ErrUnknownAcquisitionItem, TenderID: t.ID, ItemID: it.ItemID}
			}
			if err := uc.checkRunningTotal(t.ID, rec, it, deliveryType); err != nil {
				return err
			}
			outstanding[it.ItemID] = rec.Outstanding()
			records[it.ItemID] = rec
		}

		now := uc.now()
		number := strings.TrimSpace(in.DeliveryNumber)
		if number == "" {
			n, err := r.Deliveries.CountByTender(ctx, t.ID)
			if err != nil {
				return err
			}
			number = fmt.Sprintf("DLV-%04d", n+1)
		}
		d := &entity.Delivery{
			ID:             in.DeliveryID,
			TenderID:       t.ID,
			DeliveryNumber: number,
			Type:           deliveryType,
			DeliveryDate:   now,
			ReceivedBy:     in.ReceivedBy,
			Remarks:        in.Remarks,
			CreatedAt:      now,
		}
		if d.ID == "" {
			d.ID = uuid.New().String()
		}
		if in.DeliveryDate != nil {
			d.DeliveryDate = *in.DeliveryDate
		}
		for _, it := range items {
			rec := records[it.ItemID]
			price := rec.EstimatedUnitPrice
			if rec.ActualUnitPrice != nil {
				price = *rec.ActualUnitPrice
			}
			if it.UnitPriceAtDelivery != nil {
				price = *it.UnitPriceAtDelivery
			}
			d.Items = append(d.Items, entity.DeliveryItem{
				ID:                  uuid.New().String(),
				DeliveryID:          d.ID,
				ItemID:              it.ItemID,
				QuantityDelivered:   it.QuantityDelivered,
				QuantityGood:        it.QuantityGood,
				QuantityDamaged:     it.QuantityDamaged,
				QuantityRejected:    it.QuantityRejected,
				UnitPriceAtDelivery: price,
			})
		}
		d.Status = rules.ComputeStatus(d.Items, outstanding)

		if err := r.Deliveries.Create(ctx, d); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				return fmt.Errorf("%w: número de entrega %s ya existe en la licitación", domain.ErrDuplicate, number)
			}
			return err
		}
		ev, err := eventing.BuildEvent(entity.StreamDelivery, d.ID, toRegisteredEvent(d), eventing.Meta{
			EventID:    RegisteredEventID(d.ID),
			OccurredAt: now,
			Actor:      d.ReceivedBy,
		})
		if err != nil {
			return err
		}
		if err := uc.bus.Publish(ctx, r, ev); err != nil {
			return err
		}
		out = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, it := range out.Items {
		metrics.AddUnitsReceived(it.QuantityGood, it.QuantityDamaged, it.QuantityRejected)
	}
	uc.log.Info().Str("delivery_id", out.ID).Str("tender_id", out.TenderID).Str("number", out.DeliveryNumber).
		Str("status", out.Status).Int("items", len(out.Items)).Msg("entrega registrada")
	return out, nil
}

// checkRunningTotal aplica el tope ordenado + tolerancia y, en correcciones, el piso en cero.
func (uc *TrackerUseCase) checkRunningTotal(tenderID string, rec *entity.AcquisitionRecord, it dto.DeliveryItemRequest, deliveryType string) error {
	allowed := rules.AllowedReceipt(rec.OrderedQuantity, uc.cfg.TolerancePercent)
	if rules.ExceedsAllowed(rec.TotalQuantityReceived, it.QuantityDelivered, allowed) {
		return &domain.OverDeliveryError{
			TenderID:        tenderID,
			ItemID:          it.ItemID,
			Ordered:         rec.OrderedQuantity,
			AlreadyReceived: rec.TotalQuantityReceived,
			Attempted:       it.QuantityDelivered,
			Allowed:         allowed,
		}
	}
	if deliveryType == entity.DeliveryTypeCorrection {
		total, okTotal := rules.AddQuantities(rec.TotalQuantityReceived, it.QuantityDelivered)
		good, okGood := rules.AddQuantities(rec.TotalQuantityGood, it.QuantityGood)
		if !okTotal || !okGood || total < 0 || good < 0 {
			return &domain.ItemError{Kind: domain.ErrInvalidInput, TenderID: tenderID, ItemID: it.ItemID, Detail: "la corrección deja acumulados negativos"}
		}
	}
	return nil
}

// Get obtiene una entrega con sus ítems.
func (uc *TrackerUseCase) Get(ctx context.Context, id string) (*dto.DeliveryResponse, error) {
	d, err := uc.deliveries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, domain.NotFound("delivery", id)
	}
	return toDeliveryResponse(d), nil
}

// ListByTender entregas de una licitación en orden de registro.
func (uc *TrackerUseCase) ListByTender(ctx context.Context, tenderID string) ([]dto.DeliveryResponse, error) {
	list, err := uc.deliveries.ListByTender(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.DeliveryResponse, 0, len(list))
	for _, d := range list {
		out = append(out, *toDeliveryResponse(d))
	}
	return out, nil
}

// RegisteredEventID id determinista del evento DeliveryRegistered.
func RegisteredEventID(deliveryID string) string {
	return eventing.DeterministicID(events.TypeDeliveryRegistered, deliveryID)
}

func validate(in dto.RegisterDeliveryRequest) error {
	if strings.TrimSpace(in.TenderID) == "" {
		return fmt.Errorf("%w: tender_id obligatorio", domain.ErrInvalidInput)
	}
	switch in.Type {
	case "", entity.DeliveryTypeRegular, entity.DeliveryTypeCorrection:
	default:
		return fmt.Errorf("%w: tipo de entrega %q", domain.ErrInvalidInput, in.Type)
	}
	if len(in.Items) == 0 {
		return fmt.Errorf("%w: la entrega no tiene ítems", domain.ErrInvalidInput)
	}
	seen := make(map[string]struct{}, len(in.Items))
	for _, it := range in.Items {
		if strings.TrimSpace(it.ItemID) == "" {
			return fmt.Errorf("%w: item_id obligatorio", domain.ErrInvalidInput)
		}
		if _, dup := seen[it.ItemID]; dup {
			return fmt.Errorf("%w: ítem %s repetido en la entrega", domain.ErrInvalidInput, it.ItemID)
		}
		seen[it.ItemID] = struct{}{}
		if sum, ok := rules.AddQuantities(it.QuantityGood, it.QuantityDamaged, it.QuantityRejected); !ok || sum != it.QuantityDelivered {
			return &domain.QuantityError{
				TenderID:  in.TenderID,
				ItemID:    it.ItemID,
				Delivered: it.QuantityDelivered,
				Good:      it.QuantityGood,
				Damaged:   it.QuantityDamaged,
				Rejected:  it.QuantityRejected,
			}
		}
		if in.Type != entity.DeliveryTypeCorrection &&
			(it.QuantityDelivered < 0 || it.QuantityGood < 0 || it.QuantityDamaged < 0 || it.QuantityRejected < 0) {
			return &domain.ItemError{Kind: domain.ErrInvalidInput, TenderID: in.TenderID, ItemID: it.ItemID, Detail: "cantidades negativas solo en correcciones"}
		}
		if it.UnitPriceAtDelivery != nil && it.UnitPriceAtDelivery.LessThan(decimal.Zero) {
			return &domain.ItemError{Kind: domain.ErrInvalidInput, TenderID: in.TenderID, ItemID: it.ItemID, Detail: "precio de entrega negativo"}
		}
	}
	return nil
}

// sameTender un delivery_id repetido solo es reintento si pertenece a la misma licitación.
func sameTender(existing *entity.Delivery, tenderID string) error {
	if existing.TenderID != tenderID {
		return fmt.Errorf("%w: la entrega %s pertenece a la licitación %s", domain.ErrDuplicate, existing.ID, existing.TenderID)
	}
	return nil
}

func sortedItems(items []dto.DeliveryItemRequest) []dto.DeliveryItemRequest {
	out := append([]dto.DeliveryItemRequest(nil), items...)
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out
}

func toRegisteredEvent(d *entity.Delivery) events.DeliveryRegistered {
	p := events.DeliveryRegistered{
		DeliveryID:     d.ID,
		TenderID:       d.TenderID,
		DeliveryNumber: d.DeliveryNumber,
		DeliveryType:   d.Type,
		Status:         d.Status,
		ReceivedBy:     d.ReceivedBy,
		DeliveredAt:    d.DeliveryDate,
		Items:          make([]events.DeliveredItem, 0, len(d.Items)),
	}
	for _, it := range d.Items {
		p.Items = append(p.Items, events.DeliveredItem{
			ItemID:            it.ItemID,
			QuantityDelivered: it.QuantityDelivered,
			QuantityGood:      it.QuantityGood,
			QuantityDamaged:   it.QuantityDamaged,
			QuantityRejected:  it.QuantityRejected,
		})
	}
	return p
}

func toDeliveryResponse(d *entity.Delivery) *dto.DeliveryResponse {
	out := &dto.DeliveryResponse{
		ID:             d.ID,
		TenderID:       d.TenderID,
		DeliveryNumber: d.DeliveryNumber,
		Type:           d.Type,
		DeliveryDate:   d.DeliveryDate,
		ReceivedBy:     d.ReceivedBy,
		Remarks:        d.Remarks,
		Status:         d.Status,
		Items:          make([]dto.DeliveryItemResponse, 0, len(d.Items)),
		CreatedAt:      d.CreatedAt,
	}
	for _, it := range d.Items {
		out.Items = append(out.Items, dto.DeliveryItemResponse{
			ID:                  it.ID,
			ItemID:              it.ItemID,
			QuantityDelivered:   it.QuantityDelivered,
			QuantityGood:        it.QuantityGood,
			QuantityDamaged:     it.QuantityDamaged,
			QuantityRejected:    it.QuantityRejected,
			UnitPriceAtDelivery: it.UnitPriceAtDelivery,
		})
	}
	return out
}
