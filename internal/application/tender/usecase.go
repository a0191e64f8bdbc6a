// Package tender contiene los casos de uso del ciclo de vida de licitaciones
// (Draft → Published → Finalized). Finalizar es el único disparador de los registros de adquisición.
package tender

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/procurement-api/internal/application/dto"
	"github.com/jhoicas/procurement-api/internal/application/events"
	"github.com/jhoicas/procurement-api/internal/application/ports"
	"github.com/jhoicas/procurement-api/internal/domain"
	"github.com/jhoicas/procurement-api/internal/domain/entity"
	"github.com/jhoicas/procurement-api/internal/domain/repository"
	"github.com/jhoicas/procurement-api/internal/eventing"
	"github.com/jhoicas/procurement-api/internal/observability/metrics"
)

// SystemActor actor por defecto cuando la operación no trae usuario.
const SystemActor = "system"

// LifecycleUseCase casos de uso de licitaciones. Las lecturas usan repos del pool;
// las escrituras corren en txRunner y publican en el stream tender.
type LifecycleUseCase struct {
	tenders  repository.TenderRepository
	txRunner ports.TxRunner
	bus      *eventing.Bus
	log      zerolog.Logger
	now      func() time.Time
}

// NewLifecycleUseCase construye el caso de uso.
func NewLifecycleUseCase(repos ports.Repositories, txRunner ports.TxRunner, bus *eventing.Bus, log zerolog.Logger) *LifecycleUseCase {
	return &LifecycleUseCase{
		tenders:  repos.Tenders,
		txRunner: txRunner,
		bus:      bus,
		log:      log.With().Str("component", "tender").Logger(),
		now:      time.Now,
	}
}

// Create registra una licitación en estado Draft.
func (uc *LifecycleUseCase) Create(ctx context.Context, actor string, in dto.CreateTenderRequest) (*dto.TenderResponse, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.ReferenceNumber = strings.TrimSpace(in.ReferenceNumber)
	if in.Title == "" || in.ReferenceNumber == "" {
		return nil, fmt.Errorf("%w: título y número de referencia son obligatorios", domain.ErrInvalidInput)
	}
	if in.AcquisitionType == "" {
		in.AcquisitionType = entity.AcquisitionTypeContract
	}
	if !entity.ValidAcquisitionType(in.AcquisitionType) {
		return nil, fmt.Errorf("%w: tipo de adquisición %q", domain.ErrInvalidInput, in.AcquisitionType)
	}

	now := uc.now()
	t := &entity.Tender{
		ID:              uuid.New().String(),
		Title:           in.Title,
		ReferenceNumber: in.ReferenceNumber,
		Description:     in.Description,
		AcquisitionType: in.AcquisitionType,
		State:           entity.TenderStateDraft,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	seen := make(map[string]struct{}, len(in.Items))
	for _, it := range in.Items {
		item, err := toLineItem(it)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[item.ItemID]; dup {
			return nil, fmt.Errorf("%w: ítem %s repetido", domain.ErrDuplicate, item.ItemID)
		}
		seen[item.ItemID] = struct{}{}
		t.Items = append(t.Items, item)
	}

	err := uc.txRunner.Run(ctx, func(r ports.Repositories) error {
		if err := r.Tenders.Create(ctx, t); err != nil {
			return err
		}
		return uc.publish(ctx, r, t.ID, actorOrSystem(actor), now, events.TenderCreated{
			TenderID:        t.ID,
			Title:           t.Title,
			ReferenceNumber: t.ReferenceNumber,
			AcquisitionType: t.AcquisitionType,
		}, "")
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("tender_id", t.ID).Str("reference", t.ReferenceNumber).Int("items", len(t.Items)).Msg("licitación creada")
	return toTenderResponse(t), nil
}

// Update modifica la cabecera. Solo en Draft o Published.
func (uc *LifecycleUseCase) Update(ctx context.Context, id string, in dto.UpdateTenderRequest) (*dto.TenderResponse, error) {
	var out *entity.Tender
	err := uc.txRunner.Run(ctx, func(r ports.Repositories) error {
		t, err := loadMutable(ctx, r, id, "update")
		if err != nil {
			return err
		}
		if in.Title != nil {
			if strings.TrimSpace(*in.Title) == "" {
				return fmt.Errorf("%w: título vacío", domain.ErrInvalidInput)
			}
			t.Title = strings.TrimSpace(*in.Title)
		}
		if in.ReferenceNumber != nil {
			if strings.TrimSpace(*in.ReferenceNumber) == "" {
				return fmt.Errorf("%w: número de referencia vacío", domain.ErrInvalidInput)
			}
			t.ReferenceNumber = strings.TrimSpace(*in.ReferenceNumber)
		}
		if in.Description != nil {
			t.Description = *in.Description
		}
		if in.AcquisitionType != nil {
			if !entity.ValidAcquisitionType(*in.AcquisitionType) {
				return fmt.Errorf("%w: tipo de adquisición %q", domain.ErrInvalidInput, *in.AcquisitionType)
			}
			t.AcquisitionType = *in.AcquisitionType
		}
		t.UpdatedAt = uc.now()
		if err := r.Tenders.Update(ctx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toTenderResponse(out), nil
}

// AddLineItem agrega un ítem. Solo en Draft o Published; item_id repetido → ErrDuplicate.
func (uc *LifecycleUseCase) AddLineItem(ctx context.Context, id string, in dto.TenderItemRequest) (*dto.TenderResponse, error) {
	item, err := toLineItem(in)
	if err != nil {
		return nil, err
	}
	var out *entity.Tender
	err = uc.txRunner.Run(ctx, func(r ports.Repositories) error {
		t, err := loadMutable(ctx, r, id, "add item")
		if err != nil {
			return err
		}
		if _, exists := t.Item(item.ItemID); exists {
			return fmt.Errorf("%w: ítem %s ya existe en la licitación", domain.ErrDuplicate, item.ItemID)
		}
		if err := r.Tenders.AddItem(ctx, id, item); err != nil {
			return err
		}
		out, err = r.Tenders.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toTenderResponse(out), nil
}

// RemoveLineItem quita un ítem. Solo en Draft o Published.
func (uc *LifecycleUseCase) RemoveLineItem(ctx context.Context, id, itemID string) (*dto.TenderResponse, error) {
	var out *entity.Tender
	err := uc.txRunner.Run(ctx, func(r ports.Repositories) error {
		t, err := loadMutable(ctx, r, id, "remove item")
		if err != nil {
			return err
		}
		if _, exists := t.Item(itemID); !exists {
			return domain.NotFound("tender item", itemID)
		}
		if err := r.Tenders.RemoveItem(ctx, id, itemID); err != nil {
			return err
		}
		out, err = r.Tenders.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toTenderResponse(out), nil
}

// Publish Draft → Published.
func (uc *LifecycleUseCase) Publish(ctx context.Context, id, actor string) (*dto.TenderResponse, error) {
	var out *entity.Tender
	err := uc.txRunner.Run(ctx, func(r ports.Repositories) error {
		t, err := r.Tenders.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.NotFound("tender", id)
		}
		if t.State != entity.TenderStateDraft {
			return &domain.StateError{Kind: domain.ErrInvalidStateTransition, TenderID: id, State: t.State, Op: "publish"}
		}
		now := uc.now()
		t.State = entity.TenderStatePublished
		t.UpdatedAt = now
		if err := r.Tenders.Update(ctx, t); err != nil {
			return err
		}
		out = t
		return uc.publish(ctx, r, id, actorOrSystem(actor), now, events.TenderPublished{
			TenderID:    id,
			PublishedBy: actorOrSystem(actor),
			PublishedAt: now,
		}, "")
	})
	metrics.IncTenderTransition(entity.TenderStatePublished, err)
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("tender_id", id).Msg("licitación publicada")
	return toTenderResponse(out), nil
}

// Finalize Draft/Published → Finalized. Publica TenderFinalized con id derivado de la licitación,
// de modo que el ledger crea los registros dentro de la misma transacción una sola vez.
func (uc *LifecycleUseCase) Finalize(ctx context.Context, id, actor string) (*dto.TenderResponse, error) {
	actor = actorOrSystem(actor)
	var out *entity.Tender
	err := uc.txRunner.Run(ctx, func(r ports.Repositories) error {
		t, err := r.Tenders.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.NotFound("tender", id)
		}
		if t.IsFinalized() {
			return &domain.StateError{Kind: domain.ErrInvalidStateTransition, TenderID: id, State: t.State, Op: "finalize"}
		}
		now := uc.now()
		t.State = entity.TenderStateFinalized
		t.FinalizedAt = &now
		t.FinalizedBy = actor
		t.UpdatedAt = now
		if err := r.Tenders.Update(ctx, t); err != nil {
			return err
		}
		out = t

		payload := events.TenderFinalized{
			TenderID:        id,
			ReferenceNumber: t.ReferenceNumber,
			FinalizedBy:     actor,
			FinalizedAt:     now,
			Items:           make([]events.FinalizedItem, 0, len(t.Items)),
		}
		for _, it := range t.Items {
			payload.Items = append(payload.Items, events.FinalizedItem{
				ItemID:             it.ItemID,
				Quantity:           it.Quantity,
				EstimatedUnitPrice: it.EstimatedUnitPrice,
			})
		}
		return uc.publish(ctx, r, id, actor, now, payload, FinalizedEventID(id))
	})
	metrics.IncTenderTransition(entity.TenderStateFinalized, err)
	if err != nil {
		uc.log.Warn().Err(err).Str("tender_id", id).Msg("finalización rechazada")
		return nil, err
	}
	uc.log.Info().Str("tender_id", id).Str("finalized_by", actor).Int("items", len(out.Items)).Msg("licitación finalizada")
	return toTenderResponse(out), nil
}

// Delete elimina una licitación en Draft sin registros de adquisición.
func (uc *LifecycleUseCase) Delete(ctx context.Context, id, actor string) error {
	err := uc.txRunner.Run(ctx, func(r ports.Repositories) error {
		t, err := r.Tenders.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.NotFound("tender", id)
		}
		switch t.State {
		case entity.TenderStateFinalized:
			return &domain.StateError{Kind: domain.ErrImmutableEntity, TenderID: id, State: t.State, Op: "delete"}
		case entity.TenderStatePublished:
			return &domain.StateError{Kind: domain.ErrInvalidStateTransition, TenderID: id, State: t.State, Op: "delete"}
		}
		n, err := r.Acquisitions.CountByTender(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return &domain.StateError{Kind: domain.ErrImmutableEntity, TenderID: id, State: t.State, Op: "delete with acquisition records"}
		}
		if err := r.Tenders.Delete(ctx, id); err != nil {
			return err
		}
		return uc.publish(ctx, r, id, actorOrSystem(actor), uc.now(), events.TenderDeleted{TenderID: id, DeletedBy: actorOrSystem(actor)}, "")
	})
	if err != nil {
		return err
	}
	uc.log.Info().Str("tender_id", id).Msg("licitación eliminada")
	return nil
}

// Get obtiene una licitación con sus ítems.
func (uc *LifecycleUseCase) Get(ctx context.Context, id string) (*dto.TenderResponse, error) {
	t, err := uc.tenders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.NotFound("tender", id)
	}
	return toTenderResponse(t), nil
}

// List lista licitaciones, opcionalmente por estado.
func (uc *LifecycleUseCase) List(ctx context.Context, f dto.TenderFilter) (*dto.TenderListResponse, error) {
	f.DefaultPage()
	list, err := uc.tenders.List(ctx, repository.TenderFilter{State: f.State, Limit: f.Limit, Offset: f.Offset})
	if err != nil {
		return nil, err
	}
	out := &dto.TenderListResponse{
		Items: make([]dto.TenderResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: f.Limit, Offset: f.Offset},
	}
	for _, t := range list {
		out.Items = append(out.Items, *toTenderResponse(t))
	}
	out.Page.Returned = len(out.Items)
	return out, nil
}

// FinalizedEventID id determinista del evento TenderFinalized de una licitación.
func FinalizedEventID(tenderID string) string {
	return eventing.DeterministicID(events.TypeTenderFinalized, tenderID)
}

func (uc *LifecycleUseCase) publish(ctx context.Context, r ports.Repositories, tenderID, actor string, at time.Time, p events.Payload, eventID string) error {
	ev, err := eventing.BuildEvent(entity.StreamTender, tenderID, p, eventing.Meta{EventID: eventID, OccurredAt: at, Actor: actor})
	if err != nil {
		return err
	}
	return uc.bus.Publish(ctx, r, ev)
}

// loadMutable bloquea la licitación y verifica que admita cambios.
func loadMutable(ctx context.Context, r ports.Repositories, id, op string) (*entity.Tender, error) {
	t, err := r.Tenders.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.NotFound("tender", id)
	}
	if t.IsFinalized() {
		return nil, &domain.StateError{Kind: domain.ErrImmutableEntity, TenderID: id, State: t.State, Op: op}
	}
	return t, nil
}

func toLineItem(in dto.TenderItemRequest) (entity.TenderLineItem, error) {
	id := strings.TrimSpace(in.ItemID)
	if id == "" {
		return entity.TenderLineItem{}, fmt.Errorf("%w: item_id obligatorio", domain.ErrInvalidInput)
	}
	if in.Quantity <= 0 {
		return entity.TenderLineItem{}, fmt.Errorf("%w: ítem %s: la cantidad debe ser mayor a 0", domain.ErrInvalidInput, id)
	}
	if in.EstimatedUnitPrice.LessThan(decimal.Zero) {
		return entity.TenderLineItem{}, fmt.Errorf("%w: ítem %s: precio estimado negativo", domain.ErrInvalidInput, id)
	}
	return entity.TenderLineItem{
		ItemID:             id,
		Description:        in.Description,
		Quantity:           in.Quantity,
		EstimatedUnitPrice: in.EstimatedUnitPrice,
	}, nil
}

func actorOrSystem(actor string) string {
	if strings.TrimSpace(actor) == "" {
		return SystemActor
	}
	return actor
}

func toTenderResponse(t *entity.Tender) *dto.TenderResponse {
	out := &dto.TenderResponse{
		ID:              t.ID,
		Title:           t.Title,
		ReferenceNumber: t.ReferenceNumber,
		Description:     t.Description,
		AcquisitionType: t.AcquisitionType,
		State:           t.State,
		Items:           make([]dto.TenderItemResponse, 0, len(t.Items)),
		FinalizedAt:     t.FinalizedAt,
		FinalizedBy:     t.FinalizedBy,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
	for _, it := range t.Items {
		out.Items = append(out.Items, dto.TenderItemResponse{
			ItemID:             it.ItemID,
			Description:        it.Description,
			Quantity:           it.Quantity,
			EstimatedUnitPrice: it.EstimatedUnitPrice,
		})
	}
	return out
}
