// Package acquisition mantiene la proyección de registros de adquisición: se crean al
// finalizar una licitación y su precio real se confirma después.
package acquisition

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/procurement-api/internal/application/dto"
	"github.com/jhoicas/procurement-api/internal/application/events"
	"github.com/jhoicas/procurement-api/internal/application/ports"
	"github.com/jhoicas/procurement-api/internal/domain"
	pricing "github.com/jhoicas/procurement-api/internal/domain/acquisition"
	"github.com/jhoicas/procurement-api/internal/domain/entity"
	"github.com/jhoicas/procurement-api/internal/domain/repository"
	"github.com/jhoicas/procurement-api/internal/eventing"
	"github.com/jhoicas/procurement-api/internal/observability/metrics"
)

// ConsumerName nombre del consumidor en processed_events.
const ConsumerName = "acquisition.ledger"

// LedgerUseCase confirma precios y proyecta los eventos TenderFinalized/PricingConfirmed.
type LedgerUseCase struct {
	records  repository.AcquisitionRepository
	txRunner ports.TxRunner
	bus      *eventing.Bus
	log      zerolog.Logger
	now      func() time.Time
}

// NewLedgerUseCase construye el caso de uso y suscribe sus proyectores al bus.
func NewLedgerUseCase(repos ports.Repositories, txRunner ports.TxRunner, bus *eventing.Bus, log zerolog.Logger) *LedgerUseCase {
	uc := &LedgerUseCase{
		records:  repos.Acquisitions,
		txRunner: txRunner,
		bus:      bus,
		log:      log.With().Str("component", "acquisition").Logger(),
		now:      time.Now,
	}
	bus.Subscribe(events.TypeTenderFinalized, ConsumerName, uc.onTenderFinalized)
	bus.Subscribe(events.TypePricingConfirmed, ConsumerName, uc.onPricingConfirmed)
	return uc
}

// RecordID id determinista del registro de un ítem de licitación.
func RecordID(tenderID, itemID string) string {
	return eventing.DeterministicID("acquisition-record", tenderID, itemID)
}

// onTenderFinalized crea un registro por ítem. Un registro existente se omite sin error.
func (uc *LedgerUseCase) onTenderFinalized(ctx context.Context, r ports.Repositories, ev *entity.Event) error {
	p, err := eventing.Decode[events.TenderFinalized](ev)
	if err != nil {
		return err
	}
	created := 0
	for _, it := range p.Items {
		rec := &entity.AcquisitionRecord{
			ID:                 RecordID(p.TenderID, it.ItemID),
			TenderID:           p.TenderID,
			ItemID:             it.ItemID,
			OrderedQuantity:    it.Quantity,
			EstimatedUnitPrice: it.EstimatedUnitPrice,
			CreatedAt:          p.FinalizedAt,
		}
		err := r.Acquisitions.Create(ctx, rec)
		if errors.Is(err, domain.ErrDuplicate) {
			continue
		}
		if err != nil {
			return fmt.Errorf("ledger: crear registro %s/%s: %w", p.TenderID, it.ItemID, err)
		}
		audit, err := eventing.BuildEvent(entity.StreamAcquisition, rec.ID, events.AcquisitionRecordCreated{
			RecordID:           rec.ID,
			TenderID:           rec.TenderID,
			ItemID:             rec.ItemID,
			OrderedQuantity:    rec.OrderedQuantity,
			EstimatedUnitPrice: rec.EstimatedUnitPrice,
			SourceEventID:      ev.ID,
		}, eventing.Meta{
			EventID:    eventing.DeterministicID(events.TypeAcquisitionRecordCreate, rec.ID),
			OccurredAt: p.FinalizedAt,
			Actor:      ev.Actor,
		})
		if err != nil {
			return err
		}
		if err := uc.bus.Publish(ctx, r, audit); err != nil {
			return err
		}
		created++
	}
	uc.log.Debug().Str("tender_id", p.TenderID).Str("event_id", ev.ID).Int("created", created).Msg("registros de adquisición proyectados")
	return nil
}

func (uc *LedgerUseCase) onPricingConfirmed(ctx context.Context, r ports.Repositories, ev *entity.Event) error {
	p, err := eventing.Decode[events.PricingConfirmed](ev)
	if err != nil {
		return err
	}
	return r.Acquisitions.UpdatePricing(ctx, p.RecordID, p.ActualUnitPrice, p.ConfirmedBy, p.Remarks, p.ConfirmedAt)
}

// ConfirmPricing fija el precio real de un registro. Repetirla sobrescribe el valor anterior.
func (uc *LedgerUseCase) ConfirmPricing(ctx context.Context, recordID, actor string, in dto.ConfirmPricingRequest) (*dto.AcquisitionRecordResponse, error) {
	if in.ActualUnitPrice.LessThan(decimal.Zero) {
		metrics.IncPricingConfirmed(domain.ErrInvalidInput)
		return nil, fmt.Errorf("%w: el precio real no puede ser negativo", domain.ErrInvalidInput)
	}
	if actor == "" {
		actor = "system"
	}
	var out *entity.AcquisitionRecord
	err := uc.txRunner.Run(ctx, func(r ports.Repositories) error {
		rec, err := r.Acquisitions.GetByID(ctx, recordID)
		if err != nil {
			return err
		}
		if rec == nil {
			return domain.NotFound("acquisition record", recordID)
		}
		now := uc.now()
		ev, err := eventing.BuildEvent(entity.StreamAcquisition, rec.ID, events.PricingConfirmed{
			RecordID:        rec.ID,
			TenderID:        rec.TenderID,
			ItemID:          rec.ItemID,
			ActualUnitPrice: in.ActualUnitPrice,
			Remarks:         in.Remarks,
			ConfirmedBy:     actor,
			ConfirmedAt:     now,
		}, eventing.Meta{OccurredAt: now, Actor: actor})
		if err != nil {
			return err
		}
		if err := uc.bus.Publish(ctx, r, ev); err != nil {
			return err
		}
		out, err = r.Acquisitions.GetByID(ctx, recordID)
		return err
	})
	metrics.IncPricingConfirmed(err)
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("record_id", recordID).Str("tender_id", out.TenderID).Str("item_id", out.ItemID).
		Str("actual_unit_price", in.ActualUnitPrice.String()).Msg("precio confirmado")
	return ToRecordResponse(out), nil
}

// Get obtiene un registro con sus acumulados derivados.
func (uc *LedgerUseCase) Get(ctx context.Context, recordID string) (*dto.AcquisitionRecordResponse, error) {
	rec, err := uc.records.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.NotFound("acquisition record", recordID)
	}
	return ToRecordResponse(rec), nil
}

// ListByTender registros de una licitación ordenados por ítem.
func (uc *LedgerUseCase) ListByTender(ctx context.Context, tenderID string) ([]dto.AcquisitionRecordResponse, error) {
	list, err := uc.records.ListByTender(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.AcquisitionRecordResponse, 0, len(list))
	for _, rec := range list {
		out = append(out, *ToRecordResponse(rec))
	}
	return out, nil
}

// ToRecordResponse mapea el registro incluyendo la varianza de precio.
func ToRecordResponse(r *entity.AcquisitionRecord) *dto.AcquisitionRecordResponse {
	return &dto.AcquisitionRecordResponse{
		ID:                    r.ID,
		TenderID:              r.TenderID,
		ItemID:                r.ItemID,
		OrderedQuantity:       r.OrderedQuantity,
		EstimatedUnitPrice:    r.EstimatedUnitPrice,
		ActualUnitPrice:       r.ActualUnitPrice,
		PricingConfirmed:      r.PricingConfirmed,
		ConfirmedBy:           r.ConfirmedBy,
		ConfirmedAt:           r.ConfirmedAt,
		Remarks:               r.Remarks,
		TotalQuantityReceived: r.TotalQuantityReceived,
		TotalQuantityGood:     r.TotalQuantityGood,
		PriceVariancePercent:  pricing.PriceVariancePercent(r),
		CreatedAt:             r.CreatedAt,
	}
}
