package stock

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/procurement-api/internal/application/dto"
	"github.com/jhoicas/procurement-api/internal/application/events"
	"github.com/jhoicas/procurement-api/internal/application/ports"
	"github.com/jhoicas/procurement-api/internal/domain"
	"github.com/jhoicas/procurement-api/internal/domain/entity"
	"github.com/jhoicas/procurement-api/internal/domain/repository"
	"github.com/jhoicas/procurement-api/internal/eventing"
	"github.com/jhoicas/procurement-api/internal/observability/metrics"
)

const replayPageSize = 500

// Fold reconstruye el stock por ítem aplicando los eventos en orden de secuencia.
// No valida el piso en cero: el log ya contiene solo eventos aceptados.
func Fold(evs []*entity.Event) (map[string]*entity.CurrentStock, error) {
	out := make(map[string]*entity.CurrentStock)
	get := func(itemID string) *entity.CurrentStock {
		s, ok := out[itemID]
		if !ok {
			s = &entity.CurrentStock{ItemID: itemID}
			out[itemID] = s
		}
		return s
	}
	for _, ev := range evs {
		switch ev.Type {
		case events.TypeDeliveryRegistered:
			p, err := eventing.Decode[events.DeliveryRegistered](ev)
			if err != nil {
				return nil, err
			}
			for _, it := range p.Items {
				if it.QuantityGood != 0 {
					get(it.ItemID).CurrentQuantity += it.QuantityGood
				}
			}
		case events.TypeStockAdjusted:
			p, err := eventing.Decode[events.StockAdjusted](ev)
			if err != nil {
				return nil, err
			}
			get(p.ItemID).CurrentQuantity += p.Delta
		case events.TypeStockLevelsConfigured:
			p, err := eventing.Decode[events.StockLevelsConfigured](ev)
			if err != nil {
				return nil, err
			}
			s := get(p.ItemID)
			s.MinimumStockLevel, s.MaximumStockLevel, s.ReorderPoint = p.Minimum, p.Maximum, p.Reorder
		case events.TypeReservationChanged:
			p, err := eventing.Decode[events.ReservationChanged](ev)
			if err != nil {
				return nil, err
			}
			get(p.ItemID).ReservedQuantity = p.Reserved
		}
	}
	return out, nil
}

// Rebuild vacía las proyecciones (registros de adquisición y stock), borra los marcadores de
// todos los consumidores y vuelve a despachar el log completo en una sola transacción.
func (uc *AggregatorUseCase) Rebuild(ctx context.Context) (*dto.RebuildResult, error) {
	res := &dto.RebuildResult{}
	err := uc.txRunner.Run(ctx, func(r ports.Repositories) error {
		if err := r.Acquisitions.DeleteAll(ctx); err != nil {
			return err
		}
		if err := r.Stock.DeleteAll(ctx); err != nil {
			return err
		}
		for _, c := range uc.bus.Consumers() {
			if err := r.Processed.Reset(ctx, c); err != nil {
				return err
			}
		}
		var after int64
		for {
			page, err := r.Events.List(ctx, repository.EventFilter{AfterSequence: after, Limit: replayPageSize})
			if err != nil {
				return err
			}
			for _, ev := range page {
				if err := uc.bus.Dispatch(ctx, r, ev); err != nil {
					return fmt.Errorf("rebuild: evento %s (seq %d): %w", ev.ID, ev.Sequence, err)
				}
				after = ev.Sequence
				res.EventsReplayed++
			}
			if len(page) < replayPageSize {
				break
			}
		}
		items, err := r.Stock.List(ctx)
		if err != nil {
			return err
		}
		res.StockItems = len(items)
		rows, err := r.Stats.AcquisitionTotals(ctx)
		if err != nil {
			return err
		}
		for _, row := range rows {
			res.Records += row.Items
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.AddEventsReplayed(res.EventsReplayed)
	uc.log.Info().Int("events", res.EventsReplayed).Int("stock_items", res.StockItems).Int("records", res.Records).Msg("proyecciones reconstruidas")
	return res, nil
}

// Verify compara la proyección materializada con el pliegue del log. itemID vacío verifica
// todos los ítems. Si alguno difiere devuelve los resultados junto con ErrProjectionDrift.
func (uc *AggregatorUseCase) Verify(ctx context.Context, itemID string) ([]dto.VerifyResult, error) {
	evs := make([]*entity.Event, 0)
	for _, stream := range []string{entity.StreamDelivery, entity.StreamStock} {
		var after int64
		for {
			page, err := uc.repos.Events.List(ctx, repository.EventFilter{Stream: stream, AfterSequence: after, Limit: replayPageSize})
			if err != nil {
				return nil, err
			}
			evs = append(evs, page...)
			if len(page) < replayPageSize {
				break
			}
			after = page[len(page)-1].Sequence
		}
	}
	sort.Slice(evs, func(i, j int) bool { return evs[i].Sequence < evs[j].Sequence })

	folded, err := Fold(evs)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]struct{})
	if itemID != "" {
		ids[itemID] = struct{}{}
	} else {
		for id := range folded {
			ids[id] = struct{}{}
		}
		list, err := uc.repos.Stock.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, s := range list {
			ids[s.ItemID] = struct{}{}
		}
	}

	out := make([]dto.VerifyResult, 0, len(ids))
	drift := 0
	for id := range ids {
		mat, err := uc.repos.Stock.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if mat == nil {
			mat = &entity.CurrentStock{ItemID: id}
		}
		want, ok := folded[id]
		if !ok {
			want = &entity.CurrentStock{ItemID: id}
		}
		res := dto.VerifyResult{
			ItemID:        id,
			Materialized:  mat.CurrentQuantity,
			Replayed:      want.CurrentQuantity,
			ReservedMatch: mat.ReservedQuantity == want.ReservedQuantity,
			LevelsMatch: mat.MinimumStockLevel == want.MinimumStockLevel &&
				mat.MaximumStockLevel == want.MaximumStockLevel &&
				mat.ReorderPoint == want.ReorderPoint,
		}
		res.Consistent = res.Materialized == res.Replayed && res.ReservedMatch && res.LevelsMatch
		if !res.Consistent {
			drift++
			metrics.IncProjectionDrift()
			uc.log.Error().Str("item_id", id).Int64("materialized", res.Materialized).Int64("replayed", res.Replayed).Msg("proyección de stock divergente")
		}
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	if drift > 0 {
		return out, fmt.Errorf("%w: %d ítem(s)", domain.ErrProjectionDrift, drift)
	}
	return out, nil
}
