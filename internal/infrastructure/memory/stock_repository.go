package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/jhoicas/procurement-api/internal/domain"
	"github.com/jhoicas/procurement-api/internal/domain/entity"
	"github.com/jhoicas/procurement-api/internal/domain/repository"
)

// StockRepo proyección CurrentStock en memoria.
type StockRepo struct {
	st *Store
}

var _ repository.StockRepository = (*StockRepo)(nil)

func (r *StockRepo) Get(_ context.Context, itemID string) (*entity.CurrentStock, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	s, ok := r.st.s.stock[itemID]
	if !ok {
		return nil, nil
	}
	c := *s
	return &c, nil
}

// mutate aplica fn sobre una copia de la fila (creándola si no existe) y la guarda si fn no falla.
func (r *StockRepo) mutate(itemID, actor string, at time.Time, fn func(s *entity.CurrentStock) error) (*entity.CurrentStock, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	c := entity.CurrentStock{ItemID: itemID}
	if cur, ok := r.st.s.stock[itemID]; ok {
		c = *cur
	}
	if err := fn(&c); err != nil {
		return nil, err
	}
	c.LastUpdated = at
	c.UpdatedBy = actor
	r.st.s.stock[itemID] = &c
	out := c
	return &out, nil
}

func (r *StockRepo) Increment(_ context.Context, itemID string, delta int64, actor string, at time.Time) (*entity.CurrentStock, error) {
	return r.mutate(itemID, actor, at, func(s *entity.CurrentStock) error {
		if delta > 0 && s.CurrentQuantity > math.MaxInt64-delta {
			return fmt.Errorf("%w: stock de %s fuera de rango", domain.ErrInvalidInput, itemID)
		}
		if s.CurrentQuantity+delta < 0 {
			return domain.ErrInsufficientStock
		}
		s.CurrentQuantity += delta
		return nil
	})
}

func (r *StockRepo) SetLevels(_ context.Context, itemID string, l repository.StockLevels, actor string, at time.Time) (*entity.CurrentStock, error) {
	return r.mutate(itemID, actor, at, func(s *entity.CurrentStock) error {
		s.MinimumStockLevel = l.Minimum
		s.MaximumStockLevel = l.Maximum
		s.ReorderPoint = l.Reorder
		return nil
	})
}

func (r *StockRepo) SetReserved(_ context.Context, itemID string, reserved int64, actor string, at time.Time) (*entity.CurrentStock, error) {
	return r.mutate(itemID, actor, at, func(s *entity.CurrentStock) error {
		s.ReservedQuantity = reserved
		return nil
	})
}

// List ordenado por item_id.
func (r *StockRepo) List(_ context.Context) ([]*entity.CurrentStock, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	out := make([]*entity.CurrentStock, 0, len(r.st.s.stock))
	for _, s := range r.st.s.stock {
		c := *s
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

func (r *StockRepo) DeleteAll(_ context.Context) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.s.stock = make(map[string]*entity.CurrentStock)
	return nil
}

// StockAdjustmentRepo log de ajustes manuales en memoria.
type StockAdjustmentRepo struct {
	st *Store
}

var _ repository.StockAdjustmentRepository = (*StockAdjustmentRepo)(nil)

func (r *StockAdjustmentRepo) Create(_ context.Context, a *entity.StockAdjustment) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.s.adjustments[a.ID]; ok {
		return domain.ErrDuplicate
	}
	c := *a
	r.st.s.adjustments[a.ID] = &c
	r.st.s.adjOrder = append(r.st.s.adjOrder, a.ID)
	return nil
}

func (r *StockAdjustmentRepo) GetByID(_ context.Context, id string) (*entity.StockAdjustment, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	a, ok := r.st.s.adjustments[id]
	if !ok {
		return nil, nil
	}
	c := *a
	return &c, nil
}

func (r *StockAdjustmentRepo) ListByItem(_ context.Context, itemID string) ([]*entity.StockAdjustment, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	out := make([]*entity.StockAdjustment, 0)
	for _, id := range r.st.s.adjOrder {
		if a := r.st.s.adjustments[id]; a.ItemID == itemID {
			c := *a
			out = append(out, &c)
		}
	}
	return out, nil
}
