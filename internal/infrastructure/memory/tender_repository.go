package memory

import (
	"context"
	"time"

	"github.com/jhoicas/procurement-api/internal/domain"
	"github.com/jhoicas/procurement-api/internal/domain/entity"
	"github.com/jhoicas/procurement-api/internal/domain/repository"
)

// TenderRepo licitaciones en memoria.
type TenderRepo struct {
	st *Store
}

var _ repository.TenderRepository = (*TenderRepo)(nil)

func (r *TenderRepo) Create(_ context.Context, t *entity.Tender) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.s.tenders[t.ID]; ok {
		return domain.ErrDuplicate
	}
	r.st.s.tenders[t.ID] = copyTender(t)
	r.st.s.tenderOrder = append(r.st.s.tenderOrder, t.ID)
	return nil
}

func (r *TenderRepo) GetByID(_ context.Context, id string) (*entity.Tender, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	t, ok := r.st.s.tenders[id]
	if !ok {
		return nil, nil
	}
	return copyTender(t), nil
}

// GetForUpdate equivale a GetByID: Run ya serializa las transacciones.
func (r *TenderRepo) GetForUpdate(ctx context.Context, id string) (*entity.Tender, error) {
	return r.GetByID(ctx, id)
}

func (r *TenderRepo) Update(_ context.Context, t *entity.Tender) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	cur, ok := r.st.s.tenders[t.ID]
	if !ok {
		return domain.NotFound("tender", t.ID)
	}
	c := copyTender(t)
	c.Items = cur.Items
	r.st.s.tenders[t.ID] = c
	return nil
}

func (r *TenderRepo) AddItem(_ context.Context, tenderID string, item entity.TenderLineItem) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	cur, ok := r.st.s.tenders[tenderID]
	if !ok {
		return domain.NotFound("tender", tenderID)
	}
	if _, exists := cur.Item(item.ItemID); exists {
		return domain.ErrDuplicate
	}
	c := copyTender(cur)
	c.Items = append(c.Items, item)
	c.UpdatedAt = time.Now()
	r.st.s.tenders[tenderID] = c
	return nil
}

func (r *TenderRepo) RemoveItem(_ context.Context, tenderID, itemID string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	cur, ok := r.st.s.tenders[tenderID]
	if !ok {
		return domain.NotFound("tender", tenderID)
	}
	c := copyTender(cur)
	c.Items = c.Items[:0]
	found := false
	for _, it := range cur.Items {
		if it.ItemID == itemID {
			found = true
			continue
		}
		c.Items = append(c.Items, it)
	}
	if !found {
		return domain.NotFound("tender item", itemID)
	}
	c.UpdatedAt = time.Now()
	r.st.s.tenders[tenderID] = c
	return nil
}

func (r *TenderRepo) Delete(_ context.Context, id string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.s.tenders[id]; !ok {
		return domain.NotFound("tender", id)
	}
	delete(r.st.s.tenders, id)
	order := r.st.s.tenderOrder[:0:0]
	for _, tid := range r.st.s.tenderOrder {
		if tid != id {
			order = append(order, tid)
		}
	}
	r.st.s.tenderOrder = order
	return nil
}

// List devuelve las licitaciones más recientes primero, como la versión postgres.
func (r *TenderRepo) List(_ context.Context, f repository.TenderFilter) ([]*entity.Tender, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	out := make([]*entity.Tender, 0)
	for i := len(r.st.s.tenderOrder) - 1; i >= 0; i-- {
		t := r.st.s.tenders[r.st.s.tenderOrder[i]]
		if f.State != "" && t.State != f.State {
			continue
		}
		out = append(out, copyTender(t))
	}
	return paginate(out, f.Limit, f.Offset), nil
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(list) {
			return list[:0]
		}
		list = list[offset:]
	}
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
