package memory

import (
	"context"

	"github.com/jhoicas/procurement-api/internal/domain"
	"github.com/jhoicas/procurement-api/internal/domain/entity"
	"github.com/jhoicas/procurement-api/internal/domain/repository"
)

// DeliveryRepo entregas en memoria (append-only).
type DeliveryRepo struct {
	st *Store
}

var _ repository.DeliveryRepository = (*DeliveryRepo)(nil)

func (r *DeliveryRepo) Create(_ context.Context, d *entity.Delivery) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.s.deliveries[d.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, cur := range r.st.s.deliveries {
		if cur.TenderID == d.TenderID && cur.DeliveryNumber == d.DeliveryNumber {
			return domain.ErrDuplicate
		}
	}
	r.st.s.deliveries[d.ID] = copyDelivery(d)
	r.st.s.deliveryOrder = append(r.st.s.deliveryOrder, d.ID)
	return nil
}

func (r *DeliveryRepo) GetByID(_ context.Context, id string) (*entity.Delivery, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	d, ok := r.st.s.deliveries[id]
	if !ok {
		return nil, nil
	}
	return copyDelivery(d), nil
}

// ListByTender en orden de registro.
func (r *DeliveryRepo) ListByTender(_ context.Context, tenderID string) ([]*entity.Delivery, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	out := make([]*entity.Delivery, 0)
	for _, id := range r.st.s.deliveryOrder {
		if d := r.st.s.deliveries[id]; d.TenderID == tenderID {
			out = append(out, copyDelivery(d))
		}
	}
	return out, nil
}

func (r *DeliveryRepo) CountByTender(_ context.Context, tenderID string) (int, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	n := 0
	for _, d := range r.st.s.deliveries {
		if d.TenderID == tenderID {
			n++
		}
	}
	return n, nil
}
