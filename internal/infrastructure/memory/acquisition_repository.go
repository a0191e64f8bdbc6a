package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/procurement-api/internal/domain"
	"github.com/jhoicas/procurement-api/internal/domain/entity"
	"github.com/jhoicas/procurement-api/internal/domain/repository"
)

// AcquisitionRepo registros de adquisición en memoria. Los totales recibidos se calculan en cada lectura.
type AcquisitionRepo struct {
	st *Store
}

var _ repository.AcquisitionRepository = (*AcquisitionRepo)(nil)

func recordKey(tenderID, itemID string) string { return tenderID + "|" + itemID }

func (r *AcquisitionRepo) Create(_ context.Context, rec *entity.AcquisitionRecord) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	key := recordKey(rec.TenderID, rec.ItemID)
	if _, ok := r.st.s.records[rec.ID]; ok {
		return domain.ErrDuplicate
	}
	if _, ok := r.st.s.recordByKey[key]; ok {
		return domain.ErrDuplicate
	}
	c := *rec
	c.TotalQuantityReceived, c.TotalQuantityGood = 0, 0
	r.st.s.records[rec.ID] = &c
	r.st.s.recordByKey[key] = rec.ID
	return nil
}

func (r *AcquisitionRepo) GetByID(_ context.Context, id string) (*entity.AcquisitionRecord, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	rec, ok := r.st.s.records[id]
	if !ok {
		return nil, nil
	}
	return r.st.s.withTotals(rec), nil
}

func (r *AcquisitionRepo) GetByTenderItem(_ context.Context, tenderID, itemID string) (*entity.AcquisitionRecord, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	id, ok := r.st.s.recordByKey[recordKey(tenderID, itemID)]
	if !ok {
		return nil, nil
	}
	return r.st.s.withTotals(r.st.s.records[id]), nil
}

// LockForDelivery no necesita bloqueo de fila: las transacciones ya están serializadas.
func (r *AcquisitionRepo) LockForDelivery(ctx context.Context, tenderID, itemID string) (*entity.AcquisitionRecord, error) {
	return r.GetByTenderItem(ctx, tenderID, itemID)
}

// ListByTender ordenado por item_id.
func (r *AcquisitionRepo) ListByTender(_ context.Context, tenderID string) ([]*entity.AcquisitionRecord, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	out := make([]*entity.AcquisitionRecord, 0)
	for _, rec := range r.st.s.records {
		if rec.TenderID == tenderID {
			out = append(out, r.st.s.withTotals(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

func (r *AcquisitionRepo) CountByTender(_ context.Context, tenderID string) (int, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	n := 0
	for _, rec := range r.st.s.records {
		if rec.TenderID == tenderID {
			n++
		}
	}
	return n, nil
}

func (r *AcquisitionRepo) UpdatePricing(_ context.Context, id string, actual decimal.Decimal, confirmedBy, remarks string, at time.Time) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	cur, ok := r.st.s.records[id]
	if !ok {
		return domain.NotFound("acquisition record", id)
	}
	c := *cur
	price := actual
	when := at
	c.ActualUnitPrice = &price
	c.PricingConfirmed = true
	c.ConfirmedBy = confirmedBy
	c.ConfirmedAt = &when
	c.Remarks = remarks
	r.st.s.records[id] = &c
	return nil
}

func (r *AcquisitionRepo) DeleteAll(_ context.Context) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.s.records = make(map[string]*entity.AcquisitionRecord)
	r.st.s.recordByKey = make(map[string]string)
	return nil
}

// withTotals copia rec y suma las cantidades de todas las entregas de su licitación+ítem.
func (s *state) withTotals(rec *entity.AcquisitionRecord) *entity.AcquisitionRecord {
	c := *rec
	c.TotalQuantityReceived, c.TotalQuantityGood = 0, 0
	for _, d := range s.deliveries {
		if d.TenderID != rec.TenderID {
			continue
		}
		for _, it := range d.Items {
			if it.ItemID == rec.ItemID {
				c.TotalQuantityReceived += it.QuantityDelivered
				c.TotalQuantityGood += it.QuantityGood
			}
		}
	}
	return &c
}
