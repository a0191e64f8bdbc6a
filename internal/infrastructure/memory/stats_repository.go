package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/procurement-api/internal/domain/repository"
)

// StatsRepo agregados de lectura sobre el store en memoria.
type StatsRepo struct {
	st *Store
}

var _ repository.StatsRepository = (*StatsRepo)(nil)

func (r *StatsRepo) TenderCounts(_ context.Context) ([]repository.TenderCountRow, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	type key struct{ state, kind string }
	counts := make(map[key]int)
	for _, t := range r.st.s.tenders {
		counts[key{t.State, t.AcquisitionType}]++
	}
	out := make([]repository.TenderCountRow, 0, len(counts))
	for k, n := range counts {
		out = append(out, repository.TenderCountRow{State: k.state, AcquisitionType: k.kind, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].State != out[j].State {
			return out[i].State < out[j].State
		}
		return out[i].AcquisitionType < out[j].AcquisitionType
	})
	return out, nil
}

// AcquisitionTotals una fila por licitación con al menos un registro.
func (r *StatsRepo) AcquisitionTotals(_ context.Context) ([]repository.TenderAcquisitionRow, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	rows := make(map[string]*repository.TenderAcquisitionRow)
	for _, rec := range r.st.s.records {
		row, ok := rows[rec.TenderID]
		if !ok {
			row = &repository.TenderAcquisitionRow{TenderID: rec.TenderID}
			if t, found := r.st.s.tenders[rec.TenderID]; found {
				row.AcquisitionType = t.AcquisitionType
			}
			rows[rec.TenderID] = row
		}
		row.Items++
		if rec.PricingConfirmed {
			row.ConfirmedItems++
		}
		row.QuantityReceived += r.st.s.withTotals(rec).TotalQuantityReceived
	}
	out := make([]repository.TenderAcquisitionRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TenderID < out[j].TenderID })
	return out, nil
}
