package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/procurement-api/internal/domain/repository"
)

var _ repository.StatsRepository = (*StatsRepo)(nil)

// StatsRepo consultas agregadas para el tablero.
type StatsRepo struct {
	q Querier
}

// NewStatsRepository construye el adaptador de estadísticas.
func NewStatsRepository(q Querier) *StatsRepo {
	return &StatsRepo{q: q}
}

func (r *StatsRepo) TenderCounts(ctx context.Context) ([]repository.TenderCountRow, error) {
	query := `
		SELECT lifecycle_state, acquisition_type, COUNT(*)
		FROM tenders
		GROUP BY lifecycle_state, acquisition_type
		ORDER BY lifecycle_state, acquisition_type`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("tender counts: %w", err)
	}
	defer rows.Close()
	list := make([]repository.TenderCountRow, 0)
	for rows.Next() {
		var row repository.TenderCountRow
		if err := rows.Scan(&row.State, &row.AcquisitionType, &row.Count); err != nil {
			return nil, fmt.Errorf("scan tender count: %w", err)
		}
		list = append(list, row)
	}
	return list, rows.Err()
}

// AcquisitionTotals una fila por licitación con al menos un registro.
func (r *StatsRepo) AcquisitionTotals(ctx context.Context) ([]repository.TenderAcquisitionRow, error) {
	query := `
		SELECT a.tender_id, COALESCE(t.acquisition_type, ''),
			COUNT(*), COUNT(*) FILTER (WHERE a.pricing_confirmed),
			COALESCE(SUM(recv.qty), 0)::BIGINT
		FROM acquisition_records a
		LEFT JOIN tenders t ON t.id = a.tender_id
		LEFT JOIN LATERAL (
			SELECT SUM(d.quantity_delivered) AS qty
			FROM delivery_items d
			WHERE d.tender_id = a.tender_id AND d.item_id = a.item_id
		) recv ON true
		GROUP BY a.tender_id, t.acquisition_type
		ORDER BY a.tender_id`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("acquisition totals: %w", err)
	}
	defer rows.Close()
	list := make([]repository.TenderAcquisitionRow, 0)
	for rows.Next() {
		var row repository.TenderAcquisitionRow
		if err := rows.Scan(&row.TenderID, &row.AcquisitionType, &row.Items, &row.ConfirmedItems, &row.QuantityReceived); err != nil {
			return nil, fmt.Errorf("scan acquisition totals: %w", err)
		}
		list = append(list, row)
	}
	return list, rows.Err()
}
