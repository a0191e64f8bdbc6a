package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/procurement-api/internal/domain"
	"github.com/jhoicas/procurement-api/internal/domain/entity"
	"github.com/jhoicas/procurement-api/internal/domain/repository"
)

var _ repository.AcquisitionRepository = (*AcquisitionRepo)(nil)

// AcquisitionRepo proyección de registros de adquisición. Los acumulados salen de delivery_items.
type AcquisitionRepo struct {
	q Querier
}

// NewAcquisitionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAcquisitionRepository(q Querier) *AcquisitionRepo {
	return &AcquisitionRepo{q: q}
}

const acquisitionSelect = `
	SELECT a.id, a.tender_id, a.item_id, a.ordered_quantity, a.estimated_unit_price, a.actual_unit_price,
		a.pricing_confirmed, a.confirmed_by, a.confirmed_at, a.remarks, a.created_at,
		COALESCE(SUM(d.quantity_delivered), 0)::BIGINT, COALESCE(SUM(d.quantity_good), 0)::BIGINT
	FROM acquisition_records a
	LEFT JOIN delivery_items d ON d.tender_id = a.tender_id AND d.item_id = a.item_id`

const acquisitionGroup = ` GROUP BY a.id`

// Create usa ON CONFLICT para no abortar la transacción ante un duplicado.
func (r *AcquisitionRepo) Create(ctx context.Context, rec *entity.AcquisitionRecord) error {
	query := `
		INSERT INTO acquisition_records (id, tender_id, item_id, ordered_quantity, estimated_unit_price,
			actual_unit_price, pricing_confirmed, confirmed_by, confirmed_at, remarks, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT DO NOTHING`
	tag, err := r.q.Exec(ctx, query,
		rec.ID, rec.TenderID, rec.ItemID, rec.OrderedQuantity, rec.EstimatedUnitPrice,
		rec.ActualUnitPrice, rec.PricingConfirmed, rec.ConfirmedBy, rec.ConfirmedAt, rec.Remarks, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create acquisition record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicate
	}
	return nil
}

func (r *AcquisitionRepo) GetByID(ctx context.Context, id string) (*entity.AcquisitionRecord, error) {
	return r.one(ctx, acquisitionSelect+` WHERE a.id = $1`+acquisitionGroup, id)
}

func (r *AcquisitionRepo) GetByTenderItem(ctx context.Context, tenderID, itemID string) (*entity.AcquisitionRecord, error) {
	return r.one(ctx, acquisitionSelect+` WHERE a.tender_id = $1 AND a.item_id = $2`+acquisitionGroup, tenderID, itemID)
}

// LockForDelivery toma FOR UPDATE sobre el registro y luego lee los acumulados.
// FOR UPDATE no admite agregados, por eso son dos consultas.
func (r *AcquisitionRepo) LockForDelivery(ctx context.Context, tenderID, itemID string) (*entity.AcquisitionRecord, error) {
	var id string
	err := r.q.QueryRow(ctx,
		`SELECT id FROM acquisition_records WHERE tender_id = $1 AND item_id = $2 FOR UPDATE`,
		tenderID, itemID,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock acquisition record: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *AcquisitionRepo) one(ctx context.Context, query string, args ...any) (*entity.AcquisitionRecord, error) {
	rec, err := scanAcquisition(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get acquisition record: %w", err)
	}
	return rec, nil
}

// ListByTender ordenado por item_id.
func (r *AcquisitionRepo) ListByTender(ctx context.Context, tenderID string) ([]*entity.AcquisitionRecord, error) {
	rows, err := r.q.Query(ctx, acquisitionSelect+` WHERE a.tender_id = $1`+acquisitionGroup+` ORDER BY a.item_id`, tenderID)
	if err != nil {
		return nil, fmt.Errorf("list acquisition records: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.AcquisitionRecord, 0)
	for rows.Next() {
		rec, err := scanAcquisition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan acquisition record: %w", err)
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

func (r *AcquisitionRepo) CountByTender(ctx context.Context, tenderID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM acquisition_records WHERE tender_id = $1`, tenderID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count acquisition records: %w", err)
	}
	return n, nil
}

// UpdatePricing sobrescribe el precio real; una reconfirmación reemplaza la anterior.
func (r *AcquisitionRepo) UpdatePricing(ctx context.Context, id string, actual decimal.Decimal, confirmedBy, remarks string, at time.Time) error {
	query := `
		UPDATE acquisition_records
		SET actual_unit_price = $2, pricing_confirmed = true, confirmed_by = $3, remarks = $4, confirmed_at = $5
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, id, actual, confirmedBy, remarks, at)
	if err != nil {
		return fmt.Errorf("update pricing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("acquisition record", id)
	}
	return nil
}

func (r *AcquisitionRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM acquisition_records`); err != nil {
		return fmt.Errorf("delete acquisition records: %w", err)
	}
	return nil
}

func scanAcquisition(row pgx.Row) (*entity.AcquisitionRecord, error) {
	var rec entity.AcquisitionRecord
	err := row.Scan(
		&rec.ID, &rec.TenderID, &rec.ItemID, &rec.OrderedQuantity, &rec.EstimatedUnitPrice, &rec.ActualUnitPrice,
		&rec.PricingConfirmed, &rec.ConfirmedBy, &rec.ConfirmedAt, &rec.Remarks, &rec.CreatedAt,
		&rec.TotalQuantityReceived, &rec.TotalQuantityGood,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
