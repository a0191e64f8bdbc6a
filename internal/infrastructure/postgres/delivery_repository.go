package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/procurement-api/internal/domain"
	"github.com/jhoicas/procurement-api/internal/domain/entity"
	"github.com/jhoicas/procurement-api/internal/domain/repository"
)

var _ repository.DeliveryRepository = (*DeliveryRepo)(nil)

// DeliveryRepo entregas append-only sobre PostgreSQL.
type DeliveryRepo struct {
	q Querier
}

// NewDeliveryRepository construye el adaptador de entregas. Pasar pool o tx (Querier).
func NewDeliveryRepository(q Querier) *DeliveryRepo {
	return &DeliveryRepo{q: q}
}

const deliveryColumns = `id, tender_id, delivery_number, delivery_type, delivery_date, received_by, remarks, status, created_at`

// Create inserta cabecera e ítems. Debe ir dentro de una tx para que sea atómico.
func (r *DeliveryRepo) Create(ctx context.Context, d *entity.Delivery) error {
	query := `
		INSERT INTO deliveries (` + deliveryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		d.ID, d.TenderID, d.DeliveryNumber, d.Type, d.DeliveryDate, d.ReceivedBy, d.Remarks, d.Status, d.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create delivery: %w", err)
	}
	itemQuery := `
		INSERT INTO delivery_items (id, delivery_id, tender_id, item_id, quantity_delivered,
			quantity_good, quantity_damaged, quantity_rejected, unit_price_at_delivery)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for _, it := range d.Items {
		_, err := r.q.Exec(ctx, itemQuery,
			it.ID, d.ID, d.TenderID, it.ItemID, it.QuantityDelivered,
			it.QuantityGood, it.QuantityDamaged, it.QuantityRejected, it.UnitPriceAtDelivery,
		)
		if err != nil {
			return fmt.Errorf("create delivery item: %w", err)
		}
	}
	return nil
}

func (r *DeliveryRepo) GetByID(ctx context.Context, id string) (*entity.Delivery, error) {
	d, err := scanDelivery(r.q.QueryRow(ctx, `SELECT `+deliveryColumns+` FROM deliveries WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get delivery: %w", err)
	}
	if d.Items, err = r.items(ctx, d.ID); err != nil {
		return nil, err
	}
	return d, nil
}

// ListByTender en orden de registro.
func (r *DeliveryRepo) ListByTender(ctx context.Context, tenderID string) ([]*entity.Delivery, error) {
	rows, err := r.q.Query(ctx, `SELECT `+deliveryColumns+` FROM deliveries WHERE tender_id = $1 ORDER BY seq`, tenderID)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	list := make([]*entity.Delivery, 0)
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		list = append(list, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, d := range list {
		if d.Items, err = r.items(ctx, d.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (r *DeliveryRepo) CountByTender(ctx context.Context, tenderID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM deliveries WHERE tender_id = $1`, tenderID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count deliveries: %w", err)
	}
	return n, nil
}

func (r *DeliveryRepo) items(ctx context.Context, deliveryID string) ([]entity.DeliveryItem, error) {
	query := `
		SELECT id, delivery_id, item_id, quantity_delivered, quantity_good, quantity_damaged,
			quantity_rejected, unit_price_at_delivery
		FROM delivery_items WHERE delivery_id = $1 ORDER BY position`
	rows, err := r.q.Query(ctx, query, deliveryID)
	if err != nil {
		return nil, fmt.Errorf("list delivery items: %w", err)
	}
	defer rows.Close()
	var list []entity.DeliveryItem
	for rows.Next() {
		var it entity.DeliveryItem
		if err := rows.Scan(&it.ID, &it.DeliveryID, &it.ItemID, &it.QuantityDelivered, &it.QuantityGood,
			&it.QuantityDamaged, &it.QuantityRejected, &it.UnitPriceAtDelivery); err != nil {
			return nil, fmt.Errorf("scan delivery item: %w", err)
		}
		list = append(list, it)
	}
	return list, rows.Err()
}

func scanDelivery(row pgx.Row) (*entity.Delivery, error) {
	var d entity.Delivery
	err := row.Scan(&d.ID, &d.TenderID, &d.DeliveryNumber, &d.Type, &d.DeliveryDate,
		&d.ReceivedBy, &d.Remarks, &d.Status, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
