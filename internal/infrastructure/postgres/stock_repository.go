package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/procurement-api/internal/domain"
	"github.com/jhoicas/procurement-api/internal/domain/entity"
	"github.com/jhoicas/procurement-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

const stockColumns = `item_id, current_quantity, reserved_quantity, minimum_stock_level, maximum_stock_level,
	reorder_point, last_updated, updated_by`

// Get obtiene el stock actual de un ítem; (nil, nil) si nunca se movió.
func (r *StockRepo) Get(ctx context.Context, itemID string) (*entity.CurrentStock, error) {
	s, err := scanStock(r.q.QueryRow(ctx, `SELECT `+stockColumns+` FROM current_stock WHERE item_id = $1`, itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return s, nil
}

// Increment suma delta en una sola sentencia. Con delta negativo solo actualiza si el resultado
// queda >= 0; así el CHECK nunca salta y la tx no se aborta.
func (r *StockRepo) Increment(ctx context.Context, itemID string, delta int64, actor string, at time.Time) (*entity.CurrentStock, error) {
	var query string
	if delta >= 0 {
		query = `
			INSERT INTO current_stock (item_id, current_quantity, last_updated, updated_by)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (item_id) DO UPDATE
			SET current_quantity = current_stock.current_quantity + EXCLUDED.current_quantity,
				last_updated = EXCLUDED.last_updated, updated_by = EXCLUDED.updated_by
			RETURNING ` + stockColumns
	} else {
		query = `
			UPDATE current_stock
			SET current_quantity = current_quantity + $2, last_updated = $3, updated_by = $4
			WHERE item_id = $1 AND current_quantity + $2 >= 0
			RETURNING ` + stockColumns
	}
	s, err := scanStock(r.q.QueryRow(ctx, query, itemID, delta, at, actor))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: ítem %s, delta %d", domain.ErrInsufficientStock, itemID, delta)
		}
		return nil, fmt.Errorf("increment stock: %w", err)
	}
	return s, nil
}

func (r *StockRepo) SetLevels(ctx context.Context, itemID string, l repository.StockLevels, actor string, at time.Time) (*entity.CurrentStock, error) {
	query := `
		INSERT INTO current_stock (item_id, minimum_stock_level, maximum_stock_level, reorder_point, last_updated, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (item_id) DO UPDATE
		SET minimum_stock_level = EXCLUDED.minimum_stock_level, maximum_stock_level = EXCLUDED.maximum_stock_level,
			reorder_point = EXCLUDED.reorder_point, last_updated = EXCLUDED.last_updated, updated_by = EXCLUDED.updated_by
		RETURNING ` + stockColumns
	s, err := scanStock(r.q.QueryRow(ctx, query, itemID, l.Minimum, l.Maximum, l.Reorder, at, actor))
	if err != nil {
		return nil, fmt.Errorf("set stock levels: %w", err)
	}
	return s, nil
}

func (r *StockRepo) SetReserved(ctx context.Context, itemID string, reserved int64, actor string, at time.Time) (*entity.CurrentStock, error) {
	query := `
		INSERT INTO current_stock (item_id, reserved_quantity, last_updated, updated_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (item_id) DO UPDATE
		SET reserved_quantity = EXCLUDED.reserved_quantity, last_updated = EXCLUDED.last_updated,
			updated_by = EXCLUDED.updated_by
		RETURNING ` + stockColumns
	s, err := scanStock(r.q.QueryRow(ctx, query, itemID, reserved, at, actor))
	if err != nil {
		return nil, fmt.Errorf("set reserved stock: %w", err)
	}
	return s, nil
}

// List ordenado por item_id.
func (r *StockRepo) List(ctx context.Context) ([]*entity.CurrentStock, error) {
	rows, err := r.q.Query(ctx, `SELECT `+stockColumns+` FROM current_stock ORDER BY item_id`)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.CurrentStock, 0)
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func (r *StockRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM current_stock`); err != nil {
		return fmt.Errorf("delete stock: %w", err)
	}
	return nil
}

func scanStock(row pgx.Row) (*entity.CurrentStock, error) {
	var s entity.CurrentStock
	err := row.Scan(&s.ItemID, &s.CurrentQuantity, &s.ReservedQuantity, &s.MinimumStockLevel,
		&s.MaximumStockLevel, &s.ReorderPoint, &s.LastUpdated, &s.UpdatedBy)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

var _ repository.StockAdjustmentRepository = (*StockAdjustmentRepo)(nil)

// StockAdjustmentRepo log append-only de ajustes manuales.
type StockAdjustmentRepo struct {
	q Querier
}

// NewStockAdjustmentRepository construye el adaptador de ajustes. Pasar pool o tx (Querier).
func NewStockAdjustmentRepository(q Querier) *StockAdjustmentRepo {
	return &StockAdjustmentRepo{q: q}
}

// Create devuelve domain.ErrDuplicate si la clave de idempotencia ya existe.
func (r *StockAdjustmentRepo) Create(ctx context.Context, a *entity.StockAdjustment) error {
	query := `
		INSERT INTO stock_adjustments (id, item_id, delta, kind, reason, actor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`
	tag, err := r.q.Exec(ctx, query, a.ID, a.ItemID, a.Delta, a.Kind, a.Reason, a.Actor, a.CreatedAt)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%w: delta de ajuste", domain.ErrInvalidInput)
		}
		return fmt.Errorf("create stock adjustment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicate
	}
	return nil
}

const adjustmentColumns = `id, item_id, delta, kind, reason, actor, created_at`

func (r *StockAdjustmentRepo) GetByID(ctx context.Context, id string) (*entity.StockAdjustment, error) {
	a, err := scanAdjustment(r.q.QueryRow(ctx, `SELECT `+adjustmentColumns+` FROM stock_adjustments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock adjustment: %w", err)
	}
	return a, nil
}

func (r *StockAdjustmentRepo) ListByItem(ctx context.Context, itemID string) ([]*entity.StockAdjustment, error) {
	rows, err := r.q.Query(ctx, `SELECT `+adjustmentColumns+` FROM stock_adjustments WHERE item_id = $1 ORDER BY created_at, id`, itemID)
	if err != nil {
		return nil, fmt.Errorf("list stock adjustments: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.StockAdjustment, 0)
	for rows.Next() {
		a, err := scanAdjustment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock adjustment: %w", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func scanAdjustment(row pgx.Row) (*entity.StockAdjustment, error) {
	var a entity.StockAdjustment
	if err := row.Scan(&a.ID, &a.ItemID, &a.Delta, &a.Kind, &a.Reason, &a.Actor, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
