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

var _ repository.TenderRepository = (*TenderRepo)(nil)

// TenderRepo implementación de TenderRepository sobre PostgreSQL (usable con pool o tx).
type TenderRepo struct {
	q Querier
}

// NewTenderRepository construye el adaptador de licitaciones. Pasar pool o tx (Querier).
func NewTenderRepository(q Querier) *TenderRepo {
	return &TenderRepo{q: q}
}

const tenderColumns = `id, title, reference_number, description, acquisition_type, lifecycle_state,
	finalized_at, finalized_by, created_at, updated_at`

// Create inserta la cabecera y sus ítems.
func (r *TenderRepo) Create(ctx context.Context, t *entity.Tender) error {
	query := `
		INSERT INTO tenders (` + tenderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.Title, t.ReferenceNumber, t.Description, t.AcquisitionType, t.State,
		t.FinalizedAt, t.FinalizedBy, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create tender: %w", err)
	}
	for _, it := range t.Items {
		if err := r.AddItem(ctx, t.ID, it); err != nil {
			return err
		}
	}
	return nil
}

func (r *TenderRepo) GetByID(ctx context.Context, id string) (*entity.Tender, error) {
	return r.get(ctx, `SELECT `+tenderColumns+` FROM tenders WHERE id = $1`, id)
}

// GetForUpdate bloquea la fila de la licitación (SELECT FOR UPDATE).
func (r *TenderRepo) GetForUpdate(ctx context.Context, id string) (*entity.Tender, error) {
	return r.get(ctx, `SELECT `+tenderColumns+` FROM tenders WHERE id = $1 FOR UPDATE`, id)
}

func (r *TenderRepo) get(ctx context.Context, query, id string) (*entity.Tender, error) {
	t, err := scanTender(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tender: %w", err)
	}
	items, err := r.items(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Items = items
	return t, nil
}

func (r *TenderRepo) items(ctx context.Context, tenderID string) ([]entity.TenderLineItem, error) {
	query := `
		SELECT item_id, description, quantity, estimated_unit_price
		FROM tender_items WHERE tender_id = $1 ORDER BY position`
	rows, err := r.q.Query(ctx, query, tenderID)
	if err != nil {
		return nil, fmt.Errorf("list tender items: %w", err)
	}
	defer rows.Close()
	var list []entity.TenderLineItem
	for rows.Next() {
		var it entity.TenderLineItem
		if err := rows.Scan(&it.ItemID, &it.Description, &it.Quantity, &it.EstimatedUnitPrice); err != nil {
			return nil, fmt.Errorf("scan tender item: %w", err)
		}
		list = append(list, it)
	}
	return list, rows.Err()
}

func (r *TenderRepo) Update(ctx context.Context, t *entity.Tender) error {
	query := `
		UPDATE tenders SET title = $2, reference_number = $3, description = $4, acquisition_type = $5,
			lifecycle_state = $6, finalized_at = $7, finalized_by = $8, updated_at = $9
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		t.ID, t.Title, t.ReferenceNumber, t.Description, t.AcquisitionType,
		t.State, t.FinalizedAt, t.FinalizedBy, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update tender: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("tender", t.ID)
	}
	return nil
}

func (r *TenderRepo) AddItem(ctx context.Context, tenderID string, it entity.TenderLineItem) error {
	query := `
		INSERT INTO tender_items (tender_id, item_id, description, quantity, estimated_unit_price)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tender_id, item_id) DO NOTHING`
	tag, err := r.q.Exec(ctx, query, tenderID, it.ItemID, it.Description, it.Quantity, it.EstimatedUnitPrice)
	if err != nil {
		return fmt.Errorf("add tender item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicate
	}
	_, err = r.q.Exec(ctx, `UPDATE tenders SET updated_at = now() WHERE id = $1`, tenderID)
	if err != nil {
		return fmt.Errorf("touch tender: %w", err)
	}
	return nil
}

func (r *TenderRepo) RemoveItem(ctx context.Context, tenderID, itemID string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM tender_items WHERE tender_id = $1 AND item_id = $2`, tenderID, itemID)
	if err != nil {
		return fmt.Errorf("remove tender item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("tender item", itemID)
	}
	_, err = r.q.Exec(ctx, `UPDATE tenders SET updated_at = now() WHERE id = $1`, tenderID)
	if err != nil {
		return fmt.Errorf("touch tender: %w", err)
	}
	return nil
}

// Delete borra la licitación; los ítems caen por ON DELETE CASCADE.
func (r *TenderRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM tenders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tender: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("tender", id)
	}
	return nil
}

// List devuelve las licitaciones más recientes primero.
func (r *TenderRepo) List(ctx context.Context, f repository.TenderFilter) ([]*entity.Tender, error) {
	query := `
		SELECT ` + tenderColumns + ` FROM tenders
		WHERE ($1 = '' OR lifecycle_state = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT NULLIF($2, 0) OFFSET $3`
	rows, err := r.q.Query(ctx, query, f.State, f.Limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("list tenders: %w", err)
	}
	list := make([]*entity.Tender, 0)
	for rows.Next() {
		t, err := scanTender(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan tender: %w", err)
		}
		list = append(list, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Los ítems se leen después de cerrar rows: una tx no admite dos consultas abiertas.
	for _, t := range list {
		items, err := r.items(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		t.Items = items
	}
	return list, nil
}

func scanTender(row pgx.Row) (*entity.Tender, error) {
	var t entity.Tender
	err := row.Scan(
		&t.ID, &t.Title, &t.ReferenceNumber, &t.Description, &t.AcquisitionType, &t.State,
		&t.FinalizedAt, &t.FinalizedBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
