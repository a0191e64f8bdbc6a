package repository

import (
	"context"

	"github.com/jhoicas/procurement-api/internal/domain/entity"
)

// TenderFilter filtros para listar licitaciones.
type TenderFilter struct {
	State  string
	Limit  int
	Offset int
}

// TenderRepository define el puerto de persistencia para licitaciones y sus ítems.
// Get* devuelven (nil, nil) si no existe.
type TenderRepository interface {
	Create(ctx context.Context, tender *entity.Tender) error
	GetByID(ctx context.Context, id string) (*entity.Tender, error)
	// GetForUpdate bloquea la licitación hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Tender, error)
	// Update persiste cabecera, estado y datos de finalización (no los ítems).
	Update(ctx context.Context, tender *entity.Tender) error
	AddItem(ctx context.Context, tenderID string, item entity.TenderLineItem) error
	RemoveItem(ctx context.Context, tenderID, itemID string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter TenderFilter) ([]*entity.Tender, error)
}
