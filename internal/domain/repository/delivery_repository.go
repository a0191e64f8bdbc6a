package repository

import (
	"context"

	"github.com/jhoicas/procurement-api/internal/domain/entity"
)

// DeliveryRepository puerto append-only para entregas y sus ítems (no hay Update ni Delete).
type DeliveryRepository interface {
	// Create guarda la entrega con sus ítems; domain.ErrDuplicate si el número ya existe en la licitación.
	Create(ctx context.Context, delivery *entity.Delivery) error
	GetByID(ctx context.Context, id string) (*entity.Delivery, error)
	ListByTender(ctx context.Context, tenderID string) ([]*entity.Delivery, error)
	CountByTender(ctx context.Context, tenderID string) (int, error)
}
