package repository

import (
	"context"
	"time"

	"github.com/jhoicas/procurement-api/internal/domain/entity"
)

// StockLevels umbrales configurables de un ítem.
type StockLevels struct {
	Minimum int64
	Maximum int64
	Reorder int64
}

// StockRepository puerto para la proyección CurrentStock. Solo el agregador de inventario escribe.
type StockRepository interface {
	// Get devuelve (nil, nil) si el ítem aún no tiene stock.
	Get(ctx context.Context, itemID string) (*entity.CurrentStock, error)
	// Increment suma delta de forma atómica (UPDATE ... SET q = q + delta), creando la fila si no existe.
	// Devuelve domain.ErrInsufficientStock si el resultado fuese negativo.
	Increment(ctx context.Context, itemID string, delta int64, actor string, at time.Time) (*entity.CurrentStock, error)
	SetLevels(ctx context.Context, itemID string, levels StockLevels, actor string, at time.Time) (*entity.CurrentStock, error)
	SetReserved(ctx context.Context, itemID string, reserved int64, actor string, at time.Time) (*entity.CurrentStock, error)
	List(ctx context.Context) ([]*entity.CurrentStock, error)
	DeleteAll(ctx context.Context) error
}

// StockAdjustmentRepository log append-only de ajustes manuales.
type StockAdjustmentRepository interface {
	Create(ctx context.Context, adj *entity.StockAdjustment) error
	GetByID(ctx context.Context, id string) (*entity.StockAdjustment, error)
	ListByItem(ctx context.Context, itemID string) ([]*entity.StockAdjustment, error)
}
