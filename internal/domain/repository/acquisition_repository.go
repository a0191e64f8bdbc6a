package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/procurement-api/internal/domain/entity"
)

// AcquisitionRepository puerto para la proyección de registros de adquisición.
// Toda lectura rellena TotalQuantityReceived/TotalQuantityGood sumando las entregas.
type AcquisitionRepository interface {
	// Create devuelve domain.ErrDuplicate si ya existe el registro (id o licitación+ítem).
	Create(ctx context.Context, record *entity.AcquisitionRecord) error
	GetByID(ctx context.Context, id string) (*entity.AcquisitionRecord, error)
	GetByTenderItem(ctx context.Context, tenderID, itemID string) (*entity.AcquisitionRecord, error)
	// LockForDelivery bloquea el registro (SELECT FOR UPDATE) y devuelve los acumulados vigentes.
	LockForDelivery(ctx context.Context, tenderID, itemID string) (*entity.AcquisitionRecord, error)
	ListByTender(ctx context.Context, tenderID string) ([]*entity.AcquisitionRecord, error)
	CountByTender(ctx context.Context, tenderID string) (int, error)
	UpdatePricing(ctx context.Context, id string, actual decimal.Decimal, confirmedBy, remarks string, at time.Time) error
	// DeleteAll vacía la proyección (solo para reconstrucción desde el log).
	DeleteAll(ctx context.Context) error
}
