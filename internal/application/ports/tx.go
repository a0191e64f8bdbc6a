// Package ports define los contratos que la capa de aplicación necesita de la infraestructura.
package ports

import (
	"context"

	"github.com/jhoicas/procurement-api/internal/domain/repository"
)

// Repositories agrupa los repositorios atados a una misma conexión o transacción.
type Repositories struct {
	Tenders      repository.TenderRepository
	Acquisitions repository.AcquisitionRepository
	Deliveries   repository.DeliveryRepository
	Stock        repository.StockRepository
	Adjustments  repository.StockAdjustmentRepository
	Events       repository.EventRepository
	Processed    repository.ProcessedEventRepository
	Stats        repository.StatsRepository
}

// TxRunner ejecuta fn dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback; si no, Commit.
type TxRunner interface {
	Run(ctx context.Context, fn func(r Repositories) error) error
}

// ItemLocker punto de serialización por ítem. Lock bloquea todas las claves (en orden)
// y devuelve la función que las libera.
type ItemLocker interface {
	Lock(ctx context.Context, keys []string) (unlock func(), err error)
}
