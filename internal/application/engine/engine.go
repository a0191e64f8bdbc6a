// Package engine arma los casos de uso del motor sobre un mismo bus de eventos.
package engine

import (
	"github.com/rs/zerolog"

	"github.com/jhoicas/procurement-api/internal/application/acquisition"
	"github.com/jhoicas/procurement-api/internal/application/delivery"
	"github.com/jhoicas/procurement-api/internal/application/ports"
	"github.com/jhoicas/procurement-api/internal/application/stats"
	"github.com/jhoicas/procurement-api/internal/application/stock"
	"github.com/jhoicas/procurement-api/internal/application/tender"
	"github.com/jhoicas/procurement-api/internal/eventing"
)

// Engine conjunto de casos de uso del motor de conciliación.
type Engine struct {
	Bus        *eventing.Bus
	Tenders    *tender.LifecycleUseCase
	Ledger     *acquisition.LedgerUseCase
	Deliveries *delivery.TrackerUseCase
	Stock      *stock.AggregatorUseCase
	Stats      *stats.ReconciliationUseCase
}

// Deps dependencias de infraestructura. Repos debe estar ligado al pool (lecturas);
// las escrituras usan TxRunner.
type Deps struct {
	Repos    ports.Repositories
	TxRunner ports.TxRunner
	Locker   ports.ItemLocker
	Delivery delivery.Config
	Log      zerolog.Logger
}

// New construye el motor. Los proyectores (ledger y agregador) se suscriben al bus aquí,
// antes de que cualquier caso de uso publique.
func New(d Deps) *Engine {
	bus := eventing.NewBus(d.Log.With().Str("component", "eventbus").Logger())
	return &Engine{
		Bus:        bus,
		Ledger:     acquisition.NewLedgerUseCase(d.Repos, d.TxRunner, bus, d.Log),
		Stock:      stock.NewAggregatorUseCase(d.Repos, d.TxRunner, bus, d.Log),
		Tenders:    tender.NewLifecycleUseCase(d.Repos, d.TxRunner, bus, d.Log),
		Deliveries: delivery.NewTrackerUseCase(d.Repos, d.TxRunner, d.Locker, bus, d.Delivery, d.Log),
		Stats:      stats.NewReconciliationUseCase(d.Repos),
	}
}
