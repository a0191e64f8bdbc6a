// Package bootstrap arma el motor a partir de la configuración (store, locker, logger).
// Lo comparten cmd/api y cmd/rebuild.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/procurement-api/internal/application/delivery"
	"github.com/jhoicas/procurement-api/internal/application/engine"
	"github.com/jhoicas/procurement-api/internal/application/ports"
	"github.com/jhoicas/procurement-api/internal/infrastructure/memory"
	"github.com/jhoicas/procurement-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/procurement-api/internal/infrastructure/redis"
	"github.com/jhoicas/procurement-api/pkg/config"
)

// Runtime motor listo para usar más los recursos que hay que cerrar al salir.
type Runtime struct {
	Engine *engine.Engine
	// Ping verifica la persistencia (para /health).
	Ping    func(ctx context.Context) error
	closers []func()
}

// Close libera conexiones en orden inverso a su apertura.
func (r *Runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// Build elige store y locker según cfg y construye el motor.
func Build(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Runtime, error) {
	rt := &Runtime{Ping: func(context.Context) error { return nil }}

	var (
		repos    ports.Repositories
		txRunner ports.TxRunner
	)
	switch cfg.Store.Driver {
	case config.StorePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		rt.closers = append(rt.closers, pool.Close)
		if cfg.Store.Migrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				rt.Close()
				return nil, err
			}
			log.Info().Msg("esquema aplicado")
		}
		repos = postgres.Repositories(pool)
		txRunner = postgres.NewTxRunner(pool)
		rt.Ping = pool.Ping
	default:
		st := memory.NewStore()
		repos = st.Repositories()
		txRunner = memory.NewTxRunner(st)
		log.Warn().Msg("store en memoria: los datos se pierden al reiniciar")
	}

	var locker ports.ItemLocker = memory.NewKeyedLocker()
	if cfg.Redis.Addr != "" {
		rdb, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, func() { _ = rdb.Close() })
		ttl := time.Duration(cfg.Redis.LockTTLSeconds) * time.Second
		locker = infraredis.NewItemLocker(rdb, infraredis.LockOptions{TTL: ttl, Wait: ttl},
			log.With().Str("component", "redislock").Logger())
		log.Info().Str("addr", cfg.Redis.Addr).Msg("locks de ítem en Redis")
	}

	rt.Engine = engine.New(engine.Deps{
		Repos:    repos,
		TxRunner: txRunner,
		Locker:   locker,
		Delivery: delivery.Config{TolerancePercent: cfg.Engine.TolerancePercent},
		Log:      log,
	})
	return rt, nil
}
