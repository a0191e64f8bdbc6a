package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bsm/redislock"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/procurement-api/internal/application/ports"
)

var _ ports.ItemLocker = (*ItemLocker)(nil)

// ErrLockTimeout no se pudo obtener el lock de un ítem dentro del tiempo de espera.
var ErrLockTimeout = errors.New("redis: lock de ítem no obtenido")

const keyPrefix = "procurement:lock:"

// LockOptions TTL de cada lock y espera máxima para obtenerlo.
type LockOptions struct {
	TTL  time.Duration
	Wait time.Duration
}

// ItemLocker serializa entregas por (licitación, ítem) entre instancias con redislock.
type ItemLocker struct {
	client *redislock.Client
	opts   LockOptions
	log    zerolog.Logger
}

// NewItemLocker construye el locker sobre un cliente go-redis.
func NewItemLocker(rdb *goredis.Client, opts LockOptions, log zerolog.Logger) *ItemLocker {
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Second
	}
	if opts.Wait <= 0 {
		opts.Wait = opts.TTL
	}
	return &ItemLocker{client: redislock.New(rdb), opts: opts, log: log}
}

// Lock toma los locks en orden (deduplicados y ordenados) para evitar interbloqueos.
// Si uno falla se liberan los ya obtenidos. Mientras se mantienen, los locks se renuevan
// cada TTL/3 para que una transacción lenta no pierda la serialización.
func (l *ItemLocker) Lock(ctx context.Context, keys []string) (func(), error) {
	ordered := dedupSorted(keys)
	const step = 25 * time.Millisecond
	retries := int(l.opts.Wait / step)
	held := make([]*redislock.Lock, 0, len(ordered))

	for _, k := range ordered {
		lock, err := l.client.Obtain(ctx, keyPrefix+k, l.opts.TTL, &redislock.Options{
			RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(step), retries),
		})
		if err != nil {
			l.releaseAll(held)
			if errors.Is(err, redislock.ErrNotObtained) {
				return nil, fmt.Errorf("%w: %s", ErrLockTimeout, k)
			}
			return nil, fmt.Errorf("obtener lock %s: %w", k, err)
		}
		held = append(held, lock)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(held, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			l.releaseAll(held)
		})
	}, nil
}

func (l *ItemLocker) keepAlive(held []*redislock.Lock, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	every := l.opts.TTL / 3
	if every <= 0 {
		every = l.opts.TTL
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			rctx, cancel := context.WithTimeout(context.Background(), every)
			for _, lock := range held {
				if err := lock.Refresh(rctx, l.opts.TTL, nil); err != nil {
					l.log.Warn().Err(err).Str("key", lock.Key()).Msg("renovar lock")
				}
			}
			cancel()
		}
	}
}

func (l *ItemLocker) releaseAll(held []*redislock.Lock) {
	// Contexto propio: el del request puede estar cancelado al liberar.
	rctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	for i := len(held) - 1; i >= 0; i-- {
		if err := held[i].Release(rctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.log.Warn().Err(err).Str("key", held[i].Key()).Msg("liberar lock")
		}
	}
}

func dedupSorted(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
