package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jhoicas/procurement-api/internal/application/ports"
)

// keyLock canal de capacidad 1: enviar toma el lock, recibir lo libera.
// refs cuenta dueños y esperas; en 0 la clave sale del mapa.
type keyLock struct {
	ch   chan struct{}
	refs int
}

// KeyedLocker lock por clave para un único proceso. La espera respeta ctx.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

var _ ports.ItemLocker = (*KeyedLocker)(nil)

// NewKeyedLocker crea un locker vacío.
func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: make(map[string]*keyLock)}
}

// Lock toma las claves en orden lexicográfico para evitar interbloqueos. Si ctx termina
// mientras espera, libera las ya tomadas y devuelve ctx.Err().
func (l *KeyedLocker) Lock(ctx context.Context, keys []string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sorted := uniqueSorted(keys)
	held := make([]string, 0, len(sorted))
	releaseAll := func() {
		for i := len(held) - 1; i >= 0; i-- {
			l.release(held[i])
		}
	}
	for _, k := range sorted {
		if err := l.acquire(ctx, k); err != nil {
			releaseAll()
			return nil, err
		}
		held = append(held, k)
	}
	var once sync.Once
	return func() { once.Do(releaseAll) }, nil
}

func (l *KeyedLocker) acquire(ctx context.Context, key string) error {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.deref(key, kl)
		return ctx.Err()
	}
}

func (l *KeyedLocker) release(key string) {
	l.mu.Lock()
	kl := l.locks[key]
	l.mu.Unlock()
	<-kl.ch
	l.deref(key, kl)
}

func (l *KeyedLocker) deref(key string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}

func (l *KeyedLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func uniqueSorted(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.Strings(out)
	n := 0
	for i, k := range out {
		if i > 0 && k == out[n-1] {
			continue
		}
		out[n] = k
		n++
	}
	return out[:n]
}
