// Package memory implementa los repositorios en memoria (desarrollo y tests).
// Run serializa las transacciones y restaura una instantánea si fn falla.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/procurement-api/internal/application/ports"
	"github.com/jhoicas/procurement-api/internal/domain/entity"
)

type state struct {
	tenders       map[string]*entity.Tender
	tenderOrder   []string
	records       map[string]*entity.AcquisitionRecord
	recordByKey   map[string]string
	deliveries    map[string]*entity.Delivery
	deliveryOrder []string
	stock         map[string]*entity.CurrentStock
	adjustments   map[string]*entity.StockAdjustment
	adjOrder      []string
	events        []*entity.Event
	eventIdx      map[string]int
	processed     map[string]struct{}
	seq           int64
}

func newState() *state {
	return &state{
		tenders:     make(map[string]*entity.Tender),
		records:     make(map[string]*entity.AcquisitionRecord),
		recordByKey: make(map[string]string),
		deliveries:  make(map[string]*entity.Delivery),
		stock:       make(map[string]*entity.CurrentStock),
		adjustments: make(map[string]*entity.StockAdjustment),
		eventIdx:    make(map[string]int),
		processed:   make(map[string]struct{}),
	}
}

// clone copia los mapas y las entidades; las entidades guardadas se reemplazan, no se mutan en sitio.
func (s *state) clone() *state {
	c := newState()
	for k, v := range s.tenders {
		c.tenders[k] = copyTender(v)
	}
	c.tenderOrder = append([]string(nil), s.tenderOrder...)
	for k, v := range s.records {
		r := *v
		c.records[k] = &r
	}
	for k, v := range s.recordByKey {
		c.recordByKey[k] = v
	}
	for k, v := range s.deliveries {
		c.deliveries[k] = copyDelivery(v)
	}
	c.deliveryOrder = append([]string(nil), s.deliveryOrder...)
	for k, v := range s.stock {
		st := *v
		c.stock[k] = &st
	}
	for k, v := range s.adjustments {
		a := *v
		c.adjustments[k] = &a
	}
	c.adjOrder = append([]string(nil), s.adjOrder...)
	c.events = append([]*entity.Event(nil), s.events...)
	for k, v := range s.eventIdx {
		c.eventIdx[k] = v
	}
	for k := range s.processed {
		c.processed[k] = struct{}{}
	}
	c.seq = s.seq
	return c
}

// Store contenedor en memoria de todas las tablas del motor.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	s    *state
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{s: newState()}
}

// Repositories devuelve los repositorios ligados a este store.
func (st *Store) Repositories() ports.Repositories {
	return ports.Repositories{
		Tenders:      &TenderRepo{st: st},
		Acquisitions: &AcquisitionRepo{st: st},
		Deliveries:   &DeliveryRepo{st: st},
		Stock:        &StockRepo{st: st},
		Adjustments:  &StockAdjustmentRepo{st: st},
		Events:       &EventRepo{st: st},
		Processed:    &ProcessedEventRepo{st: st},
		Stats:        &StatsRepo{st: st},
	}
}

// TxRunner implementa ports.TxRunner sobre el store.
type TxRunner struct {
	st *Store
}

var _ ports.TxRunner = (*TxRunner)(nil)

// NewTxRunner crea el runner. Las lecturas fuera de Run pueden ver cambios aún no confirmados.
func NewTxRunner(st *Store) *TxRunner {
	return &TxRunner{st: st}
}

// Run ejecuta fn en exclusión mutua con otras transacciones y revierte el estado si falla.
func (r *TxRunner) Run(ctx context.Context, fn func(ports.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.st.txMu.Lock()
	defer r.st.txMu.Unlock()

	r.st.mu.RLock()
	snap := r.st.s.clone()
	r.st.mu.RUnlock()

	if err := fn(r.st.Repositories()); err != nil {
		r.st.mu.Lock()
		r.st.s = snap
		r.st.mu.Unlock()
		return err
	}
	return nil
}

func copyTender(t *entity.Tender) *entity.Tender {
	c := *t
	c.Items = append([]entity.TenderLineItem(nil), t.Items...)
	return &c
}

func copyDelivery(d *entity.Delivery) *entity.Delivery {
	c := *d
	c.Items = append([]entity.DeliveryItem(nil), d.Items...)
	return &c
}
