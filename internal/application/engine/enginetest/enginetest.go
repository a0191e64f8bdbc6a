// Package enginetest arma un motor en memoria para tests de casos de uso y de HTTP.
package enginetest

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/procurement-api/internal/application/delivery"
	"github.com/jhoicas/procurement-api/internal/application/dto"
	"github.com/jhoicas/procurement-api/internal/application/engine"
	"github.com/jhoicas/procurement-api/internal/infrastructure/memory"
)

// Env motor más el store que lo respalda.
type Env struct {
	Engine *engine.Engine
	Store  *memory.Store
}

// New motor en memoria con tolerancia de sobre-entrega cero.
func New(t *testing.T) *Env {
	return NewWithTolerance(t, decimal.Zero)
}

// NewWithTolerance motor en memoria con la tolerancia indicada (porcentaje).
func NewWithTolerance(t *testing.T, tolerance decimal.Decimal) *Env {
	t.Helper()
	st := memory.NewStore()
	eng := engine.New(engine.Deps{
		Repos:    st.Repositories(),
		TxRunner: memory.NewTxRunner(st),
		Locker:   memory.NewKeyedLocker(),
		Delivery: delivery.Config{TolerancePercent: tolerance},
		Log:      zerolog.Nop(),
	})
	return &Env{Engine: eng, Store: st}
}

// Item atajo para un ítem de licitación.
func Item(id string, qty int64, estimated string) dto.TenderItemRequest {
	return dto.TenderItemRequest{ItemID: id, Quantity: qty, EstimatedUnitPrice: decimal.RequireFromString(estimated)}
}

// FinalizedTender crea y finaliza una licitación con los ítems dados.
func (e *Env) FinalizedTender(t *testing.T, items ...dto.TenderItemRequest) *dto.TenderResponse {
	t.Helper()
	ctx := context.Background()
	created, err := e.Engine.Tenders.Create(ctx, "tester", dto.CreateTenderRequest{
		Title:           "Suministro de insumos",
		ReferenceNumber: "LIC-" + items[0].ItemID,
		Items:           items,
	})
	require.NoError(t, err)
	finalized, err := e.Engine.Tenders.Finalize(ctx, created.ID, "tester")
	require.NoError(t, err)
	return finalized
}

// Receive atajo para una entrega de un solo ítem.
func Receive(tenderID, itemID string, good, damaged, rejected int64) dto.RegisterDeliveryRequest {
	return dto.RegisterDeliveryRequest{
		TenderID:   tenderID,
		ReceivedBy: "almacen",
		Items: []dto.DeliveryItemRequest{{
			ItemID:            itemID,
			QuantityDelivered: good + damaged + rejected,
			QuantityGood:      good,
			QuantityDamaged:   damaged,
			QuantityRejected:  rejected,
		}},
	}
}
