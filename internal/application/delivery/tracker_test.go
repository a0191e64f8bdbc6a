package delivery_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/procurement-api/internal/application/acquisition"
	"github.com/jhoicas/procurement-api/internal/application/dto"
	"github.com/jhoicas/procurement-api/internal/application/engine/enginetest"
	"github.com/jhoicas/procurement-api/internal/domain"
	"github.com/jhoicas/procurement-api/internal/domain/entity"
)

func stockOf(t *testing.T, env *enginetest.Env, itemID string) int64 {
	t.Helper()
	s, err := env.Engine.Stock.GetCurrentStock(context.Background(), itemID)
	require.NoError(t, err)
	return s.CurrentQuantity
}

func TestRegisterDelivery_EjemploCienUnidades(t *testing.T) {
	env := enginetest.New(t)
	ctx := context.Background()
	tdr := env.FinalizedTender(t, enginetest.Item("A", 100, "5"))

	first, err := env.Engine.Deliveries.RegisterDelivery(ctx, enginetest.Receive(tdr.ID, "A", 60, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, entity.DeliveryStatusPartial, first.Status)
	assert.Equal(t, "DLV-0001", first.DeliveryNumber)
	assert.Equal(t, int64(60), stockOf(t, env, "A"))

	second, err := env.Engine.Deliveries.RegisterDelivery(ctx, enginetest.Receive(tdr.ID, "A", 30, 0, 10))
	require.NoError(t, err)
	assert.Equal(t, entity.DeliveryStatusPartial, second.Status)
	assert.Equal(t, "DLV-0002", second.DeliveryNumber)
	assert.Equal(t, int64(90), stockOf(t, env, "A"))

	rec, err := env.Engine.Ledger.Get(ctx, acquisition.RecordID(tdr.ID, "A"))
	require.NoError(t, err)
	assert.Equal(t, int64(100), rec.TotalQuantityReceived)
	assert.Equal(t, int64(90), rec.TotalQuantityGood)
	// el precio de entrega cae en el estimado mientras no haya precio real
	assert.True(t, second.Items[0].UnitPriceAtDelivery.Equal(decimal.NewFromInt(5)))
}

func TestRegisterDelivery_SobreEntregaSeRechaza(t *testing.T) {
	env := enginetest.New(t)
	ctx := context.Background()
	tdr := env.FinalizedTender(t, enginetest.Item("A", 10, "1"))

	_, err := env.Engine.Deliveries.RegisterDelivery(ctx, enginetest.Receive(tdr.ID, "A", 6, 0, 0))
	require.NoError(t, err)

	_, err = env.Engine.Deliveries.RegisterDelivery(ctx, enginetest.Receive(tdr.ID, "A", 6, 0, 0))
	require.ErrorIs(t, err, domain.ErrOverDelivery)
	var od *domain.OverDeliveryError
	require.True(t, errors.As(err, &od))
	assert.Equal(t, int64(10), od.Ordered)
	assert.Equal(t, int64(6), od.AlreadyReceived)
	assert.Equal(t, int64(6), od.Attempted)
	assert.Equal(t, int64(10), od.Allowed)

	assert.Equal(t, int64(6), stockOf(t, env, "A"))
	list, err := env.Engine.Deliveries.ListByTender(ctx, tdr.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRegisterDelivery_ToleranciaConfigurable(t *testing.T) {
	env := enginetest.NewWithTolerance(t, decimal.NewFromInt(10))
	ctx := context.Background()
	tdr := env.FinalizedTender(t, enginetest.Item("A", 10, "1"))

	_, err := env.Engine.Deliveries.RegisterDelivery(ctx, enginetest.Receive(tdr.ID, "A", 6, 0, 0))
	require.NoError(t, err)
	_, err = env.Engine.Deliveries.RegisterDelivery(ctx, enginetest.Receive(tdr.ID, "A", 5, 0, 0))
	require.NoError(t, err)
	_, err = env.Engine.Deliveries.RegisterDelivery(ctx, enginetest.Receive(tdr.ID, "A", 1, 0, 0))
	assert.ErrorIs(t, err, domain.ErrOverDelivery)
}

func TestRegisterDelivery_EstadoDerivado(t *testing.T) {
	env := enginetest.New(t)
	ctx := context.Background()
	tdr := env.FinalizedTender(t, enginetest.Item("A", 10, "1"), enginetest.Item("B", 5, "1"))

	damaged, err := env.Engine.Deliveries.RegisterDelivery(ctx, enginetest.Receive(tdr.ID, "B", 0, 2, 0))
	require.NoError(t, err)
	assert.Equal(t, entity.DeliveryStatusDamaged, damaged.Status)
	assert.Equal(t, int64(0), stockOf(t, env, "B"))

	// B tiene 5 buenos pendientes; 3 no lo cubren aunque A quede completo
	partial, err := env.Engine.Deliveries.RegisterDelivery(ctx, dto.RegisterDeliveryRequest{
		TenderID: tdr.ID,
		Items: []dto.DeliveryItemRequest{
			{ItemID: "A", QuantityDelivered: 4, QuantityGood: 4},
			{ItemID: "B", QuantityDelivered: 3, QuantityGood: 3},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.DeliveryStatusPartial, partial.Status)

	complete, err := env.Engine.Deliveries.RegisterDelivery(ctx, enginetest.Receive(tdr.ID, "A", 6, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, entity.DeliveryStatusComplete, complete.Status)
	assert.Equal(t, int64(10), stockOf(t, env, "A"))

	pending, err := env.Engine.Deliveries.RegisterDelivery(ctx, dto.RegisterDeliveryRequest{
		TenderID: tdr.ID,
		Items:    []dto.DeliveryItemRequest{{ItemID: "B"}},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.DeliveryStatusPending, pending.Status)
}

func TestRegisterDelivery_Validaciones(t *testing.T) {
	env := enginetest.New(t)
	ctx := context.Background()
	tdr := env.FinalizedTender(t, enginetest.Item("A", 10, "1"))

	draft, err := env.Engine.Tenders.Create(ctx, "ana", dto.CreateTenderRequest{
		Title: "Borrador", ReferenceNumber: "B-1", Items: []dto.TenderItemRequest{enginetest.Item("A", 1, "1")},
	})
	require.NoError(t, err)

	unbalanced := enginetest.Receive(tdr.ID, "A", 5, 0, 0)
	unbalanced.Items[0].QuantityDelivered = 6

	duplicated := enginetest.Receive(tdr.ID, "A", 1, 0, 0)
	duplicated.Items = append(duplicated.Items, duplicated.Items[0])

	negative := enginetest.Receive(tdr.ID, "A", -1, 0, 0)

	cases := []struct {
		name string
		in   dto.RegisterDeliveryRequest
		want error
	}{
		{"cantidades descuadradas", unbalanced, domain.ErrQuantityMismatch},
		{"sin ítems", dto.RegisterDeliveryRequest{TenderID: tdr.ID}, domain.ErrInvalidInput},
		{"ítem repetido", duplicated, domain.ErrInvalidInput},
		{"negativo en entrega regular", negative, domain.ErrInvalidInput},
		{"licitación inexistente", enginetest.Receive("no-existe", "A", 1, 0, 0), domain.ErrRecordNotFound},
		{"licitación no finalizada", enginetest.Receive(draft.ID, "A", 1, 0, 0), domain.ErrUnknownAcquisitionItem},
		{"ítem sin registro", enginetest.Receive(tdr.ID, "Z", 1, 0, 0), domain.ErrUnknownAcquisitionItem},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.Engine.Deliveries.RegisterDelivery(ctx, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Equal(t, int64(0), stockOf(t, env, "A"))
}

func TestRegisterDelivery_ReintentoConMismoID(t *testing.T) {
	env := enginetest.New(t)
	ctx := context.Background()
	tdr := env.FinalizedTender(t, enginetest.Item("A", 10, "1"))

	in := enginetest.Receive(tdr.ID, "A", 4, 0, 0)
	in.DeliveryID = "7d3c1e2a-0000-4000-8000-000000000001"

	first, err := env.Engine.Deliveries.RegisterDelivery(ctx, in)
	require.NoError(t, err)
	again, err := env.Engine.Deliveries.RegisterDelivery(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, first.DeliveryNumber, again.DeliveryNumber)
	assert.Equal(t, int64(4), stockOf(t, env, "A"))
}

func TestRegisterDelivery_MismoIDEnOtraLicitacion(t *testing.T) {
	env := enginetest.New(t)
	ctx := context.Background()
	first := env.FinalizedTender(t, enginetest.Item("A", 10, "1"))
	other := env.FinalizedTender(t, enginetest.Item("B", 10, "1"))

	in := enginetest.Receive(first.ID, "A", 4, 0, 0)
	in.DeliveryID = "7d3c1e2a-0000-4000-8000-000000000002"
	_, err := env.Engine.Deliveries.RegisterDelivery(ctx, in)
	require.NoError(t, err)

	reused := enginetest.Receive(other.ID, "B", 4, 0, 0)
	reused.DeliveryID = in.DeliveryID
	_, err = env.Engine.Deliveries.RegisterDelivery(ctx, reused)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.Equal(t, int64(0), stockOf(t, env, "B"))

	list, err := env.Engine.Deliveries.ListByTender(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

// ─── Desbordes de int64 ───────────────────────────────────────────────────────

func TestRegisterDelivery_SumaQueDesbordaNoCuadra(t *testing.T) {
	env := enginetest.New(t)
	ctx := context.Background()
	tdr := env.FinalizedTender(t, enginetest.Item("A", 10, "1"))

	in := dto.RegisterDeliveryRequest{
		TenderID:   tdr.ID,
		ReceivedBy: "almacen",
		Items: []dto.DeliveryItemRequest{{
			ItemID:            "A",
			QuantityDelivered: 0,
			QuantityGood:      math.MaxInt64,
			QuantityDamaged:   math.MaxInt64,
			QuantityRejected:  2,
		}},
	}
	_, err := env.Engine.Deliveries.RegisterDelivery(ctx, in)
	assert.ErrorIs(t, err, domain.ErrQuantityMismatch)
	assert.Equal(t, int64(0), stockOf(t, env, "A"))
}

func TestRegisterDelivery_AcumuladoQueDesbordaEsSobreEntrega(t *testing.T) {
	env := enginetest.New(t)
	ctx := context.Background()
	tdr := env.FinalizedTender(t, enginetest.Item("A", 10, "1"))

	_, err := env.Engine.Deliveries.RegisterDelivery(ctx, enginetest.Receive(tdr.ID, "A", 5, 0, 0))
	require.NoError(t, err)

	_, err = env.Engine.Deliveries.RegisterDelivery(ctx, enginetest.Receive(tdr.ID, "A", math.MaxInt64, 0, 0))
	require.ErrorIs(t, err, domain.ErrOverDelivery)
	var od *domain.OverDeliveryError
	require.True(t, errors.As(err, &od))
	assert.Equal(t, int64(5), od.AlreadyReceived)
	assert.Equal(t, int64(math.MaxInt64), od.Attempted)
	assert.Equal(t, int64(5), stockOf(t, env, "A"))
}

func TestRegisterDelivery_NumeroRepetido(t *testing.T) {
	env := enginetest.New(t)
	ctx := context.Background()
	tdr := env.FinalizedTender(t, enginetest.Item("A", 10, "1"))

	in := enginetest.Receive(tdr.ID, "A", 1, 0, 0)
	in.DeliveryNumber = "REM-77"
	_, err := env.Engine.Deliveries.RegisterDelivery(ctx, in)
	require.NoError(t, err)
	_, err = env.Engine.Deliveries.RegisterDelivery(ctx, in)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.Equal(t, int64(1), stockOf(t, env, "A"))
}

func TestRegisterDelivery_Correccion(t *testing.T) {
	env := enginetest.New(t)
	ctx := context.Background()
	tdr := env.FinalizedTender(t, enginetest.Item("A", 10, "1"))

	_, err := env.Engine.Deliveries.RegisterDelivery(ctx, enginetest.Receive(tdr.ID, "A", 6, 0, 0))
	require.NoError(t, err)

	fix := enginetest.Receive(tdr.ID, "A", -2, 0, 0)
	fix.Type = entity.DeliveryTypeCorrection
	_, err = env.Engine.Deliveries.RegisterDelivery(ctx, fix)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stockOf(t, env, "A"))

	tooMuch := enginetest.Receive(tdr.ID, "A", -10, 0, 0)
	tooMuch.Type = entity.DeliveryTypeCorrection
	_, err = env.Engine.Deliveries.RegisterDelivery(ctx, tooMuch)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, int64(4), stockOf(t, env, "A"))
}

func TestRegisterDelivery_CorreccionNoDejaStockNegativo(t *testing.T) {
	env := enginetest.New(t)
	ctx := context.Background()
	tdr := env.FinalizedTender(t, enginetest.Item("A", 10, "1"))

	_, err := env.Engine.Deliveries.RegisterDelivery(ctx, enginetest.Receive(tdr.ID, "A", 6, 0, 0))
	require.NoError(t, err)
	_, err = env.Engine.Stock.ApplyManualAdjustment(ctx, "bodega", dto.StockAdjustmentRequest{ItemID: "A", Delta: -5, Kind: entity.AdjustmentKindIssue})
	require.NoError(t, err)

	fix := enginetest.Receive(tdr.ID, "A", -2, 0, 0)
	fix.Type = entity.DeliveryTypeCorrection
	_, err = env.Engine.Deliveries.RegisterDelivery(ctx, fix)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(1), stockOf(t, env, "A"))

	list, err := env.Engine.Deliveries.ListByTender(ctx, tdr.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1, "la corrección rechazada no debe quedar registrada")
}

func TestRegisterDelivery_Concurrente(t *testing.T) {
	env := enginetest.New(t)
	ctx := context.Background()
	tdr := env.FinalizedTender(t, enginetest.Item("A", 10, "1"))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, over int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.Engine.Deliveries.RegisterDelivery(ctx, enginetest.Receive(tdr.ID, "A", 1, 0, 0))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrOverDelivery):
				over++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, 10, over)
	assert.Equal(t, int64(10), stockOf(t, env, "A"))
}

func TestGet_NoEncontrada(t *testing.T) {
	env := enginetest.New(t)
	_, err := env.Engine.Deliveries.Get(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}
