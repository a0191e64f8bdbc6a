package acquisition_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/procurement-api/internal/application/acquisition"
	"github.com/jhoicas/procurement-api/internal/application/dto"
	"github.com/jhoicas/procurement-api/internal/application/engine/enginetest"
	"github.com/jhoicas/procurement-api/internal/domain"
)

func TestConfirmPricing_CalculaVarianza(t *testing.T) {
	env := enginetest.New(t)
	ctx := context.Background()
	tdr := env.FinalizedTender(t, enginetest.Item("A", 10, "10"))
	id := acquisition.RecordID(tdr.ID, "A")

	out, err := env.Engine.Ledger.ConfirmPricing(ctx, id, "contador", dto.ConfirmPricingRequest{
		ActualUnitPrice: decimal.RequireFromString("12"),
		Remarks:         "según factura",
	})
	require.NoError(t, err)
	assert.True(t, out.PricingConfirmed)
	assert.Equal(t, "contador", out.ConfirmedBy)
	require.NotNil(t, out.PriceVariancePercent)
	assert.True(t, out.PriceVariancePercent.Equal(decimal.NewFromInt(20)))

	// reconfirmar sobrescribe
	out, err = env.Engine.Ledger.ConfirmPricing(ctx, id, "contador", dto.ConfirmPricingRequest{ActualUnitPrice: decimal.RequireFromString("9")})
	require.NoError(t, err)
	require.NotNil(t, out.PriceVariancePercent)
	assert.True(t, out.PriceVariancePercent.Equal(decimal.NewFromInt(-10)))
	assert.True(t, out.ActualUnitPrice.Equal(decimal.NewFromInt(9)))
}

func TestConfirmPricing_Errores(t *testing.T) {
	env := enginetest.New(t)
	ctx := context.Background()
	tdr := env.FinalizedTender(t, enginetest.Item("A", 10, "10"))

	_, err := env.Engine.Ledger.ConfirmPricing(ctx, acquisition.RecordID(tdr.ID, "A"), "c", dto.ConfirmPricingRequest{ActualUnitPrice: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = env.Engine.Ledger.ConfirmPricing(ctx, "no-existe", "c", dto.ConfirmPricingRequest{ActualUnitPrice: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestVarianza_NilConEstimadoCero(t *testing.T) {
	env := enginetest.New(t)
	ctx := context.Background()
	tdr := env.FinalizedTender(t, enginetest.Item("A", 1, "0"))

	out, err := env.Engine.Ledger.ConfirmPricing(ctx, acquisition.RecordID(tdr.ID, "A"), "c", dto.ConfirmPricingRequest{ActualUnitPrice: decimal.NewFromInt(3)})
	require.NoError(t, err)
	assert.True(t, out.PricingConfirmed)
	assert.Nil(t, out.PriceVariancePercent)
}

func TestGet_IncluyeTotalesDerivados(t *testing.T) {
	env := enginetest.New(t)
	ctx := context.Background()
	tdr := env.FinalizedTender(t, enginetest.Item("A", 10, "1"))

	_, err := env.Engine.Deliveries.RegisterDelivery(ctx, enginetest.Receive(tdr.ID, "A", 3, 1, 0))
	require.NoError(t, err)

	rec, err := env.Engine.Ledger.Get(ctx, acquisition.RecordID(tdr.ID, "A"))
	require.NoError(t, err)
	assert.Equal(t, int64(4), rec.TotalQuantityReceived)
	assert.Equal(t, int64(3), rec.TotalQuantityGood)

	_, err = env.Engine.Ledger.Get(ctx, "x")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}
