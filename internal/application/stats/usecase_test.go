package stats_test

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
	"github.com/jhoicas/procurement-api/internal/domain/entity"
)

func confirm(t *testing.T, env *enginetest.Env, tenderID, itemID, price string) {
	t.Helper()
	_, err := env.Engine.Ledger.ConfirmPricing(context.Background(), acquisition.RecordID(tenderID, itemID), "contador",
		dto.ConfirmPricingRequest{ActualUnitPrice: decimal.RequireFromString(price)})
	require.NoError(t, err)
}

func TestSummary_ValoresYVarianza(t *testing.T) {
	env := enginetest.New(t)
	ctx := context.Background()
	tdr := env.FinalizedTender(t,
		enginetest.Item("A", 10, "10"),
		enginetest.Item("B", 5, "0"),
		enginetest.Item("C", 2, "4"),
	)
	confirm(t, env, tdr.ID, "A", "12")
	confirm(t, env, tdr.ID, "B", "3")
	_, err := env.Engine.Deliveries.RegisterDelivery(ctx, enginetest.Receive(tdr.ID, "A", 7, 0, 1))
	require.NoError(t, err)

	s, err := env.Engine.Stats.GetTenderAcquisitionSummary(ctx, tdr.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, s.TotalItems)
	assert.Equal(t, 2, s.ConfirmedItems)
	assert.Equal(t, "66.67", s.PricingCompletionRate.String())
	assert.True(t, s.EstimatedValue.Equal(decimal.NewFromInt(108)), s.EstimatedValue.String())
	assert.True(t, s.ActualValue.Equal(decimal.NewFromInt(135)), s.ActualValue.String())
	// B tiene estimado 0 y C no está confirmado: solo A cuenta en el promedio
	require.NotNil(t, s.AveragePriceVariance)
	assert.True(t, s.AveragePriceVariance.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, int64(17), s.TotalOrdered)
	assert.Equal(t, int64(8), s.TotalReceived)

	require.Len(t, s.Items, 3)
	assert.Equal(t, int64(3), s.Items[0].OutstandingQuantity)
	assert.Nil(t, s.Items[1].PriceVariancePercent)
}

func TestSummary_SinConfirmados(t *testing.T) {
	env := enginetest.New(t)
	tdr := env.FinalizedTender(t, enginetest.Item("A", 1, "1"))

	s, err := env.Engine.Stats.GetTenderAcquisitionSummary(context.Background(), tdr.ID)
	require.NoError(t, err)
	assert.True(t, s.PricingCompletionRate.IsZero())
	assert.True(t, s.ActualValue.IsZero())
	assert.Nil(t, s.AveragePriceVariance)

	_, err = env.Engine.Stats.GetTenderAcquisitionSummary(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestDashboard_Agregados(t *testing.T) {
	env := enginetest.New(t)
	ctx := context.Background()

	priced := env.FinalizedTender(t, enginetest.Item("A", 10, "1"))
	confirm(t, env, priced.ID, "A", "1")
	_, err := env.Engine.Deliveries.RegisterDelivery(ctx, enginetest.Receive(priced.ID, "A", 4, 0, 0))
	require.NoError(t, err)

	open := env.FinalizedTender(t, enginetest.Item("B", 3, "2"), enginetest.Item("C", 1, "2"))
	confirm(t, env, open.ID, "B", "2")

	_, err = env.Engine.Tenders.Create(ctx, "ana", dto.CreateTenderRequest{
		Title: "Compra directa", ReferenceNumber: "SP-1", AcquisitionType: entity.AcquisitionTypeSpot,
	})
	require.NoError(t, err)

	d, err := env.Engine.Stats.GetDashboard(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, d.TotalTenders)
	assert.Equal(t, 2, d.TendersByState[entity.TenderStateFinalized])
	assert.Equal(t, 1, d.TendersByState[entity.TenderStateDraft])
	assert.Equal(t, 0, d.TendersByState[entity.TenderStatePublished])
	assert.Equal(t, 2, d.TendersWithRecords)
	assert.Equal(t, 1, d.TendersWithoutRecords)
	assert.Equal(t, 1, d.FullyPricedTenders)
	assert.Equal(t, 3, d.TotalItems)
	assert.Equal(t, 2, d.ConfirmedItems)
	assert.Equal(t, int64(4), d.TotalQuantityReceived)
	assert.Equal(t, "66.67", d.OverallCompletionRate.String())
	assert.Equal(t, 1, d.StockStatusCounts[entity.StockStatusNormal])

	require.Len(t, d.ByAcquisitionType, 2)
	assert.Equal(t, entity.AcquisitionTypeContract, d.ByAcquisitionType[0].AcquisitionType)
	assert.Equal(t, 2, d.ByAcquisitionType[0].Tenders)
	assert.Equal(t, entity.AcquisitionTypeSpot, d.ByAcquisitionType[1].AcquisitionType)
	assert.Equal(t, 1, d.ByAcquisitionType[1].Tenders)
}
