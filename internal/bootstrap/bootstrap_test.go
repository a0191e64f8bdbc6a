package bootstrap

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/procurement-api/internal/application/dto"
	"github.com/jhoicas/procurement-api/pkg/config"
)

func TestBuild_Memoria(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Driver: config.StoreMemory}}
	rt, err := Build(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer rt.Close()

	assert.NoError(t, rt.Ping(context.Background()))
	assert.Equal(t, []string{"acquisition.ledger", "stock.aggregator"}, rt.Engine.Bus.Consumers())

	created, err := rt.Engine.Tenders.Create(context.Background(), "tester", dto.CreateTenderRequest{
		Title: "T", ReferenceNumber: "R",
		Items: []dto.TenderItemRequest{{ItemID: "A", Quantity: 1, EstimatedUnitPrice: decimal.NewFromInt(1)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Draft", created.State)
}
