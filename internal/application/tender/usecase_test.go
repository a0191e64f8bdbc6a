package tender_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/procurement-api/internal/application/dto"
	"github.com/jhoicas/procurement-api/internal/application/engine/enginetest"
	"github.com/jhoicas/procurement-api/internal/application/events"
	"github.com/jhoicas/procurement-api/internal/application/tender"
	"github.com/jhoicas/procurement-api/internal/domain"
	"github.com/jhoicas/procurement-api/internal/domain/entity"
	"github.com/jhoicas/procurement-api/internal/domain/repository"
)

func createDraft(t *testing.T, env *enginetest.Env) *dto.TenderResponse {
	t.Helper()
	out, err := env.Engine.Tenders.Create(context.Background(), "ana", dto.CreateTenderRequest{
		Title:           "Medicamentos 2026",
		ReferenceNumber: "LIC-001",
		Items: []dto.TenderItemRequest{
			enginetest.Item("A", 10, "5.00"),
			enginetest.Item("B", 4, "12.50"),
		},
	})
	require.NoError(t, err)
	return out
}

func TestCreate_DraftConTipoPorDefecto(t *testing.T) {
	env := enginetest.New(t)
	out := createDraft(t, env)

	assert.Equal(t, entity.TenderStateDraft, out.State)
	assert.Equal(t, entity.AcquisitionTypeContract, out.AcquisitionType)
	assert.Len(t, out.Items, 2)
}

func TestCreate_Validaciones(t *testing.T) {
	env := enginetest.New(t)
	ctx := context.Background()
	cases := []struct {
		name string
		in   dto.CreateTenderRequest
		want error
	}{
		{"sin título", dto.CreateTenderRequest{ReferenceNumber: "R"}, domain.ErrInvalidInput},
		{"tipo inválido", dto.CreateTenderRequest{Title: "T", ReferenceNumber: "R", AcquisitionType: "Subasta"}, domain.ErrInvalidInput},
		{"cantidad cero", dto.CreateTenderRequest{Title: "T", ReferenceNumber: "R", Items: []dto.TenderItemRequest{enginetest.Item("A", 0, "1")}}, domain.ErrInvalidInput},
		{"precio negativo", dto.CreateTenderRequest{Title: "T", ReferenceNumber: "R", Items: []dto.TenderItemRequest{enginetest.Item("A", 1, "-1")}}, domain.ErrInvalidInput},
		{"ítem repetido", dto.CreateTenderRequest{Title: "T", ReferenceNumber: "R", Items: []dto.TenderItemRequest{enginetest.Item("A", 1, "1"), enginetest.Item("A", 2, "1")}}, domain.ErrDuplicate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.Engine.Tenders.Create(ctx, "ana", tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestPublish_SoloDesdeDraft(t *testing.T) {
	env := enginetest.New(t)
	ctx := context.Background()
	draft := createDraft(t, env)

	pub, err := env.Engine.Tenders.Publish(ctx, draft.ID, "ana")
	require.NoError(t, err)
	assert.Equal(t, entity.TenderStatePublished, pub.State)

	_, err = env.Engine.Tenders.Publish(ctx, draft.ID, "ana")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestFinalize_CreaUnRegistroPorItem(t *testing.T) {
	env := enginetest.New(t)
	ctx := context.Background()
	draft := createDraft(t, env)

	out, err := env.Engine.Tenders.Finalize(ctx, draft.ID, "jefe.compras")
	require.NoError(t, err)
	assert.Equal(t, entity.TenderStateFinalized, out.State)
	assert.Equal(t, "jefe.compras", out.FinalizedBy)
	require.NotNil(t, out.FinalizedAt)

	records, err := env.Engine.Ledger.ListByTender(ctx, draft.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "A", records[0].ItemID)
	assert.Equal(t, int64(10), records[0].OrderedQuantity)
	assert.True(t, records[0].EstimatedUnitPrice.Equal(decimal.RequireFromString("5")))
	assert.False(t, records[0].PricingConfirmed)
	assert.Nil(t, records[0].ActualUnitPrice)
}

func TestFinalize_EsIdempotente(t *testing.T) {
	env := enginetest.New(t)
	ctx := context.Background()
	repos := env.Store.Repositories()
	draft := createDraft(t, env)

	_, err := env.Engine.Tenders.Finalize(ctx, draft.ID, "ana")
	require.NoError(t, err)

	_, err = env.Engine.Tenders.Finalize(ctx, draft.ID, "ana")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	// redespachar el mismo evento, con y sin marcador de procesado, no duplica registros
	ev, err := repos.Events.GetByID(ctx, tender.FinalizedEventID(draft.ID))
	require.NoError(t, err)
	require.NotNil(t, ev)
	require.NoError(t, env.Engine.Bus.Dispatch(ctx, repos, ev))
	require.NoError(t, repos.Processed.Reset(ctx, "acquisition.ledger"))
	require.NoError(t, env.Engine.Bus.Dispatch(ctx, repos, ev))

	n, err := repos.Acquisitions.CountByTender(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	finalized, err := repos.Events.List(ctx, repository.EventFilter{Stream: entity.StreamTender, AggregateID: draft.ID})
	require.NoError(t, err)
	count := 0
	for _, e := range finalized {
		if e.Type == events.TypeTenderFinalized {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestFinalizada_EsInmutable(t *testing.T) {
	env := enginetest.New(t)
	ctx := context.Background()
	draft := createDraft(t, env)
	_, err := env.Engine.Tenders.Finalize(ctx, draft.ID, "ana")
	require.NoError(t, err)

	title := "otro"
	_, err = env.Engine.Tenders.Update(ctx, draft.ID, dto.UpdateTenderRequest{Title: &title})
	assert.ErrorIs(t, err, domain.ErrImmutableEntity)

	_, err = env.Engine.Tenders.AddLineItem(ctx, draft.ID, enginetest.Item("C", 1, "1"))
	assert.ErrorIs(t, err, domain.ErrImmutableEntity)

	_, err = env.Engine.Tenders.RemoveLineItem(ctx, draft.ID, "A")
	assert.ErrorIs(t, err, domain.ErrImmutableEntity)

	err = env.Engine.Tenders.Delete(ctx, draft.ID, "ana")
	assert.ErrorIs(t, err, domain.ErrImmutableEntity)
}

func TestDelete_SegunEstado(t *testing.T) {
	env := enginetest.New(t)
	ctx := context.Background()

	published := createDraft(t, env)
	_, err := env.Engine.Tenders.Publish(ctx, published.ID, "ana")
	require.NoError(t, err)
	err = env.Engine.Tenders.Delete(ctx, published.ID, "ana")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	draft := createDraft(t, env)
	require.NoError(t, env.Engine.Tenders.Delete(ctx, draft.ID, "ana"))
	_, err = env.Engine.Tenders.Get(ctx, draft.ID)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestLineItems_EnPublicada(t *testing.T) {
	env := enginetest.New(t)
	ctx := context.Background()
	draft := createDraft(t, env)
	_, err := env.Engine.Tenders.Publish(ctx, draft.ID, "ana")
	require.NoError(t, err)

	out, err := env.Engine.Tenders.AddLineItem(ctx, draft.ID, enginetest.Item("C", 3, "2"))
	require.NoError(t, err)
	assert.Len(t, out.Items, 3)

	_, err = env.Engine.Tenders.AddLineItem(ctx, draft.ID, enginetest.Item("C", 3, "2"))
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	out, err = env.Engine.Tenders.RemoveLineItem(ctx, draft.ID, "B")
	require.NoError(t, err)
	assert.Len(t, out.Items, 2)

	_, err = env.Engine.Tenders.RemoveLineItem(ctx, draft.ID, "Z")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestList_FiltraPorEstado(t *testing.T) {
	env := enginetest.New(t)
	ctx := context.Background()
	a := createDraft(t, env)
	createDraft(t, env)
	_, err := env.Engine.Tenders.Finalize(ctx, a.ID, "ana")
	require.NoError(t, err)

	all, err := env.Engine.Tenders.List(ctx, dto.TenderFilter{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)
	assert.Equal(t, 20, all.Page.Limit)
	assert.Equal(t, 2, all.Page.Returned)

	fin, err := env.Engine.Tenders.List(ctx, dto.TenderFilter{State: entity.TenderStateFinalized})
	require.NoError(t, err)
	require.Len(t, fin.Items, 1)
	assert.Equal(t, a.ID, fin.Items[0].ID)
}
