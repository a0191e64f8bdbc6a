package eventing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/procurement-api/internal/application/events"
	"github.com/jhoicas/procurement-api/internal/application/ports"
	"github.com/jhoicas/procurement-api/internal/domain/entity"
	"github.com/jhoicas/procurement-api/internal/eventing"
	"github.com/jhoicas/procurement-api/internal/infrastructure/memory"
)

func TestDeterministicID_Estable(t *testing.T) {
	a := eventing.DeterministicID("TenderFinalized", "t-1")
	assert.Equal(t, a, eventing.DeterministicID("TenderFinalized", "t-1"))
	assert.NotEqual(t, a, eventing.DeterministicID("TenderFinalized", "t-2"))
}

func TestBuildEvent_YDecode(t *testing.T) {
	ev, err := eventing.BuildEvent(entity.StreamTender, "t-1", events.TenderDeleted{TenderID: "t-1", DeletedBy: "ana"}, eventing.Meta{Actor: "ana"})
	require.NoError(t, err)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, events.TypeTenderDeleted, ev.Type)
	assert.False(t, ev.OccurredAt.IsZero())

	p, err := eventing.Decode[events.TenderDeleted](ev)
	require.NoError(t, err)
	assert.Equal(t, "ana", p.DeletedBy)
}

func TestPublish_UnaVezPorConsumidor(t *testing.T) {
	st := memory.NewStore()
	repos := st.Repositories()
	bus := eventing.NewBus(zerolog.Nop())
	ctx := context.Background()

	calls := 0
	bus.Subscribe(events.TypeTenderDeleted, "contador", func(context.Context, ports.Repositories, *entity.Event) error {
		calls++
		return nil
	})

	ev, err := eventing.BuildEvent(entity.StreamTender, "t-1", events.TenderDeleted{TenderID: "t-1"}, eventing.Meta{EventID: "fijo"})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, repos, ev))
	assert.Equal(t, int64(1), ev.Sequence)

	again, err := eventing.BuildEvent(entity.StreamTender, "t-1", events.TenderDeleted{TenderID: "t-1"}, eventing.Meta{EventID: "fijo"})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, repos, again))
	require.NoError(t, bus.Dispatch(ctx, repos, ev))

	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"contador"}, bus.Consumers())
}

func TestDispatch_ErrorNoMarcaProcesado(t *testing.T) {
	st := memory.NewStore()
	repos := st.Repositories()
	bus := eventing.NewBus(zerolog.Nop())
	ctx := context.Background()
	boom := errors.New("boom")

	fail := true
	bus.Subscribe(events.TypeTenderDeleted, "frágil", func(context.Context, ports.Repositories, *entity.Event) error {
		if fail {
			return boom
		}
		return nil
	})
	ev, err := eventing.BuildEvent(entity.StreamTender, "t-1", events.TenderDeleted{TenderID: "t-1"}, eventing.Meta{})
	require.NoError(t, err)
	assert.ErrorIs(t, bus.Publish(ctx, repos, ev), boom)

	done, err := repos.Processed.HasProcessed(ctx, ev.ID, "frágil")
	require.NoError(t, err)
	assert.False(t, done)

	fail = false
	require.NoError(t, bus.Dispatch(ctx, repos, ev))
	done, err = repos.Processed.HasProcessed(ctx, ev.ID, "frágil")
	require.NoError(t, err)
	assert.True(t, done)
}
