package memory

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/procurement-api/internal/application/ports"
	"github.com/jhoicas/procurement-api/internal/domain"
	"github.com/jhoicas/procurement-api/internal/domain/entity"
	"github.com/jhoicas/procurement-api/internal/domain/repository"
)

func TestRun_RevierteSiFalla(t *testing.T) {
	st := NewStore()
	tx := NewTxRunner(st)
	ctx := context.Background()
	boom := errors.New("boom")

	err := tx.Run(ctx, func(r ports.Repositories) error {
		require.NoError(t, r.Tenders.Create(ctx, &entity.Tender{ID: "t1", State: entity.TenderStateDraft}))
		_, err := r.Stock.Increment(ctx, "A", 5, "x", time.Now())
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	repos := st.Repositories()
	got, err := repos.Tenders.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, got)
	s, err := repos.Stock.Get(ctx, "A")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestIncrement_NoBajaDeCero(t *testing.T) {
	st := NewStore()
	repos := st.Repositories()
	ctx := context.Background()

	s, err := repos.Stock.Increment(ctx, "A", 3, "x", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(3), s.CurrentQuantity)

	_, err = repos.Stock.Increment(ctx, "A", -4, "x", time.Now())
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	s, err = repos.Stock.Get(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, int64(3), s.CurrentQuantity)
}

func TestIncrement_NoDesborda(t *testing.T) {
	st := NewStore()
	repos := st.Repositories()
	ctx := context.Background()

	_, err := repos.Stock.Increment(ctx, "A", 5, "x", time.Now())
	require.NoError(t, err)
	_, err = repos.Stock.Increment(ctx, "A", math.MaxInt64, "x", time.Now())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	s, err := repos.Stock.Get(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, int64(5), s.CurrentQuantity)
}

func TestAcquisition_TotalesDerivadosDeEntregas(t *testing.T) {
	st := NewStore()
	repos := st.Repositories()
	ctx := context.Background()

	require.NoError(t, repos.Acquisitions.Create(ctx, &entity.AcquisitionRecord{ID: "r1", TenderID: "t1", ItemID: "A", OrderedQuantity: 10}))
	assert.ErrorIs(t, repos.Acquisitions.Create(ctx, &entity.AcquisitionRecord{ID: "r2", TenderID: "t1", ItemID: "A"}), domain.ErrDuplicate)

	require.NoError(t, repos.Deliveries.Create(ctx, &entity.Delivery{ID: "d1", TenderID: "t1", DeliveryNumber: "DLV-0001", Items: []entity.DeliveryItem{
		{ItemID: "A", QuantityDelivered: 4, QuantityGood: 3, QuantityDamaged: 1},
	}}))
	assert.ErrorIs(t, repos.Deliveries.Create(ctx, &entity.Delivery{ID: "d2", TenderID: "t1", DeliveryNumber: "DLV-0001"}), domain.ErrDuplicate)

	rec, err := repos.Acquisitions.GetByTenderItem(ctx, "t1", "A")
	require.NoError(t, err)
	assert.Equal(t, int64(4), rec.TotalQuantityReceived)
	assert.Equal(t, int64(3), rec.TotalQuantityGood)
	assert.Equal(t, int64(7), rec.Outstanding())
}

func TestEvents_SecuenciaYDuplicados(t *testing.T) {
	st := NewStore()
	repos := st.Repositories()
	ctx := context.Background()

	for _, id := range []string{"e1", "e2", "e3"} {
		require.NoError(t, repos.Events.Append(ctx, &entity.Event{ID: id, Stream: entity.StreamStock}))
	}
	assert.ErrorIs(t, repos.Events.Append(ctx, &entity.Event{ID: "e2"}), domain.ErrDuplicate)

	page, err := repos.Events.List(ctx, repository.EventFilter{AfterSequence: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "e2", page[0].ID)
	assert.Equal(t, int64(2), page[0].Sequence)
}

func TestKeyedLocker_Serializa(t *testing.T) {
	l := NewKeyedLocker()
	ctx := context.Background()
	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, []string{"b", "a", "a"})
			if err != nil {
				return
			}
			counter++
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, l.size(), "las claves libres se descartan")
}

func TestKeyedLocker_RespetaCancelacion(t *testing.T) {
	l := NewKeyedLocker()
	unlock, err := l.Lock(context.Background(), []string{"a"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, []string{"b", "a"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// "b" se liberó al fallar "a"
	unlockB, err := l.Lock(context.Background(), []string{"b"})
	require.NoError(t, err)
	unlockB()

	unlock()
	unlock()
	assert.Equal(t, 0, l.size())
}
