package stock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/procurement-api/internal/application/events"
	"github.com/jhoicas/procurement-api/internal/domain/entity"
	"github.com/jhoicas/procurement-api/internal/eventing"
)

func mustEvent(t *testing.T, stream string, p events.Payload) *entity.Event {
	t.Helper()
	ev, err := eventing.BuildEvent(stream, "agg", p, eventing.Meta{})
	require.NoError(t, err)
	return ev
}

func TestFold_SumaBuenosYAjustes(t *testing.T) {
	evs := []*entity.Event{
		mustEvent(t, entity.StreamDelivery, events.DeliveryRegistered{Items: []events.DeliveredItem{
			{ItemID: "A", QuantityDelivered: 60, QuantityGood: 60},
		}}),
		mustEvent(t, entity.StreamDelivery, events.DeliveryRegistered{Items: []events.DeliveredItem{
			{ItemID: "A", QuantityDelivered: 40, QuantityGood: 30, QuantityRejected: 10},
			{ItemID: "B", QuantityDelivered: 2, QuantityDamaged: 2},
		}}),
		mustEvent(t, entity.StreamStock, events.StockAdjusted{ItemID: "A", Delta: -5}),
		mustEvent(t, entity.StreamStock, events.StockLevelsConfigured{ItemID: "A", Minimum: 10, Maximum: 200, Reorder: 5}),
		mustEvent(t, entity.StreamStock, events.ReservationChanged{ItemID: "A", Reserved: 7}),
		mustEvent(t, entity.StreamTender, events.TenderDeleted{TenderID: "x"}),
	}

	out, err := Fold(evs)
	require.NoError(t, err)
	require.Contains(t, out, "A")
	assert.Equal(t, int64(85), out["A"].CurrentQuantity)
	assert.Equal(t, int64(7), out["A"].ReservedQuantity)
	assert.Equal(t, int64(200), out["A"].MaximumStockLevel)
	assert.NotContains(t, out, "B", "sin cantidad buena no hay movimiento de stock")
}
