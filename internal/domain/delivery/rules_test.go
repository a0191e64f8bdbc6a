package delivery_test

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/procurement-api/internal/domain/delivery"
	"github.com/jhoicas/procurement-api/internal/domain/entity"
)

func TestAllowedReceipt(t *testing.T) {
	assert.Equal(t, int64(10), delivery.AllowedReceipt(10, decimal.Zero), "tolerancia por defecto 0%")
	assert.Equal(t, int64(11), delivery.AllowedReceipt(10, decimal.NewFromInt(10)))
	assert.Equal(t, int64(10), delivery.AllowedReceipt(10, decimal.NewFromInt(5)), "se redondea hacia abajo")
}

func TestAllowedReceipt_NoDesborda(t *testing.T) {
	assert.Equal(t, int64(math.MaxInt64), delivery.AllowedReceipt(math.MaxInt64-1, decimal.NewFromInt(50)))
}

func TestAddQuantities(t *testing.T) {
	sum, ok := delivery.AddQuantities(3, 4, -2)
	assert.True(t, ok)
	assert.Equal(t, int64(5), sum)

	_, ok = delivery.AddQuantities(math.MaxInt64, math.MaxInt64, 2)
	assert.False(t, ok, "la suma que da la vuelta no es válida")

	_, ok = delivery.AddQuantities(math.MinInt64, -1)
	assert.False(t, ok)

	sum, ok = delivery.AddQuantities(math.MaxInt64, -1, 1)
	assert.True(t, ok)
	assert.Equal(t, int64(math.MaxInt64), sum)
}

func TestExceedsAllowed(t *testing.T) {
	assert.False(t, delivery.ExceedsAllowed(5, 5, 10))
	assert.True(t, delivery.ExceedsAllowed(5, 6, 10))
	assert.True(t, delivery.ExceedsAllowed(5, math.MaxInt64, 10), "desborde positivo es exceso")
	assert.False(t, delivery.ExceedsAllowed(12, -3, 10), "una corrección puede bajar un acumulado excedido")
	assert.True(t, delivery.ExceedsAllowed(12, 0, 10))
}

func item(id string, delivered, good, damaged, rejected int64) entity.DeliveryItem {
	return entity.DeliveryItem{ItemID: id, QuantityDelivered: delivered, QuantityGood: good, QuantityDamaged: damaged, QuantityRejected: rejected}
}

func TestComputeStatus(t *testing.T) {
	cases := []struct {
		name        string
		items       []entity.DeliveryItem
		outstanding map[string]int64
		want        string
	}{
		{"cubre todo", []entity.DeliveryItem{item("a", 40, 40, 0, 0)}, map[string]int64{"a": 40}, entity.DeliveryStatusComplete},
		{"parcial", []entity.DeliveryItem{item("a", 60, 60, 0, 0)}, map[string]int64{"a": 100}, entity.DeliveryStatusPartial},
		{"parcial con rechazo", []entity.DeliveryItem{item("a", 40, 30, 0, 10)}, map[string]int64{"a": 40}, entity.DeliveryStatusPartial},
		{"solo dañados", []entity.DeliveryItem{item("a", 5, 0, 3, 2)}, map[string]int64{"a": 10}, entity.DeliveryStatusDamaged},
		{"vacía", []entity.DeliveryItem{item("a", 0, 0, 0, 0)}, map[string]int64{"a": 10}, entity.DeliveryStatusPending},
		{"un ítem incompleto", []entity.DeliveryItem{item("a", 5, 5, 0, 0), item("b", 1, 1, 0, 0)}, map[string]int64{"a": 5, "b": 2}, entity.DeliveryStatusPartial},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, delivery.ComputeStatus(tc.items, tc.outstanding))
		})
	}
}
