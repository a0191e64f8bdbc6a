// Package delivery contiene las reglas de recepción: tolerancia de sobre-entrega y estado derivado.
package delivery

import (
	"math"

	"github.com/shopspring/decimal"
)

// AllowedReceipt máximo acumulado permitido: ordenado + floor(ordenado * tolerancia / 100).
func AllowedReceipt(ordered int64, tolerancePercent decimal.Decimal) int64 {
	if tolerancePercent.LessThanOrEqual(decimal.Zero) {
		return ordered
	}
	extra := decimal.NewFromInt(ordered).Mul(tolerancePercent).Div(decimal.NewFromInt(100)).Floor()
	if extra.GreaterThan(decimal.NewFromInt(math.MaxInt64 - ordered)) {
		return math.MaxInt64
	}
	return ordered + extra.IntPart()
}

// AddQuantities suma cantidades y devuelve ok=false si el resultado no cabe en int64.
func AddQuantities(vals ...int64) (sum int64, ok bool) {
	for _, v := range vals {
		if (v > 0 && sum > math.MaxInt64-v) || (v < 0 && sum < math.MinInt64-v) {
			return 0, false
		}
		sum += v
	}
	return sum, true
}

// ExceedsAllowed indica si received+attempted supera allowed. Un desborde positivo cuenta
// como exceso.
func ExceedsAllowed(received, attempted, allowed int64) bool {
	total, ok := AddQuantities(received, attempted)
	if !ok {
		return attempted > 0
	}
	return total > allowed
}
