// Package acquisition agrupa las reglas de precio de los registros de adquisición.
package acquisition

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/procurement-api/internal/domain/entity"
)

var hundred = decimal.NewFromInt(100)

// PriceVariancePercent = (actual - estimado) / estimado * 100, redondeado a 2 decimales.
// Devuelve nil (no cero) si el precio no está confirmado o el estimado es 0.
func PriceVariancePercent(r *entity.AcquisitionRecord) *decimal.Decimal {
	if r == nil || !r.PricingConfirmed || r.ActualUnitPrice == nil || r.EstimatedUnitPrice.IsZero() {
		return nil
	}
	v := r.ActualUnitPrice.Sub(r.EstimatedUnitPrice).Div(r.EstimatedUnitPrice).Mul(hundred).Round(2)
	return &v
}

// CompletionRate = confirmados / total * 100. 0 cuando no hay ítems.
func CompletionRate(confirmed, total int) decimal.Decimal {
	if total <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(confirmed)).Div(decimal.NewFromInt(int64(total))).Mul(hundred).Round(2)
}

// Values calcula el valor estimado (todos los registros) y el real (solo confirmados).
func Values(records []*entity.AcquisitionRecord) (estimated, actual decimal.Decimal) {
	estimated, actual = decimal.Zero, decimal.Zero
	for _, r := range records {
		qty := decimal.NewFromInt(r.OrderedQuantity)
		estimated = estimated.Add(r.EstimatedUnitPrice.Mul(qty))
		if r.PricingConfirmed && r.ActualUnitPrice != nil {
			actual = actual.Add(r.ActualUnitPrice.Mul(qty))
		}
	}
	return estimated.Round(2), actual.Round(2)
}

// AverageVariance media de las varianzas definidas. Los registros con varianza nil se excluyen.
func AverageVariance(records []*entity.AcquisitionRecord) *decimal.Decimal {
	sum := decimal.Zero
	n := 0
	for _, r := range records {
		if v := PriceVariancePercent(r); v != nil {
			sum = sum.Add(*v)
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum.Div(decimal.NewFromInt(int64(n))).Round(2)
	return &avg
}
