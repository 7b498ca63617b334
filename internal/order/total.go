package order

import (
	"kioskpos/internal/model"

	"github.com/shopspring/decimal"
)

// CalculateTotal sums quantity × price over all lines and rounds once, at the
// end, to cents (half away from zero). Zero-valued lines contribute nothing.
func CalculateTotal(items []model.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return RoundCents(sum)
}

// RoundCents rounds to two places, half away from zero.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
