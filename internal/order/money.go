package order

import "github.com/shopspring/decimal"

// Money renders an amount with two decimals, rounding half away from zero.
// Stored values keep full precision; only presentation rounds.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
