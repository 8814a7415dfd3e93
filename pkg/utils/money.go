package utils

import "github.com/shopspring/decimal"

// Money helpers. Amounts travel as float64 on the wire and are computed in
// decimal so that 0.1+0.2 style drift never reaches an order payload.

// Round2 rounds half away from zero to two decimal places.
func Round2(amount float64) float64 {
	return decimal.NewFromFloat(amount).Round(2).InexactFloat64()
}

// LineTotal returns quantity * unitPrice rounded to two places.
func LineTotal(quantity int, unitPrice float64) float64 {
	return decimal.NewFromFloat(unitPrice).Mul(decimal.NewFromInt(int64(quantity))).Round(2).InexactFloat64()
}

// Sub returns a - b rounded to two places, floored at zero.
func Sub(a, b float64) float64 {
	d := decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b))
	if d.IsNegative() {
		return 0
	}
	return d.Round(2).InexactFloat64()
}

// MinorUnits converts an amount to the provider's smallest unit (paise, cents).
func MinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
