// Package pricing holds the single money rule shared by checkout, the cart
// snapshot and revenue reporting.
package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// LineTotal is unitPrice x (1 - discount/100) x quantity rounded half-up to
// cents.
func LineTotal(unitPrice, discountPercent decimal.Decimal, quantity int) decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(discountPercent.Div(hundred))
	return unitPrice.Mul(factor).Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// Cents converts a 2-dp amount to integer minor units.
func Cents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
