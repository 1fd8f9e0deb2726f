// Package pricing computes cart money in decimal dollars. Nothing here rounds;
// callers round with Round2 when they display or persist an amount.
package pricing

import (
	"github.com/shopspring/decimal"
)

// Line is the priced view of one cart line.
type Line struct {
	BasePrice      decimal.Decimal
	SizePrice      *decimal.Decimal // absolute price, replaces BasePrice
	ToppingPrices  []decimal.Decimal
	ModifierDeltas []decimal.Decimal // may be negative
	Quantity       int
}

type Rates struct {
	Tax           decimal.Decimal
	ServiceCharge decimal.Decimal
}

type Totals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Tax           decimal.Decimal `json:"tax"`
	ServiceCharge decimal.Decimal `json:"serviceCharge"`
	Total         decimal.Decimal `json:"total"`
}

// UnitPrice = size price (or base price) + toppings + modifier deltas.
func UnitPrice(l Line) decimal.Decimal {
	unit := l.BasePrice
	if l.SizePrice != nil {
		unit = *l.SizePrice
	}
	for _, p := range l.ToppingPrices {
		unit = unit.Add(p)
	}
	for _, d := range l.ModifierDeltas {
		unit = unit.Add(d)
	}
	return unit
}

func LineTotal(l Line) decimal.Decimal {
	return UnitPrice(l).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartTotals sums the lines and applies tax and service charge on the
// subtotal.
func CartTotals(lines []Line, r Rates) Totals {
	return CartTotalsWithDiscount(lines, r, decimal.Zero)
}

// CartTotalsWithDiscount charges tax and service on the discounted subtotal:
// total = subtotal - discount + tax + serviceCharge.
func CartTotalsWithDiscount(lines []Line, r Rates, discount decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(LineTotal(l))
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	base := subtotal.Sub(discount)
	tax := base.Mul(r.Tax)
	service := base.Mul(r.ServiceCharge)
	return Totals{
		Subtotal:      subtotal,
		Discount:      discount,
		Tax:           tax,
		ServiceCharge: service,
		Total:         base.Add(tax).Add(service),
	}
}

// Round2 rounds half away from zero to cents.
func Round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// Rounded returns the totals as persisted on an order. Each component is
// rounded to cents and Total is summed from the rounded parts, so the stored
// row always satisfies total = subtotal - discount + tax + serviceCharge.
func (t Totals) Rounded() Totals {
	out := Totals{
		Subtotal:      Round2(t.Subtotal),
		Discount:      Round2(t.Discount),
		Tax:           Round2(t.Tax),
		ServiceCharge: Round2(t.ServiceCharge),
	}
	out.Total = out.Subtotal.Sub(out.Discount).Add(out.Tax).Add(out.ServiceCharge)
	return out
}
