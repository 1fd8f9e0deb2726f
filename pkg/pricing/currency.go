package pricing

import "github.com/shopspring/decimal"

// DefaultVNDRate is VND per USD.
var DefaultVNDRate = decimal.NewFromInt(25000)

// Converter is only used at the payment-method boundary (SEPAY_QR); cart
// arithmetic stays in USD.
type Converter struct {
	Rate decimal.Decimal
}

func NewConverter(rate decimal.Decimal) Converter {
	if !rate.IsPositive() {
		rate = DefaultVNDRate
	}
	return Converter{Rate: rate}
}

// UsdToVnd rounds to whole dong.
func (c Converter) UsdToVnd(usd decimal.Decimal) int64 {
	return usd.Mul(c.Rate).Round(0).IntPart()
}

// VndToUsd is left unrounded so that UsdToVnd(VndToUsd(x)) == x.
func (c Converter) VndToUsd(vnd int64) decimal.Decimal {
	return decimal.NewFromInt(vnd).Div(c.Rate)
}

func UsdToVnd(usd decimal.Decimal) int64 { return NewConverter(DefaultVNDRate).UsdToVnd(usd) }
func VndToUsd(vnd int64) decimal.Decimal { return NewConverter(DefaultVNDRate).VndToUsd(vnd) }
