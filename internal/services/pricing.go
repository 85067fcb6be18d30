package services

import "github.com/shopspring/decimal"

// Quote is a price breakdown in integer minor units. Rounding is
// applied half up at each step independently, matching what checkout
// displays and what the gateway charges.
type Quote struct {
	Subtotal int64 `json:"subtotal"`
	Fee      int64 `json:"fee"`
	Tax      int64 `json:"tax"`
	Total    int64 `json:"total"`
}

// Pricing computes order totals: a convenience fee on the subtotal and
// tax on the fee only.
type Pricing struct {
	feeRate decimal.Decimal
	taxRate decimal.Decimal
}

func NewPricing(feeRate, taxRate float64) *Pricing {
	return &Pricing{
		feeRate: decimal.NewFromFloat(feeRate),
		taxRate: decimal.NewFromFloat(taxRate),
	}
}

// Quote prices quantity units at priceMinorUnits each.
func (p *Pricing) Quote(priceMinorUnits int64, quantity int) Quote {
	subtotal := decimal.NewFromInt(priceMinorUnits).Mul(decimal.NewFromInt(int64(quantity)))

	// decimal.Round rounds half away from zero, which is half up on
	// the non-negative amounts handled here.
	fee := subtotal.Mul(p.feeRate).Round(0)
	tax := fee.Mul(p.taxRate).Round(0)
	total := subtotal.Add(fee).Add(tax)

	return Quote{
		Subtotal: subtotal.IntPart(),
		Fee:      fee.IntPart(),
		Tax:      tax.IntPart(),
		Total:    total.IntPart(),
	}
}
