package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPricing_Quote(t *testing.T) {
	pricing := NewPricing(0.02, 0.18)

	tests := []struct {
		name     string
		price    int64
		quantity int
		want     Quote
	}{
		{
			name:     "two standard tickets",
			price:    10000,
			quantity: 2,
			want:     Quote{Subtotal: 20000, Fee: 400, Tax: 72, Total: 20472},
		},
		{
			name:     "single ticket",
			price:    10000,
			quantity: 1,
			want:     Quote{Subtotal: 10000, Fee: 200, Tax: 36, Total: 10236},
		},
		{
			name:     "free tier quotes to zero",
			price:    0,
			quantity: 4,
			want:     Quote{Subtotal: 0, Fee: 0, Tax: 0, Total: 0},
		},
		{
			name:     "fee rounds half up",
			price:    1025, // fee 20.5 -> 21, tax 3.78 -> 4
			quantity: 1,
			want:     Quote{Subtotal: 1025, Fee: 21, Tax: 4, Total: 1050},
		},
		{
			name:     "fee rounds down below half",
			price:    1020, // fee 20.4 -> 20, tax 3.6 -> 4
			quantity: 1,
			want:     Quote{Subtotal: 1020, Fee: 20, Tax: 4, Total: 1044},
		},
		{
			name:     "odd price high quantity",
			price:    333,
			quantity: 7, // subtotal 2331, fee 46.62 -> 47, tax 8.46 -> 8
			want:     Quote{Subtotal: 2331, Fee: 47, Tax: 8, Total: 2386},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pricing.Quote(tt.price, tt.quantity))
		})
	}
}

func TestPricing_QuoteDeterministic(t *testing.T) {
	pricing := NewPricing(0.02, 0.18)

	first := pricing.Quote(4999, 3)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, pricing.Quote(4999, 3))
	}
}

func TestPricing_TaxAppliesToFeeOnly(t *testing.T) {
	pricing := NewPricing(0.02, 0.18)

	q := pricing.Quote(100000, 1)

	// 18% of the 2000 fee, not of the 100000 subtotal.
	assert.Equal(t, int64(2000), q.Fee)
	assert.Equal(t, int64(360), q.Tax)
	assert.Equal(t, q.Subtotal+q.Fee+q.Tax, q.Total)
}
