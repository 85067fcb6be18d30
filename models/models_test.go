package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketTier_Available(t *testing.T) {
	tests := []struct {
		name string
		tier TicketTier
		want int
	}{
		{
			name: "untouched tier",
			tier: TicketTier{TotalQuantity: 100},
			want: 100,
		},
		{
			name: "sold and held both count",
			tier: TicketTier{TotalQuantity: 100, SoldQuantity: 40, HeldQuantity: 25},
			want: 35,
		},
		{
			name: "fully committed",
			tier: TicketTier{TotalQuantity: 50, SoldQuantity: 30, HeldQuantity: 20},
			want: 0,
		},
		{
			name: "overcommitted counters clamp to zero",
			tier: TicketTier{TotalQuantity: 10, SoldQuantity: 8, HeldQuantity: 5},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tier.Available())
		})
	}
}

func TestReservation_Expired(t *testing.T) {
	now := time.Now()
	resv := Reservation{
		Status:    ReservationPending,
		ExpiresAt: now.Add(15 * time.Minute),
	}

	assert.False(t, resv.Expired(now))
	assert.False(t, resv.Expired(now.Add(15*time.Minute)))
	assert.True(t, resv.Expired(now.Add(15*time.Minute+time.Second)))
}

func TestReservation_JSONSerialization(t *testing.T) {
	resv := Reservation{
		ID:       "resv123",
		UserID:   "user456",
		TierID:   "tier789",
		Quantity: 2,
		Status:   ReservationPending,
	}

	data, err := json.Marshal(resv)
	require.NoError(t, err)

	var decoded Reservation
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, resv.ID, decoded.ID)
	assert.Equal(t, resv.Quantity, decoded.Quantity)
	assert.Equal(t, ReservationPending, decoded.Status)

	// Payment attributes stay off the wire until the intent is created.
	assert.NotContains(t, string(data), "external_payment_ref")
	assert.NotContains(t, string(data), "intent_amount_minor_units")
}

func TestOrder_JSONSerialization(t *testing.T) {
	order := Order{
		ID:                    "order123",
		ReservationID:         "resv456",
		Quantity:              2,
		TotalAmountMinorUnits: 20472,
		Currency:              "INR",
		Status:                OrderPaid,
		BuyerContact:          BuyerContact{Email: "buyer@example.com", Phone: "02055555555"},
		AttendeeNames:         []string{"Anna", "Ben"},
	}

	data, err := json.Marshal(order)
	require.NoError(t, err)

	var decoded Order
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, order.TotalAmountMinorUnits, decoded.TotalAmountMinorUnits)
	assert.Equal(t, order.BuyerContact.Email, decoded.BuyerContact.Email)
	assert.Equal(t, order.AttendeeNames, decoded.AttendeeNames)
	assert.Equal(t, OrderPaid, decoded.Status)
}

func TestStatusConstants(t *testing.T) {
	assert.Equal(t, "pending", ReservationPending)
	assert.Equal(t, "confirmed", ReservationConfirmed)
	assert.Equal(t, "expired", ReservationExpired)
	assert.Equal(t, "cancelled", ReservationCancelled)

	assert.Equal(t, "pending", OrderPending)
	assert.Equal(t, "paid", OrderPaid)
	assert.Equal(t, "failed", OrderFailed)

	assert.Equal(t, "active", TicketActive)
	assert.Equal(t, "used", TicketUsed)
	assert.Equal(t, "cancelled", TicketCancelled)
}
