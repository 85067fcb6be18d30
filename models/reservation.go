package models

import "time"

// Reservation statuses.
const (
	ReservationPending   = "pending"
	ReservationConfirmed = "confirmed"
	ReservationExpired   = "expired"
	ReservationCancelled = "cancelled"
)

// Reservation is a time-boxed hold of tier inventory while the buyer
// completes payment. Only pending reservations hold inventory.
type Reservation struct {
	ID                 string    `db:"id" json:"id"`
	UserID             string    `db:"user_id" json:"user_id"`
	TierID             string    `db:"tier_id" json:"tier_id"`
	EventID            string    `db:"event_id" json:"event_id"`
	Quantity           int       `db:"quantity" json:"quantity"`
	Status             string    `db:"status" json:"status"`
	ExternalPaymentRef string    `db:"external_payment_ref" json:"external_payment_ref,omitempty"`
	IntentAmount       int64     `db:"intent_amount_minor_units" json:"intent_amount_minor_units,omitempty"`
	CreatedAt          time.Time `db:"created" json:"created_at"`
	ExpiresAt          time.Time `db:"expires_at" json:"expires_at"`
}

// Expired reports whether the hold window has elapsed.
func (r *Reservation) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
