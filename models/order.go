package models

import "time"

// Order statuses.
const (
	OrderPending = "pending"
	OrderPaid    = "paid"
	OrderFailed  = "failed"
)

// BuyerContact is where purchase confirmations are sent.
type BuyerContact struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Order is the immutable record of one finalized purchase. It is
// created in the same transaction as its tickets and never mutated
// after reaching the paid status.
type Order struct {
	ID                    string       `db:"id" json:"id"`
	ReservationID         string       `db:"reservation_id" json:"reservation_id"`
	UserID                string       `db:"user_id" json:"user_id"`
	EventID               string       `db:"event_id" json:"event_id"`
	TierID                string       `db:"tier_id" json:"tier_id"`
	Quantity              int          `db:"quantity" json:"quantity"`
	TotalAmountMinorUnits int64        `db:"total_amount_minor_units" json:"total_amount_minor_units"`
	Currency              string       `db:"currency" json:"currency"`
	Status                string       `db:"status" json:"status"`
	BuyerContact          BuyerContact `json:"buyer_contact"`
	AttendeeNames         []string     `json:"attendee_names"`
	ExternalPaymentRef    string       `db:"external_payment_ref" json:"external_payment_ref"`
	CreatedAt             time.Time    `db:"created" json:"created_at"`
}

// VerifiedPayment is the positive result of gateway signature
// verification handed to the issuer. Amount is in minor units and must
// equal the reservation's computed total exactly.
type VerifiedPayment struct {
	IntentID  string `json:"intent_id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}
