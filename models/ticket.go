package models

import "time"

// Ticket statuses.
const (
	TicketActive    = "active"
	TicketUsed      = "used"
	TicketCancelled = "cancelled"
)

// Ticket is one admission unit of an order. Credential is the opaque
// token rendered as a scannable code; it is generated once and unique
// across the whole system.
type Ticket struct {
	ID           string    `db:"id" json:"id"`
	OrderID      string    `db:"order_id" json:"order_id"`
	TierID       string    `db:"tier_id" json:"tier_id"`
	EventID      string    `db:"event_id" json:"event_id"`
	AttendeeName string    `db:"attendee_name" json:"attendee_name"`
	Credential   string    `db:"credential" json:"credential"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created" json:"created_at"`
}
