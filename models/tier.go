package models

// TicketTier is a counted inventory bucket for one event. Capacity is
// fixed at creation; sold and held counters move only through the
// inventory service.
type TicketTier struct {
	ID              string `db:"id" json:"id"`
	EventID         string `db:"event_id" json:"event_id"`
	Name            string `db:"name" json:"name"`
	PriceMinorUnits int64  `db:"price_minor_units" json:"price_minor_units"`
	Currency        string `db:"currency" json:"currency"`
	TotalQuantity   int    `db:"total_quantity" json:"total_quantity"`
	SoldQuantity    int    `db:"sold_quantity" json:"sold_quantity"`
	HeldQuantity    int    `db:"held_quantity" json:"held_quantity"`
}

// Available returns the purchasable remainder, never negative.
func (t *TicketTier) Available() int {
	available := t.TotalQuantity - t.SoldQuantity - t.HeldQuantity
	if available < 0 {
		return 0
	}
	return available
}
