package services

import (
	"eventpass/models"

	"github.com/pocketbase/pocketbase/core"
)

func tierFromRecord(record *core.Record) *models.TicketTier {
	return &models.TicketTier{
		ID:              record.Id,
		EventID:         record.GetString("event_id"),
		Name:            record.GetString("name"),
		PriceMinorUnits: int64(record.GetInt("price_minor_units")),
		Currency:        record.GetString("currency"),
		TotalQuantity:   record.GetInt("total_quantity"),
		SoldQuantity:    record.GetInt("sold_quantity"),
		HeldQuantity:    record.GetInt("held_quantity"),
	}
}

func reservationFromRecord(record *core.Record) *models.Reservation {
	return &models.Reservation{
		ID:                 record.Id,
		UserID:             record.GetString("user_id"),
		TierID:             record.GetString("tier_id"),
		EventID:            record.GetString("event_id"),
		Quantity:           record.GetInt("quantity"),
		Status:             record.GetString("status"),
		ExternalPaymentRef: record.GetString("external_payment_ref"),
		IntentAmount:       int64(record.GetInt("intent_amount_minor_units")),
		CreatedAt:          record.GetDateTime("created").Time(),
		ExpiresAt:          record.GetDateTime("expires_at").Time(),
	}
}

func orderFromRecord(record *core.Record) *models.Order {
	var attendees []string
	// attendee_names is a json field; ignore a malformed value rather
	// than failing a read path.
	_ = record.UnmarshalJSONField("attendee_names", &attendees)

	return &models.Order{
		ID:                    record.Id,
		ReservationID:         record.GetString("reservation_id"),
		UserID:                record.GetString("user_id"),
		EventID:               record.GetString("event_id"),
		TierID:                record.GetString("tier_id"),
		Quantity:              record.GetInt("quantity"),
		TotalAmountMinorUnits: int64(record.GetInt("total_amount_minor_units")),
		Currency:              record.GetString("currency"),
		Status:                record.GetString("status"),
		BuyerContact: models.BuyerContact{
			Email: record.GetString("buyer_email"),
			Phone: record.GetString("buyer_phone"),
		},
		AttendeeNames:      attendees,
		ExternalPaymentRef: record.GetString("external_payment_ref"),
		CreatedAt:          record.GetDateTime("created").Time(),
	}
}

func ticketFromRecord(record *core.Record) *models.Ticket {
	return &models.Ticket{
		ID:           record.Id,
		OrderID:      record.GetString("order_id"),
		TierID:       record.GetString("tier_id"),
		EventID:      record.GetString("event_id"),
		AttendeeName: record.GetString("attendee_name"),
		Credential:   record.GetString("credential"),
		Status:       record.GetString("status"),
		CreatedAt:    record.GetDateTime("created").Time(),
	}
}
