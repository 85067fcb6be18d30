package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventpass/internal/status"
	"eventpass/models"
	"eventpass/monitoring"
	"eventpass/utils"

	"github.com/pocketbase/pocketbase/core"
	pubnub "github.com/pubnub/go"
	"github.com/redis/go-redis/v9"
)

// OrderDetails is the buyer-supplied part of an order, collected by
// checkout and delivered alongside payment verification.
type OrderDetails struct {
	Contact       models.BuyerContact
	AttendeeNames []string
}

// IssuerService converts a verified payment on a pending reservation
// into a paid order plus one ticket per unit. Everything happens in a
// single database transaction: the sale commit on the ledger, the
// order row, the ticket rows, and the reservation's confirmed flip.
type IssuerService struct {
	app     core.App
	Redis   *redis.Client
	inv     *InventoryService
	pricing *Pricing
	pubnub  *pubnub.PubNub
}

func NewIssuerService(app core.App, redisClient *redis.Client, inv *InventoryService, pricing *Pricing, pn *pubnub.PubNub) *IssuerService {
	return &IssuerService{
		app:     app,
		Redis:   redisClient,
		inv:     inv,
		pricing: pricing,
		pubnub:  pn,
	}
}

// FindOrderByReservation returns the order issued for a reservation,
// or ErrOrderNotFound.
func (s *IssuerService) FindOrderByReservation(ctx context.Context, reservationID string) (*models.Order, error) {
	record, err := s.app.FindFirstRecordByFilter("orders",
		"reservation_id = {:rid}", map[string]any{"rid": reservationID})
	if err != nil {
		return nil, status.ErrOrderNotFound
	}
	return orderFromRecord(record), nil
}

// GetOrder loads one order by id.
func (s *IssuerService) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	record, err := s.app.FindRecordById("orders", orderID)
	if err != nil {
		return nil, status.ErrOrderNotFound
	}
	return orderFromRecord(record), nil
}

// TicketsForOrder returns the tickets belonging to an order.
func (s *IssuerService) TicketsForOrder(ctx context.Context, orderID string) ([]*models.Ticket, error) {
	records, err := s.app.FindRecordsByFilter("tickets",
		"order_id = {:oid}", "+created", 0, 0, map[string]any{"oid": orderID})
	if err != nil {
		return nil, err
	}

	tickets := make([]*models.Ticket, 0, len(records))
	for _, record := range records {
		tickets = append(tickets, ticketFromRecord(record))
	}
	return tickets, nil
}

// Issue finalizes a purchase. Calling it again for the same
// reservation returns the already-issued order without touching the
// ledger. The reservation must still be pending and unexpired at the
// moment the transaction runs, so a sweep that won the race a moment
// earlier makes this fail with ErrInvalidState rather than double
// spending the hold.
func (s *IssuerService) Issue(ctx context.Context, reservationID string, verified models.VerifiedPayment, details OrderDetails) (*models.Order, error) {
	started := time.Now()

	// Fast idempotent path outside the write transaction.
	if existing, err := s.FindOrderByReservation(ctx, reservationID); err == nil {
		return existing, nil
	}

	var order *models.Order

	txErr := s.app.RunInTransaction(func(txApp core.App) error {
		resRecord, err := txApp.FindRecordById("reservations", reservationID)
		if err != nil {
			return status.ErrReservationNotFound
		}

		// Re-check idempotency under the transaction: a concurrent
		// duplicate delivery may have confirmed the reservation since
		// the fast path above.
		if resRecord.GetString("status") == models.ReservationConfirmed {
			existing, err := txApp.FindFirstRecordByFilter("orders",
				"reservation_id = {:rid}", map[string]any{"rid": reservationID})
			if err != nil {
				return fmt.Errorf("issuer: confirmed reservation without order: %w", status.ErrIssuanceFailed)
			}
			order = orderFromRecord(existing)
			return nil
		}

		if resRecord.GetString("status") != models.ReservationPending {
			return status.ErrInvalidState
		}
		if resRecord.GetDateTime("expires_at").Time().Before(time.Now()) {
			return status.ErrInvalidState
		}

		tierID := resRecord.GetString("tier_id")
		quantity := resRecord.GetInt("quantity")

		tierRecord, err := txApp.FindRecordById("ticket_tiers", tierID)
		if err != nil {
			return status.ErrTierNotFound
		}

		quote := s.pricing.Quote(int64(tierRecord.GetInt("price_minor_units")), quantity)
		if verified.Amount != quote.Total {
			slog.Warn("payment amount mismatch, refusing issuance",
				"reservation_id", reservationID,
				"expected", quote.Total,
				"got", verified.Amount)
			return status.ErrAmountMismatch
		}

		if len(details.AttendeeNames) != quantity {
			return status.ErrAttendeeCount
		}

		if err := s.inv.CommitSale(ctx, txApp, tierID, quantity); err != nil {
			// The hold guarantees this cannot fail; if it does, the
			// ledger has drifted and someone needs to look at it.
			slog.Error("ledger sale commit failed under an active hold",
				"reservation_id", reservationID,
				"tier_id", tierID,
				"quantity", quantity,
				"error", err)
			return fmt.Errorf("issuer: sale commit: %w", status.ErrIssuanceFailed)
		}

		ordersCollection, err := txApp.FindCollectionByNameOrId("orders")
		if err != nil {
			return err
		}

		currency := tierRecord.GetString("currency")
		if verified.Currency != "" && verified.Currency != currency {
			return status.ErrAmountMismatch
		}

		orderRecord := core.NewRecord(ordersCollection)
		orderRecord.Set("reservation_id", reservationID)
		orderRecord.Set("user_id", resRecord.GetString("user_id"))
		orderRecord.Set("event_id", resRecord.GetString("event_id"))
		orderRecord.Set("tier_id", tierID)
		orderRecord.Set("quantity", quantity)
		orderRecord.Set("total_amount_minor_units", quote.Total)
		orderRecord.Set("currency", currency)
		orderRecord.Set("status", models.OrderPaid)
		orderRecord.Set("buyer_email", details.Contact.Email)
		orderRecord.Set("buyer_phone", details.Contact.Phone)
		orderRecord.Set("attendee_names", details.AttendeeNames)
		orderRecord.Set("external_payment_ref", verified.IntentID)

		if err := txApp.Save(orderRecord); err != nil {
			return fmt.Errorf("issuer: save order: %w", status.ErrIssuanceFailed)
		}

		ticketsCollection, err := txApp.FindCollectionByNameOrId("tickets")
		if err != nil {
			return err
		}

		for _, attendee := range details.AttendeeNames {
			credential, err := utils.GenerateCredential()
			if err != nil {
				return fmt.Errorf("issuer: credential: %w", status.ErrIssuanceFailed)
			}

			ticketRecord := core.NewRecord(ticketsCollection)
			ticketRecord.Set("order_id", orderRecord.Id)
			ticketRecord.Set("tier_id", tierID)
			ticketRecord.Set("event_id", resRecord.GetString("event_id"))
			ticketRecord.Set("attendee_name", attendee)
			ticketRecord.Set("credential", credential)
			ticketRecord.Set("status", models.TicketActive)

			if err := txApp.Save(ticketRecord); err != nil {
				// The unique credential index turns a collision into a
				// transaction abort instead of a silent reuse.
				slog.Error("ticket insert failed during issuance",
					"order_id", orderRecord.Id, "error", err)
				return fmt.Errorf("issuer: save ticket: %w", status.ErrIssuanceFailed)
			}
		}

		moved, err := transitionReservation(ctx, txApp, reservationID, models.ReservationPending, models.ReservationConfirmed)
		if err != nil {
			return err
		}
		if !moved {
			return fmt.Errorf("issuer: reservation moved underneath issuance: %w", status.ErrIssuanceFailed)
		}

		order = orderFromRecord(orderRecord)
		order.AttendeeNames = details.AttendeeNames
		return nil
	})
	if txErr != nil {
		monitoring.TrackIssuance("failed", time.Since(started))
		return nil, txErr
	}

	// Post-commit cleanup and notification, both best effort.
	s.Redis.Del(ctx, holdKey(reservationID))
	monitoring.TrackIssuance("success", time.Since(started))
	monitoring.TrackTicketsSold(order.TierID, order.Quantity)
	s.notifyBuyer(order)

	slog.Info("tickets issued",
		"order_id", order.ID,
		"reservation_id", reservationID,
		"quantity", order.Quantity,
		"total_minor_units", order.TotalAmountMinorUnits)

	return order, nil
}

func (s *IssuerService) notifyBuyer(order *models.Order) {
	if s.pubnub == nil {
		return
	}

	channel := fmt.Sprintf("user-%s", order.UserID)
	s.pubnub.Publish().
		Channel(channel).
		Message(map[string]any{
			"type":     "ticket_issued",
			"order_id": order.ID,
			"event_id": order.EventID,
			"quantity": order.Quantity,
		}).
		Execute()
}

// IsRetryable reports whether an issuance error is safe to retry with
// the same arguments.
func IsRetryable(err error) bool {
	return errors.Is(err, status.ErrIssuanceFailed)
}
