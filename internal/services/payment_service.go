package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"eventpass/internal/services/gateway"
	"eventpass/internal/status"
	"eventpass/models"

	"github.com/redis/go-redis/v9"
)

// verifyGuardTTL bounds how long a duplicate-delivery guard key lives.
const verifyGuardTTL = 2 * time.Minute

// IntentResponse is what the checkout page needs to open the hosted
// payment widget, or the already-issued order when the total is zero.
type IntentResponse struct {
	Free     bool          `json:"free"`
	OrderID  string        `json:"order_id,omitempty"`
	KeyID    string        `json:"key_id,omitempty"`
	Amount   int64         `json:"amount"`
	Currency string        `json:"currency"`
	Quote    Quote         `json:"quote"`
	Order    *models.Order `json:"order,omitempty"`
}

// VerifyRequest is the signed confirmation posted back by checkout
// after the gateway collects payment.
type VerifyRequest struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`

	Contact       models.BuyerContact
	AttendeeNames []string
}

// PaymentService bridges reservations to the external payment gateway:
// it creates intents for a reservation's computed total and turns
// verified confirmations into issued orders.
type PaymentService struct {
	Redis        *redis.Client
	gw           gateway.PaymentGateway
	reservations *ReservationService
	inventory    *InventoryService
	issuer       *IssuerService
	pricing      *Pricing
}

func NewPaymentService(redisClient *redis.Client, gw gateway.PaymentGateway, reservations *ReservationService,
	inventory *InventoryService, issuer *IssuerService, pricing *Pricing) *PaymentService {
	return &PaymentService{
		Redis:        redisClient,
		gw:           gw,
		reservations: reservations,
		inventory:    inventory,
		issuer:       issuer,
		pricing:      pricing,
	}
}

// CreateIntent prices a pending reservation and creates the external
// payment order for it. A zero total skips the gateway entirely and
// issues immediately with a synthetic zero-amount verified payment.
// The gateway call happens after the hold is already committed, so a
// slow gateway can only tie up held units, never corrupt counts.
func (s *PaymentService) CreateIntent(ctx context.Context, reservationID string, details OrderDetails) (*IntentResponse, error) {
	reservation, err := s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if reservation.Status != models.ReservationPending {
		return nil, status.ErrInvalidState
	}
	if reservation.Expired(time.Now()) {
		return nil, status.ErrInvalidState
	}

	tier, err := s.inventory.GetTier(ctx, reservation.TierID)
	if err != nil {
		return nil, err
	}

	quote := s.pricing.Quote(tier.PriceMinorUnits, reservation.Quantity)

	if quote.Total == 0 {
		order, err := s.issuer.Issue(ctx, reservationID, models.VerifiedPayment{
			Amount:   0,
			Currency: tier.Currency,
		}, details)
		if err != nil {
			return nil, err
		}

		slog.Info("free ticket issued without gateway intent",
			"reservation_id", reservationID, "order_id", order.ID)

		return &IntentResponse{
			Free:     true,
			Amount:   0,
			Currency: tier.Currency,
			Quote:    quote,
			Order:    order,
		}, nil
	}

	gwOrder, err := s.gw.CreateOrder(ctx, gateway.CreateOrderRequest{
		AmountMinorUnits: quote.Total,
		Currency:         tier.Currency,
		Receipt:          reservationID,
		IdempotencyKey:   fmt.Sprintf("resv-%s", reservationID),
		Notes: map[string]string{
			"reservation_id": reservationID,
			"tier_id":        reservation.TierID,
			"event_id":       reservation.EventID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("payment: create intent: %w", err)
	}

	if err := s.reservations.AttachPaymentRef(ctx, reservationID, gwOrder.ID, quote.Total); err != nil {
		return nil, err
	}

	return &IntentResponse{
		OrderID:  gwOrder.ID,
		KeyID:    s.gw.KeyID(),
		Amount:   quote.Total,
		Currency: tier.Currency,
		Quote:    quote,
	}, nil
}

// VerifyAndIssue validates the gateway signature and hands the
// confirmation to the issuer. A repeated delivery for an already
// confirmed reservation answers with the original order.
func (s *PaymentService) VerifyAndIssue(ctx context.Context, req VerifyRequest) (*models.Order, error) {
	if !s.gw.VerifyPaymentSignature(req.OrderID, req.PaymentID, req.Signature) {
		slog.Warn("payment signature rejected", "intent_id", req.OrderID)
		return nil, status.ErrPaymentVerificationFailed
	}

	reservation, err := s.reservations.FindByPaymentRef(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	// Duplicate delivery short-circuit before any write work.
	if reservation.Status == models.ReservationConfirmed {
		return s.issuer.FindOrderByReservation(ctx, reservation.ID)
	}

	// A guard key serializes concurrent deliveries of the same intent
	// so only one reaches the issuance transaction; the loser reads
	// the winner's order. The transaction itself stays authoritative.
	guardKey := fmt.Sprintf("verify:%s", req.OrderID)
	acquired, err := s.Redis.SetNX(ctx, guardKey, req.PaymentID, verifyGuardTTL).Result()
	if err != nil {
		slog.Warn("verify guard unavailable, relying on transaction", "error", err)
		acquired = true
	}
	if !acquired {
		if order, err := s.issuer.FindOrderByReservation(ctx, reservation.ID); err == nil {
			return order, nil
		}
		return nil, status.ErrIssuanceFailed
	}

	// The amount the gateway charged is the amount the intent was
	// created for; the issuer compares it against the recomputed total
	// and refuses on any drift.
	order, err := s.issuer.Issue(ctx, reservation.ID, models.VerifiedPayment{
		IntentID:  req.OrderID,
		PaymentID: req.PaymentID,
		Amount:    reservation.IntentAmount,
	}, OrderDetails{
		Contact:       req.Contact,
		AttendeeNames: req.AttendeeNames,
	})
	if err != nil {
		// Let a retry of the same confirmation attempt issuance again.
		s.Redis.Del(ctx, guardKey)
		return nil, err
	}
	return order, nil
}
