package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventpass/config"
	"eventpass/internal/status"
	"eventpass/models"
	"eventpass/monitoring"

	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

// ReservationService turns purchase intents into time-boxed inventory
// holds. The reservation row in the database is authoritative; a Redis
// mirror with a matching TTL exists for cheap liveness checks and the
// metrics collector.
type ReservationService struct {
	app   core.App
	Redis *redis.Client
	inv   *InventoryService
	cfg   *config.Config
}

func NewReservationService(app core.App, redisClient *redis.Client, inv *InventoryService, cfg *config.Config) *ReservationService {
	return &ReservationService{
		app:   app,
		Redis: redisClient,
		inv:   inv,
		cfg:   cfg,
	}
}

func holdKey(reservationID string) string {
	return fmt.Sprintf("hold:%s", reservationID)
}

// CreateReservation holds quantity units of the tier and persists a
// pending reservation expiring after the configured hold window. The
// hold and the reservation row commit in one transaction, so a failed
// insert cannot strand held inventory.
func (s *ReservationService) CreateReservation(ctx context.Context, userID, tierID string, quantity int) (*models.Reservation, error) {
	if quantity < 1 || quantity > s.cfg.MaxPerOrder {
		return nil, status.ErrInvalidQuantity
	}

	var reservation *models.Reservation

	err := s.app.RunInTransaction(func(txApp core.App) error {
		if err := s.inv.TryHold(ctx, txApp, tierID, quantity); err != nil {
			if errors.Is(err, status.ErrInsufficientInventory) {
				return status.ErrSoldOut
			}
			return err
		}

		tierRecord, err := txApp.FindRecordById("ticket_tiers", tierID)
		if err != nil {
			return status.ErrTierNotFound
		}

		collection, err := txApp.FindCollectionByNameOrId("reservations")
		if err != nil {
			return err
		}

		record := core.NewRecord(collection)
		record.Set("user_id", userID)
		record.Set("tier_id", tierID)
		record.Set("event_id", tierRecord.GetString("event_id"))
		record.Set("quantity", quantity)
		record.Set("status", models.ReservationPending)
		record.Set("expires_at", time.Now().Add(s.cfg.HoldWindow).UTC())

		if err := txApp.Save(record); err != nil {
			return fmt.Errorf("reservation: save: %w", err)
		}

		reservation = reservationFromRecord(record)
		return nil
	})
	if err != nil {
		monitoring.TrackReservationOp("create", "failed")
		return nil, err
	}

	// Best-effort mirror; expiry enforcement stays with the reconciler.
	key := holdKey(reservation.ID)
	s.Redis.HSet(ctx, key, map[string]any{
		"tier_id":  reservation.TierID,
		"user_id":  reservation.UserID,
		"quantity": reservation.Quantity,
	})
	s.Redis.Expire(ctx, key, s.cfg.HoldWindow)

	monitoring.TrackReservationOp("create", "success")
	return reservation, nil
}

// GetReservation loads one reservation by id.
func (s *ReservationService) GetReservation(ctx context.Context, reservationID string) (*models.Reservation, error) {
	record, err := s.app.FindRecordById("reservations", reservationID)
	if err != nil {
		return nil, status.ErrReservationNotFound
	}
	return reservationFromRecord(record), nil
}

// AttachPaymentRef records the external payment intent and the exact
// total it was created for on a pending reservation. Attaching the
// same ref again is a no-op; attaching a different ref is a sequencing
// bug on the caller's side.
func (s *ReservationService) AttachPaymentRef(ctx context.Context, reservationID, ref string, amountMinorUnits int64) error {
	return s.app.RunInTransaction(func(txApp core.App) error {
		record, err := txApp.FindRecordById("reservations", reservationID)
		if err != nil {
			return status.ErrReservationNotFound
		}

		existing := record.GetString("external_payment_ref")
		if existing == ref {
			return nil
		}
		if existing != "" {
			return status.ErrReservationConflict
		}
		if record.GetString("status") != models.ReservationPending {
			return status.ErrInvalidState
		}

		record.Set("external_payment_ref", ref)
		record.Set("intent_amount_minor_units", amountMinorUnits)
		return txApp.Save(record)
	})
}

// FindByPaymentRef resolves the live reservation carrying an external
// payment reference. The partial unique index on the collection keeps
// this unambiguous.
func (s *ReservationService) FindByPaymentRef(ctx context.Context, ref string) (*models.Reservation, error) {
	if ref == "" {
		return nil, status.ErrReservationNotFound
	}

	record, err := s.app.FindFirstRecordByFilter("reservations",
		"external_payment_ref = {:ref} && (status = 'pending' || status = 'confirmed')",
		map[string]any{"ref": ref})
	if err != nil {
		return nil, status.ErrReservationNotFound
	}
	return reservationFromRecord(record), nil
}

// Cancel releases a pending reservation's hold and marks it cancelled.
func (s *ReservationService) Cancel(ctx context.Context, reservationID string) error {
	err := s.app.RunInTransaction(func(txApp core.App) error {
		record, err := txApp.FindRecordById("reservations", reservationID)
		if err != nil {
			return status.ErrReservationNotFound
		}

		moved, err := transitionReservation(ctx, txApp, reservationID, models.ReservationPending, models.ReservationCancelled)
		if err != nil {
			return err
		}
		if !moved {
			return status.ErrInvalidState
		}

		return s.inv.ReleaseHold(ctx, txApp, record.GetString("tier_id"), record.GetInt("quantity"))
	})
	if err != nil {
		monitoring.TrackReservationOp("cancel", "failed")
		return err
	}

	s.Redis.Del(ctx, holdKey(reservationID))
	monitoring.TrackReservationOp("cancel", "success")

	slog.Info("reservation cancelled", "reservation_id", reservationID)
	return nil
}

// transitionReservation flips status from one value to another as a
// single guarded UPDATE and reports whether the row actually moved.
// Both the issuer and the reconciler route their state changes through
// this, so a reservation can be confirmed or expired but never both.
func transitionReservation(ctx context.Context, app core.App, reservationID, from, to string) (bool, error) {
	result, err := app.DB().NewQuery(`
		UPDATE reservations
		SET status = {:to}
		WHERE id = {:id} AND status = {:from}
	`).Bind(map[string]any{"id": reservationID, "from": from, "to": to}).WithContext(ctx).Execute()
	if err != nil {
		return false, fmt.Errorf("reservation: transition %s->%s: %w", from, to, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
