package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"eventpass/config"
	"eventpass/models"
	"eventpass/monitoring"

	"github.com/hibiken/asynq"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
	"github.com/redis/go-redis/v9"
)

// TypeReservationSweep is the asynq task type for the periodic sweep.
const TypeReservationSweep = "reconciler:sweep"

// sweepBatchSize bounds how many reservations one sweep pass touches.
const sweepBatchSize = 500

// SweepReport summarizes one reconciler pass.
type SweepReport struct {
	Expired   int `json:"expired"`
	Abandoned int `json:"abandoned"`
}

// ReconcilerService is the only path by which held inventory returns
// to availability without an explicit cancel or a completed issuance.
// Each reservation is expired in its own transaction through the same
// guarded status transition the issuer uses, so a sweep and an
// in-flight issue can never both win.
type ReconcilerService struct {
	app   core.App
	Redis *redis.Client
	inv   *InventoryService
	cfg   *config.Config
}

func NewReconcilerService(app core.App, redisClient *redis.Client, inv *InventoryService, cfg *config.Config) *ReconcilerService {
	return &ReconcilerService{
		app:   app,
		Redis: redisClient,
		inv:   inv,
		cfg:   cfg,
	}
}

// HandleSweepTask adapts Sweep to the asynq worker signature.
func (s *ReconcilerService) HandleSweepTask(ctx context.Context, _ *asynq.Task) error {
	report, err := s.Sweep(ctx)
	if err != nil {
		return err
	}
	if report.Expired > 0 || report.Abandoned > 0 {
		slog.Info("reservation sweep finished",
			"expired", report.Expired, "abandoned", report.Abandoned)
	}
	return nil
}

// Sweep expires stale pending reservations and releases their holds.
// Two populations are swept: holds past their expiry, and holds whose
// payment intent has been attached longer than the grace period with
// no verified payment arriving (abandoned checkouts).
func (s *ReconcilerService) Sweep(ctx context.Context) (SweepReport, error) {
	started := time.Now()
	report := SweepReport{}

	now := types.NowDateTime()

	expired, err := s.app.FindRecordsByFilter("reservations",
		"status = 'pending' && expires_at <= {:now}",
		"+expires_at", sweepBatchSize, 0,
		map[string]any{"now": now.String()})
	if err != nil {
		return report, fmt.Errorf("reconciler: list expired: %w", err)
	}

	for _, record := range expired {
		moved, err := s.expireOne(ctx, record)
		if err != nil {
			slog.Error("failed to expire reservation",
				"reservation_id", record.Id, "error", err)
			continue
		}
		if moved {
			report.Expired++
		}
	}

	cutoff := now.Time().Add(-s.cfg.PaymentGrace)
	abandoned, err := s.app.FindRecordsByFilter("reservations",
		"status = 'pending' && external_payment_ref != '' && updated <= {:cutoff}",
		"+updated", sweepBatchSize, 0,
		map[string]any{"cutoff": cutoff.UTC().Format(types.DefaultDateLayout)})
	if err != nil {
		return report, fmt.Errorf("reconciler: list abandoned: %w", err)
	}

	for _, record := range abandoned {
		moved, err := s.expireOne(ctx, record)
		if err != nil {
			slog.Error("failed to expire abandoned checkout",
				"reservation_id", record.Id, "error", err)
			continue
		}
		if moved {
			report.Abandoned++
		}
	}

	monitoring.TrackSweep(time.Since(started), report.Expired+report.Abandoned)
	return report, nil
}

// expireOne releases a reservation's hold and marks it expired in one
// transaction, reporting whether the row actually moved. The guarded
// transition makes the pass a no-op when an issue confirmed the
// reservation between listing and sweeping.
func (s *ReconcilerService) expireOne(ctx context.Context, record *core.Record) (bool, error) {
	tierID := record.GetString("tier_id")
	quantity := record.GetInt("quantity")

	var moved bool
	err := s.app.RunInTransaction(func(txApp core.App) error {
		var err error
		moved, err = transitionReservation(ctx, txApp, record.Id, models.ReservationPending, models.ReservationExpired)
		if err != nil {
			return err
		}
		if !moved {
			// Confirmed, cancelled, or already expired since listing.
			return nil
		}
		return s.inv.ReleaseHold(ctx, txApp, tierID, quantity)
	})
	if err != nil {
		return false, err
	}

	if moved {
		s.Redis.Del(ctx, holdKey(record.Id))
	}
	return moved, nil
}
