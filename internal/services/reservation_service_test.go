package services

import (
	"context"
	"testing"
	"time"

	"eventpass/internal/status"
	"eventpass/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReservationService(t *testing.T) (*ReservationService, *InventoryService) {
	app := newTestApp(t)
	inv := NewInventoryService(app)
	svc := NewReservationService(app, newTestRedis(t), inv, testConfig())
	return svc, inv
}

func TestReservationService_CreateReservation(t *testing.T) {
	svc, _ := newTestReservationService(t)
	ctx := context.Background()

	tier := createTier(t, svc.app, 10, 10000)

	reservation, err := svc.CreateReservation(ctx, "user1", tier.Id, 2)
	require.NoError(t, err)

	assert.Equal(t, "user1", reservation.UserID)
	assert.Equal(t, tier.Id, reservation.TierID)
	assert.Equal(t, 2, reservation.Quantity)
	assert.Equal(t, models.ReservationPending, reservation.Status)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), reservation.ExpiresAt, time.Minute)

	sold, held := tierCounters(t, svc.app, tier.Id)
	assert.Equal(t, 0, sold)
	assert.Equal(t, 2, held)
}

func TestReservationService_CreateReservation_InvalidQuantity(t *testing.T) {
	svc, _ := newTestReservationService(t)
	ctx := context.Background()

	tier := createTier(t, svc.app, 10, 10000)

	_, err := svc.CreateReservation(ctx, "user1", tier.Id, 0)
	assert.ErrorIs(t, err, status.ErrInvalidQuantity)

	// MaxPerOrder is 10 in the test config.
	_, err = svc.CreateReservation(ctx, "user1", tier.Id, 11)
	assert.ErrorIs(t, err, status.ErrInvalidQuantity)
}

func TestReservationService_CreateReservation_SoldOut(t *testing.T) {
	svc, _ := newTestReservationService(t)
	ctx := context.Background()

	tier := createTier(t, svc.app, 2, 10000)

	_, err := svc.CreateReservation(ctx, "user1", tier.Id, 3)
	assert.ErrorIs(t, err, status.ErrSoldOut)

	// The failed attempt must leave no hold and no reservation row.
	sold, held := tierCounters(t, svc.app, tier.Id)
	assert.Equal(t, 0, sold)
	assert.Equal(t, 0, held)

	rows, err := svc.app.FindRecordsByFilter("reservations",
		"tier_id = {:t}", "", 0, 0, map[string]any{"t": tier.Id})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReservationService_AttachPaymentRef_Idempotent(t *testing.T) {
	svc, _ := newTestReservationService(t)
	ctx := context.Background()

	tier := createTier(t, svc.app, 10, 10000)
	reservation, err := svc.CreateReservation(ctx, "user1", tier.Id, 2)
	require.NoError(t, err)

	require.NoError(t, svc.AttachPaymentRef(ctx, reservation.ID, "gw_order_1", 20472))

	// Same ref again is a no-op.
	assert.NoError(t, svc.AttachPaymentRef(ctx, reservation.ID, "gw_order_1", 20472))

	// A different ref on the same reservation is a conflict.
	assert.ErrorIs(t, svc.AttachPaymentRef(ctx, reservation.ID, "gw_order_2", 20472),
		status.ErrReservationConflict)

	loaded, err := svc.GetReservation(ctx, reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, "gw_order_1", loaded.ExternalPaymentRef)
	assert.Equal(t, int64(20472), loaded.IntentAmount)
}

func TestReservationService_AttachPaymentRef_RejectsNonPending(t *testing.T) {
	svc, _ := newTestReservationService(t)
	ctx := context.Background()

	tier := createTier(t, svc.app, 10, 10000)
	reservation, err := svc.CreateReservation(ctx, "user1", tier.Id, 1)
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(ctx, reservation.ID))

	assert.ErrorIs(t, svc.AttachPaymentRef(ctx, reservation.ID, "gw_order_1", 10236),
		status.ErrInvalidState)
}

func TestReservationService_FindByPaymentRef(t *testing.T) {
	svc, _ := newTestReservationService(t)
	ctx := context.Background()

	tier := createTier(t, svc.app, 10, 10000)
	reservation, err := svc.CreateReservation(ctx, "user1", tier.Id, 2)
	require.NoError(t, err)
	require.NoError(t, svc.AttachPaymentRef(ctx, reservation.ID, "gw_order_1", 20472))

	found, err := svc.FindByPaymentRef(ctx, "gw_order_1")
	require.NoError(t, err)
	assert.Equal(t, reservation.ID, found.ID)

	_, err = svc.FindByPaymentRef(ctx, "gw_order_unknown")
	assert.ErrorIs(t, err, status.ErrReservationNotFound)

	_, err = svc.FindByPaymentRef(ctx, "")
	assert.ErrorIs(t, err, status.ErrReservationNotFound)
}

func TestReservationService_Cancel(t *testing.T) {
	svc, inv := newTestReservationService(t)
	ctx := context.Background()

	tier := createTier(t, svc.app, 10, 10000)
	reservation, err := svc.CreateReservation(ctx, "user1", tier.Id, 4)
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, reservation.ID))
	assert.Equal(t, models.ReservationCancelled, reservationStatus(t, svc.app, reservation.ID))

	sold, held := tierCounters(t, svc.app, tier.Id)
	assert.Equal(t, 0, sold)
	assert.Equal(t, 0, held)

	// Cancelling again must not release the hold a second time.
	assert.ErrorIs(t, svc.Cancel(ctx, reservation.ID), status.ErrInvalidState)

	// The full capacity is back and exactly once.
	assert.NoError(t, inv.TryHold(ctx, svc.app, tier.Id, 10))
}

func TestTransitionReservation_ExactlyOneWinner(t *testing.T) {
	svc, _ := newTestReservationService(t)
	ctx := context.Background()

	tier := createTier(t, svc.app, 10, 10000)
	reservation, err := svc.CreateReservation(ctx, "user1", tier.Id, 1)
	require.NoError(t, err)

	moved, err := transitionReservation(ctx, svc.app, reservation.ID,
		models.ReservationPending, models.ReservationConfirmed)
	require.NoError(t, err)
	assert.True(t, moved)

	// The losing transition sees zero rows and backs off.
	moved, err = transitionReservation(ctx, svc.app, reservation.ID,
		models.ReservationPending, models.ReservationExpired)
	require.NoError(t, err)
	assert.False(t, moved)

	assert.Equal(t, models.ReservationConfirmed, reservationStatus(t, svc.app, reservation.ID))
}
