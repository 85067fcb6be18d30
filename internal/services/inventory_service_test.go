package services

import (
	"context"
	"sync"
	"testing"

	"eventpass/internal/status"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryService_TryHold_ConcurrentNeverOversells(t *testing.T) {
	app := newTestApp(t)
	inv := NewInventoryService(app)
	ctx := context.Background()

	const capacity = 5
	const attempts = 20

	tier := createTier(t, app, capacity, 10000)

	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- inv.TryHold(ctx, app, tier.Id, 1)
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, status.ErrInsufficientInventory)
		}
	}

	assert.Equal(t, capacity, succeeded)

	sold, held := tierCounters(t, app, tier.Id)
	assert.Equal(t, 0, sold)
	assert.Equal(t, capacity, held)
}

func TestInventoryService_TryHold_UnknownTier(t *testing.T) {
	app := newTestApp(t)
	inv := NewInventoryService(app)

	err := inv.TryHold(context.Background(), app, "missing", 1)
	assert.ErrorIs(t, err, status.ErrTierNotFound)
}

func TestInventoryService_TryHold_RejectsNonPositiveQuantity(t *testing.T) {
	app := newTestApp(t)
	inv := NewInventoryService(app)
	tier := createTier(t, app, 10, 10000)

	assert.ErrorIs(t, inv.TryHold(context.Background(), app, tier.Id, 0), status.ErrInvalidQuantity)
	assert.ErrorIs(t, inv.TryHold(context.Background(), app, tier.Id, -3), status.ErrInvalidQuantity)
}

func TestInventoryService_ReleaseHold_ClampedAtZero(t *testing.T) {
	app := newTestApp(t)
	inv := NewInventoryService(app)
	ctx := context.Background()

	tier := createTier(t, app, 10, 10000)
	require.NoError(t, inv.TryHold(ctx, app, tier.Id, 2))

	// Releasing more than held clamps instead of going negative.
	require.NoError(t, inv.ReleaseHold(ctx, app, tier.Id, 5))

	sold, held := tierCounters(t, app, tier.Id)
	assert.Equal(t, 0, sold)
	assert.Equal(t, 0, held)

	// The full capacity is available again.
	assert.NoError(t, inv.TryHold(ctx, app, tier.Id, 10))
}

func TestInventoryService_CommitSale_RequiresMatchingHold(t *testing.T) {
	app := newTestApp(t)
	inv := NewInventoryService(app)
	ctx := context.Background()

	tier := createTier(t, app, 10, 10000)

	err := inv.CommitSale(ctx, app, tier.Id, 2)
	assert.ErrorIs(t, err, status.ErrInsufficientInventory)

	sold, held := tierCounters(t, app, tier.Id)
	assert.Equal(t, 0, sold)
	assert.Equal(t, 0, held)
}

func TestInventoryService_CommitSale_MovesHeldToSold(t *testing.T) {
	app := newTestApp(t)
	inv := NewInventoryService(app)
	ctx := context.Background()

	tier := createTier(t, app, 10, 10000)
	require.NoError(t, inv.TryHold(ctx, app, tier.Id, 3))
	require.NoError(t, inv.CommitSale(ctx, app, tier.Id, 3))

	sold, held := tierCounters(t, app, tier.Id)
	assert.Equal(t, 3, sold)
	assert.Equal(t, 0, held)

	available, err := inv.AvailableCount(ctx, tier.Id)
	require.NoError(t, err)
	assert.Equal(t, 7, available)
}
