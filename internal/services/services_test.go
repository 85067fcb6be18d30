package services

import (
	"testing"
	"time"

	"eventpass/config"
	_ "eventpass/migrations"

	"github.com/go-redis/redismock/v9"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tests"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// newTestApp boots an isolated app instance with the collections from
// the registered migrations applied.
func newTestApp(t *testing.T) *tests.TestApp {
	app, err := tests.NewTestApp()
	require.NoError(t, err)
	t.Cleanup(app.Cleanup)
	return app
}

// newTestRedis returns a mock Redis client. The services treat Redis
// as best effort, so tests that don't assert on Redis traffic can use
// it without registering expectations.
func newTestRedis(t *testing.T) *redis.Client {
	db, _ := redismock.NewClientMock()
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		HoldWindow:   15 * time.Minute,
		PaymentGrace: 10 * time.Minute,
		MaxPerOrder:  10,
	}
}

func createTier(t *testing.T, app core.App, total int, priceMinorUnits int64) *core.Record {
	collection, err := app.FindCollectionByNameOrId("ticket_tiers")
	require.NoError(t, err)

	record := core.NewRecord(collection)
	record.Set("event_id", "evt_test")
	record.Set("name", "General Admission")
	record.Set("price_minor_units", priceMinorUnits)
	record.Set("currency", "INR")
	record.Set("total_quantity", total)
	record.Set("sold_quantity", 0)
	record.Set("held_quantity", 0)
	require.NoError(t, app.Save(record))
	return record
}

func tierCounters(t *testing.T, app core.App, tierID string) (sold, held int) {
	record, err := app.FindRecordById("ticket_tiers", tierID)
	require.NoError(t, err)
	return record.GetInt("sold_quantity"), record.GetInt("held_quantity")
}

func reservationStatus(t *testing.T, app core.App, reservationID string) string {
	record, err := app.FindRecordById("reservations", reservationID)
	require.NoError(t, err)
	return record.GetString("status")
}

func backdateExpiry(t *testing.T, app core.App, reservationID string, expiresAt time.Time) {
	record, err := app.FindRecordById("reservations", reservationID)
	require.NoError(t, err)
	record.Set("expires_at", expiresAt.UTC())
	require.NoError(t, app.Save(record))
}
