package monitoring

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	reservationOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservation_operations_total",
			Help: "Reservation operations by outcome",
		},
		[]string{"operation", "status"},
	)

	activeHolds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "inventory_active_holds_total",
			Help: "Reservation holds currently mirrored in Redis",
		},
	)

	ticketsSold = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_sold_total",
			Help: "Tickets sold per tier",
		},
		[]string{"tier_id"},
	)

	issuanceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "issuance_duration_seconds",
			Help:    "Duration of order issuance transactions",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	sweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reconciler_sweep_duration_seconds",
			Help:    "Duration of reconciler sweep passes",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		},
	)

	sweptReservations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reconciler_swept_reservations_total",
			Help: "Reservations expired by the reconciler",
		},
	)
)

// TrackReservationOp records a reservation operation outcome.
func TrackReservationOp(operation, status string) {
	reservationOps.WithLabelValues(operation, status).Inc()
}

// TrackIssuance records one issuance attempt.
func TrackIssuance(status string, duration time.Duration) {
	issuanceDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// TrackTicketsSold records finalized ticket sales.
func TrackTicketsSold(tierID string, quantity int) {
	ticketsSold.WithLabelValues(tierID).Add(float64(quantity))
}

// TrackSweep records one reconciler pass.
func TrackSweep(duration time.Duration, swept int) {
	sweepDuration.Observe(duration.Seconds())
	sweptReservations.Add(float64(swept))
}

// Monitor periodically samples the Redis hold mirrors so dashboards
// can see how much inventory is tied up in carts right now.
type Monitor struct {
	redis *redis.Client
	stop  chan struct{}
}

func NewMonitor(redisClient *redis.Client) *Monitor {
	monitor := &Monitor{
		redis: redisClient,
		stop:  make(chan struct{}),
	}

	go monitor.collectMetrics()

	return monitor
}

// Stop ends the sampling goroutine.
func (m *Monitor) Stop() {
	close(m.stop)
}

func (m *Monitor) collectMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.collectHoldMetrics(context.Background())
		case <-m.stop:
			return
		}
	}
}

func (m *Monitor) collectHoldMetrics(ctx context.Context) {
	var count int64

	iter := m.redis.Scan(ctx, 0, "hold:*", 500).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return
	}

	activeHolds.Set(float64(count))
}
