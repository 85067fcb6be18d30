package cmd

import (
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventpass/config"
	"eventpass/internal/handlers"
	"eventpass/internal/services"
	"eventpass/internal/services/gateway"
	"eventpass/monitoring"
	"eventpass/security"
	"eventpass/utils"

	"github.com/hibiken/asynq"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	// Initialize PubNub for buyer notifications
	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey

	pn := pubnub.NewPubNub(pnConfig)

	// Initialize payment gateway client
	gw := gateway.NewClient(&gateway.ClientConfig{
		BaseURL:   cfg.GatewayBaseURL,
		KeyID:     cfg.GatewayKeyID,
		KeySecret: cfg.GatewayKeySecret,
		Timeout:   cfg.GatewayTimeout,
	})

	// Initialize services
	inventory := services.NewInventoryService(app)
	pricing := services.NewPricing(cfg.FeeRate, cfg.TaxRate)
	reservations := services.NewReservationService(app, redisClient, inventory, cfg)
	issuer := services.NewIssuerService(app, redisClient, inventory, pricing, pn)
	payments := services.NewPaymentService(redisClient, gw, reservations, inventory, issuer, pricing)
	reconciler := services.NewReconcilerService(app, redisClient, inventory, cfg)

	// Initialize handlers
	reservationHandler := handlers.NewReservationHandler(app, reservations, payments, inventory)
	paymentHandler := handlers.NewPaymentHandler(app, payments)
	ticketHandler := handlers.NewTicketHandler(app, issuer)
	adminHandler := handlers.NewAdminHandler(app, reconciler, redisClient)

	rateLimiter := security.NewRateLimiter(redisClient, cfg.ReservationLimit, time.Minute)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Reconciler sweeps run as an asynq periodic task so a crashed
	// process never silently stops releasing expired holds.
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(services.TypeReservationSweep, reconciler.HandleSweepTask)

	worker := asynq.NewServer(redisOpt, asynq.Config{Concurrency: 1})
	go func() {
		if err := worker.Run(mux); err != nil {
			log.Fatalf("asynq worker failed: %v", err)
		}
	}()

	scheduler := asynq.NewScheduler(redisOpt, nil)
	scheduler.Register(cfg.SweepCronSpec, asynq.NewTask(services.TypeReservationSweep, nil))
	go func() {
		if err := scheduler.Run(); err != nil {
			log.Fatalf("asynq scheduler failed: %v", err)
		}
	}()

	// Metrics
	var monitor *monitoring.Monitor
	if cfg.EnableMetrics {
		monitor = monitoring.NewMonitor(redisClient)

		go func() {
			metricsMux := http.NewServeMux()
			metricsMux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(":"+cfg.MetricsPort, metricsMux); err != nil {
				slog.Error("metrics server stopped", "error", err)
			}
		}()
	}

	// Setup graceful shutdown
	go handleShutdown(worker, scheduler, monitor)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Reservation endpoints
		e.Router.POST("/api/v1/reservations", reservationHandler.CreateReservation).
			BindFunc(rateLimiter.Middleware("reserve"))
		e.Router.GET("/api/v1/reservations/{id}", reservationHandler.GetReservation)
		e.Router.POST("/api/v1/reservations/{id}/cancel", reservationHandler.CancelReservation)
		e.Router.POST("/api/v1/reservations/{id}/payment-intent", reservationHandler.CreatePaymentIntent)

		// Payment endpoints
		e.Router.POST("/api/v1/payments/verify", paymentHandler.VerifyPayment)

		// Storefront reads
		e.Router.GET("/api/v1/tiers/{tierId}/availability", reservationHandler.GetTierAvailability)
		e.Router.GET("/api/v1/tickets", ticketHandler.GetMyTickets)
		e.Router.GET("/api/v1/orders/{id}", ticketHandler.GetOrder)

		// Admin endpoints
		e.Router.GET("/api/v1/admin/inventory", adminHandler.GetInventoryDashboard)
		e.Router.POST("/api/v1/admin/force-sweep", adminHandler.ForceSweep)

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			if _, err := app.DB().NewQuery("SELECT 1").Execute(); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  "database unavailable",
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return e.Next()
	})

	// Start server
	return app.Start()
}

// handleShutdown handles graceful shutdown
func handleShutdown(worker *asynq.Server, scheduler *asynq.Scheduler, monitor *monitoring.Monitor) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")

	scheduler.Shutdown()
	worker.Shutdown()
	if monitor != nil {
		monitor.Stop()
	}
}
