package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nambautroi00/ClinicBooking-sub002/config"
	"github.com/nambautroi00/ClinicBooking-sub002/cron"
	"github.com/nambautroi00/ClinicBooking-sub002/database"
	intentRepo "github.com/nambautroi00/ClinicBooking-sub002/database/repository/intent"
	slotRepo "github.com/nambautroi00/ClinicBooking-sub002/database/repository/slot"
	"github.com/nambautroi00/ClinicBooking-sub002/handlers"
	"github.com/nambautroi00/ClinicBooking-sub002/middleware"
	"github.com/nambautroi00/ClinicBooking-sub002/routes"
	"github.com/nambautroi00/ClinicBooking-sub002/services/availability"
	"github.com/nambautroi00/ClinicBooking-sub002/services/booking"
	"github.com/nambautroi00/ClinicBooking-sub002/services/payment"
	"github.com/nambautroi00/ClinicBooking-sub002/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitRedis()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(cors.Default())
	router.Use(middleware.RateLimitMiddleware())
	router.Use(middleware.IdentityMiddleware())

	// repositories.
	slots := slotRepo.NewMongoSlotRepo()
	intents := intentRepo.NewMongoIntentRepo()

	// gateway selection.
	var gateway payment.Gateway
	if config.AppConfig.PaymentProvider == "stripe" {
		stripe.Key = config.AppConfig.StripeKey
		gateway = payment.NewStripeGateway(config.AppConfig.PaymentCurrency)
	} else {
		gateway = payment.NewLinkGateway(
			config.AppConfig.PaymentAPIBase,
			config.AppConfig.PaymentClientID,
			config.AppConfig.PaymentAPIKey,
		)
	}

	// services.
	engine := payment.NewReconciliationEngine(gateway, intents, slots, logger)
	engine.SuccessURL = config.AppConfig.PaymentReturnURL
	engine.CancelURL = config.AppConfig.PaymentCancelURL
	engine.PollInterval = time.Duration(config.AppConfig.PollIntervalSeconds) * time.Second
	engine.PollTimeout = time.Duration(config.AppConfig.PollTimeoutSeconds) * time.Second
	engine.Reminders = cron.NewAsynqReminderScheduler()

	resolver := availability.NewResolver(slots)

	bookingService := &booking.DefaultBookingSessionService{
		Sessions: booking.NewRedisSessionStore(
			utils.GetSessionCacheClient(),
			time.Duration(config.AppConfig.SessionTTLMinutes)*time.Minute,
		),
		Stash: booking.NewRedisStashService(
			utils.GetStashCacheClient(),
			time.Duration(config.AppConfig.StashTTLMinutes)*time.Minute,
		),
		Slots:    slots,
		Engine:   engine,
	}

	// background workers.
	cron.InitReminderWorker()
	utils.StartHealthMonitor(
		utils.GetSessionCacheClient(),
		utils.GetStashCacheClient(),
		database.MongoClient,
	)

	// handlers.
	bundle := &routes.HandlerBundle{
		Schedule: handlers.NewScheduleHandler(resolver),
		Booking:  handlers.NewBookingHandler(bookingService, logger),
		Payment:  handlers.NewPaymentHandler(engine, bookingService, logger),
	}
	routes.RegisterRoutes(router, bundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
