// File: glowbook/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"glowbook/config"
	"glowbook/cron"
	"glowbook/database"
	bookingRepo "glowbook/database/repository/booking"
	bookingRequestRepo "glowbook/database/repository/bookingRequest"
	workStatusRepo "glowbook/database/repository/workStatus"
	"glowbook/handlers"
	"glowbook/middleware"
	"glowbook/routes"
	"glowbook/services/bookingRequest"
	"glowbook/services/mitigation"
	"glowbook/services/notification"
	"glowbook/services/payment"
	"glowbook/services/risk"
	"glowbook/services/workStatus"
	"glowbook/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
)

// stores is everything that differs between the mongo and memory drivers.
type stores struct {
	bookings   bookingRepo.BookingRepository
	requests   bookingRequestRepo.BookingRequestRepository
	workStatus workStatusRepo.WorkStatusRepository
	locker     utils.Locker
	gate       risk.AlertGate
	tokens     notification.TokenStore
}

func memoryStores(clock utils.Clock) stores {
	bookings := bookingRepo.NewMemoryBookingRepo()
	return stores{
		bookings:   bookings,
		requests:   bookingRequestRepo.NewMemoryBookingRequestRepo(bookings),
		workStatus: workStatusRepo.NewMemoryWorkStatusRepo(),
		locker:     utils.NoopLocker{},
		gate:       risk.NewMemoryAlertGate(clock),
		tokens:     notification.NewMemoryTokenStore(),
	}
}

func mongoStores(logger *zap.Logger) stores {
	database.InitDB()
	utils.InitRedis()

	db := database.DB()
	bookings := bookingRepo.NewMongoBookingRepo(db)
	requests := bookingRequestRepo.NewMongoBookingRequestRepo(database.MongoClient, db)
	work := workStatusRepo.NewMongoWorkStatusRepo(db)

	for name, ensure := range map[string]func() error{
		"bookings":         bookings.EnsureIndexes,
		"booking_requests": requests.EnsureIndexes,
		"work_status":      work.EnsureIndexes,
	} {
		if err := ensure(); err != nil {
			logger.Sugar().Fatalf("main: failed to ensure %s indexes: %v", name, err)
		}
	}

	return stores{
		bookings:   bookings,
		requests:   requests,
		workStatus: work,
		locker:     utils.NewRedisLocker(utils.GetLockClient()),
		gate:       risk.NewRedisAlertGate(utils.GetCacheClient()),
		tokens:     notification.NewRedisTokenStore(utils.GetCacheClient()),
	}
}

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	cfg := config.AppConfig
	clock := utils.SystemClock()

	stripe.Key = cfg.StripeKey

	var st stores
	if cfg.StoreDriver == "memory" {
		logger.Warn("main: using in-memory stores; state is lost on restart")
		st = memoryStores(clock)
	} else {
		st = mongoStores(logger)
	}

	// Push delivery. Without Firebase credentials notifications are only logged.
	if err := utils.FirebaseInit(); err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}
	var push notification.Notifier = notification.NewLogNotifier(logger)
	if utils.FCMClient != nil {
		push = notification.NewPushNotifier(utils.FCMClient, st.tokens, logger)
	}

	// In mongo mode delivery goes through the asynq queue so request handlers never wait on FCM.
	notifier := push
	var (
		queueClient *asynq.Client
		worker      *asynq.Server
	)
	if cfg.StoreDriver != "memory" {
		queueClient = asynq.NewClient(cron.NotificationQueueOpt())
		notifier = notification.NewQueuedNotifier(queueClient, logger)
		worker = cron.InitNotificationWorker(push)
	}

	// services.
	tracker := workStatus.NewTracker(st.workStatus, notifier, clock, utils.Component("work-status"), cfg.WorkAlertLead)

	engine, err := bookingRequest.NewEngine(st.requests, tracker, notifier, clock, utils.Component("booking-requests"), bookingRequest.Settings{
		RequestTTL:          cfg.RequestTTL,
		AutoBookWindow:      cfg.AutoBookWindow,
		ClientConfirmWindow: cfg.ClientConfirmWindow,
	})
	if err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}

	riskSvc := risk.NewService(st.bookings, notifier, st.gate, clock, utils.Component("risk"), risk.Settings{
		Lookahead: cfg.RiskLookahead,
		DedupTTL:  cfg.RiskAlertDedupTTL,
	})

	dispatcher := mitigation.NewDispatcher(st.bookings, payment.NewStripeAdjuster(utils.Component("payments")), notifier, clock, utils.Component("mitigation"), mitigation.Settings{
		WaitCooldown: cfg.RiskWaitCooldown,
		LeaseTTL:     cfg.MitigationLeaseTTL,
	})

	// periodic tasks.
	scheduler := cron.NewScheduler(st.locker, utils.Component("scheduler"),
		cron.Task{Name: "request-sweep", Interval: cfg.SweepInterval, Run: engine.SweepOnce},
		cron.Task{Name: "risk-poll", Interval: cfg.RiskPollInterval, Run: riskSvc.PollOnce},
		cron.Task{Name: "work-alerts", Interval: cfg.WorkAlertInterval, Run: tracker.CheckAlertsOnce},
	)
	if err := scheduler.Start(); err != nil {
		logger.Sugar().Fatalf("main: failed to start scheduler: %v", err)
	}

	healthCtx, stopHealth := context.WithCancel(context.Background())
	defer stopHealth()
	utils.StartHealthMonitor(healthCtx, utils.AllRedisClients(), database.MongoClient)

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	handlerBundle := handlers.NewHandlerBundle(
		handlers.NewBookingRequestHandler(engine),
		handlers.NewBookingHandler(riskSvc, dispatcher),
		handlers.NewWorkStatusHandler(tracker),
		handlers.NewDeviceHandler(st.tokens),
	)
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := cfg.AppPort
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	scheduler.Stop()
	if worker != nil {
		worker.Shutdown()
	}
	if queueClient != nil {
		if err := queueClient.Close(); err != nil {
			logger.Sugar().Warnf("main: failed to close queue client: %v", err)
		}
	}
	if err := database.CloseDB(ctx); err != nil {
		logger.Sugar().Warnf("main: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
	utils.SyncLogger()
}
