package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/mentorhub/mentorhub/internal/app"
	"github.com/mentorhub/mentorhub/internal/auth"
	"github.com/mentorhub/mentorhub/internal/availability"
	"github.com/mentorhub/mentorhub/internal/booking"
	"github.com/mentorhub/mentorhub/internal/mentors"
	"github.com/mentorhub/mentorhub/internal/notifications"
	"github.com/mentorhub/mentorhub/internal/observability"
	"github.com/mentorhub/mentorhub/internal/payments"
	"github.com/mentorhub/mentorhub/internal/platform/cache"
	"github.com/mentorhub/mentorhub/internal/platform/db"
	"github.com/mentorhub/mentorhub/internal/rbac"
	"github.com/mentorhub/mentorhub/internal/reviews"
	"github.com/mentorhub/mentorhub/internal/shared"
	"github.com/mentorhub/mentorhub/internal/users"
	"github.com/mentorhub/mentorhub/jobs"
	"github.com/mentorhub/mentorhub/migrate"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if err := migrate.Run(migrate.Options{
		DSN:    cfg.PGDSN,
		Logger: log.New(os.Stdout, "[migrate] ", log.LstdFlags),
	}); err != nil {
		logger.Error("run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	bookingLocker := shared.NewLocker(redisClient, cfg.BookingLockTTL)
	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	queue := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Warn("queue close", slog.Any("error", err))
		}
	}()

	rbacMiddleware := rbac.Middleware{Logger: logger}

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	notificationsRepo := notifications.NewRepository(pool)
	notificationsService := notifications.NewService(notificationsRepo, queue, logger)
	notificationsHandler := notifications.NewHandler(logger, notificationsService, rbacMiddleware)

	mentorsRepo := mentors.NewRepository(pool)
	mentorsService := mentors.NewService(mentorsRepo, logger)
	mentorsHandler := mentors.NewHandler(logger, mentorsService, rbacMiddleware)

	availabilityRepo := availability.NewRepository(pool)
	availabilityService := availability.NewService(availabilityRepo, redisClient, logger)
	availabilityHandler := availability.NewHandler(logger, availabilityService, rbacMiddleware)

	metrics := observability.NewMetrics()
	metrics.Registerer().MustRegister(db.NewPoolStatsCollector(pool))

	bookingRepo := booking.NewRepository(pool)
	resolver := booking.NewResolver(bookingRepo, availabilityService)
	bookingService := booking.NewService(bookingRepo, resolver, mentorsService, bookingLocker, notificationsService, auditLogger, logger)
	bookingHandler := booking.NewHandler(logger, bookingService, rbacMiddleware, metrics)

	reviewsRepo := reviews.NewRepository(pool)
	reviewsService := reviews.NewService(reviewsRepo, bookingRepo, mentorsService, notificationsService, logger)
	reviewsHandler := reviews.NewHandler(logger, reviewsService, rbacMiddleware)

	paymentsRepo := payments.NewRepository(pool)
	paymentsService := payments.NewService(paymentsRepo, bookingService, idempotencyStore, logger)
	paymentsHandler := payments.NewHandler(logger, paymentsService, rbacMiddleware, cfg.PaymentWebhookSecret)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo, auditLogger, logger)
	usersHandler := users.NewHandler(logger, usersService, rbacMiddleware)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,

		AuthHandler:          authHandler,
		MentorsHandler:       mentorsHandler,
		AvailabilityHandler:  availabilityHandler,
		BookingHandler:       bookingHandler,
		ReviewsHandler:       reviewsHandler,
		PaymentsHandler:      paymentsHandler,
		NotificationsHandler: notificationsHandler,
		UsersHandler:         usersHandler,

		Metrics: metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
