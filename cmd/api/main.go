package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/bookwell/bookwell/cmd/mainconfig"
	"github.com/bookwell/bookwell/internal/api/router"
	"github.com/bookwell/bookwell/internal/appointment"
	"github.com/bookwell/bookwell/internal/catalog"
	appconfig "github.com/bookwell/bookwell/internal/config"
	"github.com/bookwell/bookwell/internal/notify"
	"github.com/bookwell/bookwell/internal/observability/metrics"
	"github.com/bookwell/bookwell/internal/reminder"
	"github.com/bookwell/bookwell/internal/review"
	"github.com/bookwell/bookwell/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting bookwell API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = int32(cfg.DatabasePoolMax)
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	// Stores and services
	appointmentStore := appointment.NewStore(pool)
	catalogStore := catalog.NewStore(pool)
	reviewStore := review.NewStore(pool)

	mailer := buildMailer(ctx, cfg, logger)

	appointmentService := appointment.NewService(appointmentStore, catalogStore, mailer, logger)
	reviewAggregator := review.NewAggregator(reviewStore, logger)

	// Reminder scheduler
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient = redis.NewClient(opts)
		defer func() { _ = redisClient.Close() }()
	}
	claims := reminder.NewClaimGuard(redisClient, 0, logger)
	reminderMetrics := metrics.NewReminderMetrics(prometheus.DefaultRegisterer)
	scheduler := reminder.NewScheduler(appointmentStore, mailer, catalogStore, claims, reminderMetrics, reminder.Config{
		PollInterval: cfg.ReminderPollInterval,
		Lookahead:    cfg.ReminderLookahead,
		Slop:         cfg.ReminderSlop,
		Workers:      cfg.ReminderWorkers,
		BatchSize:    cfg.ReminderBatchSize,
	}, logger)
	go scheduler.Run(ctx)

	// Handlers and router
	appointmentHandler := appointment.NewHandler(appointmentService, logger)
	reviewHandler := review.NewHandler(reviewAggregator, logger)

	r := router.New(router.Config{
		Logger:             logger,
		AppointmentHandler: appointmentHandler,
		ReviewHandler:      reviewHandler,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Stop the reminder scheduler alongside the HTTP listener.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildMailer selects the outbound email channel. Misconfigured providers
// fall back to the stub sender so the API still boots in development.
func buildMailer(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender != nil {
			return sender
		}
		logger.Warn("sendgrid selected but SENDGRID_API_KEY is empty, using stub sender")
	case "ses":
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Warn("failed to load AWS config, using stub sender", "error", err)
			break
		}
		sender := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender != nil {
			return sender
		}
	}
	return notify.NewStubEmailSender(logger)
}
