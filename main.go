package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Eursukkul/ewm-service/config"
	"github.com/Eursukkul/ewm-service/internal/analytics"
	"github.com/Eursukkul/ewm-service/internal/consumer"
	"github.com/Eursukkul/ewm-service/internal/handler"
	"github.com/Eursukkul/ewm-service/internal/ledger"
	"github.com/Eursukkul/ewm-service/internal/metrics"
	"github.com/Eursukkul/ewm-service/internal/middleware"
	"github.com/Eursukkul/ewm-service/internal/repository"
	"github.com/Eursukkul/ewm-service/internal/service"
	"github.com/Eursukkul/ewm-service/pkg/database"
	"github.com/Eursukkul/ewm-service/pkg/rabbitmq"
	"github.com/Eursukkul/ewm-service/pkg/stats"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const hitQueue = "ewm-service.hits"

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		slog.Error("service stopped", "component", "main", "error", err)
		os.Exit(1)
	}
}

// run returns once the server has shut down so deferred cleanup always runs.
func run(cfg *config.Config, logger *slog.Logger) error {
	db, err := database.NewPostgresDB(cfg.DSN())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}

	obs, err := metrics.NewObserver(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	// Repositories
	eventRepo := repository.NewEventRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)

	// Hit counter
	statsClient := stats.NewClient(cfg.StatsURL, cfg.StatsTimeout)
	views := analytics.NewViewCounter(statsClient, cfg.ViewsCacheSize, cfg.ViewsCacheTTL, cfg.StatsTimeout)

	// Messaging is optional: without a broker hits go straight to the hit
	// counter and lifecycle notifications are skipped.
	var (
		notifier service.Notifier
		hits     service.HitRecorder = analytics.NewDirectRecorder(statsClient, cfg.AppName, cfg.StatsTimeout)
	)
	if cfg.RabbitURL != "" {
		publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.AppName)
		if err != nil {
			return fmt.Errorf("connect publisher to RabbitMQ: %w", err)
		}
		defer publisher.Close()
		notifier = publisher
		hits = analytics.NewQueueRecorder(publisher, cfg.AppName)

		mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL, hitQueue, analytics.HitRoutingKey, 32)
		if err != nil {
			return fmt.Errorf("connect consumer to RabbitMQ: %w", err)
		}
		defer mqConsumer.Close()

		msgs, err := mqConsumer.Consume()
		if err != nil {
			return fmt.Errorf("start consuming: %w", err)
		}
		consumer.NewHitConsumer(statsClient, cfg.StatsTimeout, obs, views).Start(msgs)
	} else {
		slog.Warn("RABBITMQ_URL not set, notifications disabled", "component", "main")
	}

	// Services
	guard := service.NewEventGuard(ledger.NewLocker(), repository.NewTransactor(db, cfg.LockTimeout), cfg.LockTimeout, obs)
	admission := service.NewAdmissionController(eventRepo, requestRepo, ledgerRepo, guard, obs)
	eventSvc := service.NewEventService(eventRepo, userRepo, categoryRepo, ledgerRepo, guard, notifier)
	requestSvc := service.NewRequestService(admission, requestRepo, eventRepo, userRepo, notifier)
	querySvc := service.NewQueryService(eventRepo, ledgerRepo, views, hits, obs)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Validator = middleware.NewValidator()
	e.Use(echoMw.RequestIDWithConfig(echoMw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(logger))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": cfg.AppName})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	handler.NewEventHandler(eventSvc).RegisterRoutes(e)
	handler.NewRequestHandler(requestSvc).RegisterRoutes(e)
	handler.NewAdminHandler(eventSvc, querySvc, admission).RegisterRoutes(e)
	handler.NewPublicHandler(querySvc).RegisterRoutes(e)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("service starting", "component", "main", "port", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return fmt.Errorf("server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("service stopped", "component", "main")
	return nil
}
