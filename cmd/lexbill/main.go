package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/lexbill/lexbill/internal/app"
	"github.com/lexbill/lexbill/internal/clients"
	"github.com/lexbill/lexbill/internal/fx"
	"github.com/lexbill/lexbill/internal/invoices"
	"github.com/lexbill/lexbill/internal/ledger"
	"github.com/lexbill/lexbill/internal/observability"
	"github.com/lexbill/lexbill/internal/platform/cache"
	"github.com/lexbill/lexbill/internal/platform/db"
	"github.com/lexbill/lexbill/internal/profiles"
	"github.com/lexbill/lexbill/internal/projects"
	"github.com/lexbill/lexbill/internal/reports"
	"github.com/lexbill/lexbill/internal/shared"
	"github.com/lexbill/lexbill/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("connect redis", slog.Any("error", err))
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	validate := validator.New()
	idempotencyStore := shared.NewIdempotencyStore(pool)

	rateSource := fx.NewHTTPSource(cfg.FXFeedURL, cfg.FXFetchTimeout)
	rateService := fx.NewService(rateSource, fx.NewRedisCache(redisClient), fx.Currency(cfg.BaseCurrency), logger)

	clientRepo := clients.NewRepository(pool)
	clientService := clients.NewService(clientRepo)
	clientHandler := clients.NewHandler(logger, clientService, validate)

	projectRepo := projects.NewRepository(pool)
	projectService := projects.NewService(projectRepo, clientService)
	projectHandler := projects.NewHandler(logger, projectService, validate)

	ledgerRepo := ledger.NewRepository(pool)
	ledgerService := ledger.NewService(ledgerRepo, projectService)
	ledgerHandler := ledger.NewHandler(logger, ledgerService, validate)

	profileRepo := profiles.NewRepository(pool)
	profileService := profiles.NewService(profileRepo)
	profileHandler := profiles.NewHandler(logger, profileService, validate)

	invoiceRepo := invoices.NewRepository(pool)
	invoiceService := invoices.NewService(invoiceRepo, ledgerRepo, projectRepo, profileService, rateService, idempotencyStore, logger)
	invoiceHandler := invoices.NewHandler(logger, invoiceService, validate)

	reportRepo := reports.NewRepository(pool)
	reportService := reports.NewService(reportRepo, profileService)
	reportHandler := reports.NewHandler(logger, reportService)

	metrics := observability.NewMetrics()

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Warn("init job client", slog.Any("error", err))
	} else {
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		if _, err := jobClient.EnqueueFXWarmup(ctx); err != nil {
			logger.Warn("enqueue fx warmup", slog.Any("error", err))
		}
	}

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Pool:            pool,
		Metrics:         metrics,
		ClientsHandler:  clientHandler,
		ProjectsHandler: projectHandler,
		LedgerHandler:   ledgerHandler,
		InvoicesHandler: invoiceHandler,
		ProfilesHandler: profileHandler,
		ReportsHandler:  reportHandler,
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
