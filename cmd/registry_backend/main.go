package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/invoice_registry/internal/adapters/authority"
	portsrepo "github.com/SscSPs/invoice_registry/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/invoice_registry/internal/core/ports/services"
	"github.com/SscSPs/invoice_registry/internal/core/services"
	"github.com/SscSPs/invoice_registry/internal/handlers"
	"github.com/SscSPs/invoice_registry/internal/middleware"
	"github.com/SscSPs/invoice_registry/internal/platform/config"
	"github.com/SscSPs/invoice_registry/internal/repositories/database/pgsql"
	"github.com/SscSPs/invoice_registry/internal/repositories/memory"
	"github.com/SscSPs/invoice_registry/internal/scheduler"
	"github.com/SscSPs/invoice_registry/pkg/database"
	"github.com/gin-gonic/gin"
)

// @title Invoice Registry API
// @version 1.0
// @description Fiscal invoice numbering, hash-chained registry and tax authority submission.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, closeStorage, err := setupStorage(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize storage", slog.String("driver", cfg.StorageDriver), slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStorage()

	serviceContainer := services.NewServiceContainer(cfg, repos, setupAuthority(cfg, logger))

	sweeper := scheduler.NewSubmissionScheduler(serviceContainer.Submission, scheduler.SweepConfig{
		Spec:       cfg.SubmissionSweepCron,
		BatchSize:  cfg.SubmissionSweepBatch,
		StaleAfter: cfg.SubmissionStaleAfter,
	}, logger)
	if err := sweeper.Start(); err != nil {
		os.Exit(1)
	}
	defer sweeper.Stop()

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := handlers.RegisterRoutes(r, cfg, serviceContainer); err != nil {
		logger.Error("Failed to register routes", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port), slog.String("storage", cfg.StorageDriver), slog.String("authority", cfg.AuthorityMode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", slog.String("error", err.Error()))
	}
}

// setupStorage builds the repositories for the configured driver. The returned
// func releases whatever the driver holds.
func setupStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, func(), error) {
	if cfg.StorageDriver == config.StorageMemory {
		logger.Info("Using in-memory storage")
		return memory.NewRepositoryProvider(memory.NewStore()), func() {}, nil
	}

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, database.PoolOptions{
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: cfg.DBMaxConnLifetime,
		MaxConnIdleTime: cfg.DBMaxConnIdleTime,
		ConnectTimeout:  cfg.DBConnectTimeout,
	}, logger)
	if err != nil {
		return portsrepo.RepositoryProvider{}, nil, err
	}
	logger.Info("Database connection pool established.")

	logger.Info("Running database migrations...")
	if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
		dbPool.Close()
		return portsrepo.RepositoryProvider{}, nil, err
	}

	return pgsql.NewRepositoryProvider(dbPool), func() { database.ClosePgxPool(dbPool, logger) }, nil
}

func setupAuthority(cfg *config.Config, logger *slog.Logger) portssvc.AuthorityClient {
	if cfg.AuthorityMode == config.AuthorityModeHTTP {
		logger.Info("Submitting to tax authority", slog.String("url", cfg.AuthorityURL))
		return authority.NewHTTPClient(authority.HTTPConfig{
			URL:     cfg.AuthorityURL,
			Timeout: cfg.AuthorityTimeout,
			Retries: cfg.AuthorityHTTPRetries,
		}, logger)
	}
	logger.Warn("Using sandbox tax authority; nothing leaves this process")
	return authority.NewSandbox()
}
