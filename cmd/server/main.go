package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rvsync/backend/internal/models"
	"rvsync/backend/pkg/cache"
	"rvsync/backend/pkg/config"
	"rvsync/backend/pkg/di"
	"rvsync/backend/pkg/logger"
	"rvsync/backend/pkg/router"
	"rvsync/backend/pkg/secrets"
	"rvsync/backend/shared/observability"
)

func main() {
	// config.New loads .env before reading the environment
	cfg := config.New()

	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"

	log := logger.New(logConfig)
	logger.SetGlobal(log)

	log.Info("Starting application", "version", os.Getenv("APP_VERSION"), "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Observability.TracingEnabled {
		shutdown, err := observability.SetupTracing(cfg.Observability.ServiceName, os.Stdout)
		if err != nil {
			log.LogError(err, "Failed to initialize tracing")
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
	}

	var opts di.Options
	if cfg.Observability.MetricsEnabled {
		mp, handler, err := observability.SetupPrometheusMetrics(cfg.Observability.ServiceName)
		if err != nil {
			log.LogError(err, "Failed to initialize metrics")
			os.Exit(1)
		}
		defer func() { _ = mp.Shutdown(context.Background()) }()
		opts.MeterProvider = mp
		opts.MetricsHandler = handler
	}

	secretManager, err := secrets.NewManager(secrets.VaultConfig{
		Enabled:     cfg.Vault.Enabled,
		Address:     cfg.Vault.Addr,
		Token:       cfg.Vault.Token,
		SecretsPath: cfg.Vault.Path,
		MaxRetries:  3,
		Cache:       cache.OptionsFromConfig(cfg),
	}, log)
	if err != nil {
		log.LogError(err, "Failed to initialize secrets manager")
		os.Exit(1)
	}
	opts.JWTSecret = secrets.GetSecretWithDefault(ctx, secretManager, "jwt_secret", cfg.JWT.Secret, log)
	if cfg.IsProduction() && opts.JWTSecret == "default-jwt-secret-do-not-use-in-production" {
		log.Error("JWT secret is not configured")
		os.Exit(1)
	}

	db, err := config.NewDB()
	if err != nil {
		log.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		log.LogError(err, "Failed to migrate database")
		os.Exit(1)
	}

	container, err := di.New(cfg, db, log, opts)
	if err != nil {
		log.LogError(err, "Failed to initialize dependency container")
		os.Exit(1)
	}
	container.Start(ctx)

	r := router.New(container)
	if cfg.OpenAPI.SchemaPath != "" {
		r.AddOpenAPIValidation(cfg.OpenAPI.SchemaPath)
	}
	r.SetupRoutes()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r.Engine,
		ReadHeaderTimeout: cfg.Server.Timeout,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.LogError(err, "Server failed to start")
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// hijacked websocket connections are not tracked by Shutdown, so close them first
	if err := container.Close(); err != nil {
		log.LogError(err, "Failed to release resources")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.LogError(err, "Server forced to shutdown")
	}

	log.Info("Server exited gracefully")
}
