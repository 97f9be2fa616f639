package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"financially/internal/config"
	"financially/internal/cryptox"
	"financially/internal/database"
	"financially/internal/logger"
	"financially/internal/metrics"
	"financially/internal/notify"
	"financially/internal/provider"
	"financially/internal/server"
	"financially/internal/services"
	"financially/internal/session"
	"financially/internal/validator"
)

// @title           Financially API
// @version         1.0
// @description     Financially tracks bank accounts, transactions, budgets and spending alerts.

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

const shutdownTimeout = 10 * time.Second

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	sessions, closeSessions, err := newSessionStore(appConfig)
	if err != nil {
		return err
	}
	defer closeSessions()

	notifier, err := newNotifier(appConfig)
	if err != nil {
		return err
	}
	defer func() {
		if err := notifier.Close(); err != nil {
			log.Warnf("notifier close error: %v", err)
		}
	}()

	sealer, err := cryptox.NewAESSealer(appConfig.TokenEncryptionKey)
	if err != nil {
		return fmt.Errorf("failed to create token sealer: %w", err)
	}

	plaid := provider.NewPlaidProvider(provider.PlaidConfig{
		ClientID:    appConfig.PlaidClientID,
		Secret:      appConfig.PlaidSecret,
		Environment: appConfig.PlaidEnv,
		BaseURL:     appConfig.PlaidBaseURL,
		Timeout:     appConfig.PlaidTimeout,
	})

	metrics.MustRegister()
	validator.Register()

	// Initialize services
	db := dbManager.DB()
	accountService := services.NewAccountService(db)
	analyticsService := services.NewAnalyticsService(db)
	budgetService := services.NewBudgetService(db)

	router := server.NewRouter(server.Services{
		Auth:        services.NewAuthService(db, notifier, sessions, appConfig.FrontendURL),
		Account:     accountService,
		Transaction: services.NewTransactionService(db, accountService),
		Budget:      budgetService,
		Alert:       services.NewAlertService(db),
		Analytics:   analyticsService,
		Dashboard:   services.NewDashboardService(db, analyticsService, budgetService),
		Sync:        services.NewSyncService(db, plaid, sealer),
		Audit:       services.NewAuditService(db),
	}, server.Options{
		CORSOrigin:    appConfig.CORSOrigin,
		MetricsAPIKey: appConfig.MetricsAPIKey,
		ExposeLinks:   !appConfig.IsProduction(),
		Sessions:      sessions,
	})

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Financially API server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newSessionStore returns the Redis store when REDIS_ADDR is set and an
// in-process store otherwise.
func newSessionStore(cfg *config.Config) (session.Store, func(), error) {
	if cfg.RedisAddr == "" {
		logger.Get().Warn("REDIS_ADDR not set, token revocations are kept in memory")
		return session.NewMemoryStore(), func() {}, nil
	}

	store := session.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return store, func() { _ = store.Close() }, nil
}

// newNotifier publishes emails to RabbitMQ when RABBITMQ_URL is set and logs them otherwise.
func newNotifier(cfg *config.Config) (notify.Notifier, error) {
	if cfg.RabbitMQURL == "" {
		logger.Get().Warn("RABBITMQ_URL not set, outgoing emails are only logged")
		return notify.NewLogNotifier(), nil
	}
	n, err := notify.NewRabbitNotifier(cfg.RabbitMQURL, cfg.NotifyExchange)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	return n, nil
}
