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

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"metro/internal/app"
	"metro/internal/config"
	"metro/internal/handler"
	"metro/internal/logging"
	internalRedis "metro/internal/redis"
	"metro/internal/service"
)

func main() {
	// Load configuration.
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Warn("failed to initialize New Relic", "error", err)
		} else {
			logger.Info("New Relic enabled", "app", cfg.NewRelic.AppName)
		}
	}

	// Initialize storage.
	var stores app.Stores
	switch cfg.Database.Driver {
	case config.StoreDriverMemory:
		stores = app.NewMemoryStores()
		logger.Warn("using in-memory store; data is lost on restart")
	default:
		db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		stores = app.NewPostgresStores(db)
		logger.Info("connected to PostgreSQL", "host", cfg.Database.Host, "db", cfg.Database.DBName)
	}

	// Initialize Redis with New Relic instrumentation.
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = app.NewRedisClient(ctx, cfg.Redis, nrApp)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		logger.Info("connected to Redis", "addr", cfg.Redis.Addr)
	}

	// Wire dependencies.
	server, err := wireServer(stores, redisClient, nrApp, cfg, logger)
	if err != nil {
		logger.Error("failed to wire server", "error", err)
		os.Exit(1)
	}

	// Start server in goroutine.
	go func() {
		logger.Info("starting server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	logger.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(stores app.Stores, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config, logger *slog.Logger) (*http.Server, error) {
	rate, err := cfg.Fare.Rate()
	if err != nil {
		return nil, err
	}

	// Initialize Redis stores.
	var (
		cacheStore internalRedis.TicketCacheInterface
		lockStore  internalRedis.LockStoreInterface
	)
	if redisClient != nil {
		cacheStore = internalRedis.NewCacheStore(redisClient)
		lockStore = internalRedis.NewLockStore(redisClient)
	}

	// Initialize services.
	notificationService := service.NewNotificationService(logger)
	receiptService := service.NewReceiptService()
	networkService := service.NewNetworkService(stores.Stations, stores.Lines, stores.Connections, rate, logger)
	walletService := service.NewWalletService(stores.Transactor, stores.Wallets, receiptService, notificationService, logger)
	ticketService := service.NewTicketService(
		stores.Transactor,
		stores.Tickets,
		stores.Scans,
		networkService,
		walletService,
		cacheStore,
		lockStore,
		notificationService,
		cfg.Fare.OfflinePassengerID,
		logger,
	)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		NetworkHandler: handler.NewNetworkHandler(networkService),
		WalletHandler:  handler.NewWalletHandler(walletService, ticketService, receiptService),
		TicketHandler:  handler.NewTicketHandler(ticketService, receiptService),
		ScannerHandler: handler.NewScannerHandler(ticketService),
		RedisClient:    redisClient,
		NewRelicApp:    nrApp,
		Logger:         logger,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, nil
}
