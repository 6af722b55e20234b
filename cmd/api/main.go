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

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handler"
	"storefront/internal/media"
	"storefront/internal/metrics"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is fine; the environment wins either way.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting storefront API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.Migrate {
		if err := database.Migrate(ctx, pool, logger); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	// Metrics registry with runtime collectors
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	cartRepo := repository.NewCartRepository(pool, logger)
	txr := repository.NewTransactor(pool, logger)

	// Initialize services
	engine := service.NewStockEngine(productRepo, m, logger)
	productService := service.NewProductService(txr, productRepo, logger)
	cartService := service.NewCartService(cartRepo, productRepo, logger)
	inventoryService := service.NewInventoryService(txr, engine, logger)
	orderService := service.NewOrderService(txr, orderRepo, engine, m, logger)

	// Initialize upload store with S3 and local fallback
	store, err := newMediaStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize upload store: %w", err)
	}

	// Initialize HTTP handlers
	handlers := router.Handlers{
		Product:   handler.NewProductHandler(productService, logger),
		Cart:      handler.NewCartHandler(cartService, logger),
		Order:     handler.NewOrderHandler(orderService, logger),
		Inventory: handler.NewInventoryHandler(inventoryService, logger),
		Upload:    handler.NewUploadHandler(store, cfg.Upload.MaxFileSize, logger),
	}

	// Initialize router
	mux := router.New(handlers, router.Deps{
		Verifier: auth.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		DB:       pool,
		Metrics:  m,
		Gatherer: registry,
		Logger:   logger,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newMediaStore builds the upload store: S3 first when enabled, the local
// upload directory otherwise or when S3 cannot be reached.
func newMediaStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (media.Store, error) {
	fileStore, err := media.NewFileStore(cfg.Upload.Dir, cfg.Upload.BaseURL, logger)
	if err != nil {
		return nil, err
	}

	if !cfg.S3.Enabled {
		// S3 disabled, use local file system only
		logger.Info().Msg("using local file system for uploads (S3 disabled)")
		return fileStore, nil
	}

	s3Store, err := media.NewS3Store(ctx, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.Prefix, cfg.S3.S3PublicURL(), logger)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to initialise S3 store, falling back to local file system only")
		return fileStore, nil
	}

	return media.NewFallbackStore(s3Store, fileStore, true, logger), nil
}
