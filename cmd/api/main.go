package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tiendita/internal/config"
	"tiendita/internal/database"
	"tiendita/internal/handler"
	"tiendita/internal/repository"
	"tiendita/internal/router"
	"tiendita/internal/service"
	"tiendita/internal/stock"
	"tiendita/internal/zone"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting tiendita API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Apply schema migrations before opening the pool for traffic
	if err := database.Migrate(cfg.Database.ConnectionString(), logger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	cartRepo := repository.NewCartRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)

	// Initialize zone loader with S3 and local fallback
	fileLoader := zone.NewFileLoader(logger)
	var zoneLoader zone.Loader

	if cfg.Zones.S3Enabled {
		s3Loader, err := zone.NewS3Loader(ctx, cfg.Zones.S3Bucket, cfg.Zones.S3Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 zone loader, falling back to local file system only")
			zoneLoader = fileLoader
		} else {
			zoneLoader = zone.NewFallbackLoader(s3Loader, fileLoader, cfg.Zones.S3Key, true, logger)
		}
	} else {
		zoneLoader = fileLoader
		logger.Info().Msg("using local file system for zone document (S3 disabled)")
	}

	// Initialize delivery zone catalog
	zoneCatalog, err := zone.NewCatalog(ctx, zoneLoader, cfg.Zones.FilePath, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize zone catalog: %w", err)
	}

	// Initialize services
	stockGuard := stock.NewGuard(productRepo, logger)
	cartService := service.NewCartService(cartRepo, productRepo, stockGuard, zoneCatalog, logger)
	orderService := service.NewOrderService(orderRepo, cartRepo, productRepo, zoneCatalog, cfg.WhatsApp.BusinessNumber, logger)

	// Initialize HTTP handlers
	cartHandler := handler.NewCartHandler(cartService, logger)
	orderHandler := handler.NewOrderHandler(orderService, logger)
	zoneHandler := handler.NewZoneHandler(zoneCatalog, logger)

	// Initialize router
	mux := router.New(cartHandler, orderHandler, zoneHandler, cfg.Auth.APIKey, cfg.Server.RequestTimeout, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
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
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
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
