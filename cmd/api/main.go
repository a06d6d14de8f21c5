package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/cart"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/gateway"
	"storefront/internal/handler"
	"storefront/internal/notify"
	"storefront/internal/order"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"
	"storefront/internal/shipping"

	"github.com/redis/go-redis/v9"
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

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	cartRepo := repository.NewCartRepository(pool, logger)
	couponRepo := repository.NewCouponRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	shipmentRepo := repository.NewShipmentRepository(pool, logger)

	// Aggregator auth tokens live in Redis so restarts and replicas share
	// one session; without Redis each process keeps its own.
	var tokenCache shipping.TokenCache
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		defer redisClient.Close()
		tokenCache = shipping.NewRedisTokenCache(redisClient, logger)
	} else {
		tokenCache = shipping.NewMemoryTokenCache()
		logger.Info().Msg("using in-memory aggregator token cache (Redis disabled)")
	}

	// Initialize provider clients
	gatewayClient := gateway.NewClient(cfg.Gateway, logger)
	aggregatorClient := shipping.NewClient(cfg.Aggregator, tokenCache, logger)

	// Label archive with graceful fallback to carrier-hosted URLs
	var archiver shipping.LabelArchiver
	if cfg.Labels.Enabled {
		archiver, err = shipping.NewS3LabelArchiver(ctx, cfg.Labels.Bucket, cfg.Labels.Region, cfg.Labels.Prefix, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to initialise label archive, serving carrier URLs only")
			archiver = nil
		}
	}

	// Notification publisher
	var publisher notify.Publisher
	if cfg.Kafka.Enabled {
		publisher = notify.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	} else {
		publisher = notify.NewLogPublisher(logger)
		logger.Info().Msg("logging notification events (Kafka disabled)")
	}
	defer publisher.Close()

	// Initialize services
	calc := cart.NewCalculator(cfg.Checkout.TaxRate)
	machine := order.NewMachine(logger)

	cartService := service.NewCartService(cartRepo, productRepo, calc, logger)
	shipmentService := service.NewShipmentService(shipmentRepo, orderRepo, machine, aggregatorClient, archiver, cfg.Checkout, logger)
	orderService := service.NewOrderService(
		orderRepo, cartRepo, productRepo, couponRepo, shipmentRepo,
		machine, gatewayClient, publisher, shipmentService,
		calc, cfg.Checkout, logger,
	)

	// Initialize HTTP handlers
	cartHandler := handler.NewCartHandler(cartService, logger)
	orderHandler := handler.NewOrderHandler(orderService, logger)
	paymentHandler := handler.NewPaymentHandler(orderService, logger)
	shipmentHandler := handler.NewShipmentHandler(shipmentService, logger)

	// Initialize router
	mux := router.New(cartHandler, orderHandler, paymentHandler, shipmentHandler, cfg.Auth.APIKey, logger)

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
