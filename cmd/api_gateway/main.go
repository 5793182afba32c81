package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/skillpay-payments/internal/api_gateway"
	"github.com/skillpay-payments/internal/api_gateway/service"
	"github.com/skillpay-payments/internal/config"
	"github.com/skillpay-payments/internal/data/mongo"
	"github.com/skillpay-payments/internal/data/postgres"
	"github.com/skillpay-payments/internal/logger"
	"github.com/skillpay-payments/internal/platform/messaging/producers"
	"github.com/skillpay-payments/internal/platform/persistence"
	"github.com/skillpay-payments/internal/provider/paystack"
	"github.com/skillpay-payments/internal/reconciliation"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producer for payment completion events
	eventProducer, err := producers.NewPaymentCompletedProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize payment events Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	paymentRepo := postgres.NewPaymentRepository(log, postgresDB)
	observationRepo := mongo.NewObservationRepository(log, mongoDB.Database())

	// Initialize the reconciliation engine. Completion side effects publish
	// the payment event the entitlement worker consumes.
	runner := reconciliation.NewEntitlementEventRunner(log, eventProducer)
	engine := reconciliation.NewService(log, paymentRepo, observationRepo, runner)

	// Initialize the payment provider client
	providerClient := paystack.NewClient(log, &cfg.Provider)

	// Initialize services
	paymentService := service.NewPaymentService(log, engine, providerClient, service.DefaultCatalog(), observationRepo, &cfg.Provider)
	webhookService := service.NewWebhookService(log, engine, cfg.Provider.SecretKey)

	// Initialize REST server
	server := api_gateway.NewServer(log, cfg, paymentService, webhookService)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server first so no new observations arrive
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if err = eventProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
