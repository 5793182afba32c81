package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/skillpay-payments/internal/config"
	"github.com/skillpay-payments/internal/data/mongo"
	"github.com/skillpay-payments/internal/data/postgres"
	"github.com/skillpay-payments/internal/logger"
	"github.com/skillpay-payments/internal/platform/messaging/consumers"
	"github.com/skillpay-payments/internal/platform/messaging/producers"
	"github.com/skillpay-payments/internal/platform/persistence"
	"github.com/skillpay-payments/internal/provider/paystack"
	"github.com/skillpay-payments/internal/reconciliation"
	"github.com/skillpay-payments/internal/reconciliation_worker/consumer"
	"github.com/skillpay-payments/internal/reconciliation_worker/service"
	"github.com/skillpay-payments/internal/reconciliation_worker/sweeper"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("reconciliation_worker")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Reconciliation Worker",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

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

	// Initialize repositories
	paymentRepo := postgres.NewPaymentRepository(log, postgresDB)
	entitlementRepo := postgres.NewEntitlementRepository(log, postgresDB)
	observationRepo := mongo.NewObservationRepository(log, mongoDB.Database())

	// Initialize Kafka consumer
	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka)

	// Initialize Kafka DLQ producer
	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}
	// dlqProducer might be nil if DLQTopic is not configured. Handler is nil-safe.

	// Initialize Kafka producer for payment completion events. Completions
	// the sweeper discovers flow through the same topic as webhook-driven ones.
	eventProducer, err := producers.NewPaymentCompletedProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize payment events Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize the activation service behind a worker pool
	baseActivation := service.NewActivationService(log, entitlementRepo)
	activationService, err := service.NewWorkerPoolActivationService(
		baseActivation,
		service.WorkerPoolConfig{Size: cfg.WorkerPool.Size},
		log,
	)
	if err != nil {
		log.Error("Failed to initialize activation worker pool", "error", err)
		os.Exit(1)
	}

	// Initialize entitlement event handler
	entitlementEventHandler := consumer.NewEntitlementEventHandler(
		log,
		activationService,
		dlqProducer,
	)

	// Initialize the stale-pending sweeper
	runner := reconciliation.NewEntitlementEventRunner(log, eventProducer)
	engine := reconciliation.NewService(log, paymentRepo, observationRepo, runner)
	providerClient := paystack.NewClient(log, &cfg.Provider)
	staleSweeper := sweeper.NewSweeper(
		&cfg.Sweeper,
		paymentRepo,
		providerClient,
		engine,
		log,
	)

	// Create error channel for service errors
	errChan := make(chan error, 2)

	// Create wait group for graceful shutdown
	var wg sync.WaitGroup

	// Start Kafka consumer in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Kafka consumer",
			"topic", cfg.Kafka.PaymentEventsTopic,
			"group", cfg.Kafka.ConsumerGroup,
		)
		if err := kafkaConsumer.Subscribe(appCtx, cfg.Kafka.PaymentEventsTopic, cfg.Kafka.ConsumerGroup, entitlementEventHandler.HandleMessage); err != nil {
			errChan <- fmt.Errorf("kafka consumer error: %w", err)
		}
	}()

	// Start sweeper in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		staleSweeper.Start(appCtx)
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Shutdown the worker pool
	log.Info("Shutting down worker pool", "running_workers", activationService.Running())
	activationService.Shutdown()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Wait for all goroutines to finish
	log.Info("Waiting for services to stop...")
	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	// Close DLQ Kafka producer
	if dlqProducer != nil { // dlqProducer can be nil if DLQTopic was not configured
		if err = dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
		}
	}

	if err = eventProducer.Close(); err != nil {
		log.Error("Error closing payment events Kafka producer", "error", err)
	}

	// Close Kafka consumer
	if err = kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Close MongoDB connection
	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serviceErr != nil {
		log.Error("Reconciliation Worker shutdown with errors", "error", serviceErr)
	}
	if err != nil {
		log.Error("Reconciliation Worker shutdown completed with errors")
	} else {
		log.Info("Reconciliation Worker shutdown completed successfully")
	}
}
