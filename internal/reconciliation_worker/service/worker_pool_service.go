package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/skillpay-payments/internal/domain/shared"
)

// WorkerPoolActivationService implements the ActivationService interface
type WorkerPoolActivationService struct {
	baseService ActivationService
	pool        *ants.Pool
	logger      *slog.Logger
	// Use a mutex to protect access to the results map
	mu      sync.Mutex
	results map[string]chan error
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolActivationService(
	baseService ActivationService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolActivationService, error) {
	// Create a new worker pool with the specified size
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolActivationService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
		results:     make(map[string]chan error),
	}, nil
}

// ActivateEntitlement submits an activation to the worker pool.
func (s *WorkerPoolActivationService) ActivateEntitlement(ctx context.Context, event *shared.PaymentCompletedEvent) error {
	logger := s.logger
	if event.RequestID != "" {
		logger = s.logger.With("request_id", event.RequestID)
	}

	logger.Info("Submitting entitlement activation to worker pool",
		"payment_id", event.PaymentID.String(),
		"owner_id", event.OwnerID,
	)

	// Create a channel to receive the result of the activation
	resultChan := make(chan error, 1)

	// Store the result channel in the result map
	paymentID := event.PaymentID.String()
	s.mu.Lock()
	s.results[paymentID] = resultChan
	s.mu.Unlock()

	// Create a copy of the event to avoid data races
	eventCopy := *event

	// Submit the task to the worker pool
	err := s.pool.Submit(func() {
		// Activate using the base service
		err := s.baseService.ActivateEntitlement(ctx, &eventCopy)

		// Send the result to the channel
		resultChan <- err

		// Remove the result channel from the map
		s.mu.Lock()
		delete(s.results, paymentID)
		close(resultChan)
		s.mu.Unlock()
	})

	if err != nil {
		// If we couldn't submit the task to the pool, remove the result channel
		s.mu.Lock()
		delete(s.results, paymentID)
		close(resultChan)
		s.mu.Unlock()

		logger.Error("Failed to submit activation to worker pool",
			"payment_id", event.PaymentID.String(),
			"error", err,
		)
		return err
	}

	// Wait for the result from the worker
	return <-resultChan
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolActivationService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolActivationService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolActivationService) Capacity() int {
	return s.pool.Cap()
}
