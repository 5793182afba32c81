// Package sweeper re-verifies stale pending payments against the provider.
// It is the safety net behind webhooks and client polls: a payment whose
// webhook was lost and whose customer never returned still reaches a
// terminal state through here.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/skillpay-payments/internal/config"
	"github.com/skillpay-payments/internal/domain/observation"
	"github.com/skillpay-payments/internal/domain/payment"
	"github.com/skillpay-payments/internal/provider/paystack"
	"github.com/skillpay-payments/internal/reconciliation"
)

// ProviderVerifier queries the provider for the authoritative transaction state
type ProviderVerifier interface {
	Verify(ctx context.Context, reference string) (*paystack.Transaction, error)
}

// Engine accepts status observations for reconciliation
type Engine interface {
	Observe(ctx context.Context, obs reconciliation.Observation) (*payment.Payment, error)
}

// Sweeper periodically re-verifies pending payments older than a cutoff
type Sweeper struct {
	payments     payment.Repository
	provider     ProviderVerifier
	engine       Engine
	logger       *slog.Logger
	pollInterval time.Duration
	batchSize    int
	pendingAge   time.Duration
}

func NewSweeper(
	cfg *config.SweeperConfig,
	payments payment.Repository,
	provider ProviderVerifier,
	engine Engine,
	logger *slog.Logger,
) *Sweeper {
	return &Sweeper{
		payments:     payments,
		provider:     provider,
		engine:       engine,
		logger:       logger,
		pollInterval: cfg.PollingInterval,
		batchSize:    cfg.BatchSize,
		pendingAge:   cfg.PendingAge,
	}
}

// Start begins sweeping until context is canceled
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("Starting reconciliation sweeper",
		"poll_interval", s.pollInterval.String(),
		"batch_size", s.batchSize,
		"pending_age", s.pendingAge.String(),
	)
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Reconciliation sweeper stopping due to context cancellation.")
			return
		case <-ticker.C:
			s.logger.Debug("Sweeper tick: re-verifying stale pending payments")
			if err := s.sweepOnce(ctx); err != nil {
				s.logger.Error("Error during sweep of stale pending payments", "error", err)
			}
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) error {
	cutoff := time.Now().Add(-s.pendingAge)
	stale, err := s.payments.ListStalePending(ctx, cutoff, s.batchSize)
	if err != nil {
		return fmt.Errorf("failed to list stale pending payments: %w", err)
	}

	if len(stale) == 0 {
		s.logger.Debug("No stale pending payments found.")
		return nil
	}

	s.logger.Info("Fetched stale pending payments for re-verification", "count", len(stale))

	for _, p := range stale {
		logger := s.logger.With("reference", p.ProviderReference)

		txn, err := s.provider.Verify(ctx, p.ProviderReference)
		if err != nil {
			if errors.Is(err, paystack.ErrTransactionNotFound) {
				// The provider has no record yet. The payment stays pending
				// and will be swept again next tick.
				logger.Debug("Provider has no record for stale payment yet")
				continue
			}
			if errors.Is(err, paystack.ErrUnavailable) {
				logger.Warn("Provider unavailable during sweep, will retry next tick", "error", err)
				continue
			}
			logger.Error("Failed to verify stale payment with provider", "error", err)
			continue
		}

		result, err := s.engine.Observe(ctx, reconciliation.Observation{
			Reference:             p.ProviderReference,
			ProviderStatus:        txn.Status,
			MappedStatus:          paystack.MapStatus(txn.Status),
			ProviderTransactionID: txn.TransactionID(),
			RawPayload:            txn.Raw,
			Channel:               observation.ChannelSweeper,
		})
		if err != nil {
			logger.Error("Failed to reconcile swept payment", "error", err)
			continue
		}

		logger.Info("Swept stale pending payment",
			"provider_status", txn.Status,
			"status", string(result.Status),
		)
	}
	return nil
}
