package reconciliation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/skillpay-payments/internal/domain/payment"
	"github.com/skillpay-payments/internal/domain/shared"
	"github.com/skillpay-payments/internal/platform/messaging/producers"
)

// EntitlementEventRunner publishes a completed-payment event to Kafka. The
// entitlement worker consumes it and activates the purchased plan; activation
// is keyed on the payment id, so a replayed event grants nothing twice.
type EntitlementEventRunner struct {
	publisher producers.MessagePublisher
	logger    *slog.Logger
}

// NewEntitlementEventRunner creates a runner backed by the given publisher
func NewEntitlementEventRunner(logger *slog.Logger, publisher producers.MessagePublisher) *EntitlementEventRunner {
	return &EntitlementEventRunner{
		publisher: publisher,
		logger:    logger,
	}
}

// OnCompleted emits the payment's completion event, keyed by provider
// reference so all events for one payment land on one partition
func (r *EntitlementEventRunner) OnCompleted(ctx context.Context, p *payment.Payment, requestID string) error {
	event := &shared.PaymentCompletedEvent{
		PaymentID:         p.ID,
		OwnerID:           p.OwnerID,
		ProviderReference: p.ProviderReference,
		PlanID:            p.Metadata["plan_id"],
		Amount:            p.Amount,
		Currency:          p.Currency,
		RequestID:         requestID,
		CompletedAt:       time.Now().UTC(),
	}

	if err := r.publisher.Publish(ctx, p.ProviderReference, event); err != nil {
		return fmt.Errorf("failed to publish payment completed event: %w", err)
	}

	r.logger.Info("Published payment completed event",
		"reference", p.ProviderReference,
		"payment_id", p.ID.String(),
		"owner_id", p.OwnerID,
	)
	return nil
}
