package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/skillpay-payments/internal/domain/entitlement"
	"github.com/skillpay-payments/internal/domain/shared"
)

type ActivationServiceImpl struct {
	entitlements entitlement.Repository
	logger       *slog.Logger
}

func NewActivationService(logger *slog.Logger, entitlements entitlement.Repository) ActivationService {
	return &ActivationServiceImpl{
		entitlements: entitlements,
		logger:       logger,
	}
}

// ActivateEntitlement grants the entitlement for a completed payment. The
// insert is keyed by payment id, so redelivered events are acknowledged
// without a second grant.
func (s *ActivationServiceImpl) ActivateEntitlement(ctx context.Context, event *shared.PaymentCompletedEvent) error {
	logger := s.logger
	if event.RequestID != "" {
		logger = s.logger.With("request_id", event.RequestID)
	}

	logger.Info("Activating entitlement",
		"payment_id", event.PaymentID.String(),
		"owner_id", event.OwnerID,
		"plan_id", event.PlanID,
	)

	e, err := entitlement.FromPaymentCompleted(event)
	if err != nil {
		// Validation failures cannot succeed on redelivery. Acknowledge and
		// leave the record for manual follow up.
		if errors.Is(err, entitlement.ErrEmptyOwnerID) ||
			errors.Is(err, entitlement.ErrEmptyPlanID) ||
			errors.Is(err, entitlement.ErrNilPaymentID) {
			logger.Error("Rejected unprocessable payment completion event",
				"payment_id", event.PaymentID.String(),
				"reference", event.ProviderReference,
				"error", err,
			)
			return nil
		}
		return fmt.Errorf("failed to build entitlement for payment %s: %w", event.PaymentID.String(), err)
	}

	activated, err := s.entitlements.Activate(ctx, e)
	if err != nil {
		logger.Error("Failed to activate entitlement",
			"payment_id", event.PaymentID.String(),
			"owner_id", event.OwnerID,
			"error", err,
		)
		return fmt.Errorf("failed to activate entitlement for payment %s: %w", event.PaymentID.String(), err)
	}

	if !activated {
		logger.Info("Entitlement already active, skipping redelivered event",
			"payment_id", event.PaymentID.String(),
			"owner_id", event.OwnerID,
		)
		return nil
	}

	logger.Info("Successfully activated entitlement",
		"entitlement_id", e.ID.String(),
		"payment_id", event.PaymentID.String(),
		"owner_id", event.OwnerID,
		"plan_id", event.PlanID,
	)
	return nil
}
