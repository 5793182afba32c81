package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/skillpay-payments/internal/domain/shared"
	"github.com/skillpay-payments/internal/platform/messaging/producers"
	"github.com/skillpay-payments/internal/reconciliation_worker/service"
)

// EntitlementEventHandler handles incoming payment completion messages from Kafka
type EntitlementEventHandler struct {
	activationService service.ActivationService
	producer          producers.DeadLetterPublisher
	logger            *slog.Logger
}

// NewEntitlementEventHandler creates a new handler
func NewEntitlementEventHandler(
	logger *slog.Logger,
	activationService service.ActivationService,
	producer producers.DeadLetterPublisher,
) *EntitlementEventHandler {
	return &EntitlementEventHandler{
		activationService: activationService,
		producer:          producer,
		logger:            logger,
	}
}

// HandleMessage processes Kafka messages
func (h *EntitlementEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event shared.PaymentCompletedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal payment completion event from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		// Send to DLQ if available
		if h.producer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
				// Return original error if DLQ fails
			} else {
				h.logger.Info("Successfully published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
				// Message handled, commit offset
				return nil
			}
		}
		// Allow Kafka retries
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	// Add request ID to logger
	logger := h.logger
	if event.RequestID != "" {
		logger = h.logger.With("request_id", event.RequestID)
	}

	logger.Info("Received payment completion event",
		"payment_id", event.PaymentID.String(),
		"reference", event.ProviderReference,
		"owner_id", event.OwnerID,
		"amount", event.Amount,
	)

	if err := h.activationService.ActivateEntitlement(ctx, &event); err != nil {
		logger.Error("Failed to activate entitlement",
			"payment_id", event.PaymentID.String(),
			"reference", event.ProviderReference,
			"error", err,
		)
		return fmt.Errorf("activating entitlement for payment %s failed: %w", event.PaymentID.String(), err)
	}

	logger.Info("Successfully handled payment completion event", "payment_id", event.PaymentID.String())
	return nil // Success, commit offset
}
