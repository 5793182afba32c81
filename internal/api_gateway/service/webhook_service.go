package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/skillpay-payments/internal/domain/observation"
	"github.com/skillpay-payments/internal/domain/payment"
	"github.com/skillpay-payments/internal/provider/paystack"
	"github.com/skillpay-payments/internal/reconciliation"
)

// ErrInvalidSignature means the webhook body did not authenticate against
// the provider secret. Such deliveries carry no trustworthy information and
// must be rejected before parsing.
var ErrInvalidSignature = errors.New("webhook signature verification failed")

// ErrMalformedEvent means an authenticated delivery could not be parsed.
// Redelivery will not fix it, so callers should reject rather than retry.
var ErrMalformedEvent = errors.New("malformed webhook event")

// WebhookServiceImpl implements the WebhookService interface
type WebhookServiceImpl struct {
	engine ReconciliationEngine
	secret []byte
	logger *slog.Logger
}

// NewWebhookService creates a new webhook service
func NewWebhookService(logger *slog.Logger, engine ReconciliationEngine, secret string) WebhookService {
	return &WebhookServiceImpl{
		engine: engine,
		secret: []byte(secret),
		logger: logger,
	}
}

// ProcessEvent authenticates, parses and applies one webhook delivery.
// Irrelevant events and unknown references are acknowledged as ignored so
// the provider stops redelivering them; persistence failures are returned as
// errors so it retries.
func (s *WebhookServiceImpl) ProcessEvent(ctx context.Context, rawBody []byte, signature string, requestID string) (*WebhookResult, error) {
	if !paystack.VerifySignature(rawBody, signature, s.secret) {
		return nil, ErrInvalidSignature
	}

	event, err := paystack.ParseEvent(rawBody)
	if err != nil {
		s.logger.Error("Failed to parse webhook event", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	if !event.TransactionEvent() {
		s.logger.Info("Ignoring non-transaction webhook event", "type", string(event.Type))
		return &WebhookResult{Ignored: true}, nil
	}

	updated, err := s.engine.Observe(ctx, reconciliation.Observation{
		Reference:             event.Data.Reference,
		ProviderStatus:        event.Data.Status,
		MappedStatus:          paystack.MapStatus(event.Data.Status),
		ProviderTransactionID: event.TransactionID(),
		RawPayload:            rawBody,
		Channel:               observation.ChannelWebhook,
		RequestID:             requestID,
	})
	if err != nil {
		if errors.Is(err, payment.ErrPaymentNotFound{}) {
			// The provider knows a reference we never issued, or the record
			// was purged. Nothing to reconcile; ack so it stops retrying.
			s.logger.Warn("Webhook for unknown reference",
				"reference", event.Data.Reference,
				"type", string(event.Type),
			)
			return &WebhookResult{Ignored: true}, nil
		}
		return nil, err
	}

	return &WebhookResult{Payment: updated}, nil
}
