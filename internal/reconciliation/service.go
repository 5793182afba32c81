// Package reconciliation merges payment status observations from every
// delivery channel into one authoritative record. Webhooks, client polls and
// the background sweeper all funnel through Observe; the store's conditional
// updates resolve their races, so no channel is privileged over another.
package reconciliation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/skillpay-payments/internal/domain/observation"
	"github.com/skillpay-payments/internal/domain/payment"
)

// Observation is one provider status sighting, from any channel
type Observation struct {
	Reference             string
	ProviderStatus        string
	MappedStatus          payment.Status
	ProviderTransactionID string
	RawPayload            []byte
	Channel               observation.Channel
	RequestID             string
}

// Service is the reconciliation engine. It is the sole writer of payment
// state after creation.
type Service struct {
	payments     payment.Repository
	observations observation.Repository
	runner       SideEffectRunner
	logger       *slog.Logger
}

// NewService creates a reconciliation service. The observation repository and
// runner may be nil, which disables the audit trail and completion side
// effects respectively.
func NewService(logger *slog.Logger, payments payment.Repository, observations observation.Repository, runner SideEffectRunner) *Service {
	return &Service{
		payments:     payments,
		observations: observations,
		runner:       runner,
		logger:       logger,
	}
}

// CreatePayment registers a new pending payment record
func (s *Service) CreatePayment(ctx context.Context, p *payment.Payment) error {
	return s.payments.Create(ctx, p)
}

// GetByReference returns the current authoritative record for a reference
func (s *Service) GetByReference(ctx context.Context, reference string) (*payment.Payment, error) {
	return s.payments.GetByReference(ctx, reference)
}

// Observe feeds one status observation into the engine and returns the
// record as it stands afterwards. The same observation may arrive any number
// of times over any channel in any order; a terminal record never moves, and
// completion side effects run at most once regardless of how many channels
// report success.
//
// Returns payment.ErrPaymentNotFound when the reference has no local record.
func (s *Service) Observe(ctx context.Context, obs Observation) (*payment.Payment, error) {
	result, err := s.payments.ApplyOutcome(ctx, obs.Reference, obs.MappedStatus, obs.ProviderTransactionID, obs.RawPayload)
	if err != nil {
		return nil, err
	}

	applied := result.Status == obs.MappedStatus
	s.recordObservation(ctx, result, obs, applied)

	if !applied {
		s.logger.Info("Discarded late observation for terminal payment",
			"reference", obs.Reference,
			"channel", string(obs.Channel),
			"observed_status", string(obs.MappedStatus),
			"recorded_status", string(result.Status),
		)
		return result, nil
	}

	if result.Status == payment.StatusCompleted {
		s.runSideEffects(ctx, result, obs.RequestID)
	}

	return result, nil
}

// FailInitiation marks a payment failed before the provider ever accepted it,
// typically because the initialize call errored. Harmless if a provider
// outcome won the race in the meantime.
func (s *Service) FailInitiation(ctx context.Context, reference string, reason string) error {
	raw, err := json.Marshal(map[string]string{"error": reason})
	if err != nil {
		return fmt.Errorf("failed to marshal initiation failure: %w", err)
	}

	_, err = s.Observe(ctx, Observation{
		Reference:      reference,
		ProviderStatus: "initiation_failed",
		MappedStatus:   payment.StatusFailed,
		RawPayload:     raw,
		Channel:        observation.ChannelInitiation,
	})
	return err
}

// runSideEffects claims the per-payment guard and, having won it, invokes the
// runner. A failed run is logged but the guard stays set: the runner's work
// happens at most once, and recovery relies on the runner being idempotent
// downstream rather than on replaying it here.
func (s *Service) runSideEffects(ctx context.Context, p *payment.Payment, requestID string) {
	if s.runner == nil {
		return
	}

	claimed, err := s.payments.MarkSideEffectsExecuted(ctx, p.ID)
	if err != nil {
		s.logger.Error("Failed to claim side effect guard",
			"reference", p.ProviderReference,
			"payment_id", p.ID.String(),
			"error", err,
		)
		return
	}
	if !claimed {
		return
	}

	if err := s.runner.OnCompleted(ctx, p, requestID); err != nil {
		s.logger.Error("Completion side effects failed after guard was claimed",
			"reference", p.ProviderReference,
			"payment_id", p.ID.String(),
			"error", err,
		)
	}
}

// recordObservation appends an audit entry. The audit trail is best effort;
// a write failure must not fail the observation that produced it.
func (s *Service) recordObservation(ctx context.Context, p *payment.Payment, obs Observation, applied bool) {
	if s.observations == nil {
		return
	}

	entry := &observation.Entry{
		PaymentID:         p.ID,
		ProviderReference: obs.Reference,
		Channel:           obs.Channel,
		ProviderStatus:    obs.ProviderStatus,
		MappedStatus:      obs.MappedStatus,
		Applied:           applied,
		Payload:           obs.RawPayload,
		RequestID:         obs.RequestID,
		ObservedAt:        time.Now(),
	}

	if err := s.observations.Create(ctx, entry); err != nil {
		s.logger.Error("Failed to record status observation",
			"reference", obs.Reference,
			"channel", string(obs.Channel),
			"error", err,
		)
	}
}
