package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/skillpay-payments/internal/config"
	"github.com/skillpay-payments/internal/domain/observation"
	"github.com/skillpay-payments/internal/domain/payment"
	"github.com/skillpay-payments/internal/provider/paystack"
	"github.com/skillpay-payments/internal/reconciliation"
)

// ProviderStatusNotFound is reported on polls when the provider has no
// record for the reference yet
const ProviderStatusNotFound = "not_found"

// ProviderStatusUnavailable is reported on polls when the provider could not
// be reached; the local record is returned untouched
const ProviderStatusUnavailable = "unavailable"

// PaymentServiceImpl implements the PaymentService interface
type PaymentServiceImpl struct {
	engine       ReconciliationEngine
	provider     ProviderClient
	catalog      *Catalog
	observations observation.Repository
	callbackURL  string
	logger       *slog.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(logger *slog.Logger, engine ReconciliationEngine, provider ProviderClient, catalog *Catalog, observations observation.Repository, cfg *config.ProviderConfig) PaymentService {
	return &PaymentServiceImpl{
		engine:       engine,
		provider:     provider,
		catalog:      catalog,
		observations: observations,
		callbackURL:  cfg.CallbackURL,
		logger:       logger,
	}
}

// Checkout reprices the order, records a pending payment and initializes the
// transaction with the provider. If the provider rejects the initialization
// the payment is marked failed with the rejection as its raw observation.
func (s *PaymentServiceImpl) Checkout(ctx context.Context, req *CheckoutRequest) (*CheckoutResult, error) {
	total, err := s.catalog.PriceOrder(req.Items)
	if err != nil {
		return nil, err
	}

	metadata := map[string]string{
		"plan_id": req.Items[0].PlanID,
		"email":   req.Email,
	}

	reference := newReference()
	p, err := payment.New(req.OwnerID, total, s.catalog.Currency(), paystack.ProviderName, reference, metadata)
	if err != nil {
		return nil, err
	}

	if err := s.engine.CreatePayment(ctx, p); err != nil {
		s.logger.Error("Failed to create payment record",
			"reference", reference,
			"owner_id", req.OwnerID,
			"error", err,
		)
		return nil, err
	}

	auth, err := s.provider.Initialize(ctx, &paystack.InitializeRequest{
		Email:       req.Email,
		Amount:      total,
		Currency:    s.catalog.Currency(),
		Reference:   reference,
		CallbackURL: s.callbackURL,
		Metadata:    metadata,
	})
	if err != nil {
		s.logger.Error("Provider initialization failed",
			"reference", reference,
			"error", err,
		)
		if failErr := s.engine.FailInitiation(ctx, reference, err.Error()); failErr != nil {
			s.logger.Error("Failed to mark payment as failed after initialization error",
				"reference", reference,
				"error", failErr,
			)
		}
		return nil, fmt.Errorf("failed to initialize payment: %w", err)
	}

	s.logger.Info("Payment initiated",
		"reference", reference,
		"owner_id", req.OwnerID,
		"amount", total,
		"currency", s.catalog.Currency(),
	)

	return &CheckoutResult{
		Payment:          p,
		AuthorizationURL: auth.AuthorizationURL,
		AccessCode:       auth.AccessCode,
	}, nil
}

// PollStatus returns the authoritative status for a reference. While the
// record is non-terminal the provider is consulted and its answer fed through
// the reconciliation engine, so a poll can settle a payment whose webhook
// never arrived. Terminal records are served locally without a provider call.
func (s *PaymentServiceImpl) PollStatus(ctx context.Context, reference string, requestID string) (*StatusResult, error) {
	p, err := s.engine.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	if p.Status.Terminal() {
		return &StatusResult{Payment: p}, nil
	}

	txn, err := s.provider.Verify(ctx, reference)
	if err != nil {
		if errors.Is(err, paystack.ErrTransactionNotFound) {
			// The provider has not seen the transaction yet. Still pending.
			return &StatusResult{Payment: p, ProviderStatus: ProviderStatusNotFound}, nil
		}
		if errors.Is(err, paystack.ErrUnavailable) {
			s.logger.Warn("Provider unavailable during poll, serving local state",
				"reference", reference,
				"error", err,
			)
			return &StatusResult{Payment: p, ProviderStatus: ProviderStatusUnavailable}, nil
		}
		return nil, err
	}

	updated, err := s.engine.Observe(ctx, reconciliation.Observation{
		Reference:             reference,
		ProviderStatus:        txn.Status,
		MappedStatus:          paystack.MapStatus(txn.Status),
		ProviderTransactionID: txn.TransactionID(),
		RawPayload:            txn.Raw,
		Channel:               observation.ChannelPoll,
		RequestID:             requestID,
	})
	if err != nil {
		return nil, err
	}

	return &StatusResult{Payment: updated, ProviderStatus: txn.Status}, nil
}

// ListObservations retrieves the paginated observation audit trail for a
// reference, newest first
func (s *PaymentServiceImpl) ListObservations(ctx context.Context, reference string, page, perPage int) ([]*observation.Entry, int64, error) {
	offset := (page - 1) * perPage

	entries, err := s.observations.ListByReference(ctx, reference, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.observations.CountByReference(ctx, reference)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// newReference generates a provider reference in the SKP-<millis>-<rand>
// shape. Uniqueness is enforced by the payments table, not assumed here.
func newReference() string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("SKP-%d-%s", time.Now().UnixMilli(), suffix)
}
