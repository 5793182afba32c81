package service

import (
	"context"

	"github.com/skillpay-payments/internal/domain/observation"
	"github.com/skillpay-payments/internal/domain/payment"
	"github.com/skillpay-payments/internal/provider/paystack"
	"github.com/skillpay-payments/internal/reconciliation"
)

// CheckoutItem is one catalog line in a checkout request
type CheckoutItem struct {
	PlanID   string
	Quantity int
}

// CheckoutRequest carries a priced-server-side checkout initiation
type CheckoutRequest struct {
	OwnerID   string
	Email     string
	Items     []CheckoutItem
	RequestID string
}

// CheckoutResult is the outcome of a successful checkout initiation
type CheckoutResult struct {
	Payment          *payment.Payment
	AuthorizationURL string
	AccessCode       string
}

// StatusResult pairs the authoritative record with the provider's own status
// as seen during a poll. ProviderStatus is empty when the provider was not
// consulted, "not_found" when it has no record yet.
type StatusResult struct {
	Payment        *payment.Payment
	ProviderStatus string
}

// PaymentService defines the interface for payment operations
type PaymentService interface {
	// Checkout recomputes the order total from the catalog, creates a pending
	// payment and initializes it with the provider.
	// Returns ErrUnknownPlan for items not in the catalog.
	Checkout(ctx context.Context, req *CheckoutRequest) (*CheckoutResult, error)

	// PollStatus returns the authoritative status for a reference, verifying
	// against the provider first while the record is still pending.
	// Returns payment.ErrPaymentNotFound for unknown references.
	PollStatus(ctx context.Context, reference string, requestID string) (*StatusResult, error)

	// ListObservations retrieves the paginated observation audit trail for a
	// reference, newest first. Returns entries, total count, and any error.
	ListObservations(ctx context.Context, reference string, page, perPage int) ([]*observation.Entry, int64, error)
}

// WebhookResult is the outcome of processing one webhook delivery
type WebhookResult struct {
	Payment *payment.Payment
	Ignored bool // Event was irrelevant or referenced no local record
}

// WebhookService defines the interface for provider webhook processing
type WebhookService interface {
	// ProcessEvent authenticates the raw delivery against the provider
	// secret, parses it and feeds transaction events into reconciliation.
	// Returns ErrInvalidSignature when authentication fails.
	ProcessEvent(ctx context.Context, rawBody []byte, signature string, requestID string) (*WebhookResult, error)
}

// ReconciliationEngine is the slice of the reconciliation service the gateway
// depends on
type ReconciliationEngine interface {
	CreatePayment(ctx context.Context, p *payment.Payment) error
	GetByReference(ctx context.Context, reference string) (*payment.Payment, error)
	Observe(ctx context.Context, obs reconciliation.Observation) (*payment.Payment, error)
	FailInitiation(ctx context.Context, reference string, reason string) error
}

// ProviderClient is the provider API surface the gateway uses
type ProviderClient interface {
	Initialize(ctx context.Context, req *paystack.InitializeRequest) (*paystack.Authorization, error)
	Verify(ctx context.Context, reference string) (*paystack.Transaction, error)
}
