package reconciliation

import (
	"context"

	"github.com/skillpay-payments/internal/domain/payment"
)

// SideEffectRunner executes the actions owed on a payment's first transition
// to completed. The service guarantees at most one invocation per payment;
// implementations do not need their own deduplication, though idempotent
// runners tolerate crashes between the guard flip and the run.
type SideEffectRunner interface {
	OnCompleted(ctx context.Context, p *payment.Payment, requestID string) error
}
