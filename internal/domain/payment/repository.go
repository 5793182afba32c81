package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines payment record persistence operations.
// Implementations must make ApplyOutcome and MarkSideEffectsExecuted atomic
// with respect to concurrent callers on the same reference; a read-modify-write
// across two round trips reintroduces the lost-update race between the poll
// and webhook paths.
type Repository interface {
	// Create stores a new payment record.
	// Returns ErrDuplicateReference if the provider reference already exists.
	Create(ctx context.Context, p *Payment) error

	// GetByReference retrieves a payment by its provider reference.
	// Returns ErrPaymentNotFound if no record exists.
	GetByReference(ctx context.Context, reference string) (*Payment, error)

	// ApplyOutcome conditionally applies an observed outcome to the record:
	// if the stored status is already terminal the call is a no-op and the
	// unchanged record is returned; otherwise the new status, the provider
	// transaction id (set once, never overwritten) and the raw observation
	// are persisted. The check-and-set must be a single atomic operation.
	ApplyOutcome(ctx context.Context, reference string, status Status, providerTxnID string, rawObservation []byte) (*Payment, error)

	// MarkSideEffectsExecuted atomically flips the side-effect guard from
	// false to true. Returns false if it was already set, which a racing
	// caller treats as "someone else ran the side effects".
	MarkSideEffectsExecuted(ctx context.Context, id uuid.UUID) (bool, error)

	// ListStalePending returns pending payments created before the cutoff,
	// oldest first, for the reconciliation sweeper.
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*Payment, error)
}

// ErrPaymentNotFound indicates a reference with no local record
type ErrPaymentNotFound struct {
	Reference string
}

func (e ErrPaymentNotFound) Error() string {
	return "payment not found: " + e.Reference
}

// Is implements the errors.Is interface for ErrPaymentNotFound
func (e ErrPaymentNotFound) Is(target error) bool {
	t, ok := target.(ErrPaymentNotFound)
	if !ok {
		return false
	}
	// An empty target reference matches any ErrPaymentNotFound
	if t.Reference == "" {
		return true
	}
	return e.Reference == t.Reference
}

// ErrDuplicateReference indicates a provider reference uniqueness violation
type ErrDuplicateReference struct {
	Reference string
}

func (e ErrDuplicateReference) Error() string {
	return "payment with provider reference already exists: " + e.Reference
}

// Is implements the errors.Is interface for ErrDuplicateReference
func (e ErrDuplicateReference) Is(target error) bool {
	t, ok := target.(ErrDuplicateReference)
	if !ok {
		return false
	}
	if t.Reference == "" {
		return true
	}
	return e.Reference == t.Reference
}
