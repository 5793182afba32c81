package entitlement

import (
	"context"

	"github.com/google/uuid"
)

// Repository manages entitlement persistence
type Repository interface {
	// Activate inserts the entitlement if no entitlement exists for its
	// payment id. Returns false when one already exists (idempotent replay).
	Activate(ctx context.Context, e *Entitlement) (bool, error)

	// GetByPaymentID retrieves the entitlement activated by a payment.
	// Returns ErrEntitlementNotFound if none exists.
	GetByPaymentID(ctx context.Context, paymentID uuid.UUID) (*Entitlement, error)
}

// ErrEntitlementNotFound indicates missing entitlement
type ErrEntitlementNotFound struct {
	PaymentID uuid.UUID
}

func (e ErrEntitlementNotFound) Error() string {
	return "entitlement not found for payment: " + e.PaymentID.String()
}

// Is implements the errors.Is interface for ErrEntitlementNotFound
func (e ErrEntitlementNotFound) Is(target error) bool {
	t, ok := target.(ErrEntitlementNotFound)
	if !ok {
		return false
	}
	if t.PaymentID == uuid.Nil {
		return true
	}
	return e.PaymentID == t.PaymentID
}
