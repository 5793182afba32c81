package entitlement

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/skillpay-payments/internal/domain/shared"
)

var (
	ErrEmptyOwnerID = errors.New("owner id cannot be empty")
	ErrEmptyPlanID  = errors.New("plan id cannot be empty")
	ErrNilPaymentID = errors.New("payment id cannot be nil")
)

// Entitlement is a post-payment grant: one row per completed payment.
// Activation is keyed by payment id, which makes re-activation a no-op and
// the whole side-effect chain safe to retry.
type Entitlement struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     string    `json:"owner_id"`
	PlanID      string    `json:"plan_id"`
	PaymentID   uuid.UUID `json:"payment_id"`
	ActivatedAt time.Time `json:"activated_at"`
}

// FromPaymentCompleted builds the entitlement activated by a payment event
func FromPaymentCompleted(event *shared.PaymentCompletedEvent) (*Entitlement, error) {
	if event.OwnerID == "" {
		return nil, ErrEmptyOwnerID
	}
	if event.PlanID == "" {
		return nil, ErrEmptyPlanID
	}
	if event.PaymentID == uuid.Nil {
		return nil, ErrNilPaymentID
	}

	return &Entitlement{
		ID:          uuid.New(),
		OwnerID:     event.OwnerID,
		PlanID:      event.PlanID,
		PaymentID:   event.PaymentID,
		ActivatedAt: time.Now(),
	}, nil
}
