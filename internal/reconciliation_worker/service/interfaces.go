package service

import (
	"context"

	"github.com/skillpay-payments/internal/domain/shared"
)

// ActivationService defines the interface for activating entitlements from
// payment completion events.
type ActivationService interface {
	ActivateEntitlement(ctx context.Context, event *shared.PaymentCompletedEvent) error
}
