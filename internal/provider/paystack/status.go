package paystack

import (
	"strings"

	"github.com/skillpay-payments/internal/domain/payment"
)

// MapStatus translates the provider's status vocabulary into the engine's
// internal status. Unrecognized tokens, including vocabulary the provider may
// add later such as "refunded", map to pending. An unknown status must never
// be treated as a completed payment.
func MapStatus(providerStatus string) payment.Status {
	switch strings.ToLower(providerStatus) {
	case "success":
		return payment.StatusCompleted
	case "failed", "abandoned":
		return payment.StatusFailed
	default:
		return payment.StatusPending
	}
}
