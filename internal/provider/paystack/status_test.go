package paystack

import (
	"testing"

	"github.com/skillpay-payments/internal/domain/payment"
	"github.com/stretchr/testify/assert"
)

func TestMapStatus(t *testing.T) {
	cases := []struct {
		providerStatus string
		expected       payment.Status
	}{
		{"success", payment.StatusCompleted},
		{"SUCCESS", payment.StatusCompleted},
		{"Success", payment.StatusCompleted},
		{"failed", payment.StatusFailed},
		{"abandoned", payment.StatusFailed},
		{"ABANDONED", payment.StatusFailed},
		{"pending", payment.StatusPending},
		{"ongoing", payment.StatusPending},
		// Unmodeled vocabulary must map conservatively, never to completed
		{"refunded", payment.StatusPending},
		{"reversed", payment.StatusPending},
		{"", payment.StatusPending},
	}

	for _, tc := range cases {
		t.Run("status_"+tc.providerStatus, func(t *testing.T) {
			assert.Equal(t, tc.expected, MapStatus(tc.providerStatus))
		})
	}
}
