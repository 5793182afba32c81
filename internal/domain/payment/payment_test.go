package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("ValidPayment", func(t *testing.T) {
		p, err := New("user-1", 586000, "NGN", "paystack", "SKP-1700000000000-abc1234", map[string]string{"plan_id": "plan_standard"})
		require.NoError(t, err)
		assert.NotEqual(t, "", p.ID.String())
		assert.Equal(t, StatusPending, p.Status)
		assert.Equal(t, int64(586000), p.Amount)
		assert.False(t, p.SideEffectsExecuted)
		assert.Empty(t, p.ProviderTransactionID)
		assert.False(t, p.CreatedAt.IsZero())
	})

	t.Run("EmptyOwner", func(t *testing.T) {
		_, err := New("", 1000, "NGN", "paystack", "SKP-1", nil)
		assert.ErrorIs(t, err, ErrEmptyOwnerID)
	})

	t.Run("NonPositiveAmount", func(t *testing.T) {
		_, err := New("user-1", 0, "NGN", "paystack", "SKP-1", nil)
		assert.ErrorIs(t, err, ErrInvalidAmount)

		_, err = New("user-1", -50, "NGN", "paystack", "SKP-1", nil)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("BadCurrency", func(t *testing.T) {
		_, err := New("user-1", 1000, "NAIRA", "paystack", "SKP-1", nil)
		assert.ErrorIs(t, err, ErrInvalidCurrencyFormat)
	})

	t.Run("EmptyReference", func(t *testing.T) {
		_, err := New("user-1", 1000, "NGN", "paystack", "", nil)
		assert.ErrorIs(t, err, ErrEmptyReference)
	})
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.False(t, Status("refunded").Terminal())
}
