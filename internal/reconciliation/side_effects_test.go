package reconciliation

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/skillpay-payments/internal/domain/payment"
	"github.com/skillpay-payments/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) Publish(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestEntitlementEventRunner_OnCompleted(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	ctx := context.Background()

	p, err := payment.New("owner-42", 15120, "USD", "paystack", "SKP-evt", map[string]string{"plan_id": "pro-monthly"})
	require.NoError(t, err)

	t.Run("publishes completion event keyed by reference", func(t *testing.T) {
		publisher := new(MockMessagePublisher)
		runner := NewEntitlementEventRunner(logger, publisher)

		publisher.On("Publish", ctx, "SKP-evt", mock.MatchedBy(func(v interface{}) bool {
			event, ok := v.(*shared.PaymentCompletedEvent)
			if !ok {
				return false
			}
			return event.PaymentID == p.ID &&
				event.OwnerID == "owner-42" &&
				event.PlanID == "pro-monthly" &&
				event.Amount == 15120 &&
				event.Currency == "USD" &&
				event.RequestID == "req-9"
		})).Return(nil).Once()

		err := runner.OnCompleted(ctx, p, "req-9")
		require.NoError(t, err)
		publisher.AssertExpectations(t)
	})

	t.Run("propagates publish failure", func(t *testing.T) {
		publisher := new(MockMessagePublisher)
		runner := NewEntitlementEventRunner(logger, publisher)
		pubErr := errors.New("broker unreachable")

		publisher.On("Publish", ctx, "SKP-evt", mock.Anything).Return(pubErr).Once()

		err := runner.OnCompleted(ctx, p, "")
		require.Error(t, err)
		assert.ErrorIs(t, err, pubErr)
		publisher.AssertExpectations(t)
	})
}
