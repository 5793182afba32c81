package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/skillpay-payments/internal/domain/entitlement"
	"github.com/skillpay-payments/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockEntitlementRepository mocks the entitlement.Repository interface
type MockEntitlementRepository struct {
	mock.Mock
}

func (m *MockEntitlementRepository) Activate(ctx context.Context, e *entitlement.Entitlement) (bool, error) {
	args := m.Called(ctx, e)
	return args.Bool(0), args.Error(1)
}

func (m *MockEntitlementRepository) GetByPaymentID(ctx context.Context, paymentID uuid.UUID) (*entitlement.Entitlement, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entitlement.Entitlement), args.Error(1)
}

func validEvent() *shared.PaymentCompletedEvent {
	return &shared.PaymentCompletedEvent{
		PaymentID:         uuid.New(),
		OwnerID:           "owner-42",
		ProviderReference: "SKP-1756720000000-x7k2m9",
		PlanID:            "pro-monthly",
		Amount:            7664,
		Currency:          "USD",
		RequestID:         "req-1",
		CompletedAt:       time.Now(),
	}
}

func TestActivationService_ActivateEntitlement(t *testing.T) {
	logger := slog.Default()

	t.Run("ActivatesNewEntitlement", func(t *testing.T) {
		mockRepo := &MockEntitlementRepository{}
		svc := NewActivationService(logger, mockRepo)
		event := validEvent()

		mockRepo.On("Activate", mock.Anything, mock.MatchedBy(func(e *entitlement.Entitlement) bool {
			return e.PaymentID == event.PaymentID &&
				e.OwnerID == event.OwnerID &&
				e.PlanID == event.PlanID
		})).Return(true, nil)

		err := svc.ActivateEntitlement(context.Background(), event)

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("RedeliveredEventIsAcknowledged", func(t *testing.T) {
		mockRepo := &MockEntitlementRepository{}
		svc := NewActivationService(logger, mockRepo)
		event := validEvent()

		mockRepo.On("Activate", mock.Anything, mock.Anything).Return(false, nil)

		err := svc.ActivateEntitlement(context.Background(), event)

		// The grant already exists. The event must still commit so the
		// consumer stops redelivering it.
		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("MissingPlanIsNotRetried", func(t *testing.T) {
		mockRepo := &MockEntitlementRepository{}
		svc := NewActivationService(logger, mockRepo)
		event := validEvent()
		event.PlanID = ""

		err := svc.ActivateEntitlement(context.Background(), event)

		assert.NoError(t, err)
		mockRepo.AssertNotCalled(t, "Activate")
	})

	t.Run("RepositoryErrorIsRetried", func(t *testing.T) {
		mockRepo := &MockEntitlementRepository{}
		svc := NewActivationService(logger, mockRepo)
		event := validEvent()

		mockRepo.On("Activate", mock.Anything, mock.Anything).Return(false, errors.New("db down"))

		err := svc.ActivateEntitlement(context.Background(), event)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to activate entitlement")
	})
}
