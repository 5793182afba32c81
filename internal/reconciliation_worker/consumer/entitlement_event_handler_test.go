package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/skillpay-payments/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockActivationService for testing
type MockActivationService struct {
	mock.Mock
}

func (m *MockActivationService) ActivateEntitlement(ctx context.Context, event *shared.PaymentCompletedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockDeadLetterPublisher for testing
type MockDeadLetterPublisher struct {
	mock.Mock
}

func (m *MockDeadLetterPublisher) PublishToDLQ(ctx context.Context, key string, value []byte, reason string) error {
	args := m.Called(ctx, key, value, reason)
	return args.Error(0)
}

func (m *MockDeadLetterPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestHandleMessage(t *testing.T) {
	logger := slog.Default()

	validEvent := &shared.PaymentCompletedEvent{
		PaymentID:         uuid.New(),
		OwnerID:           "owner-42",
		ProviderReference: "SKP-1756720000000-x7k2m9",
		PlanID:            "pro-monthly",
		Amount:            7664,
		Currency:          "USD",
		RequestID:         "req-1",
		CompletedAt:       time.Now(),
	}

	validJSON, err := json.Marshal(validEvent)
	assert.NoError(t, err)

	tests := []struct {
		name          string
		key           []byte
		value         []byte
		setupMocks    func(svc *MockActivationService, dlq *MockDeadLetterPublisher)
		expectedError error
	}{
		{
			name:  "successful activation",
			key:   []byte("test-key"),
			value: validJSON,
			setupMocks: func(svc *MockActivationService, dlq *MockDeadLetterPublisher) {
				svc.On("ActivateEntitlement", mock.Anything, mock.MatchedBy(func(e *shared.PaymentCompletedEvent) bool {
					return e.PaymentID == validEvent.PaymentID
				})).Return(nil)
			},
			expectedError: nil,
		},
		{
			name:  "activation error",
			key:   []byte("test-key"),
			value: validJSON,
			setupMocks: func(svc *MockActivationService, dlq *MockDeadLetterPublisher) {
				svc.On("ActivateEntitlement", mock.Anything, mock.Anything).Return(errors.New("activation error"))
			},
			expectedError: errors.New("activating entitlement"),
		},
		{
			name:  "unmarshal error with successful DLQ publish",
			key:   []byte("test-key"),
			value: []byte("invalid json"),
			setupMocks: func(svc *MockActivationService, dlq *MockDeadLetterPublisher) {
				dlq.On("PublishToDLQ", mock.Anything, "test-key", []byte("invalid json"), mock.Anything).Return(nil)
			},
			expectedError: nil, // No error because message was successfully sent to DLQ
		},
		{
			name:  "unmarshal error with DLQ publish failure",
			key:   []byte("test-key"),
			value: []byte("invalid json"),
			setupMocks: func(svc *MockActivationService, dlq *MockDeadLetterPublisher) {
				dlq.On("PublishToDLQ", mock.Anything, "test-key", []byte("invalid json"), mock.Anything).Return(errors.New("dlq error"))
			},
			expectedError: errors.New("failed to unmarshal"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockActivationService := &MockActivationService{}
			mockDLQPublisher := &MockDeadLetterPublisher{}
			mockDLQPublisher.On("Close").Return(nil).Maybe()

			handler := NewEntitlementEventHandler(logger, mockActivationService, mockDLQPublisher)

			tt.setupMocks(mockActivationService, mockDLQPublisher)
			ctx := context.Background()

			err := handler.HandleMessage(ctx, tt.key, tt.value)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError.Error())
			} else {
				assert.NoError(t, err)
			}

			mockActivationService.AssertExpectations(t)
			mockDLQPublisher.AssertExpectations(t)
		})
	}
}
