package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/skillpay-payments/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockActivationService mocks the ActivationService interface
type MockActivationService struct {
	mock.Mock
}

func (m *MockActivationService) ActivateEntitlement(ctx context.Context, event *shared.PaymentCompletedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func TestWorkerPoolActivationService_ActivateEntitlement(t *testing.T) {
	logger := slog.Default()

	event := validEvent()

	tests := []struct {
		name          string
		setupMocks    func(m *MockActivationService)
		expectedError error
	}{
		{
			name: "successful activation",
			setupMocks: func(m *MockActivationService) {
				m.On("ActivateEntitlement", mock.Anything, mock.MatchedBy(func(e *shared.PaymentCompletedEvent) bool {
					return e.PaymentID == event.PaymentID
				})).Return(nil).Once()
			},
			expectedError: nil,
		},
		{
			name: "activation error",
			setupMocks: func(m *MockActivationService) {
				m.On("ActivateEntitlement", mock.Anything, mock.Anything).Return(errors.New("activation error")).Once()
			},
			expectedError: errors.New("activation error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockBaseService := &MockActivationService{}

			workerPoolService, err := NewWorkerPoolActivationService(
				mockBaseService,
				WorkerPoolConfig{
					Size: 2,
				},
				logger,
			)
			assert.NoError(t, err)
			defer workerPoolService.Shutdown()

			tt.setupMocks(mockBaseService)
			ctx := context.Background()

			err = workerPoolService.ActivateEntitlement(ctx, event)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError.Error())
			} else {
				assert.NoError(t, err)
			}

			mockBaseService.AssertExpectations(t)
		})
	}
}

func TestWorkerPoolActivationService_Concurrency(t *testing.T) {
	mockBaseService := &MockActivationService{}
	logger := slog.Default()

	workerPoolService, err := NewWorkerPoolActivationService(
		mockBaseService,
		WorkerPoolConfig{
			Size: 5,
		},
		logger,
	)
	assert.NoError(t, err)
	defer workerPoolService.Shutdown()

	var mu sync.Mutex
	counter := 0

	mockBaseService.On("ActivateEntitlement", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		// Simulate some work
		time.Sleep(10 * time.Millisecond)

		mu.Lock()
		counter++
		mu.Unlock()
	}).Return(nil)

	numEvents := 10
	var wg sync.WaitGroup
	wg.Add(numEvents)

	for i := 0; i < numEvents; i++ {
		go func() {
			defer wg.Done()

			event := validEvent()
			event.PaymentID = uuid.New()

			ctx := context.Background()
			err := workerPoolService.ActivateEntitlement(ctx, event)
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	assert.Equal(t, numEvents, counter)

	assert.True(t, workerPoolService.Running() > 0)
	assert.Equal(t, 5, workerPoolService.Capacity())
}
