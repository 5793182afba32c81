package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/skillpay-payments/internal/config"
	"github.com/skillpay-payments/internal/domain/observation"
	"github.com/skillpay-payments/internal/domain/payment"
	"github.com/skillpay-payments/internal/provider/paystack"
	"github.com/skillpay-payments/internal/reconciliation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockReconciliationEngine mocks the ReconciliationEngine interface
type MockReconciliationEngine struct {
	mock.Mock
}

func (m *MockReconciliationEngine) CreatePayment(ctx context.Context, p *payment.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockReconciliationEngine) GetByReference(ctx context.Context, reference string) (*payment.Payment, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockReconciliationEngine) Observe(ctx context.Context, obs reconciliation.Observation) (*payment.Payment, error) {
	args := m.Called(ctx, obs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockReconciliationEngine) FailInitiation(ctx context.Context, reference string, reason string) error {
	args := m.Called(ctx, reference, reason)
	return args.Error(0)
}

// MockProviderClient mocks the ProviderClient interface
type MockProviderClient struct {
	mock.Mock
}

func (m *MockProviderClient) Initialize(ctx context.Context, req *paystack.InitializeRequest) (*paystack.Authorization, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paystack.Authorization), args.Error(1)
}

func (m *MockProviderClient) Verify(ctx context.Context, reference string) (*paystack.Transaction, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paystack.Transaction), args.Error(1)
}

// MockObservationRepository mocks the observation.Repository interface
type MockObservationRepository struct {
	mock.Mock
}

func (m *MockObservationRepository) Create(ctx context.Context, entry *observation.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockObservationRepository) ListByReference(ctx context.Context, reference string, limit, offset int) ([]*observation.Entry, error) {
	args := m.Called(ctx, reference, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*observation.Entry), args.Error(1)
}

func (m *MockObservationRepository) CountByReference(ctx context.Context, reference string) (int64, error) {
	args := m.Called(ctx, reference)
	return args.Get(0).(int64), args.Error(1)
}

func newPaymentService(engine ReconciliationEngine, provider ProviderClient, observations observation.Repository) PaymentService {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewPaymentService(logger, engine, provider, DefaultCatalog(), observations, &config.ProviderConfig{
		CallbackURL: "https://shop.example.com/payment/callback",
	})
}

func pendingPayment(t *testing.T, reference string) *payment.Payment {
	t.Helper()
	p, err := payment.New("owner-42", 7664, "USD", "paystack", reference, map[string]string{"plan_id": "pro-monthly"})
	require.NoError(t, err)
	return p
}

func TestPaymentService_Checkout(t *testing.T) {
	ctx := context.Background()

	req := &CheckoutRequest{
		OwnerID: "owner-42",
		Email:   "buyer@example.com",
		Items:   []CheckoutItem{{PlanID: "pro-monthly", Quantity: 2}},
	}
	// 2 x 2900 = 5800, plus 8% tax (464) and shipping (1400).
	const expectedTotal = int64(7664)

	t.Run("successful checkout", func(t *testing.T) {
		engine := new(MockReconciliationEngine)
		provider := new(MockProviderClient)
		svc := newPaymentService(engine, provider, nil)

		engine.On("CreatePayment", ctx, mock.MatchedBy(func(p *payment.Payment) bool {
			return p.Amount == expectedTotal &&
				p.Currency == "USD" &&
				p.Status == payment.StatusPending &&
				p.Metadata["plan_id"] == "pro-monthly" &&
				strings.HasPrefix(p.ProviderReference, "SKP-")
		})).Return(nil).Once()

		provider.On("Initialize", ctx, mock.MatchedBy(func(r *paystack.InitializeRequest) bool {
			return r.Email == "buyer@example.com" &&
				r.Amount == expectedTotal &&
				r.Currency == "USD" &&
				r.CallbackURL == "https://shop.example.com/payment/callback" &&
				strings.HasPrefix(r.Reference, "SKP-")
		})).Return(&paystack.Authorization{
			AuthorizationURL: "https://checkout.paystack.com/abc123",
			AccessCode:       "abc123",
		}, nil).Once()

		result, err := svc.Checkout(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, expectedTotal, result.Payment.Amount)
		assert.Equal(t, "https://checkout.paystack.com/abc123", result.AuthorizationURL)
		assert.Equal(t, "abc123", result.AccessCode)
		engine.AssertExpectations(t)
		provider.AssertExpectations(t)
	})

	t.Run("unknown plan", func(t *testing.T) {
		engine := new(MockReconciliationEngine)
		provider := new(MockProviderClient)
		svc := newPaymentService(engine, provider, nil)

		result, err := svc.Checkout(ctx, &CheckoutRequest{
			OwnerID: "owner-42",
			Email:   "buyer@example.com",
			Items:   []CheckoutItem{{PlanID: "enterprise-galactic", Quantity: 1}},
		})
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrUnknownPlan{PlanID: "enterprise-galactic"})
		engine.AssertNotCalled(t, "CreatePayment")
		provider.AssertNotCalled(t, "Initialize")
	})

	t.Run("empty order", func(t *testing.T) {
		engine := new(MockReconciliationEngine)
		provider := new(MockProviderClient)
		svc := newPaymentService(engine, provider, nil)

		result, err := svc.Checkout(ctx, &CheckoutRequest{OwnerID: "owner-42", Email: "buyer@example.com"})
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrEmptyOrder)
	})

	t.Run("provider rejection marks payment failed", func(t *testing.T) {
		engine := new(MockReconciliationEngine)
		provider := new(MockProviderClient)
		svc := newPaymentService(engine, provider, nil)

		providerErr := errors.New("provider rejected initialization: invalid key")
		engine.On("CreatePayment", ctx, mock.Anything).Return(nil).Once()
		provider.On("Initialize", ctx, mock.Anything).Return(nil, providerErr).Once()
		engine.On("FailInitiation", ctx, mock.MatchedBy(func(ref string) bool {
			return strings.HasPrefix(ref, "SKP-")
		}), providerErr.Error()).Return(nil).Once()

		result, err := svc.Checkout(ctx, req)
		assert.Nil(t, result)
		require.Error(t, err)
		assert.ErrorIs(t, err, providerErr)
		engine.AssertExpectations(t)
		provider.AssertExpectations(t)
	})

	t.Run("store failure aborts before provider call", func(t *testing.T) {
		engine := new(MockReconciliationEngine)
		provider := new(MockProviderClient)
		svc := newPaymentService(engine, provider, nil)

		dbErr := errors.New("db down")
		engine.On("CreatePayment", ctx, mock.Anything).Return(dbErr).Once()

		result, err := svc.Checkout(ctx, req)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, dbErr)
		provider.AssertNotCalled(t, "Initialize")
	})
}

func TestPaymentService_PollStatus(t *testing.T) {
	ctx := context.Background()
	reference := "SKP-1756720000000-x7k2m9"

	t.Run("terminal record served without provider call", func(t *testing.T) {
		engine := new(MockReconciliationEngine)
		provider := new(MockProviderClient)
		svc := newPaymentService(engine, provider, nil)

		p := pendingPayment(t, reference)
		p.Status = payment.StatusCompleted
		engine.On("GetByReference", ctx, reference).Return(p, nil).Once()

		result, err := svc.PollStatus(ctx, reference, "req-1")
		require.NoError(t, err)
		assert.Equal(t, payment.StatusCompleted, result.Payment.Status)
		assert.Empty(t, result.ProviderStatus)
		provider.AssertNotCalled(t, "Verify")
	})

	t.Run("pending record settled by provider answer", func(t *testing.T) {
		engine := new(MockReconciliationEngine)
		provider := new(MockProviderClient)
		svc := newPaymentService(engine, provider, nil)

		p := pendingPayment(t, reference)
		completed := pendingPayment(t, reference)
		completed.Status = payment.StatusCompleted
		completed.ProviderTransactionID = "302961"

		engine.On("GetByReference", ctx, reference).Return(p, nil).Once()
		provider.On("Verify", ctx, reference).Return(&paystack.Transaction{
			ID:        302961,
			Reference: reference,
			Status:    "success",
			Amount:    7664,
			Currency:  "USD",
			Raw:       []byte(`{"id":302961,"status":"success"}`),
		}, nil).Once()
		engine.On("Observe", ctx, mock.MatchedBy(func(obs reconciliation.Observation) bool {
			return obs.Reference == reference &&
				obs.MappedStatus == payment.StatusCompleted &&
				obs.ProviderTransactionID == "302961" &&
				obs.Channel == observation.ChannelPoll &&
				obs.RequestID == "req-2"
		})).Return(completed, nil).Once()

		result, err := svc.PollStatus(ctx, reference, "req-2")
		require.NoError(t, err)
		assert.Equal(t, payment.StatusCompleted, result.Payment.Status)
		assert.Equal(t, "success", result.ProviderStatus)
		engine.AssertExpectations(t)
		provider.AssertExpectations(t)
	})

	t.Run("provider has no record yet", func(t *testing.T) {
		engine := new(MockReconciliationEngine)
		provider := new(MockProviderClient)
		svc := newPaymentService(engine, provider, nil)

		p := pendingPayment(t, reference)
		engine.On("GetByReference", ctx, reference).Return(p, nil).Once()
		provider.On("Verify", ctx, reference).Return(nil, paystack.ErrTransactionNotFound).Once()

		result, err := svc.PollStatus(ctx, reference, "")
		require.NoError(t, err)
		assert.Equal(t, payment.StatusPending, result.Payment.Status)
		assert.Equal(t, ProviderStatusNotFound, result.ProviderStatus)
		engine.AssertNotCalled(t, "Observe")
	})

	t.Run("provider unavailable serves local state", func(t *testing.T) {
		engine := new(MockReconciliationEngine)
		provider := new(MockProviderClient)
		svc := newPaymentService(engine, provider, nil)

		p := pendingPayment(t, reference)
		engine.On("GetByReference", ctx, reference).Return(p, nil).Once()
		provider.On("Verify", ctx, reference).Return(nil, paystack.ErrUnavailable).Once()

		result, err := svc.PollStatus(ctx, reference, "")
		require.NoError(t, err)
		assert.Equal(t, payment.StatusPending, result.Payment.Status)
		assert.Equal(t, ProviderStatusUnavailable, result.ProviderStatus)
	})

	t.Run("unknown reference", func(t *testing.T) {
		engine := new(MockReconciliationEngine)
		provider := new(MockProviderClient)
		svc := newPaymentService(engine, provider, nil)

		engine.On("GetByReference", ctx, "SKP-ghost").
			Return(nil, payment.ErrPaymentNotFound{Reference: "SKP-ghost"}).Once()

		result, err := svc.PollStatus(ctx, "SKP-ghost", "")
		assert.Nil(t, result)
		assert.ErrorIs(t, err, payment.ErrPaymentNotFound{Reference: "SKP-ghost"})
		provider.AssertNotCalled(t, "Verify")
	})
}

func TestPaymentService_ListObservations(t *testing.T) {
	ctx := context.Background()
	reference := "SKP-1756720000000-x7k2m9"

	observations := new(MockObservationRepository)
	svc := newPaymentService(new(MockReconciliationEngine), new(MockProviderClient), observations)

	entries := []*observation.Entry{{ProviderReference: reference, Channel: observation.ChannelWebhook}}
	observations.On("ListByReference", ctx, reference, 10, 20).Return(entries, nil).Once()
	observations.On("CountByReference", ctx, reference).Return(int64(21), nil).Once()

	got, total, err := svc.ListObservations(ctx, reference, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
	assert.Equal(t, int64(21), total)
	observations.AssertExpectations(t)
}

func TestCatalog_PriceOrder(t *testing.T) {
	catalog := DefaultCatalog()

	tests := []struct {
		name     string
		items    []CheckoutItem
		expected int64
		wantErr  error
	}{
		{
			name:     "single item",
			items:    []CheckoutItem{{PlanID: "starter-monthly", Quantity: 1}},
			expected: 900 + 72 + 1400,
		},
		{
			name: "mixed items",
			items: []CheckoutItem{
				{PlanID: "pro-monthly", Quantity: 2},
				{PlanID: "starter-monthly", Quantity: 1},
			},
			expected: 6700 + 536 + 1400,
		},
		{
			name:    "empty order",
			items:   nil,
			wantErr: ErrEmptyOrder,
		},
		{
			name:    "zero quantity",
			items:   []CheckoutItem{{PlanID: "pro-monthly", Quantity: 0}},
			wantErr: ErrInvalidQuantity,
		},
		{
			name:    "unknown plan",
			items:   []CheckoutItem{{PlanID: "nope", Quantity: 1}},
			wantErr: ErrUnknownPlan{PlanID: "nope"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, err := catalog.PriceOrder(tt.items)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, total)
		})
	}
}
