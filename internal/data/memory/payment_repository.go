// Package memory provides an in-process payment store with the same
// atomicity contract as the PostgreSQL implementation. It backs local
// development and the reconciliation service tests, where spinning up a
// database is not worth the trouble.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/skillpay-payments/internal/domain/payment"
)

// PaymentRepository implements payment.Repository over a mutex-guarded map.
// A single lock covers every operation, so the conditional updates are atomic
// exactly as their SQL counterparts are.
type PaymentRepository struct {
	mu    sync.Mutex
	byRef map[string]*payment.Payment
	byID  map[uuid.UUID]*payment.Payment
}

// NewPaymentRepository creates an empty in-memory payment repository
func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{
		byRef: make(map[string]*payment.Payment),
		byID:  make(map[uuid.UUID]*payment.Payment),
	}
}

// Create stores a new payment record
func (r *PaymentRepository) Create(_ context.Context, p *payment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byRef[p.ProviderReference]; exists {
		return payment.ErrDuplicateReference{Reference: p.ProviderReference}
	}

	stored := clone(p)
	r.byRef[p.ProviderReference] = stored
	r.byID[p.ID] = stored
	return nil
}

// GetByReference retrieves a payment by its provider reference
func (r *PaymentRepository) GetByReference(_ context.Context, reference string) (*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byRef[reference]
	if !ok {
		return nil, payment.ErrPaymentNotFound{Reference: reference}
	}
	return clone(stored), nil
}

// ApplyOutcome conditionally applies an observed outcome under the lock.
// Terminal records are returned unchanged.
func (r *PaymentRepository) ApplyOutcome(_ context.Context, reference string, status payment.Status, providerTxnID string, rawObservation []byte) (*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byRef[reference]
	if !ok {
		return nil, payment.ErrPaymentNotFound{Reference: reference}
	}

	if stored.Status.Terminal() {
		return clone(stored), nil
	}

	stored.Status = status
	if stored.ProviderTransactionID == "" {
		stored.ProviderTransactionID = providerTxnID
	}
	stored.ProviderResponse = append(json.RawMessage(nil), rawObservation...)
	stored.UpdatedAt = time.Now()

	return clone(stored), nil
}

// MarkSideEffectsExecuted flips the side-effect guard, returning true only
// for the caller that performed the flip
func (r *PaymentRepository) MarkSideEffectsExecuted(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return false, payment.ErrPaymentNotFound{}
	}

	if stored.SideEffectsExecuted {
		return false, nil
	}
	stored.SideEffectsExecuted = true
	stored.UpdatedAt = time.Now()
	return true, nil
}

// ListStalePending returns pending payments created before the cutoff, oldest first
func (r *PaymentRepository) ListStalePending(_ context.Context, olderThan time.Time, limit int) ([]*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stale []*payment.Payment
	for _, stored := range r.byRef {
		if stored.Status == payment.StatusPending && stored.CreatedAt.Before(olderThan) {
			stale = append(stale, clone(stored))
		}
	}

	sort.Slice(stale, func(i, j int) bool { return stale[i].CreatedAt.Before(stale[j].CreatedAt) })
	if limit > 0 && len(stale) > limit {
		stale = stale[:limit]
	}
	return stale, nil
}

func clone(p *payment.Payment) *payment.Payment {
	c := *p
	c.ProviderResponse = append(json.RawMessage(nil), p.ProviderResponse...)
	if p.Metadata != nil {
		c.Metadata = make(map[string]string, len(p.Metadata))
		for k, v := range p.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
