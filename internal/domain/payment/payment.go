package payment

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrEmptyOwnerID          = errors.New("owner id cannot be empty")
	ErrEmptyReference        = errors.New("provider reference cannot be empty")
	ErrInvalidCurrencyFormat = errors.New("currency must be a 3-letter code")
)

// Status is the engine's internal three-valued payment status
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status permits no further transitions
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Payment represents one transaction attempt against the payment provider.
// The reconciliation service is the sole writer after creation; the status
// is monotonic once terminal, and SideEffectsExecuted flips false->true at
// most once per record.
type Payment struct {
	ID                    uuid.UUID         `json:"id"`
	OwnerID               string            `json:"owner_id"`
	Amount                int64             `json:"amount"` // Stored in cents/minor units
	Currency              string            `json:"currency"`
	Status                Status            `json:"status"`
	Provider              string            `json:"provider"`
	ProviderReference     string            `json:"provider_reference"`
	ProviderTransactionID string            `json:"provider_transaction_id,omitempty"`
	ProviderResponse      json.RawMessage   `json:"provider_response,omitempty"` // Last raw observation, for audit
	Metadata              map[string]string `json:"metadata,omitempty"`
	SideEffectsExecuted   bool              `json:"side_effects_executed"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

// New creates a pending payment record. Amount must already have been
// recomputed server side; client-supplied totals are never trusted.
func New(ownerID string, amount int64, currency, provider, reference string, metadata map[string]string) (*Payment, error) {
	if ownerID == "" {
		return nil, ErrEmptyOwnerID
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if len(currency) != 3 { // Basic validation for currency code length
		return nil, ErrInvalidCurrencyFormat
	}
	if reference == "" {
		return nil, ErrEmptyReference
	}

	now := time.Now()
	return &Payment{
		ID:                uuid.New(),
		OwnerID:           ownerID,
		Amount:            amount,
		Currency:          currency,
		Status:            StatusPending,
		Provider:          provider,
		ProviderReference: reference,
		Metadata:          metadata,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}
