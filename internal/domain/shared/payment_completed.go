package shared

import (
	"time"

	"github.com/google/uuid"
)

// PaymentCompletedEvent is the Kafka message emitted exactly once per payment
// on its first transition to completed. The entitlement worker consumes it;
// downstream activation is idempotent on PaymentID, so redelivery is harmless.
type PaymentCompletedEvent struct {
	PaymentID         uuid.UUID `json:"payment_id"`
	OwnerID           string    `json:"owner_id"`
	ProviderReference string    `json:"provider_reference"`
	PlanID            string    `json:"plan_id,omitempty"`
	Amount            int64     `json:"amount"` // Stored in cents/minor units
	Currency          string    `json:"currency"`
	RequestID         string    `json:"request_id,omitempty"`
	CompletedAt       time.Time `json:"completed_at"`
}
