package observation

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/skillpay-payments/internal/domain/payment"
)

// Channel identifies which path delivered a status observation
type Channel string

const (
	ChannelWebhook    Channel = "webhook"
	ChannelPoll       Channel = "poll"
	ChannelSweeper    Channel = "sweeper"
	ChannelInitiation Channel = "initiation" // Provider rejected the initialize call
)

// Entry is one audit record per status observation fed into the
// reconciliation service, regardless of whether it changed the record.
type Entry struct {
	PaymentID         uuid.UUID       `json:"payment_id" bson:"payment_id"`
	ProviderReference string          `json:"provider_reference" bson:"provider_reference"`
	Channel           Channel         `json:"channel" bson:"channel"`
	ProviderStatus    string          `json:"provider_status" bson:"provider_status"`
	MappedStatus      payment.Status  `json:"mapped_status" bson:"mapped_status"`
	Applied           bool            `json:"applied" bson:"applied"` // False when the record was already terminal
	Payload           json.RawMessage `json:"payload,omitempty" bson:"payload,omitempty"`
	RequestID         string          `json:"request_id,omitempty" bson:"request_id,omitempty"`
	ObservedAt        time.Time       `json:"observed_at" bson:"observed_at"`
}
