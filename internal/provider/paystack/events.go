package paystack

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// EventType is the provider's webhook event discriminator
type EventType string

const (
	EventChargeSuccess EventType = "charge.success"
	EventChargeFailed  EventType = "charge.failed"
)

// Event is the typed webhook envelope. Unknown event types parse fine and
// keep their raw Type value; TransactionEvent decides relevance, so there is
// no untyped property access anywhere downstream.
type Event struct {
	Type EventType `json:"event"`
	Data EventData `json:"data"`
}

// EventData carries the transaction fields the engine consumes
type EventData struct {
	ID        int64           `json:"id"` // Provider-assigned transaction id
	Reference string          `json:"reference"`
	Status    string          `json:"status"`
	Amount    int64           `json:"amount"`
	Currency  string          `json:"currency"`
	PaidAt    string          `json:"paid_at,omitempty"`
	Raw       json.RawMessage `json:"-"` // The data object as received, kept for audit
}

// ParseEvent decodes a verified webhook body into the typed envelope
func ParseEvent(rawBody []byte) (*Event, error) {
	var envelope struct {
		Event EventType       `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rawBody, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse webhook envelope: %w", err)
	}
	if envelope.Event == "" {
		return nil, fmt.Errorf("webhook envelope has no event type")
	}

	event := &Event{Type: envelope.Event}
	if len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, &event.Data); err != nil {
			return nil, fmt.Errorf("failed to parse webhook event data: %w", err)
		}
		event.Data.Raw = envelope.Data
	}

	return event, nil
}

// TransactionEvent reports whether this event carries a transaction status
// the reconciliation engine should observe. Everything else (transfers,
// disputes, future event families) is acknowledged and ignored.
func (e *Event) TransactionEvent() bool {
	return strings.HasPrefix(string(e.Type), "charge.")
}

// TransactionID renders the provider's numeric transaction id, or "" when absent
func (e *Event) TransactionID() string {
	if e.Data.ID == 0 {
		return ""
	}
	return strconv.FormatInt(e.Data.ID, 10)
}
