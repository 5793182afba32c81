package handler

// CheckoutItemRequest is one catalog line in a checkout request
type CheckoutItemRequest struct {
	PlanID   string `json:"plan_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
}

// CheckoutRequest represents a request to initiate a payment. No amount
// field: totals are always recomputed server side from the catalog.
type CheckoutRequest struct {
	OwnerID string                `json:"owner_id" binding:"required"`
	Email   string                `json:"email" binding:"required,email"`
	Items   []CheckoutItemRequest `json:"items" binding:"required,min=1,dive"`
}

// CheckoutResponse represents an initiated payment in API responses
type CheckoutResponse struct {
	Reference        string `json:"reference"`
	Status           string `json:"status"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code,omitempty"`
	CreatedAt        string `json:"created_at"`
}

// StatusResponse represents a payment's reconciled status in API responses
type StatusResponse struct {
	Reference             string `json:"reference"`
	Status                string `json:"status"`
	ProviderStatus        string `json:"provider_status,omitempty"`
	ProviderTransactionID string `json:"provider_transaction_id,omitempty"`
	Amount                int64  `json:"amount"`
	Currency              string `json:"currency"`
	UpdatedAt             string `json:"updated_at"`
}

// ObservationResponse represents one audit trail entry in API responses
type ObservationResponse struct {
	Channel        string `json:"channel"`
	ProviderStatus string `json:"provider_status"`
	MappedStatus   string `json:"mapped_status"`
	Applied        bool   `json:"applied"`
	RequestID      string `json:"request_id,omitempty"`
	ObservedAt     string `json:"observed_at"`
}

// WebhookAckResponse acknowledges a processed webhook delivery
type WebhookAckResponse struct {
	Received bool `json:"received"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}
