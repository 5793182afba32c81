package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/skillpay-payments/internal/config"
)

// Common errors
var (
	// ErrUnavailable signals a transient failure reaching the provider.
	// Callers may retry; the engine's state is unaffected.
	ErrUnavailable = errors.New("payment provider unavailable")

	// ErrTransactionNotFound means the provider has no record for the
	// reference yet. The poll path reports this as "still pending".
	ErrTransactionNotFound = errors.New("transaction not found at provider")
)

// ProviderName identifies this provider in payment records
const ProviderName = "paystack"

// Client calls the provider's REST API with bearer auth
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
	logger     *slog.Logger
}

// NewClient creates a provider API client from configuration
func NewClient(logger *slog.Logger, cfg *config.ProviderConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		secretKey:  cfg.SecretKey,
		logger:     logger,
	}
}

// InitializeRequest is the payload for creating a provider transaction
type InitializeRequest struct {
	Email       string            `json:"email"`
	Amount      int64             `json:"amount"` // Minor units
	Currency    string            `json:"currency"`
	Reference   string            `json:"reference"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Authorization is the provider's answer to a successful initialization
type Authorization struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// Transaction is the provider's view of a transaction, returned by Verify
type Transaction struct {
	ID              int64           `json:"id"`
	Reference       string          `json:"reference"`
	Status          string          `json:"status"`
	Amount          int64           `json:"amount"`
	Currency        string          `json:"currency"`
	GatewayResponse string          `json:"gateway_response,omitempty"`
	PaidAt          string          `json:"paid_at,omitempty"`
	Raw             json.RawMessage `json:"-"` // Response data as received, kept for audit
}

// TransactionID renders the provider's numeric transaction id, or "" when absent
func (t *Transaction) TransactionID() string {
	if t.ID == 0 {
		return ""
	}
	return fmt.Sprintf("%d", t.ID)
}

// envelope is the provider's standard response wrapper
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Initialize creates a transaction at the provider and returns the URL the
// customer must be redirected to for payment.
func (c *Client) Initialize(ctx context.Context, req *InitializeRequest) (*Authorization, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal initialize request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build initialize request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("Provider initialize call failed", "reference", req.Reference, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	env, err := decodeEnvelope(resp)
	if err != nil {
		c.logger.Error("Provider initialize response unreadable", "reference", req.Reference, "error", err)
		return nil, err
	}
	if !env.Status {
		return nil, fmt.Errorf("provider rejected initialization: %s", env.Message)
	}

	var auth Authorization
	if err := json.Unmarshal(env.Data, &auth); err != nil {
		return nil, fmt.Errorf("failed to parse authorization data: %w", err)
	}
	if auth.AuthorizationURL == "" {
		return nil, errors.New("provider returned no authorization url")
	}

	return &auth, nil
}

// Verify queries the provider for the authoritative state of a transaction.
// Returns ErrTransactionNotFound when the provider has no record for the
// reference, and ErrUnavailable (wrapped) on transport or server failures.
func (c *Client) Verify(ctx context.Context, reference string) (*Transaction, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/transaction/verify/"+url.PathEscape(reference), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build verify request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("Provider verify call failed", "reference", reference, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrTransactionNotFound
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: provider returned %d", ErrUnavailable, resp.StatusCode)
	}

	env, err := decodeEnvelope(resp)
	if err != nil {
		c.logger.Error("Provider verify response unreadable", "reference", reference, "error", err)
		return nil, err
	}
	if !env.Status {
		// The provider reports unknown references through a false-status
		// envelope as well as through a 404.
		c.logger.Info("Provider has no record for reference", "reference", reference, "message", env.Message)
		return nil, ErrTransactionNotFound
	}

	var txn Transaction
	if err := json.Unmarshal(env.Data, &txn); err != nil {
		return nil, fmt.Errorf("failed to parse transaction data: %w", err)
	}
	txn.Raw = env.Data

	return &txn, nil
}

func decodeEnvelope(resp *http.Response) (*envelope, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrUnavailable, err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode provider response: %w", err)
	}
	return &env, nil
}
