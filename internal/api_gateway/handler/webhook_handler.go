package handler

import (
	"errors"
	"io"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/skillpay-payments/internal/api_gateway/middleware"
	"github.com/skillpay-payments/internal/api_gateway/service"
	"github.com/skillpay-payments/internal/provider/paystack"
)

// WebhookHandler handles provider webhook deliveries
type WebhookHandler struct {
	webhookService service.WebhookService
	logger         *slog.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(logger *slog.Logger, webhookService service.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
		logger:         logger,
	}
}

// HandlePaystack receives one webhook delivery. The body is read raw because
// the signature covers the exact bytes sent, not a re-serialization. A 200
// tells the provider to stop redelivering; anything else invites a retry, so
// only persistence failures return 500.
func (h *WebhookHandler) HandlePaystack(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Error("Failed to read webhook body", "error", err)
		RespondBadRequest(c, "Unreadable request body")
		return
	}

	signature := c.GetHeader(paystack.SignatureHeader)

	result, err := h.webhookService.ProcessEvent(c.Request.Context(), rawBody, signature, middleware.GetRequestID(c))
	if err != nil {
		if errors.Is(err, service.ErrInvalidSignature) {
			h.logger.Warn("Rejected webhook with invalid signature", "client_ip", c.ClientIP())
			RespondUnauthorized(c, "Invalid signature")
			return
		}
		if errors.Is(err, service.ErrMalformedEvent) {
			h.logger.Error("Malformed webhook payload", "error", err)
			RespondBadRequest(c, "Malformed event payload")
			return
		}
		h.logger.Error("Failed to process webhook event", "error", err)
		RespondInternalError(c)
		return
	}

	if result.Ignored {
		h.logger.Debug("Webhook event acknowledged without action")
	}

	RespondOK(c, WebhookAckResponse{Received: true})
}
