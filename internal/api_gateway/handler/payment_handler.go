package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/skillpay-payments/internal/api_gateway/middleware"
	"github.com/skillpay-payments/internal/api_gateway/service"
	"github.com/skillpay-payments/internal/domain/observation"
	"github.com/skillpay-payments/internal/domain/payment"
)

// PaymentHandler handles HTTP requests for payment operations
type PaymentHandler struct {
	paymentService service.PaymentService
	logger         *slog.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(logger *slog.Logger, paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

// Checkout initiates a new payment. The order is priced server side; the
// response carries the provider URL the customer must be redirected to.
func (h *PaymentHandler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	items := make([]service.CheckoutItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.CheckoutItem{PlanID: item.PlanID, Quantity: item.Quantity})
	}

	result, err := h.paymentService.Checkout(c.Request.Context(), &service.CheckoutRequest{
		OwnerID:   req.OwnerID,
		Email:     req.Email,
		Items:     items,
		RequestID: middleware.GetRequestID(c),
	})
	if err != nil {
		var unknownPlan service.ErrUnknownPlan
		switch {
		case errors.As(err, &unknownPlan):
			RespondBadRequest(c, unknownPlan.Error())
		case errors.Is(err, service.ErrEmptyOrder), errors.Is(err, service.ErrInvalidQuantity):
			RespondBadRequest(c, err.Error())
		default:
			h.logger.Error("Failed to initiate payment", "owner_id", req.OwnerID, "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondCreated(c, CheckoutResponse{
		Reference:        result.Payment.ProviderReference,
		Status:           string(result.Payment.Status),
		Amount:           result.Payment.Amount,
		Currency:         result.Payment.Currency,
		AuthorizationURL: result.AuthorizationURL,
		AccessCode:       result.AccessCode,
		CreatedAt:        result.Payment.CreatedAt.Format(time.RFC3339),
	})
}

// PollStatus returns the reconciled status for a reference, consulting the
// provider while the record is still pending. Returns 404 for references
// this system never issued.
func (h *PaymentHandler) PollStatus(c *gin.Context) {
	reference := c.Param("reference")

	result, err := h.paymentService.PollStatus(c.Request.Context(), reference, middleware.GetRequestID(c))
	if err != nil {
		if errors.Is(err, payment.ErrPaymentNotFound{}) {
			RespondNotFound(c, "Payment not found")
			return
		}
		h.logger.Error("Failed to poll payment status", "reference", reference, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, StatusResponse{
		Reference:             result.Payment.ProviderReference,
		Status:                string(result.Payment.Status),
		ProviderStatus:        result.ProviderStatus,
		ProviderTransactionID: result.Payment.ProviderTransactionID,
		Amount:                result.Payment.Amount,
		Currency:              result.Payment.Currency,
		UpdatedAt:             result.Payment.UpdatedAt.Format(time.RFC3339),
	})
}

// ListObservations retrieves the paginated observation audit trail for a
// reference, newest first
func (h *PaymentHandler) ListObservations(c *gin.Context) {
	reference := c.Param("reference")

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	entries, total, err := h.paymentService.ListObservations(
		c.Request.Context(),
		reference,
		pagination.Page,
		pagination.PerPage,
	)
	if err != nil {
		h.logger.Error("Failed to list observations", "reference", reference, "error", err)
		RespondInternalError(c)
		return
	}

	var observations []ObservationResponse
	for _, entry := range entries {
		observations = append(observations, mapObservationToResponse(entry))
	}

	RespondWithPaginatedData(c, http.StatusOK, observations, pagination.Page, pagination.PerPage, int(total))
}

// mapObservationToResponse maps an audit entry to an observation response DTO
func mapObservationToResponse(entry *observation.Entry) ObservationResponse {
	return ObservationResponse{
		Channel:        string(entry.Channel),
		ProviderStatus: entry.ProviderStatus,
		MappedStatus:   string(entry.MappedStatus),
		Applied:        entry.Applied,
		RequestID:      entry.RequestID,
		ObservedAt:     entry.ObservedAt.Format(time.RFC3339),
	}
}
