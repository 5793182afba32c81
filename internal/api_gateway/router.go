package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/skillpay-payments/internal/api_gateway/handler"
	"github.com/skillpay-payments/internal/api_gateway/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	paymentHandler *handler.PaymentHandler,
	webhookHandler *handler.WebhookHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.RequestID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Payment operations
		payments := v1.Group("/payments")
		{
			payments.POST("", paymentHandler.Checkout)
			payments.GET("/:reference/status", paymentHandler.PollStatus)
			payments.GET("/:reference/observations", paymentHandler.ListObservations)
		}

		// Provider webhook deliveries
		v1.POST("/webhooks/paystack", webhookHandler.HandlePaystack)
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
