package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader is the HTTP header for the request ID
	RequestIDHeader = "X-Request-ID"

	// RequestIDKey is the key used to store the request ID in the context
	RequestIDKey = "request_id"
)

// RequestID middleware ensures each request has a unique identifier. The id
// travels from the gateway into the observation audit trail and the payment
// completed event, so one webhook delivery can be traced end to end.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Header(RequestIDHeader, requestID)
		c.Set(RequestIDKey, requestID)

		c.Next()
	}
}

// GetRequestID retrieves the request ID from the gin context if present
func GetRequestID(c *gin.Context) string {
	if id, exists := c.Get(RequestIDKey); exists {
		if requestID, ok := id.(string); ok {
			return requestID
		}
	}
	return ""
}
