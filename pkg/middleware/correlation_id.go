package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openride/marketplace/pkg/logger"
)

// CorrelationIDHeader is the header carrying the request correlation id.
const CorrelationIDHeader = "X-Request-ID"

// CorrelationID extracts or generates a correlation id and threads it through
// the gin context, the request context and the response headers.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(CorrelationIDHeader)
		if correlationID == "" {
			correlationID = uuid.New().String()
		}

		c.Set(string(logger.CorrelationIDKey), correlationID)
		ctx := context.WithValue(c.Request.Context(), logger.CorrelationIDKey, correlationID)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set(CorrelationIDHeader, correlationID)

		c.Next()
	}
}

// GetCorrelationID returns the correlation id stored by CorrelationID.
func GetCorrelationID(c *gin.Context) string {
	if id, exists := c.Get(string(logger.CorrelationIDKey)); exists {
		if correlationID, ok := id.(string); ok {
			return correlationID
		}
	}
	return ""
}
