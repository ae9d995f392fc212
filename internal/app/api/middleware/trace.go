package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/clubhouse/membership/pkg/logctx"
	"github.com/clubhouse/membership/pkg/tool"
)

const (
	RequestIDHeader = "X-Request-ID"
	maxTraceIDLen   = 128
)

// TraceMiddleware adds a trace ID to the request context.
// It reads X-Request-ID if provided by the client; otherwise generates a UUIDv7.
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(RequestIDHeader)
		if traceID == "" || len(traceID) > maxTraceIDLen {
			traceID = tool.GenerateUUIDV7()
		}

		c.Set(logctx.GinTraceIDKey, traceID)
		c.Request = c.Request.WithContext(logctx.WithTraceID(c.Request.Context(), traceID))
		c.Next()
	}
}
