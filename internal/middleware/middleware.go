// Package middleware carries the request-scoped plumbing shared by all
// routes.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Solaceking/live-document-ocr/internal/logger"
)

// RequestIDKey is the gin context key carrying the request ID.
const RequestIDKey = "requestID"

// RequestIDHeader is echoed back to the client for support tickets.
const RequestIDHeader = "X-Request-ID"

// RequestID assigns every request a uuid, honoring one supplied by the
// client.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestLogger writes one structured access-log line per request.
// Request bodies are never logged; they carry image payloads and
// extracted document text.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.Get()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Infow("request",
			"id", c.GetString(RequestIDKey),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"bytes", c.Writer.Size(),
			"duration", time.Since(start),
		)
	}
}
