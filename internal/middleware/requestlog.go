package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SensitiveFields is the explicit deny-list of request body fields that must
// never appear in logs. Sanitization is by field name, never by URL pattern.
var SensitiveFields = []string{"password", "new_password", "current_password", "token"}

// RequestLog logs one line per request with a uuid request ID. For JSON
// bodies it logs the top-level field names with sensitive values redacted.
func RequestLog(log *slog.Logger) gin.HandlerFunc {
	deny := make(map[string]struct{}, len(SensitiveFields))
	for _, f := range SensitiveFields {
		deny[f] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()
		c.Set("requestID", requestID)
		c.Header("X-Request-ID", requestID)

		var fields []string
		if c.ContentType() == "application/json" && c.Request.Body != nil {
			body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
			if err == nil {
				c.Request.Body = io.NopCloser(bytes.NewReader(body))
				fields = sanitizedFieldNames(body, deny)
			}
		}

		c.Next()

		attrs := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", clientIP(c),
		}
		if len(fields) > 0 {
			attrs = append(attrs, "body_fields", fields)
		}
		if c.Writer.Status() >= 500 {
			log.Error("request", attrs...)
		} else {
			log.Info("request", attrs...)
		}
	}
}

func sanitizedFieldNames(body []byte, deny map[string]struct{}) []string {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return nil
	}
	names := make([]string, 0, len(m))
	for k := range m {
		if _, sensitive := deny[k]; sensitive {
			names = append(names, k+":[redacted]")
		} else {
			names = append(names, k)
		}
	}
	return names
}
