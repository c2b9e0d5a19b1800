package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/judyrop/shop-backend/internal/store"
)

// RateLimitConfig describes one fixed-window limit.
type RateLimitConfig struct {
	// KeyPrefix separates counter namespaces (general, login, email).
	KeyPrefix   string
	MaxRequests int64
	Window      time.Duration
	Message     string
}

// RateLimit counts requests per identifier in the injected store. Counters
// keyed by user ID when authenticated, by client IP otherwise; login-style
// limits always key by IP so an attacker cannot dodge the limit by
// authenticating.
func RateLimit(kv store.Store, cfg RateLimitConfig, byIPOnly bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := cfg.KeyPrefix + ":" + identifier(c, byIPOnly)

		count, resetAt, err := kv.Increment(c.Request.Context(), key, cfg.Window)
		if err != nil {
			// A broken counter store should not take the API down.
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprint(cfg.MaxRequests))
		if count > cfg.MaxRequests {
			retryAfter := int(time.Until(resetAt).Seconds()) + 1
			c.Header("Retry-After", fmt.Sprint(retryAfter))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", resetAt.UTC().Format(time.RFC3339))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": cfg.Message})
			return
		}

		c.Header("X-RateLimit-Remaining", fmt.Sprint(cfg.MaxRequests-count))
		c.Header("X-RateLimit-Reset", resetAt.UTC().Format(time.RFC3339))
		c.Next()
	}
}

func identifier(c *gin.Context, byIPOnly bool) string {
	if !byIPOnly {
		if claims, ok := CurrentUser(c); ok {
			return fmt.Sprintf("user_%d", claims.UserID)
		}
	}
	return "ip_" + clientIP(c)
}

func clientIP(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	if real := c.GetHeader("X-Real-IP"); real != "" {
		return real
	}
	return c.ClientIP()
}
