// Package handlers holds the gin handlers. They bind and validate request
// shape, call a service, and map service errors onto HTTP statuses; no
// business logic lives here.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/judyrop/shop-backend/internal/service"
)

// ErrorWriter converts service errors into JSON error responses. Unexpected
// errors are logged and elided to a generic message unless Dev is set.
type ErrorWriter struct {
	Log *slog.Logger
	Dev bool
}

func (w ErrorWriter) Write(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": err.Error()})
	case errors.Is(err, service.ErrEmailNotVerified):
		c.JSON(http.StatusForbidden, gin.H{
			"message": "Please verify your email address before logging in",
			"code":    "EMAIL_NOT_VERIFIED",
		})
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrDuplicatePayment),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	default:
		requestID, _ := c.Get("requestID")
		w.Log.Error("internal error",
			"err", err,
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
		body := gin.H{"message": "Internal server error"}
		if w.Dev {
			body["error"] = err.Error()
		}
		c.JSON(http.StatusInternalServerError, body)
	}
}

func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}
