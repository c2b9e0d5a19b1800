package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/judyrop/shop-backend/internal/middleware"
	"github.com/judyrop/shop-backend/internal/service"
)

// EmailHTTP covers email verification and password reset flows.
type EmailHTTP struct {
	S service.AuthService
	E ErrorWriter
}

func NewEmailHTTP(s service.AuthService, e ErrorWriter) *EmailHTTP {
	return &EmailHTTP{S: s, E: e}
}

func (h *EmailHTTP) SendVerification(c *gin.Context) {
	claims, _ := middleware.CurrentUser(c)
	expiresAt, err := h.S.SendVerification(c.Request.Context(), claims.UserID)
	if err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "Verification email sent",
		"expiresAt": expiresAt,
	})
}

// Verify is public; the token arrives via the emailed link.
func (h *EmailHTTP) Verify(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Token is required"})
		return
	}
	user, err := h.S.VerifyEmail(c.Request.Context(), token)
	if err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Email verified successfully",
		"user":    sanitizeUser(user),
	})
}

func (h *EmailHTTP) RequestReset(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email is required"})
		return
	}
	if err := h.S.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		h.E.Write(c, err)
		return
	}
	// Same response whether or not the address exists.
	c.JSON(http.StatusOK, gin.H{
		"message": "If this email address is registered, a password reset link has been sent",
	})
}

func (h *EmailHTTP) ValidateResetToken(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Token is required"})
		return
	}
	if err := h.S.ValidateResetToken(c.Request.Context(), token); err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

func (h *EmailHTTP) ResetPassword(c *gin.Context) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid JSON body"})
		return
	}
	if err := h.S.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}

func (h *EmailHTTP) CleanupTokens(c *gin.Context) {
	removed, err := h.S.CleanupExpiredTokens(c.Request.Context())
	if err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Expired tokens removed", "removed": removed})
}
