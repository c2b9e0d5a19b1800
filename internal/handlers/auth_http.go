package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/judyrop/shop-backend/internal/middleware"
	"github.com/judyrop/shop-backend/internal/model"
	"github.com/judyrop/shop-backend/internal/service"
)

type AuthHTTP struct {
	S      service.AuthService
	E      ErrorWriter
	Secure bool // Secure cookies; off for plain-http dev
}

func NewAuthHTTP(s service.AuthService, e ErrorWriter, secure bool) *AuthHTTP {
	return &AuthHTTP{S: s, E: e, Secure: secure}
}

func sanitizeUser(u model.User) gin.H {
	return gin.H{
		"id":             u.ID,
		"username":       u.Username,
		"email":          u.Email,
		"role":           u.Role,
		"email_verified": u.EmailVerified,
	}
}

func (h *AuthHTTP) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid JSON body"})
		return
	}

	user, emailSent, err := h.S.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.E.Write(c, err)
		return
	}

	message := "Registration successful! A verification link has been sent to your email."
	if !emailSent {
		message = "Registration successful, but the verification email could not be sent. You can request a new one later."
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":   message,
		"user":      sanitizeUser(user),
		"emailSent": emailSent,
	})
}

func (h *AuthHTTP) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid JSON body"})
		return
	}

	user, tokens, err := h.S.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.E.Write(c, err)
		return
	}

	h.setCookie(c, "access_token", tokens.Access, int(service.AccessTokenTTL.Seconds()))
	h.setCookie(c, "refresh_token", tokens.Refresh, int(service.RefreshTokenTTL.Seconds()))
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    sanitizeUser(user),
		"token":   tokens.Access,
	})
}

func (h *AuthHTTP) Refresh(c *gin.Context) {
	token, err := c.Cookie("refresh_token")
	if err != nil || token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Refresh token not found"})
		return
	}

	user, access, err := h.S.Refresh(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid refresh token"})
		return
	}
	h.setCookie(c, "access_token", access, int(service.AccessTokenTTL.Seconds()))
	c.JSON(http.StatusOK, gin.H{"message": "Token refreshed", "user": sanitizeUser(user)})
}

func (h *AuthHTTP) Logout(c *gin.Context) {
	h.setCookie(c, "access_token", "", -1)
	h.setCookie(c, "refresh_token", "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}

func (h *AuthHTTP) Check(c *gin.Context) {
	claims, _ := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{
		"isAuthenticated": true,
		"user": gin.H{
			"id":       claims.UserID,
			"username": claims.Username,
			"email":    claims.Email,
			"role":     claims.Role,
		},
	})
}

func (h *AuthHTTP) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(name, value, maxAge, "/", "", h.Secure, true)
}
