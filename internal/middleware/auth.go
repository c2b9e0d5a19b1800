package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/judyrop/shop-backend/internal/service"
)

const claimsKey = "authClaims"

// RequireAuth accepts the access token from the HttpOnly cookie or a Bearer
// header and puts the verified claims on the context.
func RequireAuth(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		if ah := c.GetHeader("Authorization"); strings.HasPrefix(ah, "Bearer ") {
			token = strings.TrimPrefix(ah, "Bearer ")
		}
		if token == "" {
			if v, err := c.Cookie("access_token"); err == nil {
				token = v
			}
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
			return
		}

		claims, err := auth.ParseAccessToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired session"})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireRole runs after RequireAuth and rejects callers without the role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
			return
		}
		if claims.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the claims RequireAuth stored, if any.
func CurrentUser(c *gin.Context) (service.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return service.Claims{}, false
	}
	claims, ok := v.(service.Claims)
	return claims, ok
}
