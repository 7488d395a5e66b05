package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/plothook/api/internal/auth"
)

// AuthMiddleware requires a valid JWT token
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, errMsg := claimsFromHeader(c, jwtSecret)
		if claims == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": errMsg})
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware extracts user info if a token is present, but
// doesn't require it. Used on public-profile routes.
func OptionalAuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, _ := claimsFromHeader(c, jwtSecret); claims != nil {
			setClaims(c, claims)
		}
		c.Next()
	}
}

func claimsFromHeader(c *gin.Context, jwtSecret string) (*auth.Claims, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, "authorization header required"
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil, "invalid authorization header format"
	}

	claims, err := auth.ValidateAccessToken(parts[1], jwtSecret)
	if err != nil {
		return nil, "invalid or expired token"
	}
	return claims, ""
}

func setClaims(c *gin.Context, claims *auth.Claims) {
	c.Set("userID", claims.UserID)
	c.Set("username", claims.Username)
	c.Set("userEmail", claims.Email)
	c.Set("userRole", string(claims.Role))
}
