package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"inkwell/api/internal/security"
)

const ClaimsKey = "auth_claims"

// Auth extracts the bearer token and verifies it statelessly; access
// tokens carry everything protected handlers need, so there is no
// store lookup here.
func Auth(tokens *security.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := tokens.VerifyAccess(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}

		c.Set(ClaimsKey, *claims)

		c.Next()
	}
}

// CurrentClaims returns the verified claims Auth stored on the context.
func CurrentClaims(c *gin.Context) (security.Claims, bool) {
	val, exists := c.Get(ClaimsKey)
	if !exists {
		return security.Claims{}, false
	}
	claims, ok := val.(security.Claims)
	return claims, ok
}
