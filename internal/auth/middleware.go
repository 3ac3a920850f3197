package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextKey is where the parsed claims live in the gin context.
const ContextKey = "claims"

// Bearer enforces bearer JWT tokens signed with HS256 and stores the claims
// in the request context.
func Bearer(signingKey, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ContextKey, claims)
		c.Next()
	}
}

// RequireAdmin allows only tokens carrying the admin role. Must run after
// Bearer.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if FromContext(c).Role != RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

// FromContext returns the claims stored by Bearer, zero-valued when absent.
func FromContext(c *gin.Context) Claims {
	claimsAny, _ := c.Get(ContextKey)
	claims, _ := claimsAny.(Claims)
	return claims
}
