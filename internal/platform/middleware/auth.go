package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/punchly/service-loyalty/internal/platform/auth"
)

const (
	contextKeyUserID     = "auth_user_id"
	contextKeyBusinessID = "auth_business_id"
	contextKeyRole       = "auth_role"
)

// AuthMiddleware validates the Bearer token and stores the caller identity on
// the request context.
func AuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := jwtManager.Validate(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(contextKeyUserID, claims.UserID)
		c.Set(contextKeyBusinessID, claims.BusinessID)
		c.Set(contextKeyRole, claims.Role)
		c.Next()
	}
}

// RequireRole aborts with 403 unless the caller carries the given role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(contextKeyRole) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}
		c.Next()
	}
}

// GetUserID returns the authenticated user ID from the request context.
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(contextKeyUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// GetBusinessID returns the authenticated business ID from the request
// context. Only business-role tokens carry one.
func GetBusinessID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(contextKeyBusinessID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}
