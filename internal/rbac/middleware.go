package rbac

import (
	"net/http"

	"storefront/internal/auth"

	"github.com/gin-gonic/gin"
)

// RequireIdentity rejects requests that reached a protected route without an identity.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid, err := auth.UserID(c.Request.Context()); err != nil || uid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// RequireAnyRole allows access if the caller has any of the provided roles.
// Admin-only workflows (top-up decisions, order transitions, maintenance) rely on
// this gate and do not re-check the role themselves.
func RequireAnyRole(allowed ...string) gin.HandlerFunc {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role, err := auth.Role(c.Request.Context())
		if err != nil || role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "role required"})
			return
		}
		if _, ok := allowedSet[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// RequireAdmin is the capability check in front of the admin control surface.
func RequireAdmin() gin.HandlerFunc {
	return RequireAnyRole(RoleAdmin)
}
