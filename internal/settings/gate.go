package settings

import (
	"context"
	"net/http"
	"strings"

	"storefront/internal/auth"
	"storefront/internal/rbac"
	"storefront/pkg/logger"

	"github.com/gin-gonic/gin"
)

// MaintenanceReader is what the gate needs from Service.
type MaintenanceReader interface {
	Maintenance(ctx context.Context) (bool, error)
}

// Gate answers 503 to non-admin requests while maintenance mode is on.
// Paths with one of the exempt prefixes always pass. It must run after
// auth.OptionalAccessToken so admins are recognized.
// A failed flag read lets the request through.
func Gate(m MaintenanceReader, exempt ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, p := range exempt {
			if strings.HasPrefix(path, p) {
				c.Next()
				return
			}
		}
		if role, _ := auth.Role(c.Request.Context()); rbac.IsAdmin(role) {
			c.Next()
			return
		}

		on, err := m.Maintenance(c.Request.Context())
		if err != nil {
			logger.From(c.Request.Context()).Warn("maintenance flag read failed", "err", err)
			c.Next()
			return
		}
		if on {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "store is under maintenance"})
			return
		}
		c.Next()
	}
}
