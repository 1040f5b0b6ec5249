package httpapi

import (
	"context"
	"net/http"

	"storefront/internal/audit"
	"storefront/internal/auth"
	"storefront/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ClientIP attaches the resolved client address to the request context so
// the audit trail can record it.
func ClientIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(audit.WithClientIP(c.Request.Context(), c.ClientIP()))
		c.Next()
	}
}

// Limiter is a per-key in-flight cap (utils.InFlightLimiter in production).
type Limiter interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// InFlight allows one concurrent request per user and scope; extra requests get 429.
// It must run after the identity is in the context. A limiter error lets the
// request through; the database still serializes the money movement.
func InFlight(l Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		uid, err := auth.UserID(c.Request.Context())
		if err != nil {
			c.Next()
			return
		}
		key := "inflight:" + scope + ":" + uid

		ok, err := l.Acquire(c.Request.Context(), key)
		if err != nil {
			logger.FromGin(c).Warn("in-flight limiter unavailable", "scope", scope, "err", err)
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "another request is in progress"})
			return
		}
		defer func() {
			if err := l.Release(context.WithoutCancel(c.Request.Context()), key); err != nil {
				logger.FromGin(c).Warn("in-flight release failed", "scope", scope, "err", err)
			}
		}()
		c.Next()
	}
}
