package settings_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/audit"
	"storefront/internal/auth"
	"storefront/internal/events"
	"storefront/internal/settings"
	"storefront/internal/storage/memory"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var admin = auth.Actor{UserID: "admin-1", Role: "admin"}

type mapCache struct {
	vals    map[string]bool
	deleted []string
}

func (c *mapCache) Get(_ context.Context, key string, dst any) (bool, error) {
	v, ok := c.vals[key]
	if ok {
		*(dst.(*bool)) = v
	}
	return ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, v any, _ time.Duration) error {
	c.vals[key] = v.(bool)
	return nil
}

func (c *mapCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.vals, k)
		c.deleted = append(c.deleted, k)
	}
	return nil
}

func TestMaintenance_DefaultsOffAndToggles(t *testing.T) {
	ctx := context.Background()
	repo := audit.NewMemoryRepo()
	rec := &events.Recorder{}
	svc := settings.NewService(memory.New().Settings(), nil, 0, audit.NewService(repo), rec)

	on, err := svc.Maintenance(ctx)
	require.NoError(t, err)
	assert.False(t, on)

	require.NoError(t, svc.SetMaintenance(ctx, true, admin))
	on, err = svc.Maintenance(ctx)
	require.NoError(t, err)
	assert.True(t, on)

	require.NoError(t, svc.SetMaintenance(ctx, false, admin))
	on, err = svc.Maintenance(ctx)
	require.NoError(t, err)
	assert.False(t, on)

	assert.Len(t, repo.Events(), 2)
	assert.Equal(t, []events.Type{events.MaintenanceToggled, events.MaintenanceToggled}, rec.Types())

	err = svc.SetMaintenance(ctx, true, auth.Actor{})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestMaintenance_CacheIsFilledAndInvalidated(t *testing.T) {
	ctx := context.Background()
	cache := &mapCache{vals: map[string]bool{}}
	svc := settings.NewService(memory.New().Settings(), cache, time.Minute, nil, nil)

	_, err := svc.Maintenance(ctx)
	require.NoError(t, err)
	v, ok := cache.vals[settings.KeyMaintenance]
	require.True(t, ok)
	assert.False(t, v)

	require.NoError(t, svc.SetMaintenance(ctx, true, admin))
	assert.Equal(t, []string{settings.KeyMaintenance}, cache.deleted)

	on, err := svc.Maintenance(ctx)
	require.NoError(t, err)
	assert.True(t, on)
}

type flag struct {
	on  bool
	err error
}

func (f flag) Maintenance(context.Context) (bool, error) { return f.on, f.err }

func serveGate(t *testing.T, m settings.MaintenanceReader, role, path string) int {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if role != "" {
			c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), "u1", role))
		}
		c.Next()
	})
	r.Use(settings.Gate(m, "/api/admin", "/api/auth"))
	r.NoRoute(func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w.Code
}

func TestGate(t *testing.T) {
	on := flag{on: true}

	assert.Equal(t, http.StatusServiceUnavailable, serveGate(t, on, "", "/api/products"))
	assert.Equal(t, http.StatusServiceUnavailable, serveGate(t, on, "customer", "/api/cart"))
	assert.Equal(t, http.StatusOK, serveGate(t, on, "admin", "/api/cart"))
	assert.Equal(t, http.StatusOK, serveGate(t, on, "", "/api/auth/login"))
	assert.Equal(t, http.StatusOK, serveGate(t, on, "customer", "/api/admin/settings"))

	assert.Equal(t, http.StatusOK, serveGate(t, flag{}, "", "/api/products"))
	assert.Equal(t, http.StatusOK, serveGate(t, flag{err: errors.New("db down")}, "", "/api/products"))
}
