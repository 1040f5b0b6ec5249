package catalog_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/auth"
	"storefront/internal/catalog"
	"storefront/internal/storage/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var admin = auth.Actor{UserID: "admin-1", Role: "admin"}

// jsonCache mimics utils.JSONCache against a map.
type jsonCache struct {
	mu   sync.Mutex
	vals map[string][]byte
	hits int
}

func newJSONCache() *jsonCache { return &jsonCache{vals: map[string][]byte{}} }

func (c *jsonCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.vals[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(b, dst)
}

func (c *jsonCache) Set(_ context.Context, key string, v any, _ time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.vals[key] = b
	c.mu.Unlock()
	return nil
}

func (c *jsonCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.vals, k)
	}
	return nil
}

func TestCatalog_ListingsHideInactiveAndHidden(t *testing.T) {
	ctx := context.Background()
	svc := catalog.NewService(memory.New().Catalog(), nil, 0, nil)

	shown, err := svc.CreateCategory(ctx, admin, "Games", true)
	require.NoError(t, err)
	hidden, err := svc.CreateCategory(ctx, admin, "Drafts", false)
	require.NoError(t, err)

	a, err := svc.CreateProduct(ctx, admin, catalog.CreateProductRequest{CategoryID: shown.ID, Name: "Gems", Price: decimal.NewFromInt(5)})
	require.NoError(t, err)
	assert.Equal(t, catalog.FulfillmentManual, a.Fulfillment)
	b, err := svc.CreateProduct(ctx, admin, catalog.CreateProductRequest{CategoryID: shown.ID, Name: "Coins", Price: decimal.NewFromInt(3)})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, admin, catalog.CreateProductRequest{CategoryID: hidden.ID, Name: "Secret", Price: decimal.NewFromInt(1)})
	require.NoError(t, err)

	off := false
	_, err = svc.UpdateProduct(ctx, admin, b.ID, catalog.ProductPatch{Active: &off})
	require.NoError(t, err)

	cats, err := svc.ListCategories(ctx, true)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, shown.ID, cats[0].ID)

	active, err := svc.ListProducts(ctx, shown.ID, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, a.ID, active[0].ID)

	all, err := svc.ListProducts(ctx, "", false)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	featured, err := svc.Featured(ctx, 0)
	require.NoError(t, err)
	require.Len(t, featured, 1)
	assert.Equal(t, a.ID, featured[0].ID)
}

func TestCatalog_WritesInvalidateCache(t *testing.T) {
	ctx := context.Background()
	cache := newJSONCache()
	svc := catalog.NewService(memory.New().Catalog(), cache, time.Minute, nil)

	c, err := svc.CreateCategory(ctx, admin, "Games", true)
	require.NoError(t, err)
	p, err := svc.CreateProduct(ctx, admin, catalog.CreateProductRequest{CategoryID: c.ID, Name: "Gems", Price: decimal.NewFromInt(5)})
	require.NoError(t, err)

	list, err := svc.ListProducts(ctx, c.ID, true)
	require.NoError(t, err)
	require.Len(t, list, 1)
	hits := cache.hits
	_, err = svc.ListProducts(ctx, c.ID, true)
	require.NoError(t, err)
	assert.Greater(t, cache.hits, hits)

	price := decimal.NewFromInt(7)
	_, err = svc.UpdateProduct(ctx, admin, p.ID, catalog.ProductPatch{Price: &price})
	require.NoError(t, err)

	list, err = svc.ListProducts(ctx, c.ID, true)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Price.Equal(price))
}

func TestCatalog_Validation(t *testing.T) {
	ctx := context.Background()
	svc := catalog.NewService(memory.New().Catalog(), nil, 0, nil)
	c, err := svc.CreateCategory(ctx, admin, "Games", true)
	require.NoError(t, err)

	_, err = svc.CreateCategory(ctx, admin, " ", true)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	neg := -1
	bad := []catalog.CreateProductRequest{
		{CategoryID: c.ID, Name: "", Price: decimal.NewFromInt(1)},
		{CategoryID: c.ID, Name: "Zero", Price: decimal.Zero},
		{CategoryID: c.ID, Name: "Cents", Price: decimal.RequireFromString("1.999")},
		{CategoryID: c.ID, Name: "Neg", Price: decimal.NewFromInt(1), Stock: &neg},
		{CategoryID: c.ID, Name: "Kind", Price: decimal.NewFromInt(1), Fulfillment: "drone"},
		{CategoryID: c.ID, Name: "Ref", Price: decimal.NewFromInt(1), Fulfillment: catalog.FulfillmentSMM},
	}
	for _, req := range bad {
		_, err := svc.CreateProduct(ctx, admin, req)
		assert.ErrorIs(t, err, apperr.ErrValidation, req.Name)
	}

	_, err = svc.CreateProduct(ctx, admin, catalog.CreateProductRequest{CategoryID: "missing", Name: "X", Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.GetProduct(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCheckAvailable(t *testing.T) {
	two := 2
	p := catalog.Product{Name: "Key", Active: true, Stock: &two}
	assert.NoError(t, catalog.CheckAvailable(p, 2))
	assert.ErrorIs(t, catalog.CheckAvailable(p, 3), catalog.ErrInsufficientStock)

	p.Stock = nil
	assert.NoError(t, catalog.CheckAvailable(p, 1000))
	p.Active = false
	assert.ErrorIs(t, catalog.CheckAvailable(p, 1), catalog.ErrProductInactive)
}
