package cart_test

import (
	"context"
	"testing"

	"storefront/internal/apperr"
	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/storage/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var admin = auth.Actor{UserID: "admin-1", Role: "admin"}

func setup(t *testing.T) (*cart.Service, *catalog.Service, catalog.Product) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	cat := catalog.NewService(store.Catalog(), nil, 0, nil)
	c, err := cat.CreateCategory(ctx, admin, "Games", true)
	require.NoError(t, err)
	p, err := cat.CreateProduct(ctx, admin, catalog.CreateProductRequest{CategoryID: c.ID, Name: "Gems", Price: decimal.RequireFromString("12.50")})
	require.NoError(t, err)
	return cart.NewService(store.Cart()), cat, p
}

func TestAddItem_MergesSameProductAndMetadata(t *testing.T) {
	ctx := context.Background()
	svc, _, p := setup(t)

	first, err := svc.AddItem(ctx, "u1", p.ID, 1, cart.Metadata{RecipientID: "123"})
	require.NoError(t, err)
	merged, err := svc.AddItem(ctx, "u1", p.ID, 2, cart.Metadata{RecipientID: " 123 "})
	require.NoError(t, err)
	assert.Equal(t, first.ID, merged.ID)
	assert.Equal(t, 3, merged.Quantity)

	_, err = svc.AddItem(ctx, "u1", p.ID, 1, cart.Metadata{RecipientID: "456"})
	require.NoError(t, err)

	lines, err := svc.ListItems(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, first.ID, lines[0].Item.ID)
	assert.True(t, lines[0].Subtotal.Equal(decimal.RequireFromString("37.50")))
	assert.True(t, cart.Total(lines).Equal(decimal.RequireFromString("50")))

	other, err := svc.ListItems(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestAddItem_Rejections(t *testing.T) {
	ctx := context.Background()
	svc, cat, p := setup(t)

	_, err := svc.AddItem(ctx, "u1", p.ID, 0, cart.Metadata{})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.AddItem(ctx, "u1", "missing", 1, cart.Metadata{})
	assert.ErrorIs(t, err, catalog.ErrUnknownProduct)

	off := false
	_, err = cat.UpdateProduct(ctx, admin, p.ID, catalog.ProductPatch{Active: &off})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "u1", p.ID, 1, cart.Metadata{})
	assert.ErrorIs(t, err, catalog.ErrProductInactive)
}

func TestRemoveItemAndClear(t *testing.T) {
	ctx := context.Background()
	svc, _, p := setup(t)

	a, err := svc.AddItem(ctx, "u1", p.ID, 1, cart.Metadata{RecipientID: "a"})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "u1", p.ID, 1, cart.Metadata{RecipientID: "b"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.RemoveItem(ctx, "u2", a.ID), cart.ErrItemNotFound)
	require.NoError(t, svc.RemoveItem(ctx, "u1", a.ID))
	assert.ErrorIs(t, svc.RemoveItem(ctx, "u1", a.ID), apperr.ErrNotFound)

	lines, err := svc.ListItems(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, lines, 1)

	require.NoError(t, svc.Clear(ctx, "u1"))
	require.NoError(t, svc.Clear(ctx, "u1"))
	lines, err = svc.ListItems(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, lines)
}
