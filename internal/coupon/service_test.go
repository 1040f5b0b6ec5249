package coupon_test

import (
	"context"
	"sync"
	"testing"

	"storefront/internal/apperr"
	"storefront/internal/audit"
	"storefront/internal/auth"
	"storefront/internal/coupon"
	"storefront/internal/storage/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var admin = auth.Actor{UserID: "admin-1", Role: "admin"}

func TestApply_SingleUse(t *testing.T) {
	ctx := context.Background()
	repo := audit.NewMemoryRepo()
	svc := coupon.NewService(memory.New().Coupons(), audit.NewService(repo))

	c, err := svc.Create(ctx, admin, " save10 ", d("10"))
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", c.Code)
	assert.Len(t, repo.Events(), 1)

	total, red, err := svc.Apply(ctx, "Save10", "u1", d("50"))
	require.NoError(t, err)
	assert.True(t, total.Equal(d("40")))
	assert.True(t, red.Applied.Equal(d("10")))

	total, _, err = svc.Apply(ctx, "SAVE10", "u1", d("50"))
	assert.ErrorIs(t, err, apperr.ErrCouponAlreadyUsed)
	assert.True(t, total.Equal(d("50")))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].UsedBy)
	assert.Equal(t, "u1", *list[0].UsedBy)
}

func TestApply_FloorsAtZero(t *testing.T) {
	ctx := context.Background()
	svc := coupon.NewService(memory.New().Coupons(), nil)
	_, err := svc.Create(ctx, admin, "BIG", d("25"))
	require.NoError(t, err)

	total, red, err := svc.Apply(ctx, "BIG", "u1", d("10"))
	require.NoError(t, err)
	assert.True(t, total.IsZero())
	assert.True(t, red.Discount.Equal(d("25")))
	assert.True(t, red.Applied.Equal(d("10")))
}

func TestApply_UnknownCode(t *testing.T) {
	svc := coupon.NewService(memory.New().Coupons(), nil)
	_, _, err := svc.Apply(context.Background(), "NOPE", "u1", d("10"))
	assert.ErrorIs(t, err, apperr.ErrCouponNotFound)
}

func TestCreate_Validation(t *testing.T) {
	ctx := context.Background()
	svc := coupon.NewService(memory.New().Coupons(), nil)

	_, err := svc.Create(ctx, admin, "  ", d("5"))
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.Create(ctx, admin, "X", d("0"))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Create(ctx, admin, "X", d("5"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin, "x", d("5"))
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestApply_ConcurrentRedeemsOnce(t *testing.T) {
	ctx := context.Background()
	svc := coupon.NewService(memory.New().Coupons(), nil)
	_, err := svc.Create(ctx, admin, "ONCE", d("5"))
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ok   int
		used int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.Apply(ctx, "ONCE", "u1", d("20"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case apperr.Kind(err) == apperr.ErrCouponAlreadyUsed:
				used++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ok)
	assert.Equal(t, 9, used)
}
