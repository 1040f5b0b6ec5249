package memory

import (
	"context"
	"time"

	"storefront/internal/coupon"
)

func (t *Tx) LockCoupon(_ context.Context, code string) (coupon.Coupon, error) {
	c, ok := t.st.coupons[code]
	if !ok {
		return coupon.Coupon{}, coupon.ErrNotFound
	}
	return c, nil
}

func (t *Tx) MarkUsed(_ context.Context, code, userID string, now time.Time) (bool, error) {
	c, ok := t.st.coupons[code]
	if !ok {
		return false, coupon.ErrNotFound
	}
	if c.UsedBy != nil {
		return false, nil
	}
	by, at := userID, now
	c.UsedBy = &by
	c.UsedAt = &at
	t.st.coupons[code] = c
	return true, nil
}

func (t *Tx) InsertCoupon(_ context.Context, c coupon.Coupon) error {
	if _, ok := t.st.coupons[c.Code]; ok {
		return coupon.ErrAlreadyExists
	}
	t.st.coupons[c.Code] = c
	t.st.couponSeq = append(t.st.couponSeq, c.Code)
	return nil
}

func (t *Tx) ListCoupons(_ context.Context) ([]coupon.Coupon, error) {
	out := make([]coupon.Coupon, 0, len(t.st.couponSeq))
	for i := len(t.st.couponSeq) - 1; i >= 0; i-- {
		out = append(out, t.st.coupons[t.st.couponSeq[i]])
	}
	return out, nil
}
