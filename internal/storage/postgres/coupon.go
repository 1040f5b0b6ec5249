package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"storefront/internal/coupon"
	"storefront/pkg/utils"
)

const couponColumns = `code, discount, used_by, used_at, created_at`

func scanCoupon(row scanner) (coupon.Coupon, error) {
	var (
		c      coupon.Coupon
		usedBy sql.NullString
		usedAt sql.NullTime
	)
	err := row.Scan(&c.Code, &c.Discount, &usedBy, &usedAt, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return coupon.Coupon{}, coupon.ErrNotFound
	}
	if usedBy.Valid {
		c.UsedBy = &usedBy.String
	}
	if usedAt.Valid {
		c.UsedAt = &usedAt.Time
	}
	return c, err
}

func (t *Tx) LockCoupon(ctx context.Context, code string) (coupon.Coupon, error) {
	const q = `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1 FOR UPDATE`
	return scanCoupon(t.tx.QueryRowContext(ctx, q, code))
}

func (t *Tx) MarkUsed(ctx context.Context, code, userID string, now time.Time) (bool, error) {
	const q = `UPDATE coupons SET used_by = $2, used_at = $3 WHERE code = $1 AND used_by IS NULL`
	res, err := t.tx.ExecContext(ctx, q, code, userID, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (t *Tx) InsertCoupon(ctx context.Context, c coupon.Coupon) error {
	const q = `INSERT INTO coupons (code, discount, created_at) VALUES ($1,$2,$3)`
	_, err := t.tx.ExecContext(ctx, q, c.Code, c.Discount, c.CreatedAt)
	if utils.IsUniqueViolation(err) {
		return coupon.ErrAlreadyExists
	}
	return err
}

func (t *Tx) ListCoupons(ctx context.Context) ([]coupon.Coupon, error) {
	const q = `SELECT ` + couponColumns + ` FROM coupons ORDER BY seq DESC`
	rows, err := t.tx.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]coupon.Coupon, 0)
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
