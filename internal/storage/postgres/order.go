package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/order"
)

func (t *Tx) InsertOrder(ctx context.Context, o order.Order, items []order.Item) error {
	const q = `
INSERT INTO orders (id, user_id, method, subtotal, discount, total, coupon_code, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,NULLIF($7,''),$8,$9,$10)
`
	if _, err := t.tx.ExecContext(ctx, q,
		o.ID,
		o.UserID,
		o.Method,
		o.Subtotal,
		o.Discount,
		o.Total,
		o.CouponCode,
		o.Status,
		o.CreatedAt,
		o.UpdatedAt,
	); err != nil {
		return err
	}

	const qi = `
INSERT INTO order_items (id, order_id, product_id, product_name, quantity, unit_price, recipient_id, recipient_name)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`
	for _, it := range items {
		if _, err := t.tx.ExecContext(ctx, qi,
			it.ID,
			it.OrderID,
			it.ProductID,
			it.ProductName,
			it.Quantity,
			it.UnitPrice,
			it.Metadata.RecipientID,
			it.Metadata.RecipientName,
		); err != nil {
			return err
		}
	}
	return nil
}

const orderColumns = `id, user_id, method, subtotal, discount, total, COALESCE(coupon_code, ''), status, created_at, updated_at`

func scanOrder(row scanner) (order.Order, error) {
	var o order.Order
	err := row.Scan(&o.ID, &o.UserID, &o.Method, &o.Subtotal, &o.Discount, &o.Total, &o.CouponCode, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return order.Order{}, order.ErrNotFound
	}
	return o, err
}

func (t *Tx) LockOrder(ctx context.Context, id string) (order.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	return scanOrder(t.tx.QueryRowContext(ctx, q, id))
}

func (t *Tx) OrderByID(ctx context.Context, id string) (order.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return scanOrder(t.tx.QueryRowContext(ctx, q, id))
}

func (t *Tx) SetOrderStatus(ctx context.Context, id string, status order.Status, now time.Time) error {
	const q = `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := t.tx.ExecContext(ctx, q, id, status, now)
	if err != nil {
		return err
	}
	return expectOne(res, order.ErrNotFound)
}

func (t *Tx) OrderItems(ctx context.Context, orderID string) ([]order.Item, error) {
	const q = `
SELECT id, order_id, product_id, product_name, quantity, unit_price, recipient_id, recipient_name
FROM order_items
WHERE order_id = $1
ORDER BY seq
`
	rows, err := t.tx.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]order.Item, 0)
	for rows.Next() {
		var it order.Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice, &it.Metadata.RecipientID, &it.Metadata.RecipientName); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (t *Tx) ListOrders(ctx context.Context, f order.Filter) ([]order.Order, error) {
	var (
		where []string
		args  []any
	)
	if f.UserID != "" {
		args = append(args, f.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	q := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY seq DESC`

	rows, err := t.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]order.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
