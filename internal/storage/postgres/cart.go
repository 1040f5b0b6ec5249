package postgres

import (
	"context"
	"time"

	"storefront/internal/cart"

	"github.com/lib/pq"
)

func (t *Tx) ListItems(ctx context.Context, userID string) ([]cart.Item, error) {
	const q = `
SELECT id, user_id, product_id, quantity, recipient_id, recipient_name, created_at, updated_at
FROM cart_items
WHERE user_id = $1
ORDER BY seq
`
	rows, err := t.tx.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]cart.Item, 0)
	for rows.Next() {
		var it cart.Item
		if err := rows.Scan(&it.ID, &it.UserID, &it.ProductID, &it.Quantity, &it.Metadata.RecipientID, &it.Metadata.RecipientName, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (t *Tx) InsertItem(ctx context.Context, it cart.Item) error {
	const q = `
INSERT INTO cart_items (id, user_id, product_id, quantity, recipient_id, recipient_name, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`
	_, err := t.tx.ExecContext(ctx, q, it.ID, it.UserID, it.ProductID, it.Quantity, it.Metadata.RecipientID, it.Metadata.RecipientName, it.CreatedAt, it.UpdatedAt)
	return err
}

func (t *Tx) SetItemQuantity(ctx context.Context, itemID string, qty int, now time.Time) error {
	const q = `UPDATE cart_items SET quantity = $2, updated_at = $3 WHERE id = $1`
	res, err := t.tx.ExecContext(ctx, q, itemID, qty, now)
	if err != nil {
		return err
	}
	return expectOne(res, cart.ErrItemNotFound)
}

func (t *Tx) DeleteItem(ctx context.Context, userID, itemID string) (bool, error) {
	const q = `DELETE FROM cart_items WHERE id = $1 AND user_id = $2`
	res, err := t.tx.ExecContext(ctx, q, itemID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (t *Tx) DeleteItems(ctx context.Context, userID string, itemIDs []string) (int, error) {
	if len(itemIDs) == 0 {
		return 0, nil
	}
	const q = `DELETE FROM cart_items WHERE user_id = $1 AND id = ANY($2::uuid[])`
	res, err := t.tx.ExecContext(ctx, q, userID, pq.Array(itemIDs))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
