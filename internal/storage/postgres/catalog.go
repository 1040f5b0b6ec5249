package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/catalog"

	"github.com/lib/pq"
)

const productColumns = `p.id, p.category_id, p.name, p.description, p.price, p.active, p.stock, p.fulfillment, p.provider_ref, p.created_at, p.updated_at`

func scanProduct(row scanner) (catalog.Product, error) {
	var (
		p     catalog.Product
		stock sql.NullInt64
	)
	err := row.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.Price, &p.Active, &stock, &p.Fulfillment, &p.ProviderRef, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Product{}, catalog.ErrNotFound
	}
	if stock.Valid {
		v := int(stock.Int64)
		p.Stock = &v
	}
	return p, err
}

func nullableStock(stock *int) any {
	if stock == nil {
		return nil
	}
	return *stock
}

func (t *Tx) ProductByID(ctx context.Context, id string) (catalog.Product, error) {
	const q = `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1`
	return scanProduct(t.tx.QueryRowContext(ctx, q, id))
}

func (t *Tx) ProductsByIDs(ctx context.Context, ids []string) (map[string]catalog.Product, error) {
	out := make(map[string]catalog.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	const q = `SELECT ` + productColumns + ` FROM products p WHERE p.id = ANY($1::uuid[])`
	rows, err := t.tx.QueryContext(ctx, q, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (t *Tx) DecrementStock(ctx context.Context, productID string, qty int, now time.Time) error {
	const lock = `SELECT stock FROM products WHERE id = $1 FOR UPDATE`
	var stock sql.NullInt64
	err := t.tx.QueryRowContext(ctx, lock, productID).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.ErrUnknownProduct
	}
	if err != nil {
		return err
	}
	if !stock.Valid {
		return nil
	}
	if stock.Int64 < int64(qty) {
		return catalog.ErrInsufficientStock
	}

	const q = `UPDATE products SET stock = stock - $2, updated_at = $3 WHERE id = $1`
	_, err = t.tx.ExecContext(ctx, q, productID, qty, now)
	return err
}

func (t *Tx) CategoryByID(ctx context.Context, id string) (catalog.Category, error) {
	const q = `SELECT id, name, visible, created_at FROM categories WHERE id = $1`
	var c catalog.Category
	err := t.tx.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.Name, &c.Visible, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Category{}, catalog.ErrNotFound
	}
	return c, err
}

func (t *Tx) InsertCategory(ctx context.Context, c catalog.Category) error {
	const q = `INSERT INTO categories (id, name, visible, created_at) VALUES ($1,$2,$3,$4)`
	_, err := t.tx.ExecContext(ctx, q, c.ID, c.Name, c.Visible, c.CreatedAt)
	return err
}

func (t *Tx) ListCategories(ctx context.Context, visibleOnly bool) ([]catalog.Category, error) {
	const q = `
SELECT id, name, visible, created_at
FROM categories
WHERE visible OR NOT $1
ORDER BY lower(name), created_at
`
	rows, err := t.tx.QueryContext(ctx, q, visibleOnly)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]catalog.Category, 0)
	for rows.Next() {
		var c catalog.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Visible, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (t *Tx) InsertProduct(ctx context.Context, p catalog.Product) error {
	const q = `
INSERT INTO products (id, category_id, name, description, price, active, stock, fulfillment, provider_ref, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`
	_, err := t.tx.ExecContext(ctx, q,
		p.ID,
		p.CategoryID,
		p.Name,
		p.Description,
		p.Price,
		p.Active,
		nullableStock(p.Stock),
		p.Fulfillment,
		p.ProviderRef,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

func (t *Tx) UpdateProduct(ctx context.Context, p catalog.Product) error {
	const q = `
UPDATE products
SET description = $2, price = $3, active = $4, stock = $5, updated_at = $6
WHERE id = $1
`
	res, err := t.tx.ExecContext(ctx, q, p.ID, p.Description, p.Price, p.Active, nullableStock(p.Stock), p.UpdatedAt)
	if err != nil {
		return err
	}
	return expectOne(res, catalog.ErrNotFound)
}

func (t *Tx) ListProducts(ctx context.Context, f catalog.ProductFilter) ([]catalog.Product, error) {
	var (
		where []string
		args  []any
	)
	if f.CategoryID != "" {
		args = append(args, f.CategoryID)
		where = append(where, fmt.Sprintf("p.category_id = $%d", len(args)))
	}
	if f.ActiveOnly {
		where = append(where, "p.active")
	}
	if f.VisibleOnly {
		where = append(where, "c.visible")
	}

	q := `SELECT ` + productColumns + ` FROM products p JOIN categories c ON c.id = p.category_id`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY p.seq`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := t.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]catalog.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
