// Package postgres implements every workflow store on database/sql (pgx stdlib).
//
// Each WithinTx runs in one read-committed transaction via utils.WithTx.
// Rows that money depends on (user balance, coupon, order, top-up, tracked
// stock) are read with SELECT ... FOR UPDATE, so concurrent workflows on the
// same row serialize and the loser sees the winner's committed state.
package postgres

import (
	"context"
	"database/sql"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/coupon"
	"storefront/internal/order"
	"storefront/internal/settings"
	"storefront/internal/topup"
	"storefront/internal/users"
	"storefront/internal/wallet"
	"storefront/pkg/utils"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) withTx(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) error {
	return utils.WithTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, &Tx{tx: tx})
	})
}

type runner[T any] struct {
	s  *Store
	as func(*Tx) T
}

func (r runner[T]) WithinTx(ctx context.Context, fn func(ctx context.Context, tx T) error) error {
	return r.s.withTx(ctx, func(ctx context.Context, tx *Tx) error { return fn(ctx, r.as(tx)) })
}

func (s *Store) Users() users.Store {
	return runner[users.Tx]{s, func(t *Tx) users.Tx { return t }}
}

func (s *Store) Wallet() wallet.Store {
	return runner[wallet.Tx]{s, func(t *Tx) wallet.Tx { return t }}
}

func (s *Store) Catalog() catalog.Store {
	return runner[catalog.Tx]{s, func(t *Tx) catalog.Tx { return t }}
}

func (s *Store) Cart() cart.Store {
	return runner[cart.Tx]{s, func(t *Tx) cart.Tx { return t }}
}

func (s *Store) Coupons() coupon.Store {
	return runner[coupon.Tx]{s, func(t *Tx) coupon.Tx { return t }}
}

func (s *Store) Orders() order.Store {
	return runner[order.Tx]{s, func(t *Tx) order.Tx { return t }}
}

func (s *Store) TopUps() topup.Store {
	return runner[topup.Tx]{s, func(t *Tx) topup.Tx { return t }}
}

func (s *Store) Settings() settings.Store {
	return runner[settings.Tx]{s, func(t *Tx) settings.Tx { return t }}
}

// Tx wraps one *sql.Tx and implements every workflow Tx.
type Tx struct {
	tx *sql.Tx
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
