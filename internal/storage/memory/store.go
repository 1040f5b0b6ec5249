// Package memory is an in-process implementation of every workflow store.
//
// Transactions are serialized by one mutex and run against a private copy of
// the state; the copy replaces the live state only when the callback returns
// nil. This gives the same all-or-nothing behavior as the Postgres store,
// with stronger isolation.
package memory

import (
	"context"
	"sync"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/coupon"
	"storefront/internal/order"
	"storefront/internal/settings"
	"storefront/internal/topup"
	"storefront/internal/users"
	"storefront/internal/wallet"
)

type Store struct {
	mu sync.Mutex
	st *state
}

func New() *Store {
	return &Store{st: newState()}
}

func (s *Store) withTx(ctx context.Context, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{st: s.st.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	s.st = tx.st
	return nil
}

// runner adapts the single Tx to a workflow's Store interface.
type runner[T any] struct {
	s  *Store
	as func(*Tx) T
}

func (r runner[T]) WithinTx(ctx context.Context, fn func(ctx context.Context, tx T) error) error {
	return r.s.withTx(ctx, func(tx *Tx) error { return fn(ctx, r.as(tx)) })
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

// Tx is the view of one transaction. It implements every workflow Tx.
type Tx struct {
	st *state
}

type state struct {
	users      map[string]users.User
	userOrder  []string
	ledger     []wallet.LedgerEntry
	categories map[string]catalog.Category
	catOrder   []string
	products   map[string]catalog.Product
	prodOrder  []string
	cartItems  []cart.Item
	coupons    map[string]coupon.Coupon
	couponSeq  []string
	orders     map[string]order.Order
	orderSeq   []string
	orderItems map[string][]order.Item
	topups     map[string]topup.TopUp
	topupSeq   []string
	settings   map[string]settings.Setting
}

func newState() *state {
	return &state{
		users:      map[string]users.User{},
		categories: map[string]catalog.Category{},
		products:   map[string]catalog.Product{},
		coupons:    map[string]coupon.Coupon{},
		orders:     map[string]order.Order{},
		orderItems: map[string][]order.Item{},
		topups:     map[string]topup.TopUp{},
		settings:   map[string]settings.Setting{},
	}
}

// clone copies every container. Values are never mutated in place (updates
// store a new value), so sharing the values themselves is safe.
func (s *state) clone() *state {
	return &state{
		users:      cloneMap(s.users),
		userOrder:  cloneSlice(s.userOrder),
		ledger:     cloneSlice(s.ledger),
		categories: cloneMap(s.categories),
		catOrder:   cloneSlice(s.catOrder),
		products:   cloneMap(s.products),
		prodOrder:  cloneSlice(s.prodOrder),
		cartItems:  cloneSlice(s.cartItems),
		coupons:    cloneMap(s.coupons),
		couponSeq:  cloneSlice(s.couponSeq),
		orders:     cloneMap(s.orders),
		orderSeq:   cloneSlice(s.orderSeq),
		orderItems: cloneMap(s.orderItems),
		topups:     cloneMap(s.topups),
		topupSeq:   cloneSlice(s.topupSeq),
		settings:   cloneMap(s.settings),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneSlice[T any](s []T) []T {
	return append([]T(nil), s...)
}
