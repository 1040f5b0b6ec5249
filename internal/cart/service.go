package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/catalog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidArgument = fmt.Errorf("cart: %w", apperr.ErrValidation)
	ErrEmpty           = fmt.Errorf("cart: cart is empty: %w", apperr.ErrValidation)
	ErrItemNotFound    = fmt.Errorf("cart: item: %w", apperr.ErrNotFound)
	ErrChanged         = fmt.Errorf("cart: changed during checkout: %w", apperr.ErrConflict)
)

// Tx is the transactional view of cart storage.
// ListItems returns items in insertion order.
type Tx interface {
	catalog.ReadTx
	ListItems(ctx context.Context, userID string) ([]Item, error)
	InsertItem(ctx context.Context, it Item) error
	SetItemQuantity(ctx context.Context, itemID string, qty int, now time.Time) error
	DeleteItem(ctx context.Context, userID, itemID string) (bool, error)
	// DeleteItems returns how many of the given items it removed.
	DeleteItems(ctx context.Context, userID string, itemIDs []string) (int, error)
}

type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type Service struct {
	store Store
	clock func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, clock: time.Now}
}

// AddItem puts qty units of a product in the user's cart. A line with the same
// product and metadata already in the cart has its quantity increased instead.
func (s *Service) AddItem(ctx context.Context, userID, productID string, qty int, md Metadata) (Item, error) {
	if userID == "" || productID == "" {
		return Item{}, fmt.Errorf("user and product required: %w", ErrInvalidArgument)
	}
	if qty <= 0 {
		return Item{}, fmt.Errorf("quantity must be positive: %w", ErrInvalidArgument)
	}
	md.RecipientID = strings.TrimSpace(md.RecipientID)
	md.RecipientName = strings.TrimSpace(md.RecipientName)

	now := s.clock().UTC()
	var out Item
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		p, err := tx.ProductByID(ctx, productID)
		if errors.Is(err, catalog.ErrNotFound) {
			return catalog.ErrUnknownProduct
		}
		if err != nil {
			return err
		}
		if !p.Active {
			return catalog.ErrProductInactive
		}

		items, err := tx.ListItems(ctx, userID)
		if err != nil {
			return err
		}
		for _, it := range items {
			if it.ProductID == productID && it.Metadata == md {
				it.Quantity += qty
				it.UpdatedAt = now
				out = it
				return tx.SetItemQuantity(ctx, it.ID, it.Quantity, now)
			}
		}

		out = Item{
			ID:        uuid.NewString(),
			UserID:    userID,
			ProductID: productID,
			Quantity:  qty,
			Metadata:  md,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return tx.InsertItem(ctx, out)
	})
	if err != nil {
		return Item{}, err
	}
	return out, nil
}

// ListItems returns the cart priced at live product prices.
func (s *Service) ListItems(ctx context.Context, userID string) ([]Line, error) {
	if userID == "" {
		return nil, ErrInvalidArgument
	}
	var out []Line
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		out, err = Snapshot(ctx, tx, userID)
		return err
	})
	return out, err
}

func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) error {
	if userID == "" || itemID == "" {
		return ErrInvalidArgument
	}
	return s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		ok, err := tx.DeleteItem(ctx, userID, itemID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrItemNotFound
		}
		return nil
	})
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrInvalidArgument
	}
	return s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		items, err := tx.ListItems(ctx, userID)
		if err != nil || len(items) == 0 {
			return err
		}
		_, err = tx.DeleteItems(ctx, userID, itemIDs(items))
		return err
	})
}

// Snapshot reads the cart inside tx and prices each line at the live price.
// A line whose product no longer exists fails with catalog.ErrUnknownProduct.
func Snapshot(ctx context.Context, tx Tx, userID string) ([]Line, error) {
	items, err := tx.ListItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []Line{}, nil
	}

	ids := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}
	products, err := tx.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make([]Line, 0, len(items))
	for _, it := range items {
		p, ok := products[it.ProductID]
		if !ok {
			return nil, fmt.Errorf("cart item %s: %w", it.ID, catalog.ErrUnknownProduct)
		}
		lines = append(lines, Line{
			Item:     it,
			Product:  p,
			Subtotal: p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))),
		})
	}
	return lines, nil
}

// ItemIDs returns the ids of the snapshotted lines.
func ItemIDs(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Item.ID
	}
	return out
}

func itemIDs(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
