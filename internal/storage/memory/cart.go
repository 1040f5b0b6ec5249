package memory

import (
	"context"
	"time"

	"storefront/internal/cart"
)

func (t *Tx) ListItems(_ context.Context, userID string) ([]cart.Item, error) {
	out := make([]cart.Item, 0)
	for _, it := range t.st.cartItems {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (t *Tx) InsertItem(_ context.Context, it cart.Item) error {
	t.st.cartItems = append(t.st.cartItems, it)
	return nil
}

func (t *Tx) SetItemQuantity(_ context.Context, itemID string, qty int, now time.Time) error {
	for i, it := range t.st.cartItems {
		if it.ID == itemID {
			it.Quantity = qty
			it.UpdatedAt = now
			t.st.cartItems[i] = it
			return nil
		}
	}
	return cart.ErrItemNotFound
}

func (t *Tx) DeleteItem(_ context.Context, userID, itemID string) (bool, error) {
	for i, it := range t.st.cartItems {
		if it.ID == itemID && it.UserID == userID {
			t.st.cartItems = append(t.st.cartItems[:i], t.st.cartItems[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (t *Tx) DeleteItems(_ context.Context, userID string, itemIDs []string) (int, error) {
	drop := make(map[string]bool, len(itemIDs))
	for _, id := range itemIDs {
		drop[id] = true
	}
	kept := t.st.cartItems[:0]
	n := 0
	for _, it := range t.st.cartItems {
		if it.UserID == userID && drop[it.ID] {
			n++
			continue
		}
		kept = append(kept, it)
	}
	t.st.cartItems = kept
	return n, nil
}
