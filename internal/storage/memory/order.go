package memory

import (
	"context"
	"time"

	"storefront/internal/order"
)

func (t *Tx) InsertOrder(_ context.Context, o order.Order, items []order.Item) error {
	t.st.orders[o.ID] = o
	t.st.orderSeq = append(t.st.orderSeq, o.ID)
	t.st.orderItems[o.ID] = append([]order.Item(nil), items...)
	return nil
}

func (t *Tx) LockOrder(_ context.Context, id string) (order.Order, error) {
	o, ok := t.st.orders[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	return o, nil
}

func (t *Tx) OrderByID(ctx context.Context, id string) (order.Order, error) {
	return t.LockOrder(ctx, id)
}

func (t *Tx) SetOrderStatus(_ context.Context, id string, status order.Status, now time.Time) error {
	o, ok := t.st.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = now
	t.st.orders[id] = o
	return nil
}

func (t *Tx) OrderItems(_ context.Context, orderID string) ([]order.Item, error) {
	return append([]order.Item{}, t.st.orderItems[orderID]...), nil
}

func (t *Tx) ListOrders(_ context.Context, f order.Filter) ([]order.Order, error) {
	out := make([]order.Order, 0)
	for i := len(t.st.orderSeq) - 1; i >= 0; i-- {
		o := t.st.orders[t.st.orderSeq[i]]
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}
