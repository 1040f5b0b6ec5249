package memory

import (
	"context"
	"time"

	"storefront/internal/order"
	"storefront/internal/reporting"
	"storefront/internal/topup"
	"storefront/internal/wallet"
)

// Reporting returns a read-only reporting repository over the committed state.
func (s *Store) Reporting() reporting.Repository { return reportRepo{s} }

type reportRepo struct{ s *Store }

func (r reportRepo) Dashboard(ctx context.Context) (reporting.Dashboard, error) {
	var out reporting.Dashboard
	err := r.s.withTx(ctx, func(tx *Tx) error {
		out.Users = len(tx.st.users)
		out.Products = len(tx.st.products)
		out.Orders = len(tx.st.orders)
		for _, tp := range tx.st.topups {
			if tp.Status == topup.StatusPending {
				out.PendingTopUps++
			}
		}
		for _, o := range tx.st.orders {
			if o.Status == order.StatusProcessing {
				out.ProcessingOrders++
			}
		}
		return nil
	})
	return out, err
}

func (r reportRepo) ListLedger(ctx context.Context, from, to time.Time) ([]wallet.LedgerEntry, error) {
	out := make([]wallet.LedgerEntry, 0)
	err := r.s.withTx(ctx, func(tx *Tx) error {
		for _, e := range tx.st.ledger {
			if e.CreatedAt.Before(from) || !e.CreatedAt.Before(to) {
				continue
			}
			out = append(out, e)
		}
		return nil
	})
	return out, err
}
