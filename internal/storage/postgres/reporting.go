package postgres

import (
	"context"
	"time"

	"storefront/internal/reporting"
	"storefront/internal/wallet"
)

// Reporting returns a reporting repository that reads outside any workflow transaction.
func (s *Store) Reporting() reporting.Repository { return reportRepo{s} }

type reportRepo struct{ s *Store }

func (r reportRepo) Dashboard(ctx context.Context) (reporting.Dashboard, error) {
	const q = `
SELECT
  (SELECT count(*) FROM users),
  (SELECT count(*) FROM products),
  (SELECT count(*) FROM topups WHERE status = 'pending'),
  (SELECT count(*) FROM orders),
  (SELECT count(*) FROM orders WHERE status = 'processing')
`
	var d reporting.Dashboard
	err := r.s.db.QueryRowContext(ctx, q).Scan(&d.Users, &d.Products, &d.PendingTopUps, &d.Orders, &d.ProcessingOrders)
	return d, err
}

func (r reportRepo) ListLedger(ctx context.Context, from, to time.Time) ([]wallet.LedgerEntry, error) {
	const q = `SELECT ` + ledgerColumns + ` FROM wallet_ledger WHERE created_at >= $1 AND created_at < $2 ORDER BY created_at`
	return queryLedger(ctx, r.s.db, q, from, to)
}
