package reporting

import (
	"context"
	"sync"
	"time"

	"storefront/internal/wallet"
)

// MemoryRepo is a fixed-data reporting repository for tests and early development.
type MemoryRepo struct {
	mu sync.Mutex

	Counts  Dashboard
	Ledgers []wallet.LedgerEntry
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Dashboard(ctx context.Context) (Dashboard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Counts, nil
}

func (r *MemoryRepo) ListLedger(ctx context.Context, from, to time.Time) ([]wallet.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]wallet.LedgerEntry, 0)
	for _, l := range r.Ledgers {
		if l.CreatedAt.Before(from) || !l.CreatedAt.Before(to) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}
