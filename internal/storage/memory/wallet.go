package memory

import (
	"context"
	"time"

	"storefront/internal/wallet"

	"github.com/shopspring/decimal"
)

func (t *Tx) LockBalance(_ context.Context, userID string) (wallet.Balance, error) {
	u, ok := t.st.users[userID]
	if !ok {
		return wallet.Balance{}, wallet.ErrUnknownUser
	}
	return wallet.Balance{UserID: u.ID, Amount: u.Balance, UpdatedAt: u.UpdatedAt}, nil
}

func (t *Tx) BalanceOf(ctx context.Context, userID string) (wallet.Balance, error) {
	return t.LockBalance(ctx, userID)
}

func (t *Tx) SetBalance(_ context.Context, userID string, amount decimal.Decimal, now time.Time) error {
	u, ok := t.st.users[userID]
	if !ok {
		return wallet.ErrUnknownUser
	}
	u.Balance = amount
	u.UpdatedAt = now
	t.st.users[userID] = u
	return nil
}

func (t *Tx) InsertLedgerEntry(_ context.Context, e wallet.LedgerEntry) error {
	if e.Reference != "" {
		for _, x := range t.st.ledger {
			if x.Reference == e.Reference {
				return wallet.ErrDuplicateRef
			}
		}
	}
	t.st.ledger = append(t.st.ledger, e)
	return nil
}

func (t *Tx) LedgerEntryByReference(_ context.Context, reference string) (wallet.LedgerEntry, bool, error) {
	for _, x := range t.st.ledger {
		if x.Reference == reference {
			return x, true, nil
		}
	}
	return wallet.LedgerEntry{}, false, nil
}

func (t *Tx) ListLedgerEntries(_ context.Context, userID string) ([]wallet.LedgerEntry, error) {
	out := make([]wallet.LedgerEntry, 0)
	for i := len(t.st.ledger) - 1; i >= 0; i-- {
		if t.st.ledger[i].UserID == userID {
			out = append(out, t.st.ledger[i])
		}
	}
	return out, nil
}
