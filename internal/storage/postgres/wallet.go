package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"storefront/internal/wallet"
	"storefront/pkg/utils"

	"github.com/shopspring/decimal"
)

func (t *Tx) LockBalance(ctx context.Context, userID string) (wallet.Balance, error) {
	// Locks the user row to serialize concurrent money operations per user.
	const q = `
SELECT id, wallet_balance, updated_at
FROM users
WHERE id = $1
FOR UPDATE
`
	return scanBalance(t.tx.QueryRowContext(ctx, q, userID))
}

func (t *Tx) BalanceOf(ctx context.Context, userID string) (wallet.Balance, error) {
	const q = `SELECT id, wallet_balance, updated_at FROM users WHERE id = $1`
	return scanBalance(t.tx.QueryRowContext(ctx, q, userID))
}

func scanBalance(row scanner) (wallet.Balance, error) {
	var b wallet.Balance
	err := row.Scan(&b.UserID, &b.Amount, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return wallet.Balance{}, wallet.ErrUnknownUser
	}
	return b, err
}

func (t *Tx) SetBalance(ctx context.Context, userID string, amount decimal.Decimal, now time.Time) error {
	const q = `UPDATE users SET wallet_balance = $2, updated_at = $3 WHERE id = $1`
	res, err := t.tx.ExecContext(ctx, q, userID, amount, now)
	if err != nil {
		return err
	}
	return expectOne(res, wallet.ErrUnknownUser)
}

func (t *Tx) InsertLedgerEntry(ctx context.Context, e wallet.LedgerEntry) error {
	const q = `
INSERT INTO wallet_ledger (id, user_id, type, amount, balance_after, reference, metadata, created_at)
VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),NULLIF($7,'')::jsonb,$8)
`
	_, err := t.tx.ExecContext(ctx, q, e.ID, e.UserID, e.Type, e.Amount, e.BalanceAfter, e.Reference, e.Metadata, e.CreatedAt)
	if utils.IsUniqueViolation(err) {
		return wallet.ErrDuplicateRef
	}
	return err
}

const ledgerColumns = `id, user_id, type, amount, balance_after, COALESCE(reference, ''), COALESCE(metadata::text, ''), created_at`

func scanLedger(row scanner) (wallet.LedgerEntry, error) {
	var e wallet.LedgerEntry
	err := row.Scan(&e.ID, &e.UserID, &e.Type, &e.Amount, &e.BalanceAfter, &e.Reference, &e.Metadata, &e.CreatedAt)
	return e, err
}

func (t *Tx) LedgerEntryByReference(ctx context.Context, reference string) (wallet.LedgerEntry, bool, error) {
	const q = `SELECT ` + ledgerColumns + ` FROM wallet_ledger WHERE reference = $1`
	e, err := scanLedger(t.tx.QueryRowContext(ctx, q, reference))
	if errors.Is(err, sql.ErrNoRows) {
		return wallet.LedgerEntry{}, false, nil
	}
	if err != nil {
		return wallet.LedgerEntry{}, false, err
	}
	return e, true, nil
}

func (t *Tx) ListLedgerEntries(ctx context.Context, userID string) ([]wallet.LedgerEntry, error) {
	const q = `SELECT ` + ledgerColumns + ` FROM wallet_ledger WHERE user_id = $1 ORDER BY created_at DESC, id`
	return queryLedger(ctx, t.tx, q, userID)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryLedger(ctx context.Context, q querier, query string, args ...any) ([]wallet.LedgerEntry, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]wallet.LedgerEntry, 0)
	for rows.Next() {
		e, err := scanLedger(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
