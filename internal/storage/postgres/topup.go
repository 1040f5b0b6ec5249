package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/topup"
)

func (t *Tx) InsertTopUp(ctx context.Context, tp topup.TopUp) error {
	const q = `
INSERT INTO topups (id, user_id, amount, method, proof_url, status, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`
	_, err := t.tx.ExecContext(ctx, q, tp.ID, tp.UserID, tp.Amount, tp.Method, tp.ProofURL, tp.Status, tp.CreatedAt)
	return err
}

const topupColumns = `id, user_id, amount, method, proof_url, status, decided_by, decided_at, created_at`

func scanTopUp(row scanner) (topup.TopUp, error) {
	var (
		tp        topup.TopUp
		decidedBy sql.NullString
		decidedAt sql.NullTime
	)
	err := row.Scan(&tp.ID, &tp.UserID, &tp.Amount, &tp.Method, &tp.ProofURL, &tp.Status, &decidedBy, &decidedAt, &tp.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return topup.TopUp{}, topup.ErrNotFound
	}
	if decidedBy.Valid {
		tp.DecidedBy = &decidedBy.String
	}
	if decidedAt.Valid {
		tp.DecidedAt = &decidedAt.Time
	}
	return tp, err
}

func (t *Tx) LockTopUp(ctx context.Context, id string) (topup.TopUp, error) {
	const q = `SELECT ` + topupColumns + ` FROM topups WHERE id = $1 FOR UPDATE`
	return scanTopUp(t.tx.QueryRowContext(ctx, q, id))
}

func (t *Tx) TopUpByID(ctx context.Context, id string) (topup.TopUp, error) {
	const q = `SELECT ` + topupColumns + ` FROM topups WHERE id = $1`
	return scanTopUp(t.tx.QueryRowContext(ctx, q, id))
}

func (t *Tx) DecideTopUp(ctx context.Context, id string, status topup.Status, decidedBy string, at time.Time) error {
	const q = `UPDATE topups SET status = $2, decided_by = $3, decided_at = $4 WHERE id = $1`
	res, err := t.tx.ExecContext(ctx, q, id, status, decidedBy, at)
	if err != nil {
		return err
	}
	return expectOne(res, topup.ErrNotFound)
}

func (t *Tx) ListTopUps(ctx context.Context, f topup.Filter) ([]topup.TopUp, error) {
	var (
		where []string
		args  []any
	)
	if f.UserID != "" {
		args = append(args, f.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	q := `SELECT ` + topupColumns + ` FROM topups`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY seq DESC`

	rows, err := t.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]topup.TopUp, 0)
	for rows.Next() {
		tp, err := scanTopUp(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tp)
	}
	return out, rows.Err()
}
