package postgres

import (
	"context"
	"database/sql"
	"errors"

	"storefront/internal/users"
	"storefront/pkg/utils"
)

const userColumns = `id, username, email, password_hash, role, wallet_balance, created_at, updated_at`

func scanUser(row scanner) (users.User, error) {
	var u users.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Balance, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return users.User{}, users.ErrNotFound
	}
	return u, err
}

func (t *Tx) UserByID(ctx context.Context, id string) (users.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(t.tx.QueryRowContext(ctx, q, id))
}

func (t *Tx) LockUser(ctx context.Context, id string) (users.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	return scanUser(t.tx.QueryRowContext(ctx, q, id))
}

func (t *Tx) UserByUsername(ctx context.Context, username string) (users.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(t.tx.QueryRowContext(ctx, q, username))
}

func (t *Tx) InsertUser(ctx context.Context, u users.User) error {
	const q = `
INSERT INTO users (id, username, email, password_hash, role, wallet_balance, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`
	_, err := t.tx.ExecContext(ctx, q, u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.Balance, u.CreatedAt, u.UpdatedAt)
	if utils.IsUniqueViolation(err) {
		return users.ErrAlreadyExists
	}
	return err
}
