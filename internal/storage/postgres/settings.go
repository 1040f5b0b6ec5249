package postgres

import (
	"context"
	"database/sql"
	"errors"

	"storefront/internal/settings"
)

func (t *Tx) Setting(ctx context.Context, key string) (settings.Setting, error) {
	const q = `SELECT key, value, updated_at FROM settings WHERE key = $1`
	var s settings.Setting
	err := t.tx.QueryRowContext(ctx, q, key).Scan(&s.Key, &s.Value, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return settings.Setting{}, settings.ErrNotFound
	}
	return s, err
}

func (t *Tx) PutSetting(ctx context.Context, s settings.Setting) error {
	const q = `
INSERT INTO settings (key, value, updated_at) VALUES ($1,$2,$3)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
`
	_, err := t.tx.ExecContext(ctx, q, s.Key, s.Value, s.UpdatedAt)
	return err
}
