package memory

import (
	"context"

	"storefront/internal/settings"
)

func (t *Tx) Setting(_ context.Context, key string) (settings.Setting, error) {
	s, ok := t.st.settings[key]
	if !ok {
		return settings.Setting{}, settings.ErrNotFound
	}
	return s, nil
}

func (t *Tx) PutSetting(_ context.Context, s settings.Setting) error {
	t.st.settings[s.Key] = s
	return nil
}
