// Package settings holds runtime switches stored in the settings table.
// The only switch today is maintenance mode.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/audit"
	"storefront/internal/auth"
	"storefront/internal/events"
	"storefront/pkg/logger"
)

const KeyMaintenance = "maintenance_mode"

var (
	ErrNotFound        = fmt.Errorf("settings: %w", apperr.ErrNotFound)
	ErrInvalidArgument = fmt.Errorf("settings: %w", apperr.ErrValidation)
)

type Setting struct {
	Key       string    `json:"key" db:"key"`
	Value     string    `json:"value" db:"value"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Tx reads and upserts settings rows. Setting returns ErrNotFound when absent.
type Tx interface {
	Setting(ctx context.Context, key string) (Setting, error)
	PutSetting(ctx context.Context, s Setting) error
}

type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Cache fronts the settings row (utils.JSONCache in production).
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type Service struct {
	store  Store
	cache  Cache
	ttl    time.Duration
	audit  *audit.Service
	events events.Publisher
	clock  func() time.Time
}

func NewService(store Store, cache Cache, ttl time.Duration, auditSvc *audit.Service, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{store: store, cache: cache, ttl: ttl, audit: auditSvc, events: pub, clock: time.Now}
}

// Maintenance reports whether the store is in maintenance mode.
// A missing row means off.
func (s *Service) Maintenance(ctx context.Context) (bool, error) {
	if s.cache != nil {
		var on bool
		ok, err := s.cache.Get(ctx, KeyMaintenance, &on)
		if err == nil && ok {
			return on, nil
		}
		if err != nil {
			logger.From(ctx).Warn("settings cache read failed", "err", err)
		}
	}

	var row Setting
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		row, err = tx.Setting(ctx, KeyMaintenance)
		return err
	})
	on := false
	switch {
	case err == nil:
		on, _ = strconv.ParseBool(row.Value)
	case errors.Is(err, ErrNotFound):
	default:
		return false, err
	}

	if s.cache != nil && s.ttl > 0 {
		if err := s.cache.Set(ctx, KeyMaintenance, on, s.ttl); err != nil {
			logger.From(ctx).Warn("settings cache write failed", "err", err)
		}
	}
	return on, nil
}

func (s *Service) SetMaintenance(ctx context.Context, on bool, actor auth.Actor) error {
	if actor.UserID == "" {
		return fmt.Errorf("actor required: %w", ErrInvalidArgument)
	}
	row := Setting{Key: KeyMaintenance, Value: strconv.FormatBool(on), UpdatedAt: s.clock().UTC()}
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.PutSetting(ctx, row)
	})
	if err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, KeyMaintenance); err != nil {
			logger.From(ctx).Warn("settings cache invalidation failed", "err", err)
		}
	}
	if s.audit != nil {
		if err := s.audit.LogAdminAction(ctx, actor, audit.TargetSetting, KeyMaintenance, "maintenance set to "+row.Value, ""); err != nil {
			logger.From(ctx).Warn("audit append failed", "err", err)
		}
	}
	events.Emit(ctx, s.events, events.New(events.MaintenanceToggled, KeyMaintenance, row))
	return nil
}
