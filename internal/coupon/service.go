package coupon

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/audit"
	"storefront/internal/auth"
	"storefront/internal/money"
	"storefront/pkg/logger"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = fmt.Errorf("coupon: %w", apperr.ErrCouponNotFound)
	ErrAlreadyUsed     = fmt.Errorf("coupon: %w", apperr.ErrCouponAlreadyUsed)
	ErrAlreadyExists   = fmt.Errorf("coupon: code already exists: %w", apperr.ErrConflict)
	ErrInvalidArgument = fmt.Errorf("coupon: %w", apperr.ErrValidation)
)

// Tx is the transactional view of coupon storage.
//
// LockCoupon locks the row (FOR UPDATE) and returns ErrNotFound when absent.
// MarkUsed is a compare-and-set on used_by IS NULL; it reports false when the
// coupon was already taken.
type Tx interface {
	LockCoupon(ctx context.Context, code string) (Coupon, error)
	MarkUsed(ctx context.Context, code, userID string, now time.Time) (bool, error)
	InsertCoupon(ctx context.Context, c Coupon) error
	ListCoupons(ctx context.Context) ([]Coupon, error)
}

type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Normalize is the canonical form codes are stored and looked up in.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Redeem marks the coupon used by userID and returns the discounted total.
// The total never goes below zero. On any error the total is returned unchanged.
func Redeem(ctx context.Context, tx Tx, code, userID string, total decimal.Decimal, now time.Time) (decimal.Decimal, Redemption, error) {
	code = Normalize(code)
	if code == "" || userID == "" {
		return total, Redemption{}, fmt.Errorf("code and user required: %w", ErrInvalidArgument)
	}

	c, err := tx.LockCoupon(ctx, code)
	if err != nil {
		return total, Redemption{}, err
	}
	if c.Used() {
		return total, Redemption{}, ErrAlreadyUsed
	}
	ok, err := tx.MarkUsed(ctx, code, userID, now)
	if err != nil {
		return total, Redemption{}, err
	}
	if !ok {
		return total, Redemption{}, ErrAlreadyUsed
	}

	next := money.Floor(total.Sub(c.Discount))
	return next, Redemption{Code: code, Discount: c.Discount, Applied: total.Sub(next)}, nil
}

type Service struct {
	store Store
	audit *audit.Service
	clock func() time.Time
}

func NewService(store Store, auditSvc *audit.Service) *Service {
	return &Service{store: store, audit: auditSvc, clock: time.Now}
}

// Apply redeems a coupon on its own, outside checkout.
func (s *Service) Apply(ctx context.Context, code, userID string, total decimal.Decimal) (decimal.Decimal, Redemption, error) {
	if total.IsNegative() {
		return total, Redemption{}, fmt.Errorf("total must not be negative: %w", ErrInvalidArgument)
	}
	now := s.clock().UTC()
	out, red := total, Redemption{}
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		out, red, err = Redeem(ctx, tx, code, userID, total, now)
		return err
	})
	if err != nil {
		return total, Redemption{}, err
	}
	return out, red, nil
}

func (s *Service) Create(ctx context.Context, actor auth.Actor, code string, discount decimal.Decimal) (Coupon, error) {
	code = Normalize(code)
	if code == "" || len(code) > 64 {
		return Coupon{}, fmt.Errorf("code must be 1-64 characters: %w", ErrInvalidArgument)
	}
	if err := money.Positive(discount); err != nil {
		return Coupon{}, err
	}
	c := Coupon{Code: code, Discount: discount, CreatedAt: s.clock().UTC()}
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.InsertCoupon(ctx, c)
	})
	if err != nil {
		return Coupon{}, err
	}
	if s.audit != nil {
		if err := s.audit.LogAdminAction(ctx, actor, audit.TargetCoupon, code, "coupon created", ""); err != nil {
			logger.From(ctx).Warn("audit append failed", "err", err)
		}
	}
	return c, nil
}

func (s *Service) List(ctx context.Context) ([]Coupon, error) {
	var out []Coupon
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		out, err = tx.ListCoupons(ctx)
		return err
	})
	return out, err
}
