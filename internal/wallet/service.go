package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/audit"
	"storefront/internal/auth"
	"storefront/internal/events"
	"storefront/internal/money"
	"storefront/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrUnknownUser       = fmt.Errorf("wallet: unknown user: %w", apperr.ErrIntegrity)
	ErrInsufficientFunds = fmt.Errorf("wallet: %w", apperr.ErrInsufficientFunds)
	ErrInvalidArgument   = fmt.Errorf("wallet: %w", apperr.ErrValidation)
	ErrDuplicateRef      = fmt.Errorf("wallet: ledger reference already posted: %w", apperr.ErrConflict)
)

// Tx is the transactional view of the ledger.
//
// LockBalance must lock the user's balance row until the transaction ends
// (SELECT ... FOR UPDATE) and return ErrUnknownUser for a missing user.
// BalanceOf reads the same row without locking it.
// InsertLedgerEntry returns ErrDuplicateRef when the reference is taken.
// ListLedgerEntries returns newest first.
type Tx interface {
	LockBalance(ctx context.Context, userID string) (Balance, error)
	BalanceOf(ctx context.Context, userID string) (Balance, error)
	SetBalance(ctx context.Context, userID string, amount decimal.Decimal, now time.Time) error
	InsertLedgerEntry(ctx context.Context, e LedgerEntry) error
	LedgerEntryByReference(ctx context.Context, reference string) (LedgerEntry, bool, error)
	ListLedgerEntries(ctx context.Context, userID string) ([]LedgerEntry, error)
}

type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Debit removes amount from the user's balance inside tx.
// Fails with ErrInsufficientFunds, leaving the balance untouched, when the balance is short.
func Debit(ctx context.Context, tx Tx, userID string, amount decimal.Decimal, reference string, now time.Time) (LedgerEntry, Balance, error) {
	if err := validate(userID, amount); err != nil {
		return LedgerEntry{}, Balance{}, err
	}
	return post(ctx, tx, userID, amount.Neg(), LedgerEntryTypeDebit, reference, "", now)
}

// Credit adds amount to the user's balance inside tx.
func Credit(ctx context.Context, tx Tx, userID string, amount decimal.Decimal, reference string, now time.Time) (LedgerEntry, Balance, error) {
	if err := validate(userID, amount); err != nil {
		return LedgerEntry{}, Balance{}, err
	}
	return post(ctx, tx, userID, amount, LedgerEntryTypeCredit, reference, "", now)
}

func post(ctx context.Context, tx Tx, userID string, delta decimal.Decimal, typ LedgerEntryType, reference, metadata string, now time.Time) (LedgerEntry, Balance, error) {
	b, err := tx.LockBalance(ctx, userID)
	if err != nil {
		return LedgerEntry{}, Balance{}, err
	}

	next := b.Amount.Add(delta)
	if next.IsNegative() {
		return LedgerEntry{}, Balance{}, ErrInsufficientFunds
	}
	if err := money.Representable(next); err != nil {
		return LedgerEntry{}, Balance{}, err
	}

	entry := LedgerEntry{
		ID:           uuid.NewString(),
		UserID:       userID,
		Type:         typ,
		Amount:       delta,
		BalanceAfter: next,
		Reference:    reference,
		Metadata:     metadata,
		CreatedAt:    now,
	}
	if err := tx.InsertLedgerEntry(ctx, entry); err != nil {
		return LedgerEntry{}, Balance{}, err
	}
	if err := tx.SetBalance(ctx, userID, next, now); err != nil {
		return LedgerEntry{}, Balance{}, err
	}
	return entry, Balance{UserID: userID, Amount: next, UpdatedAt: now}, nil
}

func validate(userID string, amount decimal.Decimal) error {
	if userID == "" {
		return fmt.Errorf("user id required: %w", ErrInvalidArgument)
	}
	return money.Positive(amount)
}

// Service is the Ledger Store: the only component allowed to mutate balances.
//
// Money invariants:
// - No balance update without a ledger entry
// - Ledger is append-only
// - Every money operation runs in one transaction with the balance row locked
type Service struct {
	store  Store
	audit  *audit.Service
	events events.Publisher
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(store Store, auditSvc *audit.Service, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{store: store, audit: auditSvc, events: pub, clock: time.Now}
}

func (s *Service) GetBalance(ctx context.Context, userID string) (Balance, error) {
	if userID == "" {
		return Balance{}, ErrInvalidArgument
	}
	var out Balance
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		b, err := tx.BalanceOf(ctx, userID)
		out = b
		return err
	})
	return out, err
}

func (s *Service) History(ctx context.Context, userID string) ([]LedgerEntry, error) {
	if userID == "" {
		return nil, ErrInvalidArgument
	}
	var out []LedgerEntry
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		out, err = tx.ListLedgerEntries(ctx, userID)
		return err
	})
	return out, err
}

func (s *Service) Debit(ctx context.Context, userID string, amount decimal.Decimal, reference string) (LedgerEntry, Balance, error) {
	now := s.clock().UTC()
	var outEntry LedgerEntry
	var outBal Balance
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		outEntry, outBal, err = Debit(ctx, tx, userID, amount, reference, now)
		return err
	})
	return outEntry, outBal, err
}

func (s *Service) Credit(ctx context.Context, userID string, amount decimal.Decimal, reference string) (LedgerEntry, Balance, error) {
	now := s.clock().UTC()
	var outEntry LedgerEntry
	var outBal Balance
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		outEntry, outBal, err = Credit(ctx, tx, userID, amount, reference, now)
		return err
	})
	return outEntry, outBal, err
}

// AdminCredit posts a manual credit. Replaying the same idempotency key returns
// the first entry and the current balance without crediting again.
func (s *Service) AdminCredit(ctx context.Context, actor auth.Actor, req AdminCreditRequest) (LedgerEntry, Balance, error) {
	if actor.UserID == "" {
		return LedgerEntry{}, Balance{}, fmt.Errorf("actor required: %w", ErrInvalidArgument)
	}
	req.Reason = strings.TrimSpace(req.Reason)
	req.IdempotencyKey = strings.TrimSpace(req.IdempotencyKey)
	if req.Reason == "" || req.IdempotencyKey == "" {
		return LedgerEntry{}, Balance{}, fmt.Errorf("reason and idempotency key required: %w", ErrInvalidArgument)
	}
	if err := validate(req.UserID, req.Amount); err != nil {
		return LedgerEntry{}, Balance{}, err
	}

	now := s.clock().UTC()
	reference := RefAdmin + req.IdempotencyKey
	metadata, _ := json.Marshal(map[string]string{"reason": req.Reason, "admin_user_id": actor.UserID})

	var outEntry LedgerEntry
	var outBal Balance
	replayed := false
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		b, err := tx.LockBalance(ctx, req.UserID)
		if err != nil {
			return err
		}
		if existing, ok, err := tx.LedgerEntryByReference(ctx, reference); err != nil {
			return err
		} else if ok {
			if existing.UserID != req.UserID {
				return fmt.Errorf("idempotency key reused for another user: %w", apperr.ErrConflict)
			}
			outEntry, outBal, replayed = existing, b, true
			return nil
		}
		outEntry, outBal, err = post(ctx, tx, req.UserID, req.Amount, LedgerEntryTypeCredit, reference, string(metadata), now)
		return err
	})
	if err != nil {
		return LedgerEntry{}, Balance{}, err
	}
	if replayed {
		return outEntry, outBal, nil
	}

	if s.audit != nil {
		if err := s.audit.LogAdminAction(ctx, actor, audit.TargetUser, req.UserID, "manual wallet credit", string(metadata)); err != nil {
			logger.From(ctx).Warn("audit append failed", "err", err)
		}
	}
	events.Emit(ctx, s.events, events.New(events.WalletCredited, req.UserID, outEntry))
	return outEntry, outBal, nil
}
