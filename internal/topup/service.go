package topup

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/audit"
	"storefront/internal/auth"
	"storefront/internal/events"
	"storefront/internal/money"
	"storefront/internal/notify"
	"storefront/internal/telemetry"
	"storefront/internal/users"
	"storefront/internal/wallet"
	"storefront/pkg/logger"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNotFound          = fmt.Errorf("topup: %w", apperr.ErrNotFound)
	ErrInvalidArgument   = fmt.Errorf("topup: %w", apperr.ErrValidation)
	ErrInvalidTransition = fmt.Errorf("topup: %w", apperr.ErrInvalidTransition)
	ErrUnknownUser       = fmt.Errorf("topup: unknown user: %w", apperr.ErrIntegrity)
)

// Tx is the transactional view of top-up storage plus the ledger it credits.
//
// LockTopUp locks the row (FOR UPDATE) and returns ErrNotFound when absent.
// TopUpByID reads it without the lock.
type Tx interface {
	users.Reader
	wallet.Tx

	InsertTopUp(ctx context.Context, t TopUp) error
	LockTopUp(ctx context.Context, id string) (TopUp, error)
	TopUpByID(ctx context.Context, id string) (TopUp, error)
	DecideTopUp(ctx context.Context, id string, status Status, decidedBy string, at time.Time) error
	ListTopUps(ctx context.Context, f Filter) ([]TopUp, error)
}

type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Service is the top-up approval workflow: pending -> approved | rejected.
type Service struct {
	store   Store
	linker  *notify.Linker
	audit   *audit.Service
	events  events.Publisher
	clock   func() time.Time
	decided metric.Int64Counter
}

func NewService(store Store, linker *notify.Linker, auditSvc *audit.Service, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{
		store:   store,
		linker:  linker,
		audit:   auditSvc,
		events:  pub,
		clock:   time.Now,
		decided: telemetry.Counter("storefront/topup", "storefront_topups_decided", "Top-up approvals and rejections"),
	}
}

func (s *Service) Request(ctx context.Context, userID string, req Request) (RequestResult, error) {
	if userID == "" {
		return RequestResult{}, fmt.Errorf("user required: %w", ErrInvalidArgument)
	}
	if err := money.Positive(req.Amount); err != nil {
		return RequestResult{}, err
	}
	if !req.Method.Valid() {
		return RequestResult{}, fmt.Errorf("unsupported method %q: %w", req.Method, ErrInvalidArgument)
	}
	req.ProofURL = strings.TrimSpace(req.ProofURL)
	if req.ProofURL != "" {
		if u, err := url.Parse(req.ProofURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return RequestResult{}, fmt.Errorf("proof_url must be an http(s) URL: %w", ErrInvalidArgument)
		}
	}

	t := TopUp{
		ID:        uuid.NewString(),
		UserID:    userID,
		Amount:    req.Amount,
		Method:    req.Method,
		ProofURL:  req.ProofURL,
		Status:    StatusPending,
		CreatedAt: s.clock().UTC(),
	}
	var username string
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		u, err := tx.UserByID(ctx, userID)
		if errors.Is(err, users.ErrNotFound) {
			return ErrUnknownUser
		}
		if err != nil {
			return err
		}
		username = u.Username
		return tx.InsertTopUp(ctx, t)
	})
	if err != nil {
		return RequestResult{}, err
	}

	events.Emit(ctx, s.events, events.New(events.TopUpRequested, t.ID, t))
	res := RequestResult{TopUp: t}
	if s.linker != nil {
		res.PaymentInstruction = s.linker.TopUp(notify.TopUpMessage{
			Username: username,
			TopUpID:  t.ID,
			Amount:   t.Amount,
			Method:   string(t.Method),
			ProofURL: t.ProofURL,
		})
	}
	return res, nil
}

// Approve credits the wallet and marks the top-up approved in one transaction.
// If the credit fails the top-up stays pending.
func (s *Service) Approve(ctx context.Context, id string, actor auth.Actor) (TopUp, error) {
	return s.decide(ctx, id, StatusApproved, actor)
}

// Reject closes a pending top-up without any ledger effect.
func (s *Service) Reject(ctx context.Context, id string, actor auth.Actor) (TopUp, error) {
	return s.decide(ctx, id, StatusRejected, actor)
}

func (s *Service) decide(ctx context.Context, id string, to Status, actor auth.Actor) (TopUp, error) {
	if id == "" || actor.UserID == "" {
		return TopUp{}, fmt.Errorf("top-up id and actor required: %w", ErrInvalidArgument)
	}
	now := s.clock().UTC()
	var out TopUp
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		t, err := tx.LockTopUp(ctx, id)
		if err != nil {
			return err
		}
		if t.Status != StatusPending {
			return fmt.Errorf("top-up %s is %s: %w", t.ID, t.Status, ErrInvalidTransition)
		}
		if to == StatusApproved {
			if _, _, err := wallet.Credit(ctx, tx, t.UserID, t.Amount, wallet.RefTopUp+t.ID, now); err != nil {
				return err
			}
		}
		if err := tx.DecideTopUp(ctx, t.ID, to, actor.UserID, now); err != nil {
			return err
		}
		t.Status = to
		t.DecidedBy = &actor.UserID
		t.DecidedAt = &now
		out = t
		return nil
	})
	if err != nil {
		return TopUp{}, err
	}

	s.decided.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(to))))
	if s.audit != nil {
		if err := s.audit.LogAdminAction(ctx, actor, audit.TargetTopUp, out.ID, "top-up "+string(to), ""); err != nil {
			logger.From(ctx).Warn("audit append failed", "err", err)
		}
	}
	events.Emit(ctx, s.events, events.New(events.TopUpDecided, out.ID, out))
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (TopUp, error) {
	if id == "" {
		return TopUp{}, ErrInvalidArgument
	}
	var out TopUp
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		out, err = tx.TopUpByID(ctx, id)
		return err
	})
	return out, err
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]TopUp, error) {
	if userID == "" {
		return nil, ErrInvalidArgument
	}
	return s.List(ctx, Filter{UserID: userID})
}

func (s *Service) List(ctx context.Context, f Filter) ([]TopUp, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", f.Status, ErrInvalidArgument)
	}
	var out []TopUp
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		out, err = tx.ListTopUps(ctx, f)
		return err
	})
	return out, err
}
