package audit

import (
	"context"
	"errors"
	"time"

	"storefront/internal/auth"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
// It is append-only: no Update/Delete methods exist.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service logs internal audit information.
// Audit is internal-only and callers treat it as best-effort.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s == nil || s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" || e.Message == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	if e.IPAddress == "" {
		e.IPAddress = ClientIPFromContext(ctx)
	}
	return s.repo.Append(ctx, e)
}

// LogAdminAction records a privileged action against a target record.
func (s *Service) LogAdminAction(ctx context.Context, actor auth.Actor, targetType, targetID, message, metadata string) error {
	if actor.UserID == "" {
		return ErrInvalidEvent
	}
	return s.Append(ctx, Event{
		Type:        EventTypeAdminAction,
		ActorUserID: actor.UserID,
		ActorRole:   actor.Role,
		TargetType:  targetType,
		TargetID:    targetID,
		Message:     message,
		Metadata:    metadata,
	})
}

// LogAccount records account lifecycle events (registration, admin bootstrap).
func (s *Service) LogAccount(ctx context.Context, userID, message string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeAccount,
		ActorUserID: userID,
		TargetType:  TargetUser,
		TargetID:    userID,
		Message:     message,
	})
}
