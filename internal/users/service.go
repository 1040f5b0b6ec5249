package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/rbac"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound           = fmt.Errorf("users: %w", apperr.ErrNotFound)
	ErrAlreadyExists      = fmt.Errorf("users: username or email already registered: %w", apperr.ErrConflict)
	ErrInvalidCredentials = fmt.Errorf("users: invalid credentials: %w", apperr.ErrUnauthorized)
	ErrInvalidArgument    = fmt.Errorf("users: %w", apperr.ErrValidation)
)

const minPasswordLen = 8

// Reader is the lookup other workflows need inside their own transaction.
type Reader interface {
	UserByID(ctx context.Context, id string) (User, error)
}

// Locker takes the user row lock (SELECT ... FOR UPDATE) for the rest of the
// transaction. Workflows that act on a user's cart and wallet take it first.
type Locker interface {
	LockUser(ctx context.Context, id string) (User, error)
}

// Tx is the transactional view of user storage.
// InsertUser returns ErrAlreadyExists when username or email is taken.
type Tx interface {
	Reader
	UserByUsername(ctx context.Context, username string) (User, error)
	InsertUser(ctx context.Context, u User) error
}

type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Service handles registration and credential checks.
// It never issues tokens; that belongs to internal/auth.
type Service struct {
	store Store
	clock func() time.Time
	hash  func(string) (string, error)
}

func NewService(store Store) *Service {
	return &Service{store: store, clock: time.Now, hash: HashPassword}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (User, error) {
	return s.create(ctx, req, rbac.RoleCustomer)
}

// EnsureAdmin creates the bootstrap administrator unless the username already exists.
func (s *Service) EnsureAdmin(ctx context.Context, req RegisterRequest) (User, bool, error) {
	var existing User
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		u, err := tx.UserByUsername(ctx, strings.TrimSpace(req.Username))
		existing = u
		return err
	})
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return User{}, false, err
	}
	u, err := s.create(ctx, req, rbac.RoleAdmin)
	return u, err == nil, err
}

func (s *Service) create(ctx context.Context, req RegisterRequest, role string) (User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateRegister(req); err != nil {
		return User{}, err
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		return User{}, err
	}

	now := s.clock().UTC()
	u := User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		Balance:      decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.InsertUser(ctx, u)
	})
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// Authenticate returns the user when the password matches.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return User{}, ErrInvalidCredentials
	}

	var u User
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		u, err = tx.UserByUsername(ctx, username)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if !CheckPassword(u.PasswordHash, password) {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id string) (User, error) {
	if id == "" {
		return User{}, ErrInvalidArgument
	}
	var u User
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		u, err = tx.UserByID(ctx, id)
		return err
	})
	return u, err
}

func validateRegister(req RegisterRequest) error {
	if len(req.Username) < 3 || len(req.Username) > 64 {
		return fmt.Errorf("username must be 3-64 characters: %w", ErrInvalidArgument)
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return fmt.Errorf("email is invalid: %w", ErrInvalidArgument)
	}
	if len(req.Password) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters: %w", minPasswordLen, ErrInvalidArgument)
	}
	return nil
}
