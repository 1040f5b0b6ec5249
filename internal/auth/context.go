package auth

import (
	"context"
	"errors"
)

type ctxKey int

const (
	ctxUserID ctxKey = iota
	ctxRole
)

var ErrNoIdentity = errors.New("identity not in context")

func WithIdentity(ctx context.Context, userID, role string) context.Context {
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxRole, role)
	return ctx
}

func UserID(ctx context.Context) (string, error) {
	v := ctx.Value(ctxUserID)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", ErrNoIdentity
}

func Role(ctx context.Context) (string, error) {
	v := ctx.Value(ctxRole)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", ErrNoIdentity
}

// Actor identifies who performed an action; admin transitions record it.
type Actor struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// ActorFromContext returns the authenticated caller, or ErrNoIdentity.
func ActorFromContext(ctx context.Context) (Actor, error) {
	uid, err := UserID(ctx)
	if err != nil {
		return Actor{}, err
	}
	role, _ := Role(ctx)
	return Actor{UserID: uid, Role: role}, nil
}
