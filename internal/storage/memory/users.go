package memory

import (
	"context"
	"strings"

	"storefront/internal/users"
)

func (t *Tx) UserByID(_ context.Context, id string) (users.User, error) {
	u, ok := t.st.users[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

// LockUser is UserByID; transactions are already serialized.
func (t *Tx) LockUser(ctx context.Context, id string) (users.User, error) {
	return t.UserByID(ctx, id)
}

func (t *Tx) UserByUsername(_ context.Context, username string) (users.User, error) {
	for _, id := range t.st.userOrder {
		if u := t.st.users[id]; u.Username == username {
			return u, nil
		}
	}
	return users.User{}, users.ErrNotFound
}

func (t *Tx) InsertUser(_ context.Context, u users.User) error {
	for _, id := range t.st.userOrder {
		x := t.st.users[id]
		if x.Username == u.Username || strings.EqualFold(x.Email, u.Email) {
			return users.ErrAlreadyExists
		}
	}
	t.st.users[u.ID] = u
	t.st.userOrder = append(t.st.userOrder, u.ID)
	return nil
}
