package memory

import (
	"context"
	"time"

	"storefront/internal/topup"
)

func (t *Tx) InsertTopUp(_ context.Context, tp topup.TopUp) error {
	t.st.topups[tp.ID] = tp
	t.st.topupSeq = append(t.st.topupSeq, tp.ID)
	return nil
}

func (t *Tx) LockTopUp(_ context.Context, id string) (topup.TopUp, error) {
	tp, ok := t.st.topups[id]
	if !ok {
		return topup.TopUp{}, topup.ErrNotFound
	}
	return tp, nil
}

func (t *Tx) TopUpByID(ctx context.Context, id string) (topup.TopUp, error) {
	return t.LockTopUp(ctx, id)
}

func (t *Tx) DecideTopUp(_ context.Context, id string, status topup.Status, decidedBy string, at time.Time) error {
	tp, ok := t.st.topups[id]
	if !ok {
		return topup.ErrNotFound
	}
	tp.Status = status
	tp.DecidedBy = &decidedBy
	tp.DecidedAt = &at
	t.st.topups[id] = tp
	return nil
}

func (t *Tx) ListTopUps(_ context.Context, f topup.Filter) ([]topup.TopUp, error) {
	out := make([]topup.TopUp, 0)
	for i := len(t.st.topupSeq) - 1; i >= 0; i-- {
		tp := t.st.topups[t.st.topupSeq[i]]
		if f.UserID != "" && tp.UserID != f.UserID {
			continue
		}
		if f.Status != "" && tp.Status != f.Status {
			continue
		}
		out = append(out, tp)
	}
	return out, nil
}
