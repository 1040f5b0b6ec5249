// Package events publishes storefront domain events after their transaction commits.
package events

import (
	"context"
	"sync"
	"time"

	"storefront/pkg/logger"

	"github.com/google/uuid"
)

type Type string

const (
	OrderPlaced        Type = "order.placed"
	OrderStatusChanged Type = "order.status_changed"
	TopUpRequested     Type = "topup.requested"
	TopUpDecided       Type = "topup.decided"
	WalletCredited     Type = "wallet.credited"
	MaintenanceToggled Type = "settings.maintenance_toggled"
)

// Event is the envelope written to the broker. Key selects the partition
// (the aggregate id) so events of one order or top-up stay ordered.
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

func New(t Type, key string, data any) Event {
	return Event{ID: uuid.NewString(), Type: t, Key: key, OccurredAt: time.Now().UTC(), Data: data}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Emit publishes e and logs instead of failing: the state change it describes is already committed.
func Emit(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		logger.From(ctx).Warn("event publish failed", "event_type", string(e.Type), "key", e.Key, "err", err)
	}
}

// Nop discards events; used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory for tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types lists recorded event types in publish order.
func (r *Recorder) Types() []Type {
	evs := r.Events()
	out := make([]Type, len(evs))
	for i, e := range evs {
		out[i] = e.Type
	}
	return out
}
