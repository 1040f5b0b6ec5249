package audit

import "time"

// Event is an immutable, append-only audit log record.
//
// Invariants:
// - Events are never updated or deleted.
// - actor and ip capture are best-effort; do not block critical flows on audit failures.
//
// Postgres: table audit_events, INSERT-only.
type Event struct {
	ID   string    `json:"id" db:"id"`
	Type EventType `json:"type" db:"type"`

	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`
	ActorRole   string `json:"actor_role,omitempty" db:"actor_role"`

	// IPAddress is the client IP resolved by the HTTP edge.
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	// TargetType/TargetID name the record acted on (order, topup, user, setting, ...).
	TargetType string `json:"target_type,omitempty" db:"target_type"`
	TargetID   string `json:"target_id,omitempty" db:"target_id"`

	Message  string `json:"message,omitempty" db:"message"`
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeAdminAction EventType = "admin_action"
	EventTypeAccount     EventType = "account"
)

const (
	TargetOrder    = "order"
	TargetTopUp    = "topup"
	TargetUser     = "user"
	TargetSetting  = "setting"
	TargetProduct  = "product"
	TargetCategory = "category"
	TargetCoupon   = "coupon"
)
