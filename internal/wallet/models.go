package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is the current stored value of a user's wallet.
// Invariant: Amount >= 0, and every change to it has exactly one LedgerEntry.
type Balance struct {
	UserID    string          `json:"user_id" db:"id"`
	Amount    decimal.Decimal `json:"amount" db:"wallet_balance"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// LedgerEntry is an immutable append-only record of one balance change.
type LedgerEntry struct {
	ID     string          `json:"id" db:"id"`
	UserID string          `json:"user_id" db:"user_id"`
	Type   LedgerEntryType `json:"type" db:"type"`

	// Amount is signed: credits are positive, debits are negative.
	Amount       decimal.Decimal `json:"amount" db:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after" db:"balance_after"`

	// Reference ties the entry to what caused it (order:<id>, topup:<id>, admin:<key>).
	// Unique when set, so a replay cannot post twice.
	Reference string `json:"reference,omitempty" db:"reference"`

	// Metadata is optional JSON for audit/debug (JSONB in Postgres).
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type LedgerEntryType string

const (
	LedgerEntryTypeCredit LedgerEntryType = "credit"
	LedgerEntryTypeDebit  LedgerEntryType = "debit"
)

// Reference prefixes.
const (
	RefOrder = "order:"
	RefTopUp = "topup:"
	RefAdmin = "admin:"
)

// AdminCreditRequest is a manual credit posted by an administrator.
type AdminCreditRequest struct {
	UserID         string          `json:"user_id"`
	Amount         decimal.Decimal `json:"amount"`
	Reason         string          `json:"reason"`
	IdempotencyKey string          `json:"idempotency_key"`
}
