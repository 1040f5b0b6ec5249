package topup

import (
	"time"

	"github.com/shopspring/decimal"
)

type Method string

const (
	MethodBinance Method = "binance"
	MethodOXXOQR  Method = "oxxo_qr"
	MethodBTC     Method = "btc"
	MethodLTC     Method = "ltc"
)

func (m Method) Valid() bool {
	switch m {
	case MethodBinance, MethodOXXOQR, MethodBTC, MethodLTC:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// TopUp is a user's request to add funds, paid outside the system.
// Only an approval moves money, exactly once, with reference topup:<id>.
type TopUp struct {
	ID        string          `json:"id" db:"id"`
	UserID    string          `json:"user_id" db:"user_id"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Method    Method          `json:"method" db:"method"`
	ProofURL  string          `json:"proof_url,omitempty" db:"proof_url"`
	Status    Status          `json:"status" db:"status"`
	DecidedBy *string         `json:"decided_by,omitempty" db:"decided_by"`
	DecidedAt *time.Time      `json:"decided_at,omitempty" db:"decided_at"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

type Request struct {
	Amount   decimal.Decimal `json:"amount"`
	Method   Method          `json:"method"`
	ProofURL string          `json:"proof_url"`
}

type Filter struct {
	UserID string
	Status Status
}

type RequestResult struct {
	TopUp              TopUp  `json:"topup"`
	PaymentInstruction string `json:"payment_instruction,omitempty"`
}
