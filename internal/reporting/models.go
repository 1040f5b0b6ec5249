package reporting

import (
	"time"

	"github.com/shopspring/decimal"
)

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Dashboard is the admin home page summary.
type Dashboard struct {
	Users            int `json:"users"`
	Products         int `json:"products"`
	PendingTopUps    int `json:"pending_topups"`
	Orders           int `json:"orders"`
	ProcessingOrders int `json:"processing_orders"`
}

// LedgerSummary aggregates ledger entries created in a time range.
// It is derived only from the immutable ledger.
type LedgerSummary struct {
	Range TimeRange `json:"range"`

	TotalCredit decimal.Decimal `json:"total_credit"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	Net         decimal.Decimal `json:"net"`

	TopUpCredit decimal.Decimal `json:"topup_credit"`
	AdminCredit decimal.Decimal `json:"admin_credit"`
	OrderDebit  decimal.Decimal `json:"order_debit"`

	Entries int `json:"entries"`
}
