package order

import (
	"time"

	"storefront/internal/cart"
	"storefront/internal/gateway"

	"github.com/shopspring/decimal"
)

type Method string

const (
	MethodWallet   Method = "wallet"
	MethodExternal Method = "external"
)

func (m Method) Valid() bool { return m == MethodWallet || m == MethodExternal }

type Status string

const (
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusRejected   Status = "rejected"
)

func (s Status) Valid() bool {
	return s == StatusProcessing || s == StatusDone || s == StatusRejected
}

// Order is the header of a checkout. Total = max(Subtotal - Discount, 0).
type Order struct {
	ID         string          `json:"id" db:"id"`
	UserID     string          `json:"user_id" db:"user_id"`
	Method     Method          `json:"method" db:"method"`
	Subtotal   decimal.Decimal `json:"subtotal" db:"subtotal"`
	Discount   decimal.Decimal `json:"discount" db:"discount"`
	Total      decimal.Decimal `json:"total" db:"total"`
	CouponCode string          `json:"coupon_code,omitempty" db:"coupon_code"`
	Status     Status          `json:"status" db:"status"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// Item freezes the product name and unit price at checkout time.
type Item struct {
	ID          string          `json:"id" db:"id"`
	OrderID     string          `json:"order_id" db:"order_id"`
	ProductID   string          `json:"product_id" db:"product_id"`
	ProductName string          `json:"product_name" db:"product_name"`
	Quantity    int             `json:"quantity" db:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price" db:"unit_price"`
	Metadata    cart.Metadata   `json:"metadata" db:"metadata"`
}

type Details struct {
	Order Order  `json:"order"`
	Items []Item `json:"items"`
}

type CheckoutRequest struct {
	Method     Method `json:"method"`
	CouponCode string `json:"coupon_code"`
}

type CouponStatus string

const (
	CouponNone     CouponStatus = ""
	CouponApplied  CouponStatus = "applied"
	CouponNotFound CouponStatus = "not_found"
)

type CheckoutResult struct {
	Order        Order        `json:"order"`
	Items        []Item       `json:"items"`
	CouponStatus CouponStatus `json:"coupon_status,omitempty"`
	// PaymentInstruction is the deep link for external payments; empty for wallet orders.
	PaymentInstruction string `json:"payment_instruction,omitempty"`
}

// Filter narrows List. Zero value lists every order, newest first.
type Filter struct {
	UserID string
	Status Status
}

// Submission is the outcome of forwarding one order item to its provider.
type Submission struct {
	ItemID    string         `json:"item_id"`
	ProductID string         `json:"product_id"`
	Result    gateway.Result `json:"result"`
	Error     string         `json:"error,omitempty"`
}
