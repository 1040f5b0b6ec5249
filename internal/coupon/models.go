package coupon

import (
	"time"

	"github.com/shopspring/decimal"
)

// Coupon is a single-use fixed discount. Once UsedBy is set it never changes.
type Coupon struct {
	Code      string          `json:"code" db:"code"`
	Discount  decimal.Decimal `json:"discount" db:"discount"`
	UsedBy    *string         `json:"used_by,omitempty" db:"used_by"`
	UsedAt    *time.Time      `json:"used_at,omitempty" db:"used_at"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

func (c Coupon) Used() bool { return c.UsedBy != nil }

// Redemption describes a successful Redeem.
type Redemption struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
	// Applied is what actually came off the total (never more than the total).
	Applied decimal.Decimal `json:"applied"`
}
