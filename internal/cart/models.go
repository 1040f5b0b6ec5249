package cart

import (
	"time"

	"storefront/internal/catalog"

	"github.com/shopspring/decimal"
)

// Metadata is the per-line recipient information some products need
// (e.g. the game account a top-up is delivered to).
type Metadata struct {
	RecipientID   string `json:"recipient_id,omitempty"`
	RecipientName string `json:"recipient_name,omitempty"`
}

func (m Metadata) IsZero() bool { return m == Metadata{} }

type Item struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	ProductID string    `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	Metadata  Metadata  `json:"metadata" db:"metadata"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Line is a cart item priced at the product's live price.
type Line struct {
	Item     Item            `json:"item"`
	Product  catalog.Product `json:"product"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// Total sums the line subtotals.
func Total(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Subtotal)
	}
	return sum
}
