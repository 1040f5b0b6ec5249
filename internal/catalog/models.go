package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Visible   bool      `json:"visible" db:"visible"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Product is a sellable item. Price is the live price; orders freeze their own copy.
type Product struct {
	ID          string          `json:"id" db:"id"`
	CategoryID  string          `json:"category_id" db:"category_id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description,omitempty" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Active      bool            `json:"active" db:"active"`

	// Stock is nil for untracked (unlimited) products.
	Stock *int `json:"stock,omitempty" db:"stock"`

	Fulfillment Fulfillment `json:"fulfillment" db:"fulfillment"`

	// ProviderRef is the upstream service id used by the fulfillment gateway.
	ProviderRef string `json:"provider_ref,omitempty" db:"provider_ref"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Fulfillment string

const (
	FulfillmentManual Fulfillment = "manual"
	FulfillmentSMM    Fulfillment = "smm"
	FulfillmentDocs   Fulfillment = "docs"
)

func (f Fulfillment) Valid() bool {
	switch f {
	case FulfillmentManual, FulfillmentSMM, FulfillmentDocs:
		return true
	default:
		return false
	}
}

type CreateProductRequest struct {
	CategoryID  string          `json:"category_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       *int            `json:"stock"`
	Fulfillment Fulfillment     `json:"fulfillment"`
	ProviderRef string          `json:"provider_ref"`
}

// ProductPatch holds the admin-editable fields; nil fields are left unchanged.
type ProductPatch struct {
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Active      *bool            `json:"active"`
	Stock       *int             `json:"stock"`
	// ClearStock switches the product back to untracked stock.
	ClearStock bool `json:"clear_stock"`
}

// ProductFilter narrows ListProducts. Zero value lists everything.
type ProductFilter struct {
	CategoryID string
	ActiveOnly bool
	// VisibleOnly drops products whose category is hidden.
	VisibleOnly bool
	Limit       int
}
