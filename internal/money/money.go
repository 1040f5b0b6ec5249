// Package money holds the decimal rules shared by prices, balances, coupons and top-ups.
// Amounts are stored as NUMERIC(12,2); anything finer than a cent is rejected, never rounded.
package money

import (
	"fmt"
	"strings"

	"storefront/internal/apperr"

	"github.com/shopspring/decimal"
)

const Places = 2

// Max is the largest value a NUMERIC(12,2) column holds.
var Max = decimal.RequireFromString("9999999999.99")

var (
	ErrNotPositive = fmt.Errorf("amount must be greater than zero: %w", apperr.ErrValidation)
	ErrTooPrecise  = fmt.Errorf("amount has more than %d decimal places: %w", Places, apperr.ErrValidation)
	ErrTooLarge    = fmt.Errorf("amount is too large: %w", apperr.ErrValidation)
	ErrMalformed   = fmt.Errorf("amount is not a decimal number: %w", apperr.ErrValidation)
)

// Positive validates an amount that must be strictly greater than zero.
func Positive(d decimal.Decimal) error {
	if !d.IsPositive() {
		return ErrNotPositive
	}
	return Representable(d)
}

// Representable validates scale and magnitude without constraining the sign.
func Representable(d decimal.Decimal) error {
	if !d.Equal(d.Round(Places)) {
		return ErrTooPrecise
	}
	if d.Abs().GreaterThan(Max) {
		return ErrTooLarge
	}
	return nil
}

// Parse reads a decimal string as sent over the wire ("12.50").
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, ErrMalformed
	}
	return d, nil
}

// Floor returns d, or zero when d is negative.
func Floor(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// String renders with exactly two decimal places.
func String(d decimal.Decimal) string {
	return d.StringFixed(Places)
}
