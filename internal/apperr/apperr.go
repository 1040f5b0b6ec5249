// Package apperr is the error taxonomy shared by the storefront workflows.
//
// Packages declare their own sentinels and wrap one of the classes below
// with %w, so callers can branch on either the precise sentinel or the class.
package apperr

import "errors"

var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrCouponNotFound    = errors.New("coupon not found")
	ErrCouponAlreadyUsed = errors.New("coupon already used")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrIntegrity         = errors.New("integrity error")
)

// Kind returns the class err belongs to, or nil when it is not classified.
func Kind(err error) error {
	for _, k := range []error{
		ErrValidation,
		ErrInsufficientFunds,
		ErrCouponNotFound,
		ErrCouponAlreadyUsed,
		ErrInvalidTransition,
		ErrIntegrity,
		ErrNotFound,
		ErrConflict,
		ErrUnauthorized,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
