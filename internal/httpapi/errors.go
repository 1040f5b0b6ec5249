package httpapi

import (
	"errors"
	"net/http"

	"storefront/internal/apperr"
	"storefront/pkg/logger"

	"github.com/gin-gonic/gin"
)

var errBadJSON = errors.New("invalid json")

// statusFor maps an error class to its HTTP status.
func statusFor(err error) int {
	switch apperr.Kind(err) {
	case apperr.ErrValidation:
		return http.StatusBadRequest
	case apperr.ErrInsufficientFunds:
		return http.StatusPaymentRequired
	case apperr.ErrNotFound, apperr.ErrCouponNotFound:
		return http.StatusNotFound
	case apperr.ErrConflict, apperr.ErrCouponAlreadyUsed, apperr.ErrInvalidTransition:
		return http.StatusConflict
	case apperr.ErrUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes the error response. Integrity and unclassified
// errors are logged and answered with a generic body.
func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		logger.FromGin(c).Error("request failed", "err", err)
		c.AbortWithStatusJSON(status, gin.H{"error": "internal error"})
		return
	}
	body := gin.H{"error": err.Error()}
	if k := apperr.Kind(err); k != nil {
		body["code"] = code(k)
	}
	c.AbortWithStatusJSON(status, body)
}

func code(kind error) string {
	switch kind {
	case apperr.ErrValidation:
		return "validation"
	case apperr.ErrInsufficientFunds:
		return "insufficient_funds"
	case apperr.ErrCouponNotFound:
		return "coupon_not_found"
	case apperr.ErrCouponAlreadyUsed:
		return "coupon_already_used"
	case apperr.ErrInvalidTransition:
		return "invalid_transition"
	case apperr.ErrNotFound:
		return "not_found"
	case apperr.ErrConflict:
		return "conflict"
	case apperr.ErrUnauthorized:
		return "unauthorized"
	default:
		return ""
	}
}

func badJSON(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": errBadJSON.Error(), "code": "validation"})
}
