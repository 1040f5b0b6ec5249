package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/apperr"
	"storefront/internal/order"
	"storefront/internal/wallet"

	"github.com/gin-gonic/gin"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{wallet.ErrInsufficientFunds, http.StatusPaymentRequired},
		{order.ErrInvalidTransition, http.StatusConflict},
		{fmt.Errorf("checkout: %w", apperr.ErrCouponAlreadyUsed), http.StatusConflict},
		{order.ErrNotFound, http.StatusNotFound},
		{order.ErrInvalidArgument, http.StatusBadRequest},
		{apperr.ErrUnauthorized, http.StatusUnauthorized},
		{order.ErrUnknownUser, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Fatalf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestAbortWithError_HidesIntegrityDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		abortWithError(c, fmt.Errorf("ledger row for user 42 missing: %w", apperr.ErrIntegrity))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "internal error" {
		t.Fatalf("expected generic body, got %q", body["error"])
	}
}
