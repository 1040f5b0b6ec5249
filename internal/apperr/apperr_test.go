package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKind_FollowsWrapping(t *testing.T) {
	sentinel := fmt.Errorf("wallet: %w", ErrInsufficientFunds)
	wrapped := fmt.Errorf("checkout: %w", sentinel)

	if Kind(wrapped) != ErrInsufficientFunds {
		t.Fatalf("expected insufficient funds class, got %v", Kind(wrapped))
	}
	if !errors.Is(wrapped, sentinel) {
		t.Fatalf("expected sentinel to survive wrapping")
	}
}

func TestKind_Unclassified(t *testing.T) {
	if Kind(errors.New("boom")) != nil {
		t.Fatalf("expected nil class")
	}
	if Kind(nil) != nil {
		t.Fatalf("expected nil class for nil error")
	}
}
