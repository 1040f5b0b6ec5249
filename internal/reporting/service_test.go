package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/wallet"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestReporting_LedgerSummaryAggregates(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Unix(1700000000, 0).UTC()
	repo.Ledgers = []wallet.LedgerEntry{
		{ID: "l1", UserID: "u", Type: wallet.LedgerEntryTypeCredit, Amount: d("100"), Reference: "topup:t1", CreatedAt: now},
		{ID: "l2", UserID: "u", Type: wallet.LedgerEntryTypeDebit, Amount: d("-60"), Reference: "order:o1", CreatedAt: now},
		{ID: "l3", UserID: "u", Type: wallet.LedgerEntryTypeDebit, Amount: d("-2.50"), Reference: "order:o2", CreatedAt: now},
		{ID: "l4", UserID: "u", Type: wallet.LedgerEntryTypeCredit, Amount: d("25"), Reference: "admin:refund-o1", CreatedAt: now},
		{ID: "l5", UserID: "u", Type: wallet.LedgerEntryTypeCredit, Amount: d("999"), Reference: "topup:old", CreatedAt: now.Add(-48 * time.Hour)},
	}
	svc := NewService(repo)

	out, err := svc.LedgerSummary(context.Background(), TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.Entries != 4 {
		t.Fatalf("expected 4 entries in range, got %d", out.Entries)
	}
	if !out.TotalCredit.Equal(d("125")) || !out.TotalDebit.Equal(d("62.50")) || !out.Net.Equal(d("62.50")) {
		t.Fatalf("unexpected totals: %+v", out)
	}
	if !out.TopUpCredit.Equal(d("100")) || !out.AdminCredit.Equal(d("25")) || !out.OrderDebit.Equal(d("62.50")) {
		t.Fatalf("unexpected breakdown: %+v", out)
	}
}

func TestReporting_RejectsEmptyRange(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	now := time.Now()
	_, err := svc.LedgerSummary(context.Background(), TimeRange{From: now, To: now})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReporting_Dashboard(t *testing.T) {
	repo := NewMemoryRepo()
	repo.Counts = Dashboard{Users: 3, Products: 5, PendingTopUps: 1, Orders: 7, ProcessingOrders: 2}
	out, err := NewService(repo).Dashboard(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out != repo.Counts {
		t.Fatalf("unexpected dashboard %+v", out)
	}
}
