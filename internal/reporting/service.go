package reporting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/wallet"

	"github.com/shopspring/decimal"
)

var ErrInvalidRequest = fmt.Errorf("reporting: invalid request: %w", apperr.ErrValidation)

// Repository abstracts data access for reporting.
// Implementations should query immutable sources when possible (the ledger).
type Repository interface {
	Dashboard(ctx context.Context) (Dashboard, error)
	// ListLedger returns entries with from <= created_at < to.
	ListLedger(ctx context.Context, from, to time.Time) ([]wallet.LedgerEntry, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	if s.repo == nil {
		return Dashboard{}, errors.New("reporting: repository not configured")
	}
	return s.repo.Dashboard(ctx)
}

func (s *Service) LedgerSummary(ctx context.Context, r TimeRange) (LedgerSummary, error) {
	if r.From.IsZero() || r.To.IsZero() || !r.To.After(r.From) {
		return LedgerSummary{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return LedgerSummary{}, errors.New("reporting: repository not configured")
	}

	entries, err := s.repo.ListLedger(ctx, r.From, r.To)
	if err != nil {
		return LedgerSummary{}, err
	}

	out := LedgerSummary{
		Range:       r,
		TotalCredit: decimal.Zero,
		TotalDebit:  decimal.Zero,
		TopUpCredit: decimal.Zero,
		AdminCredit: decimal.Zero,
		OrderDebit:  decimal.Zero,
	}
	for _, e := range entries {
		out.Entries++
		if e.Amount.IsPositive() {
			out.TotalCredit = out.TotalCredit.Add(e.Amount)
		} else {
			out.TotalDebit = out.TotalDebit.Add(e.Amount.Neg())
		}

		switch {
		case strings.HasPrefix(e.Reference, wallet.RefTopUp):
			out.TopUpCredit = out.TopUpCredit.Add(e.Amount)
		case strings.HasPrefix(e.Reference, wallet.RefAdmin):
			out.AdminCredit = out.AdminCredit.Add(e.Amount)
		case strings.HasPrefix(e.Reference, wallet.RefOrder):
			out.OrderDebit = out.OrderDebit.Add(e.Amount.Neg())
		}
	}
	out.Net = out.TotalCredit.Sub(out.TotalDebit)
	return out, nil
}
