package wallet_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/audit"
	"storefront/internal/auth"
	"storefront/internal/events"
	"storefront/internal/storage/memory"
	"storefront/internal/users"
	"storefront/internal/wallet"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedUser(t *testing.T, store *memory.Store, username string) string {
	t.Helper()
	u := users.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     username + "@example.com",
		Role:      "customer",
		Balance:   decimal.Zero,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	err := store.Users().WithinTx(context.Background(), func(ctx context.Context, tx users.Tx) error {
		return tx.InsertUser(ctx, u)
	})
	require.NoError(t, err)
	return u.ID
}

func TestLedger_CreditThenDebit(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := wallet.NewService(store.Wallet(), nil, nil)
	uid := seedUser(t, store, "ana")

	_, bal, err := svc.Credit(ctx, uid, d("100"), "topup:t1")
	require.NoError(t, err)
	assert.True(t, bal.Amount.Equal(d("100")))

	entry, bal, err := svc.Debit(ctx, uid, d("60"), "order:o1")
	require.NoError(t, err)
	assert.True(t, bal.Amount.Equal(d("40")))
	assert.Equal(t, wallet.LedgerEntryTypeDebit, entry.Type)
	assert.True(t, entry.Amount.Equal(d("-60")))
	assert.True(t, entry.BalanceAfter.Equal(d("40")))

	hist, err := svc.History(ctx, uid)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "order:o1", hist[0].Reference)
}

func TestLedger_DebitBeyondBalanceLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := wallet.NewService(store.Wallet(), nil, nil)
	uid := seedUser(t, store, "ana")

	_, _, err := svc.Credit(ctx, uid, d("40"), "")
	require.NoError(t, err)

	_, _, err = svc.Debit(ctx, uid, d("50"), "order:o2")
	assert.ErrorIs(t, err, apperr.ErrInsufficientFunds)

	bal, err := svc.GetBalance(ctx, uid)
	require.NoError(t, err)
	assert.True(t, bal.Amount.Equal(d("40")))
	hist, err := svc.History(ctx, uid)
	require.NoError(t, err)
	assert.Len(t, hist, 1)
}

func TestLedger_RejectsBadAmounts(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := wallet.NewService(store.Wallet(), nil, nil)
	uid := seedUser(t, store, "ana")

	for _, amt := range []string{"0", "-5", "1.005"} {
		_, _, err := svc.Credit(ctx, uid, d(amt), "")
		assert.ErrorIs(t, err, apperr.ErrValidation, amt)
		_, _, err = svc.Debit(ctx, uid, d(amt), "")
		assert.ErrorIs(t, err, apperr.ErrValidation, amt)
	}
}

func TestLedger_UnknownUserIsIntegrityError(t *testing.T) {
	svc := wallet.NewService(memory.New().Wallet(), nil, nil)
	_, _, err := svc.Credit(context.Background(), "ghost", d("10"), "")
	assert.ErrorIs(t, err, apperr.ErrIntegrity)
}

func TestLedger_DuplicateReferenceRollsBack(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := wallet.NewService(store.Wallet(), nil, nil)
	uid := seedUser(t, store, "ana")

	_, _, err := svc.Credit(ctx, uid, d("10"), "topup:same")
	require.NoError(t, err)
	_, _, err = svc.Credit(ctx, uid, d("10"), "topup:same")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	bal, err := svc.GetBalance(ctx, uid)
	require.NoError(t, err)
	assert.True(t, bal.Amount.Equal(d("10")))
}

func TestLedger_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := wallet.NewService(store.Wallet(), nil, nil)
	uid := seedUser(t, store, "ana")
	_, _, err := svc.Credit(ctx, uid, d("100"), "")
	require.NoError(t, err)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := svc.Debit(ctx, uid, d("30"), ""); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, ok)
	bal, err := svc.GetBalance(ctx, uid)
	require.NoError(t, err)
	assert.True(t, bal.Amount.Equal(d("10")), "balance %s", bal.Amount)
}

func TestAdminCredit_IdempotentAndAudited(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	repo := audit.NewMemoryRepo()
	rec := &events.Recorder{}
	svc := wallet.NewService(store.Wallet(), audit.NewService(repo), rec)
	uid := seedUser(t, store, "ana")
	admin := auth.Actor{UserID: "admin-1", Role: "admin"}

	req := wallet.AdminCreditRequest{UserID: uid, Amount: d("25"), Reason: "refund order o1", IdempotencyKey: "refund-o1"}
	first, bal, err := svc.AdminCredit(ctx, admin, req)
	require.NoError(t, err)
	assert.True(t, bal.Amount.Equal(d("25")))
	assert.Equal(t, "admin:refund-o1", first.Reference)

	again, bal, err := svc.AdminCredit(ctx, admin, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.True(t, bal.Amount.Equal(d("25")))

	assert.Len(t, repo.Events(), 1)
	assert.Equal(t, []events.Type{events.WalletCredited}, rec.Types())
}

func TestAdminCredit_RequiresReasonAndKey(t *testing.T) {
	store := memory.New()
	svc := wallet.NewService(store.Wallet(), nil, nil)
	uid := seedUser(t, store, "ana")

	_, _, err := svc.AdminCredit(context.Background(), auth.Actor{UserID: "a"}, wallet.AdminCreditRequest{UserID: uid, Amount: d("1")})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
