//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/coupon"
	"storefront/internal/order"
	"storefront/internal/storage/postgres"
	"storefront/internal/topup"
	"storefront/internal/users"
	"storefront/internal/wallet"
	"storefront/pkg/utils"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func migrationsURL() string {
	_, filename, _, _ := runtime.Caller(0)
	root := filepath.Join(filepath.Dir(filename), "..", "..", "..")
	return "file://" + filepath.Join(root, "migrations")
}

func setupStore(t *testing.T) *postgres.Store {
	t.Helper()
	return postgres.New(setupDB(t))
}

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:18-alpine",
		tcpostgres.WithDatabase("storefront"),
		tcpostgres.WithUsername("storefront"),
		tcpostgres.WithPassword("storefront"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := migrate.New(migrationsURL(), connStr)
	require.NoError(t, err)
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("migrations: %v", err)
	}
	_, _ = m.Close()

	db, err := utils.OpenPostgres(ctx, "pgx", connStr, utils.PostgresPoolConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPostgres_WalletCheckoutAndTopUp(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	admin := auth.Actor{UserID: "", Role: "admin"}
	usersSvc := users.NewService(store.Users())
	buyer, err := usersSvc.Register(ctx, users.RegisterRequest{Username: "buyer", Email: "buyer@example.com", Password: "password1"})
	require.NoError(t, err)
	boss, _, err := usersSvc.EnsureAdmin(ctx, users.RegisterRequest{Username: "boss", Email: "boss@example.com", Password: "password1"})
	require.NoError(t, err)
	admin.UserID = boss.ID

	_, err = usersSvc.Register(ctx, users.RegisterRequest{Username: "buyer", Email: "other@example.com", Password: "password1"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	topups := topup.NewService(store.TopUps(), nil, nil, nil)
	req, err := topups.Request(ctx, buyer.ID, topup.Request{Amount: d("100"), Method: topup.MethodBinance})
	require.NoError(t, err)
	_, err = topups.Approve(ctx, req.TopUp.ID, admin)
	require.NoError(t, err)
	_, err = topups.Approve(ctx, req.TopUp.ID, admin)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	cat := catalog.NewService(store.Catalog(), nil, 0, nil)
	games, err := cat.CreateCategory(ctx, admin, "Games", true)
	require.NoError(t, err)
	stock := 5
	gems, err := cat.CreateProduct(ctx, admin, catalog.CreateProductRequest{CategoryID: games.ID, Name: "Gems", Price: d("30"), Stock: &stock})
	require.NoError(t, err)

	carts := cart.NewService(store.Cart())
	_, err = carts.AddItem(ctx, buyer.ID, gems.ID, 2, cart.Metadata{RecipientID: "p-1"})
	require.NoError(t, err)

	orders := order.NewService(store.Orders(), nil, nil, nil)
	res, err := orders.Checkout(ctx, buyer.ID, order.CheckoutRequest{Method: order.MethodWallet})
	require.NoError(t, err)
	assert.True(t, res.Order.Total.Equal(d("60")))

	ledger := wallet.NewService(store.Wallet(), nil, nil)
	bal, err := ledger.GetBalance(ctx, buyer.ID)
	require.NoError(t, err)
	assert.True(t, bal.Amount.Equal(d("40")), "balance %s", bal.Amount)

	hist, err := ledger.History(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, hist, 2)

	p, err := cat.GetProduct(ctx, gems.ID)
	require.NoError(t, err)
	require.NotNil(t, p.Stock)
	assert.Equal(t, 3, *p.Stock)

	lines, err := carts.ListItems(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)

	_, err = carts.AddItem(ctx, buyer.ID, gems.ID, 2, cart.Metadata{})
	require.NoError(t, err)
	_, err = orders.Checkout(ctx, buyer.ID, order.CheckoutRequest{Method: order.MethodWallet})
	assert.ErrorIs(t, err, apperr.ErrInsufficientFunds)

	bal, err = ledger.GetBalance(ctx, buyer.ID)
	require.NoError(t, err)
	assert.True(t, bal.Amount.Equal(d("40")))
	lines, err = carts.ListItems(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Len(t, lines, 1)

	dash, err := store.Reporting().Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, dash.Users)
	assert.Equal(t, 1, dash.Orders)
}

func TestPostgres_ConcurrentCouponRedemption(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	usersSvc := users.NewService(store.Users())
	admin, _, err := usersSvc.EnsureAdmin(ctx, users.RegisterRequest{Username: "boss", Email: "boss@example.com", Password: "password1"})
	require.NoError(t, err)

	coupons := coupon.NewService(store.Coupons(), nil)
	_, err = coupons.Create(ctx, auth.Actor{UserID: admin.ID, Role: "admin"}, "save10", d("10"))
	require.NoError(t, err)

	const n = 8
	ids := make([]string, n)
	for i := range ids {
		u, err := usersSvc.Register(ctx, users.RegisterRequest{
			Username: "user" + string(rune('a'+i)),
			Email:    "user" + string(rune('a'+i)) + "@example.com",
			Password: "password1",
		})
		require.NoError(t, err)
		ids[i] = u.ID
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
		used    int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, _, err := coupons.Apply(ctx, "SAVE10", id, d("50"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				applied++
			case assert.ErrorIs(t, err, apperr.ErrCouponAlreadyUsed):
				used++
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 1, applied)
	assert.Equal(t, n-1, used)
}

func TestPostgres_ConcurrentCheckoutSameUser(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	usersSvc := users.NewService(store.Users())
	boss, _, err := usersSvc.EnsureAdmin(ctx, users.RegisterRequest{Username: "boss", Email: "boss@example.com", Password: "password1"})
	require.NoError(t, err)
	admin := auth.Actor{UserID: boss.ID, Role: "admin"}

	cat := catalog.NewService(store.Catalog(), nil, 0, nil)
	games, err := cat.CreateCategory(ctx, admin, "Games", true)
	require.NoError(t, err)
	gems, err := cat.CreateProduct(ctx, admin, catalog.CreateProductRequest{CategoryID: games.ID, Name: "Gems", Price: d("60")})
	require.NoError(t, err)

	ledger := wallet.NewService(store.Wallet(), nil, nil)
	carts := cart.NewService(store.Cart())
	orders := order.NewService(store.Orders(), nil, nil, nil)

	for _, method := range []order.Method{order.MethodWallet, order.MethodExternal} {
		t.Run(string(method), func(t *testing.T) {
			buyer, err := usersSvc.Register(ctx, users.RegisterRequest{
				Username: "buyer-" + string(method),
				Email:    "buyer-" + string(method) + "@example.com",
				Password: "password1",
			})
			require.NoError(t, err)
			_, _, err = ledger.Credit(ctx, buyer.ID, d("200"), "")
			require.NoError(t, err)
			_, err = carts.AddItem(ctx, buyer.ID, gems.ID, 1, cart.Metadata{})
			require.NoError(t, err)

			const n = 4
			var (
				wg   sync.WaitGroup
				mu   sync.Mutex
				ok   int
				errs []error
			)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := orders.Checkout(ctx, buyer.ID, order.CheckoutRequest{Method: method})
					mu.Lock()
					defer mu.Unlock()
					if err == nil {
						ok++
						return
					}
					errs = append(errs, err)
				}()
			}
			wg.Wait()

			assert.Equal(t, 1, ok)
			for _, err := range errs {
				assert.ErrorIs(t, err, cart.ErrEmpty)
			}

			placed, err := orders.ListForUser(ctx, buyer.ID)
			require.NoError(t, err)
			assert.Len(t, placed, 1)

			want := d("200")
			if method == order.MethodWallet {
				want = d("140")
			}
			bal, err := ledger.GetBalance(ctx, buyer.ID)
			require.NoError(t, err)
			assert.True(t, bal.Amount.Equal(want), "balance %s", bal.Amount)
		})
	}
}

func TestPostgres_ReadsDoNotWaitForRowLocks(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	store := postgres.New(db)

	usersSvc := users.NewService(store.Users())
	boss, _, err := usersSvc.EnsureAdmin(ctx, users.RegisterRequest{Username: "boss", Email: "boss@example.com", Password: "password1"})
	require.NoError(t, err)
	admin := auth.Actor{UserID: boss.ID, Role: "admin"}
	buyer, err := usersSvc.Register(ctx, users.RegisterRequest{Username: "buyer", Email: "buyer@example.com", Password: "password1"})
	require.NoError(t, err)

	cat := catalog.NewService(store.Catalog(), nil, 0, nil)
	games, err := cat.CreateCategory(ctx, admin, "Games", true)
	require.NoError(t, err)
	gems, err := cat.CreateProduct(ctx, admin, catalog.CreateProductRequest{CategoryID: games.ID, Name: "Gems", Price: d("10")})
	require.NoError(t, err)
	_, err = cart.NewService(store.Cart()).AddItem(ctx, buyer.ID, gems.ID, 1, cart.Metadata{})
	require.NoError(t, err)

	orders := order.NewService(store.Orders(), nil, nil, nil)
	placed, err := orders.Checkout(ctx, buyer.ID, order.CheckoutRequest{Method: order.MethodExternal})
	require.NoError(t, err)
	topups := topup.NewService(store.TopUps(), nil, nil, nil)
	req, err := topups.Request(ctx, buyer.ID, topup.Request{Amount: d("50"), Method: topup.MethodBinance})
	require.NoError(t, err)

	holder, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer func() { _ = holder.Rollback() }()
	for _, q := range []struct{ sql, id string }{
		{`SELECT id FROM users WHERE id = $1 FOR UPDATE`, buyer.ID},
		{`SELECT id FROM orders WHERE id = $1 FOR UPDATE`, placed.Order.ID},
		{`SELECT id FROM topups WHERE id = $1 FOR UPDATE`, req.TopUp.ID},
	} {
		var id string
		require.NoError(t, holder.QueryRowContext(ctx, q.sql, q.id).Scan(&id))
	}

	readCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	got, err := orders.Get(readCtx, placed.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusProcessing, got.Order.Status)

	tp, err := topups.Get(readCtx, req.TopUp.ID)
	require.NoError(t, err)
	assert.Equal(t, topup.StatusPending, tp.Status)

	bal, err := wallet.NewService(store.Wallet(), nil, nil).GetBalance(readCtx, buyer.ID)
	require.NoError(t, err)
	assert.True(t, bal.Amount.IsZero())
}
