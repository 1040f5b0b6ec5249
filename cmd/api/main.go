package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/audit"
	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/coupon"
	"storefront/internal/events"
	"storefront/internal/gateway"
	"storefront/internal/httpapi"
	"storefront/internal/notify"
	"storefront/internal/order"
	"storefront/internal/reporting"
	"storefront/internal/settings"
	"storefront/internal/storage/postgres"
	"storefront/internal/telemetry"
	"storefront/internal/topup"
	"storefront/internal/users"
	"storefront/internal/wallet"
	"storefront/pkg/logger"
	"storefront/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const serviceVersion = "1.0.0"

// settingsCacheTTL bounds how stale the maintenance flag can be on other instances.
const settingsCacheTTL = 5 * time.Second

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env, cfg.Telemetry.ServiceName)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(rootCtx, cfg.Telemetry.ServiceName, serviceVersion, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}
	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(cfg.Telemetry.ServiceName, serviceVersion)
	if err != nil {
		log.Error("meter init failed", "err", err)
		os.Exit(1)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	var publisher events.Publisher = events.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		publisher = producer
		log.Info("publishing domain events", "topic", cfg.Kafka.Topic)
	}

	store := postgres.New(db)
	auditSvc := audit.NewService(store.Audit())
	linker := notify.NewLinker(cfg.Store.WhatsAppNumber)
	httpClient := gateway.NewHTTPClient(cfg.Gateways.Timeout)

	orders := order.NewService(store.Orders(), linker, auditSvc, publisher)
	if cfg.Gateways.SMMKey != "" {
		orders.WithProvider(catalog.FulfillmentSMM, gateway.NewSMMClient(cfg.Gateways.SMMURL, cfg.Gateways.SMMKey, httpClient))
	}
	if cfg.Gateways.DocsKey != "" {
		orders.WithProvider(catalog.FulfillmentDocs, gateway.NewDocsClient(cfg.Gateways.DocsURL, cfg.Gateways.DocsKey, httpClient))
	}

	settingsSvc := settings.NewService(store.Settings(), utils.NewJSONCache(rdb, "storefront:settings:"), settingsCacheTTL, auditSvc, publisher)
	usersSvc := users.NewService(store.Users())

	h := httpapi.Handlers{
		Auth:      authManager,
		Users:     usersSvc,
		Wallet:    wallet.NewService(store.Wallet(), auditSvc, publisher),
		Catalog:   catalog.NewService(store.Catalog(), utils.NewJSONCache(rdb, "storefront:catalog:"), cfg.Store.CatalogCacheTTL, auditSvc),
		Cart:      cart.NewService(store.Cart()),
		Coupons:   coupon.NewService(store.Coupons(), auditSvc),
		Orders:    orders,
		TopUps:    topup.NewService(store.TopUps(), linker, auditSvc, publisher),
		Settings:  settingsSvc,
		Reporting: reporting.NewService(store.Reporting()),
		Audit:     auditSvc,
	}

	if err := bootstrapAdmin(rootCtx, cfg.Admin, usersSvc, auditSvc); err != nil {
		log.Error("admin bootstrap failed", "err", err)
		os.Exit(1)
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, h, httpapi.Middleware{
		Identify:     auth.OptionalAccessToken(authManager),
		Authenticate: auth.RequireAccessToken(authManager),
		Maintenance:  settings.Gate(settingsSvc, "/api/auth", "/api/admin", "/api/maintenance"),
		Limiter:      utils.NewInFlightLimiter(rdb, cfg.Store.CheckoutInFlight, 30*time.Second),
	}, metricsHandler, func(ctx context.Context) error {
		return utils.HealthCheck(ctx, db, 2*time.Second)
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           otelhttp.NewHandler(r, "storefront-api"),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
	if err := shutdownMeter(shutdownCtx); err != nil {
		log.Error("meter shutdown failed", "err", err)
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Error("tracer shutdown failed", "err", err)
	}
}

// bootstrapAdmin creates the configured administrator on first start.
func bootstrapAdmin(ctx context.Context, cfg config.AdminConfig, svc *users.Service, auditSvc *audit.Service) error {
	if cfg.Username == "" {
		return nil
	}
	u, created, err := svc.EnsureAdmin(ctx, users.RegisterRequest{
		Username: cfg.Username,
		Email:    cfg.Email,
		Password: cfg.Password,
	})
	if err != nil {
		return err
	}
	if created {
		slog.Info("admin account created", "user_id", u.ID)
		if err := auditSvc.LogAccount(ctx, u.ID, "admin bootstrapped"); err != nil {
			slog.Warn("audit append failed", "err", err)
		}
	}
	return nil
}
