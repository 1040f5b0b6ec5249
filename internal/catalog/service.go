package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/audit"
	"storefront/internal/auth"
	"storefront/internal/money"
	"storefront/pkg/logger"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = fmt.Errorf("catalog: %w", apperr.ErrNotFound)
	ErrInvalidArgument   = fmt.Errorf("catalog: %w", apperr.ErrValidation)
	ErrUnknownProduct    = fmt.Errorf("catalog: product does not exist: %w", apperr.ErrIntegrity)
	ErrProductInactive   = fmt.Errorf("catalog: product is not available: %w", apperr.ErrValidation)
	ErrInsufficientStock = fmt.Errorf("catalog: not enough stock: %w", apperr.ErrValidation)
)

// FeaturedLimit is the number of products on the storefront home page.
const FeaturedLimit = 8

// ReadTx is the product lookup cart and order use inside their transactions.
// Prices returned here are always live, never cached.
type ReadTx interface {
	ProductByID(ctx context.Context, id string) (Product, error)
	// ProductsByIDs returns the products found; missing ids are simply absent from the map.
	ProductsByIDs(ctx context.Context, ids []string) (map[string]Product, error)
}

// StockTx decrements tracked stock. Implementations lock the product row.
type StockTx interface {
	DecrementStock(ctx context.Context, productID string, qty int, now time.Time) error
}

type Tx interface {
	ReadTx
	CategoryByID(ctx context.Context, id string) (Category, error)
	InsertCategory(ctx context.Context, c Category) error
	ListCategories(ctx context.Context, visibleOnly bool) ([]Category, error)
	InsertProduct(ctx context.Context, p Product) error
	UpdateProduct(ctx context.Context, p Product) error
	ListProducts(ctx context.Context, f ProductFilter) ([]Product, error)
}

type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Cache is a read-through JSON cache (utils.JSONCache in production).
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Service serves the catalog to shoppers and lets admins maintain it.
// Listings go through the cache; every admin write drops the cached listings.
type Service struct {
	store Store
	cache Cache
	ttl   time.Duration
	audit *audit.Service
	clock func() time.Time
}

func NewService(store Store, cache Cache, ttl time.Duration, auditSvc *audit.Service) *Service {
	return &Service{store: store, cache: cache, ttl: ttl, audit: auditSvc, clock: time.Now}
}

func (s *Service) GetProduct(ctx context.Context, id string) (Product, error) {
	if id == "" {
		return Product{}, ErrInvalidArgument
	}
	var out Product
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		out, err = tx.ProductByID(ctx, id)
		return err
	})
	return out, err
}

func (s *Service) ListCategories(ctx context.Context, visibleOnly bool) ([]Category, error) {
	key := "categories:" + strconv.FormatBool(visibleOnly)
	var out []Category
	if s.cached(ctx, key, &out) {
		return out, nil
	}
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		out, err = tx.ListCategories(ctx, visibleOnly)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.fill(ctx, key, out)
	return out, nil
}

func (s *Service) ListProducts(ctx context.Context, categoryID string, activeOnly bool) ([]Product, error) {
	return s.listProducts(ctx, ProductFilter{CategoryID: categoryID, ActiveOnly: activeOnly})
}

// Featured returns active products from visible categories for the home page.
func (s *Service) Featured(ctx context.Context, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = FeaturedLimit
	}
	return s.listProducts(ctx, ProductFilter{ActiveOnly: true, VisibleOnly: true, Limit: limit})
}

func (s *Service) listProducts(ctx context.Context, f ProductFilter) ([]Product, error) {
	key := fmt.Sprintf("products:%s:%t:%t:%d", f.CategoryID, f.ActiveOnly, f.VisibleOnly, f.Limit)
	var out []Product
	if s.cached(ctx, key, &out) {
		return out, nil
	}
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		out, err = tx.ListProducts(ctx, f)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.fill(ctx, key, out)
	return out, nil
}

func (s *Service) CreateCategory(ctx context.Context, actor auth.Actor, name string, visible bool) (Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, fmt.Errorf("category name required: %w", ErrInvalidArgument)
	}
	c := Category{ID: uuid.NewString(), Name: name, Visible: visible, CreatedAt: s.clock().UTC()}
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.InsertCategory(ctx, c)
	})
	if err != nil {
		return Category{}, err
	}
	s.afterWrite(ctx, actor, audit.TargetCategory, c.ID, "category created")
	return c, nil
}

func (s *Service) CreateProduct(ctx context.Context, actor auth.Actor, req CreateProductRequest) (Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.CategoryID == "" {
		return Product{}, fmt.Errorf("name and category required: %w", ErrInvalidArgument)
	}
	if err := money.Positive(req.Price); err != nil {
		return Product{}, err
	}
	if req.Stock != nil && *req.Stock < 0 {
		return Product{}, fmt.Errorf("stock must not be negative: %w", ErrInvalidArgument)
	}
	if req.Fulfillment == "" {
		req.Fulfillment = FulfillmentManual
	}
	if !req.Fulfillment.Valid() {
		return Product{}, fmt.Errorf("unknown fulfillment %q: %w", req.Fulfillment, ErrInvalidArgument)
	}
	if req.Fulfillment != FulfillmentManual && strings.TrimSpace(req.ProviderRef) == "" {
		return Product{}, fmt.Errorf("provider_ref required for %s fulfillment: %w", req.Fulfillment, ErrInvalidArgument)
	}

	now := s.clock().UTC()
	p := Product{
		ID:          uuid.NewString(),
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		Active:      true,
		Stock:       req.Stock,
		Fulfillment: req.Fulfillment,
		ProviderRef: strings.TrimSpace(req.ProviderRef),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := tx.CategoryByID(ctx, p.CategoryID); err != nil {
			return err
		}
		return tx.InsertProduct(ctx, p)
	})
	if err != nil {
		return Product{}, err
	}
	s.afterWrite(ctx, actor, audit.TargetProduct, p.ID, "product created")
	return p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, actor auth.Actor, id string, patch ProductPatch) (Product, error) {
	if id == "" {
		return Product{}, ErrInvalidArgument
	}
	if patch.Price != nil {
		if err := money.Positive(*patch.Price); err != nil {
			return Product{}, err
		}
	}
	if patch.Stock != nil && *patch.Stock < 0 {
		return Product{}, fmt.Errorf("stock must not be negative: %w", ErrInvalidArgument)
	}

	var out Product
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		p, err := tx.ProductByID(ctx, id)
		if err != nil {
			return err
		}
		if patch.Description != nil {
			p.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.Price != nil {
			p.Price = *patch.Price
		}
		if patch.Active != nil {
			p.Active = *patch.Active
		}
		switch {
		case patch.ClearStock:
			p.Stock = nil
		case patch.Stock != nil:
			v := *patch.Stock
			p.Stock = &v
		}
		p.UpdatedAt = s.clock().UTC()
		out = p
		return tx.UpdateProduct(ctx, p)
	})
	if err != nil {
		return Product{}, err
	}
	s.afterWrite(ctx, actor, audit.TargetProduct, out.ID, "product updated")
	return out, nil
}

// CheckAvailable validates that p can be sold in qty units right now.
func CheckAvailable(p Product, qty int) error {
	if !p.Active {
		return fmt.Errorf("%s: %w", p.Name, ErrProductInactive)
	}
	if p.Stock != nil && *p.Stock < qty {
		return fmt.Errorf("%s: %w", p.Name, ErrInsufficientStock)
	}
	return nil
}

func (s *Service) cached(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	ok, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		logger.From(ctx).Warn("catalog cache read failed", "key", key, "err", err)
		return false
	}
	return ok
}

func (s *Service) fill(ctx context.Context, key string, v any) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	if err := s.cache.Set(ctx, key, v, s.ttl); err != nil {
		logger.From(ctx).Warn("catalog cache write failed", "key", key, "err", err)
	}
	s.track(ctx, key)
}

// Cached keys are tracked under one index key so a write can drop them all.
const indexKey = "index"

func (s *Service) track(ctx context.Context, key string) {
	var keys []string
	if _, err := s.cache.Get(ctx, indexKey, &keys); err != nil {
		return
	}
	for _, k := range keys {
		if k == key {
			return
		}
	}
	_ = s.cache.Set(ctx, indexKey, append(keys, key), 2*s.ttl)
}

func (s *Service) afterWrite(ctx context.Context, actor auth.Actor, targetType, targetID, message string) {
	if s.cache != nil {
		var keys []string
		if _, err := s.cache.Get(ctx, indexKey, &keys); err == nil {
			keys = append(keys, indexKey)
			if err := s.cache.Delete(ctx, keys...); err != nil {
				logger.From(ctx).Warn("catalog cache invalidation failed", "err", err)
			}
		}
	}
	if s.audit != nil {
		if err := s.audit.LogAdminAction(ctx, actor, targetType, targetID, message, ""); err != nil {
			logger.From(ctx).Warn("audit append failed", "err", err)
		}
	}
}
