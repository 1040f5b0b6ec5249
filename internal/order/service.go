package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/audit"
	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/coupon"
	"storefront/internal/events"
	"storefront/internal/gateway"
	"storefront/internal/notify"
	"storefront/internal/telemetry"
	"storefront/internal/users"
	"storefront/internal/wallet"
	"storefront/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNotFound          = fmt.Errorf("order: %w", apperr.ErrNotFound)
	ErrInvalidArgument   = fmt.Errorf("order: %w", apperr.ErrValidation)
	ErrInvalidTransition = fmt.Errorf("order: %w", apperr.ErrInvalidTransition)
	ErrUnknownUser       = fmt.Errorf("order: unknown user: %w", apperr.ErrIntegrity)
)

// Tx is everything checkout touches, in one transaction.
//
// Checkout locks the user row before reading the cart, so two checkouts by the
// same user run one after the other.
// LockOrder locks the order row (FOR UPDATE) and returns ErrNotFound when absent.
// OrderByID is the same read without the lock.
type Tx interface {
	users.Locker
	wallet.Tx
	coupon.Tx
	cart.Tx
	catalog.StockTx

	InsertOrder(ctx context.Context, o Order, items []Item) error
	LockOrder(ctx context.Context, id string) (Order, error)
	OrderByID(ctx context.Context, id string) (Order, error)
	SetOrderStatus(ctx context.Context, id string, status Status, now time.Time) error
	OrderItems(ctx context.Context, orderID string) ([]Item, error)
	ListOrders(ctx context.Context, f Filter) ([]Order, error)
}

type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Service is the order state machine:
//
//	checkout -> processing -> done
//	                       -> rejected
//
// Checkout is atomic: cart snapshot, coupon redemption, stock, wallet debit,
// order insert and cart cleanup commit together or not at all.
type Service struct {
	store     Store
	linker    *notify.Linker
	audit     *audit.Service
	events    events.Publisher
	providers map[catalog.Fulfillment]gateway.Submitter
	clock     func() time.Time

	placed  metric.Int64Counter
	failed  metric.Int64Counter
	decided metric.Int64Counter
}

const meterScope = "storefront/order"

func NewService(store Store, linker *notify.Linker, auditSvc *audit.Service, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{
		store:     store,
		linker:    linker,
		audit:     auditSvc,
		events:    pub,
		providers: map[catalog.Fulfillment]gateway.Submitter{},
		clock:     time.Now,
		placed:    telemetry.Counter(meterScope, "storefront_orders_placed", "Orders committed by checkout"),
		failed:    telemetry.Counter(meterScope, "storefront_checkout_failures", "Checkouts rolled back"),
		decided:   telemetry.Counter(meterScope, "storefront_orders_decided", "Admin order transitions"),
	}
}

// WithProvider routes items of the given fulfillment kind to s.
func (s *Service) WithProvider(f catalog.Fulfillment, sub gateway.Submitter) *Service {
	s.providers[f] = sub
	return s
}

func (s *Service) Checkout(ctx context.Context, userID string, req CheckoutRequest) (CheckoutResult, error) {
	if userID == "" {
		return CheckoutResult{}, fmt.Errorf("user required: %w", ErrInvalidArgument)
	}
	if !req.Method.Valid() {
		return CheckoutResult{}, fmt.Errorf("unsupported payment method %q: %w", req.Method, ErrInvalidArgument)
	}

	now := s.clock().UTC()
	o := Order{
		ID:        uuid.NewString(),
		UserID:    userID,
		Method:    req.Method,
		Status:    StatusProcessing,
		Discount:  decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
	var (
		items        []Item
		username     string
		couponStatus CouponStatus
	)

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		u, err := tx.LockUser(ctx, userID)
		if errors.Is(err, users.ErrNotFound) {
			return ErrUnknownUser
		}
		if err != nil {
			return err
		}
		username = u.Username

		lines, err := cart.Snapshot(ctx, tx, userID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return cart.ErrEmpty
		}
		if err := reserveStock(ctx, tx, lines, now); err != nil {
			return err
		}

		o.Subtotal = cart.Total(lines)
		o.Total = o.Subtotal

		if code := coupon.Normalize(req.CouponCode); code != "" {
			total, red, err := coupon.Redeem(ctx, tx, code, userID, o.Subtotal, now)
			switch {
			case errors.Is(err, apperr.ErrCouponNotFound):
				couponStatus = CouponNotFound
			case err != nil:
				return err
			default:
				couponStatus = CouponApplied
				o.CouponCode = red.Code
				o.Discount = red.Applied
				o.Total = total
			}
		}

		if o.Method == MethodWallet && o.Total.IsPositive() {
			if _, _, err := wallet.Debit(ctx, tx, userID, o.Total, wallet.RefOrder+o.ID, now); err != nil {
				return err
			}
		}

		items = make([]Item, 0, len(lines))
		for _, l := range lines {
			items = append(items, Item{
				ID:          uuid.NewString(),
				OrderID:     o.ID,
				ProductID:   l.Product.ID,
				ProductName: l.Product.Name,
				Quantity:    l.Item.Quantity,
				UnitPrice:   l.Product.Price,
				Metadata:    l.Item.Metadata,
			})
		}
		if err := tx.InsertOrder(ctx, o, items); err != nil {
			return err
		}
		ids := cart.ItemIDs(lines)
		n, err := tx.DeleteItems(ctx, userID, ids)
		if err != nil {
			return err
		}
		if n != len(ids) {
			return cart.ErrChanged
		}
		return nil
	})
	if err != nil {
		s.failed.Add(ctx, 1, metric.WithAttributes(
			attribute.String("method", string(req.Method)),
			attribute.String("class", errorClass(err)),
		))
		return CheckoutResult{}, err
	}

	s.placed.Add(ctx, 1, metric.WithAttributes(attribute.String("method", string(o.Method))))
	events.Emit(ctx, s.events, events.New(events.OrderPlaced, o.ID, Details{Order: o, Items: items}))
	logger.From(ctx).Info("order placed", "order_id", o.ID, "method", string(o.Method), "total", o.Total.String())

	res := CheckoutResult{Order: o, Items: items, CouponStatus: couponStatus}
	if o.Method == MethodExternal && s.linker != nil {
		recipients := make([]notify.Recipient, 0, len(items))
		for _, it := range items {
			recipients = append(recipients, notify.Recipient{ID: it.Metadata.RecipientID, Name: it.Metadata.RecipientName})
		}
		res.PaymentInstruction = s.linker.Order(notify.OrderMessage{
			Username:   username,
			OrderID:    o.ID,
			Total:      o.Total,
			Recipients: recipients,
		})
	}
	return res, nil
}

// reserveStock decrements tracked stock for every product in the cart, after
// checking availability of the summed quantity per product.
func reserveStock(ctx context.Context, tx Tx, lines []cart.Line, now time.Time) error {
	qty := make(map[string]int, len(lines))
	var order []catalog.Product
	for _, l := range lines {
		if _, ok := qty[l.Product.ID]; !ok {
			order = append(order, l.Product)
		}
		qty[l.Product.ID] += l.Item.Quantity
	}
	for _, p := range order {
		if err := catalog.CheckAvailable(p, qty[p.ID]); err != nil {
			return err
		}
		if p.Stock == nil {
			continue
		}
		if err := tx.DecrementStock(ctx, p.ID, qty[p.ID], now); err != nil {
			return err
		}
	}
	return nil
}

// MarkDone completes a processing order.
func (s *Service) MarkDone(ctx context.Context, orderID string, actor auth.Actor) (Order, error) {
	return s.transition(ctx, orderID, StatusDone, actor)
}

// MarkRejected rejects a processing order. A wallet payment is not refunded
// here; refunds go through wallet.Service.AdminCredit.
func (s *Service) MarkRejected(ctx context.Context, orderID string, actor auth.Actor) (Order, error) {
	return s.transition(ctx, orderID, StatusRejected, actor)
}

func (s *Service) transition(ctx context.Context, orderID string, to Status, actor auth.Actor) (Order, error) {
	if orderID == "" {
		return Order{}, ErrInvalidArgument
	}
	now := s.clock().UTC()
	var out Order
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		o, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status != StatusProcessing {
			return fmt.Errorf("order %s is %s: %w", o.ID, o.Status, ErrInvalidTransition)
		}
		if err := tx.SetOrderStatus(ctx, o.ID, to, now); err != nil {
			return err
		}
		o.Status = to
		o.UpdatedAt = now
		out = o
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	s.decided.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(to))))
	if s.audit != nil {
		if err := s.audit.LogAdminAction(ctx, actor, audit.TargetOrder, out.ID, "order marked "+string(to), ""); err != nil {
			logger.From(ctx).Warn("audit append failed", "err", err)
		}
	}
	events.Emit(ctx, s.events, events.New(events.OrderStatusChanged, out.ID, out))
	return out, nil
}

func (s *Service) Get(ctx context.Context, orderID string) (Details, error) {
	if orderID == "" {
		return Details{}, ErrInvalidArgument
	}
	var out Details
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		o, err := tx.OrderByID(ctx, orderID)
		if err != nil {
			return err
		}
		items, err := tx.OrderItems(ctx, orderID)
		if err != nil {
			return err
		}
		out = Details{Order: o, Items: items}
		return nil
	})
	return out, err
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]Order, error) {
	if userID == "" {
		return nil, ErrInvalidArgument
	}
	return s.List(ctx, Filter{UserID: userID})
}

func (s *Service) List(ctx context.Context, f Filter) ([]Order, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", f.Status, ErrInvalidArgument)
	}
	var out []Order
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		out, err = tx.ListOrders(ctx, f)
		return err
	})
	return out, err
}

// SubmitToProviders forwards each provider-fulfilled item of the order to its
// gateway. It reads inside a transaction and calls out after it, and never
// changes the order. Per-item failures are reported, not returned.
func (s *Service) SubmitToProviders(ctx context.Context, orderID string, actor auth.Actor) ([]Submission, error) {
	d, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if d.Order.Status == StatusRejected {
		return nil, fmt.Errorf("order %s is rejected: %w", d.Order.ID, ErrInvalidTransition)
	}

	var products map[string]catalog.Product
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		ids := make([]string, 0, len(d.Items))
		for _, it := range d.Items {
			ids = append(ids, it.ProductID)
		}
		var err error
		products, err = tx.ProductsByIDs(ctx, ids)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]Submission, 0, len(d.Items))
	for _, it := range d.Items {
		p, ok := products[it.ProductID]
		if !ok || p.Fulfillment == catalog.FulfillmentManual || p.Fulfillment == "" {
			continue
		}
		sub := Submission{ItemID: it.ID, ProductID: it.ProductID}
		g, ok := s.providers[p.Fulfillment]
		if !ok {
			sub.Error = gateway.ErrNotConfigured.Error()
			out = append(out, sub)
			continue
		}
		res, err := g.Submit(ctx, gateway.Submission{
			ServiceRef:    p.ProviderRef,
			Recipient:     it.Metadata.RecipientID,
			RecipientName: it.Metadata.RecipientName,
			Quantity:      it.Quantity,
		})
		if err != nil {
			logger.From(ctx).Warn("provider submission failed", "order_id", orderID, "item_id", it.ID, "provider", g.Name(), "err", err)
			sub.Error = err.Error()
			sub.Result = gateway.Result{Provider: g.Name(), Status: "failed"}
		} else {
			sub.Result = res
		}
		out = append(out, sub)
	}

	if s.audit != nil {
		if err := s.audit.LogAdminAction(ctx, actor, audit.TargetOrder, orderID, "order submitted to providers", ""); err != nil {
			logger.From(ctx).Warn("audit append failed", "err", err)
		}
	}
	return out, nil
}

func errorClass(err error) string {
	if k := apperr.Kind(err); k != nil {
		return k.Error()
	}
	return "internal"
}
