package httpapi

import (
	"net/http"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/order"
	"storefront/internal/reporting"
	"storefront/internal/topup"
	"storefront/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// Admin handlers sit behind rbac.RequireAdmin; none of them re-check the role.

// --- Top-ups ---

func (h Handlers) AdminListTopUps(c *gin.Context) {
	out, err := h.TopUps.List(c.Request.Context(), topup.Filter{Status: topup.Status(c.Query("status"))})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) ApproveTopUp(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	t, err := h.TopUps.Approve(c.Request.Context(), c.Param("topup_id"), a)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h Handlers) RejectTopUp(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	t, err := h.TopUps.Reject(c.Request.Context(), c.Param("topup_id"), a)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// --- Orders ---

func (h Handlers) AdminListOrders(c *gin.Context) {
	out, err := h.Orders.List(c.Request.Context(), order.Filter{
		UserID: c.Query("user_id"),
		Status: order.Status(c.Query("status")),
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) AdminGetOrder(c *gin.Context) {
	d, err := h.Orders.Get(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h Handlers) MarkOrderDone(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	o, err := h.Orders.MarkDone(c.Request.Context(), c.Param("order_id"), a)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h Handlers) MarkOrderRejected(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	o, err := h.Orders.MarkRejected(c.Request.Context(), c.Param("order_id"), a)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h Handlers) SubmitOrder(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	out, err := h.Orders.SubmitToProviders(c.Request.Context(), c.Param("order_id"), a)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": out})
}

// --- Maintenance ---

type maintenanceRequest struct {
	Enabled *bool `json:"enabled"`
}

// ToggleMaintenance sets the flag from the body, or flips it when the body omits it.
func (h Handlers) ToggleMaintenance(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req maintenanceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badJSON(c)
			return
		}
	}
	on := false
	if req.Enabled != nil {
		on = *req.Enabled
	} else {
		cur, err := h.Settings.Maintenance(c.Request.Context())
		if err != nil {
			abortWithError(c, err)
			return
		}
		on = !cur
	}
	if err := h.Settings.SetMaintenance(c.Request.Context(), on, a); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"maintenance": on})
}

// --- Wallet ---

type adminCreditRequest struct {
	UserID         string          `json:"user_id"`
	Amount         decimal.Decimal `json:"amount"`
	Reason         string          `json:"reason"`
	IdempotencyKey string          `json:"idempotency_key"`
}

// AdminCredit performs an idempotent manual credit, e.g. a refund of a rejected order.
func (h Handlers) AdminCredit(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req adminCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	entry, bal, err := h.Wallet.AdminCredit(c.Request.Context(), a, wallet.AdminCreditRequest{
		UserID:         req.UserID,
		Amount:         req.Amount,
		Reason:         req.Reason,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": entry, "balance": bal})
}

// --- Catalog ---

type createCategoryRequest struct {
	Name    string `json:"name"`
	Visible *bool  `json:"visible"`
}

func (h Handlers) CreateCategory(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	visible := req.Visible == nil || *req.Visible
	cat, err := h.Catalog.CreateCategory(c.Request.Context(), a, req.Name, visible)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (h Handlers) AdminListProducts(c *gin.Context) {
	out, err := h.Catalog.ListProducts(c.Request.Context(), c.Query("category_id"), false)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) CreateProduct(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req catalog.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	p, err := h.Catalog.CreateProduct(c.Request.Context(), a, req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h Handlers) UpdateProduct(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var patch catalog.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badJSON(c)
		return
	}
	p, err := h.Catalog.UpdateProduct(c.Request.Context(), a, c.Param("product_id"), patch)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// --- Coupons ---

type createCouponRequest struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
}

func (h Handlers) CreateCoupon(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req createCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	cp, err := h.Coupons.Create(c.Request.Context(), a, req.Code, req.Discount)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cp)
}

func (h Handlers) ListCoupons(c *gin.Context) {
	out, err := h.Coupons.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// --- Reporting ---

func (h Handlers) Dashboard(c *gin.Context) {
	d, err := h.Reporting.Dashboard(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// LedgerSummary reads ?from=&to= as RFC 3339; the default is the last 30 days.
func (h Handlers) LedgerSummary(c *gin.Context) {
	to := h.now().UTC()
	from := to.AddDate(0, 0, -30)
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be RFC 3339", "code": "validation"})
			return
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must be RFC 3339", "code": "validation"})
			return
		}
		to = t
	}
	s, err := h.Reporting.LedgerSummary(c.Request.Context(), reporting.TimeRange{From: from, To: to})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}
