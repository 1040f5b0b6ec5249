package httpapi

import (
	"net/http"
	"strconv"

	"storefront/internal/cart"
	"storefront/internal/order"
	"storefront/internal/topup"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// --- Catalog (public) ---

func (h Handlers) ListCategories(c *gin.Context) {
	out, err := h.Catalog.ListCategories(c.Request.Context(), true)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ListProducts serves active products, optionally narrowed by ?category_id=.
func (h Handlers) ListProducts(c *gin.Context) {
	out, err := h.Catalog.ListProducts(c.Request.Context(), c.Query("category_id"), true)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) Featured(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	out, err := h.Catalog.Featured(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) GetProduct(c *gin.Context) {
	p, err := h.Catalog.GetProduct(c.Request.Context(), c.Param("product_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if !p.Active {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "product not found", "code": "not_found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// --- Cart ---

type addCartItemRequest struct {
	ProductID     string `json:"product_id"`
	Quantity      int    `json:"quantity"`
	RecipientID   string `json:"recipient_id"`
	RecipientName string `json:"recipient_name"`
}

type cartView struct {
	Items []cart.Line     `json:"items"`
	Total decimal.Decimal `json:"total"`
}

func (h Handlers) GetCart(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	lines, err := h.Cart.ListItems(c.Request.Context(), a.UserID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartView{Items: lines, Total: cart.Total(lines)})
}

func (h Handlers) AddCartItem(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	it, err := h.Cart.AddItem(c.Request.Context(), a.UserID, req.ProductID, req.Quantity, cart.Metadata{
		RecipientID:   req.RecipientID,
		RecipientName: req.RecipientName,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

func (h Handlers) RemoveCartItem(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	if err := h.Cart.RemoveItem(c.Request.Context(), a.UserID, c.Param("item_id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h Handlers) ClearCart(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	if err := h.Cart.Clear(c.Request.Context(), a.UserID); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Orders ---

func (h Handlers) Checkout(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req order.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	res, err := h.Orders.Checkout(c.Request.Context(), a.UserID, req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h Handlers) ListMyOrders(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	out, err := h.Orders.ListForUser(c.Request.Context(), a.UserID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GetMyOrder hides other users' orders behind a 404.
func (h Handlers) GetMyOrder(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	d, err := h.Orders.Get(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if d.Order.UserID != a.UserID {
		abortWithError(c, order.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, d)
}

// --- Wallet ---

func (h Handlers) GetBalance(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	bal, err := h.Wallet.GetBalance(c.Request.Context(), a.UserID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, bal)
}

func (h Handlers) LedgerHistory(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	out, err := h.Wallet.History(c.Request.Context(), a.UserID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// --- Top-ups ---

func (h Handlers) RequestTopUp(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req topup.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	res, err := h.TopUps.Request(c.Request.Context(), a.UserID, req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h Handlers) ListMyTopUps(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	out, err := h.TopUps.ListForUser(c.Request.Context(), a.UserID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) GetMyTopUp(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	t, err := h.TopUps.Get(c.Request.Context(), c.Param("topup_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if t.UserID != a.UserID {
		abortWithError(c, topup.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, t)
}

// --- Maintenance (public) ---

func (h Handlers) MaintenanceStatus(c *gin.Context) {
	on, err := h.Settings.Maintenance(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"maintenance": on})
}

