package httpapi

import (
	"storefront/internal/rbac"

	"github.com/gin-gonic/gin"
)

// Middleware are the request gates the API routes are composed from.
type Middleware struct {
	// Identify verifies a bearer token when present (auth.OptionalAccessToken).
	Identify gin.HandlerFunc
	// Authenticate requires a valid bearer token (auth.RequireAccessToken).
	Authenticate gin.HandlerFunc
	// Maintenance answers 503 to non-admins while the store is closed (settings.Gate).
	Maintenance gin.HandlerFunc
	// Limiter caps concurrent checkouts and top-up requests per user.
	Limiter Limiter
}

// Register mounts every API route under /api.
// Keep this free of business logic; handlers delegate to internal modules.
func Register(r gin.IRouter, h Handlers, mw Middleware) {
	api := r.Group("/api")
	api.Use(ClientIP())
	if mw.Identify != nil {
		api.Use(mw.Identify)
	}
	if mw.Maintenance != nil {
		api.Use(mw.Maintenance)
	}

	// public
	{
		a := api.Group("/auth")
		a.POST("/register", h.Register)
		a.POST("/login", h.Login)
		a.POST("/refresh", h.Refresh)

		api.GET("/maintenance", h.MaintenanceStatus)
		api.GET("/categories", h.ListCategories)
		api.GET("/products", h.ListProducts)
		api.GET("/products/featured", h.Featured)
		api.GET("/products/:product_id", h.GetProduct)
	}

	// customer
	me := api.Group("")
	if mw.Authenticate != nil {
		me.Use(mw.Authenticate)
	}
	me.Use(rbac.RequireIdentity())
	{
		me.GET("/me", h.Me)

		me.GET("/cart", h.GetCart)
		me.POST("/cart/items", h.AddCartItem)
		me.DELETE("/cart/items/:item_id", h.RemoveCartItem)
		me.DELETE("/cart", h.ClearCart)

		me.POST("/orders", InFlight(mw.Limiter, "checkout"), h.Checkout)
		me.GET("/orders", h.ListMyOrders)
		me.GET("/orders/:order_id", h.GetMyOrder)

		me.GET("/wallet", h.GetBalance)
		me.GET("/wallet/ledger", h.LedgerHistory)

		me.POST("/topups", InFlight(mw.Limiter, "topup"), h.RequestTopUp)
		me.GET("/topups", h.ListMyTopUps)
		me.GET("/topups/:topup_id", h.GetMyTopUp)
	}

	// admin
	admin := me.Group("/admin")
	admin.Use(rbac.RequireAdmin())
	{
		admin.GET("/dashboard", h.Dashboard)
		admin.GET("/ledger/summary", h.LedgerSummary)

		admin.GET("/topups", h.AdminListTopUps)
		admin.POST("/topups/:topup_id/approve", h.ApproveTopUp)
		admin.POST("/topups/:topup_id/reject", h.RejectTopUp)

		admin.GET("/orders", h.AdminListOrders)
		admin.GET("/orders/:order_id", h.AdminGetOrder)
		admin.POST("/orders/:order_id/done", h.MarkOrderDone)
		admin.POST("/orders/:order_id/reject", h.MarkOrderRejected)
		admin.POST("/orders/:order_id/submit", h.SubmitOrder)

		admin.POST("/maintenance", h.ToggleMaintenance)
		admin.POST("/wallet/credit", h.AdminCredit)

		admin.POST("/categories", h.CreateCategory)
		admin.GET("/products", h.AdminListProducts)
		admin.POST("/products", h.CreateProduct)
		admin.PATCH("/products/:product_id", h.UpdateProduct)

		admin.GET("/coupons", h.ListCoupons)
		admin.POST("/coupons", h.CreateCoupon)
	}
}
