package handlers

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rradiant-backend/internal/auth"
	"rradiant-backend/internal/lifecycle"
	"rradiant-backend/internal/orders"
	"rradiant-backend/internal/products"
	"rradiant-backend/internal/shiprocket"
	"rradiant-backend/internal/users"
	"rradiant-backend/middleware"
)

// Handler carries the dependencies shared by all endpoint groups.
type Handler struct {
	orch     *lifecycle.Orchestrator
	o        *orders.Conf
	p        *products.Conf
	u        *users.Conf
	partner  *shiprocket.Client
	authKeys *auth.Keys
	validate *validator.Validate
}

func NewHandler(orch *lifecycle.Orchestrator, o *orders.Conf, p *products.Conf, u *users.Conf,
	partner *shiprocket.Client, authKeys *auth.Keys) *Handler {
	return &Handler{
		orch:     orch,
		o:        o,
		p:        p,
		u:        u,
		partner:  partner,
		authKeys: authKeys,
		validate: validator.New(),
	}
}

// API wires the full route table.
func API(orch *lifecycle.Orchestrator, o *orders.Conf, p *products.Conf, u *users.Conf,
	partner *shiprocket.Client, authKeys *auth.Keys) *gin.Engine {
	r := gin.New()
	mode := os.Getenv("GIN_MODE")
	if mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	m, err := middleware.NewMid(authKeys)
	if err != nil {
		panic(err)
	}

	h := NewHandler(orch, o, p, u, partner, authKeys)
	r.Use(middleware.Logger(), gin.Recovery())

	r.GET("/ping", HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	productsGroup := r.Group("/api/products")
	{
		productsGroup.GET("", h.ListProducts)
		productsGroup.GET("/:id", h.GetProduct)
		productsGroup.GET("/category/:category", h.ListProductsByCategory)

		adminWrites := productsGroup.Group("")
		adminWrites.Use(m.Authentication(), m.AdminOnly())
		adminWrites.POST("", h.CreateProduct)
		adminWrites.PUT("/:id", h.UpdateProduct)
		adminWrites.DELETE("/:id", h.DeleteProduct)
	}

	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.GET("/profile", m.Authentication(), h.Profile)
	}

	userGroup := r.Group("/api/user")
	{
		userGroup.POST("/track", h.TrackOrder)

		authed := userGroup.Group("")
		authed.Use(m.Authentication())
		authed.GET("/orders", h.ListMyOrders)
		authed.POST("/orders/:orderId/cancel", h.CancelMyOrder)
		authed.GET("/cart", h.GetCart)
		authed.POST("/cart", h.UpsertCartItem)
		authed.DELETE("/cart", h.ClearCart)
		authed.DELETE("/cart/:productId", h.RemoveCartItem)
		authed.GET("/wishlist", h.GetWishlist)
		authed.POST("/wishlist", h.AddToWishlist)
		authed.DELETE("/wishlist/:productId", h.RemoveFromWishlist)
		authed.POST("/sync", h.SyncGuestState)
	}

	checkoutGroup := r.Group("/api/checkout")
	{
		checkoutGroup.POST("/create-order", m.Authentication(), h.CreatePaymentOrder)
		checkoutGroup.POST("/create-cod-order", m.Authentication(), h.CreateCODOrder)
		checkoutGroup.POST("/verify", h.VerifyPayment)
	}

	adminGroup := r.Group("/api/admin")
	adminGroup.Use(m.Authentication(), m.AdminOnly())
	{
		adminGroup.GET("/stats", h.AdminStats)
		adminGroup.GET("/orders", h.AdminListOrders)
		adminGroup.PUT("/orders/:id/status", h.AdminSetOrderStatus)
		adminGroup.GET("/users", h.AdminListUsers)
	}

	return r
}

// claimsFrom extracts the authenticated identity placed by the
// Authentication middleware.
func claimsFrom(c *gin.Context) (auth.Claims, bool) {
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	return claims, ok
}

func HealthCheck(c *gin.Context) {
	c.JSON(200, gin.H{
		"message": "pong",
	})
}
