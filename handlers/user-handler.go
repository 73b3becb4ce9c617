package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"rradiant-backend/internal/orders"
	"rradiant-backend/internal/products"
	"rradiant-backend/internal/users"
	"rradiant-backend/pkg/ctxmanage"
	"rradiant-backend/pkg/logkey"
)

// ListMyOrders returns the authenticated user's orders, newest first.
func (h *Handler) ListMyOrders(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "No token, authorization denied"})
		return
	}

	list, err := h.o.ListByEmail(c.Request.Context(), claims.Email)
	if err != nil {
		slog.Error("order listing failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": list})
}

// CancelMyOrder cancels one of the caller's own orders. Ownership is
// checked before the transition rules run, so another user's order id
// reads as not found.
func (h *Handler) CancelMyOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "No token, authorization denied"})
		return
	}

	orderID := c.Param("orderId")
	order, err := h.o.FindByIDForEmail(c.Request.Context(), orderID, claims.Email)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Order not found"})
			return
		}
		slog.Error("order lookup failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	updated, err := h.orch.CancelOrder(c.Request.Context(), order.OrderID, "Order cancelled by customer")
	if err != nil {
		h.respondLifecycleError(c, traceId, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"order":  updated,
	})
}

// TrackOrder is public: the caller proves ownership by supplying the
// email on the order. A mismatch reads the same as an unknown order.
func (h *Handler) TrackOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var req struct {
		OrderID string `json:"orderId" validate:"required"`
		Email   string `json:"email" validate:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Order ID and email are required"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Order ID and email are required"})
		return
	}

	order, err := h.o.FindByIDForEmail(c.Request.Context(), req.OrderID, req.Email)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Order not found"})
			return
		}
		slog.Error("order lookup failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	// Pull the latest partner status before answering. Tracking still
	// works from the stored record when the partner is unreachable.
	if order.ShiprocketShipmentID != "" {
		if synced, _, err := h.orch.SyncFromPartner(c.Request.Context(), order.OrderID); err != nil {
			slog.Error("partner status sync failed", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.OrderID, order.OrderID), slog.String(logkey.Error, err.Error()))
		} else {
			order = synced
		}
	}

	resp := gin.H{
		"orderId":       order.OrderID,
		"orderNumber":   order.OrderNumber,
		"orderStatus":   order.OrderStatus,
		"paymentStatus": order.PaymentStatus,
		"items":         order.Items,
		"totalAmount":   order.TotalAmount,
		"createdAt":     order.CreatedAt,
		"statusHistory": order.StatusHistory,
	}
	if order.TrackingNumber != "" {
		resp["trackingNumber"] = order.TrackingNumber
		resp["carrier"] = order.Carrier
		resp["trackingUrl"] = order.TrackingURL

		if tracking, err := h.partner.TrackByAWB(c.Request.Context(), order.TrackingNumber); err != nil {
			slog.Error("awb tracking fetch failed", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.OrderID, order.OrderID), slog.String(logkey.Error, err.Error()))
		} else {
			resp["shipmentStatus"] = tracking.Status
			resp["shipmentStatusCode"] = tracking.StatusCode
			resp["shipmentLastUpdated"] = tracking.LastUpdated
		}
	} else if order.ShiprocketOrderID != "" {
		// Registered with the partner but no AWB assigned yet; show the
		// partner order status instead of shipment tracking.
		if status, err := h.partner.GetOrderStatus(c.Request.Context(), order.ShiprocketOrderID); err != nil {
			slog.Error("partner order status fetch failed", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.OrderID, order.OrderID), slog.String(logkey.Error, err.Error()))
		} else {
			resp["shipmentStatus"] = status
		}
	}

	c.JSON(http.StatusOK, resp)
}

// cartLine is a cart entry joined with its product document.
type cartLine struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Image    string  `json:"image"`
	Quantity int     `json:"quantity"`
}

// populateCart resolves cart entries against the catalog, dropping
// entries whose product no longer exists.
func (h *Handler) populateCart(c *gin.Context, entries []users.CartEntry) []cartLine {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	lines := make([]cartLine, 0, len(entries))
	for _, entry := range entries {
		p, err := h.p.GetProductByID(c.Request.Context(), entry.ProductID.Hex())
		if err != nil {
			if !errors.Is(err, products.ErrProductNotFound) {
				slog.Error("cart product lookup failed", slog.String(logkey.TraceID, traceId),
					slog.String(logkey.ProductID, entry.ProductID.Hex()), slog.String(logkey.Error, err.Error()))
			}
			continue
		}
		lines = append(lines, cartLine{
			ID:       p.ID.Hex(),
			Name:     p.Name,
			Price:    p.Price,
			Image:    p.Image,
			Quantity: entry.Quantity,
		})
	}
	return lines
}

// GetCart returns the user's cart with product details populated.
func (h *Handler) GetCart(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "No token, authorization denied"})
		return
	}

	user, err := h.u.GetByEmail(c.Request.Context(), claims.Email)
	if err != nil {
		slog.Error("user lookup failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart": h.populateCart(c, user.Cart)})
}

// UpsertCartItem sets the quantity for a product in the cart, adding
// the line when absent.
func (h *Handler) UpsertCartItem(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "No token, authorization denied"})
		return
	}

	var req struct {
		ProductID string `json:"productId" validate:"required"`
		Quantity  int    `json:"quantity" validate:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Product ID and a positive quantity are required"})
		return
	}

	if _, err := h.p.GetProductByID(c.Request.Context(), req.ProductID); err != nil {
		if errors.Is(err, products.ErrProductNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Product not found"})
			return
		}
		slog.Error("product lookup failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	user, err := h.u.GetByEmail(c.Request.Context(), claims.Email)
	if err != nil {
		slog.Error("user lookup failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	if err := h.u.UpsertCartItem(c.Request.Context(), user.ID.Hex(), req.ProductID, req.Quantity); err != nil {
		slog.Error("cart update failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// RemoveCartItem removes a single product from the cart.
func (h *Handler) RemoveCartItem(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "No token, authorization denied"})
		return
	}

	user, err := h.u.GetByEmail(c.Request.Context(), claims.Email)
	if err != nil {
		slog.Error("user lookup failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	if err := h.u.RemoveCartItem(c.Request.Context(), user.ID.Hex(), c.Param("productId")); err != nil {
		slog.Error("cart item removal failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// ClearCart empties the user's cart.
func (h *Handler) ClearCart(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "No token, authorization denied"})
		return
	}

	user, err := h.u.GetByEmail(c.Request.Context(), claims.Email)
	if err != nil {
		slog.Error("user lookup failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	if err := h.u.ClearCart(c.Request.Context(), user.ID.Hex()); err != nil {
		slog.Error("cart clear failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// GetWishlist returns the wishlist with product details populated.
func (h *Handler) GetWishlist(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "No token, authorization denied"})
		return
	}

	user, err := h.u.GetByEmail(c.Request.Context(), claims.Email)
	if err != nil {
		slog.Error("user lookup failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	list := make([]products.Product, 0, len(user.Wishlist))
	for _, id := range user.Wishlist {
		p, err := h.p.GetProductByID(c.Request.Context(), id.Hex())
		if err != nil {
			continue
		}
		list = append(list, p)
	}

	c.JSON(http.StatusOK, gin.H{"wishlist": list})
}

// AddToWishlist adds a product to the wishlist; duplicates are ignored.
func (h *Handler) AddToWishlist(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "No token, authorization denied"})
		return
	}

	var req struct {
		ProductID string `json:"productId" validate:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Product ID is required"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Product ID is required"})
		return
	}

	if _, err := h.p.GetProductByID(c.Request.Context(), req.ProductID); err != nil {
		if errors.Is(err, products.ErrProductNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Product not found"})
			return
		}
		slog.Error("product lookup failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	user, err := h.u.GetByEmail(c.Request.Context(), claims.Email)
	if err != nil {
		slog.Error("user lookup failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	if err := h.u.AddToWishlist(c.Request.Context(), user.ID.Hex(), req.ProductID); err != nil {
		slog.Error("wishlist update failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// RemoveFromWishlist removes a product from the wishlist.
func (h *Handler) RemoveFromWishlist(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "No token, authorization denied"})
		return
	}

	user, err := h.u.GetByEmail(c.Request.Context(), claims.Email)
	if err != nil {
		slog.Error("user lookup failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	if err := h.u.RemoveFromWishlist(c.Request.Context(), user.ID.Hex(), c.Param("productId")); err != nil {
		slog.Error("wishlist removal failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// SyncGuestState merges a guest session's cart and wishlist into the
// account after login. Unknown product ids are skipped rather than
// failing the whole merge.
func (h *Handler) SyncGuestState(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "No token, authorization denied"})
		return
	}

	var req struct {
		Cart []struct {
			ProductID string `json:"productId"`
			Quantity  int    `json:"quantity"`
		} `json:"cart"`
		Wishlist []string `json:"wishlist"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	cart := make([]users.CartEntry, 0, len(req.Cart))
	for _, item := range req.Cart {
		if item.Quantity <= 0 {
			continue
		}
		oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(item.ProductID))
		if err != nil {
			continue
		}
		if _, err := h.p.GetProductByID(c.Request.Context(), oid.Hex()); err != nil {
			continue
		}
		cart = append(cart, users.CartEntry{ProductID: oid, Quantity: item.Quantity})
	}

	wishlist := make([]primitive.ObjectID, 0, len(req.Wishlist))
	for _, id := range req.Wishlist {
		oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
		if err != nil {
			continue
		}
		if _, err := h.p.GetProductByID(c.Request.Context(), oid.Hex()); err != nil {
			continue
		}
		wishlist = append(wishlist, oid)
	}

	user, err := h.u.GetByEmail(c.Request.Context(), claims.Email)
	if err != nil {
		slog.Error("user lookup failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	merged, err := h.u.MergeGuestState(c.Request.Context(), user.ID.Hex(), cart, wishlist)
	if err != nil {
		slog.Error("guest state merge failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"cart":     h.populateCart(c, merged.Cart),
		"wishlist": merged.Wishlist,
	})
}
