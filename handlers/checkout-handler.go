package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"rradiant-backend/internal/lifecycle"
	"rradiant-backend/internal/orders"
	"rradiant-backend/pkg/ctxmanage"
	"rradiant-backend/pkg/logkey"
)

// CartItemRequest mirrors the storefront cart line; "_id" is the product id.
type CartItemRequest struct {
	ID       string  `json:"_id" validate:"required"`
	Quantity int     `json:"quantity" validate:"required,gt=0"`
	Price    float64 `json:"price" validate:"required,gt=0"`
	Name     string  `json:"name" validate:"required"`
	Image    string  `json:"image"`
}

// CheckoutRequest is the shared shape of the COD and verify payloads.
// The total is trusted from the checkout flow and not re-derived here.
type CheckoutRequest struct {
	Cart            []CartItemRequest      `json:"cart" validate:"required,min=1,dive"`
	TotalAmount     float64                `json:"totalAmount" validate:"required,gt=0"`
	CustomerDetails orders.CustomerDetails `json:"customerDetails" validate:"required"`
}

func (r CheckoutRequest) toPlaceOrder() lifecycle.PlaceOrderRequest {
	items := make([]orders.OrderItem, 0, len(r.Cart))
	for _, it := range r.Cart {
		items = append(items, orders.OrderItem{
			ProductID: it.ID,
			Quantity:  it.Quantity,
			Price:     it.Price,
			Name:      it.Name,
			Image:     it.Image,
		})
	}
	return lifecycle.PlaceOrderRequest{
		Items:           items,
		TotalAmount:     r.TotalAmount,
		CustomerDetails: r.CustomerDetails,
	}
}

func orderEnvelope(o *orders.Order) gin.H {
	resp := gin.H{
		"status":      "success",
		"orderId":     o.OrderID,
		"orderNumber": o.OrderNumber,
	}
	if o.TrackingNumber != "" {
		resp["trackingNumber"] = o.TrackingNumber
	}
	if o.Carrier != "" {
		resp["carrier"] = o.Carrier
	}
	if o.TrackingURL != "" {
		resp["trackingUrl"] = o.TrackingURL
	}
	return resp
}

// CreateCODOrder places a cash-on-delivery order.
func (h *Handler) CreateCODOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	if _, ok := claimsFrom(c); !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "No token, authorization denied"})
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	order, err := h.orch.PlaceCODOrder(c.Request.Context(), req.toPlaceOrder())
	if err != nil {
		h.respondLifecycleError(c, traceId, err)
		return
	}

	c.JSON(http.StatusOK, orderEnvelope(order))
}

// CreatePaymentOrder registers a payment intent with the gateway.
// Nothing is persisted until the signature verifies.
func (h *Handler) CreatePaymentOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	if _, ok := claimsFrom(c); !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "No token, authorization denied"})
		return
	}

	var req struct {
		TotalAmount float64 `json:"totalAmount" validate:"required,gt=0"`
		Currency    string  `json:"currency"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if req.Currency == "" {
		req.Currency = "INR"
	}

	gatewayOrderID, err := h.orch.CreatePaymentOrder(c.Request.Context(), req.TotalAmount, req.Currency)
	if err != nil {
		h.respondLifecycleError(c, traceId, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"orderId":  gatewayOrderID,
		"amount":   req.TotalAmount,
		"currency": req.Currency,
		"keyId":    os.Getenv("RAZORPAY_KEY_ID"),
	})
}

// VerifyPayment checks the gateway signature and, on success, creates the
// paid order. The signature is the sole authorization gate; a mismatch
// persists nothing.
func (h *Handler) VerifyPayment(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var req struct {
		RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
		RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
		RazorpaySignature string `json:"razorpay_signature" validate:"required"`
		CheckoutRequest
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	order, err := h.orch.VerifyPayment(c.Request.Context(), lifecycle.VerifyRequest{
		GatewayOrderID: req.RazorpayOrderID,
		PaymentID:      req.RazorpayPaymentID,
		Signature:      req.RazorpaySignature,
		Order:          req.toPlaceOrder(),
	})
	if err != nil {
		if errors.Is(err, lifecycle.ErrSignatureMismatch) {
			slog.Error("payment signature mismatch", slog.String(logkey.TraceID, traceId),
				slog.String("gateway_order_id", req.RazorpayOrderID))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "failure"})
			return
		}
		h.respondLifecycleError(c, traceId, err)
		return
	}

	c.JSON(http.StatusOK, orderEnvelope(order))
}

// respondLifecycleError maps orchestrator errors onto the response
// taxonomy: validation 400, not found 404, everything else a generic 500.
func (h *Handler) respondLifecycleError(c *gin.Context, traceId string, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrEmptyCart),
		errors.Is(err, lifecycle.ErrMissingCustomer),
		errors.Is(err, lifecycle.ErrBadAmount),
		errors.Is(err, lifecycle.ErrInvalidStatus),
		errors.Is(err, lifecycle.ErrNoShipment):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Order cannot be cancelled at this stage."})
	case errors.Is(err, orders.ErrOrderNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Order not found"})
	default:
		slog.Error("order operation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
	}
}
