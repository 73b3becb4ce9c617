package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"rradiant-backend/pkg/ctxmanage"
	"rradiant-backend/pkg/logkey"
)

// AdminStats returns the dashboard counters.
func (h *Handler) AdminStats(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	ctx := c.Request.Context()

	orderCount, err := h.o.Count(ctx)
	if err != nil {
		slog.Error("order count failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	userCount, err := h.u.Count(ctx)
	if err != nil {
		slog.Error("user count failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	productCount, err := h.p.Count(ctx)
	if err != nil {
		slog.Error("product count failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	revenue, err := h.o.PaidRevenue(ctx)
	if err != nil {
		slog.Error("revenue aggregation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"totalOrders":   orderCount,
		"totalUsers":    userCount,
		"totalProducts": productCount,
		"totalRevenue":  revenue,
	})
}

// AdminListOrders returns every order, newest first.
func (h *Handler) AdminListOrders(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	list, err := h.o.ListAll(c.Request.Context())
	if err != nil {
		slog.Error("order listing failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": list})
}

// AdminSetOrderStatus moves an order to the given status. Setting
// Cancelled runs the full cancellation path including stock restore.
func (h *Handler) AdminSetOrderStatus(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var req struct {
		Status string `json:"status" validate:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Status is required"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Status is required"})
		return
	}

	order, err := h.orch.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		h.respondLifecycleError(c, traceId, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"order":  order,
	})
}

// AdminListUsers returns every account with its order count.
func (h *Handler) AdminListUsers(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	ctx := c.Request.Context()

	list, err := h.u.ListAll(ctx)
	if err != nil {
		slog.Error("user listing failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	out := make([]gin.H, 0, len(list))
	for _, u := range list {
		orderCount, err := h.o.CountByEmail(ctx, u.Email)
		if err != nil {
			slog.Error("per-user order count failed", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.UserID, u.ID.Hex()), slog.String(logkey.Error, err.Error()))
			orderCount = 0
		}
		out = append(out, gin.H{
			"id":         u.ID.Hex(),
			"email":      u.Email,
			"name":       u.Name,
			"createdAt":  u.CreatedAt,
			"orderCount": orderCount,
		})
	}

	c.JSON(http.StatusOK, gin.H{"users": out})
}
