package handlers

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"rradiant-backend/internal/auth"
	"rradiant-backend/internal/users"
	"rradiant-backend/pkg/ctxmanage"
	"rradiant-backend/pkg/logkey"
)

// Register creates a customer account and returns a signed token so the
// storefront can log the user in immediately.
func (h *Handler) Register(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var req users.NewUser
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Email and password (min 6 chars) are required"})
		return
	}

	user, err := h.u.InsertUser(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, users.ErrUserExists) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "User already exists"})
			return
		}
		slog.Error("user creation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	token, err := h.authKeys.GenerateToken(user.ID.Hex(), user.Email, "user")
	if err != nil {
		slog.Error("token generation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  userEnvelope(user, "user"),
	})
}

// Login authenticates a customer, or the configured admin identity when
// the credentials match ADMIN_EMAIL / ADMIN_PASSWORD.
func (h *Handler) Login(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Email and password are required"})
		return
	}

	// Admin is an env-configured identity, not a stored account.
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail != "" && req.Email == adminEmail &&
		subtle.ConstantTimeCompare([]byte(req.Password), []byte(adminPassword)) == 1 {
		token, err := h.authKeys.GenerateToken("admin", adminEmail, auth.RoleAdmin)
		if err != nil {
			slog.Error("token generation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"token": token,
			"user": gin.H{
				"id":    "admin",
				"email": adminEmail,
				"role":  auth.RoleAdmin,
			},
		})
		return
	}

	user, err := h.u.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrBadCredential) || errors.Is(err, users.ErrUserNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
			return
		}
		slog.Error("login failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	token, err := h.authKeys.GenerateToken(user.ID.Hex(), user.Email, "user")
	if err != nil {
		slog.Error("token generation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  userEnvelope(user, "user"),
	})
}

// Profile returns the authenticated user's account document.
func (h *Handler) Profile(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "No token, authorization denied"})
		return
	}

	if claims.Role == auth.RoleAdmin {
		c.JSON(http.StatusOK, gin.H{
			"id":    claims.Subject,
			"email": claims.Email,
			"role":  auth.RoleAdmin,
		})
		return
	}

	user, err := h.u.GetByEmail(c.Request.Context(), claims.Email)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "User not found"})
			return
		}
		slog.Error("profile lookup failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, userEnvelope(user, "user"))
}

func userEnvelope(u users.User, role string) gin.H {
	return gin.H{
		"id":    u.ID.Hex(),
		"email": u.Email,
		"name":  u.Name,
		"role":  role,
	}
}
