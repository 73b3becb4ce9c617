package ctxmanage

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TraceIDKey is the gin context key under which the logger middleware
// stores the per-request trace id.
const TraceIDKey = "trace_id"

// GetTraceIdOfRequest returns the trace id set by the logger middleware,
// generating a fresh one if the middleware did not run.
func GetTraceIdOfRequest(c *gin.Context) string {
	if v, ok := c.Get(TraceIDKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return uuid.NewString()
}
