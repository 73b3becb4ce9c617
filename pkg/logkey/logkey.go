package logkey

// Keys used for structured logging across the service.
const (
	TraceID   = "Trace ID"
	Error     = "Error"
	OrderID   = "Order ID"
	ProductID = "Product ID"
	UserID    = "User ID"
)
