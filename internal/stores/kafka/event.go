package kafka

import "time"

// Topics for order lifecycle events.
const (
	TopicOrderPlaced    = `order-service.order-placed`
	TopicOrderPaid      = `order-service.order-paid`
	TopicOrderCancelled = `order-service.order-cancelled`
)

// OrderEventItem is one item line carried on a lifecycle event.
type OrderEventItem struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// OrderEvent is published on order placement, payment and cancellation.
type OrderEvent struct {
	OrderID       string           `json:"order_id"`
	OrderNumber   string           `json:"order_number"`
	PaymentMethod string           `json:"payment_method"`
	TotalAmount   float64          `json:"total_amount"`
	Items         []OrderEventItem `json:"items"`
	CreatedAt     time.Time        `json:"created_at"`
}
