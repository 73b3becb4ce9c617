package orders

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order lifecycle statuses. Cancelled is only reachable from Pending or
// Processing; the payment axis is tracked separately in PaymentStatus.
const (
	StatusPending    = "Pending"
	StatusProcessing = "Processing"
	StatusShipped    = "Shipped"
	StatusDelivered  = "Delivered"
	StatusCancelled  = "Cancelled"
)

// Payment statuses.
const (
	PaymentPending = "Pending"
	PaymentPaid    = "Paid"
	PaymentFailed  = "Failed"
)

// PaymentMethodCOD is stored in PaymentID for cash-on-delivery orders.
const PaymentMethodCOD = "COD"

// ValidStatus reports whether s is a known order lifecycle status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// OrderItem is a snapshot of a product at order time; the price is never
// re-read from the catalog afterwards.
type OrderItem struct {
	ProductID string  `json:"productId" bson:"productId"`
	Quantity  int     `json:"quantity" bson:"quantity"`
	Price     float64 `json:"price" bson:"price"`
	Name      string  `json:"name" bson:"name"`
	Image     string  `json:"image" bson:"image"`
}

// CustomerDetails is the contact/address bundle captured at checkout,
// immutable after creation.
type CustomerDetails struct {
	Name    string `json:"name" bson:"name" validate:"required"`
	Email   string `json:"email" bson:"email" validate:"required,email"`
	Phone   string `json:"phone" bson:"phone" validate:"required"`
	Address string `json:"address" bson:"address" validate:"required"`
	City    string `json:"city" bson:"city" validate:"required"`
	State   string `json:"state" bson:"state" validate:"required"`
	Zip     string `json:"zip" bson:"zip" validate:"required"`
}

// StatusEvent is one entry of the append-only status history.
type StatusEvent struct {
	Status    string    `json:"status" bson:"status"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Location  string    `json:"location,omitempty" bson:"location,omitempty"`
	Comment   string    `json:"comment,omitempty" bson:"comment,omitempty"`
}

// Order is the persisted order document.
type Order struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OrderID         string             `json:"orderId" bson:"orderId"`
	OrderNumber     string             `json:"orderNumber" bson:"orderNumber"`
	Items           []OrderItem        `json:"items" bson:"items"`
	TotalAmount     float64            `json:"totalAmount" bson:"totalAmount"`
	CustomerDetails CustomerDetails    `json:"customerDetails" bson:"customerDetails"`
	PaymentID       string             `json:"paymentId,omitempty" bson:"paymentId,omitempty"`
	PaymentStatus   string             `json:"paymentStatus" bson:"paymentStatus"`
	OrderStatus     string             `json:"orderStatus" bson:"orderStatus"`

	// Fulfillment correlation, populated after partner registration.
	// Empty means the shipment is not registered yet and the sync
	// endpoint can retry later.
	TrackingNumber       string `json:"trackingNumber,omitempty" bson:"trackingNumber,omitempty"`
	Carrier              string `json:"carrier,omitempty" bson:"carrier,omitempty"`
	TrackingURL          string `json:"trackingUrl,omitempty" bson:"trackingUrl,omitempty"`
	ShiprocketShipmentID string `json:"shiprocketShipmentId,omitempty" bson:"shiprocketShipmentId,omitempty"`
	ShiprocketOrderID    string `json:"shiprocketOrderId,omitempty" bson:"shiprocketOrderId,omitempty"`

	// RazorpayOrderID correlates prepaid orders with the gateway order
	// reference; kept for lookups by legacy identifiers.
	RazorpayOrderID string `json:"razorpayOrderId,omitempty" bson:"razorpayOrderId,omitempty"`

	StatusHistory []StatusEvent `json:"statusHistory" bson:"statusHistory"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// AppendHistory records a status change on the order. History is
// append-only; entries are never mutated or reordered.
func (o *Order) AppendHistory(status, comment string, at time.Time) {
	o.StatusHistory = append(o.StatusHistory, StatusEvent{
		Status:    status,
		Timestamp: at,
		Comment:   comment,
	})
}
