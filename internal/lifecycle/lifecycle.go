package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rradiant-backend/internal/metrics"
	"rradiant-backend/internal/orders"
	"rradiant-backend/internal/shiprocket"
	"rradiant-backend/internal/stores/kafka"
	"rradiant-backend/pkg/logkey"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrMissingCustomer   = errors.New("customer details are incomplete")
	ErrBadAmount         = errors.New("amount must be positive")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInvalidTransition = errors.New("order cannot be cancelled at this stage")
	ErrSignatureMismatch = errors.New("payment signature mismatch")
	ErrNoShipment        = errors.New("order has no registered shipment")
)

// OrderStore is the slice of the order record store the orchestrator needs.
type OrderStore interface {
	CreateOrder(ctx context.Context, o *orders.Order) error
	FindByAnyID(ctx context.Context, id string) (*orders.Order, error)
	UpdateOrder(ctx context.Context, o *orders.Order) error
}

// StockAdjuster is the inventory ledger.
type StockAdjuster interface {
	AdjustStock(ctx context.Context, productID string, delta int) error
}

// Gateway wraps the payment processor.
type Gateway interface {
	CreateGatewayOrder(ctx context.Context, amount float64, currency, receipt string) (string, error)
	VerifySignature(gatewayOrderID, paymentID, signature string) bool
}

// Fulfillment wraps the logistics partner.
type Fulfillment interface {
	CreateOrder(ctx context.Context, req shiprocket.ShipmentRequest) (shiprocket.Shipment, error)
	CancelOrders(ctx context.Context, ids []string) error
	TrackByShipmentID(ctx context.Context, shipmentID string) (shiprocket.Tracking, error)
}

// EventProducer publishes order lifecycle events; may be nil-value
// disabled by wiring, failures are logged only.
type EventProducer interface {
	ProduceMessage(topic string, key, value []byte) error
}

// Orchestrator is the only component allowed to mutate order state or
// trigger side effects on the adapters. Side effects are sequenced, not
// transactional: the order document is the source of truth and every
// partner linkage left empty can be retried later via SyncFromPartner.
type Orchestrator struct {
	store   OrderStore
	stock   StockAdjuster
	gateway Gateway
	partner Fulfillment
	events  EventProducer
	ids     *orders.IDGenerator
	now     func() time.Time
}

func NewOrchestrator(store OrderStore, stock StockAdjuster, gateway Gateway, partner Fulfillment, events EventProducer) *Orchestrator {
	return &Orchestrator{
		store:   store,
		stock:   stock,
		gateway: gateway,
		partner: partner,
		events:  events,
		ids:     orders.NewIDGenerator(),
		now:     time.Now,
	}
}

// PlaceOrderRequest is the checkout input shared by the COD and prepaid
// paths. Items and total are the client cart snapshot; the total is not
// re-derived from the catalog here.
type PlaceOrderRequest struct {
	Items           []orders.OrderItem
	TotalAmount     float64
	CustomerDetails orders.CustomerDetails
}

func (r PlaceOrderRequest) validate() error {
	if len(r.Items) == 0 {
		return ErrEmptyCart
	}
	cd := r.CustomerDetails
	if cd.Name == "" || cd.Email == "" || cd.Address == "" {
		return ErrMissingCustomer
	}
	return nil
}

// PlaceCODOrder creates a cash-on-delivery order. The order is persisted
// first; partner registration and stock decrements are best-effort and
// never block creation.
func (o *Orchestrator) PlaceCODOrder(ctx context.Context, req PlaceOrderRequest) (*orders.Order, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	order := o.newOrder(req)
	order.PaymentID = orders.PaymentMethodCOD
	order.PaymentStatus = orders.PaymentPending

	if err := o.store.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("persisting order: %w", err)
	}

	o.registerShipment(ctx, order)
	o.adjustStockForItems(ctx, order, -1)
	o.publishEvent(kafka.TopicOrderPlaced, order)

	metrics.OrdersPlacedTotal.WithLabelValues("cod").Inc()
	return order, nil
}

// CreatePaymentOrder registers a payment intent with the gateway. Nothing
// is persisted: the order document is created only after the payment
// signature verifies.
func (o *Orchestrator) CreatePaymentOrder(ctx context.Context, amount float64, currency string) (string, error) {
	if amount <= 0 {
		return "", ErrBadAmount
	}
	receipt := fmt.Sprintf("receipt_order_%d", o.now().UnixMilli())
	gatewayOrderID, err := o.gateway.CreateGatewayOrder(ctx, amount, currency, receipt)
	if err != nil {
		return "", fmt.Errorf("creating payment order: %w", err)
	}
	return gatewayOrderID, nil
}

// VerifyRequest carries the gateway callback fields plus the client cart
// snapshot, which is persisted only once the signature checks out.
type VerifyRequest struct {
	GatewayOrderID string
	PaymentID      string
	Signature      string
	Order          PlaceOrderRequest
}

// VerifyPayment is the sole gate for marking an order Paid. On signature
// mismatch nothing is persisted.
func (o *Orchestrator) VerifyPayment(ctx context.Context, req VerifyRequest) (*orders.Order, error) {
	if !o.gateway.VerifySignature(req.GatewayOrderID, req.PaymentID, req.Signature) {
		metrics.PaymentVerificationsTotal.WithLabelValues("failure").Inc()
		return nil, ErrSignatureMismatch
	}
	metrics.PaymentVerificationsTotal.WithLabelValues("success").Inc()

	if err := req.Order.validate(); err != nil {
		return nil, err
	}

	order := o.newOrder(req.Order)
	order.PaymentID = req.PaymentID
	order.PaymentStatus = orders.PaymentPaid
	order.RazorpayOrderID = req.GatewayOrderID

	if err := o.store.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("persisting order: %w", err)
	}

	o.registerShipment(ctx, order)
	o.adjustStockForItems(ctx, order, -1)
	o.publishEvent(kafka.TopicOrderPaid, order)

	metrics.OrdersPlacedTotal.WithLabelValues("prepaid").Inc()
	return order, nil
}

// CancelOrder cancels an order from Pending or Processing; any other
// state fails without mutating the order. Partner cancellation is
// best-effort, stock restore compensates the decrement made at creation.
func (o *Orchestrator) CancelOrder(ctx context.Context, id, comment string) (*orders.Order, error) {
	order, err := o.store.FindByAnyID(ctx, id)
	if err != nil {
		return nil, err
	}

	if order.OrderStatus != orders.StatusPending && order.OrderStatus != orders.StatusProcessing {
		return nil, ErrInvalidTransition
	}

	if order.ShiprocketOrderID != "" {
		if err := o.partner.CancelOrders(ctx, []string{order.ShiprocketOrderID}); err != nil {
			slog.Error("failed to cancel shipment with partner",
				slog.String(logkey.OrderID, order.OrderID),
				slog.String(logkey.Error, err.Error()))
		}
	}

	order.AppendHistory(orders.StatusCancelled, comment, o.now().UTC())
	order.OrderStatus = orders.StatusCancelled
	if err := o.store.UpdateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("persisting cancellation: %w", err)
	}

	o.adjustStockForItems(ctx, order, +1)
	o.publishEvent(kafka.TopicOrderCancelled, order)

	metrics.OrdersCancelledTotal.Inc()
	return order, nil
}

// SetStatus applies an admin status change. A Cancelled target follows
// the full cancellation path including stock restore.
func (o *Orchestrator) SetStatus(ctx context.Context, id, target string) (*orders.Order, error) {
	if !orders.ValidStatus(target) {
		return nil, ErrInvalidStatus
	}
	if target == orders.StatusCancelled {
		return o.CancelOrder(ctx, id, "Order cancelled by admin")
	}

	order, err := o.store.FindByAnyID(ctx, id)
	if err != nil {
		return nil, err
	}

	order.AppendHistory(target, "Status updated by admin", o.now().UTC())
	order.OrderStatus = target
	if err := o.store.UpdateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("persisting status update: %w", err)
	}
	return order, nil
}

// SyncFromPartner reconciles the local status with the partner's view.
// It is idempotent: an unchanged partner status produces no new history
// entry and no write.
func (o *Orchestrator) SyncFromPartner(ctx context.Context, id string) (*orders.Order, bool, error) {
	order, err := o.store.FindByAnyID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if order.ShiprocketShipmentID == "" {
		return nil, false, ErrNoShipment
	}

	tracking, err := o.partner.TrackByShipmentID(ctx, order.ShiprocketShipmentID)
	if err != nil {
		metrics.StatusSyncsTotal.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("fetching partner tracking: %w", err)
	}

	mapped := shiprocket.MapStatus(tracking.StatusCode)
	if mapped == order.OrderStatus {
		metrics.StatusSyncsTotal.WithLabelValues("unchanged").Inc()
		return order, false, nil
	}

	at := tracking.LastUpdated
	if at.IsZero() {
		at = o.now().UTC()
	}
	order.AppendHistory(mapped, fmt.Sprintf("Status synced from Shiprocket: %s", tracking.StatusCode), at)
	order.OrderStatus = mapped
	if err := o.store.UpdateOrder(ctx, order); err != nil {
		return nil, false, fmt.Errorf("persisting synced status: %w", err)
	}

	metrics.StatusSyncsTotal.WithLabelValues("updated").Inc()
	return order, true, nil
}

func (o *Orchestrator) newOrder(req PlaceOrderRequest) *orders.Order {
	id := o.ids.Next()
	order := &orders.Order{
		OrderID:         id,
		OrderNumber:     id,
		Items:           req.Items,
		TotalAmount:     req.TotalAmount,
		CustomerDetails: req.CustomerDetails,
		OrderStatus:     orders.StatusPending,
	}
	order.AppendHistory(orders.StatusPending, "Order placed", o.now().UTC())
	return order
}

// registerShipment registers the order with the fulfillment partner and
// persists the returned correlation ids. Failure is logged and the order
// stands without linkage; SyncFromPartner retries resolution later.
func (o *Orchestrator) registerShipment(ctx context.Context, order *orders.Order) {
	method := "Prepaid"
	if order.PaymentID == orders.PaymentMethodCOD {
		method = "COD"
	}

	items := make([]shiprocket.ShipmentItem, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, shiprocket.ShipmentItem{
			Name:         it.Name,
			SKU:          it.ProductID,
			Units:        it.Quantity,
			SellingPrice: it.Price,
		})
	}

	cd := order.CustomerDetails
	req := shiprocket.ShipmentRequest{
		OrderID:             order.OrderID,
		OrderDate:           o.now().UTC().Format("2006-01-02"),
		PickupLocation:      "Default",
		BillingCustomerName: cd.Name,
		BillingAddress:      cd.Address,
		BillingCity:         cd.City,
		BillingPincode:      cd.Zip,
		BillingState:        cd.State,
		BillingCountry:      "India",
		BillingEmail:        cd.Email,
		BillingPhone:        cd.Phone,
		ShippingIsBilling:   true,
		OrderItems:          items,
		PaymentMethod:       method,
		SubTotal:            order.TotalAmount,
		Length:              10,
		Breadth:             10,
		Height:              10,
		Weight:              0.5,
	}

	shipment, err := o.partner.CreateOrder(ctx, req)
	if err != nil {
		slog.Error("shipment registration failed, order created without partner linkage",
			slog.String(logkey.OrderID, order.OrderID),
			slog.String(logkey.Error, err.Error()))
		return
	}

	order.TrackingNumber = shipment.AWBCode
	order.Carrier = shipment.Carrier
	order.ShiprocketShipmentID = shipment.ShipmentID
	order.ShiprocketOrderID = shipment.OrderID
	if shipment.ShipmentID != "" {
		order.TrackingURL = "https://app.shiprocket.in/orders/" + shipment.ShipmentID
	}

	if err := o.store.UpdateOrder(ctx, order); err != nil {
		slog.Error("failed to persist shipment linkage",
			slog.String(logkey.OrderID, order.OrderID),
			slog.String(logkey.Error, err.Error()))
	}
}

// adjustStockForItems applies sign*quantity per item, best effort: one
// item's failure never blocks the others and nothing is rolled back.
func (o *Orchestrator) adjustStockForItems(ctx context.Context, order *orders.Order, sign int) {
	for _, it := range order.Items {
		if err := o.stock.AdjustStock(ctx, it.ProductID, sign*it.Quantity); err != nil {
			slog.Error("stock adjustment failed",
				slog.String(logkey.OrderID, order.OrderID),
				slog.String(logkey.ProductID, it.ProductID),
				slog.Int("delta", sign*it.Quantity),
				slog.String(logkey.Error, err.Error()))
		}
	}
}

func (o *Orchestrator) publishEvent(topic string, order *orders.Order) {
	if o.events == nil {
		return
	}
	items := make([]kafka.OrderEventItem, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, kafka.OrderEventItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	payload, err := json.Marshal(kafka.OrderEvent{
		OrderID:       order.OrderID,
		OrderNumber:   order.OrderNumber,
		PaymentMethod: order.PaymentID,
		TotalAmount:   order.TotalAmount,
		Items:         items,
		CreatedAt:     o.now().UTC(),
	})
	if err != nil {
		slog.Error("failed to marshal order event", slog.String(logkey.Error, err.Error()))
		return
	}
	if err := o.events.ProduceMessage(topic, []byte(order.OrderID), payload); err != nil {
		slog.Error("failed to produce order event",
			slog.String(logkey.OrderID, order.OrderID),
			slog.String(logkey.Error, err.Error()))
	}
}
