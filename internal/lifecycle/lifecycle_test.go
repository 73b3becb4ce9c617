package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rradiant-backend/internal/orders"
	"rradiant-backend/internal/shiprocket"
)

type fakeStore struct {
	byOrderID map[string]*orders.Order
	createErr error
	updateErr error
	creates   int
	updates   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{byOrderID: make(map[string]*orders.Order)}
}

func cloneOrder(o *orders.Order) *orders.Order {
	cp := *o
	cp.StatusHistory = append([]orders.StatusEvent(nil), o.StatusHistory...)
	cp.Items = append([]orders.OrderItem(nil), o.Items...)
	return &cp
}

func (s *fakeStore) CreateOrder(ctx context.Context, o *orders.Order) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.creates++
	s.byOrderID[o.OrderID] = cloneOrder(o)
	return nil
}

func (s *fakeStore) FindByAnyID(ctx context.Context, id string) (*orders.Order, error) {
	for _, o := range s.byOrderID {
		if o.OrderID == id || o.OrderNumber == id || o.RazorpayOrderID == id {
			return cloneOrder(o), nil
		}
	}
	return nil, orders.ErrOrderNotFound
}

func (s *fakeStore) UpdateOrder(ctx context.Context, o *orders.Order) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.byOrderID[o.OrderID]; !ok {
		return orders.ErrOrderNotFound
	}
	s.updates++
	s.byOrderID[o.OrderID] = cloneOrder(o)
	return nil
}

func (s *fakeStore) mustGet(t *testing.T, id string) *orders.Order {
	t.Helper()
	o, err := s.FindByAnyID(context.Background(), id)
	require.NoError(t, err)
	return o
}

type fakeStock struct {
	levels  map[string]int
	failFor map[string]bool
	calls   int
}

func newFakeStock(levels map[string]int) *fakeStock {
	return &fakeStock{levels: levels, failFor: make(map[string]bool)}
}

func (s *fakeStock) AdjustStock(ctx context.Context, productID string, delta int) error {
	s.calls++
	if s.failFor[productID] {
		return errors.New("ledger unavailable")
	}
	s.levels[productID] += delta
	return nil
}

type fakeGateway struct {
	gatewayOrderID string
	createErr      error
	gotAmount      float64
	gotCurrency    string
}

func (g *fakeGateway) CreateGatewayOrder(ctx context.Context, amount float64, currency, receipt string) (string, error) {
	g.gotAmount = amount
	g.gotCurrency = currency
	if g.createErr != nil {
		return "", g.createErr
	}
	return g.gatewayOrderID, nil
}

func (g *fakeGateway) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	return signature == "valid-signature"
}

type fakePartner struct {
	shipment   shiprocket.Shipment
	createErr  error
	cancelErr  error
	cancelled  [][]string
	trackCode  string
	trackErr   error
	trackCalls int
}

func (p *fakePartner) CreateOrder(ctx context.Context, req shiprocket.ShipmentRequest) (shiprocket.Shipment, error) {
	if p.createErr != nil {
		return shiprocket.Shipment{}, p.createErr
	}
	return p.shipment, nil
}

func (p *fakePartner) CancelOrders(ctx context.Context, ids []string) error {
	p.cancelled = append(p.cancelled, ids)
	return p.cancelErr
}

func (p *fakePartner) TrackByShipmentID(ctx context.Context, shipmentID string) (shiprocket.Tracking, error) {
	p.trackCalls++
	if p.trackErr != nil {
		return shiprocket.Tracking{}, p.trackErr
	}
	return shiprocket.Tracking{StatusCode: p.trackCode, Status: p.trackCode}, nil
}

type fakeEvents struct {
	topics []string
}

func (e *fakeEvents) ProduceMessage(topic string, key, value []byte) error {
	e.topics = append(e.topics, topic)
	return nil
}

type fixture struct {
	orch    *Orchestrator
	store   *fakeStore
	stock   *fakeStock
	gateway *fakeGateway
	partner *fakePartner
	events  *fakeEvents
}

func newFixture() *fixture {
	f := &fixture{
		store:   newFakeStore(),
		stock:   newFakeStock(map[string]int{"prodA": 10, "prodB": 5}),
		gateway: &fakeGateway{gatewayOrderID: "order_gw_1"},
		partner: &fakePartner{shipment: shiprocket.Shipment{
			OrderID:    "700",
			ShipmentID: "800",
			AWBCode:    "AWB900",
			Carrier:    "12",
		}},
		events: &fakeEvents{},
	}
	f.orch = NewOrchestrator(f.store, f.stock, f.gateway, f.partner, f.events)
	return f
}

func twoItemCart() PlaceOrderRequest {
	return PlaceOrderRequest{
		Items: []orders.OrderItem{
			{ProductID: "prodA", Quantity: 3, Price: 500, Name: "Necklace", Image: "a.jpg"},
			{ProductID: "prodB", Quantity: 1, Price: 250, Name: "Ring", Image: "b.jpg"},
		},
		TotalAmount: 1750,
		CustomerDetails: orders.CustomerDetails{
			Name: "Asha", Email: "asha@example.com", Phone: "9999999999",
			Address: "12 MG Road", City: "Pune", State: "MH", Zip: "411001",
		},
	}
}

func TestPlaceCODOrder(t *testing.T) {
	f := newFixture()

	order, err := f.orch.PlaceCODOrder(context.Background(), twoItemCart())
	require.NoError(t, err)

	assert.Equal(t, orders.StatusPending, order.OrderStatus)
	assert.Equal(t, orders.PaymentMethodCOD, order.PaymentID)
	assert.Equal(t, orders.PaymentPending, order.PaymentStatus)
	assert.Equal(t, order.OrderID, order.OrderNumber)
	assert.Regexp(t, `^RR-\d{8}-\d{4}-[0-9A-Z]{4}$`, order.OrderID)

	// stock: A 10-3=7, B 5-1=4
	assert.Equal(t, 7, f.stock.levels["prodA"])
	assert.Equal(t, 4, f.stock.levels["prodB"])

	// shipment linkage persisted
	stored := f.store.mustGet(t, order.OrderID)
	assert.Equal(t, "AWB900", stored.TrackingNumber)
	assert.Equal(t, "800", stored.ShiprocketShipmentID)
	assert.Equal(t, "700", stored.ShiprocketOrderID)
	assert.Equal(t, "https://app.shiprocket.in/orders/800", stored.TrackingURL)

	// history starts with the implicit creation entry
	require.Len(t, stored.StatusHistory, 1)
	assert.Equal(t, orders.StatusPending, stored.StatusHistory[0].Status)

	assert.Equal(t, []string{"order-service.order-placed"}, f.events.topics)
}

func TestPlaceCODOrderSurvivesPartnerFailure(t *testing.T) {
	f := newFixture()
	f.partner.createErr = errors.New("partner down")

	order, err := f.orch.PlaceCODOrder(context.Background(), twoItemCart())
	require.NoError(t, err)

	stored := f.store.mustGet(t, order.OrderID)
	assert.Equal(t, orders.StatusPending, stored.OrderStatus)
	assert.Empty(t, stored.TrackingNumber)
	assert.Empty(t, stored.ShiprocketOrderID)
	assert.Empty(t, stored.ShiprocketShipmentID)

	// stock still decremented
	assert.Equal(t, 7, f.stock.levels["prodA"])
	assert.Equal(t, 4, f.stock.levels["prodB"])
}

func TestPlaceCODOrderEmptyCart(t *testing.T) {
	f := newFixture()

	req := twoItemCart()
	req.Items = nil
	_, err := f.orch.PlaceCODOrder(context.Background(), req)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, f.store.creates)
	assert.Zero(t, f.stock.calls)
}

func TestPlaceCODOrderMissingCustomer(t *testing.T) {
	f := newFixture()

	req := twoItemCart()
	req.CustomerDetails.Email = ""
	_, err := f.orch.PlaceCODOrder(context.Background(), req)
	assert.ErrorIs(t, err, ErrMissingCustomer)
	assert.Zero(t, f.store.creates)
}

func TestStockFailureDoesNotBlockSiblings(t *testing.T) {
	f := newFixture()
	f.stock.failFor["prodA"] = true

	_, err := f.orch.PlaceCODOrder(context.Background(), twoItemCart())
	require.NoError(t, err)

	// prodA untouched, prodB still adjusted
	assert.Equal(t, 10, f.stock.levels["prodA"])
	assert.Equal(t, 4, f.stock.levels["prodB"])
}

func TestCreatePaymentOrder(t *testing.T) {
	f := newFixture()

	id, err := f.orch.CreatePaymentOrder(context.Background(), 1750, "INR")
	require.NoError(t, err)
	assert.Equal(t, "order_gw_1", id)
	assert.Equal(t, float64(1750), f.gateway.gotAmount)
	assert.Equal(t, "INR", f.gateway.gotCurrency)

	// pre-order: nothing persisted
	assert.Zero(t, f.store.creates)
}

func TestCreatePaymentOrderRejectsBadAmount(t *testing.T) {
	f := newFixture()

	_, err := f.orch.CreatePaymentOrder(context.Background(), 0, "INR")
	assert.ErrorIs(t, err, ErrBadAmount)
	_, err = f.orch.CreatePaymentOrder(context.Background(), -5, "INR")
	assert.ErrorIs(t, err, ErrBadAmount)
}

func TestVerifyPaymentBadSignature(t *testing.T) {
	f := newFixture()

	_, err := f.orch.VerifyPayment(context.Background(), VerifyRequest{
		GatewayOrderID: "order_gw_1",
		PaymentID:      "pay_1",
		Signature:      "tampered",
		Order:          twoItemCart(),
	})
	assert.ErrorIs(t, err, ErrSignatureMismatch)
	assert.Zero(t, f.store.creates)
	assert.Zero(t, f.stock.calls)
}

func TestVerifyPaymentSuccess(t *testing.T) {
	f := newFixture()

	order, err := f.orch.VerifyPayment(context.Background(), VerifyRequest{
		GatewayOrderID: "order_gw_1",
		PaymentID:      "pay_1",
		Signature:      "valid-signature",
		Order:          twoItemCart(),
	})
	require.NoError(t, err)

	assert.Equal(t, orders.PaymentPaid, order.PaymentStatus)
	assert.Equal(t, "pay_1", order.PaymentID)
	assert.Equal(t, "order_gw_1", order.RazorpayOrderID)
	assert.Equal(t, orders.StatusPending, order.OrderStatus)

	assert.Equal(t, 7, f.stock.levels["prodA"])
	assert.Equal(t, 4, f.stock.levels["prodB"])
	assert.Equal(t, []string{"order-service.order-paid"}, f.events.topics)

	// lookup by the legacy gateway reference resolves the same order
	byGateway := f.store.mustGet(t, "order_gw_1")
	assert.Equal(t, order.OrderID, byGateway.OrderID)
}

func TestCancelOrderRestoresStock(t *testing.T) {
	f := newFixture()

	order, err := f.orch.PlaceCODOrder(context.Background(), twoItemCart())
	require.NoError(t, err)
	require.Equal(t, 7, f.stock.levels["prodA"])
	require.Equal(t, 4, f.stock.levels["prodB"])

	cancelled, err := f.orch.CancelOrder(context.Background(), order.OrderID, "Order cancelled by customer")
	require.NoError(t, err)

	assert.Equal(t, orders.StatusCancelled, cancelled.OrderStatus)
	// round-trip: decrement then restore nets to original
	assert.Equal(t, 10, f.stock.levels["prodA"])
	assert.Equal(t, 5, f.stock.levels["prodB"])

	// creation entry + cancellation entry
	require.Len(t, cancelled.StatusHistory, 2)
	assert.Equal(t, orders.StatusCancelled, cancelled.StatusHistory[1].Status)
	assert.Equal(t, "Order cancelled by customer", cancelled.StatusHistory[1].Comment)

	// partner cancellation used the partner order id
	require.Len(t, f.partner.cancelled, 1)
	assert.Equal(t, []string{"700"}, f.partner.cancelled[0])
}

func TestCancelOrderInvalidStates(t *testing.T) {
	for _, state := range []string{orders.StatusShipped, orders.StatusDelivered, orders.StatusCancelled} {
		t.Run(state, func(t *testing.T) {
			f := newFixture()

			order, err := f.orch.PlaceCODOrder(context.Background(), twoItemCart())
			require.NoError(t, err)

			stored := f.store.byOrderID[order.OrderID]
			stored.OrderStatus = state
			historyLen := len(stored.StatusHistory)
			stockA := f.stock.levels["prodA"]

			_, err = f.orch.CancelOrder(context.Background(), order.OrderID, "nope")
			assert.ErrorIs(t, err, ErrInvalidTransition)

			after := f.store.mustGet(t, order.OrderID)
			assert.Equal(t, state, after.OrderStatus)
			assert.Len(t, after.StatusHistory, historyLen)
			assert.Equal(t, stockA, f.stock.levels["prodA"])
		})
	}
}

func TestCancelOrderWithoutPartnerLinkage(t *testing.T) {
	f := newFixture()
	f.partner.createErr = errors.New("partner down")

	order, err := f.orch.PlaceCODOrder(context.Background(), twoItemCart())
	require.NoError(t, err)

	_, err = f.orch.CancelOrder(context.Background(), order.OrderID, "Order cancelled by customer")
	require.NoError(t, err)

	// no partner order id, so no cancellation call went out
	assert.Empty(t, f.partner.cancelled)
}

func TestCancelOrderSurvivesPartnerCancelFailure(t *testing.T) {
	f := newFixture()

	order, err := f.orch.PlaceCODOrder(context.Background(), twoItemCart())
	require.NoError(t, err)

	f.partner.cancelErr = errors.New("partner down")
	cancelled, err := f.orch.CancelOrder(context.Background(), order.OrderID, "Order cancelled by customer")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCancelled, cancelled.OrderStatus)
	assert.Equal(t, 10, f.stock.levels["prodA"])
}

func TestCancelOrderNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.orch.CancelOrder(context.Background(), "RR-00000000-0000-XXXX", "x")
	assert.ErrorIs(t, err, orders.ErrOrderNotFound)
}

func TestSetStatusInvalidEnum(t *testing.T) {
	f := newFixture()

	_, err := f.orch.SetStatus(context.Background(), "whatever", "Teleported")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestSetStatusAppendsHistory(t *testing.T) {
	f := newFixture()

	order, err := f.orch.PlaceCODOrder(context.Background(), twoItemCart())
	require.NoError(t, err)

	updated, err := f.orch.SetStatus(context.Background(), order.OrderID, orders.StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusShipped, updated.OrderStatus)
	require.Len(t, updated.StatusHistory, 2)
	assert.Equal(t, orders.StatusShipped, updated.StatusHistory[1].Status)
}

func TestSetStatusCancelledFollowsCancelPath(t *testing.T) {
	f := newFixture()

	order, err := f.orch.PlaceCODOrder(context.Background(), twoItemCart())
	require.NoError(t, err)

	updated, err := f.orch.SetStatus(context.Background(), order.OrderID, orders.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCancelled, updated.OrderStatus)
	assert.Equal(t, 10, f.stock.levels["prodA"])
	assert.Equal(t, 5, f.stock.levels["prodB"])
	require.Len(t, f.partner.cancelled, 1)
}

func TestSyncRequiresShipment(t *testing.T) {
	f := newFixture()
	f.partner.createErr = errors.New("partner down")

	order, err := f.orch.PlaceCODOrder(context.Background(), twoItemCart())
	require.NoError(t, err)

	_, _, err = f.orch.SyncFromPartner(context.Background(), order.OrderID)
	assert.ErrorIs(t, err, ErrNoShipment)
}

func TestSyncUpdatesChangedStatus(t *testing.T) {
	f := newFixture()

	order, err := f.orch.PlaceCODOrder(context.Background(), twoItemCart())
	require.NoError(t, err)

	f.partner.trackCode = "OFD"
	synced, changed, err := f.orch.SyncFromPartner(context.Background(), order.OrderID)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, orders.StatusShipped, synced.OrderStatus)

	last := synced.StatusHistory[len(synced.StatusHistory)-1]
	assert.Equal(t, orders.StatusShipped, last.Status)
	assert.Contains(t, last.Comment, "OFD")
}

func TestSyncIsIdempotent(t *testing.T) {
	f := newFixture()

	order, err := f.orch.PlaceCODOrder(context.Background(), twoItemCart())
	require.NoError(t, err)

	f.partner.trackCode = "DEL"
	first, changed, err := f.orch.SyncFromPartner(context.Background(), order.OrderID)
	require.NoError(t, err)
	require.True(t, changed)
	firstLen := len(first.StatusHistory)

	second, changed, err := f.orch.SyncFromPartner(context.Background(), order.OrderID)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Len(t, second.StatusHistory, firstLen)
	assert.Equal(t, orders.StatusDelivered, second.OrderStatus)
}

func TestSyncUnknownCodeMapsToProcessing(t *testing.T) {
	f := newFixture()

	order, err := f.orch.PlaceCODOrder(context.Background(), twoItemCart())
	require.NoError(t, err)

	f.partner.trackCode = "SOMETHING_ELSE"
	synced, changed, err := f.orch.SyncFromPartner(context.Background(), order.OrderID)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, orders.StatusProcessing, synced.OrderStatus)
}

func TestSyncPartnerErrorPropagates(t *testing.T) {
	f := newFixture()

	order, err := f.orch.PlaceCODOrder(context.Background(), twoItemCart())
	require.NoError(t, err)

	f.partner.trackErr = errors.New("partner down")
	_, _, err = f.orch.SyncFromPartner(context.Background(), order.OrderID)
	assert.Error(t, err)

	// local state untouched
	after := f.store.mustGet(t, order.OrderID)
	assert.Equal(t, orders.StatusPending, after.OrderStatus)
}

// History stays append-only and consistent with orderStatus across a whole
// lifecycle sequence.
func TestHistoryAppendOnlyAcrossLifecycle(t *testing.T) {
	f := newFixture()

	order, err := f.orch.PlaceCODOrder(context.Background(), twoItemCart())
	require.NoError(t, err)

	prevLen := 0
	check := func(id string) {
		t.Helper()
		o := f.store.mustGet(t, id)
		require.GreaterOrEqual(t, len(o.StatusHistory), prevLen)
		prevLen = len(o.StatusHistory)
		require.Equal(t, o.OrderStatus, o.StatusHistory[len(o.StatusHistory)-1].Status)
	}
	check(order.OrderID)

	f.partner.trackCode = "PKP"
	_, _, err = f.orch.SyncFromPartner(context.Background(), order.OrderID)
	require.NoError(t, err)
	check(order.OrderID)

	_, err = f.orch.CancelOrder(context.Background(), order.OrderID, "Order cancelled by customer")
	require.NoError(t, err)
	check(order.OrderID)
}
