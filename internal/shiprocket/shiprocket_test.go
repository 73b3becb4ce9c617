package shiprocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rradiant-backend/internal/orders"
)

type fakePartner struct {
	logins      atomic.Int64
	tokens      []string
	reject401   atomic.Int64 // number of authed requests to reject with 401
	createBody  string
	trackBody   string
	statusBody  string
	lastPayload atomic.Value
}

func (f *fakePartner) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/external/auth/login", func(w http.ResponseWriter, r *http.Request) {
		n := f.logins.Add(1)
		tok := f.tokens[(int(n)-1)%len(f.tokens)]
		json.NewEncoder(w).Encode(map[string]string{"token": tok})
	})
	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if f.reject401.Load() > 0 {
				f.reject401.Add(-1)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next(w, r)
		}
	}
	mux.HandleFunc("/v1/external/orders/create/adhoc", authed(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		f.lastPayload.Store(payload)
		w.Write([]byte(f.createBody))
	}))
	mux.HandleFunc("/v1/external/orders/cancel", authed(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"cancelled"}`))
	}))
	mux.HandleFunc("/v1/external/courier/track/shipment/", authed(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(f.trackBody))
	}))
	mux.HandleFunc("/v1/external/orders/show/", authed(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(f.statusBody))
	}))
	return mux
}

func newTestClient(t *testing.T, f *fakePartner) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL, Email: "ops@example.com", Password: "pw"})
	require.NoError(t, err)
	return c
}

func TestCreateOrderTopLevelFields(t *testing.T) {
	f := &fakePartner{
		tokens:     []string{"tok-1"},
		createBody: `{"order_id":111,"shipment_id":222,"awb_code":"AWB1","courier_company_id":7}`,
	}
	c := newTestClient(t, f)

	shp, err := c.CreateOrder(context.Background(), ShipmentRequest{OrderID: "RR-1"})
	require.NoError(t, err)
	assert.Equal(t, "111", shp.OrderID)
	assert.Equal(t, "222", shp.ShipmentID)
	assert.Equal(t, "AWB1", shp.AWBCode)
	assert.Equal(t, "7", shp.Carrier)
}

func TestCreateOrderNestedDataFallback(t *testing.T) {
	f := &fakePartner{
		tokens:     []string{"tok-1"},
		createBody: `{"data":{"order_id":333,"shipment_id":444,"awb_code":"AWB2","courier_company_id":9}}`,
	}
	c := newTestClient(t, f)

	shp, err := c.CreateOrder(context.Background(), ShipmentRequest{OrderID: "RR-2"})
	require.NoError(t, err)
	assert.Equal(t, "333", shp.OrderID)
	assert.Equal(t, "444", shp.ShipmentID)
	assert.Equal(t, "AWB2", shp.AWBCode)
	assert.Equal(t, "9", shp.Carrier)
}

func TestCreateOrderTopLevelWinsOverNested(t *testing.T) {
	f := &fakePartner{
		tokens:     []string{"tok-1"},
		createBody: `{"shipment_id":1,"data":{"shipment_id":2,"awb_code":"NESTED"}}`,
	}
	c := newTestClient(t, f)

	shp, err := c.CreateOrder(context.Background(), ShipmentRequest{OrderID: "RR-3"})
	require.NoError(t, err)
	assert.Equal(t, "1", shp.ShipmentID)
	assert.Equal(t, "NESTED", shp.AWBCode)
}

func TestCreateOrderDefaultsPickupLocation(t *testing.T) {
	f := &fakePartner{
		tokens:     []string{"tok-1"},
		createBody: `{"shipment_id":1}`,
	}
	c := newTestClient(t, f)

	_, err := c.CreateOrder(context.Background(), ShipmentRequest{OrderID: "RR-4"})
	require.NoError(t, err)

	payload := f.lastPayload.Load().(map[string]any)
	assert.Equal(t, "Default", payload["pickup_location"])
}

func TestRetryOn401ExactlyOnce(t *testing.T) {
	f := &fakePartner{
		tokens:     []string{"tok-1", "tok-2"},
		createBody: `{"shipment_id":5}`,
	}
	c := newTestClient(t, f)
	f.reject401.Store(1)

	shp, err := c.CreateOrder(context.Background(), ShipmentRequest{OrderID: "RR-5"})
	require.NoError(t, err)
	assert.Equal(t, "5", shp.ShipmentID)
	// lazy login + one re-login after the 401
	assert.Equal(t, int64(2), f.logins.Load())
}

func TestSecond401Propagates(t *testing.T) {
	f := &fakePartner{
		tokens:     []string{"tok-1", "tok-2", "tok-3"},
		createBody: `{"shipment_id":6}`,
	}
	c := newTestClient(t, f)
	f.reject401.Store(2)

	_, err := c.CreateOrder(context.Background(), ShipmentRequest{OrderID: "RR-6"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	// exactly one re-login, no further recursion
	assert.Equal(t, int64(2), f.logins.Load())
}

func TestTokenCachedAcrossCalls(t *testing.T) {
	f := &fakePartner{
		tokens:     []string{"tok-1"},
		createBody: `{"shipment_id":7}`,
	}
	c := newTestClient(t, f)

	_, err := c.CreateOrder(context.Background(), ShipmentRequest{OrderID: "a"})
	require.NoError(t, err)
	_, err = c.CreateOrder(context.Background(), ShipmentRequest{OrderID: "b"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.logins.Load())
}

func TestTrackByShipmentID(t *testing.T) {
	f := &fakePartner{
		tokens:    []string{"tok-1"},
		trackBody: `{"tracking_data":{"shipment_track":[{"current_status_code":"OFD","current_status":"Out For Delivery","updated_date":"2025-03-09 10:30:00"}]}}`,
	}
	c := newTestClient(t, f)

	tr, err := c.TrackByShipmentID(context.Background(), "222")
	require.NoError(t, err)
	assert.Equal(t, "OFD", tr.StatusCode)
	assert.Equal(t, "Out For Delivery", tr.Status)
	assert.Equal(t, 2025, tr.LastUpdated.Year())
}

func TestTrackFallsBackToStatusText(t *testing.T) {
	f := &fakePartner{
		tokens:    []string{"tok-1"},
		trackBody: `{"tracking_data":{"shipment_track":[{"current_status":"DEL"}]}}`,
	}
	c := newTestClient(t, f)

	tr, err := c.TrackByShipmentID(context.Background(), "222")
	require.NoError(t, err)
	assert.Equal(t, "DEL", tr.StatusCode)
}

func TestCancelOrdersEmptyIsNoop(t *testing.T) {
	f := &fakePartner{tokens: []string{"tok-1"}}
	c := newTestClient(t, f)

	require.NoError(t, c.CancelOrders(context.Background(), nil))
	assert.Equal(t, int64(0), f.logins.Load())
}

func TestGetOrderStatusPrefersNestedData(t *testing.T) {
	f := &fakePartner{
		tokens:     []string{"tok-1"},
		statusBody: `{"data":{"status":"PICKED UP"}}`,
	}
	c := newTestClient(t, f)

	status, err := c.GetOrderStatus(context.Background(), "700")
	require.NoError(t, err)
	assert.Equal(t, "PICKED UP", status)
}

func TestGetOrderStatusTopLevelFallback(t *testing.T) {
	f := &fakePartner{
		tokens:     []string{"tok-1"},
		statusBody: `{"status":"NEW"}`,
	}
	c := newTestClient(t, f)

	status, err := c.GetOrderStatus(context.Background(), "700")
	require.NoError(t, err)
	assert.Equal(t, "NEW", status)
}

func TestMapStatusTable(t *testing.T) {
	cases := map[string]string{
		"NEW": orders.StatusPending,
		"PKP": orders.StatusProcessing,
		"OFD": orders.StatusShipped,
		"DEL": orders.StatusDelivered,
		"RTO": orders.StatusCancelled,
		"CNF": orders.StatusCancelled,
		"UND": orders.StatusCancelled,
	}
	for code, want := range cases {
		assert.Equal(t, want, MapStatus(code), "code %s", code)
	}
}

func TestMapStatusUnknownDefaultsToProcessing(t *testing.T) {
	for _, code := range []string{"", "XXX", "new", "DELIVERED", "42"} {
		assert.Equal(t, orders.StatusProcessing, MapStatus(code), "code %q", code)
	}
}
