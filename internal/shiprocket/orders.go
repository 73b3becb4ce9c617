package shiprocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// ShipmentItem is one line of a shipment registration.
type ShipmentItem struct {
	Name         string  `json:"name"`
	SKU          string  `json:"sku"`
	Units        int     `json:"units"`
	SellingPrice float64 `json:"selling_price"`
}

// ShipmentRequest is the adhoc order-creation payload. Billing fields are
// mapped from the order's customer details; shipping always equals billing.
type ShipmentRequest struct {
	OrderID             string         `json:"order_id"`
	OrderDate           string         `json:"order_date"`
	PickupLocation      string         `json:"pickup_location"`
	BillingCustomerName string         `json:"billing_customer_name"`
	BillingLastName     string         `json:"billing_last_name"`
	BillingAddress      string         `json:"billing_address"`
	BillingCity         string         `json:"billing_city"`
	BillingPincode      string         `json:"billing_pincode"`
	BillingState        string         `json:"billing_state"`
	BillingCountry      string         `json:"billing_country"`
	BillingEmail        string         `json:"billing_email"`
	BillingPhone        string         `json:"billing_phone"`
	ShippingIsBilling   bool           `json:"shipping_is_billing"`
	OrderItems          []ShipmentItem `json:"order_items"`
	PaymentMethod       string         `json:"payment_method"`
	SubTotal            float64        `json:"sub_total"`
	Length              float64        `json:"length"`
	Breadth             float64        `json:"breadth"`
	Height              float64        `json:"height"`
	Weight              float64        `json:"weight"`
}

// Shipment is the resolved result of a registration: every field already
// carries the value picked from the partner's ambiguous response.
type Shipment struct {
	OrderID    string
	ShipmentID string
	AWBCode    string
	Carrier    string
}

// createOrderResponse mirrors the partner's order-creation reply. The
// partner sometimes returns fields at the top level and sometimes nested
// under "data"; precedence is top-level first, nested second, resolved
// here once so callers never see the ambiguity.
type createOrderResponse struct {
	OrderID          json.Number          `json:"order_id"`
	ShipmentID       json.Number          `json:"shipment_id"`
	AWBCode          string               `json:"awb_code"`
	CourierCompanyID json.Number          `json:"courier_company_id"`
	Data             *createOrderResponse `json:"data"`
}

func (r *createOrderResponse) resolve() Shipment {
	pickNum := func(primary, fallback json.Number) string {
		if primary.String() != "" {
			return primary.String()
		}
		return fallback.String()
	}
	pickStr := func(primary, fallback string) string {
		if primary != "" {
			return primary
		}
		return fallback
	}

	nested := r.Data
	if nested == nil {
		nested = &createOrderResponse{}
	}
	return Shipment{
		OrderID:    pickNum(r.OrderID, nested.OrderID),
		ShipmentID: pickNum(r.ShipmentID, nested.ShipmentID),
		AWBCode:    pickStr(r.AWBCode, nested.AWBCode),
		Carrier:    pickNum(r.CourierCompanyID, nested.CourierCompanyID),
	}
}

// CreateOrder registers a shipment with the partner and returns the
// resolved correlation identifiers.
func (c *Client) CreateOrder(ctx context.Context, req ShipmentRequest) (Shipment, error) {
	if req.PickupLocation == "" {
		req.PickupLocation = "Default"
	}
	if req.OrderDate == "" {
		req.OrderDate = time.Now().UTC().Format("2006-01-02")
	}

	var resp createOrderResponse
	if err := c.do(ctx, "POST", "/v1/external/orders/create/adhoc", req, &resp); err != nil {
		return Shipment{}, err
	}
	return resp.resolve(), nil
}

// CancelOrders cancels the given partner order ids.
func (c *Client) CancelOrders(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	payload := map[string][]string{"ids": ids}
	return c.do(ctx, "POST", "/v1/external/orders/cancel", payload, nil)
}

// Tracking is the resolved view of a shipment's partner status.
type Tracking struct {
	StatusCode  string
	Status      string
	LastUpdated time.Time
}

type trackResponse struct {
	TrackingData struct {
		ShipmentTrack []struct {
			CurrentStatusCode string `json:"current_status_code"`
			CurrentStatus     string `json:"current_status"`
			UpdatedDate       string `json:"updated_date"`
		} `json:"shipment_track"`
	} `json:"tracking_data"`
}

func (r *trackResponse) resolve() (Tracking, error) {
	if len(r.TrackingData.ShipmentTrack) == 0 {
		return Tracking{}, fmt.Errorf("partner tracking response has no shipment track")
	}
	entry := r.TrackingData.ShipmentTrack[0]

	code := entry.CurrentStatusCode
	if code == "" {
		code = entry.CurrentStatus
	}

	t := Tracking{StatusCode: code, Status: entry.CurrentStatus}
	if entry.UpdatedDate != "" {
		if ts, err := time.Parse("2006-01-02 15:04:05", entry.UpdatedDate); err == nil {
			t.LastUpdated = ts
		}
	}
	if t.LastUpdated.IsZero() {
		t.LastUpdated = time.Now().UTC()
	}
	return t, nil
}

// TrackByAWB fetches tracking for an airway bill number.
func (c *Client) TrackByAWB(ctx context.Context, awb string) (Tracking, error) {
	var resp trackResponse
	path := "/v1/external/courier/track/awb/" + url.PathEscape(awb)
	if err := c.do(ctx, "GET", path, nil, &resp); err != nil {
		return Tracking{}, err
	}
	return resp.resolve()
}

// TrackByShipmentID fetches tracking for a partner shipment id.
func (c *Client) TrackByShipmentID(ctx context.Context, shipmentID string) (Tracking, error) {
	var resp trackResponse
	path := "/v1/external/courier/track/shipment/" + url.PathEscape(shipmentID)
	if err := c.do(ctx, "GET", path, nil, &resp); err != nil {
		return Tracking{}, err
	}
	return resp.resolve()
}

// GetOrderStatus returns the partner's status code for a partner order id.
func (c *Client) GetOrderStatus(ctx context.Context, partnerOrderID string) (string, error) {
	var resp struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
		Status string `json:"status"`
	}
	path := "/v1/external/orders/show/" + url.PathEscape(partnerOrderID)
	if err := c.do(ctx, "GET", path, nil, &resp); err != nil {
		return "", err
	}
	if resp.Data.Status != "" {
		return resp.Data.Status, nil
	}
	return resp.Status, nil
}
