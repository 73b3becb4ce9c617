package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

// Conf wraps the payment gateway client. It creates gateway orders for
// prepaid checkout and verifies payment signatures; it never touches
// persisted order state.
type Conf struct {
	client    *razorpay.Client
	keySecret string
}

func NewConf(keyID, keySecret string) (*Conf, error) {
	if keyID == "" || keySecret == "" {
		return nil, fmt.Errorf("payment gateway credentials are not set")
	}
	return &Conf{
		client:    razorpay.NewClient(keyID, keySecret),
		keySecret: keySecret,
	}, nil
}

// CreateGatewayOrder registers a payment intent with the gateway and
// returns its order reference. The gateway expects the amount in minor
// units; the ×100 conversion happens here and nowhere else.
func (c *Conf) CreateGatewayOrder(ctx context.Context, amount float64, currency, receipt string) (string, error) {
	if amount <= 0 {
		return "", fmt.Errorf("amount must be positive, got %v", amount)
	}
	data := map[string]interface{}{
		"amount":   int64(amount * 100),
		"currency": currency,
		"receipt":  receipt,
	}
	body, err := c.client.Order.Create(data, nil)
	if err != nil {
		return "", fmt.Errorf("creating gateway order: %w", err)
	}
	id, ok := body["id"].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("gateway order response has no id")
	}
	return id, nil
}

// VerifySignature recomputes the HMAC-SHA256 of "orderRef|paymentRef"
// keyed with the gateway secret and compares it against the supplied
// signature. It is the sole authorization gate for marking an order Paid,
// returns false on any mismatch and never errors.
func (c *Conf) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	return VerifySignature(gatewayOrderID, paymentID, signature, c.keySecret)
}

// VerifySignature is the pure form of the check, keyed explicitly.
func VerifySignature(gatewayOrderID, paymentID, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
