package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signFor(t *testing.T, orderRef, paymentRef, secret string) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderRef + "|" + paymentRef))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignatureValid(t *testing.T) {
	sig := signFor(t, "order_1", "pay_1", "secret")
	assert.True(t, VerifySignature("order_1", "pay_1", sig, "secret"))
}

func TestVerifySignatureDeterministic(t *testing.T) {
	a := signFor(t, "order_1", "pay_1", "secret")
	b := signFor(t, "order_1", "pay_1", "secret")
	assert.Equal(t, a, b)
}

func TestVerifySignatureBitFlip(t *testing.T) {
	sig := signFor(t, "order_1", "pay_1", "secret")
	for i := 0; i < len(sig); i++ {
		flipped := []byte(sig)
		if flipped[i] == '0' {
			flipped[i] = '1'
		} else {
			flipped[i] = '0'
		}
		assert.False(t, VerifySignature("order_1", "pay_1", string(flipped), "secret"),
			"flipped char %d should fail verification", i)
	}
}

func TestVerifySignatureWrongInputs(t *testing.T) {
	sig := signFor(t, "order_1", "pay_1", "secret")

	assert.False(t, VerifySignature("order_2", "pay_1", sig, "secret"))
	assert.False(t, VerifySignature("order_1", "pay_2", sig, "secret"))
	assert.False(t, VerifySignature("order_1", "pay_1", sig, "other-secret"))
	assert.False(t, VerifySignature("order_1", "pay_1", "", "secret"))
}

func TestVerifySignatureCaseSensitiveHex(t *testing.T) {
	sig := signFor(t, "order_1", "pay_1", "secret")
	// Hex digests are lowercase; an uppercased signature must not match
	// unless it happens to contain no letters.
	upper := []byte(sig)
	changed := false
	for i, ch := range upper {
		if ch >= 'a' && ch <= 'f' {
			upper[i] = ch - ('a' - 'A')
			changed = true
		}
	}
	require.True(t, changed)
	assert.False(t, VerifySignature("order_1", "pay_1", string(upper), "secret"))
}

func TestNewConfRequiresCredentials(t *testing.T) {
	_, err := NewConf("", "secret")
	assert.Error(t, err)
	_, err = NewConf("key", "")
	assert.Error(t, err)
}
