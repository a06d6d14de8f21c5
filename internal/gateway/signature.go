package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifySignature checks the provider's payment callback. The expected
// signature is HMAC-SHA256 of "<gatewayOrderID>|<gatewayPaymentID>" keyed by
// the API secret, hex encoded. Comparison is constant time. A false result
// must never alter order state.
func (c *Client) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	return hmac.Equal(provided, mac.Sum(nil))
}

// Sign produces the signature for an (order, payment) pair. Used by tests
// and by the sandbox callback simulator.
func Sign(secret, gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
