package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifySignature checks the HMAC-SHA256 hex digest Razorpay sends in
// X-Razorpay-Signature against the raw request body.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// FallbackEventID derives a stable event id from the body for deliveries
// missing the x-razorpay-event-id header.
func FallbackEventID(body []byte) string {
	sum := sha256.Sum256(body)
	return "sha256_" + hex.EncodeToString(sum[:])
}
