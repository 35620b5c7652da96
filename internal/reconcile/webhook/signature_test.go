package webhook_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/shuddhilabs/shuddhi/internal/reconcile/webhook"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event":"payment.captured"}`)
	secret := "whsec_test"

	if !webhook.VerifySignature(secret, body, sign(secret, body)) {
		t.Fatal("valid signature rejected")
	}
	if webhook.VerifySignature(secret, body, sign("other_secret", body)) {
		t.Fatal("signature from wrong secret accepted")
	}
	if webhook.VerifySignature(secret, []byte(`{"event":"tampered"}`), sign(secret, body)) {
		t.Fatal("signature over different body accepted")
	}
	if webhook.VerifySignature(secret, body, "") {
		t.Fatal("empty signature accepted")
	}
	if webhook.VerifySignature("", body, sign("", body)) {
		t.Fatal("verification cannot succeed without a secret")
	}
}

func TestFallbackEventIDIsStable(t *testing.T) {
	body := []byte(`{"event":"payment.captured"}`)

	a := webhook.FallbackEventID(body)
	b := webhook.FallbackEventID(body)
	if a != b {
		t.Fatalf("fallback id not stable: %s vs %s", a, b)
	}
	if !strings.HasPrefix(a, "sha256_") {
		t.Fatalf("unexpected fallback id shape: %s", a)
	}
	if c := webhook.FallbackEventID([]byte(`{}`)); c == a {
		t.Fatal("different bodies share a fallback id")
	}
}
