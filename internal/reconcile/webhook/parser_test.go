package webhook_test

import (
	"testing"
	"time"

	"github.com/shuddhilabs/shuddhi/internal/reconcile/domain"
	"github.com/shuddhilabs/shuddhi/internal/reconcile/webhook"
)

func TestParseEventPaymentCaptured(t *testing.T) {
	body := []byte(`{
		"entity": "event",
		"event": "payment.captured",
		"created_at": 1767225600,
		"payload": {
			"payment": {
				"entity": {
					"id": "pay_123",
					"order_id": "order_456",
					"amount": 117882,
					"status": "captured",
					"method": "upi",
					"email": "user@example.com",
					"contact": "+919999999999",
					"created_at": 1767225500
				}
			}
		}
	}`)

	event, err := webhook.ParseEvent(body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.Type != domain.EventPaymentCaptured {
		t.Fatalf("type = %s, want payment.captured", event.Type)
	}
	if event.PaymentID != "pay_123" || event.GatewayOrderID != "order_456" {
		t.Fatalf("ids = %s / %s", event.PaymentID, event.GatewayOrderID)
	}
	if event.AmountPaise != 117_882 {
		t.Fatalf("amount = %d, want 117882", event.AmountPaise)
	}
	if event.Method != "upi" {
		t.Fatalf("method = %s, want upi", event.Method)
	}
	// The payment timestamp wins over the envelope timestamp.
	if want := time.Unix(1767225500, 0).UTC(); !event.OccurredAt.Equal(want) {
		t.Fatalf("occurred_at = %s, want %s", event.OccurredAt, want)
	}
}

func TestParseEventSubscriptionCharged(t *testing.T) {
	body := []byte(`{
		"entity": "event",
		"event": "subscription.charged",
		"created_at": 1767225600,
		"payload": {
			"subscription": {
				"entity": {
					"id": "sub_789",
					"plan_id": "plan_1",
					"status": "active",
					"paid_count": 2,
					"remaining_count": 118,
					"current_start": 1767225600,
					"current_end": 1769904000,
					"charge_at": 1769904000
				}
			},
			"payment": {
				"entity": {
					"id": "pay_cycle",
					"amount": 58882,
					"status": "captured"
				}
			}
		}
	}`)

	event, err := webhook.ParseEvent(body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.Type != domain.EventSubscriptionCharged {
		t.Fatalf("type = %s, want subscription.charged", event.Type)
	}
	if event.GatewaySubscriptionID != "sub_789" {
		t.Fatalf("subscription id = %s", event.GatewaySubscriptionID)
	}
	if event.PaymentID != "pay_cycle" || event.AmountPaise != 58_882 {
		t.Fatalf("payment = %s / %d", event.PaymentID, event.AmountPaise)
	}
	if event.PaidCount != 2 || event.RemainingCount != 118 {
		t.Fatalf("cadence = %d / %d, want 2 / 118", event.PaidCount, event.RemainingCount)
	}
	if event.CurrentPeriodEnd == nil || event.NextChargeAt == nil {
		t.Fatal("period fields not parsed")
	}
	// Envelope created_at is the fallback when the payment entity carries no
	// timestamp.
	if want := time.Unix(1767225600, 0).UTC(); !event.OccurredAt.Equal(want) {
		t.Fatalf("occurred_at = %s, want %s", event.OccurredAt, want)
	}
}

func TestParseEventInvoicePaid(t *testing.T) {
	body := []byte(`{
		"entity": "event",
		"event": "invoice.paid",
		"created_at": 1767225600,
		"payload": {
			"invoice": {
				"entity": {
					"id": "inv_42",
					"subscription_id": "sub_789",
					"payment_id": "pay_inv",
					"order_id": "order_inv",
					"amount": 58882,
					"status": "paid",
					"paid_at": 1767225550
				}
			}
		}
	}`)

	event, err := webhook.ParseEvent(body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.Type != domain.EventInvoicePaid {
		t.Fatalf("type = %s, want invoice.paid", event.Type)
	}
	// The invoice references both sides by id instead of embedding them.
	if event.GatewaySubscriptionID != "sub_789" {
		t.Fatalf("subscription id = %q, want sub_789", event.GatewaySubscriptionID)
	}
	if event.PaymentID != "pay_inv" || event.GatewayOrderID != "order_inv" {
		t.Fatalf("ids = %s / %s", event.PaymentID, event.GatewayOrderID)
	}
	if event.AmountPaise != 58_882 {
		t.Fatalf("amount = %d, want 58882", event.AmountPaise)
	}
	if want := time.Unix(1767225550, 0).UTC(); !event.OccurredAt.Equal(want) {
		t.Fatalf("occurred_at = %s, want %s", event.OccurredAt, want)
	}
}

func TestParseEventRejectsMalformedBody(t *testing.T) {
	if _, err := webhook.ParseEvent([]byte(`not json`)); err == nil {
		t.Fatal("expected parse error")
	}
}
