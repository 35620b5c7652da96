package webhook

import (
	"encoding/json"
	"time"

	"github.com/shuddhilabs/shuddhi/internal/reconcile/domain"
)

type paymentEntity struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
	Method    string `json:"method"`
	Email     string `json:"email"`
	Contact   string `json:"contact"`
	CreatedAt int64  `json:"created_at"`
}

type subscriptionEntity struct {
	ID             string `json:"id"`
	PlanID         string `json:"plan_id"`
	Status         string `json:"status"`
	PaidCount      int    `json:"paid_count"`
	RemainingCount int    `json:"remaining_count"`
	CurrentStart   int64  `json:"current_start"`
	CurrentEnd     int64  `json:"current_end"`
	ChargeAt       int64  `json:"charge_at"`
}

// invoiceEntity covers invoice.paid deliveries, which reference the
// subscription and payment by id instead of embedding them.
type invoiceEntity struct {
	ID             string `json:"id"`
	SubscriptionID string `json:"subscription_id"`
	PaymentID      string `json:"payment_id"`
	OrderID        string `json:"order_id"`
	Amount         int64  `json:"amount"`
	Status         string `json:"status"`
	PaidAt         int64  `json:"paid_at"`
}

type envelope struct {
	Entity    string `json:"entity"`
	Event     string `json:"event"`
	CreatedAt int64  `json:"created_at"`
	Payload   struct {
		Payment struct {
			Entity paymentEntity `json:"entity"`
		} `json:"payment"`
		Subscription struct {
			Entity subscriptionEntity `json:"entity"`
		} `json:"subscription"`
		Invoice struct {
			Entity invoiceEntity `json:"entity"`
		} `json:"invoice"`
	} `json:"payload"`
}

// ParseEvent flattens a Razorpay webhook envelope into the canonical event.
func ParseEvent(body []byte) (*domain.GatewayEvent, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}

	payment := env.Payload.Payment.Entity
	sub := env.Payload.Subscription.Entity
	inv := env.Payload.Invoice.Entity

	event := &domain.GatewayEvent{
		Type:                  domain.EventType(env.Event),
		PaymentID:             payment.ID,
		GatewayOrderID:        payment.OrderID,
		GatewaySubscriptionID: sub.ID,
		AmountPaise:           payment.Amount,
		Method:                payment.Method,
		Email:                 payment.Email,
		Contact:               payment.Contact,
		PaidCount:             sub.PaidCount,
		RemainingCount:        sub.RemainingCount,
		CurrentPeriodStart:    unixPtr(sub.CurrentStart),
		CurrentPeriodEnd:      unixPtr(sub.CurrentEnd),
		NextChargeAt:          unixPtr(sub.ChargeAt),
	}
	if event.GatewaySubscriptionID == "" {
		event.GatewaySubscriptionID = inv.SubscriptionID
	}
	if event.PaymentID == "" {
		event.PaymentID = inv.PaymentID
	}
	if event.GatewayOrderID == "" {
		event.GatewayOrderID = inv.OrderID
	}
	if event.AmountPaise == 0 {
		event.AmountPaise = inv.Amount
	}
	if payment.CreatedAt > 0 {
		event.OccurredAt = time.Unix(payment.CreatedAt, 0).UTC()
	} else if inv.PaidAt > 0 {
		event.OccurredAt = time.Unix(inv.PaidAt, 0).UTC()
	} else if env.CreatedAt > 0 {
		event.OccurredAt = time.Unix(env.CreatedAt, 0).UTC()
	}
	return event, nil
}

func unixPtr(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
