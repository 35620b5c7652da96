// Package razorpay implements the gateway client on top of the official
// Razorpay SDK. SDK responses are untyped maps; the decoding helpers in this
// package are the only place that shape is known.
package razorpay

import (
	"context"
	"strings"

	rzpsdk "github.com/razorpay/razorpay-go"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/shuddhilabs/shuddhi/internal/config"
	"github.com/shuddhilabs/shuddhi/internal/gateway/domain"
)

type Params struct {
	fx.In

	Log    *zap.Logger
	Config config.Config
}

type client struct {
	log *zap.Logger
	sdk *rzpsdk.Client
}

func New(p Params) domain.Client {
	sdk := rzpsdk.NewClient(p.Config.RazorpayKeyID, p.Config.RazorpayKeySecret)
	sdk.SetTimeout(int16(p.Config.GatewayTimeoutSeconds))
	return &client{
		log: p.Log.Named("gateway.razorpay"),
		sdk: sdk,
	}
}

func (c *client) FindOrCreateCustomer(ctx context.Context, name, email, contact string) (*domain.Customer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// fail_existing=0 makes the create behave as find-or-create on email.
	data := map[string]interface{}{
		"name":          name,
		"email":         email,
		"contact":       contact,
		"fail_existing": "0",
	}
	resp, err := c.sdk.Customer.Create(data, nil)
	if err != nil {
		return nil, gatewayErr("customer.create", err)
	}
	return &domain.Customer{
		ID:      str(resp, "id"),
		Name:    str(resp, "name"),
		Email:   str(resp, "email"),
		Contact: str(resp, "contact"),
	}, nil
}

func (c *client) FindOrCreatePlan(ctx context.Context, spec domain.PlanSpec) (*domain.Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	listing, err := c.sdk.Plan.All(map[string]interface{}{"count": 100}, nil)
	if err != nil {
		return nil, gatewayErr("plan.all", err)
	}
	if items, ok := listing["items"].([]interface{}); ok {
		for _, raw := range items {
			item, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			if plan := matchPlan(item, spec); plan != nil {
				return plan, nil
			}
		}
	}

	data := map[string]interface{}{
		"period":   spec.Period,
		"interval": spec.Interval,
		"item": map[string]interface{}{
			"name":     spec.ItemName,
			"amount":   spec.AmountPaise,
			"currency": spec.Currency,
		},
	}
	resp, err := c.sdk.Plan.Create(data, nil)
	if err != nil {
		return nil, gatewayErr("plan.create", err)
	}
	c.log.Info("created gateway plan",
		zap.String("plan_id", str(resp, "id")),
		zap.Int64("amount_paise", spec.AmountPaise),
	)
	return &domain.Plan{
		ID:          str(resp, "id"),
		AmountPaise: spec.AmountPaise,
		Currency:    spec.Currency,
		Period:      spec.Period,
		Interval:    spec.Interval,
	}, nil
}

func matchPlan(item map[string]interface{}, spec domain.PlanSpec) *domain.Plan {
	if str(item, "period") != spec.Period || num(item, "interval") != int64(spec.Interval) {
		return nil
	}
	inner, ok := item["item"].(map[string]interface{})
	if !ok {
		return nil
	}
	if num(inner, "amount") != spec.AmountPaise || str(inner, "currency") != spec.Currency {
		return nil
	}
	return &domain.Plan{
		ID:          str(item, "id"),
		AmountPaise: spec.AmountPaise,
		Currency:    spec.Currency,
		Period:      spec.Period,
		Interval:    spec.Interval,
	}
}

func (c *client) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string, notes map[string]interface{}) (*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data := map[string]interface{}{
		"amount":   amountPaise,
		"currency": currency,
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		data["notes"] = notes
	}
	resp, err := c.sdk.Order.Create(data, nil)
	if err != nil {
		return nil, gatewayErr("order.create", err)
	}
	return &domain.Order{
		ID:          str(resp, "id"),
		AmountPaise: num(resp, "amount"),
		Currency:    str(resp, "currency"),
		Receipt:     str(resp, "receipt"),
		Status:      str(resp, "status"),
	}, nil
}

func (c *client) CreateSubscription(ctx context.Context, spec domain.SubscriptionSpec) (*domain.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data := map[string]interface{}{
		"plan_id":         spec.PlanID,
		"customer_id":     spec.CustomerID,
		"total_count":     spec.TotalCount,
		"customer_notify": 1,
		"start_at":        spec.StartAt.Unix(),
	}
	if len(spec.Notes) > 0 {
		data["notes"] = spec.Notes
	}
	resp, err := c.sdk.Subscription.Create(data, nil)
	if err != nil {
		return nil, gatewayErr("subscription.create", err)
	}
	return &domain.Subscription{
		ID:       str(resp, "id"),
		Status:   str(resp, "status"),
		ShortURL: str(resp, "short_url"),
	}, nil
}

func (c *client) FetchPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := c.sdk.Payment.Fetch(paymentID, nil, nil)
	if err != nil {
		return nil, gatewayErr("payment.fetch", err)
	}
	captured, _ := resp["captured"].(bool)
	return &domain.Payment{
		ID:          str(resp, "id"),
		OrderID:     str(resp, "order_id"),
		Status:      str(resp, "status"),
		Captured:    captured || str(resp, "status") == "captured",
		AmountPaise: num(resp, "amount"),
		Method:      str(resp, "method"),
		Email:       str(resp, "email"),
		Contact:     str(resp, "contact"),
	}, nil
}

func (c *client) FetchPaymentsForOrder(ctx context.Context, gatewayOrderID string) ([]domain.Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := c.sdk.Order.Payments(gatewayOrderID, nil, nil)
	if err != nil {
		return nil, gatewayErr("order.payments", err)
	}
	items, _ := resp["items"].([]interface{})
	payments := make([]domain.Payment, 0, len(items))
	for _, raw := range items {
		item, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		captured, _ := item["captured"].(bool)
		payments = append(payments, domain.Payment{
			ID:          str(item, "id"),
			OrderID:     str(item, "order_id"),
			Status:      str(item, "status"),
			Captured:    captured || str(item, "status") == "captured",
			AmountPaise: num(item, "amount"),
			Method:      str(item, "method"),
			Email:       str(item, "email"),
			Contact:     str(item, "contact"),
		})
	}
	return payments, nil
}

func gatewayErr(op string, err error) error {
	return &domain.GatewayError{Op: op, Description: strings.TrimSpace(err.Error())}
}

func str(m map[string]interface{}, key string) string {
	v, _ := m[key].(string)
	return v
}

// num tolerates the SDK decoding JSON numbers as float64.
func num(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}
