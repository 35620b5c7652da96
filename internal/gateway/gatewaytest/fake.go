// Package gatewaytest provides an in-memory gateway client for tests.
package gatewaytest

import (
	"context"
	"fmt"
	"sync"

	"github.com/shuddhilabs/shuddhi/internal/gateway/domain"
)

// Fake is a scriptable gateway. The zero value hands out deterministic ids;
// set the Err fields to force failures.
type Fake struct {
	mu sync.Mutex

	seq int

	CustomerErr     error
	PlanErr         error
	OrderErr        error
	SubscriptionErr error
	PaymentErr      error

	// Payments holds canned FetchPayment responses keyed by payment id.
	Payments map[string]*domain.Payment

	CreatedOrders        []*domain.Order
	CreatedSubscriptions []*domain.Subscription
}

func New() *Fake {
	return &Fake{Payments: map[string]*domain.Payment{}}
}

func (f *Fake) next(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s_fake%06d", prefix, f.seq)
}

func (f *Fake) FindOrCreateCustomer(ctx context.Context, name, email, contact string) (*domain.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CustomerErr != nil {
		return nil, f.CustomerErr
	}
	return &domain.Customer{ID: f.next("cust"), Name: name, Email: email, Contact: contact}, nil
}

func (f *Fake) FindOrCreatePlan(ctx context.Context, spec domain.PlanSpec) (*domain.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PlanErr != nil {
		return nil, f.PlanErr
	}
	return &domain.Plan{
		ID:          f.next("plan"),
		AmountPaise: spec.AmountPaise,
		Currency:    spec.Currency,
		Period:      spec.Period,
		Interval:    spec.Interval,
	}, nil
}

func (f *Fake) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string, notes map[string]interface{}) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.OrderErr != nil {
		return nil, f.OrderErr
	}
	order := &domain.Order{
		ID:          f.next("order"),
		AmountPaise: amountPaise,
		Currency:    currency,
		Receipt:     receipt,
		Status:      "created",
	}
	f.CreatedOrders = append(f.CreatedOrders, order)
	return order, nil
}

func (f *Fake) CreateSubscription(ctx context.Context, spec domain.SubscriptionSpec) (*domain.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SubscriptionErr != nil {
		return nil, f.SubscriptionErr
	}
	sub := &domain.Subscription{
		ID:       f.next("sub"),
		Status:   "created",
		ShortURL: "https://rzp.io/i/" + f.next("link"),
	}
	f.CreatedSubscriptions = append(f.CreatedSubscriptions, sub)
	return sub, nil
}

func (f *Fake) FetchPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PaymentErr != nil {
		return nil, f.PaymentErr
	}
	if p, ok := f.Payments[paymentID]; ok {
		return p, nil
	}
	return nil, &domain.GatewayError{Op: "payment.fetch", Description: "payment not found"}
}

func (f *Fake) FetchPaymentsForOrder(ctx context.Context, gatewayOrderID string) ([]domain.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PaymentErr != nil {
		return nil, f.PaymentErr
	}
	var out []domain.Payment
	for _, p := range f.Payments {
		if p.OrderID == gatewayOrderID {
			out = append(out, *p)
		}
	}
	return out, nil
}
