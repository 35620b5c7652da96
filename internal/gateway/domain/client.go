// Package domain defines the payment gateway boundary. The rest of the
// codebase talks to this interface; the Razorpay implementation lives in
// gateway/razorpay and tests substitute a fake.
package domain

import (
	"context"
	"fmt"
	"time"
)

type Customer struct {
	ID      string
	Name    string
	Email   string
	Contact string
}

type Order struct {
	ID          string
	AmountPaise int64
	Currency    string
	Receipt     string
	Status      string
}

// PlanSpec identifies a recurring billing plan by its economic terms. Plans
// are matched on exact amount + period + interval before a new one is
// created, so re-deploys never multiply gateway-side plans.
type PlanSpec struct {
	ItemName    string
	AmountPaise int64
	Currency    string
	Period      string
	Interval    int
}

type Plan struct {
	ID          string
	AmountPaise int64
	Currency    string
	Period      string
	Interval    int
}

type SubscriptionSpec struct {
	PlanID     string
	CustomerID string
	TotalCount int
	StartAt    time.Time
	Notes      map[string]interface{}
}

type Subscription struct {
	ID       string
	Status   string
	ShortURL string
}

type Payment struct {
	ID          string
	OrderID     string
	Status      string
	Captured    bool
	AmountPaise int64
	Method      string
	Email       string
	Contact     string
}

type Client interface {
	FindOrCreateCustomer(ctx context.Context, name, email, contact string) (*Customer, error)
	FindOrCreatePlan(ctx context.Context, spec PlanSpec) (*Plan, error)
	CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string, notes map[string]interface{}) (*Order, error)
	CreateSubscription(ctx context.Context, spec SubscriptionSpec) (*Subscription, error)
	FetchPayment(ctx context.Context, paymentID string) (*Payment, error)
	// FetchPaymentsForOrder lists the payment attempts recorded against a
	// gateway order, newest first per the provider.
	FetchPaymentsForOrder(ctx context.Context, gatewayOrderID string) ([]Payment, error)
}

// GatewayError wraps a failed gateway call with enough context to log and to
// map at the HTTP boundary without leaking provider internals to clients.
type GatewayError struct {
	Op          string
	Description string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway %s: %s", e.Op, e.Description)
}
