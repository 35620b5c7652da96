// Package domain defines the checkout surface: turning a word-plan selection
// into a gateway order or subscription the frontend can open the payment
// widget with. Nothing here settles money; settlement arrives via webhooks.
package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone"`
}

type OrderCheckoutRequest struct {
	UserID     string
	WordPlanID snowflake.ID
	Customer   CustomerInfo
}

type OrderCheckoutResponse struct {
	OrderID        snowflake.ID `json:"order_id"`
	GatewayOrderID string       `json:"gateway_order_id"`
	KeyID          string       `json:"key_id"`
	AmountPaise    int64        `json:"amount_paise"`
	Currency       string       `json:"currency"`
}

type SubscriptionCheckoutRequest struct {
	UserID     string
	WordPlanID snowflake.ID
	Customer   CustomerInfo
}

type SubscriptionCheckoutResponse struct {
	SubscriptionID        snowflake.ID `json:"subscription_id"`
	GatewaySubscriptionID string       `json:"gateway_subscription_id"`
	KeyID                 string       `json:"key_id"`
	ShortURL              string       `json:"short_url"`
	AmountPaise           int64        `json:"amount_paise"`
}

type Service interface {
	CreateOrder(ctx context.Context, req OrderCheckoutRequest) (*OrderCheckoutResponse, error)
	CreateSubscription(ctx context.Context, req SubscriptionCheckoutRequest) (*SubscriptionCheckoutResponse, error)
}

var (
	ErrPlanNotPurchasable = errors.New("plan_not_purchasable")
	ErrPlanNotRecurring   = errors.New("plan_not_recurring")
)

// Payable applies the GST rate to a plan price, rounding half up to the
// nearest paisa.
func Payable(pricePaise, taxRateBps int64) int64 {
	return (pricePaise*(10_000+taxRateBps) + 5_000) / 10_000
}
