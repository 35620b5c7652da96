// Package domain defines the reconciliation core: the canonical gateway
// event, the transition outcome, and the durable webhook event log.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// WebhookEvent is the durable log row for every delivery we accept. The
// (provider, provider_event_id) pair is unique, so a redelivered event lands
// on its original row instead of creating a new one.
type WebhookEvent struct {
	ID              snowflake.ID   `gorm:"primaryKey"`
	Provider        string         `gorm:"type:text;not null"`
	ProviderEventID string         `gorm:"type:text;not null"`
	EventType       string         `gorm:"type:text;not null"`
	Payload         datatypes.JSON `gorm:"type:jsonb;not null"`
	Signature       string         `gorm:"type:text"`
	Processed       bool           `gorm:"not null"`
	ProcessingError string         `gorm:"type:text"`
	ReceivedAt      time.Time      `gorm:"not null"`
	ProcessedAt     *time.Time
}

func (WebhookEvent) TableName() string { return "webhook_events" }

type EventType string

const (
	EventPaymentCaptured       EventType = "payment.captured"
	EventPaymentFailed         EventType = "payment.failed"
	EventSubscriptionActivated EventType = "subscription.activated"
	EventSubscriptionCharged   EventType = "subscription.charged"
	EventInvoicePaid           EventType = "invoice.paid"
	EventSubscriptionHalted    EventType = "subscription.halted"
	EventSubscriptionCancelled EventType = "subscription.cancelled"
	EventSubscriptionCompleted EventType = "subscription.completed"
)

// GatewayEvent is the provider-neutral event the reconciler consumes. The
// webhook parser and the manual recovery path both produce this shape, so
// both run through the same transitions.
type GatewayEvent struct {
	Type                  EventType
	PaymentID             string
	GatewayOrderID        string
	GatewaySubscriptionID string
	AmountPaise           int64
	Method                string
	Email                 string
	Contact               string
	PaidCount             int
	RemainingCount        int
	CurrentPeriodStart    *time.Time
	CurrentPeriodEnd      *time.Time
	NextChargeAt          *time.Time
	OccurredAt            time.Time
}

// Transition reports what a single event application did to the ledger.
type Transition struct {
	Applied          bool   `json:"applied"`
	AlreadyProcessed bool   `json:"already_processed"`
	Description      string `json:"description"`
}

var (
	// ErrUnknownOrder means a settlement arrived for an order this system
	// never created. Failing loudly makes the provider redeliver instead of
	// silently dropping money.
	ErrUnknownOrder        = errors.New("unknown_gateway_order")
	ErrUnknownSubscription = errors.New("unknown_gateway_subscription")
	ErrSignatureInvalid    = errors.New("webhook_signature_invalid")
	ErrPaymentNotCaptured  = errors.New("payment_not_captured")
	ErrPaymentMismatch     = errors.New("payment_order_mismatch")
)
