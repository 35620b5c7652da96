// Package domain contains persistence models for recurring subscriptions,
// their UPI autopay mandates and the individual recurring charges.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// SubscriptionStatus mirrors the gateway-side lifecycle. `created` means the
// user has been handed the authorization link but has not completed it yet.
type SubscriptionStatus string

const (
	SubscriptionStatusCreated   SubscriptionStatus = "created"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusHalted    SubscriptionStatus = "halted"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusCompleted SubscriptionStatus = "completed"
)

type MandateStatus string

const (
	MandateStatusPending   MandateStatus = "pending"
	MandateStatusConfirmed MandateStatus = "confirmed"
	MandateStatusPaused    MandateStatus = "paused"
	MandateStatusRevoked   MandateStatus = "revoked"
	MandateStatusExhausted MandateStatus = "exhausted"
)

type ChargeStatus string

const (
	ChargeStatusCaptured ChargeStatus = "captured"
	ChargeStatusFailed   ChargeStatus = "failed"
)

type Subscription struct {
	ID                    snowflake.ID       `gorm:"primaryKey"`
	UserID                string             `gorm:"type:text;not null;index"`
	WordPlanID            snowflake.ID       `gorm:"not null"`
	GatewaySubscriptionID string             `gorm:"type:text;not null;uniqueIndex"`
	GatewayCustomerID     string             `gorm:"type:text;not null"`
	GatewayPlanID         string             `gorm:"type:text;not null"`
	Status                SubscriptionStatus `gorm:"type:text;not null"`
	AutoRenew             bool               `gorm:"not null"`
	BillingPeriod         string             `gorm:"type:text;not null"`
	BillingInterval       int                `gorm:"not null"`
	TotalCycles           int                `gorm:"not null"`
	NextBillingAt         *time.Time
	ExpiresAt             *time.Time
	ShortURL              string `gorm:"type:text"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (Subscription) TableName() string { return "subscriptions" }

// Mandate is the local projection of the UPI autopay authorization backing a
// subscription. Exactly one per subscription.
type Mandate struct {
	ID                 snowflake.ID  `gorm:"primaryKey"`
	SubscriptionID     snowflake.ID  `gorm:"not null;uniqueIndex"`
	GatewayPlanID      string        `gorm:"type:text;not null"`
	Status             MandateStatus `gorm:"type:text;not null"`
	MaxAmountPaise     int64         `gorm:"not null"`
	PaidCount          int           `gorm:"not null"`
	RemainingCount     int           `gorm:"not null"`
	NextChargeAt       *time.Time
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (Mandate) TableName() string { return "mandates" }

// Charge records one recurring debit against a mandate. GatewayPaymentID is
// unique, so a replayed charge event cannot produce a second row.
type Charge struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	MandateID        snowflake.ID `gorm:"not null"`
	UserID           string       `gorm:"type:text;not null"`
	GatewayPaymentID string       `gorm:"type:text;not null;uniqueIndex"`
	AmountPaise      int64        `gorm:"not null"`
	Status           ChargeStatus `gorm:"type:text;not null"`
	ChargedAt        time.Time    `gorm:"not null"`
	PaidAt           *time.Time
	CreatedAt        time.Time
}

func (Charge) TableName() string { return "charges" }

var (
	ErrSubscriptionNotFound = errors.New("subscription_not_found")
	ErrMandateNotFound      = errors.New("mandate_not_found")
)
