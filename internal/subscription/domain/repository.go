package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, sub *Subscription) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
	FindByGatewaySubscriptionID(ctx context.Context, db *gorm.DB, gatewaySubscriptionID string) (*Subscription, error)
	FindActiveByUser(ctx context.Context, db *gorm.DB, userID string) ([]Subscription, error)
	// UpdateStatus writes the new status unconditionally. State legality is
	// the reconciler's concern, not the store's.
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status SubscriptionStatus, now time.Time) error
	SetCancelled(ctx context.Context, db *gorm.DB, id snowflake.ID, autoRenew bool, now time.Time) error
	SetNextBilling(ctx context.Context, db *gorm.DB, id snowflake.ID, nextBillingAt *time.Time, now time.Time) error
}

type MandateRepository interface {
	Insert(ctx context.Context, db *gorm.DB, mandate *Mandate) error
	FindBySubscriptionID(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) (*Mandate, error)
	Confirm(ctx context.Context, db *gorm.DB, id snowflake.ID, remainingCount int, periodStart, periodEnd *time.Time, now time.Time) error
	// RecordCharge advances paid_count and decrements remaining_count in a
	// single statement so the cadence counters cannot drift apart.
	RecordCharge(ctx context.Context, db *gorm.DB, id snowflake.ID, nextChargeAt, periodStart, periodEnd *time.Time, now time.Time) error
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status MandateStatus, now time.Time) error
}

type ChargeRepository interface {
	// Insert is idempotent on gateway_payment_id. It reports whether a new
	// row was written; false means the charge was already recorded.
	Insert(ctx context.Context, db *gorm.DB, charge *Charge) (bool, error)
	FindByGatewayPaymentID(ctx context.Context, db *gorm.DB, gatewayPaymentID string) (*Charge, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID string, limit int) ([]Charge, error)
}
