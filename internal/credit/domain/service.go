package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Service owns the crediting policy: which source gets which expiry, and how
// consumption draws down the ledger. Grant methods run inside the caller's
// transaction and report false when the source was already credited.
type Service interface {
	GrantForOrder(ctx context.Context, tx *gorm.DB, userID string, orderID snowflake.ID, words int64) (*CreditGrant, bool, error)
	GrantForCharge(ctx context.Context, tx *gorm.DB, userID string, chargeID snowflake.ID, words int64, periodEnd *time.Time) (*CreditGrant, bool, error)
	GrantForActivation(ctx context.Context, tx *gorm.DB, userID string, subscriptionID snowflake.ID, words int64, periodEnd *time.Time) (*CreditGrant, bool, error)
	Balance(ctx context.Context, userID string) (*Balance, error)
	Consume(ctx context.Context, userID string, words int64) error
	List(ctx context.Context, userID string, limit int) ([]CreditGrant, error)
}
