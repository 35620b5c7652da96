package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *Order) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	FindByGatewayOrderID(ctx context.Context, db *gorm.DB, gatewayOrderID string) (*Order, error)
	// MarkPaid transitions created→paid as a compare-and-swap. It returns
	// false when the order was no longer in `created`, so a concurrent
	// duplicate delivery detects the already-applied transition.
	MarkPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, paidAt time.Time) (bool, error)
}
