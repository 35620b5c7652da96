package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type EventRepository interface {
	// Insert logs a delivery. It reports false when the (provider, event id)
	// pair was already logged; the caller then consults the existing row.
	Insert(ctx context.Context, db *gorm.DB, event *WebhookEvent) (bool, error)
	FindByProviderEventID(ctx context.Context, db *gorm.DB, provider, providerEventID string) (*WebhookEvent, error)
	MarkProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error
	RecordError(ctx context.Context, db *gorm.DB, id snowflake.ID, message string, at time.Time) error
	List(ctx context.Context, db *gorm.DB, onlyFailed bool, limit int) ([]WebhookEvent, error)
}
