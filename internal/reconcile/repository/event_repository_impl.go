package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/shuddhilabs/shuddhi/internal/reconcile/domain"
)

type eventRepo struct{}

func ProvideEvents() domain.EventRepository {
	return &eventRepo{}
}

func (r *eventRepo) Insert(ctx context.Context, db *gorm.DB, event *domain.WebhookEvent) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`INSERT INTO webhook_events (
			id, provider, provider_event_id, event_type, payload, signature,
			processed, processing_error, received_at, processed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (provider, provider_event_id) DO NOTHING`,
		event.ID,
		event.Provider,
		event.ProviderEventID,
		event.EventType,
		event.Payload,
		event.Signature,
		event.Processed,
		event.ProcessingError,
		event.ReceivedAt,
		event.ProcessedAt,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *eventRepo) FindByProviderEventID(ctx context.Context, db *gorm.DB, provider, providerEventID string) (*domain.WebhookEvent, error) {
	var item domain.WebhookEvent
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM webhook_events WHERE provider = ? AND provider_event_id = ? LIMIT 1`,
		provider, providerEventID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *eventRepo) MarkProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE webhook_events
		 SET processed = TRUE, processing_error = '', processed_at = ?
		 WHERE id = ?`,
		at, id,
	).Error
}

func (r *eventRepo) RecordError(ctx context.Context, db *gorm.DB, id snowflake.ID, message string, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE webhook_events SET processing_error = ?, processed_at = ? WHERE id = ?`,
		message, at, id,
	).Error
}

func (r *eventRepo) List(ctx context.Context, db *gorm.DB, onlyFailed bool, limit int) ([]domain.WebhookEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT * FROM webhook_events ORDER BY received_at DESC LIMIT ?`
	if onlyFailed {
		query = `SELECT * FROM webhook_events
		         WHERE processed = FALSE AND processing_error <> ''
		         ORDER BY received_at DESC LIMIT ?`
	}
	var items []domain.WebhookEvent
	err := db.WithContext(ctx).Raw(query, limit).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
