package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/shuddhilabs/shuddhi/internal/subscription/domain"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, sub *domain.Subscription) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO subscriptions (
			id, user_id, word_plan_id, gateway_subscription_id, gateway_customer_id,
			gateway_plan_id, status, auto_renew, billing_period, billing_interval,
			total_cycles, next_billing_at, expires_at, short_url, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID,
		sub.UserID,
		sub.WordPlanID,
		sub.GatewaySubscriptionID,
		sub.GatewayCustomerID,
		sub.GatewayPlanID,
		sub.Status,
		sub.AutoRenew,
		sub.BillingPeriod,
		sub.BillingInterval,
		sub.TotalCycles,
		sub.NextBillingAt,
		sub.ExpiresAt,
		sub.ShortURL,
		sub.CreatedAt,
		sub.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Subscription, error) {
	var item domain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM subscriptions WHERE id = ? LIMIT 1`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindByGatewaySubscriptionID(ctx context.Context, db *gorm.DB, gatewaySubscriptionID string) (*domain.Subscription, error) {
	var item domain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM subscriptions WHERE gateway_subscription_id = ? LIMIT 1`,
		gatewaySubscriptionID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindActiveByUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Subscription, error) {
	var items []domain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM subscriptions
		 WHERE user_id = ? AND status IN (?, ?)
		 ORDER BY created_at DESC`,
		userID,
		domain.SubscriptionStatusCreated,
		domain.SubscriptionStatusActive,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.SubscriptionStatus, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions SET status = ?, updated_at = ? WHERE id = ?`,
		status, now, id,
	).Error
}

func (r *repo) SetCancelled(ctx context.Context, db *gorm.DB, id snowflake.ID, autoRenew bool, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions
		 SET status = ?, auto_renew = ?, updated_at = ?
		 WHERE id = ?`,
		domain.SubscriptionStatusCancelled, autoRenew, now, id,
	).Error
}

func (r *repo) SetNextBilling(ctx context.Context, db *gorm.DB, id snowflake.ID, nextBillingAt *time.Time, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions SET next_billing_at = ?, updated_at = ? WHERE id = ?`,
		nextBillingAt, now, id,
	).Error
}
