package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/shuddhilabs/shuddhi/internal/entitlement/domain"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, plan *domain.UserPlan) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO user_plans (
			id, user_id, word_plan_id, plan_type, source_order_id,
			subscription_id, activated_at, expires_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			word_plan_id = excluded.word_plan_id,
			plan_type = excluded.plan_type,
			source_order_id = excluded.source_order_id,
			subscription_id = excluded.subscription_id,
			activated_at = excluded.activated_at,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		plan.ID,
		plan.UserID,
		plan.WordPlanID,
		plan.PlanType,
		plan.SourceOrderID,
		plan.SubscriptionID,
		plan.ActivatedAt,
		plan.ExpiresAt,
		plan.UpdatedAt,
	).Error
}

func (r *repo) FindByUser(ctx context.Context, db *gorm.DB, userID string) (*domain.UserPlan, error) {
	var item domain.UserPlan
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM user_plans WHERE user_id = ? LIMIT 1`,
		userID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}
