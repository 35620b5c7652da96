package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/shuddhilabs/shuddhi/internal/plan/domain"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.WordPlan, error) {
	var item domain.WordPlan
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM word_plans WHERE id = ? LIMIT 1`,
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

func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, code string) (*domain.WordPlan, error) {
	var item domain.WordPlan
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM word_plans WHERE code = ? LIMIT 1`,
		code,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB) ([]domain.WordPlan, error) {
	var items []domain.WordPlan
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM word_plans WHERE is_active = TRUE ORDER BY price_paise ASC`,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, plan *domain.WordPlan) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO word_plans (
			id, code, name, plan_type, price_paise, currency, words,
			billing_period, billing_interval, total_cycles, is_active,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (code) DO NOTHING`,
		plan.ID,
		plan.Code,
		plan.Name,
		plan.Type,
		plan.PricePaise,
		plan.Currency,
		plan.Words,
		plan.BillingPeriod,
		plan.BillingInterval,
		plan.TotalCycles,
		plan.IsActive,
		plan.CreatedAt,
		plan.UpdatedAt,
	).Error
}
