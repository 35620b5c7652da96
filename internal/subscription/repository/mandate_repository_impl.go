package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/shuddhilabs/shuddhi/internal/subscription/domain"
)

type mandateRepo struct{}

func ProvideMandate() domain.MandateRepository {
	return &mandateRepo{}
}

func (r *mandateRepo) Insert(ctx context.Context, db *gorm.DB, mandate *domain.Mandate) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO mandates (
			id, subscription_id, gateway_plan_id, status, max_amount_paise,
			paid_count, remaining_count, next_charge_at, current_period_start,
			current_period_end, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		mandate.ID,
		mandate.SubscriptionID,
		mandate.GatewayPlanID,
		mandate.Status,
		mandate.MaxAmountPaise,
		mandate.PaidCount,
		mandate.RemainingCount,
		mandate.NextChargeAt,
		mandate.CurrentPeriodStart,
		mandate.CurrentPeriodEnd,
		mandate.CreatedAt,
		mandate.UpdatedAt,
	).Error
}

func (r *mandateRepo) FindBySubscriptionID(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) (*domain.Mandate, error) {
	var item domain.Mandate
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM mandates WHERE subscription_id = ? LIMIT 1`,
		subscriptionID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *mandateRepo) Confirm(ctx context.Context, db *gorm.DB, id snowflake.ID, remainingCount int, periodStart, periodEnd *time.Time, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE mandates
		 SET status = ?, remaining_count = ?, current_period_start = ?,
		     current_period_end = ?, updated_at = ?
		 WHERE id = ?`,
		domain.MandateStatusConfirmed,
		remainingCount,
		periodStart,
		periodEnd,
		now,
		id,
	).Error
}

func (r *mandateRepo) RecordCharge(ctx context.Context, db *gorm.DB, id snowflake.ID, nextChargeAt, periodStart, periodEnd *time.Time, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE mandates
		 SET paid_count = paid_count + 1,
		     remaining_count = remaining_count - 1,
		     next_charge_at = ?,
		     current_period_start = ?,
		     current_period_end = ?,
		     updated_at = ?
		 WHERE id = ?`,
		nextChargeAt,
		periodStart,
		periodEnd,
		now,
		id,
	).Error
}

func (r *mandateRepo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.MandateStatus, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE mandates SET status = ?, updated_at = ? WHERE id = ?`,
		status, now, id,
	).Error
}
