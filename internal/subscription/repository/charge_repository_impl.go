package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/shuddhilabs/shuddhi/internal/subscription/domain"
)

type chargeRepo struct{}

func ProvideCharge() domain.ChargeRepository {
	return &chargeRepo{}
}

func (r *chargeRepo) Insert(ctx context.Context, db *gorm.DB, charge *domain.Charge) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`INSERT INTO charges (
			id, mandate_id, user_id, gateway_payment_id, amount_paise,
			status, charged_at, paid_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (gateway_payment_id) DO NOTHING`,
		charge.ID,
		charge.MandateID,
		charge.UserID,
		charge.GatewayPaymentID,
		charge.AmountPaise,
		charge.Status,
		charge.ChargedAt,
		charge.PaidAt,
		charge.CreatedAt,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *chargeRepo) FindByGatewayPaymentID(ctx context.Context, db *gorm.DB, gatewayPaymentID string) (*domain.Charge, error) {
	var item domain.Charge
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM charges WHERE gateway_payment_id = ? LIMIT 1`,
		gatewayPaymentID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *chargeRepo) ListByUser(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.Charge, error) {
	if limit <= 0 {
		limit = 50
	}
	var items []domain.Charge
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM charges WHERE user_id = ? ORDER BY charged_at DESC LIMIT ?`,
		userID, limit,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
