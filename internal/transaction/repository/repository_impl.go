package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/shuddhilabs/shuddhi/internal/transaction/domain"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, txn *domain.PaymentTransaction) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payment_transactions (
			id, user_id, gateway_payment_id, order_id, charge_id,
			amount_paise, currency, kind, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID,
		txn.UserID,
		txn.GatewayPaymentID,
		txn.OrderID,
		txn.ChargeID,
		txn.AmountPaise,
		txn.Currency,
		txn.Kind,
		txn.CreatedAt,
	).Error
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.PaymentTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	var items []domain.PaymentTransaction
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM payment_transactions WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`,
		userID, limit,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
