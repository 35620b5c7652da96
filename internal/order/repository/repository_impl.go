package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/shuddhilabs/shuddhi/internal/order/domain"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO orders (
			id, user_id, word_plan_id, gateway_order_id, amount_paise, currency,
			status, words_to_credit, receipt, customer_name, customer_email,
			customer_phone, created_at, updated_at, paid_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID,
		order.UserID,
		order.WordPlanID,
		order.GatewayOrderID,
		order.AmountPaise,
		order.Currency,
		order.Status,
		order.WordsToCredit,
		order.Receipt,
		order.CustomerName,
		order.CustomerEmail,
		order.CustomerPhone,
		order.CreatedAt,
		order.UpdatedAt,
		order.PaidAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var item domain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM orders WHERE id = ? LIMIT 1`,
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

func (r *repo) FindByGatewayOrderID(ctx context.Context, db *gorm.DB, gatewayOrderID string) (*domain.Order, error) {
	var item domain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM orders WHERE gateway_order_id = ? LIMIT 1`,
		gatewayOrderID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) MarkPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, paidAt time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE orders
		 SET status = ?, paid_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		domain.OrderStatusPaid,
		paidAt,
		paidAt,
		id,
		domain.OrderStatusCreated,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
