package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, txn *PaymentTransaction) error
	ListByUser(ctx context.Context, db *gorm.DB, userID string, limit int) ([]PaymentTransaction, error)
}
