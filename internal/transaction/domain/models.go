// Package domain records the money-movement audit trail shown on the user's
// billing history page. Rows are append-only.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type TransactionKind string

const (
	TransactionKindPurchase        TransactionKind = "purchase"
	TransactionKindRecurringCharge TransactionKind = "recurring_charge"
)

type PaymentTransaction struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	UserID           string       `gorm:"type:text;not null;index"`
	GatewayPaymentID string       `gorm:"type:text"`
	OrderID          *snowflake.ID
	ChargeID         *snowflake.ID
	AmountPaise      int64           `gorm:"not null"`
	Currency         string          `gorm:"type:text;not null"`
	Kind             TransactionKind `gorm:"type:text;not null"`
	CreatedAt        time.Time       `gorm:"not null"`
}

func (PaymentTransaction) TableName() string { return "payment_transactions" }
