// Package domain contains persistence models for one-time purchase orders.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// OrderStatus is the lifecycle state of a one-time purchase.
type OrderStatus string

const (
	OrderStatusCreated OrderStatus = "created"
	OrderStatusPaid    OrderStatus = "paid"
	OrderStatusFailed  OrderStatus = "failed"
)

// Order is a one-time purchase intent. The row is created by checkout in
// `created` state and transitions to `paid` exactly once, via the
// reconciler or the operator recovery path. A paid order is immutable.
type Order struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	UserID         string       `gorm:"type:text;not null;index"`
	WordPlanID     snowflake.ID `gorm:"not null"`
	GatewayOrderID string       `gorm:"type:text;not null;uniqueIndex"`
	AmountPaise    int64        `gorm:"not null"`
	Currency       string       `gorm:"type:text;not null"`
	Status         OrderStatus  `gorm:"type:text;not null"`
	WordsToCredit  int64        `gorm:"not null"`
	Receipt        string       `gorm:"type:text;not null"`
	CustomerName   string       `gorm:"type:text"`
	CustomerEmail  string       `gorm:"type:text"`
	CustomerPhone  string       `gorm:"type:text"`
	CreatedAt      time.Time    `gorm:"not null"`
	UpdatedAt      time.Time    `gorm:"not null"`
	PaidAt         *time.Time   `gorm:""`
}

func (Order) TableName() string { return "orders" }

var (
	ErrOrderNotFound    = errors.New("order_not_found")
	ErrOrderAlreadyPaid = errors.New("order_already_paid")
)
