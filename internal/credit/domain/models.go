// Package domain contains the word-credit ledger models. Credits are granted
// when money lands (order payment, recurring charge, subscription activation)
// and consumed as the user runs grammar checks.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type GrantSource string

const (
	GrantSourceOrder      GrantSource = "order"
	GrantSourceCharge     GrantSource = "charge"
	GrantSourceActivation GrantSource = "subscription_activation"
)

// CreditGrant is one append-only ledger entry. Exactly one of the three
// source ids is set; each carries its own unique index, so a given order,
// charge or activation can never be credited twice.
type CreditGrant struct {
	ID                   snowflake.ID `gorm:"primaryKey"`
	UserID               string       `gorm:"type:text;not null;index"`
	WordsGranted         int64        `gorm:"not null"`
	WordsUsed            int64        `gorm:"not null"`
	SourceType           GrantSource  `gorm:"type:text;not null"`
	SourceOrderID        *snowflake.ID
	SourceChargeID       *snowflake.ID
	SourceSubscriptionID *snowflake.ID
	ExpiresAt            *time.Time
	CreatedAt            time.Time
}

func (CreditGrant) TableName() string { return "credit_grants" }

// Balance is the user-facing aggregate over unexpired grants.
type Balance struct {
	UserID         string `json:"user_id"`
	WordsGranted   int64  `json:"words_granted"`
	WordsUsed      int64  `json:"words_used"`
	WordsRemaining int64  `json:"words_remaining"`
}

var (
	ErrInsufficientCredits = errors.New("insufficient_credits")
)
