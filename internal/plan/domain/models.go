// Package domain contains the word-plan catalog models.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// PlanType distinguishes how a plan is purchased and how its credits expire.
type PlanType string

const (
	PlanTypeFree         PlanType = "free"
	PlanTypeOneTime      PlanType = "one_time"
	PlanTypeSubscription PlanType = "subscription"
)

// WordPlan is a purchasable word-credit tier. Prices are in paise, before
// tax.
type WordPlan struct {
	ID              snowflake.ID `gorm:"primaryKey"`
	Code            string       `gorm:"type:text;not null;uniqueIndex"`
	Name            string       `gorm:"type:text;not null"`
	Type            PlanType     `gorm:"column:plan_type;type:text;not null"`
	PricePaise      int64        `gorm:"not null"`
	Currency        string       `gorm:"type:text;not null;default:INR"`
	Words           int64        `gorm:"not null"`
	BillingPeriod   *string      `gorm:"type:text"`
	BillingInterval *int         `gorm:""`
	TotalCycles     *int         `gorm:""`
	IsActive        bool         `gorm:"not null;default:true"`
	CreatedAt       time.Time    `gorm:"not null"`
	UpdatedAt       time.Time    `gorm:"not null"`
}

func (WordPlan) TableName() string { return "word_plans" }

// Recurring reports whether the plan bills through a mandate.
func (p WordPlan) Recurring() bool { return p.Type == PlanTypeSubscription }

var (
	ErrPlanNotFound = errors.New("plan_not_found")
	ErrPlanInactive = errors.New("plan_inactive")
)
