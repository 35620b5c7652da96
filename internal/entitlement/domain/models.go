// Package domain tracks which word plan a user currently sits on. One row
// per user, replaced whenever a payment lands for a different plan.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"

	plandomain "github.com/shuddhilabs/shuddhi/internal/plan/domain"
)

type UserPlan struct {
	ID             snowflake.ID        `gorm:"primaryKey"`
	UserID         string              `gorm:"type:text;not null;uniqueIndex"`
	WordPlanID     snowflake.ID        `gorm:"not null"`
	PlanType       plandomain.PlanType `gorm:"type:text;not null"`
	SourceOrderID  *snowflake.ID
	SubscriptionID *snowflake.ID
	ActivatedAt    time.Time `gorm:"not null"`
	ExpiresAt      *time.Time
	UpdatedAt      time.Time `gorm:"not null"`
}

func (UserPlan) TableName() string { return "user_plans" }
