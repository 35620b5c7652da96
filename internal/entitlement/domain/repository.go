package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// Upsert replaces the user's current plan row in place.
	Upsert(ctx context.Context, db *gorm.DB, plan *UserPlan) error
	FindByUser(ctx context.Context, db *gorm.DB, userID string) (*UserPlan, error)
}
