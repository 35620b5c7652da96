package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*WordPlan, error)
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*WordPlan, error)
	ListActive(ctx context.Context, db *gorm.DB) ([]WordPlan, error)
	Insert(ctx context.Context, db *gorm.DB, plan *WordPlan) error
}
