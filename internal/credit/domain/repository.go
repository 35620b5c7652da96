package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	// Insert writes a grant row. It reports whether a new row was written;
	// false means a grant for the same source already exists.
	Insert(ctx context.Context, db *gorm.DB, grant *CreditGrant) (bool, error)
	SumBalance(ctx context.Context, db *gorm.DB, userID string, now time.Time) (*Balance, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID string, limit int) ([]CreditGrant, error)
	// ConsumeOldest draws `words` from the earliest-expiring unexpired
	// grants. It reports the number of words actually drawn, which is less
	// than requested when the balance runs out.
	ConsumeOldest(ctx context.Context, db *gorm.DB, userID string, words int64, now time.Time) (int64, error)
}
