// Package seed bootstraps the word-plan catalog so a fresh install has
// something to sell.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	plandomain "github.com/shuddhilabs/shuddhi/internal/plan/domain"
	planrepo "github.com/shuddhilabs/shuddhi/internal/plan/repository"
)

func monthly() *string { s := "monthly"; return &s }
func intOf(v int) *int { return &v }

// EnsureWordPlans inserts the default catalog. Existing rows win: inserts
// are keyed by plan code and skipped on conflict.
func EnsureWordPlans(db *gorm.DB, node *snowflake.Node) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if node == nil {
		return errors.New("seed id node is required")
	}

	now := time.Now().UTC()
	plans := []plandomain.WordPlan{
		{
			Code:       "free-1000",
			Name:       "Free",
			Type:       plandomain.PlanTypeFree,
			PricePaise: 0,
			Currency:   "INR",
			Words:      1_000,
		},
		{
			Code:       "starter-10000",
			Name:       "Starter 10K",
			Type:       plandomain.PlanTypeOneTime,
			PricePaise: 99_900,
			Currency:   "INR",
			Words:      10_000,
		},
		{
			Code:       "pro-50000",
			Name:       "Pro 50K",
			Type:       plandomain.PlanTypeOneTime,
			PricePaise: 399_900,
			Currency:   "INR",
			Words:      50_000,
		},
		{
			Code:            "sahayak-monthly",
			Name:            "Sahayak Monthly",
			Type:            plandomain.PlanTypeSubscription,
			PricePaise:      49_900,
			Currency:        "INR",
			Words:           25_000,
			BillingPeriod:   monthly(),
			BillingInterval: intOf(1),
			TotalCycles:     intOf(120),
		},
	}

	ctx := context.Background()
	repo := planrepo.Provide()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range plans {
			plans[i].ID = node.Generate()
			plans[i].IsActive = true
			plans[i].CreatedAt = now
			plans[i].UpdatedAt = now
			if err := repo.Insert(ctx, tx, &plans[i]); err != nil {
				return err
			}
		}
		return nil
	})
}
