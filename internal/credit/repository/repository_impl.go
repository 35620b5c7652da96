package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/shuddhilabs/shuddhi/internal/credit/domain"
	"github.com/shuddhilabs/shuddhi/pkg/db"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, tx *gorm.DB, grant *domain.CreditGrant) (bool, error) {
	err := tx.WithContext(ctx).Exec(
		`INSERT INTO credit_grants (
			id, user_id, words_granted, words_used, source_type,
			source_order_id, source_charge_id, source_subscription_id,
			expires_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		grant.ID,
		grant.UserID,
		grant.WordsGranted,
		grant.WordsUsed,
		grant.SourceType,
		grant.SourceOrderID,
		grant.SourceChargeID,
		grant.SourceSubscriptionID,
		grant.ExpiresAt,
		grant.CreatedAt,
	).Error
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *repo) SumBalance(ctx context.Context, tx *gorm.DB, userID string, now time.Time) (*domain.Balance, error) {
	var row struct {
		WordsGranted int64
		WordsUsed    int64
	}
	err := tx.WithContext(ctx).Raw(
		`SELECT
			COALESCE(SUM(words_granted), 0) AS words_granted,
			COALESCE(SUM(words_used), 0) AS words_used
		 FROM credit_grants
		 WHERE user_id = ? AND (expires_at IS NULL OR expires_at > ?)`,
		userID, now,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &domain.Balance{
		UserID:         userID,
		WordsGranted:   row.WordsGranted,
		WordsUsed:      row.WordsUsed,
		WordsRemaining: row.WordsGranted - row.WordsUsed,
	}, nil
}

func (r *repo) ListByUser(ctx context.Context, tx *gorm.DB, userID string, limit int) ([]domain.CreditGrant, error) {
	if limit <= 0 {
		limit = 50
	}
	var items []domain.CreditGrant
	err := tx.WithContext(ctx).Raw(
		`SELECT * FROM credit_grants WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`,
		userID, limit,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ConsumeOldest(ctx context.Context, tx *gorm.DB, userID string, words int64, now time.Time) (int64, error) {
	var grants []domain.CreditGrant
	err := tx.WithContext(ctx).Raw(
		`SELECT * FROM credit_grants
		 WHERE user_id = ?
		   AND words_used < words_granted
		   AND (expires_at IS NULL OR expires_at > ?)
		 ORDER BY expires_at IS NULL ASC, expires_at ASC, created_at ASC`,
		userID, now,
	).Scan(&grants).Error
	if err != nil {
		return 0, err
	}

	var drawn int64
	for _, grant := range grants {
		if drawn >= words {
			break
		}
		available := grant.WordsGranted - grant.WordsUsed
		take := words - drawn
		if take > available {
			take = available
		}
		res := tx.WithContext(ctx).Exec(
			`UPDATE credit_grants
			 SET words_used = words_used + ?
			 WHERE id = ? AND words_used = ?`,
			take, grant.ID, grant.WordsUsed,
		)
		if res.Error != nil {
			return drawn, res.Error
		}
		// A concurrent consumer touched this grant first; skip it and let
		// the next grant absorb the remainder.
		if res.RowsAffected == 0 {
			continue
		}
		drawn += take
	}
	return drawn, nil
}
