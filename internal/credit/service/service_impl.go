package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shuddhilabs/shuddhi/internal/clock"
	"github.com/shuddhilabs/shuddhi/internal/config"
	"github.com/shuddhilabs/shuddhi/internal/credit/domain"
	"github.com/shuddhilabs/shuddhi/internal/observability/metrics"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	DB      *gorm.DB
	Config  config.Config
	Clock   clock.Clock
	Node    *snowflake.Node
	Repo    domain.Repository
	Metrics *metrics.Metrics
}

type service struct {
	log     *zap.Logger
	db      *gorm.DB
	cfg     config.Config
	clock   clock.Clock
	node    *snowflake.Node
	repo    domain.Repository
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &service{
		log:     p.Log.Named("credit.service"),
		db:      p.DB,
		cfg:     p.Config,
		clock:   p.Clock,
		node:    p.Node,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *service) GrantForOrder(ctx context.Context, tx *gorm.DB, userID string, orderID snowflake.ID, words int64) (*domain.CreditGrant, bool, error) {
	now := s.clock.Now()
	expiresAt := now.AddDate(0, 0, s.cfg.PurchaseCreditExpiryDays)
	grant := &domain.CreditGrant{
		ID:            s.node.Generate(),
		UserID:        userID,
		WordsGranted:  words,
		SourceType:    domain.GrantSourceOrder,
		SourceOrderID: &orderID,
		ExpiresAt:     &expiresAt,
		CreatedAt:     now,
	}
	return s.insert(ctx, tx, grant)
}

func (s *service) GrantForCharge(ctx context.Context, tx *gorm.DB, userID string, chargeID snowflake.ID, words int64, periodEnd *time.Time) (*domain.CreditGrant, bool, error) {
	grant := &domain.CreditGrant{
		ID:             s.node.Generate(),
		UserID:         userID,
		WordsGranted:   words,
		SourceType:     domain.GrantSourceCharge,
		SourceChargeID: &chargeID,
		ExpiresAt:      periodEnd,
		CreatedAt:      s.clock.Now(),
	}
	return s.insert(ctx, tx, grant)
}

func (s *service) GrantForActivation(ctx context.Context, tx *gorm.DB, userID string, subscriptionID snowflake.ID, words int64, periodEnd *time.Time) (*domain.CreditGrant, bool, error) {
	grant := &domain.CreditGrant{
		ID:                   s.node.Generate(),
		UserID:               userID,
		WordsGranted:         words,
		SourceType:           domain.GrantSourceActivation,
		SourceSubscriptionID: &subscriptionID,
		ExpiresAt:            periodEnd,
		CreatedAt:            s.clock.Now(),
	}
	return s.insert(ctx, tx, grant)
}

func (s *service) insert(ctx context.Context, tx *gorm.DB, grant *domain.CreditGrant) (*domain.CreditGrant, bool, error) {
	inserted, err := s.repo.Insert(ctx, tx, grant)
	if err != nil {
		return nil, false, err
	}
	if !inserted {
		s.log.Info("credit grant already recorded for source",
			zap.String("user_id", grant.UserID),
			zap.String("source_type", string(grant.SourceType)),
		)
		return nil, false, nil
	}
	s.metrics.RecordCreditGrant(string(grant.SourceType))
	return grant, true, nil
}

func (s *service) Balance(ctx context.Context, userID string) (*domain.Balance, error) {
	return s.repo.SumBalance(ctx, s.db, userID, s.clock.Now())
}

func (s *service) Consume(ctx context.Context, userID string, words int64) error {
	now := s.clock.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		balance, err := s.repo.SumBalance(ctx, tx, userID, now)
		if err != nil {
			return err
		}
		if balance.WordsRemaining < words {
			return domain.ErrInsufficientCredits
		}
		drawn, err := s.repo.ConsumeOldest(ctx, tx, userID, words, now)
		if err != nil {
			return err
		}
		if drawn < words {
			return domain.ErrInsufficientCredits
		}
		return nil
	})
}

func (s *service) List(ctx context.Context, userID string, limit int) ([]domain.CreditGrant, error) {
	return s.repo.ListByUser(ctx, s.db, userID, limit)
}
