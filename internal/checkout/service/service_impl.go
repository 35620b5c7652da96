package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shuddhilabs/shuddhi/internal/checkout/domain"
	"github.com/shuddhilabs/shuddhi/internal/clock"
	"github.com/shuddhilabs/shuddhi/internal/config"
	gatewaydomain "github.com/shuddhilabs/shuddhi/internal/gateway/domain"
	"github.com/shuddhilabs/shuddhi/internal/observability/metrics"
	orderdomain "github.com/shuddhilabs/shuddhi/internal/order/domain"
	plandomain "github.com/shuddhilabs/shuddhi/internal/plan/domain"
	subdomain "github.com/shuddhilabs/shuddhi/internal/subscription/domain"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	DB       *gorm.DB
	Config   config.Config
	Clock    clock.Clock
	Node     *snowflake.Node
	Gateway  gatewaydomain.Client
	Plans    plandomain.Repository
	Orders   orderdomain.Repository
	Subs     subdomain.Repository
	Mandates subdomain.MandateRepository
	Metrics  *metrics.Metrics
}

type service struct {
	log      *zap.Logger
	db       *gorm.DB
	cfg      config.Config
	clock    clock.Clock
	node     *snowflake.Node
	gateway  gatewaydomain.Client
	plans    plandomain.Repository
	orders   orderdomain.Repository
	subs     subdomain.Repository
	mandates subdomain.MandateRepository
	metrics  *metrics.Metrics
}

func New(p Params) domain.Service {
	return &service{
		log:      p.Log.Named("checkout.service"),
		db:       p.DB,
		cfg:      p.Config,
		clock:    p.Clock,
		node:     p.Node,
		gateway:  p.Gateway,
		plans:    p.Plans,
		orders:   p.Orders,
		subs:     p.Subs,
		mandates: p.Mandates,
		metrics:  p.Metrics,
	}
}

func (s *service) CreateOrder(ctx context.Context, req domain.OrderCheckoutRequest) (*domain.OrderCheckoutResponse, error) {
	plan, err := s.lookupPlan(ctx, req.WordPlanID)
	if err != nil {
		return nil, err
	}
	if plan.Type != plandomain.PlanTypeOneTime {
		return nil, domain.ErrPlanNotPurchasable
	}

	payable := domain.Payable(plan.PricePaise, s.cfg.TaxRateBps)
	id := s.node.Generate()
	receipt := fmt.Sprintf("rcpt_%s", id)

	gwOrder, err := s.gateway.CreateOrder(ctx, payable, plan.Currency, receipt, map[string]interface{}{
		"user_id":      req.UserID,
		"word_plan_id": plan.ID.String(),
	})
	if err != nil {
		s.metrics.RecordCheckoutAttempt("order", "gateway_error")
		return nil, err
	}

	now := s.clock.Now()
	order := &orderdomain.Order{
		ID:             id,
		UserID:         req.UserID,
		WordPlanID:     plan.ID,
		GatewayOrderID: gwOrder.ID,
		AmountPaise:    payable,
		Currency:       plan.Currency,
		Status:         orderdomain.OrderStatusCreated,
		WordsToCredit:  plan.Words,
		Receipt:        receipt,
		CustomerName:   req.Customer.Name,
		CustomerEmail:  req.Customer.Email,
		CustomerPhone:  req.Customer.Phone,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.orders.Insert(ctx, s.db, order); err != nil {
		s.metrics.RecordCheckoutAttempt("order", "store_error")
		return nil, err
	}

	s.metrics.RecordCheckoutAttempt("order", "ok")
	s.log.Info("checkout order created",
		zap.String("user_id", req.UserID),
		zap.String("gateway_order_id", gwOrder.ID),
		zap.Int64("amount_paise", payable),
	)
	return &domain.OrderCheckoutResponse{
		OrderID:        order.ID,
		GatewayOrderID: gwOrder.ID,
		KeyID:          s.cfg.RazorpayKeyID,
		AmountPaise:    payable,
		Currency:       plan.Currency,
	}, nil
}

func (s *service) CreateSubscription(ctx context.Context, req domain.SubscriptionCheckoutRequest) (*domain.SubscriptionCheckoutResponse, error) {
	plan, err := s.lookupPlan(ctx, req.WordPlanID)
	if err != nil {
		return nil, err
	}
	if !plan.Recurring() {
		return nil, domain.ErrPlanNotRecurring
	}

	payable := domain.Payable(plan.PricePaise, s.cfg.TaxRateBps)
	period := strDeref(plan.BillingPeriod, "monthly")
	interval := intDeref(plan.BillingInterval, 1)

	customer, err := s.gateway.FindOrCreateCustomer(ctx, req.Customer.Name, req.Customer.Email, req.Customer.Phone)
	if err != nil {
		s.metrics.RecordCheckoutAttempt("subscription", "gateway_error")
		return nil, err
	}

	gwPlan, err := s.gateway.FindOrCreatePlan(ctx, gatewaydomain.PlanSpec{
		ItemName:    plan.Name,
		AmountPaise: payable,
		Currency:    plan.Currency,
		Period:      period,
		Interval:    interval,
	})
	if err != nil {
		s.metrics.RecordCheckoutAttempt("subscription", "gateway_error")
		return nil, err
	}

	totalCycles := intDeref(plan.TotalCycles, 0)
	if totalCycles <= 0 {
		totalCycles = s.cfg.SubscriptionTotalCycles
	}
	now := s.clock.Now()
	// A start in the near future keeps the first debit out of the
	// authorization transaction, matching the UPI autopay flow.
	startAt := now.Add(time.Duration(s.cfg.SubscriptionStartDelayMinutes) * time.Minute)

	gwSub, err := s.gateway.CreateSubscription(ctx, gatewaydomain.SubscriptionSpec{
		PlanID:     gwPlan.ID,
		CustomerID: customer.ID,
		TotalCount: totalCycles,
		StartAt:    startAt,
		Notes: map[string]interface{}{
			"user_id":      req.UserID,
			"word_plan_id": plan.ID.String(),
		},
	})
	if err != nil {
		s.metrics.RecordCheckoutAttempt("subscription", "gateway_error")
		return nil, err
	}

	sub := &subdomain.Subscription{
		ID:                    s.node.Generate(),
		UserID:                req.UserID,
		WordPlanID:            plan.ID,
		GatewaySubscriptionID: gwSub.ID,
		GatewayCustomerID:     customer.ID,
		GatewayPlanID:         gwPlan.ID,
		Status:                subdomain.SubscriptionStatusCreated,
		AutoRenew:             true,
		BillingPeriod:         period,
		BillingInterval:       interval,
		TotalCycles:           totalCycles,
		NextBillingAt:         &startAt,
		ShortURL:              gwSub.ShortURL,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	mandate := &subdomain.Mandate{
		ID:             s.node.Generate(),
		SubscriptionID: sub.ID,
		GatewayPlanID:  gwPlan.ID,
		Status:         subdomain.MandateStatusPending,
		MaxAmountPaise: payable,
		RemainingCount: totalCycles,
		NextChargeAt:   &startAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.supersedeActive(ctx, tx, req.UserID, now); err != nil {
			return err
		}
		if err := s.subs.Insert(ctx, tx, sub); err != nil {
			return err
		}
		return s.mandates.Insert(ctx, tx, mandate)
	})
	if err != nil {
		s.metrics.RecordCheckoutAttempt("subscription", "store_error")
		return nil, err
	}

	s.metrics.RecordCheckoutAttempt("subscription", "ok")
	s.log.Info("checkout subscription created",
		zap.String("user_id", req.UserID),
		zap.String("gateway_subscription_id", gwSub.ID),
		zap.Int("total_cycles", totalCycles),
	)
	return &domain.SubscriptionCheckoutResponse{
		SubscriptionID:        sub.ID,
		GatewaySubscriptionID: gwSub.ID,
		KeyID:                 s.cfg.RazorpayKeyID,
		ShortURL:              gwSub.ShortURL,
		AmountPaise:           payable,
	}, nil
}

// supersedeActive cancels every live subscription the user already has, so
// that at most one mandate can ever debit them.
func (s *service) supersedeActive(ctx context.Context, tx *gorm.DB, userID string, now time.Time) error {
	active, err := s.subs.FindActiveByUser(ctx, tx, userID)
	if err != nil {
		return err
	}
	for _, old := range active {
		if err := s.subs.SetCancelled(ctx, tx, old.ID, false, now); err != nil {
			return err
		}
		mandate, err := s.mandates.FindBySubscriptionID(ctx, tx, old.ID)
		if err != nil {
			return err
		}
		if mandate == nil {
			continue
		}
		if err := s.mandates.UpdateStatus(ctx, tx, mandate.ID, subdomain.MandateStatusRevoked, now); err != nil {
			return err
		}
		s.log.Info("superseded subscription",
			zap.String("user_id", userID),
			zap.String("gateway_subscription_id", old.GatewaySubscriptionID),
		)
	}
	return nil
}

func (s *service) lookupPlan(ctx context.Context, id snowflake.ID) (*plandomain.WordPlan, error) {
	plan, err := s.plans.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, plandomain.ErrPlanNotFound
	}
	if !plan.IsActive {
		return nil, plandomain.ErrPlanInactive
	}
	return plan, nil
}

func strDeref(v *string, def string) string {
	if v == nil || *v == "" {
		return def
	}
	return *v
}

func intDeref(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
