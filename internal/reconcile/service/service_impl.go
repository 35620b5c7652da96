package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shuddhilabs/shuddhi/internal/clock"
	creditdomain "github.com/shuddhilabs/shuddhi/internal/credit/domain"
	entdomain "github.com/shuddhilabs/shuddhi/internal/entitlement/domain"
	gatewaydomain "github.com/shuddhilabs/shuddhi/internal/gateway/domain"
	"github.com/shuddhilabs/shuddhi/internal/observability/metrics"
	orderdomain "github.com/shuddhilabs/shuddhi/internal/order/domain"
	plandomain "github.com/shuddhilabs/shuddhi/internal/plan/domain"
	"github.com/shuddhilabs/shuddhi/internal/reconcile/domain"
	subdomain "github.com/shuddhilabs/shuddhi/internal/subscription/domain"
	txndomain "github.com/shuddhilabs/shuddhi/internal/transaction/domain"
)

type Params struct {
	fx.In

	Log          *zap.Logger
	DB           *gorm.DB
	Clock        clock.Clock
	Node         *snowflake.Node
	Gateway      gatewaydomain.Client
	Plans        plandomain.Repository
	Orders       orderdomain.Repository
	Subs         subdomain.Repository
	Mandates     subdomain.MandateRepository
	Charges      subdomain.ChargeRepository
	Credits      creditdomain.Service
	Entitlements entdomain.Repository
	Transactions txndomain.Repository
	Metrics      *metrics.Metrics
}

type service struct {
	log          *zap.Logger
	db           *gorm.DB
	clock        clock.Clock
	node         *snowflake.Node
	gateway      gatewaydomain.Client
	plans        plandomain.Repository
	orders       orderdomain.Repository
	subs         subdomain.Repository
	mandates     subdomain.MandateRepository
	charges      subdomain.ChargeRepository
	credits      creditdomain.Service
	entitlements entdomain.Repository
	transactions txndomain.Repository
	metrics      *metrics.Metrics
}

func New(p Params) domain.Service {
	return &service{
		log:          p.Log.Named("reconcile.service"),
		db:           p.DB,
		clock:        p.Clock,
		node:         p.Node,
		gateway:      p.Gateway,
		plans:        p.Plans,
		orders:       p.Orders,
		subs:         p.Subs,
		mandates:     p.Mandates,
		charges:      p.Charges,
		credits:      p.Credits,
		entitlements: p.Entitlements,
		transactions: p.Transactions,
		metrics:      p.Metrics,
	}
}

func (s *service) ApplyEvent(ctx context.Context, event domain.GatewayEvent) (*domain.Transition, error) {
	switch event.Type {
	case domain.EventPaymentCaptured:
		return s.applyPaymentCaptured(ctx, event)
	case domain.EventPaymentFailed:
		return s.applyPaymentFailed(ctx, event)
	case domain.EventSubscriptionActivated:
		return s.applySubscriptionActivated(ctx, event)
	case domain.EventSubscriptionCharged, domain.EventInvoicePaid:
		return s.applySubscriptionCharged(ctx, event)
	case domain.EventSubscriptionHalted:
		return s.applyLifecycle(ctx, event, subdomain.SubscriptionStatusHalted, subdomain.MandateStatusPaused)
	case domain.EventSubscriptionCancelled:
		return s.applyLifecycle(ctx, event, subdomain.SubscriptionStatusCancelled, subdomain.MandateStatusRevoked)
	case domain.EventSubscriptionCompleted:
		return s.applyLifecycle(ctx, event, subdomain.SubscriptionStatusCompleted, subdomain.MandateStatusExhausted)
	default:
		return &domain.Transition{Description: fmt.Sprintf("ignored event type %q", event.Type)}, nil
	}
}

// applyPaymentCaptured settles a one-time order. The created→paid flip is a
// compare-and-swap, so concurrent deliveries of the same capture agree on a
// single winner; the loser reports already-processed.
func (s *service) applyPaymentCaptured(ctx context.Context, event domain.GatewayEvent) (*domain.Transition, error) {
	order, err := s.orders.FindByGatewayOrderID(ctx, s.db, event.GatewayOrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		s.log.Error("capture for unknown order",
			zap.String("gateway_order_id", event.GatewayOrderID),
			zap.String("payment_id", event.PaymentID),
		)
		return nil, domain.ErrUnknownOrder
	}

	now := s.clock.Now()
	var transition *domain.Transition
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		flipped, err := s.orders.MarkPaid(ctx, tx, order.ID, now)
		if err != nil {
			return err
		}
		if !flipped {
			transition = &domain.Transition{
				AlreadyProcessed: true,
				Description:      fmt.Sprintf("order %s already settled", order.ID),
			}
			return nil
		}

		if _, _, err := s.credits.GrantForOrder(ctx, tx, order.UserID, order.ID, order.WordsToCredit); err != nil {
			return err
		}
		plan, err := s.plans.FindByID(ctx, tx, order.WordPlanID)
		if err != nil {
			return err
		}
		if plan != nil {
			if err := s.upsertEntitlement(ctx, tx, order.UserID, plan, &order.ID, nil, nil); err != nil {
				return err
			}
		}
		orderID := order.ID
		if err := s.transactions.Insert(ctx, tx, &txndomain.PaymentTransaction{
			ID:               s.node.Generate(),
			UserID:           order.UserID,
			GatewayPaymentID: event.PaymentID,
			OrderID:          &orderID,
			AmountPaise:      order.AmountPaise,
			Currency:         order.Currency,
			Kind:             txndomain.TransactionKindPurchase,
			CreatedAt:        now,
		}); err != nil {
			return err
		}

		transition = &domain.Transition{
			Applied:     true,
			Description: fmt.Sprintf("order %s settled, %d words credited", order.ID, order.WordsToCredit),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if transition.Applied {
		s.log.Info("order settled",
			zap.String("user_id", order.UserID),
			zap.String("gateway_order_id", event.GatewayOrderID),
			zap.String("payment_id", event.PaymentID),
			zap.Int64("words", order.WordsToCredit),
		)
	}
	return transition, nil
}

func (s *service) applyPaymentFailed(ctx context.Context, event domain.GatewayEvent) (*domain.Transition, error) {
	// Failures carry no ledger change; the order stays in `created` and the
	// user can retry. Logged for support visibility.
	s.log.Warn("payment failed",
		zap.String("gateway_order_id", event.GatewayOrderID),
		zap.String("payment_id", event.PaymentID),
		zap.String("method", event.Method),
	)
	return &domain.Transition{Description: "payment failure recorded"}, nil
}

// applySubscriptionActivated confirms the mandate and grants the first
// cycle's words. The activation grant is unique per subscription, so the
// grant outcome doubles as the replay detector.
func (s *service) applySubscriptionActivated(ctx context.Context, event domain.GatewayEvent) (*domain.Transition, error) {
	sub, plan, mandate, err := s.lookupSubscription(ctx, event.GatewaySubscriptionID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	remaining := event.RemainingCount
	if remaining <= 0 {
		remaining = sub.TotalCycles
	}

	var transition *domain.Transition
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, granted, err := s.credits.GrantForActivation(ctx, tx, sub.UserID, sub.ID, plan.Words, event.CurrentPeriodEnd)
		if err != nil {
			return err
		}
		if !granted {
			transition = &domain.Transition{
				AlreadyProcessed: true,
				Description:      fmt.Sprintf("subscription %s already activated", sub.ID),
			}
			return nil
		}

		if err := s.subs.UpdateStatus(ctx, tx, sub.ID, subdomain.SubscriptionStatusActive, now); err != nil {
			return err
		}
		if err := s.subs.SetNextBilling(ctx, tx, sub.ID, event.NextChargeAt, now); err != nil {
			return err
		}
		if mandate != nil {
			if err := s.mandates.Confirm(ctx, tx, mandate.ID, remaining, event.CurrentPeriodStart, event.CurrentPeriodEnd, now); err != nil {
				return err
			}
		}
		subID := sub.ID
		if err := s.upsertEntitlement(ctx, tx, sub.UserID, plan, nil, &subID, event.CurrentPeriodEnd); err != nil {
			return err
		}

		transition = &domain.Transition{
			Applied:     true,
			Description: fmt.Sprintf("subscription %s activated, %d words credited", sub.ID, plan.Words),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if transition.Applied {
		s.log.Info("subscription activated",
			zap.String("user_id", sub.UserID),
			zap.String("gateway_subscription_id", event.GatewaySubscriptionID),
			zap.Int("remaining_count", remaining),
		)
	}
	return transition, nil
}

// applySubscriptionCharged settles one recurring debit. The charge row's
// unique payment id gates everything downstream: if the insert is a no-op
// the counters, credits and audit rows are left untouched.
func (s *service) applySubscriptionCharged(ctx context.Context, event domain.GatewayEvent) (*domain.Transition, error) {
	sub, plan, mandate, err := s.lookupSubscription(ctx, event.GatewaySubscriptionID)
	if err != nil {
		return nil, err
	}
	if mandate == nil {
		return nil, subdomain.ErrMandateNotFound
	}

	now := s.clock.Now()
	paidAt := event.OccurredAt
	if paidAt.IsZero() {
		paidAt = now
	}

	// Some deliveries (invoice.paid in particular) omit charge_at. The
	// cadence still has to advance, so fall back to adding one billing
	// period to the mandate's current schedule.
	nextChargeAt := event.NextChargeAt
	if nextChargeAt == nil {
		base := paidAt
		if mandate.NextChargeAt != nil {
			base = *mandate.NextChargeAt
		}
		next := advanceBillingPeriod(base, sub.BillingPeriod, sub.BillingInterval)
		nextChargeAt = &next
	}

	var transition *domain.Transition
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		charge := &subdomain.Charge{
			ID:               s.node.Generate(),
			MandateID:        mandate.ID,
			UserID:           sub.UserID,
			GatewayPaymentID: event.PaymentID,
			AmountPaise:      event.AmountPaise,
			Status:           subdomain.ChargeStatusCaptured,
			ChargedAt:        paidAt,
			PaidAt:           &paidAt,
			CreatedAt:        now,
		}
		inserted, err := s.charges.Insert(ctx, tx, charge)
		if err != nil {
			return err
		}
		if !inserted {
			transition = &domain.Transition{
				AlreadyProcessed: true,
				Description:      fmt.Sprintf("charge %s already recorded", event.PaymentID),
			}
			return nil
		}

		if err := s.mandates.RecordCharge(ctx, tx, mandate.ID, nextChargeAt, event.CurrentPeriodStart, event.CurrentPeriodEnd, now); err != nil {
			return err
		}
		if err := s.subs.SetNextBilling(ctx, tx, sub.ID, nextChargeAt, now); err != nil {
			return err
		}
		if _, _, err := s.credits.GrantForCharge(ctx, tx, sub.UserID, charge.ID, plan.Words, event.CurrentPeriodEnd); err != nil {
			return err
		}
		subID := sub.ID
		if err := s.upsertEntitlement(ctx, tx, sub.UserID, plan, nil, &subID, event.CurrentPeriodEnd); err != nil {
			return err
		}
		chargeID := charge.ID
		if err := s.transactions.Insert(ctx, tx, &txndomain.PaymentTransaction{
			ID:               s.node.Generate(),
			UserID:           sub.UserID,
			GatewayPaymentID: event.PaymentID,
			ChargeID:         &chargeID,
			AmountPaise:      event.AmountPaise,
			Currency:         plan.Currency,
			Kind:             txndomain.TransactionKindRecurringCharge,
			CreatedAt:        now,
		}); err != nil {
			return err
		}

		transition = &domain.Transition{
			Applied:     true,
			Description: fmt.Sprintf("charge %s settled, %d words credited", event.PaymentID, plan.Words),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if transition.Applied {
		s.log.Info("recurring charge settled",
			zap.String("user_id", sub.UserID),
			zap.String("gateway_subscription_id", event.GatewaySubscriptionID),
			zap.String("payment_id", event.PaymentID),
		)
	}
	return transition, nil
}

func (s *service) applyLifecycle(ctx context.Context, event domain.GatewayEvent, subStatus subdomain.SubscriptionStatus, mandateStatus subdomain.MandateStatus) (*domain.Transition, error) {
	sub, _, mandate, err := s.lookupSubscription(ctx, event.GatewaySubscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.Status == subStatus {
		return &domain.Transition{
			AlreadyProcessed: true,
			Description:      fmt.Sprintf("subscription %s already %s", sub.ID, subStatus),
		}, nil
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if subStatus == subdomain.SubscriptionStatusCancelled {
			if err := s.subs.SetCancelled(ctx, tx, sub.ID, false, now); err != nil {
				return err
			}
		} else {
			if err := s.subs.UpdateStatus(ctx, tx, sub.ID, subStatus, now); err != nil {
				return err
			}
		}
		if mandate != nil {
			return s.mandates.UpdateStatus(ctx, tx, mandate.ID, mandateStatus, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("subscription transitioned",
		zap.String("user_id", sub.UserID),
		zap.String("gateway_subscription_id", event.GatewaySubscriptionID),
		zap.String("from", string(sub.Status)),
		zap.String("to", string(subStatus)),
	)
	return &domain.Transition{
		Applied:     true,
		Description: fmt.Sprintf("subscription %s moved %s -> %s", sub.ID, sub.Status, subStatus),
	}, nil
}

// RecoverOrder settles a stuck order out of band. The gateway is the source
// of truth: the capture is verified (or discovered) there first, then the
// exact payment.captured path runs, so recovery can never do more than a
// webhook delivery would have.
func (s *service) RecoverOrder(ctx context.Context, req domain.RecoveryRequest) (*domain.Transition, error) {
	order, err := s.resolveOrder(ctx, req)
	if err != nil {
		return nil, err
	}
	if order.Status == orderdomain.OrderStatusPaid {
		s.metrics.RecordRecoveryRun("already_processed")
		return &domain.Transition{
			AlreadyProcessed: true,
			Description:      fmt.Sprintf("order %s already settled", order.ID),
		}, nil
	}

	payment, err := s.verifiedCapture(ctx, order, req.PaymentID)
	if err != nil {
		s.metrics.RecordRecoveryRun("not_captured")
		return nil, err
	}

	s.log.Info("manual recovery verified capture",
		zap.String("operator", req.Operator),
		zap.String("order_id", order.ID.String()),
		zap.String("payment_id", payment.ID),
	)

	transition, err := s.applyPaymentCaptured(ctx, domain.GatewayEvent{
		Type:           domain.EventPaymentCaptured,
		PaymentID:      payment.ID,
		GatewayOrderID: order.GatewayOrderID,
		AmountPaise:    payment.AmountPaise,
		Method:         payment.Method,
		Email:          payment.Email,
		Contact:        payment.Contact,
		OccurredAt:     s.clock.Now(),
	})
	if err != nil {
		s.metrics.RecordRecoveryRun("error")
		return nil, err
	}
	if transition.AlreadyProcessed {
		s.metrics.RecordRecoveryRun("already_processed")
	} else {
		s.metrics.RecordRecoveryRun("applied")
	}
	return transition, nil
}

func (s *service) resolveOrder(ctx context.Context, req domain.RecoveryRequest) (*orderdomain.Order, error) {
	var (
		order *orderdomain.Order
		err   error
	)
	switch {
	case req.OrderID != 0:
		order, err = s.orders.FindByID(ctx, s.db, req.OrderID)
	case req.GatewayOrderID != "":
		order, err = s.orders.FindByGatewayOrderID(ctx, s.db, req.GatewayOrderID)
	default:
		return nil, orderdomain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, orderdomain.ErrOrderNotFound
	}
	return order, nil
}

func (s *service) verifiedCapture(ctx context.Context, order *orderdomain.Order, paymentID string) (*gatewaydomain.Payment, error) {
	if paymentID != "" {
		payment, err := s.gateway.FetchPayment(ctx, paymentID)
		if err != nil {
			return nil, err
		}
		if payment.OrderID != order.GatewayOrderID {
			return nil, domain.ErrPaymentMismatch
		}
		if !payment.Captured {
			return nil, domain.ErrPaymentNotCaptured
		}
		return payment, nil
	}

	payments, err := s.gateway.FetchPaymentsForOrder(ctx, order.GatewayOrderID)
	if err != nil {
		return nil, err
	}
	for i := range payments {
		if payments[i].Captured {
			return &payments[i], nil
		}
	}
	return nil, domain.ErrPaymentNotCaptured
}

func (s *service) lookupSubscription(ctx context.Context, gatewaySubscriptionID string) (*subdomain.Subscription, *plandomain.WordPlan, *subdomain.Mandate, error) {
	sub, err := s.subs.FindByGatewaySubscriptionID(ctx, s.db, gatewaySubscriptionID)
	if err != nil {
		return nil, nil, nil, err
	}
	if sub == nil {
		s.log.Error("event for unknown subscription",
			zap.String("gateway_subscription_id", gatewaySubscriptionID),
		)
		return nil, nil, nil, domain.ErrUnknownSubscription
	}
	plan, err := s.plans.FindByID(ctx, s.db, sub.WordPlanID)
	if err != nil {
		return nil, nil, nil, err
	}
	if plan == nil {
		return nil, nil, nil, plandomain.ErrPlanNotFound
	}
	mandate, err := s.mandates.FindBySubscriptionID(ctx, s.db, sub.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	return sub, plan, mandate, nil
}

func (s *service) upsertEntitlement(ctx context.Context, tx *gorm.DB, userID string, plan *plandomain.WordPlan, orderID, subID *snowflake.ID, expiresAt *time.Time) error {
	now := s.clock.Now()
	return s.entitlements.Upsert(ctx, tx, &entdomain.UserPlan{
		ID:             s.node.Generate(),
		UserID:         userID,
		WordPlanID:     plan.ID,
		PlanType:       plan.Type,
		SourceOrderID:  orderID,
		SubscriptionID: subID,
		ActivatedAt:    now,
		ExpiresAt:      expiresAt,
		UpdatedAt:      now,
	})
}

func advanceBillingPeriod(from time.Time, period string, interval int) time.Time {
	if interval < 1 {
		interval = 1
	}
	switch period {
	case "daily":
		return from.AddDate(0, 0, interval)
	case "weekly":
		return from.AddDate(0, 0, 7*interval)
	case "yearly":
		return from.AddDate(interval, 0, 0)
	default:
		// monthly is the catalog default.
		return from.AddDate(0, interval, 0)
	}
}
