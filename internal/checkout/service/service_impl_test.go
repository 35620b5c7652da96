package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shuddhilabs/shuddhi/internal/checkout/domain"
	checkoutservice "github.com/shuddhilabs/shuddhi/internal/checkout/service"
	"github.com/shuddhilabs/shuddhi/internal/clock"
	"github.com/shuddhilabs/shuddhi/internal/config"
	gatewaydomain "github.com/shuddhilabs/shuddhi/internal/gateway/domain"
	"github.com/shuddhilabs/shuddhi/internal/gateway/gatewaytest"
	orderdomain "github.com/shuddhilabs/shuddhi/internal/order/domain"
	orderrepo "github.com/shuddhilabs/shuddhi/internal/order/repository"
	plandomain "github.com/shuddhilabs/shuddhi/internal/plan/domain"
	planrepo "github.com/shuddhilabs/shuddhi/internal/plan/repository"
	subdomain "github.com/shuddhilabs/shuddhi/internal/subscription/domain"
	subrepo "github.com/shuddhilabs/shuddhi/internal/subscription/repository"
)

type checkoutHarness struct {
	db       *gorm.DB
	node     *snowflake.Node
	clk      *clock.FakeClock
	gateway  *gatewaytest.Fake
	svc      domain.Service
	plans    plandomain.Repository
	orders   orderdomain.Repository
	subs     subdomain.Repository
	mandates subdomain.MandateRepository
}

func newCheckoutHarness(t *testing.T) *checkoutHarness {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	gw := gatewaytest.New()

	plans := planrepo.Provide()
	orders := orderrepo.Provide()
	subs := subrepo.Provide()
	mandates := subrepo.ProvideMandate()

	svc := checkoutservice.New(checkoutservice.Params{
		Log: zap.NewNop(),
		DB:  db,
		Config: config.Config{
			RazorpayKeyID:                 "rzp_test_key",
			TaxRateBps:                    1800,
			SubscriptionStartDelayMinutes: 10,
			SubscriptionTotalCycles:       120,
		},
		Clock:    clk,
		Node:     node,
		Gateway:  gw,
		Plans:    plans,
		Orders:   orders,
		Subs:     subs,
		Mandates: mandates,
	})

	return &checkoutHarness{
		db:       db,
		node:     node,
		clk:      clk,
		gateway:  gw,
		svc:      svc,
		plans:    plans,
		orders:   orders,
		subs:     subs,
		mandates: mandates,
	}
}

func (h *checkoutHarness) seedPlan(t *testing.T, planType plandomain.PlanType, pricePaise, words int64, active bool) *plandomain.WordPlan {
	t.Helper()

	now := h.clk.Now()
	plan := &plandomain.WordPlan{
		ID:         h.node.Generate(),
		Code:       fmt.Sprintf("plan-%s", h.node.Generate()),
		Name:       "Test Plan",
		Type:       planType,
		PricePaise: pricePaise,
		Currency:   "INR",
		Words:      words,
		IsActive:   active,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if planType == plandomain.PlanTypeSubscription {
		period := "monthly"
		interval := 1
		cycles := 120
		plan.BillingPeriod = &period
		plan.BillingInterval = &interval
		plan.TotalCycles = &cycles
	}
	if err := h.plans.Insert(context.Background(), h.db, plan); err != nil {
		t.Fatalf("seed plan: %v", err)
	}
	return plan
}

func customer() domain.CustomerInfo {
	return domain.CustomerInfo{
		Name:  "Asha Sharma",
		Email: "asha@example.com",
		Phone: "+919999999999",
	}
}

func TestCreateOrderAppliesTax(t *testing.T) {
	ctx := context.Background()
	h := newCheckoutHarness(t)
	plan := h.seedPlan(t, plandomain.PlanTypeOneTime, 99_900, 10_000, true)

	resp, err := h.svc.CreateOrder(ctx, domain.OrderCheckoutRequest{
		UserID:     "user_1",
		WordPlanID: plan.ID,
		Customer:   customer(),
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if resp.AmountPaise != 117_882 {
		t.Fatalf("amount = %d, want 117882 (99900 + 18%% gst)", resp.AmountPaise)
	}
	if resp.KeyID != "rzp_test_key" {
		t.Fatalf("key id = %s", resp.KeyID)
	}
	if resp.GatewayOrderID == "" {
		t.Fatal("gateway order id missing")
	}

	order, err := h.orders.FindByID(ctx, h.db, resp.OrderID)
	if err != nil {
		t.Fatalf("find order: %v", err)
	}
	if order == nil {
		t.Fatal("order row not written")
	}
	if order.Status != orderdomain.OrderStatusCreated {
		t.Fatalf("order status = %s, want created", order.Status)
	}
	if order.WordsToCredit != 10_000 {
		t.Fatalf("words_to_credit = %d, want 10000", order.WordsToCredit)
	}
	if order.AmountPaise != 117_882 {
		t.Fatalf("stored amount = %d, want 117882", order.AmountPaise)
	}

	if len(h.gateway.CreatedOrders) != 1 {
		t.Fatalf("gateway orders = %d, want 1", len(h.gateway.CreatedOrders))
	}
	if h.gateway.CreatedOrders[0].AmountPaise != 117_882 {
		t.Fatalf("gateway amount = %d, want tax-inclusive total", h.gateway.CreatedOrders[0].AmountPaise)
	}
}

func TestCreateOrderRejectsNonPurchasablePlans(t *testing.T) {
	ctx := context.Background()
	h := newCheckoutHarness(t)
	subPlan := h.seedPlan(t, plandomain.PlanTypeSubscription, 49_900, 25_000, true)
	inactive := h.seedPlan(t, plandomain.PlanTypeOneTime, 99_900, 10_000, false)

	_, err := h.svc.CreateOrder(ctx, domain.OrderCheckoutRequest{
		UserID:     "user_1",
		WordPlanID: subPlan.ID,
		Customer:   customer(),
	})
	if !errors.Is(err, domain.ErrPlanNotPurchasable) {
		t.Fatalf("err = %v, want ErrPlanNotPurchasable", err)
	}

	_, err = h.svc.CreateOrder(ctx, domain.OrderCheckoutRequest{
		UserID:     "user_1",
		WordPlanID: inactive.ID,
		Customer:   customer(),
	})
	if !errors.Is(err, plandomain.ErrPlanInactive) {
		t.Fatalf("err = %v, want ErrPlanInactive", err)
	}

	_, err = h.svc.CreateOrder(ctx, domain.OrderCheckoutRequest{
		UserID:     "user_1",
		WordPlanID: h.node.Generate(),
		Customer:   customer(),
	})
	if !errors.Is(err, plandomain.ErrPlanNotFound) {
		t.Fatalf("err = %v, want ErrPlanNotFound", err)
	}
}

func TestCreateOrderGatewayFailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	h := newCheckoutHarness(t)
	plan := h.seedPlan(t, plandomain.PlanTypeOneTime, 99_900, 10_000, true)
	h.gateway.OrderErr = &gatewaydomain.GatewayError{Op: "order.create", Description: "upstream down"}

	_, err := h.svc.CreateOrder(ctx, domain.OrderCheckoutRequest{
		UserID:     "user_1",
		WordPlanID: plan.ID,
		Customer:   customer(),
	})
	if err == nil {
		t.Fatal("expected gateway error")
	}
	var gwErr *gatewaydomain.GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("err = %v, want GatewayError", err)
	}

	var n int64
	if err := h.db.Raw("SELECT COUNT(*) FROM orders").Scan(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("orders = %d, gateway failure must not write rows", n)
	}
}

func TestCreateSubscriptionBuildsMandate(t *testing.T) {
	ctx := context.Background()
	h := newCheckoutHarness(t)
	plan := h.seedPlan(t, plandomain.PlanTypeSubscription, 49_900, 25_000, true)

	resp, err := h.svc.CreateSubscription(ctx, domain.SubscriptionCheckoutRequest{
		UserID:     "user_1",
		WordPlanID: plan.ID,
		Customer:   customer(),
	})
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	if resp.AmountPaise != 58_882 {
		t.Fatalf("amount = %d, want 58882", resp.AmountPaise)
	}
	if resp.ShortURL == "" {
		t.Fatal("short url missing")
	}

	sub, err := h.subs.FindByID(ctx, h.db, resp.SubscriptionID)
	if err != nil {
		t.Fatalf("find subscription: %v", err)
	}
	if sub == nil {
		t.Fatal("subscription row not written")
	}
	if sub.Status != subdomain.SubscriptionStatusCreated {
		t.Fatalf("subscription status = %s, want created", sub.Status)
	}
	if sub.TotalCycles != 120 {
		t.Fatalf("total_cycles = %d, want 120", sub.TotalCycles)
	}

	mandate, err := h.mandates.FindBySubscriptionID(ctx, h.db, sub.ID)
	if err != nil {
		t.Fatalf("find mandate: %v", err)
	}
	if mandate == nil {
		t.Fatal("mandate row not written")
	}
	if mandate.Status != subdomain.MandateStatusPending {
		t.Fatalf("mandate status = %s, want pending", mandate.Status)
	}
	if mandate.RemainingCount != 120 {
		t.Fatalf("remaining_count = %d, want 120", mandate.RemainingCount)
	}
	if mandate.MaxAmountPaise != 58_882 {
		t.Fatalf("max_amount_paise = %d, want tax-inclusive total", mandate.MaxAmountPaise)
	}

	wantStart := h.clk.Now().Add(10 * time.Minute)
	if mandate.NextChargeAt == nil || !mandate.NextChargeAt.Equal(wantStart) {
		t.Fatalf("next_charge_at = %v, want %s", mandate.NextChargeAt, wantStart)
	}
}

func TestCreateSubscriptionSupersedesActive(t *testing.T) {
	ctx := context.Background()
	h := newCheckoutHarness(t)
	plan := h.seedPlan(t, plandomain.PlanTypeSubscription, 49_900, 25_000, true)

	now := h.clk.Now()
	old := &subdomain.Subscription{
		ID:                    h.node.Generate(),
		UserID:                "user_1",
		WordPlanID:            plan.ID,
		GatewaySubscriptionID: "sub_gw_old",
		GatewayCustomerID:     "cust_old",
		GatewayPlanID:         "gwplan_old",
		Status:                subdomain.SubscriptionStatusActive,
		AutoRenew:             true,
		BillingPeriod:         "monthly",
		BillingInterval:       1,
		TotalCycles:           120,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := h.subs.Insert(ctx, h.db, old); err != nil {
		t.Fatalf("seed old subscription: %v", err)
	}
	oldMandate := &subdomain.Mandate{
		ID:             h.node.Generate(),
		SubscriptionID: old.ID,
		GatewayPlanID:  "gwplan_old",
		Status:         subdomain.MandateStatusConfirmed,
		MaxAmountPaise: 58_882,
		PaidCount:      3,
		RemainingCount: 117,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := h.mandates.Insert(ctx, h.db, oldMandate); err != nil {
		t.Fatalf("seed old mandate: %v", err)
	}

	resp, err := h.svc.CreateSubscription(ctx, domain.SubscriptionCheckoutRequest{
		UserID:     "user_1",
		WordPlanID: plan.ID,
		Customer:   customer(),
	})
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}

	gotOld, err := h.subs.FindByID(ctx, h.db, old.ID)
	if err != nil {
		t.Fatalf("find old subscription: %v", err)
	}
	if gotOld.Status != subdomain.SubscriptionStatusCancelled {
		t.Fatalf("old subscription status = %s, want cancelled", gotOld.Status)
	}
	if gotOld.AutoRenew {
		t.Fatal("old subscription still renewing")
	}

	gotOldMandate, err := h.mandates.FindBySubscriptionID(ctx, h.db, old.ID)
	if err != nil {
		t.Fatalf("find old mandate: %v", err)
	}
	if gotOldMandate.Status != subdomain.MandateStatusRevoked {
		t.Fatalf("old mandate status = %s, want revoked", gotOldMandate.Status)
	}

	gotNew, err := h.subs.FindByID(ctx, h.db, resp.SubscriptionID)
	if err != nil {
		t.Fatalf("find new subscription: %v", err)
	}
	if gotNew.Status != subdomain.SubscriptionStatusCreated {
		t.Fatalf("new subscription status = %s, want created", gotNew.Status)
	}
}

func TestCreateSubscriptionRejectsOneTimePlan(t *testing.T) {
	ctx := context.Background()
	h := newCheckoutHarness(t)
	plan := h.seedPlan(t, plandomain.PlanTypeOneTime, 99_900, 10_000, true)

	_, err := h.svc.CreateSubscription(ctx, domain.SubscriptionCheckoutRequest{
		UserID:     "user_1",
		WordPlanID: plan.ID,
		Customer:   customer(),
	})
	if !errors.Is(err, domain.ErrPlanNotRecurring) {
		t.Fatalf("err = %v, want ErrPlanNotRecurring", err)
	}
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE word_plans (
			id BIGINT PRIMARY KEY,
			code TEXT NOT NULL,
			name TEXT NOT NULL,
			plan_type TEXT NOT NULL,
			price_paise BIGINT NOT NULL,
			currency TEXT NOT NULL DEFAULT 'INR',
			words BIGINT NOT NULL,
			billing_period TEXT,
			billing_interval INT,
			total_cycles INT,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_word_plans_code ON word_plans (code)`,
		`CREATE TABLE orders (
			id BIGINT PRIMARY KEY,
			user_id TEXT NOT NULL,
			word_plan_id BIGINT NOT NULL,
			gateway_order_id TEXT NOT NULL,
			amount_paise BIGINT NOT NULL,
			currency TEXT NOT NULL,
			status TEXT NOT NULL,
			words_to_credit BIGINT NOT NULL,
			receipt TEXT NOT NULL,
			customer_name TEXT,
			customer_email TEXT,
			customer_phone TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			paid_at DATETIME
		)`,
		`CREATE UNIQUE INDEX ux_orders_gateway_order_id ON orders (gateway_order_id)`,
		`CREATE TABLE subscriptions (
			id BIGINT PRIMARY KEY,
			user_id TEXT NOT NULL,
			word_plan_id BIGINT NOT NULL,
			gateway_subscription_id TEXT NOT NULL,
			gateway_customer_id TEXT NOT NULL,
			gateway_plan_id TEXT NOT NULL,
			status TEXT NOT NULL,
			auto_renew BOOLEAN NOT NULL DEFAULT TRUE,
			billing_period TEXT NOT NULL,
			billing_interval INT NOT NULL,
			total_cycles INT NOT NULL,
			next_billing_at DATETIME,
			expires_at DATETIME,
			short_url TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_subscriptions_gateway_subscription_id ON subscriptions (gateway_subscription_id)`,
		`CREATE TABLE mandates (
			id BIGINT PRIMARY KEY,
			subscription_id BIGINT NOT NULL,
			gateway_plan_id TEXT NOT NULL,
			status TEXT NOT NULL,
			max_amount_paise BIGINT NOT NULL,
			paid_count INT NOT NULL DEFAULT 0,
			remaining_count INT NOT NULL DEFAULT 0,
			next_charge_at DATETIME,
			current_period_start DATETIME,
			current_period_end DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_mandates_subscription_id ON mandates (subscription_id)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}
