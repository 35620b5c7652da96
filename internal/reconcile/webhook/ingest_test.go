package webhook_test

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

	"github.com/shuddhilabs/shuddhi/internal/clock"
	"github.com/shuddhilabs/shuddhi/internal/config"
	"github.com/shuddhilabs/shuddhi/internal/reconcile/domain"
	reconcilerepo "github.com/shuddhilabs/shuddhi/internal/reconcile/repository"
	"github.com/shuddhilabs/shuddhi/internal/reconcile/webhook"
)

const testWebhookSecret = "whsec_ingest"

// stubReconciler records applications and returns scripted outcomes.
type stubReconciler struct {
	calls      int
	err        error
	failTimes  int
	transition domain.Transition
}

func (s *stubReconciler) ApplyEvent(ctx context.Context, event domain.GatewayEvent) (*domain.Transition, error) {
	s.calls++
	if s.err != nil && s.calls <= s.failTimes {
		return nil, s.err
	}
	tr := s.transition
	return &tr, nil
}

func (s *stubReconciler) RecoverOrder(ctx context.Context, req domain.RecoveryRequest) (*domain.Transition, error) {
	return nil, errors.New("not implemented")
}

func newIngest(t *testing.T, reconciler domain.Service) (*webhook.Ingest, *gorm.DB) {
	t.Helper()
	return newIngestWithSecret(t, reconciler, testWebhookSecret)
}

func newIngestWithSecret(t *testing.T, reconciler domain.Service, secret string) (*webhook.Ingest, *gorm.DB) {
	t.Helper()

	db := setupEventLogDB(t)
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	ingest := webhook.NewIngest(webhook.Params{
		Log:        zap.NewNop(),
		DB:         db,
		Config:     config.Config{RazorpayWebhookSecret: secret},
		Clock:      clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
		Node:       node,
		Events:     reconcilerepo.ProvideEvents(),
		Reconciler: reconciler,
	})
	return ingest, db
}

func capturedBody() []byte {
	return []byte(`{"event":"payment.captured","created_at":1767225600,"payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_1","amount":117882,"status":"captured"}}}}`)
}

func TestHandleRejectsBadSignature(t *testing.T) {
	stub := &stubReconciler{transition: domain.Transition{Applied: true}}
	ingest, db := newIngest(t, stub)

	body := capturedBody()
	_, err := ingest.Handle(context.Background(), body, "deadbeef", "evt_1")
	if !errors.Is(err, domain.ErrSignatureInvalid) {
		t.Fatalf("err = %v, want ErrSignatureInvalid", err)
	}
	if stub.calls != 0 {
		t.Fatalf("reconciler called %d times for unauthenticated delivery", stub.calls)
	}

	var n int64
	if err := db.Raw("SELECT COUNT(*) FROM webhook_events").Scan(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("unauthenticated delivery logged %d rows", n)
	}
}

func TestHandleProcessesWithoutConfiguredSecret(t *testing.T) {
	ctx := context.Background()
	stub := &stubReconciler{transition: domain.Transition{Applied: true}}
	ingest, db := newIngestWithSecret(t, stub, "")

	tr, err := ingest.Handle(ctx, capturedBody(), "", "evt_nosecret")
	if err != nil {
		t.Fatalf("delivery without configured secret: %v", err)
	}
	if !tr.Applied {
		t.Fatalf("expected applied, got %+v", tr)
	}
	if stub.calls != 1 {
		t.Fatalf("reconciler called %d times, want 1", stub.calls)
	}

	var n int64
	if err := db.Raw("SELECT COUNT(*) FROM webhook_events").Scan(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("webhook_events = %d, want 1", n)
	}
}

func TestHandleProcessesAndDeduplicates(t *testing.T) {
	ctx := context.Background()
	stub := &stubReconciler{transition: domain.Transition{Applied: true}}
	ingest, _ := newIngest(t, stub)

	body := capturedBody()
	sig := sign(testWebhookSecret, body)

	tr, err := ingest.Handle(ctx, body, sig, "evt_1")
	if err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if !tr.Applied {
		t.Fatalf("expected applied, got %+v", tr)
	}

	tr, err = ingest.Handle(ctx, body, sig, "evt_1")
	if err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if !tr.AlreadyProcessed {
		t.Fatalf("redelivery: expected already processed, got %+v", tr)
	}
	if stub.calls != 1 {
		t.Fatalf("reconciler called %d times, want 1", stub.calls)
	}
}

func TestHandleRetriesFailedDelivery(t *testing.T) {
	ctx := context.Background()
	stub := &stubReconciler{
		err:        errors.New("store unavailable"),
		failTimes:  1,
		transition: domain.Transition{Applied: true},
	}
	ingest, db := newIngest(t, stub)

	body := capturedBody()
	sig := sign(testWebhookSecret, body)

	if _, err := ingest.Handle(ctx, body, sig, "evt_1"); err == nil {
		t.Fatal("expected first delivery to fail")
	}

	var row struct {
		Processed       bool
		ProcessingError string
	}
	if err := db.Raw("SELECT processed, processing_error FROM webhook_events WHERE provider_event_id = ?", "evt_1").Scan(&row).Error; err != nil {
		t.Fatalf("read row: %v", err)
	}
	if row.Processed {
		t.Fatal("failed delivery marked processed")
	}
	if row.ProcessingError == "" {
		t.Fatal("processing error not recorded")
	}

	tr, err := ingest.Handle(ctx, body, sig, "evt_1")
	if err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if !tr.Applied {
		t.Fatalf("redelivery: expected applied, got %+v", tr)
	}

	if err := db.Raw("SELECT processed, processing_error FROM webhook_events WHERE provider_event_id = ?", "evt_1").Scan(&row).Error; err != nil {
		t.Fatalf("re-read row: %v", err)
	}
	if !row.Processed {
		t.Fatal("retried delivery not marked processed")
	}
	if row.ProcessingError != "" {
		t.Fatalf("processing error not cleared: %q", row.ProcessingError)
	}

	var n int64
	if err := db.Raw("SELECT COUNT(*) FROM webhook_events").Scan(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("webhook_events = %d, want a single row per event id", n)
	}
}

func TestHandleFallsBackToBodyHash(t *testing.T) {
	ctx := context.Background()
	stub := &stubReconciler{transition: domain.Transition{Applied: true}}
	ingest, _ := newIngest(t, stub)

	body := capturedBody()
	sig := sign(testWebhookSecret, body)

	if _, err := ingest.Handle(ctx, body, sig, ""); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	tr, err := ingest.Handle(ctx, body, sig, "")
	if err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if !tr.AlreadyProcessed {
		t.Fatalf("redelivery without header id must dedup on body hash, got %+v", tr)
	}
}

func setupEventLogDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE webhook_events (
			id BIGINT PRIMARY KEY,
			provider TEXT NOT NULL,
			provider_event_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			payload TEXT NOT NULL,
			signature TEXT,
			processed BOOLEAN NOT NULL DEFAULT FALSE,
			processing_error TEXT,
			received_at DATETIME NOT NULL,
			processed_at DATETIME
		)`,
		`CREATE UNIQUE INDEX ux_webhook_events_provider_event_id ON webhook_events (provider, provider_event_id)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}
