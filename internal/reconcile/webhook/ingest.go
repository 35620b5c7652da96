// Package webhook receives Razorpay deliveries, authenticates them, logs
// them durably and hands the parsed event to the reconciler. A processing
// error leaves the log row unprocessed and surfaces as a 5xx, so the
// provider redelivers.
package webhook

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/shuddhilabs/shuddhi/internal/clock"
	"github.com/shuddhilabs/shuddhi/internal/config"
	"github.com/shuddhilabs/shuddhi/internal/observability/metrics"
	"github.com/shuddhilabs/shuddhi/internal/reconcile/domain"
)

const Provider = "razorpay"

type Params struct {
	fx.In

	Log        *zap.Logger
	DB         *gorm.DB
	Config     config.Config
	Clock      clock.Clock
	Node       *snowflake.Node
	Events     domain.EventRepository
	Reconciler domain.Service
	Metrics    *metrics.Metrics
}

type Ingest struct {
	log        *zap.Logger
	db         *gorm.DB
	cfg        config.Config
	clock      clock.Clock
	node       *snowflake.Node
	events     domain.EventRepository
	reconciler domain.Service
	metrics    *metrics.Metrics
}

func NewIngest(p Params) *Ingest {
	return &Ingest{
		log:        p.Log.Named("reconcile.webhook"),
		db:         p.DB,
		cfg:        p.Config,
		clock:      p.Clock,
		node:       p.Node,
		events:     p.Events,
		reconciler: p.Reconciler,
		metrics:    p.Metrics,
	}
}

// Handle processes one delivery end to end. The returned transition reflects
// what the reconciler did; an error means the delivery should be retried.
func (i *Ingest) Handle(ctx context.Context, body []byte, signature, eventID string) (*domain.Transition, error) {
	if i.cfg.RazorpayWebhookSecret == "" {
		// Degraded mode: without a configured secret there is nothing to
		// verify against, so the delivery is processed as-is.
		i.log.Warn("webhook secret not configured, skipping signature verification")
	} else if !VerifySignature(i.cfg.RazorpayWebhookSecret, body, signature) {
		i.metrics.RecordWebhookEvent("unknown", "bad_signature")
		return nil, domain.ErrSignatureInvalid
	}
	if eventID == "" {
		eventID = FallbackEventID(body)
	}

	event, err := ParseEvent(body)
	if err != nil {
		i.metrics.RecordWebhookEvent("unknown", "parse_error")
		return nil, err
	}

	now := i.clock.Now()
	row := &domain.WebhookEvent{
		ID:              i.node.Generate(),
		Provider:        Provider,
		ProviderEventID: eventID,
		EventType:       string(event.Type),
		Payload:         datatypes.JSON(body),
		Signature:       signature,
		ReceivedAt:      now,
	}
	inserted, err := i.events.Insert(ctx, i.db, row)
	if err != nil {
		return nil, err
	}
	if !inserted {
		existing, err := i.events.FindByProviderEventID(ctx, i.db, Provider, eventID)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.Processed {
			i.metrics.RecordWebhookEvent(string(event.Type), "duplicate")
			i.log.Info("duplicate delivery",
				zap.String("provider_event_id", eventID),
				zap.String("event_type", string(event.Type)),
			)
			return &domain.Transition{
				AlreadyProcessed: true,
				Description:      "event already processed",
			}, nil
		}
		// Logged but never completed, likely a redelivery after a failure.
		// Reprocess against the original row.
		if existing != nil {
			row = existing
		}
	}

	transition, err := i.reconciler.ApplyEvent(ctx, *event)
	if err != nil {
		i.metrics.RecordWebhookEvent(string(event.Type), "error")
		if recErr := i.events.RecordError(ctx, i.db, row.ID, err.Error(), i.clock.Now()); recErr != nil {
			i.log.Error("failed to record processing error", zap.Error(recErr))
		}
		return nil, err
	}

	if err := i.events.MarkProcessed(ctx, i.db, row.ID, i.clock.Now()); err != nil {
		return nil, err
	}

	result := "applied"
	if transition.AlreadyProcessed {
		result = "already_processed"
	} else if !transition.Applied {
		result = "ignored"
	}
	i.metrics.RecordWebhookEvent(string(event.Type), result)
	return transition, nil
}

// ListEvents exposes the delivery log for the operator endpoints.
func (i *Ingest) ListEvents(ctx context.Context, onlyFailed bool, limit int) ([]domain.WebhookEvent, error) {
	return i.events.List(ctx, i.db, onlyFailed, limit)
}
