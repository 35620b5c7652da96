// Package metrics exposes the service's Prometheus instruments.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics carries the domain counters recorded by the billing core.
type Metrics struct {
	webhookEvents    *prometheus.CounterVec
	creditGrants     *prometheus.CounterVec
	checkoutAttempts *prometheus.CounterVec
	recoveryRuns     *prometheus.CounterVec
}

// New registers the counters on the default registry.
func New() (*Metrics, error) {
	m := &Metrics{
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shuddhi",
			Name:      "webhook_events_total",
			Help:      "Inbound gateway webhook events by type and result.",
		}, []string{"event_type", "result"}),
		creditGrants: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shuddhi",
			Name:      "credit_grants_total",
			Help:      "Word-credit grants by source.",
		}, []string{"source"}),
		checkoutAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shuddhi",
			Name:      "checkout_attempts_total",
			Help:      "Checkout initiations by kind and result.",
		}, []string{"kind", "result"}),
		recoveryRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shuddhi",
			Name:      "recovery_runs_total",
			Help:      "Operator recovery invocations by result.",
		}, []string{"result"}),
	}

	for _, collector := range []prometheus.Collector{
		m.webhookEvents,
		m.creditGrants,
		m.checkoutAttempts,
		m.recoveryRuns,
	} {
		if err := prometheus.Register(collector); err != nil {
			if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
				_ = already
				continue
			}
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) RecordWebhookEvent(eventType, result string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(normalizeLabel(eventType), normalizeLabel(result)).Inc()
}

func (m *Metrics) RecordCreditGrant(source string) {
	if m == nil {
		return
	}
	m.creditGrants.WithLabelValues(normalizeLabel(source)).Inc()
}

func (m *Metrics) RecordCheckoutAttempt(kind, result string) {
	if m == nil {
		return
	}
	m.checkoutAttempts.WithLabelValues(normalizeLabel(kind), normalizeLabel(result)).Inc()
}

func (m *Metrics) RecordRecoveryRun(result string) {
	if m == nil {
		return
	}
	m.recoveryRuns.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return "unknown"
	}
	return value
}
