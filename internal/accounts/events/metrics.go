package events

import (
	"context"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/prometheus/client_golang/prometheus"
)

var _ service.Notifier = (*Metrics)(nil)

// Metrics counts deletions by strategy and prior status.
type Metrics struct {
	deletions    *prometheus.CounterVec
	hookFailures *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		deletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "accounts",
			Name:      "user_deletions_total",
			Help:      "Users deleted, by migration strategy and prior activation status",
		}, []string{"strategy", "prior_status"}),
		hookFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "accounts",
			Name:      "deletion_hook_failures_total",
			Help:      "Post-deletion notifications that returned an error",
		}, []string{"stage"}),
	}
	for _, c := range []prometheus.Collector{m.deletions, m.hookFailures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) OnUserDeleted(_ context.Context, ev domain.DeletionEvent) error {
	m.deletions.WithLabelValues(string(ev.Strategy), string(ev.PriorStatus)).Inc()
	return nil
}

func (m *Metrics) OnUserDeletionHook(context.Context, domain.PublicUser) error { return nil }

// HookFailed records a failed notification stage ("telemetry" or "hook").
func (m *Metrics) HookFailed(stage string) {
	m.hookFailures.WithLabelValues(stage).Inc()
}
