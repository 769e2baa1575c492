package service

import (
	"strings"

	"admission-gate-service/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeAllow  = "allow"
	outcomeDeny   = "deny"
	outcomeBypass = "bypass"
)

// Metrics is registered once per process, config upgrades reuse the
// same instance.
type Metrics struct {
	decisions     *prometheus.CounterVec
	storeFailures *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		decisions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "admission_gate",
				Name:      "decisions_total",
				Help:      "Admission decisions by tier and outcome",
			},
			[]string{"tier", "outcome"},
		),
		storeFailures: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "admission_gate",
				Name:      "store_failures_total",
				Help:      "Counter store failures by applied failure policy",
			},
			[]string{"policy"},
		),
	}
}

func (m *Metrics) ObserveDecision(decision domain.Decision) {
	if m == nil {
		return
	}
	outcome := outcomeAllow
	switch {
	case decision.Bypassed:
		outcome = outcomeBypass
	case !decision.Allowed:
		outcome = outcomeDeny
	}
	m.decisions.WithLabelValues(strings.ToLower(decision.Tier.String()), outcome).Inc()
}

func (m *Metrics) ObserveStoreFailure(failClosed bool) {
	if m == nil {
		return
	}
	policy := "open"
	if failClosed {
		policy = "closed"
	}
	m.storeFailures.WithLabelValues(policy).Inc()
}
