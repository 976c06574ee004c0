// Package metrics exposes Prometheus instrumentation for the session core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	logins           *prometheus.CounterVec
	lookupCandidates prometheus.Histogram
	reapedSessions   prometheus.Counter
}

// New registers the service collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by method and outcome.",
		}, []string{"method", "outcome"}),
		lookupCandidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "auth",
			Name:      "token_lookup_candidates",
			Help:      "Sessions scanned per token lookup after fingerprint narrowing.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25},
		}),
		reapedSessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "auth",
			Name:      "expired_sessions_reaped_total",
			Help:      "Expired sessions deleted lazily during token lookups.",
		}),
	}
	reg.MustRegister(m.logins, m.lookupCandidates, m.reapedSessions)
	return m
}

func (m *Metrics) LoginObserved(method, outcome string) {
	m.logins.WithLabelValues(method, outcome).Inc()
}

func (m *Metrics) LookupCandidates(n int) {
	m.lookupCandidates.Observe(float64(n))
}

func (m *Metrics) ExpiredSessionReaped() {
	m.reapedSessions.Inc()
}
