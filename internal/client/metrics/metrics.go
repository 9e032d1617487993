// Package metrics provides Prometheus metrics for the session coordinator.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resource labels.
const (
	ResourceIdentity = "identity"
	ResourceAccount  = "account"
)

// Metrics contains all session coordinator metrics.
//
// A nil *Metrics is valid; every Record/Observe method is then a no-op.
type Metrics struct {
	// Fetch metrics
	FetchesTotal         *prometheus.CounterVec   // Resolver outcomes by resource and outcome
	FetchDurationSeconds *prometheus.HistogramVec // Resolver latency by resource

	// Session lifecycle
	LoginsTotal          *prometheus.CounterVec // Login attempts by result
	LogoutsTotal         prometheus.Counter
	SessionExpiriesTotal *prometheus.CounterVec // Session expiries by triggering operation

	// Navigation
	RedirectsTotal *prometheus.CounterVec // Navigations performed by target

	Ready prometheus.Gauge // 1 when the readiness state is settled
}

// New creates a Metrics instance registered with reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		FetchesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_session_fetches_total",
			Help: "Total number of resolver fetches by resource and outcome",
		}, []string{"resource", "outcome"}),

		FetchDurationSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "folio_session_fetch_duration_seconds",
			Help:    "Duration of resolver fetches by resource",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"resource"}),

		LoginsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_session_logins_total",
			Help: "Total number of login attempts by result",
		}, []string{"result"}),

		LogoutsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "folio_session_logouts_total",
			Help: "Total number of logouts",
		}),

		SessionExpiriesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_session_expiries_total",
			Help: "Total number of session expiries by triggering operation",
		}, []string{"source"}),

		RedirectsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_session_redirects_total",
			Help: "Total number of navigations performed by target",
		}, []string{"target"}),

		Ready: f.NewGauge(prometheus.GaugeOpts{
			Name: "folio_session_ready",
			Help: "1 when the readiness state has settled, 0 otherwise",
		}),
	}
}

// ObserveFetch records a completed fetch.
func (m *Metrics) ObserveFetch(resource, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.FetchesTotal.WithLabelValues(resource, outcome).Inc()
	m.FetchDurationSeconds.WithLabelValues(resource).Observe(d.Seconds())
}

// RecordLogin records a login attempt result ("success", "invalid_credentials", "error").
func (m *Metrics) RecordLogin(result string) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordLogout() {
	if m == nil {
		return
	}
	m.LogoutsTotal.Inc()
}

// RecordSessionExpiry records a session expiry triggered by source.
func (m *Metrics) RecordSessionExpiry(source string) {
	if m == nil {
		return
	}
	m.SessionExpiriesTotal.WithLabelValues(source).Inc()
}

// RecordRedirect records a navigation to target.
func (m *Metrics) RecordRedirect(target string) {
	if m == nil {
		return
	}
	m.RedirectsTotal.WithLabelValues(target).Inc()
}

// SetReady updates the readiness gauge.
func (m *Metrics) SetReady(ready bool) {
	if m == nil {
		return
	}
	if ready {
		m.Ready.Set(1)
		return
	}
	m.Ready.Set(0)
}
