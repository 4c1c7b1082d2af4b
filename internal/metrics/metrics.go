// Package metrics holds the Prometheus collectors for the server.
//
// A nil *Metrics is valid and records nothing, so services and handlers can
// be constructed in tests without a registry.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "codesync"

// Metrics groups every collector the server exports.
type Metrics struct {
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	submissionsAppended *prometheus.CounterVec
	profilesBuilt       prometheus.Counter
	authFailures        *prometheus.CounterVec
}

// New registers all collectors on reg. Pass prometheus.NewRegistry() in
// tests so runs don't collide on the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	auto := promauto.With(reg)

	return &Metrics{
		httpRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),

		httpRequestDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),

		submissionsAppended: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_appended_total",
			Help:      "Solved problems recorded, by difficulty.",
		}, []string{"difficulty"}),

		profilesBuilt: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profiles_built_total",
			Help:      "User profiles assembled for dashboards and peer listings.",
		}),

		authFailures: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Rejected signups, logins and sessions, by reason.",
		}, []string{"reason"}),
	}
}

// ObserveHTTP records one finished request. route should be the chi route
// pattern, not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, route, code).Inc()
	m.httpRequestDuration.WithLabelValues(method, route, code).Observe(d.Seconds())
}

func (m *Metrics) SubmissionAppended(difficulty string) {
	if m == nil {
		return
	}
	m.submissionsAppended.WithLabelValues(difficulty).Inc()
}

// ProfileBuilt counts n assembled profiles (a peer listing builds many).
func (m *Metrics) ProfileBuilt(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.profilesBuilt.Add(float64(n))
}

// AuthFailed counts a rejected credential. Reasons used by the services:
// "duplicate_identity", "bad_credentials", "invalid_token".
func (m *Metrics) AuthFailed(reason string) {
	if m == nil {
		return
	}
	m.authFailures.WithLabelValues(reason).Inc()
}
