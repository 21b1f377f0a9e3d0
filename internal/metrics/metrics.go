// Package metrics defines the prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amparo_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "amparo_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "amparo_http_active_requests",
			Help: "Requests currently being served",
		},
	)

	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amparo_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter by route",
		},
		[]string{"route"},
	)

	Registrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amparo_registrations_total",
			Help: "Accounts created by role",
		},
		[]string{"role"},
	)

	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amparo_login_attempts_total",
			Help: "Login attempts by role and result",
		},
		[]string{"role", "result"},
	)

	DonationRequestEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amparo_donation_request_events_total",
			Help: "Donation request mutations by operation",
		},
		[]string{"operation"},
	)

	AccountDeletions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amparo_account_deletions_total",
			Help: "Accounts deleted by role",
		},
		[]string{"role"},
	)
)

// RecordHTTPRequest records one finished request.
func RecordHTTPRequest(method, route, status string, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
