// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamRequests counts RetroAchievements API calls by endpoint and outcome.
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retroprofile_upstream_requests_total",
			Help: "Total upstream API requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"}, // outcome: success, http_error, api_error, decode_error, transport_error
	)

	// UpstreamDuration tracks upstream latency including retries.
	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "retroprofile_upstream_request_duration_seconds",
			Help:    "Upstream API request latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	// UpstreamRetries counts retry attempts after transient failures.
	UpstreamRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retroprofile_upstream_retries_total",
			Help: "Upstream retry attempts by endpoint",
		},
		[]string{"endpoint"},
	)

	// CircuitBreakerState is 0 closed, 1 half-open, 2 open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "retroprofile_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// CacheLookups counts typed store lookups.
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retroprofile_cache_lookups_total",
			Help: "Cache lookups by cache name and result",
		},
		[]string{"cache", "result"}, // result: hit, miss, expired, error
	)

	// RateLimitRejections counts 429 responses by route family.
	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retroprofile_rate_limit_rejections_total",
			Help: "Requests rejected by the sliding window limiter",
		},
		[]string{"limiter"},
	)

	// RateLimitClients tracks clients currently held by each limiter.
	RateLimitClients = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "retroprofile_rate_limit_clients",
			Help: "Clients tracked by the sliding window limiter",
		},
		[]string{"limiter"},
	)

	// IconRefreshes counts console icon map refreshes by result.
	IconRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retroprofile_icon_refreshes_total",
			Help: "System icon map refreshes by result",
		},
		[]string{"result"},
	)

	// ProfileLookups counts aggregator lookups by result.
	ProfileLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retroprofile_profile_lookups_total",
			Help: "Profile bundle lookups by result",
		},
		[]string{"result"}, // invalid, cached, fetched, error
	)

	// LiveSessions tracks open websocket sessions.
	LiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "retroprofile_live_sessions",
			Help: "Open live lookup sessions",
		},
	)
)
