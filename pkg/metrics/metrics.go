package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SigninAttempts records signin attempts by result (success|failure).
	SigninAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authbase_signin_attempts_total",
			Help: "Total number of signin attempts",
		},
		[]string{"result"},
	)

	// Signups counts completed signup requests by result (success|failure).
	Signups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authbase_signups_total",
			Help: "Total number of signup requests",
		},
		[]string{"result"},
	)

	// TokensIssued counts issued tokens by purpose (session|verify|reset).
	TokensIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authbase_tokens_issued_total",
			Help: "Total number of issued tokens",
		},
		[]string{"purpose"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "authbase_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
