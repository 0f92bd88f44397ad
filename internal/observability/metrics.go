package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "app_callback_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"path", "method", "status"},
	)

	// ActiveConnections tracks active connections
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_callback_active_connections",
			Help: "Number of active connections",
		},
	)

	// CallbackRequests counts callback requests by terminal outcome
	CallbackRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "app_callback_requests_total",
			Help: "Number of callback requests by outcome",
		},
		[]string{"outcome"},
	)

	// ProviderDuration tracks Zadarma API call latency
	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "app_callback_provider_duration_seconds",
			Help:    "Duration of Zadarma API calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"operation", "status"},
	)

	// FloodDecisions counts flood control decisions
	FloodDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "app_callback_flood_decisions_total",
			Help: "Number of flood control decisions",
		},
		[]string{"event", "decision"},
	)

	// ProviderConnected is 1 while the last provider connection check succeeded
	ProviderConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_callback_provider_connected",
			Help: "Whether the last Zadarma connection check succeeded",
		},
	)

	// SessionTokens counts issued and consumed anti-forgery tokens
	SessionTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "app_callback_session_tokens_total",
			Help: "Number of session token operations",
		},
		[]string{"operation", "result"},
	)
)
