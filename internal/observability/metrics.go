package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsdesk_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// ReactionToggles counts reaction toggles by target kind and outcome.
	ReactionToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsdesk_reaction_toggles_total",
		Help: "Total number of reaction toggles by target kind and outcome",
	}, []string{"target", "outcome"})

	// ReactionConflictRetries counts toggles re-run after losing a concurrent insert.
	ReactionConflictRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsdesk_reaction_conflict_retries_total",
		Help: "Total number of reaction toggles retried after a unique violation",
	}, []string{"target"})

	// CacheLookups counts cache-aside lookups by cache name and result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsdesk_cache_lookups_total",
		Help: "Total number of cache lookups by result",
	}, []string{"cache", "result"})

	// WebSocketConnections is the gauge of open live-feed connections.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "newsdesk_websocket_connections",
		Help: "Number of open article live-feed connections",
	})

	// DatabaseQueryLatency records database query latency by operation.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "newsdesk_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)
