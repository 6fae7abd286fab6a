package tiktokbridge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tiktok_bridge_requests_total",
	Help: "Responses received from TikTok, by method, host and status code",
}, []string{"method", "host", "status"})

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "tiktok_bridge_request_duration_seconds",
	Help:    "Duration of a single attempt that produced a response",
	Buckets: prometheus.ExponentialBucketsRange(0.01, 30, 15),
}, []string{"method", "host"})

var transportErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tiktok_bridge_transport_errors_total",
	Help: "Attempts that failed before a response was received",
}, []string{"method", "host"})

var requestsExhausted = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tiktok_bridge_requests_exhausted_total",
	Help: "Requests that failed on every allowed attempt",
}, []string{"method", "host"})

var rateLimitWaits = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tiktok_bridge_rate_limit_waits_total",
	Help: "Times a request waited for a server-announced rate limit reset",
}, []string{"host"})

var creatorInfoCacheHits = promauto.NewCounter(prometheus.CounterOpts{
	Name: "tiktok_bridge_creator_info_cache_hits_total",
	Help: "Creator info lookups served from cache",
})

var creatorInfoCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
	Name: "tiktok_bridge_creator_info_cache_misses_total",
	Help: "Creator info lookups that went to the API",
})

var creatorInfoCoalesced = promauto.NewCounter(prometheus.CounterOpts{
	Name: "tiktok_bridge_creator_info_coalesced_total",
	Help: "Creator info lookups that shared an in-flight request",
})
