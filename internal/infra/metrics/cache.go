package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(cacheRequestsTotal, memberLocksTotal, rateLimitTotal) }

var (
	cacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "Redis lookups by cache and result.",
		},
		[]string{"cache", "result"}, // cache: 'plan', 'plan_list', 'reset_token'; result: 'hit', 'miss', 'error'
	)
	memberLocksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "member_locks_total",
			Help: "Per-member lock attempts around renewals.",
		},
		[]string{"result"}, // 'acquired', 'busy', 'cancelled', 'error'
	)
	rateLimitTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_decisions_total",
			Help: "Rate limiter decisions by scope (login, reset).",
		},
		[]string{"scope", "result"}, // result: 'allowed', 'limited'
	)
)

func IncCacheRequest(cacheName, result string) {
	cacheRequestsTotal.WithLabelValues(norm(cacheName), norm(result)).Inc()
}

func IncMemberLock(result string) {
	memberLocksTotal.WithLabelValues(norm(result)).Inc()
}

func IncRateLimit(scope string, allowed bool) {
	result := "limited"
	if allowed {
		result = "allowed"
	}
	rateLimitTotal.WithLabelValues(norm(scope), result).Inc()
}
