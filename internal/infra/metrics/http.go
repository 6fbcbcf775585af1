package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(httpRequestDuration, authAttemptsTotal) }

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_ms",
			Help:    "HTTP request latency distribution in milliseconds.",
			Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600, 3000},
		},
		[]string{"method", "route", "status"},
	)

	authAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Login and authorization attempts by result.",
		},
		[]string{"kind", "result"}, // kind: 'login', 'admin'; result: 'ok', 'denied', 'limited'
	)
)

func ObserveHTTP(method, route string, status int, ms float64) {
	httpRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(ms)
}

func IncAuthAttempt(kind, result string) {
	authAttemptsTotal.WithLabelValues(norm(kind), norm(result)).Inc()
}
