package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(dbPoolStats, dbTxTotal) }

var (
	dbPoolStats = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_pool_connections",
			Help: "Connections of a pgx pool by state.",
		},
		[]string{"pool", "state"}, // state: 'total', 'idle', 'in_use'
	)
	dbTxTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_transactions_total",
			Help: "Units of work (member renewals, approvals, sign-ups) by outcome.",
		},
		[]string{"result"}, // 'commit', 'rollback', 'begin_error', 'commit_error'
	)
)

func SetDBPoolStats(pool string, total, idle, inUse int32) {
	pool = norm(pool)
	dbPoolStats.WithLabelValues(pool, "total").Set(float64(total))
	dbPoolStats.WithLabelValues(pool, "idle").Set(float64(idle))
	dbPoolStats.WithLabelValues(pool, "in_use").Set(float64(inUse))
}

func IncDBTx(result string) {
	dbTxTotal.WithLabelValues(norm(result)).Inc()
}
