package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(transactionsTotal, transactionAmountTotal) }

var (
	transactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transactions_total",
			Help: "Payment transactions by status and origin.",
		},
		[]string{"status", "origin"}, // origin: 'admin', 'member'
	)

	transactionAmountTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transaction_amount_rupiah_total",
			Help: "Sum of recorded payment amounts in Rupiah by status.",
		},
		[]string{"status"},
	)
)

func IncTransaction(status, origin string, amount int64) {
	transactionsTotal.WithLabelValues(norm(status), norm(origin)).Inc()
	if amount > 0 {
		transactionAmountTotal.WithLabelValues(norm(status)).Add(float64(amount))
	}
}
