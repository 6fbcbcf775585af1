package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		membersRenewedTotal,
		membersExpiredTotal,
		membersActive,
	)
}

var (
	membersRenewedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "members_renewed_total",
			Help: "Membership expiration changes by source.",
		},
		[]string{"source"}, // 'create', 'update', 'extend', 'approval', 'explicit'
	)

	membersExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "members_expired_total",
			Help: "Total number of members deactivated by the expiry worker.",
		},
	)

	membersActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "members_active",
			Help: "Active members as of the last dashboard computation.",
		},
	)
)

func IncMemberRenewed(source string) {
	membersRenewedTotal.WithLabelValues(norm(source)).Inc()
}

func IncMembersExpired(count int) {
	membersExpiredTotal.Add(float64(count))
}

func SetMembersActive(n int) {
	membersActive.Set(float64(n))
}
