package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsAppliedTotal,
		paymentsRejectedTotal,
	)
}

var (
	paymentsAppliedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_applied_total",
			Help: "Completed payments reconciled into subscriptions, by purpose.",
		},
		[]string{"purpose"},
	)

	paymentsRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_rejected_total",
			Help: "Payment events rejected during reconciliation, by cause.",
		},
		[]string{"cause"}, // unknown_amount | invalid_event
	)
)

func IncPaymentApplied(purpose string) {
	paymentsAppliedTotal.WithLabelValues(norm(purpose)).Inc()
}

func IncPaymentRejected(cause string) {
	paymentsRejectedTotal.WithLabelValues(norm(cause)).Inc()
}
