package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		entitlementDecisionsTotal,
		entitlementDecisionLatency,
	)
}

var (
	entitlementDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entitlement_decisions_total",
			Help: "Authorization decisions by action kind and outcome.",
		},
		[]string{"action", "outcome"}, // outcome: allowed | denied | error
	)

	entitlementDecisionLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "entitlement_decision_latency_ms",
			Help:    "Authorization latency distribution in milliseconds.",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"action"},
	)
)

func IncDecision(action, outcome string) {
	entitlementDecisionsTotal.WithLabelValues(norm(action), norm(outcome)).Inc()
}

func ObserveDecisionLatency(action string, ms float64) {
	entitlementDecisionLatency.WithLabelValues(norm(action)).Observe(ms)
}
