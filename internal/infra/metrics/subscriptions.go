package metrics

import (
	"learning-entitlement/internal/domain/model"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		subscriptionsDeactivatedTotal,
		subscriptionsActive,
	)
}

var (
	subscriptionsDeactivatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_deactivated_total",
			Help: "Total number of subscriptions flipped inactive by the expiry sweep.",
		},
	)

	subscriptionsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "subscriptions_active",
			Help: "Current number of active subscriptions by tier.",
		},
		[]string{"tier"},
	)
)

func IncSubscriptionsDeactivated(count int) {
	subscriptionsDeactivatedTotal.Add(float64(count))
}

func SetActiveSubscriptions(counts map[model.PlanTier]int) {
	for _, tier := range []model.PlanTier{model.PlanTierBasic, model.PlanTierPremium} {
		subscriptionsActive.WithLabelValues(string(tier)).Set(float64(counts[tier]))
	}
}
