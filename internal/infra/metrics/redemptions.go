// File: internal/infra/metrics/redemptions.go
package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		redemptionsTotal,
		claimsLostTotal,
		subscriptionConflictsTotal,
	)
}

// Redemption outcomes.
const (
	OutcomeGranted  = "granted"
	OutcomeRejected = "rejected"
)

var (
	redemptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redemptions_total",
			Help: "Total redemption attempts by outcome.",
		},
		[]string{"outcome"}, // 'granted', 'rejected'
	)

	claimsLostTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "redemption_claims_lost_total",
			Help: "Claim attempts that lost the conditional write to a concurrent redemption.",
		},
	)

	subscriptionConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscription_version_conflicts_total",
			Help: "Optimistic-concurrency conflicts hit while extending subscriptions.",
		},
	)
)

func IncRedemption(outcome string) {
	redemptionsTotal.WithLabelValues(outcome).Inc()
}

func IncClaimLost() {
	claimsLostTotal.Inc()
}

func IncSubscriptionConflict() {
	subscriptionConflictsTotal.Inc()
}
