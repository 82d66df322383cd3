// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "donorhub"

var (
	// DonationEvents counts ledger transitions by event
	// (recorded, verified, rejected, deleted).
	DonationEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "donation_events_total",
		Help:      "Donation ledger transitions.",
	}, []string{"event"})

	// DonationAmountVerified sums verified donation amounts.
	DonationAmountVerified = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "donation_amount_verified_total",
		Help:      "Sum of verified donation amounts.",
	})

	// Notifications counts email deliveries by outcome (sent, failed, dropped).
	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Email notifications by outcome.",
	}, []string{"outcome"})

	// BlobCompensations counts orphaned uploads removed after a failed persist,
	// by outcome (deleted, failed).
	BlobCompensations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "blob_compensations_total",
		Help:      "Compensating deletes of uploaded blobs.",
	}, []string{"outcome"})

	// RateLimited counts rejected requests per limiter.
	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Requests rejected by a rate limiter.",
	}, []string{"limiter"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
