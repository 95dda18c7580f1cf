// Package monitoring exposes prometheus counters for the booking core.
// Counters are registered with the default registry and served by the
// /metrics endpoint wired in cmd/server.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bookingsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Bookings committed, by sale channel",
		},
		[]string{"channel"},
	)

	ticketsSold = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_sold_total",
			Help: "Ticket units committed, by sale channel",
		},
		[]string{"channel"},
	)

	stockConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stock_conflicts_total",
			Help: "Sales aborted because a tier lacked stock under lock",
		},
	)

	payoutRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payout_requests_total",
			Help: "Payout requests, by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordSale counts a committed sale on the given channel
// (checkout | pos) covering n bookings and units ticket units.
func RecordSale(channel string, n int, units int64) {
	bookingsCreated.WithLabelValues(channel).Add(float64(n))
	ticketsSold.WithLabelValues(channel).Add(float64(units))
}

// RecordStockConflict counts a sale aborted for lack of stock.
func RecordStockConflict() {
	stockConflicts.Inc()
}

// RecordPayoutRequest counts a payout request outcome
// (accepted | rejected).
func RecordPayoutRequest(outcome string) {
	payoutRequests.WithLabelValues(outcome).Inc()
}
