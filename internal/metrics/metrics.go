package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for order flow and partner health.
var (
	OrdersPlacedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_placed_total",
			Help: "Total number of orders placed, by payment method",
		},
		[]string{"method"},
	)

	OrdersCancelledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_cancelled_total",
			Help: "Total number of orders cancelled",
		},
	)

	PaymentVerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_verifications_total",
			Help: "Total number of payment signature verifications, by outcome",
		},
		[]string{"outcome"},
	)

	PartnerRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partner_requests_total",
			Help: "Total number of fulfillment partner requests, by outcome",
		},
		[]string{"outcome"},
	)

	PartnerTokenRefreshesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "partner_token_refreshes_total",
			Help: "Total number of partner re-logins triggered by a 401",
		},
	)

	StatusSyncsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "status_syncs_total",
			Help: "Total number of partner status syncs, by result",
		},
		[]string{"result"},
	)
)

// Register registers all metrics with the default registry.
func Register() {
	prometheus.MustRegister(OrdersPlacedTotal)
	prometheus.MustRegister(OrdersCancelledTotal)
	prometheus.MustRegister(PaymentVerificationsTotal)
	prometheus.MustRegister(PartnerRequestsTotal)
	prometheus.MustRegister(PartnerTokenRefreshesTotal)
	prometheus.MustRegister(StatusSyncsTotal)
}
