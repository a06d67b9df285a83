package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		settlementsTotal,
		callbacksTotal,
		paymentsRevenueTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payment attempts created, labeled by initial status.",
		},
		[]string{"status"},
	)

	settlementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_settlements_total",
			Help: "Payments leaving pending, labeled by terminal status.",
		},
		[]string{"status"}, // 'paid', 'failed', 'expired', 'cancelled'
	)

	callbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_callbacks_total",
			Help: "Inbound gateway callbacks by provider and verification result.",
		},
		[]string{"provider", "result"}, // result: 'verified', 'rejected'
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_total",
			Help: "The total monetary value of successful payments, labeled by currency.",
		},
		[]string{"currency"},
	)
)

func IncPayment(status string) {
	paymentsTotal.WithLabelValues(norm(status)).Inc()
}

func IncSettlement(status string) {
	settlementsTotal.WithLabelValues(norm(status)).Inc()
}

func IncCallback(provider, result string) {
	callbacksTotal.WithLabelValues(norm(provider), norm(result)).Inc()
}

func AddPaymentRevenue(currency string, amount int64) {
	paymentsRevenueTotal.WithLabelValues(norm(currency)).Add(float64(amount))
}
