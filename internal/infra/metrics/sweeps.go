package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		sweepDemotedTotal,
		reconcileChecksTotal,
	)
}

var (
	sweepDemotedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "expiry_sweep_demoted_total",
			Help: "Total rows demoted to expired by the sweep worker.",
		},
	)

	reconcileChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_reconcile_checks_total",
			Help: "Provider status polls issued by the reconciler, by outcome.",
		},
		[]string{"result"}, // 'settled', 'still_pending', 'error'
	)
)

func AddSweepDemoted(count int64) {
	sweepDemotedTotal.Add(float64(count))
}

func IncReconcileCheck(result string) {
	reconcileChecksTotal.WithLabelValues(norm(result)).Inc()
}
