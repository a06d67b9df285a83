package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(activationsTotal) }

var activationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "subscription_activations_total",
		Help: "Activation attempts after settlement, labeled by outcome.",
	},
	[]string{"result"}, // 'success', 'noop', 'failed'
)

func IncActivation(result string) {
	activationsTotal.WithLabelValues(norm(result)).Inc()
}
