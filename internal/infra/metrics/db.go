package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(billingDBPoolConnections) }

// One gauge per pool state; the settlement path leans hard on conditional
// UPDATEs, so pool saturation shows up here first.
var billingDBPoolConnections = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "billing_db_pool_connections",
		Help: "Connections in the billing Postgres pool, by state.",
	},
	[]string{"state"},
)

func SetDBPoolStats(total, idle, inUse int32) {
	billingDBPoolConnections.WithLabelValues("total").Set(float64(total))
	billingDBPoolConnections.WithLabelValues("idle").Set(float64(idle))
	billingDBPoolConnections.WithLabelValues("in_use").Set(float64(inUse))
}
