package loader

import "github.com/prometheus/client_golang/prometheus"

var (
	tierLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vidgend",
			Subsystem: "loader",
			Name:      "tier_loads_total",
			Help:      "Tier load attempts by outcome (ok, degraded, failed)",
		},
		[]string{"tier", "result"},
	)

	currentTier = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "vidgend",
			Subsystem: "loader",
			Name:      "current_tier",
			Help:      "1 for the tier currently selected, 0 otherwise",
		},
		[]string{"tier"},
	)
)

func init() {
	prometheus.MustRegister(tierLoadsTotal, currentTier)
}
