package retention

import "github.com/prometheus/client_golang/prometheus"

var (
	removedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vidgend",
			Subsystem: "retention",
			Name:      "removed_total",
			Help:      "Artifacts removed by retention, by pass",
		},
		[]string{"pass"},
	)

	failuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vidgend",
		Subsystem: "retention",
		Name:      "failures_total",
		Help:      "Per-file removal failures",
	})

	sweepsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vidgend",
		Subsystem: "retention",
		Name:      "sweeps_total",
		Help:      "Completed cleanup runs",
	})
)

func init() {
	prometheus.MustRegister(removedTotal, failuresTotal, sweepsTotal)
}
