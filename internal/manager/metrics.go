package manager

import "github.com/prometheus/client_golang/prometheus"

var (
	jobsAdmittedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vidgend",
		Subsystem: "pipeline",
		Name:      "jobs_admitted_total",
		Help:      "Jobs accepted into the queue",
	})

	jobsRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vidgend",
			Subsystem: "pipeline",
			Name:      "jobs_rejected_total",
			Help:      "Submissions rejected before admission, by reason",
		},
		[]string{"reason"},
	)

	jobsFinishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vidgend",
			Subsystem: "pipeline",
			Name:      "jobs_finished_total",
			Help:      "Finished jobs by final state",
		},
		[]string{"state"},
	)

	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vidgend",
			Subsystem: "pipeline",
			Name:      "job_duration_seconds",
			Help:      "Wall time from dequeue to finish",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		},
		[]string{"state"},
	)

	classifiedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vidgend",
			Subsystem: "pipeline",
			Name:      "classified_errors_total",
			Help:      "Classified failures by kind and stage",
		},
		[]string{"kind", "context"},
	)

	queuePending = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "vidgend",
		Subsystem: "queue",
		Name:      "pending",
		Help:      "Jobs waiting in the admission queue",
	})

	jobsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "vidgend",
		Subsystem: "queue",
		Name:      "active",
		Help:      "Jobs currently executing",
	})
)

func init() {
	prometheus.MustRegister(jobsAdmittedTotal, jobsRejectedTotal, jobsFinishedTotal, jobDuration, classifiedTotal, queuePending, jobsActive)
}
