package fetchpool

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "garmin_service",
		Subsystem: "fetchpool",
		Name:      "submissions_total",
		Help:      "Jobs accepted into the fetch queue.",
	})

	queueFullTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "garmin_service",
		Subsystem: "fetchpool",
		Name:      "queue_full_total",
		Help:      "Submissions rejected because the queue stayed full past the enqueue timeout.",
	})

	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "garmin_service",
		Subsystem: "fetchpool",
		Name:      "jobs_total",
		Help:      "Completed jobs by outcome.",
	}, []string{"outcome"})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "garmin_service",
		Subsystem: "fetchpool",
		Name:      "queue_depth",
		Help:      "Jobs waiting for a worker.",
	})

	runSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "garmin_service",
		Subsystem: "fetchpool",
		Name:      "run_duration_seconds",
		Help:      "Job run time in seconds.",
		Buckets:   prometheus.DefBuckets,
	})
)
