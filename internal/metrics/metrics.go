package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "execution_core_executions_total",
			Help: "Total number of sandboxed executions by language and terminal status",
		},
		[]string{"language", "status"},
	)

	ExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "execution_core_execution_duration_ms",
			Help:    "Wall-clock execution duration in milliseconds",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 15000},
		},
		[]string{"language"},
	)

	MemoryUsage = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "execution_core_memory_usage_kb",
			Help:    "Peak memory usage per execution in KB",
			Buckets: []float64{1024, 4096, 16384, 65536, 131072, 262144},
		},
		[]string{"language"},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "execution_core_queue_depth",
			Help: "Current number of units of work waiting for a worker",
		},
	)

	ActiveWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "execution_core_active_workers",
			Help: "Number of workers currently processing a unit of work",
		},
	)

	PlagiarismChecksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "execution_core_plagiarism_checks_total",
			Help: "Total number of plagiarism detection runs",
		},
	)

	PlagiarismFlagged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "execution_core_plagiarism_flagged_total",
			Help: "Detection runs that recorded at least one similar submission",
		},
	)
)
