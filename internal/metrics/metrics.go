// Package metrics exposes the pipeline's Prometheus instrumentation: queue
// depth, per-fragment counters, and lifecycle stage, following the same
// registry-plus-HTTP-handler split used for the platform's own metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds every counter, gauge, and histogram the pipeline updates.
type Metrics struct {
	QueueDepth         prometheus.Gauge
	FragmentsSplit     prometheus.Counter
	FragmentsProcessed prometheus.Counter
	FragmentsFailed    prometheus.Counter
	ProcessingSeconds  prometheus.Histogram
	LifecycleStage     *prometheus.GaugeVec
}

// New constructs Metrics and registers every collector, plus the Go runtime
// and process collectors, on a fresh registry.
func New() (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "xmltrace",
			Subsystem: "queue",
			Name:      "depth",
			Help:      "Number of fragments currently buffered in the bounded queue.",
		}),
		FragmentsSplit: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "xmltrace",
			Subsystem: "splitter",
			Name:      "fragments_total",
			Help:      "Total number of top-level fragments identified by the splitter.",
		}),
		FragmentsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "xmltrace",
			Subsystem: "worker",
			Name:      "fragments_processed_total",
			Help:      "Total number of fragments successfully parsed and dispatched.",
		}),
		FragmentsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "xmltrace",
			Subsystem: "worker",
			Name:      "fragments_failed_total",
			Help:      "Total number of fragments that failed to parse or dispatch.",
		}),
		ProcessingSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "xmltrace",
			Subsystem: "worker",
			Name:      "processing_seconds",
			Help:      "Per-fragment parse-and-dispatch duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
		LifecycleStage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "xmltrace",
			Subsystem: "run",
			Name:      "lifecycle_stage",
			Help:      "1 on the run's current lifecycle stage, 0 on all others.",
		}, []string{"stage"}),
	}

	reg.MustRegister(
		m.QueueDepth,
		m.FragmentsSplit,
		m.FragmentsProcessed,
		m.FragmentsFailed,
		m.ProcessingSeconds,
		m.LifecycleStage,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m, reg
}

// SetStage zeroes every other lifecycle_stage label and sets stage to 1,
// giving a single-sample gauge that always reflects the current stage.
func (m *Metrics) SetStage(stages []string, current string) {
	for _, s := range stages {
		if s == current {
			m.LifecycleStage.WithLabelValues(s).Set(1)
		} else {
			m.LifecycleStage.WithLabelValues(s).Set(0)
		}
	}
}
