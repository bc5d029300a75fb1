// Package metrics holds the Prometheus collectors exported by leapline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rebuild results.
const (
	ResultOK      = "ok"
	ResultCycle   = "cycle"
	ResultInvalid = "invalid"
)

var (
	rebuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leapline_rebuilds_total",
		Help: "Total timeline rebuilds by result",
	}, []string{"result"})

	rebuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "leapline_rebuild_duration_seconds",
		Help:    "Timeline rebuild duration",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	})

	datasetNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "leapline_dataset_nodes",
		Help: "Execution records in the resident dataset",
	})

	droppedDependencies = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leapline_dropped_dependencies_total",
		Help: "Dependency references dropped because the target node does not exist",
	})

	fallbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leapline_source_fallback_total",
		Help: "Times the embedded demo dataset replaced a failed or empty load, by source",
	}, []string{"source"})

	loadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "leapline_source_load_duration_seconds",
		Help:    "Dataset load duration by source",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})
)

// ObserveRebuild records one rebuild.
func ObserveRebuild(result string, took time.Duration, dropped int) {
	rebuildsTotal.WithLabelValues(result).Inc()
	rebuildDuration.Observe(took.Seconds())
	if dropped > 0 {
		droppedDependencies.Add(float64(dropped))
	}
}

// SetDatasetNodes records the size of the resident dataset.
func SetDatasetNodes(n int) {
	datasetNodes.Set(float64(n))
}

// ObserveLoad records one dataset load.
func ObserveLoad(source string, took time.Duration) {
	loadDuration.WithLabelValues(source).Observe(took.Seconds())
}

// IncFallback records a fallback to the demo dataset.
func IncFallback(source string) {
	fallbackTotal.WithLabelValues(source).Inc()
}
