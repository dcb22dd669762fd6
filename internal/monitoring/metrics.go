// Package monitoring exposes Prometheus metrics for the prefetch pipeline.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for one pipeline instance.
type Metrics struct {
	// Producer metrics
	MinibatchesAssembled prometheus.Counter
	AssemblyErrors       prometheus.Counter
	AssembleDuration     prometheus.Histogram

	// Queue metrics
	MinibatchQueueDepth prometheus.Gauge
	DeviceQueueDepth    *prometheus.GaugeVec

	// Consumer metrics
	DequeueDuration prometheus.Histogram

	// Lifecycle metrics
	PrefillSeconds prometheus.Gauge
}

// NewMetrics creates a metrics collector registered against reg. Pass
// prometheus.DefaultRegisterer in the binary; tests use a fresh registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		MinibatchesAssembled: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "prefetch_minibatches_assembled_total",
				Help: "Total number of minibatches assembled by producer workers",
			},
		),
		AssemblyErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "prefetch_assembly_errors_total",
				Help: "Total number of minibatch assembly failures",
			},
		),
		AssembleDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "prefetch_assemble_duration_seconds",
				Help:    "Minibatch assembly duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
		),
		MinibatchQueueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "prefetch_minibatch_queue_depth",
				Help: "Current occupancy of the CPU-side minibatch queue",
			},
		),
		DeviceQueueDepth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "prefetch_device_queue_depth",
				Help: "Current occupancy of each device blob queue",
			},
			[]string{"queue"},
		),
		DequeueDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "prefetch_dequeue_duration_seconds",
				Help:    "Consumer-side dequeue duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
		),
		PrefillSeconds: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "prefetch_prefill_seconds",
				Help: "Wall time spent filling the device queues before measurement",
			},
		),
	}
}

// NewNopMetrics creates a collector backed by a throwaway registry, for
// callers that do not care about scraping.
func NewNopMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}
