// Package metrics exposes Prometheus collectors for compression jobs.
package metrics

import (
	"net/http"

	"pdf-compressor-go/internal/compressor"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors on a private registry. A nil *Metrics is a no-op.
type Metrics struct {
	registry *prometheus.Registry

	jobs            *prometheus.CounterVec
	bytesOriginal   prometheus.Counter
	bytesCompressed prometheus.Counter
	jobDuration     prometheus.Histogram
	batches         prometheus.Counter
	inFlight        prometheus.Gauge
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		jobs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pdf_compressor_jobs_total",
			Help: "Compression jobs by result and error kind",
		}, []string{"result", "kind"}),
		bytesOriginal: factory.NewCounter(prometheus.CounterOpts{
			Name: "pdf_compressor_original_bytes_total",
			Help: "Input bytes of successful jobs",
		}),
		bytesCompressed: factory.NewCounter(prometheus.CounterOpts{
			Name: "pdf_compressor_compressed_bytes_total",
			Help: "Output bytes of successful jobs",
		}),
		jobDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pdf_compressor_job_duration_seconds",
			Help:    "Wall-clock time per job",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}),
		batches: factory.NewCounter(prometheus.CounterOpts{
			Name: "pdf_compressor_batches_total",
			Help: "Batch invocations started",
		}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pdf_compressor_jobs_in_flight",
			Help: "Jobs currently running",
		}),
	}
}

// ObserveOutcome records a finished job.
func (m *Metrics) ObserveOutcome(o compressor.Outcome) {
	if m == nil {
		return
	}
	result := "success"
	if !o.Success {
		result = "failure"
	}
	m.jobs.WithLabelValues(result, string(o.Kind())).Inc()
	m.jobDuration.Observe(o.Duration.Seconds())
	if o.Success {
		m.bytesOriginal.Add(float64(o.OriginalSize))
		m.bytesCompressed.Add(float64(o.CompressedSize))
	}
}

// BatchStarted counts a batch invocation.
func (m *Metrics) BatchStarted() {
	if m == nil {
		return
	}
	m.batches.Inc()
}

// JobStarted and JobDone track in-flight jobs.
func (m *Metrics) JobStarted() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

func (m *Metrics) JobDone() {
	if m == nil {
		return
	}
	m.inFlight.Dec()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
