package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics of the service
type Metrics struct {
	modelsProcessed *prometheus.CounterVec
	stageLatency    *prometheus.HistogramVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	cacheObjects    prometheus.Gauge
	staleResults    prometheus.Counter
	uploadSize      prometheus.Histogram
	elements        prometheus.Histogram
}

// New creates and registers all metrics on the given registerer
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		modelsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "models_processed_total",
				Help: "Total number of model loads by strategy and outcome",
			},
			[]string{"strategy", "status"},
		),
		stageLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pipeline_stage_latency_ms",
				Help:    "Latency of pipeline stages in milliseconds",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
			},
			[]string{"stage"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bundle_cache_hits_total",
				Help: "Total number of bundle cache hits",
			},
			[]string{"layer"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bundle_cache_misses_total",
				Help: "Total number of bundle cache misses",
			},
			[]string{"layer"},
		),
		cacheObjects: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bundle_cache_object_count",
				Help: "Number of bundles in the primary cache layer",
			},
		),
		staleResults: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pipeline_stale_results_total",
				Help: "Load results discarded because a newer load superseded them",
			},
		),
		uploadSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "model_upload_size_bytes",
				Help:    "Size of uploaded model files",
				Buckets: prometheus.ExponentialBuckets(64*1024, 4, 8),
			},
		),
		elements: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "model_element_count",
				Help:    "Number of element records per processed model",
				Buckets: prometheus.ExponentialBuckets(10, 4, 8),
			},
		),
	}
}

// RecordLoad counts one finished load
func (m *Metrics) RecordLoad(strategy, status string) {
	if m == nil {
		return
	}
	m.modelsProcessed.WithLabelValues(strategy, status).Inc()
}

// RecordStage records the latency of a pipeline stage
func (m *Metrics) RecordStage(stage string, milliseconds float64) {
	if m == nil {
		return
	}
	m.stageLatency.WithLabelValues(stage).Observe(milliseconds)
}

// RecordTimings records every stage of a load timing breakdown
func (m *Metrics) RecordTimings(t *LoadTimings) {
	if m == nil || t == nil {
		return
	}
	for stage, ms := range t.Snapshot() {
		m.RecordStage(stage, ms)
	}
}

// IncrementCacheHits increments the cache hits counter
func (m *Metrics) IncrementCacheHits(layer string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(layer).Inc()
}

// IncrementCacheMisses increments the cache misses counter
func (m *Metrics) IncrementCacheMisses(layer string) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(layer).Inc()
}

// SetCacheObjectCount sets the number of cached bundles
func (m *Metrics) SetCacheObjectCount(count int64) {
	if m == nil {
		return
	}
	m.cacheObjects.Set(float64(count))
}

// IncrementStale counts a discarded stale result
func (m *Metrics) IncrementStale() {
	if m == nil {
		return
	}
	m.staleResults.Inc()
}

// ObserveModel records the size of an upload and its element count
func (m *Metrics) ObserveModel(bytes int64, elements int) {
	if m == nil {
		return
	}
	m.uploadSize.Observe(float64(bytes))
	m.elements.Observe(float64(elements))
}
