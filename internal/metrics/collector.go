package metrics

import (
	"fmt"
	"sync"
	"time"
)

// LoadTimings holds the latency breakdown of one model load
type LoadTimings struct {
	mu sync.RWMutex

	StartTime      time.Time `json:"-"`
	TotalLatencyMs float64   `json:"totalLatencyMs"`

	// Cache layer attempts in the order they were made
	CacheLayers []LayerMetrics `json:"cacheLayers"`

	Hash           string `json:"hash"`
	Size           int64  `json:"size"`
	CacheHit       bool   `json:"cacheHit"`
	CacheLayerUsed string `json:"cacheLayerUsed,omitempty"`
	Strategy       string `json:"strategy"`

	Timings map[string]float64 `json:"timings"`
	started map[string]time.Time
}

// LayerMetrics represents metrics for a single cache layer attempt
type LayerMetrics struct {
	LayerName string    `json:"layerName"`
	StartTime time.Time `json:"-"`
	LatencyMs float64   `json:"latencyMs"`
	Hit       bool      `json:"hit"`
	Error     string    `json:"error,omitempty"`
}

// NewLoadTimings creates a new timing collector
func NewLoadTimings(strategy string) *LoadTimings {
	return &LoadTimings{
		StartTime:   time.Now(),
		Strategy:    strategy,
		CacheLayers: make([]LayerMetrics, 0),
		Timings:     make(map[string]float64),
		started:     make(map[string]time.Time),
	}
}

// Start marks the start of a named stage
func (m *LoadTimings) Start(stage string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started[stage] = time.Now()
}

// End marks the end of a named stage started with Start
func (m *LoadTimings) End(stage string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.started[stage]; ok {
		m.Timings[stage] = ms(time.Since(t))
		delete(m.started, stage)
	}
}

// StartCacheLayerAttempt starts timing for a cache layer attempt
func (m *LoadTimings) StartCacheLayerAttempt(layerName string) *LayerMetrics {
	return &LayerMetrics{
		LayerName: layerName,
		StartTime: time.Now(),
	}
}

// EndCacheLayerAttempt ends timing for a cache layer attempt
func (m *LoadTimings) EndCacheLayerAttempt(layer *LayerMetrics, hit bool, err error) {
	if m == nil || layer == nil || layer.StartTime.IsZero() {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	layer.LatencyMs = ms(time.Since(layer.StartTime))
	layer.Hit = hit
	if err != nil {
		layer.Error = err.Error()
	}

	m.CacheLayers = append(m.CacheLayers, *layer)
	m.Timings["cache_"+layer.LayerName] = layer.LatencyMs

	if hit {
		m.CacheHit = true
		m.CacheLayerUsed = layer.LayerName
	}
}

// SetObject records the hash and size of the processed input
func (m *LoadTimings) SetObject(hash string, size int64) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Hash = hash
	m.Size = size
}

// Finalize calculates final metrics
func (m *LoadTimings) Finalize() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalLatencyMs = ms(time.Since(m.StartTime))
	m.Timings["total"] = m.TotalLatencyMs

	var waterfall float64
	for _, layer := range m.CacheLayers {
		waterfall += layer.LatencyMs
	}
	if waterfall > 0 {
		m.Timings["cache_waterfall"] = waterfall
	}
}

// Snapshot returns a copy of the recorded stage timings
func (m *LoadTimings) Snapshot() map[string]float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]float64, len(m.Timings))
	for k, v := range m.Timings {
		out[k] = v
	}
	return out
}

// GetHeaders returns HTTP headers with latency metrics
func (m *LoadTimings) GetHeaders() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	headers := make(map[string]string)
	headers["X-Latency-Total-Ms"] = formatFloat(m.TotalLatencyMs)
	headers["X-Cache-Hit"] = formatBool(m.CacheHit)
	if m.CacheHit {
		headers["X-Cache-Layer-Used"] = m.CacheLayerUsed
	}
	for _, layer := range m.CacheLayers {
		headers["X-Latency-Cache-"+layer.LayerName+"-Ms"] = formatFloat(layer.LatencyMs)
	}
	for _, stage := range []string{"cache", "parse", "normalize", "hierarchy", "aggregate", "remote", "store"} {
		if v, ok := m.Timings[stage]; ok {
			headers["X-Latency-"+stage+"-Ms"] = formatFloat(v)
		}
	}
	headers["X-Model-Hash"] = m.Hash
	headers["X-Model-Size-Bytes"] = fmt.Sprintf("%d", m.Size)
	headers["X-Pipeline-Strategy"] = m.Strategy
	return headers
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
