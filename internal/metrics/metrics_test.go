package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTimingsHeaders(t *testing.T) {
	lt := NewLoadTimings("worker")
	lt.SetObject("abc", 42)
	lt.Start("parse")
	lt.End("parse")
	lt.End("never-started")

	miss := lt.StartCacheLayerAttempt("MEMORY")
	lt.EndCacheLayerAttempt(miss, false, errors.New("boom"))
	hit := lt.StartCacheLayerAttempt("FILESYSTEM")
	lt.EndCacheLayerAttempt(hit, true, nil)
	lt.Finalize()

	h := lt.GetHeaders()
	assert.Equal(t, "true", h["X-Cache-Hit"])
	assert.Equal(t, "FILESYSTEM", h["X-Cache-Layer-Used"])
	assert.Equal(t, "abc", h["X-Model-Hash"])
	assert.Equal(t, "42", h["X-Model-Size-Bytes"])
	assert.Equal(t, "worker", h["X-Pipeline-Strategy"])
	assert.Contains(t, h, "X-Latency-parse-Ms")
	assert.Contains(t, h, "X-Latency-Cache-MEMORY-Ms")

	snap := lt.Snapshot()
	assert.Contains(t, snap, "total")
	assert.NotContains(t, snap, "never-started")
	require.Len(t, lt.CacheLayers, 2)
	assert.Equal(t, "boom", lt.CacheLayers[0].Error)
}

func TestNilReceiversAreSafe(t *testing.T) {
	var lt *LoadTimings
	lt.Start("parse")
	lt.End("parse")
	lt.EndCacheLayerAttempt(lt.StartCacheLayerAttempt("MEMORY"), true, nil)
	lt.Finalize()

	var m *Metrics
	m.RecordLoad("local", "ok")
	m.RecordTimings(NewLoadTimings("local"))
	m.IncrementCacheHits("MEMORY")
	m.IncrementStale()
	m.ObserveModel(1, 1)
}

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordLoad("local", "ok")
	m.RecordLoad("local", "ok")
	m.IncrementCacheHits("MEMORY")
	m.IncrementStale()
	m.SetCacheObjectCount(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.modelsProcessed.WithLabelValues("local", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.staleResults))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.cacheObjects))

	lt := NewLoadTimings("local")
	lt.Start("aggregate")
	lt.End("aggregate")
	lt.Finalize()
	m.RecordTimings(lt)

	count, err := testutil.GatherAndCount(reg, "pipeline_stage_latency_ms")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
