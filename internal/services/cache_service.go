package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"takeoff-service/internal/logger"
	"takeoff-service/internal/metrics"
	"takeoff-service/internal/models"
	"takeoff-service/internal/services/cache"
)

// CacheService is the content-hash keyed bundle cache. Lookups walk the
// configured layers from fastest to slowest and promote hits found in a
// slower layer to the optimal one.
type CacheService struct {
	strategy *CacheStrategy
	metrics  *metrics.Metrics
	log      *logger.Logger
	now      func() time.Time

	// Performance tracking
	strategyHits   map[string]int64
	strategyMisses map[string]int64
	mu             sync.RWMutex
}

type MultiLayerCacheStats struct {
	Layers   []cache.LayerStats `json:"layers"`
	Strategy StrategyStats      `json:"strategy"`
	Hits     map[string]int64   `json:"hits"`
	Misses   map[string]int64   `json:"misses"`
}

func NewCacheService(strategy *CacheStrategy, log *logger.Logger, m *metrics.Metrics) *CacheService {
	if log == nil {
		log = logger.NewNop()
	}
	return &CacheService{
		strategy:       strategy,
		metrics:        m,
		log:            log,
		now:            time.Now,
		strategyHits:   make(map[string]int64),
		strategyMisses: make(map[string]int64),
	}
}

// Get returns the cached bundle for a hash. Expired bundles are evicted and
// reported as a miss.
func (s *CacheService) Get(ctx context.Context, hash string, timings *metrics.LoadTimings) (*models.Bundle, bool) {
	for _, layer := range s.strategy.Layers() {
		attempt := timings.StartCacheLayerAttempt(layer.Name())
		data, err := layer.Get(ctx, hash)
		if err != nil {
			if errors.Is(err, cache.ErrNotFound) {
				err = nil
			} else {
				s.log.Warn("cache layer lookup failed", "layer", layer.Name(), "hash", hash, "error", err)
			}
			timings.EndCacheLayerAttempt(attempt, false, err)
			s.recordStrategyMiss(layer.Name())
			continue
		}

		var bundle models.Bundle
		if err := json.Unmarshal(data, &bundle); err != nil {
			timings.EndCacheLayerAttempt(attempt, false, err)
			s.log.Warn("dropping undecodable cache entry", "layer", layer.Name(), "hash", hash, "error", err)
			_ = layer.Delete(ctx, hash)
			s.recordStrategyMiss(layer.Name())
			continue
		}

		if bundle.Expired(s.now()) {
			timings.EndCacheLayerAttempt(attempt, false, nil)
			s.log.Debug("cached bundle expired", "layer", layer.Name(), "hash", hash)
			_ = s.Delete(ctx, hash)
			s.recordStrategyMiss(layer.Name())
			return nil, false
		}

		timings.EndCacheLayerAttempt(attempt, true, nil)
		s.recordStrategyHit(layer.Name())
		s.log.Debug("cache hit", "layer", layer.Name(), "hash", hash, "bytes", len(data))

		if optimal := s.strategy.GetOptimalCache(int64(len(data))); optimal != nil && optimal != layer {
			s.promote(ctx, optimal, hash, data)
		}
		return &bundle, true
	}
	return nil, false
}

// Put encodes a bundle and stores it in the layer matching its size.
func (s *CacheService) Put(ctx context.Context, bundle *models.Bundle) error {
	stored := *bundle
	stored.CacheHit = false
	data, err := json.Marshal(&stored)
	if err != nil {
		return errors.Wrap(err, "encode bundle")
	}
	layer := s.strategy.GetOptimalCache(int64(len(data)))
	if layer == nil {
		return fmt.Errorf("bundle too large for caching: %d bytes", len(data))
	}
	if err := layer.Store(ctx, bundle.Hash, data); err != nil {
		return fmt.Errorf("failed to store in %s cache: %w", layer.Name(), err)
	}
	s.updateObjectCount()
	return nil
}

// Delete removes a hash from every layer.
func (s *CacheService) Delete(ctx context.Context, hash string) error {
	var firstErr error
	for _, layer := range s.strategy.Layers() {
		if err := layer.Delete(ctx, hash); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", layer.Name(), err)
		}
	}
	s.updateObjectCount()
	return firstErr
}

// Clear empties every layer and resets the hit statistics.
func (s *CacheService) Clear(ctx context.Context) error {
	for _, layer := range s.strategy.Layers() {
		if err := layer.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear %s cache: %w", layer.Name(), err)
		}
	}
	s.mu.Lock()
	s.strategyHits = make(map[string]int64)
	s.strategyMisses = make(map[string]int64)
	s.mu.Unlock()
	s.updateObjectCount()
	return nil
}

func (s *CacheService) GetStats() MultiLayerCacheStats {
	stats := MultiLayerCacheStats{
		Strategy: s.strategy.Stats(),
		Hits:     make(map[string]int64),
		Misses:   make(map[string]int64),
	}
	for _, layer := range s.strategy.Layers() {
		stats.Layers = append(stats.Layers, layer.GetStats())
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, v := range s.strategyHits {
		stats.Hits[k] = v
	}
	for k, v := range s.strategyMisses {
		stats.Misses[k] = v
	}
	return stats
}

func (s *CacheService) promote(ctx context.Context, layer cache.CacheLayer, hash string, data []byte) {
	start := time.Now()
	if err := layer.Store(ctx, hash, data); err != nil {
		s.log.Warn("cache promotion failed", "layer", layer.Name(), "hash", hash, "error", err)
		return
	}
	s.log.Debug("promoted bundle", "layer", layer.Name(), "hash", hash, "took", time.Since(start))
}

func (s *CacheService) updateObjectCount() {
	layers := s.strategy.Layers()
	if len(layers) == 0 {
		return
	}
	s.metrics.SetCacheObjectCount(int64(layers[0].GetStats().Objects))
}

func (s *CacheService) recordStrategyHit(layer string) {
	s.mu.Lock()
	s.strategyHits[layer]++
	s.mu.Unlock()
	s.metrics.IncrementCacheHits(layer)
}

func (s *CacheService) recordStrategyMiss(layer string) {
	s.mu.Lock()
	s.strategyMisses[layer]++
	s.mu.Unlock()
	s.metrics.IncrementCacheMisses(layer)
}
