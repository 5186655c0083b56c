package services

import (
	"takeoff-service/internal/logger"
	"takeoff-service/internal/services/cache"
)

const (
	SmallBundleThreshold  = 8 << 20   // 8MB - In-Memory Cache
	MediumBundleThreshold = 32 << 20  // 32MB - File System Cache
	LargeBundleThreshold  = 100 << 20 // 100MB - Redis Cache
)

// CacheStrategy picks the cache layer for an encoded bundle by its size.
// Layers that are not configured are skipped in favour of the next larger one.
type CacheStrategy struct {
	memoryCache cache.CacheLayer
	fileCache   cache.CacheLayer
	redisCache  cache.CacheLayer
	log         *logger.Logger
}

type StrategyStats struct {
	SmallBundleThreshold  int64 `json:"smallBundleThreshold"`
	MediumBundleThreshold int64 `json:"mediumBundleThreshold"`
	LargeBundleThreshold  int64 `json:"largeBundleThreshold"`
}

// NewCacheStrategy combines the configured layers; any of them may be nil.
func NewCacheStrategy(memory, file, redis cache.CacheLayer, log *logger.Logger) *CacheStrategy {
	if log == nil {
		log = logger.NewNop()
	}
	return &CacheStrategy{
		memoryCache: memory,
		fileCache:   file,
		redisCache:  redis,
		log:         log,
	}
}

// Layers returns the configured layers from fastest to slowest.
func (cs *CacheStrategy) Layers() []cache.CacheLayer {
	var out []cache.CacheLayer
	for _, l := range []cache.CacheLayer{cs.memoryCache, cs.fileCache, cs.redisCache} {
		if l != nil {
			out = append(out, l)
		}
	}
	return out
}

// GetOptimalCache determines which cache layer to use based on bundle size
func (cs *CacheStrategy) GetOptimalCache(size int64) cache.CacheLayer {
	candidates := []struct {
		limit int64
		layer cache.CacheLayer
	}{
		{SmallBundleThreshold, cs.memoryCache},
		{MediumBundleThreshold, cs.fileCache},
		{LargeBundleThreshold, cs.redisCache},
	}
	for _, c := range candidates {
		if size <= c.limit && c.layer != nil {
			cs.log.Debug("cache strategy selected layer", "layer", c.layer.Name(), "bytes", size)
			return c.layer
		}
	}
	cs.log.Debug("bundle too large for any cache layer", "bytes", size)
	return nil
}

func (cs *CacheStrategy) Stats() StrategyStats {
	return StrategyStats{
		SmallBundleThreshold:  SmallBundleThreshold,
		MediumBundleThreshold: MediumBundleThreshold,
		LargeBundleThreshold:  LargeBundleThreshold,
	}
}
