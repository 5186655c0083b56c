package cache

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when a key is absent or expired.
var ErrNotFound = errors.New("not found in cache")

// CacheLayer stores encoded bundles by content hash.
type CacheLayer interface {
	Name() string
	Store(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	GetStats() LayerStats
}

type LayerStats struct {
	Name         string  `json:"name"`
	Objects      int     `json:"objects"`
	SizeBytes    int64   `json:"sizeBytes"`
	Hits         int64   `json:"hits"`
	Misses       int64   `json:"misses"`
	HitRate      float64 `json:"hitRate"`
	AvgLatencyMs float64 `json:"avgLatencyMs"`
}

// HitRate returns hits as a percentage of all lookups.
func HitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}
