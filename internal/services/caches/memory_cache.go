package caches

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"takeoff-service/internal/logger"
	"takeoff-service/internal/services/cache"
)

type MemoryCache struct {
	data        sync.Map // map[string][]byte
	metadata    sync.Map // map[string]*MemoryCacheEntry
	maxSize     int64
	currentSize int64
	ttl         time.Duration
	log         *logger.Logger
	stop        chan struct{}
	stopOnce    sync.Once

	// Statistics
	hits   atomic.Int64
	misses atomic.Int64
}

type MemoryCacheEntry struct {
	Size        int64
	CreatedAt   time.Time
	LastAccess  atomic.Int64 // unix nanos
	AccessCount atomic.Int64
}

func NewMemoryCache(maxSizeBytes int64, ttl time.Duration, log *logger.Logger) *MemoryCache {
	if log == nil {
		log = logger.NewNop()
	}
	mc := &MemoryCache{
		maxSize: maxSizeBytes,
		ttl:     ttl,
		log:     log,
		stop:    make(chan struct{}),
	}

	go mc.cleanupExpired(time.Minute)

	return mc
}

func (mc *MemoryCache) Name() string {
	return "MEMORY"
}

func (mc *MemoryCache) Store(_ context.Context, key string, data []byte) error {
	size := int64(len(data))
	if size > mc.maxSize {
		return fmt.Errorf("object of size %d exceeds memory cache capacity %d", size, mc.maxSize)
	}

	// Replacing an entry frees its space first
	mc.remove(key)

	for atomic.LoadInt64(&mc.currentSize)+size > mc.maxSize {
		if !mc.evictLRU() {
			return fmt.Errorf("unable to free space for object of size %d", size)
		}
	}

	entry := &MemoryCacheEntry{Size: size, CreatedAt: time.Now()}
	entry.LastAccess.Store(time.Now().UnixNano())
	mc.data.Store(key, data)
	mc.metadata.Store(key, entry)

	atomic.AddInt64(&mc.currentSize, size)
	mc.log.Debug("memory cache stored object", "key", key, "bytes", size)

	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	if meta, ok := mc.metadata.Load(key); ok {
		entry := meta.(*MemoryCacheEntry)
		if mc.expired(entry, time.Now()) {
			mc.remove(key)
		} else if value, ok := mc.data.Load(key); ok {
			entry.LastAccess.Store(time.Now().UnixNano())
			entry.AccessCount.Add(1)
			mc.hits.Add(1)
			return value.([]byte), nil
		}
	}

	mc.misses.Add(1)
	return nil, cache.ErrNotFound
}

func (mc *MemoryCache) Exists(_ context.Context, key string) (bool, error) {
	meta, ok := mc.metadata.Load(key)
	if !ok {
		return false, nil
	}
	return !mc.expired(meta.(*MemoryCacheEntry), time.Now()), nil
}

func (mc *MemoryCache) Delete(_ context.Context, key string) error {
	if size, ok := mc.remove(key); ok {
		mc.log.Debug("memory cache deleted object", "key", key, "bytes", size)
	}
	return nil
}

func (mc *MemoryCache) Clear(_ context.Context) error {
	mc.data.Range(func(key, value interface{}) bool {
		mc.data.Delete(key)
		return true
	})
	mc.metadata.Range(func(key, value interface{}) bool {
		mc.metadata.Delete(key)
		return true
	})
	atomic.StoreInt64(&mc.currentSize, 0)
	mc.hits.Store(0)
	mc.misses.Store(0)

	mc.log.Info("memory cache cleared")
	return nil
}

func (mc *MemoryCache) GetStats() cache.LayerStats {
	hits := mc.hits.Load()
	misses := mc.misses.Load()

	objectCount := 0
	mc.data.Range(func(key, value interface{}) bool {
		objectCount++
		return true
	})

	return cache.LayerStats{
		Name:         "Memory",
		Objects:      objectCount,
		SizeBytes:    atomic.LoadInt64(&mc.currentSize),
		Hits:         hits,
		Misses:       misses,
		HitRate:      cache.HitRate(hits, misses),
		AvgLatencyMs: 0.1,
	}
}

// Close stops the expiry goroutine.
func (mc *MemoryCache) Close() {
	mc.stopOnce.Do(func() { close(mc.stop) })
}

func (mc *MemoryCache) expired(entry *MemoryCacheEntry, now time.Time) bool {
	return mc.ttl > 0 && now.Sub(entry.CreatedAt) > mc.ttl
}

func (mc *MemoryCache) remove(key string) (int64, bool) {
	meta, ok := mc.metadata.LoadAndDelete(key)
	if !ok {
		return 0, false
	}
	entry := meta.(*MemoryCacheEntry)
	atomic.AddInt64(&mc.currentSize, -entry.Size)
	mc.data.Delete(key)
	return entry.Size, true
}

func (mc *MemoryCache) evictLRU() bool {
	var oldestKey string
	var oldest int64

	mc.metadata.Range(func(key, value interface{}) bool {
		entry := value.(*MemoryCacheEntry)
		if last := entry.LastAccess.Load(); oldestKey == "" || last < oldest {
			oldestKey = key.(string)
			oldest = last
		}
		return true
	})

	if oldestKey == "" {
		return false
	}
	mc.remove(oldestKey)
	return true
}

func (mc *MemoryCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-mc.stop:
			return
		case now := <-ticker.C:
			var expiredKeys []string
			mc.metadata.Range(func(key, value interface{}) bool {
				if mc.expired(value.(*MemoryCacheEntry), now) {
					expiredKeys = append(expiredKeys, key.(string))
				}
				return true
			})

			for _, key := range expiredKeys {
				mc.remove(key)
			}

			if len(expiredKeys) > 0 {
				mc.log.Info("memory cache cleaned up expired objects", "count", len(expiredKeys))
			}
		}
	}
}
