package caches

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"takeoff-service/internal/logger"
	"takeoff-service/internal/services/cache"
)

const bundleExt = ".bundle.json"

type FileSystemCache struct {
	basePath    string
	maxSize     int64
	currentSize int64
	ttl         time.Duration
	mu          sync.RWMutex
	log         *logger.Logger
	stop        chan struct{}
	stopOnce    sync.Once

	// Statistics
	hits   atomic.Int64
	misses atomic.Int64
}

func NewFileSystemCache(basePath string, maxSizeBytes int64, ttl time.Duration, log *logger.Logger) (*FileSystemCache, error) {
	if log == nil {
		log = logger.NewNop()
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	fsc := &FileSystemCache{
		basePath: basePath,
		maxSize:  maxSizeBytes,
		ttl:      ttl,
		log:      log,
		stop:     make(chan struct{}),
	}

	fsc.calculateCurrentSize()

	go fsc.cleanupExpired(10 * time.Minute)

	return fsc, nil
}

func (fsc *FileSystemCache) Name() string {
	return "FILESYSTEM"
}

func (fsc *FileSystemCache) Store(_ context.Context, key string, data []byte) error {
	if !validKey(key) {
		return fmt.Errorf("invalid cache key %q", key)
	}
	fsc.mu.Lock()
	defer fsc.mu.Unlock()

	size := int64(len(data))
	if size > fsc.maxSize {
		return fmt.Errorf("object of size %d exceeds file cache capacity %d", size, fsc.maxSize)
	}

	filePath := fsc.getFilePath(key)
	if stat, err := os.Stat(filePath); err == nil {
		if os.Remove(filePath) == nil {
			atomic.AddInt64(&fsc.currentSize, -stat.Size())
		}
	}

	for atomic.LoadInt64(&fsc.currentSize)+size > fsc.maxSize {
		if !fsc.evictOldestFile() {
			return fmt.Errorf("unable to free space for file of size %d", size)
		}
	}

	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	atomic.AddInt64(&fsc.currentSize, size)
	fsc.log.Debug("file cache stored object", "key", key, "bytes", size, "path", filePath)

	return nil
}

func (fsc *FileSystemCache) Get(_ context.Context, key string) ([]byte, error) {
	if !validKey(key) {
		fsc.misses.Add(1)
		return nil, cache.ErrNotFound
	}
	fsc.mu.RLock()
	defer fsc.mu.RUnlock()

	filePath := fsc.getFilePath(key)
	stat, err := os.Stat(filePath)
	if err != nil || fsc.expired(stat, time.Now()) {
		fsc.misses.Add(1)
		return nil, cache.ErrNotFound
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		fsc.misses.Add(1)
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	fsc.hits.Add(1)
	return data, nil
}

func (fsc *FileSystemCache) Exists(_ context.Context, key string) (bool, error) {
	if !validKey(key) {
		return false, nil
	}
	stat, err := os.Stat(fsc.getFilePath(key))
	if err != nil {
		return false, nil
	}
	return !fsc.expired(stat, time.Now()), nil
}

func (fsc *FileSystemCache) Delete(_ context.Context, key string) error {
	if !validKey(key) {
		return nil
	}
	fsc.mu.Lock()
	defer fsc.mu.Unlock()

	filePath := fsc.getFilePath(key)
	if stat, err := os.Stat(filePath); err == nil {
		size := stat.Size()
		if err := os.Remove(filePath); err == nil {
			atomic.AddInt64(&fsc.currentSize, -size)
			fsc.log.Debug("file cache deleted object", "key", key, "bytes", size)
		}
	}

	return nil
}

func (fsc *FileSystemCache) Clear(_ context.Context) error {
	fsc.mu.Lock()
	defer fsc.mu.Unlock()

	err := os.RemoveAll(fsc.basePath)
	if err == nil {
		err = os.MkdirAll(fsc.basePath, 0o755)
		atomic.StoreInt64(&fsc.currentSize, 0)
		fsc.hits.Store(0)
		fsc.misses.Store(0)
		fsc.log.Info("file cache cleared")
	}

	return err
}

func (fsc *FileSystemCache) GetStats() cache.LayerStats {
	hits := fsc.hits.Load()
	misses := fsc.misses.Load()

	return cache.LayerStats{
		Name:         "FileSystem",
		Objects:      fsc.countFiles(),
		SizeBytes:    atomic.LoadInt64(&fsc.currentSize),
		Hits:         hits,
		Misses:       misses,
		HitRate:      cache.HitRate(hits, misses),
		AvgLatencyMs: 5,
	}
}

// Close stops the expiry goroutine.
func (fsc *FileSystemCache) Close() {
	fsc.stopOnce.Do(func() { close(fsc.stop) })
}

// validKey rejects keys that could escape the cache directory.
func validKey(key string) bool {
	return key != "" && !strings.ContainsAny(key, `/\.`)
}

func (fsc *FileSystemCache) getFilePath(key string) string {
	return filepath.Join(fsc.basePath, key+bundleExt)
}

func (fsc *FileSystemCache) expired(info os.FileInfo, now time.Time) bool {
	return fsc.ttl > 0 && now.Sub(info.ModTime()) > fsc.ttl
}

func (fsc *FileSystemCache) walkBundles(fn func(path string, info os.FileInfo)) {
	filepath.Walk(fsc.basePath, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() && strings.HasSuffix(path, bundleExt) {
			fn(path, info)
		}
		return nil
	})
}

func (fsc *FileSystemCache) calculateCurrentSize() {
	var totalSize int64
	fsc.walkBundles(func(_ string, info os.FileInfo) {
		totalSize += info.Size()
	})
	atomic.StoreInt64(&fsc.currentSize, totalSize)
}

func (fsc *FileSystemCache) countFiles() int {
	count := 0
	fsc.walkBundles(func(string, os.FileInfo) { count++ })
	return count
}

func (fsc *FileSystemCache) evictOldestFile() bool {
	var oldestPath string
	var oldestTime time.Time
	var oldestSize int64

	fsc.walkBundles(func(path string, info os.FileInfo) {
		if oldestPath == "" || info.ModTime().Before(oldestTime) {
			oldestPath = path
			oldestTime = info.ModTime()
			oldestSize = info.Size()
		}
	})

	if oldestPath != "" && os.Remove(oldestPath) == nil {
		atomic.AddInt64(&fsc.currentSize, -oldestSize)
		return true
	}
	return false
}

func (fsc *FileSystemCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-fsc.stop:
			return
		case now := <-ticker.C:
			fsc.mu.Lock()
			removed := 0
			fsc.walkBundles(func(path string, info os.FileInfo) {
				if fsc.expired(info, now) && os.Remove(path) == nil {
					atomic.AddInt64(&fsc.currentSize, -info.Size())
					removed++
				}
			})
			fsc.mu.Unlock()

			if removed > 0 {
				fsc.log.Info("file cache cleaned up expired files", "count", removed)
			}
		}
	}
}
