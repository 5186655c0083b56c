package caches

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"takeoff-service/internal/logger"
	"takeoff-service/internal/services/cache"
	"takeoff-service/internal/storage"
)

const redisKeyPrefix = "bundle:"

type RedisCache struct {
	client *storage.RedisClient
	ttl    time.Duration
	log    *logger.Logger

	// Statistics
	hits   atomic.Int64
	misses atomic.Int64
}

func NewRedisCache(client *storage.RedisClient, ttl time.Duration, log *logger.Logger) *RedisCache {
	if log == nil {
		log = logger.NewNop()
	}
	return &RedisCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

func (rc *RedisCache) Name() string {
	return "REDIS"
}

func (rc *RedisCache) Store(ctx context.Context, key string, data []byte) error {
	if err := rc.client.SetBytes(ctx, redisKeyPrefix+key, data, rc.ttl); err != nil {
		return fmt.Errorf("failed to store in Redis: %w", err)
	}

	rc.log.Debug("redis cache stored object", "key", key, "bytes", len(data))
	return nil
}

func (rc *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := rc.client.GetBytes(ctx, redisKeyPrefix+key)
	if err != nil {
		rc.misses.Add(1)
		return nil, fmt.Errorf("redis error: %w", err)
	}

	if data == nil {
		rc.misses.Add(1)
		return nil, cache.ErrNotFound
	}

	rc.hits.Add(1)
	return data, nil
}

func (rc *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := rc.client.Exists(ctx, redisKeyPrefix+key)
	return n > 0, err
}

func (rc *RedisCache) Delete(ctx context.Context, key string) error {
	return rc.client.Delete(ctx, redisKeyPrefix+key)
}

func (rc *RedisCache) Clear(ctx context.Context) error {
	keys, err := rc.client.Keys(ctx, redisKeyPrefix+"*")
	if err != nil {
		return err
	}

	if err := rc.client.Delete(ctx, keys...); err != nil {
		return err
	}

	rc.hits.Store(0)
	rc.misses.Store(0)

	rc.log.Info("redis cache cleared", "count", len(keys))
	return nil
}

func (rc *RedisCache) GetStats() cache.LayerStats {
	hits := rc.hits.Load()
	misses := rc.misses.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var size int64
	keys, _ := rc.client.Keys(ctx, redisKeyPrefix+"*")
	for _, k := range keys {
		if n, err := rc.client.StrLen(ctx, k); err == nil {
			size += n
		}
	}

	return cache.LayerStats{
		Name:         "Redis",
		Objects:      len(keys),
		SizeBytes:    size,
		Hits:         hits,
		Misses:       misses,
		HitRate:      cache.HitRate(hits, misses),
		AvgLatencyMs: 15,
	}
}
