package caches

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"takeoff-service/internal/services/cache"
	"takeoff-service/internal/storage"
)

func TestMemoryCacheStoreGet(t *testing.T) {
	mc := NewMemoryCache(1024, time.Hour, nil)
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Store(ctx, "a", []byte("bundle-a")))
	data, err := mc.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("bundle-a"), data)

	_, err = mc.Get(ctx, "missing")
	assert.ErrorIs(t, err, cache.ErrNotFound)

	stats := mc.GetStats()
	assert.Equal(t, 1, stats.Objects)
	assert.Equal(t, int64(8), stats.SizeBytes)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 50.0, stats.HitRate, 0.001)

	require.NoError(t, mc.Store(ctx, "a", []byte("v2")))
	assert.Equal(t, int64(2), mc.GetStats().SizeBytes)

	require.NoError(t, mc.Delete(ctx, "a"))
	ok, err := mc.Exists(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, mc.GetStats().SizeBytes)
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	mc := NewMemoryCache(10, time.Hour, nil)
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Store(ctx, "old", []byte("12345")))
	time.Sleep(time.Millisecond)
	require.NoError(t, mc.Store(ctx, "new", []byte("12345")))
	time.Sleep(time.Millisecond)
	_, err := mc.Get(ctx, "old")
	require.NoError(t, err)

	require.NoError(t, mc.Store(ctx, "third", []byte("123")))
	_, err = mc.Get(ctx, "new")
	assert.ErrorIs(t, err, cache.ErrNotFound)
	_, err = mc.Get(ctx, "old")
	assert.NoError(t, err)

	assert.Error(t, mc.Store(ctx, "huge", make([]byte, 11)))
}

func TestMemoryCacheTTL(t *testing.T) {
	mc := NewMemoryCache(1024, 10*time.Millisecond, nil)
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Store(ctx, "a", []byte("x")))
	time.Sleep(20 * time.Millisecond)

	_, err := mc.Get(ctx, "a")
	assert.ErrorIs(t, err, cache.ErrNotFound)
	assert.Zero(t, mc.GetStats().Objects)
}

func TestMemoryCacheClear(t *testing.T) {
	mc := NewMemoryCache(1024, time.Hour, nil)
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Store(ctx, "a", []byte("x")))
	require.NoError(t, mc.Store(ctx, "b", []byte("y")))
	require.NoError(t, mc.Clear(ctx))

	stats := mc.GetStats()
	assert.Zero(t, stats.Objects)
	assert.Zero(t, stats.SizeBytes)
	assert.Zero(t, stats.Hits)
}

func TestFileSystemCache(t *testing.T) {
	dir := t.TempDir()
	fc, err := NewFileSystemCache(dir, 1024, time.Hour, nil)
	require.NoError(t, err)
	defer fc.Close()
	ctx := context.Background()

	require.NoError(t, fc.Store(ctx, "abc123", []byte(`{"hash":"abc123"}`)))
	assert.FileExists(t, filepath.Join(dir, "abc123"+bundleExt))

	data, err := fc.Get(ctx, "abc123")
	require.NoError(t, err)
	assert.JSONEq(t, `{"hash":"abc123"}`, string(data))

	assert.Error(t, fc.Store(ctx, "../escape", []byte("x")))
	_, err = fc.Get(ctx, "../escape")
	assert.ErrorIs(t, err, cache.ErrNotFound)

	stats := fc.GetStats()
	assert.Equal(t, 1, stats.Objects)
	assert.Equal(t, int64(17), stats.SizeBytes)

	// a new instance picks up what is already on disk
	reopened, err := NewFileSystemCache(dir, 1024, time.Hour, nil)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, int64(17), reopened.GetStats().SizeBytes)

	require.NoError(t, fc.Delete(ctx, "abc123"))
	ok, err := fc.Exists(ctx, "abc123")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileSystemCacheExpiryAndEviction(t *testing.T) {
	dir := t.TempDir()
	fc, err := NewFileSystemCache(dir, 10, time.Hour, nil)
	require.NoError(t, err)
	defer fc.Close()
	ctx := context.Background()

	require.NoError(t, fc.Store(ctx, "old", []byte("12345")))
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "old"+bundleExt), past, past))

	_, err = fc.Get(ctx, "old")
	assert.ErrorIs(t, err, cache.ErrNotFound)

	require.NoError(t, fc.Store(ctx, "new", []byte("123456789")))
	assert.NoFileExists(t, filepath.Join(dir, "old"+bundleExt))

	require.NoError(t, fc.Clear(ctx))
	assert.Zero(t, fc.GetStats().Objects)
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	client, err := storage.NewRedisClient(ctx, addr, os.Getenv("REDIS_PASSWORD"), 0)
	require.NoError(t, err)
	defer client.Close()

	rc := NewRedisCache(client, time.Minute, nil)
	require.NoError(t, rc.Clear(ctx))

	require.NoError(t, rc.Store(ctx, "abc", []byte("bundle")))
	data, err := rc.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("bundle"), data)

	ok, err := rc.Exists(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, rc.GetStats().Objects)

	require.NoError(t, rc.Delete(ctx, "abc"))
	_, err = rc.Get(ctx, "abc")
	assert.ErrorIs(t, err, cache.ErrNotFound)
}
