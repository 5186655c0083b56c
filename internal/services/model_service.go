package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"takeoff-service/internal/logger"
	"takeoff-service/internal/metrics"
	"takeoff-service/internal/models"
	"takeoff-service/internal/parser"
	"takeoff-service/internal/pipeline"
	"takeoff-service/internal/repository"
	"takeoff-service/internal/storage"
)

// BlobStore persists raw uploads and encoded bundles.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Remove(ctx context.Context, key string) error
}

// ModelService runs the server-assisted load path: content-hash lookup in
// the bundle cache, then the pipeline, then persistence of the result.
type ModelService struct {
	Parsers  *parser.Registry
	Strategy pipeline.Strategy
	Cache    *CacheService
	// Repo and Blobs are optional.
	Repo  repository.BundleRepository
	Blobs BlobStore

	MaxUploadBytes int64
	TTL            time.Duration

	metrics *metrics.Metrics
	log     *logger.Logger
	group   singleflight.Group
	now     func() time.Time
}

// NewModelService creates a ModelService. repo and blobs may be nil.
func NewModelService(parsers *parser.Registry, strategy pipeline.Strategy, cache *CacheService,
	repo repository.BundleRepository, blobs BlobStore, maxUpload int64, ttl time.Duration,
	log *logger.Logger, m *metrics.Metrics) *ModelService {
	if log == nil {
		log = logger.NewNop()
	}
	return &ModelService{
		Parsers:        parsers,
		Strategy:       strategy,
		Cache:          cache,
		Repo:           repo,
		Blobs:          blobs,
		MaxUploadBytes: maxUpload,
		TTL:            ttl,
		metrics:        m,
		log:            log,
		now:            time.Now,
	}
}

// HashContent returns the hex SHA-256 of data.
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// BuildBundle converts a pipeline result into its persisted form.
func BuildBundle(fileName, hash string, res *pipeline.Result, now time.Time, ttl time.Duration) *models.Bundle {
	b := &models.Bundle{
		FileName:    fileName,
		Hash:        hash,
		MeshCount:   res.MeshCount,
		Elements:    res.Elements,
		Materials:   res.Groups,
		Storeys:     res.Storeys,
		SpatialTree: res.Tree,
		CreatedAt:   now.UTC(),
	}
	if ttl > 0 {
		b.ExpiresAt = b.CreatedAt.Add(ttl)
	}
	return b
}

type processed struct {
	bundle  *models.Bundle
	timings *metrics.LoadTimings
}

// Process returns the bundle for an uploaded file. Identical bytes uploaded
// concurrently are processed once.
func (s *ModelService) Process(ctx context.Context, file pipeline.File) (*models.Bundle, *metrics.LoadTimings, error) {
	size := int64(len(file.Data))
	if s.MaxUploadBytes > 0 && size > s.MaxUploadBytes {
		s.metrics.RecordLoad(s.Strategy.Name(), pipeline.KindSizeLimit.String())
		return nil, nil, &pipeline.LoadError{
			Kind:    pipeline.KindSizeLimit,
			Suggest: pipeline.StrategyWorker,
			Err:     fmt.Errorf("file is %d bytes, limit is %d", size, s.MaxUploadBytes),
		}
	}
	if !s.Parsers.Supports(file.Name) {
		s.metrics.RecordLoad(s.Strategy.Name(), pipeline.KindUnsupported.String())
		return nil, nil, &pipeline.LoadError{
			Kind: pipeline.KindUnsupported,
			Err:  fmt.Errorf("%w: %q", parser.ErrUnsupported, file.Name),
		}
	}

	hash := HashContent(file.Data)
	// the flight outlives the caller that started it
	flightCtx := context.WithoutCancel(ctx)
	v, err, shared := s.group.Do(hash, func() (interface{}, error) {
		b, t, err := s.process(flightCtx, hash, file)
		if err != nil {
			return nil, err
		}
		return processed{bundle: b, timings: t}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	p := v.(processed)
	if shared {
		s.log.Debug("collapsed duplicate upload", "hash", hash)
		copied := *p.bundle
		return &copied, p.timings, nil
	}
	return p.bundle, p.timings, nil
}

func (s *ModelService) process(ctx context.Context, hash string, file pipeline.File) (*models.Bundle, *metrics.LoadTimings, error) {
	timings := metrics.NewLoadTimings(s.Strategy.Name())
	timings.SetObject(hash, int64(len(file.Data)))
	defer func() {
		timings.Finalize()
		s.metrics.RecordTimings(timings)
	}()

	timings.Start("cache")
	cached, ok := s.Cache.Get(ctx, hash, timings)
	timings.End("cache")
	if ok {
		cached.CacheHit = true
		s.metrics.RecordLoad(s.Strategy.Name(), "cache_hit")
		s.log.Info("served cached bundle", "hash", hash, "file", file.Name)
		return cached, timings, nil
	}

	if b := s.loadPersisted(ctx, hash, timings); b != nil {
		if err := s.Cache.Put(ctx, b); err != nil {
			s.log.Warn("re-caching persisted bundle failed", "hash", hash, "error", err)
		}
		b.CacheHit = true
		s.metrics.RecordLoad(s.Strategy.Name(), "cache_hit")
		return b, timings, nil
	}

	res, err := s.Strategy.Run(ctx, file, pipeline.Options{Log: s.log, Timings: timings})
	if err != nil {
		s.metrics.RecordLoad(s.Strategy.Name(), pipeline.KindOf(err).String())
		s.log.Warn("model processing failed", "file", file.Name, "hash", hash, "error", err)
		return nil, timings, err
	}

	bundle := BuildBundle(file.Name, hash, res, s.now(), s.TTL)
	s.metrics.RecordLoad(s.Strategy.Name(), "ok")
	s.metrics.ObserveModel(int64(len(file.Data)), len(bundle.Elements))

	timings.Start("store")
	if err := s.Cache.Put(ctx, bundle); err != nil {
		s.log.Warn("caching bundle failed", "hash", hash, "error", err)
	}
	s.persist(ctx, file, bundle)
	timings.End("store")

	s.log.Info("processed model", "file", file.Name, "hash", hash,
		"elements", len(bundle.Elements), "groups", len(bundle.Materials), "meshes", bundle.MeshCount)
	return bundle, timings, nil
}

func uploadKey(hash, fileName string) string {
	return "uploads/" + hash + strings.ToLower(filepath.Ext(fileName))
}

func bundleKey(hash string) string {
	return "bundles/" + hash + ".json"
}

func (s *ModelService) loadPersisted(ctx context.Context, hash string, timings *metrics.LoadTimings) *models.Bundle {
	if s.Blobs == nil {
		return nil
	}
	attempt := timings.StartCacheLayerAttempt("blob")
	data, err := s.Blobs.Get(ctx, bundleKey(hash))
	if err != nil {
		if !errors.Is(err, storage.ErrBlobNotFound) {
			s.log.Warn("blob lookup failed", "hash", hash, "error", err)
			timings.EndCacheLayerAttempt(attempt, false, err)
		} else {
			timings.EndCacheLayerAttempt(attempt, false, nil)
		}
		s.metrics.IncrementCacheMisses("blob")
		return nil
	}
	var b models.Bundle
	if err := json.Unmarshal(data, &b); err != nil || b.Expired(s.now()) {
		timings.EndCacheLayerAttempt(attempt, false, err)
		s.metrics.IncrementCacheMisses("blob")
		return nil
	}
	timings.EndCacheLayerAttempt(attempt, true, nil)
	s.metrics.IncrementCacheHits("blob")
	return &b
}

func (s *ModelService) persist(ctx context.Context, file pipeline.File, bundle *models.Bundle) {
	var storageKey string
	if s.Blobs != nil {
		key := uploadKey(bundle.Hash, file.Name)
		if err := s.Blobs.Put(ctx, key, file.Data, "application/octet-stream"); err != nil {
			s.log.Warn("storing upload failed", "key", key, "error", err)
		} else {
			storageKey = key
		}
		if data, err := json.Marshal(bundle); err == nil {
			if err := s.Blobs.Put(ctx, bundleKey(bundle.Hash), data, "application/json"); err != nil {
				s.log.Warn("storing bundle failed", "hash", bundle.Hash, "error", err)
			}
		}
	}
	if s.Repo == nil {
		return
	}
	record := &models.BundleRecord{
		Hash:         bundle.Hash,
		FileName:     bundle.FileName,
		Size:         int64(len(file.Data)),
		MeshCount:    bundle.MeshCount,
		ElementCount: len(bundle.Elements),
		GroupCount:   len(bundle.Materials),
		StorageKey:   storageKey,
		ProcessedAt:  bundle.CreatedAt,
		ExpiresAt:    bundle.ExpiresAt,
	}
	if err := s.Repo.Upsert(ctx, record); err != nil {
		s.log.Warn("saving bundle record failed", "hash", bundle.Hash, "error", err)
	}
}

// Get returns a previously processed bundle by hash, or false when it is
// unknown or expired.
func (s *ModelService) Get(ctx context.Context, hash string) (*models.Bundle, bool) {
	if b, ok := s.Cache.Get(ctx, hash, nil); ok {
		return b, true
	}
	if b := s.loadPersisted(ctx, hash, nil); b != nil {
		return b, true
	}
	return nil, false
}

// List returns the processed bundle records. Without a repository it is empty.
func (s *ModelService) List(ctx context.Context) ([]models.BundleRecord, error) {
	if s.Repo == nil {
		return []models.BundleRecord{}, nil
	}
	return s.Repo.List(ctx)
}

// Delete drops a bundle from every cache layer and persisted store.
func (s *ModelService) Delete(ctx context.Context, hash string) error {
	err := s.Cache.Delete(ctx, hash)
	if s.Blobs != nil {
		if rerr := s.Blobs.Remove(ctx, bundleKey(hash)); rerr != nil {
			s.log.Warn("removing bundle blob failed", "hash", hash, "error", rerr)
		}
	}
	if s.Repo != nil {
		if rerr := s.Repo.Delete(ctx, hash); rerr != nil && err == nil {
			err = rerr
		}
	}
	return err
}

// PurgeExpired removes expired records together with their cached and stored
// bundles and returns how many were removed.
func (s *ModelService) PurgeExpired(ctx context.Context) (int, error) {
	if s.Repo == nil {
		return 0, nil
	}
	expired, err := s.Repo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, errors.Wrap(err, "delete expired records")
	}
	for _, rec := range expired {
		if err := s.Cache.Delete(ctx, rec.Hash); err != nil {
			s.log.Warn("evicting expired bundle failed", "hash", rec.Hash, "error", err)
		}
		if s.Blobs == nil {
			continue
		}
		if rec.StorageKey != "" {
			_ = s.Blobs.Remove(ctx, rec.StorageKey)
		}
		_ = s.Blobs.Remove(ctx, bundleKey(rec.Hash))
	}
	if len(expired) > 0 {
		s.log.Info("purged expired bundles", "count", len(expired))
	}
	return len(expired), nil
}
