package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"takeoff-service/internal/config"
	"takeoff-service/internal/handlers"
	"takeoff-service/internal/logger"
	"takeoff-service/internal/metrics"
	"takeoff-service/internal/parser"
	"takeoff-service/internal/pipeline"
	"takeoff-service/internal/repository"
	"takeoff-service/internal/services"
	"takeoff-service/internal/services/cache"
	"takeoff-service/internal/services/caches"
	"takeoff-service/internal/storage"
)

const purgeInterval = 10 * time.Minute

func main() {
	cfg, log := InitConfig()
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	var repo repository.BundleRepository
	if cfg.DatabaseEnabled() {
		repo = InitRepository(cfg, log)
	}
	var blobs services.BlobStore
	if cfg.MinioEnabled() {
		blobs = InitBlobStore(ctx, cfg, log)
	}
	cacheService := InitCache(ctx, cfg, log, m)

	parsers := parser.NewRegistry(cfg.MaxUploadBytes)
	strategy := pipeline.NewWorkerStrategy(parsers, cfg.ChunkSize, cfg.Workers, cfg.MaxUploadBytes)
	modelService := services.NewModelService(parsers, strategy, cacheService, repo, blobs,
		cfg.MaxUploadBytes, cfg.CacheTTL, log.With("component", "models"), m)

	go purgeExpired(ctx, modelService, log)

	app := fiber.New(fiber.Config{
		// leave headroom so oversize uploads get the JSON size_limit answer
		BodyLimit:   int(cfg.MaxUploadBytes) + 1<<20,
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
	})

	//Register Prometheus metrics endpoint
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	api := app.Group("/api")
	handlers.RegisterRoutes(api,
		handlers.NewModelHandler(modelService, log.With("component", "http")),
		handlers.NewCacheHandler(cacheService, log.With("component", "http")))
	api.Get("/swagger/*", swagger.HandlerDefault)

	for _, r := range app.GetRoutes() {
		log.Debug("registered route", "method", r.Method, "path", r.Path)
	}

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error("shutdown failed", "error", err)
		}
	}()

	log.Info("server listening", "port", cfg.AppPort, "extensions", parsers.Extensions(), "workers", cfg.Workers)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatal("server stopped", "error", err)
	}
}

func InitConfig() (*config.Config, *logger.Logger) {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("config error: " + err.Error())
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic("logger error: " + err.Error())
	}
	return cfg, log
}

func InitRepository(cfg *config.Config, log *logger.Logger) repository.BundleRepository {
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatal("database connection failed", "driver", cfg.DBDriver, "error", err)
	}
	repo := repository.NewBundleRepository(db)
	if err := repo.Migrate(); err != nil {
		log.Fatal("database migration failed", "error", err)
	}
	log.Info("bundle repository ready", "driver", cfg.DBDriver)
	return repo
}

func InitBlobStore(ctx context.Context, cfg *config.Config, log *logger.Logger) services.BlobStore {
	client, err := storage.NewMinioClient(ctx, cfg, log)
	if err != nil {
		log.Fatal("MinIO client initialization failed", "error", err)
	}
	log.Info("blob store ready", "endpoint", cfg.MinioEndpoint, "bucket", cfg.MinioBucket)
	return storage.NewMinioBlobStore(client, cfg.MinioBucket)
}

// InitCache builds the layered bundle cache. Layers that are not configured
// or fail to start stay nil and are skipped by the strategy.
func InitCache(ctx context.Context, cfg *config.Config, log *logger.Logger, m *metrics.Metrics) *services.CacheService {
	cacheLog := log.With("component", "cache")

	var memory, file, redisLayer cache.CacheLayer
	memory = caches.NewMemoryCache(cfg.MemoryCacheBytes, cfg.CacheTTL, cacheLog)

	if fsCache, err := caches.NewFileSystemCache(cfg.CacheDir, cfg.FileCacheBytes, cfg.CacheTTL, cacheLog); err != nil {
		log.Warn("file cache disabled", "dir", cfg.CacheDir, "error", err)
	} else {
		file = fsCache
	}

	if cfg.RedisEnabled() {
		client, err := storage.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Warn("redis cache disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			redisLayer = caches.NewRedisCache(client, cfg.CacheTTL, cacheLog)
		}
	}

	return services.NewCacheService(services.NewCacheStrategy(memory, file, redisLayer, cacheLog), cacheLog, m)
}

func purgeExpired(ctx context.Context, svc *services.ModelService, log *logger.Logger) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.PurgeExpired(ctx); err != nil {
				log.Warn("purging expired bundles failed", "error", err)
			}
		}
	}
}
