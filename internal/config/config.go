package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Config holds all configuration values from environment.
type Config struct {
	AppPort string
	LogMode string

	// Database; DBDriver is "postgres", "sqlite" or empty to disable persistence
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPath     string

	// MinIO is optional; leave MINIO_ENDPOINT empty to disable it
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioSSL       bool

	// Redis is optional; leave REDIS_ADDR empty to disable the layer
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Cache settings
	CacheDir         string
	CacheTTL         time.Duration
	MemoryCacheBytes int64
	FileCacheBytes   int64

	// Pipeline settings
	MaxUploadBytes int64
	ChunkSize      int
	Workers        int
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppPort:  envOr("APP_PORT", "8080"),
		LogMode:  envOr("LOG_MODE", "dev"),
		DBDriver: strings.ToLower(os.Getenv("DB_DRIVER")),
		DBHost:   os.Getenv("DB_HOST"),
		DBPort:   envOr("DB_PORT", "5432"),
		DBUser:   os.Getenv("DB_USER"),
		DBName:   os.Getenv("DB_NAME"),
		DBPath:   envOr("DB_PATH", "takeoff.db"),

		DBPassword:     os.Getenv("DB_PASSWORD"),
		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    envOr("MINIO_BUCKET", "models"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		CacheDir:       envOr("CACHE_DIR", os.TempDir()+"/takeoff-cache"),
	}

	var err error
	if cfg.MinioSSL, err = boolEnv("MINIO_SSL", false); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = intEnv("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = durationEnv("CACHE_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.MemoryCacheBytes, err = int64Env("MEMORY_CACHE_BYTES", 1<<30); err != nil {
		return nil, err
	}
	if cfg.FileCacheBytes, err = int64Env("FILE_CACHE_BYTES", 5<<30); err != nil {
		return nil, err
	}
	if cfg.MaxUploadBytes, err = int64Env("MAX_UPLOAD_BYTES", 512<<20); err != nil {
		return nil, err
	}
	if cfg.ChunkSize, err = intEnv("CHUNK_SIZE", 256); err != nil {
		return nil, err
	}
	if cfg.Workers, err = intEnv("PIPELINE_WORKERS", 4); err != nil {
		return nil, err
	}

	// Basic validation for required fields
	switch cfg.DBDriver {
	case "":
	case "postgres":
		if cfg.DBHost == "" || cfg.DBUser == "" || cfg.DBName == "" {
			return nil, fmt.Errorf("database configuration is incomplete")
		}
	case "sqlite":
		if cfg.DBPath == "" {
			return nil, fmt.Errorf("database configuration is incomplete")
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if cfg.MinioEnabled() && (cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "" || cfg.MinioBucket == "") {
		return nil, fmt.Errorf("minio configuration is incomplete")
	}
	if cfg.ChunkSize <= 0 || cfg.Workers <= 0 {
		return nil, fmt.Errorf("CHUNK_SIZE and PIPELINE_WORKERS must be positive")
	}
	return cfg, nil
}

func (c *Config) DatabaseEnabled() bool { return c.DBDriver != "" }
func (c *Config) MinioEnabled() bool { return c.MinioEndpoint != "" }
func (c *Config) RedisEnabled() bool { return c.RedisAddr != "" }

// ConnectDatabase initializes a GORM database connection for the configured driver.
func ConnectDatabase(cfg *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(cfg.DBPath)
	default:
		return nil, fmt.Errorf("database is not configured")
	}
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return db, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func boolEnv(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	val, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s value: %v", key, err)
	}
	return val, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	val, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %v", key, err)
	}
	return val, nil
}

func int64Env(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	val, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %v", key, err)
	}
	return val, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	val, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %v", key, err)
	}
	return val, nil
}
