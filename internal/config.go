package internal

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/DukeRupert/fetch/internal/domain"
	"github.com/DukeRupert/fetch/internal/storage"
	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	Port        int
	LogLevel    string
	DatabaseUrl string

	// Session lifetime for logins
	SessionDuration time.Duration

	// Photo library: each user's photos live in LibraryPath/<user id>
	LibraryPath          string
	LibraryAccessGranted bool
	LibraryPageSize      int

	// Selector sessions unused for this long are dropped
	SelectorIdleTimeout time.Duration

	// Upload pipeline
	UploadMode        domain.UploadMode
	UploadCropSize    int
	UploadQuality     int
	UploadConcurrency int

	// Feed
	FeedLimit int

	// Storage Configuration
	StorageProvider string // "local", "r2" or "s3"

	// Local Storage (development)
	LocalStoragePath string // Base directory for local file storage
	LocalStorageURL  string // Base URL for accessing local files

	// R2 / S3 Storage (production)
	R2AccountID        string
	S3Endpoint         string // S3-compatible endpoint, e.g. MinIO
	S3Region           string
	S3UsePathStyle     bool
	S3AccessKeyID      string
	S3SecretAccessKey  string
	S3BucketName       string
	S3PublicURL        string // Optional custom domain URL
	MaxUploadSizeBytes int64

	// Worker Configuration
	WorkerEnabled        bool
	WorkerConcurrency    int
	WorkerPollInterval   time.Duration
	WorkerJobTimeout     time.Duration
	SessionSweepInterval time.Duration

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		SessionDuration: getEnvDuration("SESSION_DURATION", 24*time.Hour),

		LibraryPath:          getEnv("LIBRARY_PATH", "./library"),
		LibraryAccessGranted: getEnvBool("LIBRARY_ACCESS_GRANTED", true),
		LibraryPageSize:      getEnvInt("LIBRARY_PAGE_SIZE", 100),

		SelectorIdleTimeout: getEnvDuration("SELECTOR_IDLE_TIMEOUT", 30*time.Minute),

		UploadMode:        domain.UploadMode(getEnv("UPLOAD_MODE", string(domain.UploadModePerPhoto))),
		UploadCropSize:    getEnvInt("UPLOAD_CROP_SIZE", 300),
		UploadQuality:     getEnvInt("UPLOAD_QUALITY", 80),
		UploadConcurrency: getEnvInt("UPLOAD_CONCURRENCY", 6),

		FeedLimit: getEnvInt("FEED_LIMIT", domain.DefaultFeedLimit),

		// Storage defaults to local filesystem for development
		StorageProvider:  getEnv("STORAGE_PROVIDER", storage.ProviderLocal),
		LocalStoragePath: getEnv("LOCAL_STORAGE_PATH", "./storage"),
		LocalStorageURL:  getEnv("LOCAL_STORAGE_URL", "http://localhost:8080/files"),

		// Object storage (production only)
		R2AccountID:        getEnv("R2_ACCOUNT_ID", ""),
		S3Endpoint:         getEnv("S3_ENDPOINT", ""),
		S3Region:           getEnv("S3_REGION", ""),
		S3UsePathStyle:     getEnvBool("S3_USE_PATH_STYLE", false),
		S3AccessKeyID:      getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey:  getEnv("S3_SECRET_ACCESS_KEY", ""),
		S3BucketName:       getEnv("S3_BUCKET_NAME", ""),
		S3PublicURL:        getEnv("S3_PUBLIC_URL", ""),
		MaxUploadSizeBytes: int64(getEnvInt("MAX_UPLOAD_SIZE_BYTES", 10<<20)),

		// Worker defaults
		WorkerEnabled:        getEnvBool("WORKER_ENABLED", true),
		WorkerConcurrency:    getEnvInt("WORKER_CONCURRENCY", 2),
		WorkerPollInterval:   getEnvDuration("WORKER_POLL_INTERVAL", 2*time.Second),
		WorkerJobTimeout:     getEnvDuration("WORKER_JOB_TIMEOUT", time.Minute),
		SessionSweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", time.Hour),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	// Required
	cfg.DatabaseUrl = os.Getenv("DATABASE_URL")
	if cfg.DatabaseUrl == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if !c.UploadMode.IsValid() {
		return fmt.Errorf("UPLOAD_MODE must be either 'per_photo' or 'batch', got: %s", c.UploadMode)
	}
	if c.FeedLimit <= 0 {
		return fmt.Errorf("FEED_LIMIT must be positive, got: %d", c.FeedLimit)
	}

	// Validate storage configuration
	switch c.StorageProvider {
	case storage.ProviderLocal:
	case storage.ProviderR2, storage.ProviderS3:
		if c.StorageProvider == storage.ProviderR2 && c.R2AccountID == "" {
			return fmt.Errorf("R2_ACCOUNT_ID is required when STORAGE_PROVIDER is 'r2'")
		}
		if c.S3AccessKeyID == "" {
			return fmt.Errorf("S3_ACCESS_KEY_ID is required when STORAGE_PROVIDER is '%s'", c.StorageProvider)
		}
		if c.S3SecretAccessKey == "" {
			return fmt.Errorf("S3_SECRET_ACCESS_KEY is required when STORAGE_PROVIDER is '%s'", c.StorageProvider)
		}
		if c.S3BucketName == "" {
			return fmt.Errorf("S3_BUCKET_NAME is required when STORAGE_PROVIDER is '%s'", c.StorageProvider)
		}
	default:
		return fmt.Errorf("STORAGE_PROVIDER must be 'local', 'r2' or 's3', got: %s", c.StorageProvider)
	}

	return nil
}

// ObjectStorageConfig returns the object storage settings for the r2 and s3
// providers.
func (c *Config) ObjectStorageConfig() storage.ObjectConfig {
	endpoint := c.S3Endpoint
	if c.StorageProvider == storage.ProviderR2 {
		endpoint = storage.NewR2Endpoint(c.R2AccountID)
	}
	return storage.ObjectConfig{
		Endpoint:        endpoint,
		AccessKeyID:     c.S3AccessKeyID,
		SecretAccessKey: c.S3SecretAccessKey,
		BucketName:      c.S3BucketName,
		PublicURL:       c.S3PublicURL,
		Region:          c.S3Region,
		UsePathStyle:    c.S3UsePathStyle,
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
