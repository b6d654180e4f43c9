package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Template store; publishing is disabled when the URL is empty.
	TemplateStoreURL    string
	TemplateStoreAPIKey string

	// Generation
	ComponentsFile      string
	DefaultRootSelector string
	MinifyTemplates     bool

	// Worker pool
	WorkerCount          int
	MaxQueueSize         int
	MaxConcurrentPublish int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// Generation latency window
	StatsWindow time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("ACTGEN_API_KEY"),

		TemplateStoreURL:    os.Getenv("TEMPLATESTORE_URL"),
		TemplateStoreAPIKey: os.Getenv("TEMPLATESTORE_API_KEY"),

		ComponentsFile:      os.Getenv("COMPONENTS_FILE"),
		DefaultRootSelector: envOr("DEFAULT_ROOT_SELECTOR", "body"),
		MinifyTemplates:     envBool("MINIFY_TEMPLATES", false),

		WorkerCount:          envInt("WORKER_COUNT", 4),
		MaxQueueSize:         envInt("MAX_QUEUE_SIZE", 100),
		MaxConcurrentPublish: envInt("MAX_CONCURRENT_PUBLISH", 10),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 10485760), // 10MB

		JobTTL:      envDuration("JOB_TTL", 1*time.Hour),
		StatsWindow: envDuration("STATS_WINDOW", 1*time.Hour),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxConcurrentPublish <= 0 {
		cfg.MaxConcurrentPublish = 10
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10485760
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}

	return cfg
}

// PublishEnabled reports whether generated trees are written to the
// template store.
func (c Config) PublishEnabled() bool {
	return c.TemplateStoreURL != ""
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("ACTGEN_API_KEY is required")
	}
	if c.PublishEnabled() && c.TemplateStoreAPIKey == "" {
		return fmt.Errorf("TEMPLATESTORE_API_KEY is required when TEMPLATESTORE_URL is set")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
