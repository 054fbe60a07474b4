package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service configuration
type Config struct {
	Service    ServiceConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Dispatcher DispatcherConfig
	Jobs       JobsConfig
	Search     SearchConfig
	RateLimit  RateLimitConfig
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	Host        string
	Port        int
	Database    string
	User        string
	Password    string
	MaxConns    int
	MinConns    int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// DispatcherConfig holds outbound event delivery settings
type DispatcherConfig struct {
	EventStream    string
	DLQStream      string
	BufferSize     int
	MaxAttempts    int
	BackoffBase    time.Duration
	BackoffCap     time.Duration
	PublishTimeout time.Duration
}

// JobsConfig holds enrichment job tracker settings
type JobsConfig struct {
	Types         []string
	MaxAttempts   int
	ClaimBatch    int
	PollInterval  time.Duration
	ConsumerGroup string
}

// SearchConfig holds search read-path settings
type SearchConfig struct {
	PageSize    int
	MaxPageSize int
}

// RateLimitConfig holds request limiting settings
type RateLimitConfig struct {
	Enabled     bool
	GlobalLimit int64
	TenantLimit int64
	WindowSec   int
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Port:        getEnvInt("PORT", 8080),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "text"),
		},
		Database: DatabaseConfig{
			Host:        getEnv("POSTGRES_HOST", "localhost"),
			Port:        getEnvInt("POSTGRES_PORT", 5432),
			Database:    getEnv("POSTGRES_DB", "clipvault"),
			User:        getEnv("POSTGRES_USER", "clipvault"),
			Password:    getEnv("POSTGRES_PASSWORD", "clipvault"),
			MaxConns:    getEnvInt("POSTGRES_MAX_CONNS", 50),
			MinConns:    getEnvInt("POSTGRES_MIN_CONNS", 10),
			MaxIdleTime: getEnvDuration("POSTGRES_MAX_IDLE_TIME", 30*time.Minute),
			MaxLifetime: getEnvDuration("POSTGRES_MAX_LIFETIME", 1*time.Hour),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Dispatcher: DispatcherConfig{
			EventStream:    getEnv("CLIP_EVENTS_STREAM", "clip-events"),
			DLQStream:      getEnv("CLIP_EVENTS_DLQ_STREAM", "clip-events-dlq"),
			BufferSize:     getEnvInt("DISPATCHER_BUFFER_SIZE", 1000),
			MaxAttempts:    getEnvInt("DISPATCHER_MAX_ATTEMPTS", 5),
			BackoffBase:    getEnvDuration("DISPATCHER_BACKOFF_BASE", 200*time.Millisecond),
			BackoffCap:     getEnvDuration("DISPATCHER_BACKOFF_CAP", 10*time.Second),
			PublishTimeout: getEnvDuration("DISPATCHER_PUBLISH_TIMEOUT", 5*time.Second),
		},
		Jobs: JobsConfig{
			Types:         getEnvSlice("ENRICHMENT_JOB_TYPES", []string{"transcription", "summarization", "tagging"}),
			MaxAttempts:   getEnvInt("ENRICHMENT_MAX_ATTEMPTS", 3),
			ClaimBatch:    getEnvInt("ENRICHMENT_CLAIM_BATCH", 10),
			PollInterval:  getEnvDuration("ENRICHMENT_POLL_INTERVAL", 2*time.Second),
			ConsumerGroup: getEnv("ENRICHMENT_CONSUMER_GROUP", "enrichers"),
		},
		Search: SearchConfig{
			PageSize:    getEnvInt("SEARCH_PAGE_SIZE", 40),
			MaxPageSize: getEnvInt("SEARCH_MAX_PAGE_SIZE", 100),
		},
		RateLimit: RateLimitConfig{
			Enabled:     getEnvBool("RATE_LIMIT_ENABLED", true),
			GlobalLimit: int64(getEnvInt("RATE_LIMIT_GLOBAL", 1000)),
			TenantLimit: int64(getEnvInt("RATE_LIMIT_TENANT", 120)),
			WindowSec:   getEnvInt("RATE_LIMIT_WINDOW_SEC", 60),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns must be >= min_conns")
	}

	if c.Dispatcher.MaxAttempts < 1 {
		return fmt.Errorf("dispatcher max_attempts must be >= 1")
	}

	if c.Dispatcher.BackoffBase <= 0 || c.Dispatcher.BackoffCap < c.Dispatcher.BackoffBase {
		return fmt.Errorf("invalid dispatcher backoff schedule")
	}

	if c.Jobs.MaxAttempts < 1 {
		return fmt.Errorf("enrichment max_attempts must be >= 1")
	}

	if len(c.Jobs.Types) == 0 {
		return fmt.Errorf("at least one enrichment job type is required")
	}

	if c.Search.PageSize < 1 || c.Search.PageSize > c.Search.MaxPageSize {
		return fmt.Errorf("invalid search page size: %d", c.Search.PageSize)
	}

	if c.RateLimit.Enabled && c.RateLimit.WindowSec < 1 {
		return fmt.Errorf("invalid rate limit window: %d", c.RateLimit.WindowSec)
	}

	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
	)
}

// RedisAddr returns the Redis host:port address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
