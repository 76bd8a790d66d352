// Package config loads the data.com client settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Sternrassler/datacom-client/pkg/client"
	"github.com/Sternrassler/datacom-client/pkg/logging"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Environment variable names.
const (
	EnvEnvironment = "GO_ENV"
	EnvToken       = "DATA_COM_TOKEN"
	EnvBaseURL     = "DATA_COM_BASE_URL"
	EnvPageSize    = "DATA_COM_PAGE_SIZE"
	EnvMaxOffset   = "DATA_COM_MAX_OFFSET"
	EnvRedisURL    = "REDIS_URL"
	EnvLogLevel    = "LOG_LEVEL"
	EnvLogPretty   = "LOG_PRETTY"
	EnvMetricsAddr = "METRICS_ADDR"
)

// ErrTokenRequired is returned when DATA_COM_TOKEN is not set.
var ErrTokenRequired = errors.New(EnvToken + " is required")

// Config holds all configuration for the search tools.
type Config struct {
	Environment string

	Token     string
	BaseURL   string
	PageSize  int
	MaxOffset int

	// RedisURL is either a redis:// URL or a host:port address. Empty disables
	// the page cache.
	RedisURL string

	LogLevel  logging.LogLevel
	LogPretty bool

	// MetricsAddr is the listen address for /metrics. Empty disables it.
	MetricsAddr string
}

// Load reads .env (outside production) and then the environment.
func Load() (*Config, error) {
	return LoadFrom()
}

// LoadFrom is Load with explicit .env files; no files means ".env".
// Variables already set in the environment win over file values.
func LoadFrom(files ...string) (*Config, error) {
	env := os.Getenv(EnvEnvironment)
	if env == "" {
		env = "development"
	}

	// Production relies on the real environment only.
	if env != "production" {
		if err := godotenv.Load(files...); err != nil {
			log.Debug().Err(err).Msg(".env file not loaded")
		}
	}

	defaults := client.DefaultConfig("")

	cfg := &Config{
		Environment: env,
		Token:       os.Getenv(EnvToken),
		BaseURL:     getEnv(EnvBaseURL, defaults.BaseURL),
		RedisURL:    os.Getenv(EnvRedisURL),
		MetricsAddr: os.Getenv(EnvMetricsAddr),
	}

	if cfg.Token == "" {
		return nil, ErrTokenRequired
	}

	var err error
	if cfg.PageSize, err = getInt(EnvPageSize, defaults.PageSize); err != nil {
		return nil, err
	}
	if cfg.MaxOffset, err = getInt(EnvMaxOffset, defaults.MaxOffset); err != nil {
		return nil, err
	}

	if cfg.LogLevel, err = logging.ParseLevel(os.Getenv(EnvLogLevel)); err != nil {
		return nil, fmt.Errorf("%s: %w", EnvLogLevel, err)
	}
	if raw := os.Getenv(EnvLogPretty); raw != "" {
		if cfg.LogPretty, err = strconv.ParseBool(raw); err != nil {
			return nil, fmt.Errorf("%s: invalid boolean %q", EnvLogPretty, raw)
		}
	}

	return cfg, nil
}

// Client returns the client configuration. redisClient may be nil.
func (c *Config) Client(redisClient *redis.Client) client.Config {
	cfg := client.DefaultConfig(c.Token)
	cfg.BaseURL = c.BaseURL
	cfg.PageSize = c.PageSize
	cfg.MaxOffset = c.MaxOffset
	cfg.Redis = redisClient
	return cfg
}

// Logging returns the logger configuration.
func (c *Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.LogLevel
	cfg.Pretty = c.LogPretty
	return cfg
}

// RedisOptions parses RedisURL. It returns nil options when caching is off.
func (c *Config) RedisOptions() (*redis.Options, error) {
	if c.RedisURL == "" {
		return nil, nil
	}
	if !strings.Contains(c.RedisURL, "://") {
		return &redis.Options{Addr: c.RedisURL}, nil
	}

	opts, err := redis.ParseURL(c.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EnvRedisURL, err)
	}
	return opts, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, raw)
	}
	return n, nil
}
