package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bryanmaina/wikipedia-scraper/internal/constants"
	"github.com/joho/godotenv"
)

type Config struct {
	API     APIConfig
	Scrape  ScrapeConfig
	Cache   CacheConfig
	Harvest HarvestConfig
	Logging LoggingConfig
}

type APIConfig struct {
	BaseURL   string
	MaxRetry  int
	Timeout   time.Duration
	UserAgent string
}

type ScrapeConfig struct {
	MinDelay time.Duration
	MaxDelay time.Duration
	Timeout  time.Duration
}

type CacheConfig struct {
	Backend    string
	Dir        string
	SQLitePath string
	Redis      RedisConfig
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type HarvestConfig struct {
	OutputFile  string
	Concurrency int
}

type LoggingConfig struct {
	Level string
	File  string
}

const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

func Load() (*Config, error) {
	_ = godotenv.Load()

	cacheDir := getEnv("CACHE_DIR", ".cache")

	cfg := &Config{
		API: APIConfig{
			BaseURL:   strings.TrimRight(getEnv("API_BASE_URL", constants.APIConfig.DefaultBaseURL), "/"),
			MaxRetry:  getEnvInt("API_MAX_RETRY", constants.APIConfig.DefaultMaxRetry),
			Timeout:   time.Duration(getEnvInt("API_TIMEOUT_SECONDS", int(constants.APIConfig.DefaultTimeout/time.Second))) * time.Second,
			UserAgent: getEnv("USER_AGENT", constants.DefaultUserAgent),
		},
		Scrape: ScrapeConfig{
			MinDelay: getEnvMillis("SCRAPE_MIN_DELAY_MS", constants.WikiConfig.DefaultMinDelay),
			MaxDelay: getEnvMillis("SCRAPE_MAX_DELAY_MS", constants.WikiConfig.DefaultMaxDelay),
			Timeout:  time.Duration(getEnvInt("SCRAPE_TIMEOUT_SECONDS", int(constants.WikiConfig.RequestTimeout/time.Second))) * time.Second,
		},
		Cache: CacheConfig{
			Backend:    strings.ToLower(getEnv("CACHE_BACKEND", BackendFile)),
			Dir:        cacheDir,
			SQLitePath: getEnv("SQLITE_PATH", filepath.Join(cacheDir, "harvest.db")),
			Redis: RedisConfig{
				Host:     getEnv("REDIS_HOST", "localhost"),
				Port:     getEnvInt("REDIS_PORT", 6379),
				Password: getEnv("REDIS_PASSWORD", ""),
				DB:       getEnvInt("REDIS_DB", 0),
			},
		},
		Harvest: HarvestConfig{
			OutputFile:  getEnv("OUTPUT_FILE", filepath.Join(cacheDir, "leaders.json")),
			Concurrency: getEnvInt("HARVEST_CONCURRENCY", 1),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute URL, got %q", c.API.BaseURL)
	}
	if c.API.MaxRetry < 1 {
		return fmt.Errorf("API_MAX_RETRY must be at least 1")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("API_TIMEOUT_SECONDS must be positive")
	}
	if c.Scrape.MinDelay < 0 || c.Scrape.MaxDelay < 0 {
		return fmt.Errorf("scrape delays must be non-negative")
	}
	if c.Scrape.MinDelay > c.Scrape.MaxDelay {
		return fmt.Errorf("SCRAPE_MIN_DELAY_MS cannot exceed SCRAPE_MAX_DELAY_MS")
	}
	switch c.Cache.Backend {
	case BackendFile:
		if c.Cache.Dir == "" {
			return fmt.Errorf("CACHE_DIR is required for the file backend")
		}
	case BackendSQLite:
		if c.Cache.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite backend")
		}
	case BackendRedis:
		if c.Cache.Redis.Host == "" {
			return fmt.Errorf("REDIS_HOST is required for the redis backend")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be one of file, redis, sqlite, got %q", c.Cache.Backend)
	}
	if c.Harvest.OutputFile == "" {
		return fmt.Errorf("OUTPUT_FILE is required")
	}
	if c.Harvest.Concurrency < 1 {
		return fmt.Errorf("HARVEST_CONCURRENCY must be at least 1")
	}
	return nil
}

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

func getEnvMillis(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.Atoi(value); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}
