package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"API_BASE_URL", "API_MAX_RETRY", "API_TIMEOUT_SECONDS",
		"SCRAPE_MIN_DELAY_MS", "SCRAPE_MAX_DELAY_MS",
		"CACHE_DIR", "CACHE_BACKEND", "OUTPUT_FILE", "HARVEST_CONCURRENCY",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "https://country-leaders.onrender.com", cfg.API.BaseURL)
	require.Equal(t, 3, cfg.API.MaxRetry)
	require.Equal(t, 30*time.Second, cfg.API.Timeout)
	require.Equal(t, time.Second, cfg.Scrape.MinDelay)
	require.Equal(t, 3*time.Second, cfg.Scrape.MaxDelay)
	require.Equal(t, BackendFile, cfg.Cache.Backend)
	require.Equal(t, ".cache", cfg.Cache.Dir)
	require.Equal(t, filepath.Join(".cache", "leaders.json"), cfg.Harvest.OutputFile)
	require.Equal(t, 1, cfg.Harvest.Concurrency)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://localhost:5000/")
	t.Setenv("API_MAX_RETRY", "5")
	t.Setenv("SCRAPE_MIN_DELAY_MS", "10")
	t.Setenv("SCRAPE_MAX_DELAY_MS", "20")
	t.Setenv("CACHE_BACKEND", "SQLite")
	t.Setenv("CACHE_DIR", "/tmp/harvest")
	t.Setenv("SQLITE_PATH", "")
	t.Setenv("HARVEST_CONCURRENCY", "4")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "http://localhost:5000", cfg.API.BaseURL)
	require.Equal(t, 5, cfg.API.MaxRetry)
	require.Equal(t, 10*time.Millisecond, cfg.Scrape.MinDelay)
	require.Equal(t, 20*time.Millisecond, cfg.Scrape.MaxDelay)
	require.Equal(t, BackendSQLite, cfg.Cache.Backend)
	require.Equal(t, filepath.Join("/tmp/harvest", "harvest.db"), cfg.Cache.SQLitePath)
	require.Equal(t, 4, cfg.Harvest.Concurrency)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			API:     APIConfig{BaseURL: "http://localhost", MaxRetry: 1, Timeout: time.Second},
			Scrape:  ScrapeConfig{MinDelay: 0, MaxDelay: time.Second},
			Cache:   CacheConfig{Backend: BackendFile, Dir: ".cache"},
			Harvest: HarvestConfig{OutputFile: "out.json", Concurrency: 1},
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative base url", func(c *Config) { c.API.BaseURL = "localhost" }},
		{"zero retry budget", func(c *Config) { c.API.MaxRetry = 0 }},
		{"inverted delays", func(c *Config) { c.Scrape.MinDelay = 2 * time.Second }},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"file backend without dir", func(c *Config) { c.Cache.Dir = "" }},
		{"zero concurrency", func(c *Config) { c.Harvest.Concurrency = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
