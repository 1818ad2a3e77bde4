package app

import (
	"context"
	"fmt"

	"github.com/bryanmaina/wikipedia-scraper/internal/api"
	"github.com/bryanmaina/wikipedia-scraper/internal/cache"
	"github.com/bryanmaina/wikipedia-scraper/internal/config"
	"github.com/bryanmaina/wikipedia-scraper/internal/harvest"
	"github.com/bryanmaina/wikipedia-scraper/internal/wiki"
	"go.uber.org/zap"
)

// Container bundles the assembled services of one harvest run.
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	Store     cache.Store
	Harvester *harvest.Harvester

	closers []func()
}

// Close releases everything Build opened, in reverse order.
func (c *Container) Close() {
	if c == nil {
		return
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Build opens the cache, performs the API handshake and wires the harvester.
// On failure everything opened so far is closed again.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	store, err := cache.Open(ctx, cfg.Cache, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	closers = append(closers, func() {
		if cerr := store.Close(); cerr != nil {
			logger.Warn("Failed to close cache", zap.Error(cerr))
		}
	})

	client, err := NewAPIClient(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	scraper := NewScraper(cfg, logger)

	harvester := harvest.New(client, store, scraper, harvest.Options{
		Concurrency: cfg.Harvest.Concurrency,
		OutputPath:  cfg.Harvest.OutputFile,
	}, logger)

	logger.Info("Harvester assembled",
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.Int("concurrency", cfg.Harvest.Concurrency),
		zap.String("output", cfg.Harvest.OutputFile),
	)

	return &Container{
		Config:    cfg,
		Logger:    logger,
		Store:     store,
		Harvester: harvester,
		closers:   closers,
	}, nil
}

func NewAPIClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*api.Client, error) {
	return api.NewClient(ctx, api.Options{
		BaseURL:   cfg.API.BaseURL,
		MaxRetry:  cfg.API.MaxRetry,
		Timeout:   cfg.API.Timeout,
		UserAgent: cfg.API.UserAgent,
	}, logger)
}

func NewScraper(cfg *config.Config, logger *zap.Logger) *wiki.Scraper {
	return wiki.NewScraper(wiki.Options{
		UserAgent: cfg.API.UserAgent,
		Timeout:   cfg.Scrape.Timeout,
		MinDelay:  cfg.Scrape.MinDelay,
		MaxDelay:  cfg.Scrape.MaxDelay,
	}, logger)
}
