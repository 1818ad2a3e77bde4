// Package harvest drives a full run: rosters from the API, biographies from
// Wikipedia, and the consolidated output file.
package harvest

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bryanmaina/wikipedia-scraper/internal/api"
	"github.com/bryanmaina/wikipedia-scraper/internal/cache"
	"github.com/bryanmaina/wikipedia-scraper/internal/domain"
	"github.com/bryanmaina/wikipedia-scraper/internal/util"
	"github.com/bryanmaina/wikipedia-scraper/internal/wiki"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

type Options struct {
	// Concurrency is the number of biographies scraped at once. Values below 2
	// keep the run sequential.
	Concurrency int
	OutputPath  string
}

type Harvester struct {
	api         api.LeadersAPI
	store       cache.Store
	scraper     wiki.BiographySource
	logger      *zap.Logger
	concurrency int
	outputPath  string
}

// Stats summarizes one run.
type Stats struct {
	Countries     int
	Leaders       int
	Unique        int
	Cached        int
	Scraped       int
	Missing       int
	WithBiography int
	Duration      time.Duration
}

func New(leaders api.LeadersAPI, store cache.Store, scraper wiki.BiographySource, opts Options, logger *zap.Logger) *Harvester {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Harvester{
		api:         leaders,
		store:       store,
		scraper:     scraper,
		logger:      util.OrNop(logger),
		concurrency: opts.Concurrency,
		outputPath:  opts.OutputPath,
	}
}

// Run collects leaders, scrapes missing biographies and writes the output file.
func (h *Harvester) Run(ctx context.Context) (Stats, error) {
	start := time.Now()

	leaders, countries, err := h.collectLeaders(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats, err := h.ScrapeBiographies(ctx, leaders)
	stats.Countries = countries
	if err != nil {
		return stats, err
	}

	withBio, err := h.Consolidate(ctx, leaders)
	if err != nil {
		return stats, err
	}
	stats.WithBiography = withBio
	stats.Duration = time.Since(start)

	h.logger.Info("Harvest completed",
		zap.Int("countries", stats.Countries),
		zap.Int("leaders", stats.Leaders),
		zap.Int("cached", stats.Cached),
		zap.Int("scraped", stats.Scraped),
		zap.Int("missing", stats.Missing),
		zap.Int("with_biography", stats.WithBiography),
		zap.String("output", h.outputPath),
		zap.Duration("duration", stats.Duration),
	)

	return stats, nil
}

// Leaders returns every leader of every country, preferring cached rosters.
func (h *Harvester) Leaders(ctx context.Context) ([]domain.Leader, error) {
	leaders, _, err := h.collectLeaders(ctx)
	return leaders, err
}

func (h *Harvester) collectLeaders(ctx context.Context) ([]domain.Leader, int, error) {
	countries, err := h.api.Countries(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch countries: %w", err)
	}

	h.logger.Info("Countries fetched", zap.Strings("countries", countries))

	all := make([]domain.Leader, 0)
	for _, country := range countries {
		roster, found, err := h.store.GetRoster(ctx, country)
		if err != nil {
			return nil, 0, err
		}

		if found {
			h.logger.Debug("Roster cache hit", zap.String("country", country), zap.Int("leaders", len(roster)))
		} else {
			roster, err = h.api.Leaders(ctx, country)
			if err != nil {
				return nil, 0, fmt.Errorf("fetch leaders for %s: %w", country, err)
			}
			if err := h.store.PutRoster(ctx, country, roster); err != nil {
				return nil, 0, err
			}
			h.logger.Info("Roster fetched", zap.String("country", country), zap.Int("leaders", len(roster)))
		}

		all = append(all, roster...)
	}

	return all, len(countries), nil
}

type scrapeCounters struct {
	cached  atomic.Int64
	scraped atomic.Int64
	missing atomic.Int64
}

// ScrapeBiographies fills the cache with a biography for every leader that
// lacks one. Scrape failures only count as missing; cache failures stop the run.
func (h *Harvester) ScrapeBiographies(ctx context.Context, leaders []domain.Leader) (Stats, error) {
	unique := util.Dedupe(leaders, func(l domain.Leader) string { return l.ID })

	var counters scrapeCounters
	err := h.forEach(ctx, unique, func(ctx context.Context, leader domain.Leader) error {
		return h.scrapeOne(ctx, leader, &counters)
	})

	stats := Stats{
		Leaders: len(leaders),
		Unique:  len(unique),
		Cached:  int(counters.cached.Load()),
		Scraped: int(counters.scraped.Load()),
		Missing: int(counters.missing.Load()),
	}
	return stats, err
}

func (h *Harvester) forEach(ctx context.Context, leaders []domain.Leader, fn func(context.Context, domain.Leader) error) error {
	if h.concurrency <= 1 {
		for _, leader := range leaders {
			if err := fn(ctx, leader); err != nil {
				return err
			}
		}
		return nil
	}

	p := pool.New().
		WithMaxGoroutines(h.concurrency).
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()

	for _, leader := range leaders {
		p.Go(func(ctx context.Context) error {
			return fn(ctx, leader)
		})
	}

	return p.Wait()
}

func (h *Harvester) scrapeOne(ctx context.Context, leader domain.Leader, counters *scrapeCounters) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, found, err := h.store.GetBiography(ctx, leader.ID)
	if err != nil {
		return err
	}
	if found {
		counters.cached.Add(1)
		return nil
	}

	h.logger.Info("Scraping biography",
		zap.String("leader_id", leader.ID),
		zap.String("leader", leader.FullName()),
	)

	bio, ok := h.scraper.Biography(ctx, leader)
	if !ok {
		counters.missing.Add(1)
		return nil
	}

	if err := h.store.PutBiography(ctx, *bio); err != nil {
		return err
	}
	counters.scraped.Add(1)
	return nil
}
