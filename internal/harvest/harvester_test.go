package harvest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/bryanmaina/wikipedia-scraper/internal/cache"
	"github.com/bryanmaina/wikipedia-scraper/internal/domain"
	"github.com/bryanmaina/wikipedia-scraper/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeAPI struct {
	mu           sync.Mutex
	countries    []string
	rosters      map[string][]domain.Leader
	countriesErr error
	leaderCalls  []string
}

func (f *fakeAPI) Countries(ctx context.Context) ([]string, error) {
	if f.countriesErr != nil {
		return nil, f.countriesErr
	}
	return f.countries, nil
}

func (f *fakeAPI) Leaders(ctx context.Context, country string) ([]domain.Leader, error) {
	f.mu.Lock()
	f.leaderCalls = append(f.leaderCalls, country)
	f.mu.Unlock()
	return domain.WithCountry(f.rosters[country], country), nil
}

type fakeScraper struct {
	mu    sync.Mutex
	bios  map[string]string
	calls map[string]int
}

func newFakeScraper(bios map[string]string) *fakeScraper {
	return &fakeScraper{bios: bios, calls: map[string]int{}}
}

func (f *fakeScraper) Biography(ctx context.Context, leader domain.Leader) (*domain.Biography, bool) {
	f.mu.Lock()
	f.calls[leader.ID]++
	f.mu.Unlock()

	content, ok := f.bios[leader.ID]
	if !ok {
		return nil, false
	}
	return &domain.Biography{LeaderID: leader.ID, Content: content}, true
}

func (f *fakeScraper) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// failingStore breaks biography writes.
type failingStore struct {
	cache.Store
}

func (s failingStore) PutBiography(ctx context.Context, bio domain.Biography) error {
	return errors.NewCacheError("disk full", "put_biography", bio.LeaderID, nil)
}

func newStore(t *testing.T) cache.Store {
	t.Helper()
	store, err := cache.NewFileStore(t.TempDir(), zaptest.NewLogger(t))
	require.NoError(t, err)
	return store
}

func sampleAPI() *fakeAPI {
	return &fakeAPI{
		countries: []string{"be", "fr"},
		rosters: map[string][]domain.Leader{
			"be": {
				{ID: "Q1", FirstName: "Charles", LastName: "Michel", WikipediaURL: "https://fr.wikipedia.org/wiki/Charles_Michel"},
				{ID: "Q2", FirstName: "Elio", LastName: "Di Rupo"},
			},
			"fr": {
				{ID: "Q3", FirstName: "Emmanuel", LastName: "Macron", WikipediaURL: "https://fr.wikipedia.org/wiki/Emmanuel_Macron"},
			},
		},
	}
}

func TestRunWritesConsolidatedOutput(t *testing.T) {
	output := filepath.Join(t.TempDir(), "out", "leaders.json")
	scraper := newFakeScraper(map[string]string{
		"Q1": "Charles Michel is a Belgian politician.",
		"Q3": "Emmanuel Macron is a French politician.",
	})
	h := New(sampleAPI(), newStore(t), scraper, Options{OutputPath: output}, zaptest.NewLogger(t))

	stats, err := h.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, stats.Countries)
	require.Equal(t, 3, stats.Leaders)
	require.Equal(t, 2, stats.Scraped)
	require.Equal(t, 1, stats.Missing)
	require.Equal(t, 2, stats.WithBiography)

	raw, err := os.ReadFile(output)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(raw), "[\n    {\n        \"id\": \"Q1\""))

	var records []map[string]any
	require.NoError(t, json.Unmarshal(raw, &records))
	require.Len(t, records, 3)

	require.Equal(t, "Charles Michel is a Belgian politician.", records[0]["biography"])
	require.Equal(t, "be", records[0]["country"])

	bio, present := records[1]["biography"]
	require.True(t, present, "biography key is always emitted")
	require.Nil(t, bio)

	require.Equal(t, "fr", records[2]["country"])
}

func TestLeadersPrefersCachedRosters(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.PutRoster(ctx, "be", []domain.Leader{{ID: "cached", Country: "be"}}))
	require.NoError(t, store.PutRoster(ctx, "ma", []domain.Leader{}))

	fake := sampleAPI()
	fake.countries = []string{"be", "fr", "ma"}
	h := New(fake, store, newFakeScraper(nil), Options{}, nil)

	leaders, err := h.Leaders(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"fr"}, fake.leaderCalls)

	ids := make([]string, 0, len(leaders))
	for _, l := range leaders {
		ids = append(ids, l.ID)
	}
	require.Equal(t, []string{"cached", "Q3"}, ids)

	roster, found, err := store.GetRoster(ctx, "fr")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "fr", roster[0].Country)
}

func TestLeadersAPIErrorIsFatal(t *testing.T) {
	fake := sampleAPI()
	fake.countriesErr = errors.NewAuthError("session still rejected after retry budget", 403, nil)
	output := filepath.Join(t.TempDir(), "leaders.json")

	h := New(fake, newStore(t), newFakeScraper(nil), Options{OutputPath: output}, nil)
	_, err := h.Run(context.Background())
	require.True(t, errors.IsAuthError(err))

	_, statErr := os.Stat(output)
	require.True(t, os.IsNotExist(statErr))
}

func TestScrapeSkipsCachedBiographies(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.PutBiography(ctx, domain.Biography{LeaderID: "Q1", Content: "already here"}))

	scraper := newFakeScraper(map[string]string{"Q1": "fresh", "Q3": "fresh"})
	h := New(sampleAPI(), store, scraper, Options{}, nil)

	leaders, err := h.Leaders(ctx)
	require.NoError(t, err)

	stats, err := h.ScrapeBiographies(ctx, leaders)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Cached)
	require.Equal(t, 1, stats.Scraped)
	require.Equal(t, 1, stats.Missing)
	require.Zero(t, scraper.calls["Q1"])

	bio, _, err := store.GetBiography(ctx, "Q1")
	require.NoError(t, err)
	require.Equal(t, "already here", bio.Content)
}

func TestScrapeDeduplicatesLeaders(t *testing.T) {
	scraper := newFakeScraper(map[string]string{"Q1": "bio"})
	h := New(sampleAPI(), newStore(t), scraper, Options{Concurrency: 4}, nil)

	leaders := []domain.Leader{{ID: "Q1"}, {ID: "Q1"}, {ID: "Q1"}}
	stats, err := h.ScrapeBiographies(context.Background(), leaders)
	require.NoError(t, err)
	require.Equal(t, 3, stats.Leaders)
	require.Equal(t, 1, stats.Unique)
	require.Equal(t, 1, scraper.totalCalls())
}

func TestParallelScrapeMatchesSequential(t *testing.T) {
	leaders := make([]domain.Leader, 0, 40)
	bios := map[string]string{}
	for i := 0; i < 40; i++ {
		id := fmt.Sprintf("Q%d", i)
		leaders = append(leaders, domain.Leader{ID: id})
		if i%3 != 0 {
			bios[id] = "biography of " + id
		}
	}

	run := func(concurrency int) (Stats, map[string]domain.Biography) {
		store := newStore(t)
		h := New(sampleAPI(), store, newFakeScraper(bios), Options{Concurrency: concurrency}, nil)
		stats, err := h.ScrapeBiographies(context.Background(), leaders)
		require.NoError(t, err)
		all, err := store.ListBiographies(context.Background())
		require.NoError(t, err)
		return stats, all
	}

	seqStats, seqBios := run(1)
	parStats, parBios := run(4)

	require.Equal(t, seqStats, parStats)
	require.Equal(t, seqBios, parBios)
	require.Len(t, parBios, len(bios))
}

func TestCacheErrorIsFatal(t *testing.T) {
	for _, concurrency := range []int{1, 4} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			scraper := newFakeScraper(map[string]string{"Q1": "bio", "Q3": "bio"})
			h := New(sampleAPI(), failingStore{Store: newStore(t)}, scraper, Options{Concurrency: concurrency}, nil)

			_, err := h.ScrapeBiographies(context.Background(), []domain.Leader{{ID: "Q1"}, {ID: "Q3"}})
			require.Error(t, err)
			require.True(t, errors.IsCacheError(err))
		})
	}
}

func TestConsolidateEmptyLeaders(t *testing.T) {
	output := filepath.Join(t.TempDir(), "leaders.json")
	h := New(sampleAPI(), newStore(t), newFakeScraper(nil), Options{OutputPath: output}, nil)

	n, err := h.Consolidate(context.Background(), nil)
	require.NoError(t, err)
	require.Zero(t, n)

	raw, err := os.ReadFile(output)
	require.NoError(t, err)
	require.Equal(t, "[]\n", string(raw))
}
