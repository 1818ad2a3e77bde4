// Package cache persists country rosters and leader biographies between runs.
package cache

import (
	"context"

	"github.com/bryanmaina/wikipedia-scraper/internal/config"
	"github.com/bryanmaina/wikipedia-scraper/internal/domain"
	"github.com/bryanmaina/wikipedia-scraper/pkg/errors"
	"go.uber.org/zap"
)

// Store is the persistence contract shared by every backend.
//
// Get methods report a miss with found == false and a nil error. Any error a
// Store returns is a *errors.CacheError.
type Store interface {
	GetRoster(ctx context.Context, country string) ([]domain.Leader, bool, error)
	PutRoster(ctx context.Context, country string, leaders []domain.Leader) error
	GetBiography(ctx context.Context, leaderID string) (*domain.Biography, bool, error)
	PutBiography(ctx context.Context, bio domain.Biography) error
	ListBiographies(ctx context.Context) (map[string]domain.Biography, error)
	Close() error
}

// Open builds the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFileStore(cfg.Dir, logger)
	case config.BackendSQLite:
		return NewSQLiteStore(ctx, cfg.SQLitePath, logger)
	case config.BackendRedis:
		return NewRedisStore(ctx, RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
	default:
		return nil, errors.NewCacheError("unknown cache backend", "open", cfg.Backend, nil)
	}
}
