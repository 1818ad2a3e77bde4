package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bryanmaina/wikipedia-scraper/internal/constants"
	"github.com/bryanmaina/wikipedia-scraper/internal/domain"
	"github.com/bryanmaina/wikipedia-scraper/internal/util"
	"github.com/bryanmaina/wikipedia-scraper/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisStore keeps rosters and biographies as JSON strings. The set at
// constants.CacheConfig.RedisBioIndex tracks every stored biography id.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisStore(ctx context.Context, cfg RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	logger = util.OrNop(logger)

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, constants.CacheConfig.RedisReadyTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.NewCacheError("failed to connect to Redis", "ping", "", err)
	}

	logger.Info("Redis connected",
		zap.String("addr", cfg.Addr()),
		zap.Int("db", cfg.DB),
	)

	return &RedisStore{client: client, logger: logger}, nil
}

func (r *RedisStore) GetRoster(ctx context.Context, country string) ([]domain.Leader, bool, error) {
	key := constants.CacheConfig.RedisRosterPrefix + country

	var leaders []domain.Leader
	found, err := r.get(ctx, key, "get_roster", &leaders)
	if err != nil || !found {
		return nil, found, err
	}
	if leaders == nil {
		leaders = []domain.Leader{}
	}
	return leaders, true, nil
}

func (r *RedisStore) PutRoster(ctx context.Context, country string, leaders []domain.Leader) error {
	if leaders == nil {
		leaders = []domain.Leader{}
	}
	key := constants.CacheConfig.RedisRosterPrefix + country

	data, err := json.Marshal(leaders)
	if err != nil {
		return errors.NewCacheError("marshal failed", "put_roster", key, err)
	}

	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		r.logger.Error("Cache set failed", zap.String("key", key), zap.Error(err))
		return errors.NewCacheError("set failed", "put_roster", key, err)
	}
	return nil
}

func (r *RedisStore) GetBiography(ctx context.Context, leaderID string) (*domain.Biography, bool, error) {
	key := constants.CacheConfig.RedisBioPrefix + leaderID

	var bio domain.Biography
	found, err := r.get(ctx, key, "get_biography", &bio)
	if err != nil || !found {
		return nil, found, err
	}
	return &bio, true, nil
}

// PutBiography writes the document and its index entry in one MULTI/EXEC.
func (r *RedisStore) PutBiography(ctx context.Context, bio domain.Biography) error {
	key := constants.CacheConfig.RedisBioPrefix + bio.LeaderID

	data, err := json.Marshal(bio)
	if err != nil {
		return errors.NewCacheError("marshal failed", "put_biography", key, err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, data, 0)
		pipe.SAdd(ctx, constants.CacheConfig.RedisBioIndex, bio.LeaderID)
		return nil
	})
	if err != nil {
		r.logger.Error("Cache transaction failed", zap.String("key", key), zap.Error(err))
		return errors.NewCacheError("transaction failed", "put_biography", key, err)
	}
	return nil
}

func (r *RedisStore) ListBiographies(ctx context.Context) (map[string]domain.Biography, error) {
	indexKey := constants.CacheConfig.RedisBioIndex

	ids, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		r.logger.Error("Cache smembers failed", zap.String("key", indexKey), zap.Error(err))
		return nil, errors.NewCacheError("smembers failed", "list_biographies", indexKey, err)
	}

	result := make(map[string]domain.Biography, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = constants.CacheConfig.RedisBioPrefix + id
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		r.logger.Error("Cache mget failed", zap.Int("count", len(keys)), zap.Error(err))
		return nil, errors.NewCacheError("mget failed", "list_biographies", fmt.Sprintf("%d keys", len(keys)), err)
	}

	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			// indexed but the document is gone
			continue
		}
		var bio domain.Biography
		if err := json.Unmarshal([]byte(raw), &bio); err != nil {
			return nil, errors.NewCacheError("unmarshal failed", "list_biographies", keys[i], err)
		}
		result[bio.LeaderID] = bio
	}

	return result, nil
}

func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		return errors.NewCacheError("close failed", "close", "", err)
	}
	return nil
}

func (r *RedisStore) get(ctx context.Context, key, op string, dest any) (bool, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		r.logger.Error("Cache get failed", zap.String("key", key), zap.Error(err))
		return false, errors.NewCacheError("get failed", op, key, err)
	}

	if err := json.Unmarshal([]byte(value), dest); err != nil {
		r.logger.Error("Cache unmarshal failed", zap.String("key", key), zap.Error(err))
		return false, errors.NewCacheError("unmarshal failed", op, key, err)
	}
	return true, nil
}
