package cache

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bryanmaina/wikipedia-scraper/internal/constants"
	"github.com/bryanmaina/wikipedia-scraper/internal/domain"
	"github.com/bryanmaina/wikipedia-scraper/internal/util"
	"github.com/bryanmaina/wikipedia-scraper/pkg/errors"
	"go.uber.org/zap"
)

// FileStore keeps one JSON document per key inside a directory:
// <country>_leaders.json for rosters and <leader_id>_bio.json for biographies.
type FileStore struct {
	dir    string
	logger *zap.Logger
	locks  sync.Map // file name -> *sync.Mutex
}

func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.NewCacheError("failed to create cache directory", "open", dir, err)
	}

	logger = util.OrNop(logger)
	logger.Debug("File cache ready", zap.String("dir", dir))

	return &FileStore{dir: dir, logger: logger}, nil
}

func (s *FileStore) GetRoster(ctx context.Context, country string) ([]domain.Leader, bool, error) {
	name := rosterFileName(country)

	var leaders []domain.Leader
	found, err := s.readJSON(name, "get_roster", &leaders)
	if err != nil || !found {
		return nil, found, err
	}
	if leaders == nil {
		leaders = []domain.Leader{}
	}
	return leaders, true, nil
}

func (s *FileStore) PutRoster(ctx context.Context, country string, leaders []domain.Leader) error {
	if leaders == nil {
		leaders = []domain.Leader{}
	}
	return s.writeJSON(rosterFileName(country), "put_roster", leaders)
}

func (s *FileStore) GetBiography(ctx context.Context, leaderID string) (*domain.Biography, bool, error) {
	var bio domain.Biography
	found, err := s.readJSON(bioFileName(leaderID), "get_biography", &bio)
	if err != nil || !found {
		return nil, found, err
	}
	return &bio, true, nil
}

func (s *FileStore) PutBiography(ctx context.Context, bio domain.Biography) error {
	return s.writeJSON(bioFileName(bio.LeaderID), "put_biography", bio)
}

func (s *FileStore) ListBiographies(ctx context.Context) (map[string]domain.Biography, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.NewCacheError("failed to list cache directory", "list_biographies", s.dir, err)
	}

	suffix := constants.CacheConfig.BiographyFileSuffix
	result := make(map[string]domain.Biography)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, errors.NewCacheError("listing interrupted", "list_biographies", s.dir, err)
		}

		var bio domain.Biography
		found, err := s.readJSON(entry.Name(), "list_biographies", &bio)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		result[bio.LeaderID] = bio
	}

	return result, nil
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) readJSON(name, op string, dest any) (bool, error) {
	path := filepath.Join(s.dir, name)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		s.logger.Error("Cache read failed", zap.String("path", path), zap.Error(err))
		return false, errors.NewCacheError("read failed", op, name, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		s.logger.Error("Cache unmarshal failed", zap.String("path", path), zap.Error(err))
		return false, errors.NewCacheError("unmarshal failed", op, name, err)
	}
	return true, nil
}

func (s *FileStore) writeJSON(name, op string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.NewCacheError("marshal failed", op, name, err)
	}

	mu := s.lockFor(name)
	mu.Lock()
	defer mu.Unlock()

	path := filepath.Join(s.dir, name)
	if err := util.WriteFileAtomic(path, data, 0o644); err != nil {
		s.logger.Error("Cache write failed", zap.String("path", path), zap.Error(err))
		return errors.NewCacheError("write failed", op, name, err)
	}
	return nil
}

func (s *FileStore) lockFor(name string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(name, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func rosterFileName(country string) string {
	return url.PathEscape(country) + constants.CacheConfig.RosterFileSuffix
}

func bioFileName(leaderID string) string {
	return url.PathEscape(leaderID) + constants.CacheConfig.BiographyFileSuffix
}
