package cache

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/bryanmaina/wikipedia-scraper/internal/domain"
	"github.com/bryanmaina/wikipedia-scraper/internal/util"
	"github.com/bryanmaina/wikipedia-scraper/pkg/errors"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// SQLiteStore keeps the cache in a single database file. Every write is one
// upsert statement.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewSQLiteStore(ctx context.Context, path string, logger *zap.Logger) (*SQLiteStore, error) {
	logger = util.OrNop(logger)

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.NewCacheError("failed to create database directory", "open", path, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.NewCacheError("failed to open database", "open", path, err)
	}
	// a single connection serializes writers and keeps :memory: databases alive
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, errors.NewCacheError("failed to apply schema", "open", path, err)
	}

	logger.Debug("SQLite cache ready", zap.String("path", path))

	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) GetRoster(ctx context.Context, country string) ([]domain.Leader, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `select leaders from rosters where country = ?`, country).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		s.logger.Error("Roster query failed", zap.String("country", country), zap.Error(err))
		return nil, false, errors.NewCacheError("query failed", "get_roster", country, err)
	}

	var leaders []domain.Leader
	if err := json.Unmarshal([]byte(raw), &leaders); err != nil {
		return nil, false, errors.NewCacheError("unmarshal failed", "get_roster", country, err)
	}
	if leaders == nil {
		leaders = []domain.Leader{}
	}
	return leaders, true, nil
}

func (s *SQLiteStore) PutRoster(ctx context.Context, country string, leaders []domain.Leader) error {
	if leaders == nil {
		leaders = []domain.Leader{}
	}
	data, err := json.Marshal(leaders)
	if err != nil {
		return errors.NewCacheError("marshal failed", "put_roster", country, err)
	}

	_, err = s.db.ExecContext(ctx,
		`insert into rosters (country, leaders) values (?, ?)
		on conflict (country) do update set leaders = excluded.leaders`,
		country, string(data),
	)
	if err != nil {
		s.logger.Error("Roster upsert failed", zap.String("country", country), zap.Error(err))
		return errors.NewCacheError("upsert failed", "put_roster", country, err)
	}
	return nil
}

func (s *SQLiteStore) GetBiography(ctx context.Context, leaderID string) (*domain.Biography, bool, error) {
	bio := domain.Biography{LeaderID: leaderID}
	err := s.db.QueryRowContext(ctx, `select content from biographies where leader_id = ?`, leaderID).Scan(&bio.Content)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		s.logger.Error("Biography query failed", zap.String("leader_id", leaderID), zap.Error(err))
		return nil, false, errors.NewCacheError("query failed", "get_biography", leaderID, err)
	}
	return &bio, true, nil
}

func (s *SQLiteStore) PutBiography(ctx context.Context, bio domain.Biography) error {
	_, err := s.db.ExecContext(ctx,
		`insert into biographies (leader_id, content) values (?, ?)
		on conflict (leader_id) do update set content = excluded.content`,
		bio.LeaderID, bio.Content,
	)
	if err != nil {
		s.logger.Error("Biography upsert failed", zap.String("leader_id", bio.LeaderID), zap.Error(err))
		return errors.NewCacheError("upsert failed", "put_biography", bio.LeaderID, err)
	}
	return nil
}

func (s *SQLiteStore) ListBiographies(ctx context.Context) (map[string]domain.Biography, error) {
	rows, err := s.db.QueryContext(ctx, `select leader_id, content from biographies`)
	if err != nil {
		return nil, errors.NewCacheError("query failed", "list_biographies", "", err)
	}
	defer rows.Close()

	result := make(map[string]domain.Biography)
	for rows.Next() {
		var bio domain.Biography
		if err := rows.Scan(&bio.LeaderID, &bio.Content); err != nil {
			return nil, errors.NewCacheError("scan failed", "list_biographies", "", err)
		}
		result[bio.LeaderID] = bio
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewCacheError("iteration failed", "list_biographies", "", err)
	}
	return result, nil
}

func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return errors.NewCacheError("close failed", "close", "", err)
	}
	return nil
}
