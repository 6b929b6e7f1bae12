package cache

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	id         TEXT PRIMARY KEY,
	cache_key  TEXT NOT NULL UNIQUE,
	value      BLOB NOT NULL,
	cached_at  INTEGER NOT NULL, -- unix ms
	expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_geocode_cache_expires_at ON geocode_cache(expires_at);
`

// SQLite keeps entries in a local database file.
type SQLite struct {
	db      *sql.DB
	ttl     time.Duration
	now     func() time.Time
	janitor *janitor
}

// NewSQLite opens dsn in WAL mode and creates the cache table.
func NewSQLite(ctx context.Context, dsn string, ttl time.Duration) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "cache: sqlite open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "cache: sqlite exec %s", pragma)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteMigration); err != nil {
		db.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "cache: sqlite migrate")
	}
	return &SQLite{db: db, ttl: ttl, now: time.Now}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM geocode_cache WHERE cache_key = ? AND expires_at > ?`,
		key, s.now().UnixMilli(),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "cache: sqlite get")
	}
	return value, true, nil
}

func (s *SQLite) Set(ctx context.Context, key string, value []byte) error {
	now := s.now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO geocode_cache (id, cache_key, value, cached_at, expires_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET value = excluded.value, cached_at = excluded.cached_at, expires_at = excluded.expires_at`,
		uuid.New().String(), key, value, now.UnixMilli(), now.Add(s.ttl).UnixMilli(),
	)
	return eris.Wrap(err, "cache: sqlite set")
}

// DeleteExpired removes entries past their expiry and reports how many.
func (s *SQLite) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM geocode_cache WHERE expires_at <= ?`, s.now().UnixMilli())
	if err != nil {
		return 0, eris.Wrap(err, "cache: sqlite delete expired")
	}
	n, err := res.RowsAffected()
	return n, eris.Wrap(err, "cache: sqlite rows affected")
}

// StartSweeper deletes expired entries now and then every interval until Close.
func (s *SQLite) StartSweeper(interval time.Duration) {
	if interval <= 0 || s.janitor != nil {
		return
	}
	s.janitor = runJanitor("sqlite", interval, s.DeleteExpired)
}

func (s *SQLite) Close() error {
	s.janitor.stop()
	return s.db.Close()
}
