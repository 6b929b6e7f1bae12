package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the cache uses; pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	id         UUID PRIMARY KEY,
	cache_key  TEXT NOT NULL UNIQUE,
	value      BYTEA NOT NULL,
	cached_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_geocode_cache_expires_at ON geocode_cache (expires_at)`

// Postgres keeps entries in a shared database so several instances reuse them.
type Postgres struct {
	pool    Pool
	ttl     time.Duration
	janitor *janitor
}

// NewPostgres connects a small pool and creates the cache table.
func NewPostgres(ctx context.Context, connString string, ttl time.Duration) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "cache: postgres parse config")
	}
	cfg.MaxConns = 4
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "cache: postgres connect")
	}
	p := &Postgres{pool: pool, ttl: ttl}
	if err := p.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// Migrate creates the cache table if it does not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "cache: postgres migrate")
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := p.pool.QueryRow(ctx,
		`SELECT value FROM geocode_cache WHERE cache_key = $1 AND expires_at > now()`,
		key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "cache: postgres get")
	}
	return value, true, nil
}

func (p *Postgres) Set(ctx context.Context, key string, value []byte) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO geocode_cache (id, cache_key, value, cached_at, expires_at)
		 VALUES ($1, $2, $3, now(), now() + $4::bigint * interval '1 second')
		 ON CONFLICT (cache_key) DO UPDATE
		 SET value = EXCLUDED.value, cached_at = EXCLUDED.cached_at, expires_at = EXCLUDED.expires_at`,
		uuid.New().String(), key, value, int64(p.ttl/time.Second),
	)
	return eris.Wrap(err, "cache: postgres set")
}

// DeleteExpired removes entries past their expiry and reports how many.
func (p *Postgres) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM geocode_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "cache: postgres delete expired")
	}
	return tag.RowsAffected(), nil
}

// StartSweeper deletes expired entries now and then every interval until Close.
func (p *Postgres) StartSweeper(interval time.Duration) {
	if interval <= 0 || p.janitor != nil {
		return
	}
	p.janitor = runJanitor("postgres", interval, p.DeleteExpired)
}

func (p *Postgres) Close() error {
	p.janitor.stop()
	p.pool.Close()
	return nil
}
