// Package cache provides the geocode result cache backends selected by
// cache.driver: none, memory, redis, sqlite and postgres.
package cache

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/urbanscope/citysearch/internal/config"
	"github.com/urbanscope/citysearch/pkg/geocode"
)

// Store is a geocode.Cache that holds resources.
type Store interface {
	geocode.Cache
	Close() error
}

// New opens the backend named by cfg.Driver.
func New(ctx context.Context, cfg config.CacheConfig) (Store, error) {
	ttl := cfg.TTL()
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "", "none":
		s = Nop{}
	case "memory":
		s = NewMemory(ttl)
	case "redis":
		s, err = NewRedis(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, ttl)
	case "sqlite":
		var db *SQLite
		if db, err = NewSQLite(ctx, cfg.SQLitePath, ttl); err == nil {
			db.StartSweeper(cfg.SweepInterval())
			s = db
		}
	case "postgres":
		var db *Postgres
		if db, err = NewPostgres(ctx, cfg.DatabaseURL, ttl); err == nil {
			db.StartSweeper(cfg.SweepInterval())
			s = db
		}
	default:
		return nil, eris.Errorf("cache: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	zap.L().Debug("cache: opened",
		zap.String("driver", cfg.Driver),
		zap.Duration("ttl", ttl),
	)
	return s, nil
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, string, []byte) error         { return nil }
func (Nop) Close() error                                      { return nil }
