package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/urbanscope/citysearch/internal/cache"
	"github.com/urbanscope/citysearch/internal/config"
	"github.com/urbanscope/citysearch/internal/resilience"
	"github.com/urbanscope/citysearch/pkg/geocode"
)

// searchEnv holds the geocoder and its supporting resources for every
// subcommand.
type searchEnv struct {
	Client  geocode.Client
	Cache   cache.Store
	Popular []geocode.PopularCity
}

// Close releases the cache connection.
func (e *searchEnv) Close() {
	if e.Cache != nil {
		if err := e.Cache.Close(); err != nil {
			zap.L().Warn("close cache", zap.Error(err))
		}
	}
}

// initEnv opens the configured cache, loads the popular cities and builds
// the geocoder. Callers should defer env.Close().
func initEnv(ctx context.Context) (*searchEnv, error) {
	popular, err := geocode.LoadPopularCities(cfg.Search.PopularCitiesFile)
	if err != nil {
		return nil, err
	}

	store, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		zap.L().Warn("cache unavailable, continuing without it",
			zap.String("driver", cfg.Cache.Driver),
			zap.Error(err),
		)
		store = cache.Nop{}
	}

	return &searchEnv{
		Client:  geocode.NewClient(clientOptions(cfg, store)...),
		Cache:   store,
		Popular: popular,
	}, nil
}

// clientOptions maps configuration onto geocoder options.
func clientOptions(c *config.Config, store geocode.Cache) []geocode.Option {
	retry := resilience.DefaultRetryConfig()
	if c.Resilience.RetryAttempts > 0 {
		retry.MaxAttempts = c.Resilience.RetryAttempts
	}
	if c.Resilience.RetryBackoffMs > 0 {
		retry.InitialBackoff = time.Duration(c.Resilience.RetryBackoffMs) * time.Millisecond
	}

	breaker := resilience.NewCircuitBreaker(resilience.BreakerConfig{
		FailureThreshold: c.Resilience.BreakerThreshold,
		ResetTimeout:     time.Duration(c.Resilience.BreakerResetSecs) * time.Second,
		OnStateChange: func(from, to resilience.CircuitState) {
			geocode.RecordCircuitTransition(from, to)
			zap.L().Warn("geocoder circuit breaker state change",
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
	})

	opts := []geocode.Option{
		geocode.WithBaseURL(c.Geocoder.BaseURL),
		geocode.WithUserAgent(c.Geocoder.UserAgent),
		geocode.WithLanguage(c.Geocoder.Language),
		geocode.WithResultLimit(c.Geocoder.ResultLimit),
		geocode.WithMinQueryLength(c.Geocoder.MinQueryLength),
		geocode.WithTimeout(c.Geocoder.Timeout()),
		geocode.WithRateLimit(c.Geocoder.RateLimit),
		geocode.WithRetry(retry),
		geocode.WithCircuitBreaker(breaker),
	}
	if store != nil {
		opts = append(opts, geocode.WithCache(store))
	}
	return opts
}

// argCoordinates parses a lat/lon argument pair.
func argCoordinates(lat, lon string) (float64, float64, error) {
	la, lo, err := geocode.ParseCoordinates(lat, lon)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "invalid coordinates %q %q", lat, lon)
	}
	return la, lo, nil
}
