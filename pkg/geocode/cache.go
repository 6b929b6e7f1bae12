package geocode

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/urbanscope/citysearch/internal/metrics"
)

// Cache stores encoded lookup results. Implementations handle expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

const (
	searchPrefix  = "search:"
	reversePrefix = "reverse:"
)

func (n *nominatim) cachedCities(ctx context.Context, key string) ([]CityResult, bool) {
	var results []CityResult
	if !n.cacheGet(ctx, "search", searchPrefix+key, &results) || len(results) == 0 {
		return nil, false
	}
	return results, true
}

func (n *nominatim) storeCities(ctx context.Context, key string, results []CityResult) {
	n.cacheSet(ctx, searchPrefix+key, results)
}

func (n *nominatim) cachedReverse(ctx context.Context, key string) (*ReverseResult, bool) {
	var result ReverseResult
	if !n.cacheGet(ctx, "reverse", reversePrefix+key, &result) {
		return nil, false
	}
	return &result, true
}

func (n *nominatim) storeReverse(ctx context.Context, key string, result *ReverseResult) {
	n.cacheSet(ctx, reversePrefix+key, result)
}

// cacheGet decodes a hit into out. Backend and decode errors count as misses.
func (n *nominatim) cacheGet(ctx context.Context, kind, key string, out any) bool {
	if n.cache == nil {
		return false
	}
	data, ok, err := n.cache.Get(ctx, key)
	if err != nil {
		zap.L().Warn("geocode: cache get failed", zap.String("key", key), zap.Error(err))
		ok = false
	}
	if ok {
		if err := json.Unmarshal(data, out); err != nil {
			zap.L().Warn("geocode: cache entry corrupt", zap.String("key", key), zap.Error(err))
			ok = false
		}
	}
	if !ok {
		metrics.CacheMissesTotal.WithLabelValues(kind).Inc()
		return false
	}
	metrics.CacheHitsTotal.WithLabelValues(kind).Inc()
	return true
}

func (n *nominatim) cacheSet(ctx context.Context, key string, v any) {
	if n.cache == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		zap.L().Warn("geocode: cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := n.cache.Set(ctx, key, data); err != nil {
		zap.L().Warn("geocode: cache set failed", zap.String("key", key), zap.Error(err))
	}
}
