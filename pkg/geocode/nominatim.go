package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/urbanscope/citysearch/internal/metrics"
	"github.com/urbanscope/citysearch/internal/resilience"
)

// maxBodyBytes bounds a provider response; a city search is a few KB.
const maxBodyBytes = 2 << 20

// SearchCities implements Client.
func (n *nominatim) SearchCities(ctx context.Context, query string) []CityResult {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < n.minQuery {
		return []CityResult{}
	}

	key := SearchKey(q, n.limit, n.language)
	if cached, ok := n.cachedCities(ctx, key); ok {
		return cached
	}

	// The shared fetch outlives any one caller; each caller stops waiting
	// when its own context ends. doGet still bounds every attempt.
	fetchCtx := context.WithoutCancel(ctx)
	ch := n.flight.DoChan(key, func() (any, error) {
		results, err := n.fetchCities(fetchCtx, q)
		if err == nil && len(results) > 0 {
			n.storeCities(fetchCtx, key, results)
		}
		return results, err
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		zap.L().Debug("geocode: caller gave up on city search",
			zap.String("query", q),
			zap.Error(ctx.Err()),
		)
		return []CityResult{}
	}
	v, err := res.Val, res.Err
	if err != nil {
		zap.L().Warn("geocode: city search failed, returning no results",
			zap.String("query", q),
			zap.String("kind", failureKind(err)),
			zap.Error(err),
		)
		metrics.EmptyResultsTotal.Inc()
		return []CityResult{}
	}

	results := cloneResults(v.([]CityResult))
	if len(results) == 0 {
		metrics.EmptyResultsTotal.Inc()
	}
	return results
}

// CityDetails implements Client.
func (n *nominatim) CityDetails(ctx context.Context, name string) *CityResult {
	results := n.SearchCities(ctx, name)
	if len(results) == 0 {
		return nil
	}
	return &results[0]
}

// ReverseGeocode implements Client. A provider reply carrying an "error"
// payload (nothing at that point, e.g. open ocean) yields nil rather than an
// "Unknown" city; "Unknown" is only used for a place with no settlement name.
func (n *nominatim) ReverseGeocode(ctx context.Context, lat, lon float64) *ReverseResult {
	if !ValidateCoordinates(lat, lon) {
		zap.L().Debug("geocode: reverse lookup skipped, invalid coordinates",
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
		)
		return nil
	}

	key := ReverseKey(lat, lon)
	if cached, ok := n.cachedReverse(ctx, key); ok {
		return cached
	}

	params := url.Values{
		"lat":            {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":            {strconv.FormatFloat(lon, 'f', -1, 64)},
		"format":         {"json"},
		"addressdetails": {"1"},
		"zoom":           {"10"},
	}

	var entry reverseEntry
	if err := n.getJSON(ctx, "reverse", "/reverse", params, &entry); err != nil {
		zap.L().Warn("geocode: reverse lookup failed",
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
			zap.String("kind", failureKind(err)),
			zap.Error(err),
		)
		return nil
	}
	if entry.Error != "" {
		zap.L().Debug("geocode: provider found nothing at coordinates",
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
			zap.String("provider_error", entry.Error),
		)
		return nil
	}

	result := normalizeReverse(entry)
	n.storeReverse(ctx, key, result)
	return result
}

func (n *nominatim) fetchCities(ctx context.Context, q string) ([]CityResult, error) {
	params := url.Values{
		"q":               {q},
		"format":          {"json"},
		"addressdetails":  {"1"},
		"limit":           {strconv.Itoa(n.limit)},
		"featuretype":     {"city"},
		"accept-language": {n.language},
	}

	var entries []searchEntry
	if err := n.getJSON(ctx, "search", "/search", params, &entries); err != nil {
		return nil, err
	}

	results := normalizeResults(entries)
	zap.L().Debug("geocode: city search",
		zap.String("query", q),
		zap.Int("provider_results", len(entries)),
		zap.Int("cities", len(results)),
	)
	return results, nil
}

// getJSON performs one logical provider call: circuit breaker, retries,
// rate limiting and a bounded timeout per attempt.
func (n *nominatim) getJSON(ctx context.Context, endpoint, path string, params url.Values, out any) error {
	start := time.Now()
	metrics.ProviderRequestsTotal.WithLabelValues(endpoint).Inc()

	err := n.breaker.Execute(ctx, func(ctx context.Context) error {
		return resilience.Do(ctx, n.retry, func(ctx context.Context) error {
			return n.doGet(ctx, path, params, out)
		})
	})

	metrics.ProviderDurationMs.WithLabelValues(endpoint).Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.ProviderFailuresTotal.WithLabelValues(endpoint, failureKind(err)).Inc()
	}
	return err
}

func (n *nominatim) doGet(ctx context.Context, path string, params url.Values, out any) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	if err := n.limiter.Wait(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return networkError(eris.Wrap(err, "geocode: rate limit"), 0)
		}
		return throttledError(err)
	}

	reqURL := strings.TrimRight(n.baseURL, "/") + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return eris.Wrap(err, "geocode: build request")
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return networkError(eris.Wrap(err, "geocode: request"), 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return networkError(eris.Errorf("geocode: provider returned status %d", resp.StatusCode), resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return networkError(eris.Wrap(err, "geocode: read body"), 0)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return malformedError(eris.Wrap(err, "geocode: parse response"))
	}
	return nil
}

func cloneResults(in []CityResult) []CityResult {
	out := make([]CityResult, len(in))
	for i, r := range in {
		if r.BBox != nil {
			r.BBox = append([]string(nil), r.BBox...)
		}
		out[i] = r
	}
	return out
}
