// Package geocode resolves city names to coordinates (and back) through a
// Nominatim-compatible search provider.
package geocode

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/urbanscope/citysearch/internal/metrics"
	"github.com/urbanscope/citysearch/internal/resilience"
)

const (
	defaultBaseURL     = "https://nominatim.openstreetmap.org"
	defaultUserAgent   = "UrbanScope-CitySearch/1.0"
	defaultLanguage    = "en"
	defaultResultLimit = 10
	defaultMinQuery    = 2
	defaultTimeout     = 8 * time.Second
)

// Client looks up cities. Implementations never return provider errors:
// failures degrade to an empty result list (search) or nil (reverse).
type Client interface {
	// SearchCities returns the city-like matches for query, or an empty slice.
	SearchCities(ctx context.Context, query string) []CityResult

	// ReverseGeocode returns the city containing lat/lon, or nil.
	ReverseGeocode(ctx context.Context, lat, lon float64) *ReverseResult

	// CityDetails returns the best match for name, or nil.
	CityDetails(ctx context.Context, name string) *CityResult
}

// CityResult is one normalized search match.
type CityResult struct {
	Name        string   `json:"name"`
	City        string   `json:"city"`
	Country     string   `json:"country"`
	CountryCode string   `json:"countryCode"`
	State       string   `json:"state"`
	Lat         float64  `json:"lat"`
	Lon         float64  `json:"lon"`
	BBox        []string `json:"bbox,omitempty"`
	DisplayName string   `json:"displayName"`
}

// Label is the text a search box shows once the city is chosen.
func (c CityResult) Label() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.Name + ", " + c.Country
}

// ReverseResult is the city found at a coordinate.
type ReverseResult struct {
	City        string `json:"city"`
	Country     string `json:"country"`
	State       string `json:"state"`
	DisplayName string `json:"displayName"`
}

// Option configures the client.
type Option func(*nominatim)

// WithBaseURL overrides the provider base URL.
func WithBaseURL(url string) Option {
	return func(n *nominatim) {
		n.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(n *nominatim) {
		n.httpClient = hc
	}
}

// WithUserAgent sets the identifying header the provider's usage policy requires.
func WithUserAgent(ua string) Option {
	return func(n *nominatim) {
		if ua != "" {
			n.userAgent = ua
		}
	}
}

// WithLanguage sets the accept-language hint.
func WithLanguage(lang string) Option {
	return func(n *nominatim) {
		if lang != "" {
			n.language = lang
		}
	}
}

// WithResultLimit caps the number of provider results per search.
func WithResultLimit(limit int) Option {
	return func(n *nominatim) {
		if limit > 0 {
			n.limit = limit
		}
	}
}

// WithMinQueryLength sets the shortest query (in runes) that reaches the provider.
func WithMinQueryLength(runes int) Option {
	return func(n *nominatim) {
		if runes > 0 {
			n.minQuery = runes
		}
	}
}

// WithTimeout bounds each provider request. Expiry counts as a network failure.
func WithTimeout(d time.Duration) Option {
	return func(n *nominatim) {
		if d > 0 {
			n.timeout = d
		}
	}
}

// WithRateLimit sets the provider requests-per-second budget.
func WithRateLimit(rps float64) Option {
	return func(n *nominatim) {
		if rps <= 0 {
			n.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		n.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithCache enables result caching.
func WithCache(c Cache) Option {
	return func(n *nominatim) {
		n.cache = c
	}
}

// WithRetry sets the retry policy for transient provider failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(n *nominatim) {
		n.retry = cfg
	}
}

// WithCircuitBreaker guards provider calls with cb.
func WithCircuitBreaker(cb *resilience.CircuitBreaker) Option {
	return func(n *nominatim) {
		n.breaker = cb
	}
}

type nominatim struct {
	baseURL    string
	userAgent  string
	language   string
	limit      int
	minQuery   int
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      Cache
	retry      resilience.RetryConfig
	breaker    *resilience.CircuitBreaker
	flight     singleflight.Group
}

// NewClient creates a Nominatim-backed Client with the given options.
func NewClient(opts ...Option) Client {
	n := &nominatim{
		baseURL:   defaultBaseURL,
		userAgent: defaultUserAgent,
		language:  defaultLanguage,
		limit:     defaultResultLimit,
		minQuery:  defaultMinQuery,
		timeout:   defaultTimeout,
		limiter:   rate.NewLimiter(1, 1), // public Nominatim policy: 1 req/s
		retry:     resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.httpClient == nil {
		n.httpClient = &http.Client{Timeout: n.timeout}
	}
	if n.breaker == nil {
		n.breaker = resilience.NewCircuitBreaker(resilience.BreakerConfig{
			OnStateChange: RecordCircuitTransition,
		})
	}
	if n.retry.OnRetry == nil {
		n.retry.OnRetry = resilience.LogRetry("geocode")
	}
	return n
}

// RecordCircuitTransition is an OnStateChange hook that counts breaker moves.
func RecordCircuitTransition(_, to resilience.CircuitState) {
	metrics.CircuitTransitionsTotal.WithLabelValues(to.String()).Inc()
}
