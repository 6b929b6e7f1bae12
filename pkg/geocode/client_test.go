package geocode

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanscope/citysearch/internal/resilience"
)

const parisSearchJSON = `[
	{
		"display_name": "Paris, Île-de-France, France métropolitaine, France",
		"name": "Paris",
		"type": "city",
		"lat": "48.8588897",
		"lon": "2.3200410",
		"boundingbox": ["48.8155755", "48.9021560", "2.2241220", "2.4697602"],
		"address": {"city": "Paris", "state": "Île-de-France", "country": "France", "country_code": "fr"}
	},
	{
		"display_name": "Paris, Lamar County, Texas, United States",
		"name": "Paris",
		"type": "town",
		"lat": "33.6617962",
		"lon": "-95.5555130",
		"address": {"town": "Paris", "state": "Texas", "country": "United States", "country_code": "us"}
	},
	{
		"display_name": "Rue de Paris, Lyon, France",
		"name": "Rue de Paris",
		"type": "residential",
		"lat": "45.75",
		"lon": "4.85",
		"address": {"road": "Rue de Paris", "country": "France", "country_code": "fr"}
	},
	{
		"display_name": "Paris Region",
		"name": "Paris Region",
		"type": "administrative",
		"lat": 48.7,
		"lon": 2.5
	}
]`

func TestSearchCities_ShortQuery_NoNetworkCall(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	for _, q := range []string{"", "P", "  a  ", "é"} {
		got := c.SearchCities(context.Background(), q)
		assert.NotNil(t, got, "query %q", q)
		assert.Empty(t, got, "query %q", q)
	}
	assert.Equal(t, int32(0), calls.Load())
}

func TestSearchCities_RequestShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "Paris", q.Get("q"))
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "1", q.Get("addressdetails"))
		assert.Equal(t, "10", q.Get("limit"))
		assert.Equal(t, "city", q.Get("featuretype"))
		assert.Equal(t, "en", q.Get("accept-language"))
		assert.Equal(t, "Test-Agent/2.0", r.Header.Get("User-Agent"))
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, WithUserAgent("Test-Agent/2.0"))
	got := c.SearchCities(context.Background(), "  Paris ")
	assert.Empty(t, got)
}

func TestSearchCities_FiltersAndNormalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, parisSearchJSON)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	got := c.SearchCities(context.Background(), "Paris")
	require.Len(t, got, 3)

	assert.Equal(t, "Paris", got[0].City)
	assert.Equal(t, "Paris, Île-de-France, France", got[0].DisplayName)
	assert.Equal(t, "FR", got[0].CountryCode)
	assert.InDelta(t, 48.8588897, got[0].Lat, 1e-9)
	assert.InDelta(t, 2.3200410, got[0].Lon, 1e-9)
	assert.Len(t, got[0].BBox, 4)
	assert.Equal(t, "Paris, Île-de-France, France métropolitaine, France", got[0].Name)

	assert.Equal(t, "Paris", got[1].City)
	assert.Equal(t, "Paris, Texas, United States", got[1].DisplayName)

	assert.Equal(t, "Paris Region", got[2].City)
	assert.Equal(t, "Paris Region", got[2].DisplayName)
	assert.InDelta(t, 48.7, got[2].Lat, 1e-9)
}

func TestSearchCities_FailuresReturnEmpty(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"forbidden", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}},
		{"malformed json", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{not json`)
		}},
		{"wrong shape", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"error":"nope"}`)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			got := newTestClient(t, srv).SearchCities(context.Background(), "Paris")
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestSearchCities_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := newTestClient(t, srv, WithTimeout(50*time.Millisecond))
	start := time.Now()
	got := c.SearchCities(context.Background(), "Paris")
	assert.Empty(t, got)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSearchCities_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	c := newTestClient(t, srv)
	srv.Close()

	assert.Empty(t, c.SearchCities(context.Background(), "Paris"))
}

func TestSearchCities_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, parisSearchJSON)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, WithRetry(resilience.RetryConfig{
		MaxAttempts:    2,
		InitialBackoff: time.Millisecond,
	}))
	got := c.SearchCities(context.Background(), "Paris")
	assert.Len(t, got, 3)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSearchCities_DoesNotRetryClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, WithRetry(resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
	}))
	assert.Empty(t, c.SearchCities(context.Background(), "Paris"))
	assert.Equal(t, int32(1), calls.Load())
}

func TestSearchCities_CircuitOpenSkipsProvider(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cb := resilience.NewCircuitBreaker(resilience.BreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Hour,
	})
	c := newTestClient(t, srv, WithCircuitBreaker(cb))

	assert.Empty(t, c.SearchCities(context.Background(), "Paris"))
	assert.Equal(t, resilience.CircuitOpen, cb.State())
	assert.Empty(t, c.SearchCities(context.Background(), "London"))
	assert.Equal(t, int32(1), calls.Load())
}

func TestSearchCities_LocalThrottlingDoesNotOpenBreaker(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, parisSearchJSON)
	}))
	defer srv.Close()

	cb := resilience.NewCircuitBreaker(resilience.BreakerConfig{
		FailureThreshold: 3,
		ResetTimeout:     time.Hour,
	})
	c := newTestClient(t, srv,
		WithRateLimit(5),
		WithTimeout(100*time.Millisecond),
		WithCircuitBreaker(cb),
	)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.SearchCities(context.Background(), fmt.Sprintf("Paris %d", i))
		}(i)
	}
	wg.Wait()

	assert.Less(t, calls.Load(), int32(10), "some searches should be throttled locally")
	assert.Equal(t, resilience.CircuitClosed, cb.State())

	time.Sleep(300 * time.Millisecond)
	assert.Len(t, c.SearchCities(context.Background(), "Paris"), 3)
}

func TestSearchCities_CancelledCallerDoesNotFailJoinedCaller(t *testing.T) {
	arrived := make(chan struct{}, 1)
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		select {
		case arrived <- struct{}{}:
		default:
		}
		time.Sleep(300 * time.Millisecond)
		_, _ = io.WriteString(w, parisSearchJSON)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)

	ctx1, cancel1 := context.WithCancel(context.Background())
	defer cancel1()
	first := make(chan []CityResult, 1)
	go func() { first <- c.SearchCities(ctx1, "Paris") }()
	<-arrived

	second := make(chan []CityResult, 1)
	go func() { second <- c.SearchCities(context.Background(), "Paris") }()
	time.Sleep(50 * time.Millisecond)
	cancel1()

	select {
	case got := <-first:
		assert.Empty(t, got)
	case <-time.After(200 * time.Millisecond):
		t.Fatal("cancelled caller kept waiting for the shared fetch")
	}

	select {
	case got := <-second:
		assert.Len(t, got, 3)
	case <-time.After(2 * time.Second):
		t.Fatal("joined caller never got a result")
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestSearchCities_CachesNonEmptyResults(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("q") == "Nowhere" {
			_, _ = io.WriteString(w, `[]`)
			return
		}
		_, _ = io.WriteString(w, parisSearchJSON)
	}))
	defer srv.Close()

	cache := newMemCache()
	c := newTestClient(t, srv, WithCache(cache))

	first := c.SearchCities(context.Background(), "Paris")
	second := c.SearchCities(context.Background(), "  PARIS ")
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, cache.sets)
	assert.Contains(t, cache.lastKey, "search:")

	c.SearchCities(context.Background(), "Nowhere")
	c.SearchCities(context.Background(), "Nowhere")
	assert.Equal(t, int32(3), calls.Load(), "empty result sets are not cached")
}

func TestSearchCities_CacheErrorsAreMisses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, parisSearchJSON)
	}))
	defer srv.Close()

	cache := newMemCache()
	cache.getErr = eris.New("backend down")
	cache.setErr = eris.New("backend down")
	c := newTestClient(t, srv, WithCache(cache))

	assert.Len(t, c.SearchCities(context.Background(), "Paris"), 3)
}

func TestSearchCities_ReturnsCopies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, parisSearchJSON)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, WithCache(newMemCache()))
	first := c.SearchCities(context.Background(), "Paris")
	first[0].BBox[0] = "mutated"
	first[0].City = "mutated"

	second := c.SearchCities(context.Background(), "Paris")
	assert.Equal(t, "Paris", second[0].City)
	assert.Equal(t, "48.8155755", second[0].BBox[0])
}

func TestSearchCities_DefaultBaseURL(t *testing.T) {
	var hit atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit.Store(true)
		assert.Equal(t, defaultUserAgent, r.Header.Get("User-Agent"))
		_, _ = io.WriteString(w, parisSearchJSON)
	}))
	defer srv.Close()

	c := NewClient(
		WithHTTPClient(newRewriteClient(srv.URL, defaultBaseURL)),
		WithRateLimit(0),
	)
	assert.Len(t, c.SearchCities(context.Background(), "Paris"), 3)
	assert.True(t, hit.Load())
}

func TestCityDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "Paris" {
			_, _ = io.WriteString(w, parisSearchJSON)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	got := c.CityDetails(context.Background(), "Paris")
	require.NotNil(t, got)
	assert.Equal(t, "Paris, Île-de-France, France", got.DisplayName)

	assert.Nil(t, c.CityDetails(context.Background(), "Atlantis"))
}

func TestReverseGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "10", q.Get("zoom"))
		assert.Equal(t, "json", q.Get("format"))
		switch q.Get("lat") {
		case "48.8566":
			_, _ = io.WriteString(w, `{"display_name":"Paris, France","address":{"city":"Paris","state":"Île-de-France","country":"France"}}`)
		case "0":
			_, _ = io.WriteString(w, `{"display_name":"Gulf of Guinea","address":{"country":""}}`)
		case "1":
			_, _ = io.WriteString(w, `{"error":"Unable to geocode"}`)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	ctx := context.Background()

	got := c.ReverseGeocode(ctx, 48.8566, 2.3522)
	require.NotNil(t, got)
	assert.Equal(t, "Paris", got.City)
	assert.Equal(t, "France", got.Country)
	assert.Equal(t, "Île-de-France", got.State)
	assert.Equal(t, "Paris, France", got.DisplayName)

	unknown := c.ReverseGeocode(ctx, 0, 0)
	require.NotNil(t, unknown)
	assert.Equal(t, "Unknown", unknown.City)

	assert.Nil(t, c.ReverseGeocode(ctx, 1, 1))
	assert.Nil(t, c.ReverseGeocode(ctx, 2, 2))
}

func TestReverseGeocode_InvalidCoordinates_NoNetworkCall(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	assert.Nil(t, c.ReverseGeocode(context.Background(), 91, 0))
	assert.Nil(t, c.ReverseGeocode(context.Background(), 0, 181))
	assert.Equal(t, int32(0), calls.Load())
}

func TestReverseGeocode_CachedByCell(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, `{"display_name":"Paris, France","address":{"city":"Paris","country":"France"}}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, WithCache(newMemCache()))
	first := c.ReverseGeocode(context.Background(), 48.85660, 2.35220)
	second := c.ReverseGeocode(context.Background(), 48.85661, 2.35221)
	require.NotNil(t, first)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFailureKind(t *testing.T) {
	assert.Equal(t, "circuit_open", failureKind(resilience.ErrCircuitOpen))
	assert.Equal(t, "malformed", failureKind(malformedError(eris.New("bad"))))
	assert.Equal(t, "network", failureKind(networkError(eris.New("boom"), 500)))
	assert.Equal(t, "throttled", failureKind(throttledError(eris.New("would exceed context deadline"))))
}

func TestThrottledError_Classification(t *testing.T) {
	err := throttledError(eris.New("rate: Wait(n=1) would exceed context deadline"))
	assert.ErrorIs(t, err, ErrNetwork)
	assert.ErrorIs(t, err, resilience.ErrThrottled)
	assert.False(t, resilience.IsTransient(err))
}

func TestNetworkError_Classification(t *testing.T) {
	err := networkError(eris.New("boom"), http.StatusServiceUnavailable)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.True(t, resilience.IsTransient(err))

	err = networkError(eris.New("boom"), http.StatusForbidden)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.False(t, resilience.IsTransient(err))
}
