// Package search drives a city search box: debounced lookups, popular-city
// quick picks, selection and dismissal.
//
// Every state change happens under the controller's lock. Geocoder calls run
// on their own goroutine and are applied through Decide, so a slow response
// for an old query never overwrites a newer one.
package search

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/urbanscope/citysearch/internal/debounce"
	"github.com/urbanscope/citysearch/internal/metrics"
	"github.com/urbanscope/citysearch/pkg/geocode"
)

const (
	defaultDebounce = 500 * time.Millisecond
	defaultMinQuery = 2
)

// ErrNoSuchItem is returned when a selection index is out of range.
var ErrNoSuchItem = eris.New("search: no such item")

// Searcher is the slice of geocode.Client the controller needs.
type Searcher interface {
	SearchCities(ctx context.Context, query string) []geocode.CityResult
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock drives the debounce timer from c.
func WithClock(c debounce.Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

// WithDebounce sets the quiet period before a search runs.
func WithDebounce(d time.Duration) Option {
	return func(ctl *Controller) {
		if d >= 0 {
			ctl.wait = d
		}
	}
}

// WithMinQueryLength sets the shortest query (in runes) that is searched.
func WithMinQueryLength(n int) Option {
	return func(ctl *Controller) {
		if n > 0 {
			ctl.minQuery = n
		}
	}
}

// WithPopular replaces the popular-city list.
func WithPopular(list []geocode.PopularCity) Option {
	return func(ctl *Controller) {
		ctl.popular = append([]geocode.PopularCity(nil), list...)
	}
}

// OnSelect registers the callback that receives every selection. It runs
// synchronously on the selecting goroutine, outside the controller's lock.
func OnSelect(fn func(SelectionEvent)) Option {
	return func(ctl *Controller) { ctl.onSelect = fn }
}

// OnOutcome registers a callback run after each search response is applied.
func OnOutcome(fn func(Outcome)) Option {
	return func(ctl *Controller) { ctl.onOutcome = fn }
}

// Controller owns one search box.
type Controller struct {
	searcher  Searcher
	clock     debounce.Clock
	wait      time.Duration
	minQuery  int
	popular   []geocode.PopularCity
	onSelect  func(SelectionEvent)
	onOutcome func(Outcome)

	debouncer *debounce.Debouncer[string]
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	mu          sync.Mutex
	state       State
	query       string
	results     []geocode.CityResult
	noResults   bool
	searching   bool
	showResults bool
	showPopular bool
	dismissed   bool
	gen         uint64
	closed      bool
}

// New creates a Controller. Cancelling ctx aborts in-flight searches; Close
// releases the debounce timer.
func New(ctx context.Context, s Searcher, opts ...Option) *Controller {
	c := &Controller{
		searcher: s,
		wait:     defaultDebounce,
		minQuery: defaultMinQuery,
		popular:  geocode.PopularCities(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.ctx, c.cancel = context.WithCancel(ctx)

	var dopts []debounce.Option
	if c.clock != nil {
		dopts = append(dopts, debounce.WithClock(c.clock))
	}
	c.debouncer = debounce.New(c.wait, c.runSearch, dopts...)
	return c
}

// Focus opens the popular list for an empty box, or reopens earlier results.
func (c *Controller) Focus() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dismissed = false

	switch {
	case c.query == "":
		c.showPopular = true
		c.showResults = false
		c.state = ShowingPopular
	case len(c.results) > 0:
		c.showResults = true
		c.state = ShowingResults
	case c.noResults:
		c.showResults = true
		c.state = NoResults
	}
}

// Input records a keystroke and schedules a debounced search for q.
func (c *Controller) Input(q string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.query = q
	c.showPopular = false
	c.dismissed = false
	c.state = Typing

	if utf8.RuneCountInString(strings.TrimSpace(q)) < c.minQuery {
		c.debouncer.Cancel()
		c.gen++
		c.results = nil
		c.noResults = false
		c.searching = false
		c.showResults = false
		if q == "" {
			c.state = Idle
		}
		return
	}
	c.debouncer.Call(q)
}

// Flush runs a pending debounced search immediately.
func (c *Controller) Flush() {
	c.debouncer.Flush()
}

// runSearch is the debounced callback. The geocoder call happens off the lock.
func (c *Controller) runSearch(q string) {
	c.mu.Lock()
	if c.closed || q != c.query {
		c.mu.Unlock()
		return
	}
	c.gen++
	gen := c.gen
	c.searching = true
	c.state = Searching
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		results := c.searcher.SearchCities(c.ctx, q)
		c.commit(gen, q, results)
	}()
}

func (c *Controller) commit(gen uint64, q string, results []geocode.CityResult) {
	c.mu.Lock()
	out := Decide(c.gen, gen, c.query, q, results)
	if gen == c.gen {
		c.searching = false
	}

	switch o := out.(type) {
	case Stale:
		metrics.StaleResponsesTotal.Inc()
		zap.L().Debug("search: discarding stale response",
			zap.String("query", q),
			zap.String("current", c.query),
			zap.Uint64("generation", gen),
			zap.Uint64("latest", c.gen),
		)
		if gen == c.gen && c.state == Searching {
			c.state = Typing
		}
	case Results:
		c.results = o.Cities
		c.noResults = false
		c.open(ShowingResults)
	case Empty:
		c.results = nil
		c.noResults = true
		c.open(NoResults)
	}
	cb := c.onOutcome
	c.mu.Unlock()

	if cb != nil {
		cb(out)
	}
}

// open shows the results dropdown in state s unless the user dismissed it.
func (c *Controller) open(s State) {
	if c.dismissed {
		c.state = Idle
		return
	}
	c.showResults = true
	c.state = s
}

// SelectResult picks the i-th search result.
func (c *Controller) SelectResult(i int) (SelectionEvent, error) {
	c.mu.Lock()
	if i < 0 || i >= len(c.results) {
		c.mu.Unlock()
		return SelectionEvent{}, eris.Wrapf(ErrNoSuchItem, "search: result %d of %d", i, len(c.results))
	}
	city := c.results[i]
	c.settle(city.Label())
	cb := c.onSelect
	c.mu.Unlock()

	ev := selectionFromResult(city)
	if cb != nil {
		cb(ev)
	}
	return ev, nil
}

// SelectPopular picks the i-th popular city.
func (c *Controller) SelectPopular(i int) (SelectionEvent, error) {
	c.mu.Lock()
	if i < 0 || i >= len(c.popular) {
		c.mu.Unlock()
		return SelectionEvent{}, eris.Wrapf(ErrNoSuchItem, "search: popular city %d of %d", i, len(c.popular))
	}
	city := c.popular[i]
	c.settle(city.Label())
	cb := c.onSelect
	c.mu.Unlock()

	ev := selectionFromPopular(city)
	if cb != nil {
		cb(ev)
	}
	return ev, nil
}

// settle fills the box with label and closes everything. Pending and
// in-flight searches are invalidated.
func (c *Controller) settle(label string) {
	c.debouncer.Cancel()
	c.gen++
	c.query = label
	c.searching = false
	c.showResults = false
	c.showPopular = false
	c.state = Idle
}

// OutsideClick closes both dropdowns and leaves the query alone. Responses
// that arrive later are kept but stay hidden until the next Focus or Input.
func (c *Controller) OutsideClick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.showResults = false
	c.showPopular = false
	c.dismissed = true
	if !c.searching {
		c.state = Idle
	}
}

// Wait blocks until every in-flight search has been applied.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close stops the debouncer, cancels in-flight searches and waits for them.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.gen++
	c.debouncer.Stop()
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

// View returns a snapshot of the search box.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		State:       c.state,
		Query:       c.query,
		Searching:   c.searching,
		ShowResults: c.showResults && len(c.results) > 0,
		ShowPopular: c.showPopular,
		Results:     append([]geocode.CityResult(nil), c.results...),
		ResultCount: len(c.results),
	}
	if c.showPopular {
		v.Popular = append([]geocode.PopularCity(nil), c.popular...)
	}
	if c.showResults && !c.searching && c.noResults {
		v.NoResultsMessage = noResultsMessage(c.query)
	}
	return v
}

// Popular returns the quick-pick list.
func (c *Controller) Popular() []geocode.PopularCity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]geocode.PopularCity(nil), c.popular...)
}
