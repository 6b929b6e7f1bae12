// Package debouncetest provides a manual clock for driving debounced code in tests.
package debouncetest

import (
	"sort"
	"sync"
	"time"

	"github.com/urbanscope/citysearch/internal/debounce"
)

// Clock is a virtual clock. Timers fire synchronously inside Advance, in
// deadline order, on the calling goroutine.
//
// Caller actions win ties: a timer due exactly at the instant Advance stops
// at fires on the next Advance, so a Call made at that instant still
// replaces it.
type Clock struct {
	mu     sync.Mutex
	now    time.Duration
	nextID int
	timers []*timer
}

// New returns a clock at virtual time zero.
func New() *Clock {
	return &Clock{}
}

type timer struct {
	clock    *Clock
	id       int
	deadline time.Duration
	f        func()
}

func (t *timer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	for i, other := range t.clock.timers {
		if other == t {
			t.clock.timers = append(t.clock.timers[:i], t.clock.timers[i+1:]...)
			return true
		}
	}
	return false
}

// AfterFunc implements debounce.Clock.
func (c *Clock) AfterFunc(d time.Duration, f func()) debounce.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	t := &timer{clock: c, id: c.nextID, deadline: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

// Now is the virtual time elapsed since New.
func (c *Clock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves time forward by d, firing every timer due before the new time.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()

	for {
		c.mu.Lock()
		sort.SliceStable(c.timers, func(i, j int) bool {
			if c.timers[i].deadline == c.timers[j].deadline {
				return c.timers[i].id < c.timers[j].id
			}
			return c.timers[i].deadline < c.timers[j].deadline
		})
		if len(c.timers) == 0 || c.timers[0].deadline >= target {
			c.now = target
			c.mu.Unlock()
			return
		}
		t := c.timers[0]
		c.timers = c.timers[1:]
		c.now = t.deadline
		c.mu.Unlock()

		t.f()
	}
}

// Pending is the number of scheduled timers.
func (c *Clock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}
