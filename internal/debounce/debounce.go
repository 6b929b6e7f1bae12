// Package debounce delays a call until its input has been quiet for a while.
//
// A Debouncer is an explicit object owned by whoever creates it:
//
//	d := debounce.New(500*time.Millisecond, search)
//	defer d.Stop()
//	d.Call("Par") // search("Par") runs 500ms after the last Call
package debounce

import (
	"sync"
	"time"
)

// Clock schedules callbacks. The default uses time.AfterFunc.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is the handle returned by Clock.AfterFunc.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Option configures a Debouncer.
type Option func(*config)

type config struct {
	clock Clock
}

// WithClock replaces the wall clock, typically with a manual one in tests.
func WithClock(c Clock) Option {
	return func(cfg *config) {
		if c != nil {
			cfg.clock = c
		}
	}
}

// Debouncer runs fn with the argument of the most recent Call once no new
// Call has arrived for wait. Safe for concurrent use.
type Debouncer[T any] struct {
	wait  time.Duration
	fn    func(T)
	clock Clock

	mu      sync.Mutex
	timer   Timer
	seq     uint64
	arg     T
	pending bool
	stopped bool
}

// New creates a Debouncer. A non-positive wait still defers fn to the clock.
func New[T any](wait time.Duration, fn func(T), opts ...Option) *Debouncer[T] {
	cfg := config{clock: realClock{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	if wait < 0 {
		wait = 0
	}
	return &Debouncer[T]{wait: wait, fn: fn, clock: cfg.clock}
}

// Call replaces any pending invocation with one for arg, scheduled wait from now.
// It is a no-op after Stop.
func (d *Debouncer[T]) Call(arg T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.cancelLocked()
	d.arg = arg
	d.pending = true
	seq := d.seq
	d.timer = d.clock.AfterFunc(d.wait, func() { d.fire(seq) })
}

// Flush runs the pending invocation now, if there is one.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if !d.pending || d.stopped {
		d.mu.Unlock()
		return
	}
	arg := d.arg
	d.cancelLocked()
	d.mu.Unlock()

	d.fn(arg)
}

// Cancel drops the pending invocation without running it.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
}

// Stop cancels the pending invocation and disables the Debouncer.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.stopped = true
}

// Pending reports whether an invocation is scheduled.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// fire runs fn if seq still identifies the latest schedule. A timer that
// fired while Call or Cancel held the lock finds a newer seq and does nothing.
func (d *Debouncer[T]) fire(seq uint64) {
	d.mu.Lock()
	if seq != d.seq || !d.pending || d.stopped {
		d.mu.Unlock()
		return
	}
	arg := d.arg
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	d.fn(arg)
}

func (d *Debouncer[T]) cancelLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	var zero T
	d.arg = zero
	d.pending = false
	d.seq++
}
