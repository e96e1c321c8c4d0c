// Package debounce delays a call until its input has stopped changing.
package debounce

import (
	"sync"
	"time"
)

// Debouncer calls fn with the last value passed to Trigger once quiet has
// elapsed without another Trigger.
//
// Thread-safety: Trigger, Cancel and Stop may be called from any goroutine.
// fn runs on a timer goroutine, never while the debouncer's lock is held.
type Debouncer[T any] struct {
	quiet time.Duration
	fn    func(T)

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	stopped bool
}

// New creates a debouncer. A non-positive quiet period fires on the next
// timer tick.
func New[T any](quiet time.Duration, fn func(T)) *Debouncer[T] {
	if quiet < 0 {
		quiet = 0
	}
	return &Debouncer[T]{quiet: quiet, fn: fn}
}

// Trigger records v and restarts the quiet period.
// Triggers after Stop are ignored.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, func() {
		d.mu.Lock()
		// A later Trigger, Cancel or Stop owns the timer now
		if d.stopped || gen != d.gen {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()

		d.fn(v)
	})
}

// Cancel drops the pending value, if any. The debouncer stays usable.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Pending reports whether a value is waiting for its quiet period to end.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop releases the timer and drops any pending value.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
