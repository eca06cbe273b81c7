// Package watch reports changes of analysis data files, one callback per
// burst of filesystem events.
package watch

import (
	"sync"
	"time"
)

// Debouncer delivers the last value triggered within a quiet window.
type Debouncer[T any] struct {
	window   time.Duration
	callback func(T)

	mu      sync.Mutex
	timer   *time.Timer
	pending T
	armed   bool
}

// NewDebouncer creates a debouncer that calls fn once window has passed
// without a new Trigger.
func NewDebouncer[T any](window time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{window: window, callback: fn}
}

// Trigger records v and restarts the window.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = v
	d.armed = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

// Flush delivers a pending value immediately.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()
	d.fire()
}

func (d *Debouncer[T]) fire() {
	d.mu.Lock()
	if !d.armed {
		d.mu.Unlock()
		return
	}
	v := d.pending
	d.armed = false
	d.mu.Unlock()
	d.callback(v)
}

// Stop drops any pending value.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.armed = false
	if d.timer != nil {
		d.timer.Stop()
	}
}
