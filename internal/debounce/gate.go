// Package debounce emits a value only after it has stopped changing.
package debounce

import (
	"sync"
	"time"
)

// Gate delivers the latest observed value once no new value has arrived for
// the quiet period. Superseded values are dropped.
type Gate[T any] struct {
	quiet time.Duration
	emit  func(T)

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	stopped bool
}

// New creates a gate that calls emit on its own goroutine.
func New[T any](quiet time.Duration, emit func(T)) *Gate[T] {
	return &Gate[T]{quiet: quiet, emit: emit}
}

// Observe records v and restarts the quiet period.
func (g *Gate[T]) Observe(v T) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.stopped {
		return
	}
	if g.timer != nil {
		g.timer.Stop()
	}
	g.gen++
	gen := g.gen
	g.timer = time.AfterFunc(g.quiet, func() { g.fire(gen, v) })
}

func (g *Gate[T]) fire(gen uint64, v T) {
	g.mu.Lock()
	// A timer that lost the race with Observe or Stop carries an old generation.
	if g.stopped || gen != g.gen {
		g.mu.Unlock()
		return
	}
	g.timer = nil
	g.mu.Unlock()

	g.emit(v)
}

// Flush cancels the pending timer and emits v immediately.
func (g *Gate[T]) Flush(v T) {
	g.mu.Lock()
	if g.stopped {
		g.mu.Unlock()
		return
	}
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	g.gen++
	g.mu.Unlock()

	g.emit(v)
}

// Pending reports whether a value is waiting for its quiet period.
func (g *Gate[T]) Pending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.timer != nil
}

// Stop cancels any pending emission. Later observations are ignored.
func (g *Gate[T]) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stopped = true
	g.gen++
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}
