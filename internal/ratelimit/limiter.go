// Package ratelimit implements a per-client sliding log limiter.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"retroprofile-api/internal/metrics"
)

// Limiter admits at most max requests per client within any window.
// Rejected attempts are not recorded.
type Limiter struct {
	name       string
	window     time.Duration
	max        int
	maxClients int
	now        func() time.Time

	mu      sync.Mutex
	clients map[string][]time.Time
}

// Config configures a Limiter.
type Config struct {
	Name   string
	Window time.Duration
	Max    int
	// MaxClients caps tracked clients; the least recently seen client is
	// evicted when the cap is reached. Zero means unbounded.
	MaxClients int
}

// New creates a limiter.
func New(cfg Config) *Limiter {
	return &Limiter{
		name:       cfg.Name,
		window:     cfg.Window,
		max:        cfg.Max,
		maxClients: cfg.MaxClients,
		now:        time.Now,
		clients:    make(map[string][]time.Time),
	}
}

// WithClock replaces the limiter clock.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Name returns the limiter name.
func (l *Limiter) Name() string {
	return l.name
}

// Allow records an attempt for clientID and reports whether it is admitted.
func (l *Limiter) Allow(clientID string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.prune(l.clients[clientID], now)
	if len(recent) >= l.max {
		l.clients[clientID] = recent
		metrics.RateLimitRejections.WithLabelValues(l.name).Inc()
		return false
	}

	if _, tracked := l.clients[clientID]; !tracked && l.maxClients > 0 && len(l.clients) >= l.maxClients {
		l.evictOldest()
	}

	l.clients[clientID] = append(recent, now)
	metrics.RateLimitClients.WithLabelValues(l.name).Set(float64(len(l.clients)))
	return true
}

// prune drops timestamps outside the window. Timestamps are appended in
// order, so the survivors are a suffix.
func (l *Limiter) prune(ts []time.Time, now time.Time) []time.Time {
	i := 0
	for i < len(ts) && now.Sub(ts[i]) >= l.window {
		i++
	}
	return ts[i:]
}

func (l *Limiter) evictOldest() {
	var (
		oldestID string
		oldestAt time.Time
		found    bool
	)
	for id, ts := range l.clients {
		var last time.Time
		if len(ts) > 0 {
			last = ts[len(ts)-1]
		}
		if !found || last.Before(oldestAt) {
			oldestID, oldestAt, found = id, last, true
		}
	}
	if found {
		delete(l.clients, oldestID)
	}
}

// Sweep forgets clients with no attempts inside the window and reports how
// many were removed.
func (l *Limiter) Sweep(ctx context.Context) (int64, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	var removed int64
	for id, ts := range l.clients {
		recent := l.prune(ts, now)
		if len(recent) == 0 {
			delete(l.clients, id)
			removed++
			continue
		}
		l.clients[id] = recent
	}
	metrics.RateLimitClients.WithLabelValues(l.name).Set(float64(len(l.clients)))
	return removed, nil
}

// Clients returns the number of tracked clients.
func (l *Limiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
