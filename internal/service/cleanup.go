package service

import (
	"context"
	"sync"
	"time"

	"retroprofile-api/internal/logging"
)

// SweepFunc removes stale state and reports how many items it dropped.
type SweepFunc func(ctx context.Context) (int64, error)

// CleanupConfig holds configuration for a cleanup scheduler.
type CleanupConfig struct {
	// Name labels log lines.
	Name string

	// Interval is how often the sweep runs.
	// Default: 5 minutes
	Interval time.Duration

	// Timeout bounds a single sweep.
	// Default: 1 minute
	Timeout time.Duration
}

// CleanupScheduler runs a sweep periodically, e.g. pruning idle rate limit
// clients or expired cache rows.
type CleanupScheduler struct {
	sweep     SweepFunc
	config    CleanupConfig
	ticker    *time.Ticker
	stopCh    chan struct{}
	stopOnce  sync.Once
	isRunning bool
	mu        sync.Mutex
}

// NewCleanupScheduler creates a new cleanup scheduler.
func NewCleanupScheduler(sweep SweepFunc, config CleanupConfig) *CleanupScheduler {
	if config.Interval <= 0 {
		config.Interval = 5 * time.Minute
	}
	if config.Timeout <= 0 {
		config.Timeout = time.Minute
	}
	if config.Name == "" {
		config.Name = "cleanup"
	}

	return &CleanupScheduler{
		sweep:  sweep,
		config: config,
		stopCh: make(chan struct{}),
	}
}

// Start begins the cleanup scheduler.
func (s *CleanupScheduler) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.ticker = time.NewTicker(s.config.Interval)
	s.mu.Unlock()

	logging.Info().
		Str("name", s.config.Name).
		Dur("interval", s.config.Interval).
		Msg("[CleanupScheduler] Started")

	go s.run()
}

// run is the main cleanup loop.
func (s *CleanupScheduler) run() {
	for {
		select {
		case <-s.ticker.C:
			s.runCleanup()
		case <-s.stopCh:
			logging.Info().Str("name", s.config.Name).Msg("[CleanupScheduler] Stopped")
			return
		}
	}
}

// runCleanup performs a single sweep and logs the outcome.
func (s *CleanupScheduler) runCleanup() {
	removed, err := s.RunNow()
	if err != nil {
		logging.Error().Err(err).Str("name", s.config.Name).Msg("[CleanupScheduler] Error during cleanup")
		return
	}

	if removed > 0 {
		logging.Debug().Str("name", s.config.Name).Int64("removed", removed).Msg("[CleanupScheduler] Cleaned up")
	}
}

// Stop stops the cleanup scheduler.
func (s *CleanupScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
		s.isRunning = false
	})
}

// RunNow triggers an immediate sweep.
func (s *CleanupScheduler) RunNow() (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Timeout)
	defer cancel()

	return s.sweep(ctx)
}
