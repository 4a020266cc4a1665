package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/user/summary-dashboard/internal/config"
	"github.com/user/summary-dashboard/internal/metrics"
)

// Counter counts stored videos
type Counter interface {
	CountVideos(ctx context.Context) (int64, error)
}

// Scheduler periodically refreshes the video count gauge
type Scheduler struct {
	counter      Counter
	config       *config.MetricsConfig
	initialDelay time.Duration
	running      atomic.Bool
	mu           sync.Mutex // at most one refresh at a time
	stopCh       chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

// NewScheduler creates a new scheduler instance
func NewScheduler(counter Counter, cfg *config.MetricsConfig) *Scheduler {
	return &Scheduler{
		counter:      counter,
		config:       cfg,
		initialDelay: 5 * time.Second,
		stopCh:       make(chan struct{}),
	}
}

// Start runs a first refresh after a short delay, then one per interval
func (s *Scheduler) Start(ctx context.Context) {
	if !s.config.Enabled {
		log.Info().Msg("Scheduler is disabled")
		return
	}

	s.wg.Add(1)
	go s.run(ctx)
}

// run is the main scheduler loop
func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	log.Info().Dur("delay", s.initialDelay).Msg("Scheduler starting with initial delay")

	select {
	case <-time.After(s.initialDelay):
		s.execute(ctx)
	case <-s.stopCh:
		log.Info().Msg("Scheduler stopped during initial delay")
		return
	case <-ctx.Done():
		log.Info().Msg("Scheduler context cancelled during initial delay")
		return
	}

	ticker := time.NewTicker(s.config.RefreshInterval)
	defer ticker.Stop()

	log.Info().Dur("interval", s.config.RefreshInterval).Msg("Scheduler started periodic execution")

	for {
		select {
		case <-ticker.C:
			s.execute(ctx)
		case <-s.stopCh:
			log.Info().Msg("Scheduler stopped")
			return
		case <-ctx.Done():
			log.Info().Msg("Scheduler context cancelled")
			return
		}
	}
}

// execute runs a single refresh, skipping when one is already running
func (s *Scheduler) execute(ctx context.Context) {
	if !s.TryRun(ctx) {
		log.Warn().Msg("Metrics refresh already running, skipping this trigger")
	}
}

// RunOnce reads the video count and publishes it
func (s *Scheduler) RunOnce(ctx context.Context) error {
	count, err := s.counter.CountVideos(ctx)
	if err != nil {
		metrics.RecordError("database")
		return err
	}
	metrics.UpdateVideoCount(count)
	log.Debug().Int64("videos", count).Msg("Video count refreshed")
	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
	log.Info().Msg("Scheduler stopped")
}

// IsRunning returns true if a refresh is currently running
func (s *Scheduler) IsRunning() bool {
	return s.running.Load()
}

// TryRun attempts a refresh immediately.
// Returns false if one is already running.
func (s *Scheduler) TryRun(ctx context.Context) bool {
	if !s.mu.TryLock() {
		return false
	}
	defer s.mu.Unlock()

	s.running.Store(true)
	defer s.running.Store(false)

	startTime := time.Now()
	if err := s.RunOnce(ctx); err != nil {
		log.Error().Err(err).Msg("Metrics refresh failed")
	}
	log.Debug().Dur("duration", time.Since(startTime)).Msg("Metrics refresh completed")

	return true
}
