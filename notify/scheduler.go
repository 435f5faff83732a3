/*
scheduler.go - Daily birthday alert scheduler

PURPOSE:
  Periodically checks who has a birthday today and delivers alerts through
  the Alerter. The dedup keys make repeated checks within a day harmless,
  so the interval only bounds how late an alert can be.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Refreshes the session snapshot first; on failure it uses the last one
  - Runs once immediately on start

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := notify.NewScheduler(session, alerter, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - alerter.go: Delivery and dedup
  - treasury/session.go: Snapshot source
*/
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alohafunds/engine/fund"
)

// SnapshotSource is what the scheduler reads employees from.
type SnapshotSource interface {
	Refresh(ctx context.Context) error
	Snapshot() fund.Snapshot
	Now() time.Time
}

// Scheduler runs the birthday check on a ticker.
type Scheduler struct {
	Source        SnapshotSource
	Alerter       *Alerter
	CheckInterval time.Duration
	Enabled       bool

	logger *slog.Logger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewScheduler creates a new scheduler.
func NewScheduler(source SnapshotSource, alerter *Alerter, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		Source:        source,
		Alerter:       alerter,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		logger:        logger.With("component", "scheduler"),
	}
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		s.logger.Info("[Scheduler] Disabled, not starting")
		return
	}
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.CheckInterval)
	s.stop = make(chan struct{})
	s.wg.Add(1)

	go s.run()

	s.logger.Info("[Scheduler] Started", "interval", s.CheckInterval)
}

// Stop stops the scheduler and waits for a running check to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		s.ticker = nil
		s.logger.Info("[Scheduler] Stopped")
	}
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	// Run immediately on start
	s.CheckNow(context.Background())

	for {
		select {
		case <-s.ticker.C:
			s.CheckNow(context.Background())
		case <-s.stop:
			return
		}
	}
}

// CheckNow runs one birthday check and returns how many alerts were sent.
func (s *Scheduler) CheckNow(ctx context.Context) int {
	if err := s.Source.Refresh(ctx); err != nil {
		s.logger.WarnContext(ctx, "[Scheduler] Refresh failed, using last snapshot", "error", err)
	}

	today := s.Source.Now()
	sent, err := s.Alerter.Run(ctx, s.Source.Snapshot().Employees, today)
	if err != nil {
		s.logger.ErrorContext(ctx, "[Scheduler] Birthday check finished with errors", "sent", sent, "error", err)
		return sent
	}
	if sent > 0 {
		s.logger.InfoContext(ctx, "[Scheduler] Birthday alerts sent", "sent", sent, "date", today.Format("2006-01-02"))
	}
	return sent
}
