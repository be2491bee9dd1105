/*
scheduler.go - Periodic summary run

PURPOSE:
  Recomputes the current month for every active person on an interval so
  data-quality diagnostics (missing times, missing standby rates, overlapping
  work) surface before payroll closes, and keeps the last run available at
  /api/summary/latest.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Runs immediately on start, then on every tick
  - Each run invalidates the rates cache first so edited rate tables apply
  - Only the latest completed snapshot is kept

USAGE:
  scheduler := NewSummaryScheduler(svc, logger)
  scheduler.OnRun = cachedRates.Invalidate
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: GetSummary endpoint (on-demand run)
  - payroll/service.go: Service.Summary
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/wage-engine/calendar"
	"github.com/warp/wage-engine/payroll"
)

// Snapshot is one completed scheduled summary.
type Snapshot struct {
	Month       calendar.Month
	Rows        []payroll.Summary
	CompletedAt time.Time
}

// SummaryScheduler recomputes the current month periodically.
type SummaryScheduler struct {
	Service       *payroll.Service
	CheckInterval time.Duration
	Timeout       time.Duration
	OnRun         func() // called before each run, typically a cache invalidation

	logger zerolog.Logger
	now    func() time.Time

	ticker  *time.Ticker
	stop    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	latest  *Snapshot
	latestM sync.RWMutex
}

func NewSummaryScheduler(svc *payroll.Service, logger zerolog.Logger) *SummaryScheduler {
	return &SummaryScheduler{
		Service:       svc,
		CheckInterval: 1 * time.Hour,
		Timeout:       5 * time.Minute,
		logger:        logger.With().Str("component", "scheduler").Logger(),
		now:           time.Now,
	}
}

// Start begins the scheduler. Calling Start twice has no effect.
func (s *SummaryScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		return
	}
	s.ticker = time.NewTicker(s.CheckInterval)
	s.stop = make(chan struct{})
	s.wg.Add(1)

	go s.run()

	s.logger.Info().Dur("interval", s.CheckInterval).Msg("scheduler started")
}

// Stop stops the scheduler and waits for an in-flight run.
func (s *SummaryScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.stop)
	s.wg.Wait()
	s.ticker = nil
	s.logger.Info().Msg("scheduler stopped")
}

// Latest returns the last completed snapshot.
func (s *SummaryScheduler) Latest() (Snapshot, bool) {
	s.latestM.RLock()
	defer s.latestM.RUnlock()
	if s.latest == nil {
		return Snapshot{}, false
	}
	return *s.latest, true
}

func (s *SummaryScheduler) run() {
	defer s.wg.Done()

	s.RunOnce()
	for {
		select {
		case <-s.ticker.C:
			s.RunOnce()
		case <-s.stop:
			return
		}
	}
}

// RunOnce computes the current month's summary and stores the snapshot.
func (s *SummaryScheduler) RunOnce() {
	if s.OnRun != nil {
		s.OnRun()
	}

	now := s.now()
	month := calendar.NewMonth(now.Year(), now.Month())
	ctx, cancel := context.WithTimeout(s.logger.WithContext(context.Background()), s.Timeout)
	defer cancel()

	rows, err := s.Service.Summary(ctx, month)
	if err != nil {
		s.logger.Error().Err(err).Str("month", month.String()).Msg("scheduled summary failed")
		return
	}

	failed, diagnostics := 0, 0
	for _, r := range rows {
		if r.Err != nil {
			failed++
		}
		diagnostics += r.Diagnostics
	}

	s.latestM.Lock()
	s.latest = &Snapshot{Month: month, Rows: rows, CompletedAt: s.now().UTC()}
	s.latestM.Unlock()

	s.logger.Info().
		Str("month", month.String()).
		Int("people", len(rows)).
		Int("failed", failed).
		Int("diagnostics", diagnostics).
		Msg("scheduled summary completed")
}
