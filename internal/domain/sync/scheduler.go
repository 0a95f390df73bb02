package sync

import (
	"context"
	gosync "sync"
	"time"

	"golang.org/x/exp/slog"
)

// Scheduler re-runs a full-guild sync on a fixed interval as a correctness
// backstop against missed or undelivered gateway events. One scheduler runs
// per process; Start is called only after the gateway has reported ready, so
// the first tick never races bot startup.
type Scheduler struct {
	log      *slog.Logger
	interval time.Duration

	mu      gosync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewScheduler(interval time.Duration, log *slog.Logger) *Scheduler {
	return &Scheduler{
		log:      log.With(slog.String("component", "reconciliation_scheduler")),
		interval: interval,
	}
}

// Start begins ticking; the first tick fires one full interval after Start.
// Calling Start on a running scheduler is a no-op, so repeated guild-ready
// events (gateway reconnects) never spawn a second timer.
func (s *Scheduler) Start(ctx context.Context, tick func(context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.log.Info("reconciliation scheduler started", slog.Duration("interval", s.interval))

	go s.loop(ctx, tick)
}

func (s *Scheduler) loop(ctx context.Context, tick func(context.Context)) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("reconciliation scheduler stopped")
			return
		case <-ticker.C:
			s.log.Info("periodic reconciliation tick")
			// Stop never aborts an in-flight tick; the remote call's
			// own deadline bounds it.
			tick(context.WithoutCancel(ctx))
		}
	}
}

// Stop cancels all future ticks and waits for the loop to exit. A tick whose
// remote call is already in flight is not interrupted; it finishes or times
// out on its own deadline.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	started, cancel, done := s.started, s.cancel, s.done
	s.mu.Unlock()

	if !started {
		return
	}
	cancel()
	<-done
}

// Running reports whether Start has been called.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}
