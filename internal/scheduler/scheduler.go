package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Intervals configures the poll loops
type Intervals struct {
	Bulk     time.Duration
	Campaign time.Duration
	Followup time.Duration
}

// Scheduler runs the engine's passes on independent fixed-interval timers
type Scheduler struct {
	engine    *Engine
	intervals Intervals
	stop      chan struct{}
	wg        sync.WaitGroup
}

// NewScheduler creates a scheduler around an engine
func NewScheduler(engine *Engine, intervals Intervals) *Scheduler {
	if intervals.Bulk <= 0 {
		intervals.Bulk = 30 * time.Second
	}
	if intervals.Campaign <= 0 {
		intervals.Campaign = time.Minute
	}
	if intervals.Followup <= 0 {
		intervals.Followup = time.Minute
	}
	return &Scheduler{
		engine:    engine,
		intervals: intervals,
		stop:      make(chan struct{}),
	}
}

// Start recovers stale work and launches the poll loops. Each loop runs its
// pass immediately and then on its interval until Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	// A row stuck in in_progress means a previous run died mid-send.
	// Partially sent blasts are failed, never blindly resent.
	failed, err := s.engine.bulk.FailStaleInProgress(ctx, "interrupted by scheduler restart")
	if err != nil {
		return err
	}
	if failed > 0 {
		logrus.WithField("count", failed).Warn("stale in-progress bulk messages marked failed")
	}

	s.loop(ctx, "bulk", s.intervals.Bulk, s.engine.ProcessBulk)
	s.loop(ctx, "campaign", s.intervals.Campaign, s.engine.ProcessCampaigns)
	s.loop(ctx, "followup", s.intervals.Followup, s.engine.ProcessFollowups)

	logrus.WithFields(logrus.Fields{
		"bulk_interval":     s.intervals.Bulk,
		"campaign_interval": s.intervals.Campaign,
		"followup_interval": s.intervals.Followup,
	}).Info("scheduler started")
	return nil
}

func (s *Scheduler) loop(ctx context.Context, name string, interval time.Duration, pass func(context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		run := func() {
			if err := pass(ctx); err != nil {
				logrus.WithError(err).WithField("loop", name).Error("scheduler pass failed")
			}
		}

		run()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				run()
			}
		}
	}()
}

// Stop halts the poll loops and waits for in-flight passes to finish
func (s *Scheduler) Stop() {
	close(s.stop)
	s.wg.Wait()
	logrus.Info("scheduler stopped")
}
