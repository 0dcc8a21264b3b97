package server

import (
	"context"
	"time"

	"bistscrapper/extract"
	"bistscrapper/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler refreshes every document on a cron schedule, in Istanbul time.
type Scheduler struct {
	cron   *cron.Cron
	runner Refresher
	log    logger.Logger
	budget time.Duration
}

// NewScheduler runs all jobs on spec, a standard five field cron
// expression. Each run gets at most budget to finish.
func NewScheduler(spec string, runner Refresher, budget time.Duration, log logger.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(cron.WithLocation(extract.Istanbul), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		runner: runner,
		log:    log,
		budget: budget,
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.budget)
	defer cancel()
	start := time.Now()
	summaries, err := s.runner.RunAll(ctx)
	if err != nil {
		s.log.Error("scheduled refresh failed", logger.Error(err), logger.Duration("took", time.Since(start)))
		return
	}
	s.log.Info("scheduled refresh finished", logger.Int("jobs", len(summaries)), logger.Duration("took", time.Since(start)))
}

// Next returns when the next refresh is due.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops scheduling and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
