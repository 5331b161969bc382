package core

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Roller is the part of Workspace the scheduler drives.
type Roller interface {
	Rollover() (RolloverResult, error)
}

// Scheduler runs a workspace rollover on a cron schedule, "@daily" by default.
type Scheduler struct {
	cron   *cron.Cron
	roller Roller
	log    *zap.Logger
	runs   chan RolloverResult
}

// NewScheduler parses spec and registers the rollover job. Results are
// published on Runs without blocking; missed reads are dropped.
func NewScheduler(roller Roller, spec string, log *zap.Logger) (*Scheduler, error) {
	if spec == "" {
		spec = "@daily"
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Scheduler{
		cron:   cron.New(),
		roller: roller,
		log:    log,
		runs:   make(chan RolloverResult, 1),
	}
	if _, err := s.cron.AddFunc(spec, s.Run); err != nil {
		return nil, fmt.Errorf("rollover schedule %q: %w", spec, err)
	}
	return s, nil
}

// Run performs one rollover immediately.
func (s *Scheduler) Run() {
	res, err := s.roller.Rollover()
	if err != nil {
		s.log.Error("scheduled rollover failed", zap.Error(err))
		return
	}
	select {
	case s.runs <- res:
	default:
	}
}

// Runs returns a channel of completed rollover results.
func (s *Scheduler) Runs() <-chan RolloverResult {
	return s.runs
}

// Start launches the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("rollover scheduler started")
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop(ctx context.Context) {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	s.log.Info("rollover scheduler stopped")
}
