package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule reports whether expr is a valid 5-field cron expression.
func ValidateSchedule(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("scan: invalid schedule %q: %w", expr, err)
	}
	return nil
}

// NextRun returns the first fire time of expr after from.
func NextRun(expr string, from time.Time) (time.Time, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("scan: invalid schedule %q: %w", expr, err)
	}
	return sched.Next(from), nil
}

// Scheduler runs a Runner on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// NewScheduler registers runner under expr, evaluated in loc. Runs do not
// overlap; a run still in progress causes the next tick to be skipped.
func NewScheduler(expr string, loc *time.Location, runner *Runner) (*Scheduler, error) {
	logger := runner.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithParser(cronParser),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(expr, func() {
		if _, err := runner.RunOnce(context.Background()); err != nil {
			logger.Warn("scheduled scan finished with errors", zap.Error(err))
		}
	}); err != nil {
		return nil, fmt.Errorf("scan: invalid schedule %q: %w", expr, err)
	}
	return &Scheduler{cron: c, logger: logger}, nil
}

// Start begins firing in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		s.logger.Info("scan scheduled", zap.Time("next", e.Next))
	}
}

// Stop halts the schedule and waits for a running scan to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
