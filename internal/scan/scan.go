// Package scan re-runs milestone auto-completion and alert generation across
// every project, on demand or on a cron schedule.
package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/keystone/internal/alert"
	"github.com/zulandar/keystone/internal/milestone"
	"github.com/zulandar/keystone/internal/models"
	"go.uber.org/zap"
)

// Store is the persistence surface a rescan needs.
type Store interface {
	milestone.Store
	alert.Store
	ListProjectIDs(ctx context.Context) ([]string, error)
}

// ProjectResult summarizes one project's rescan.
type ProjectResult struct {
	ProjectID           string
	MilestonesCompleted []string
	AlertsCreated       int
	Err                 error
}

// Runner performs rescans.
type Runner struct {
	Store  Store
	Alerts alert.Opts
	Logger *zap.Logger
	Now    func() time.Time // defaults to time.Now
}

// RunOnce rescans every project. A failing project does not stop the others;
// their errors are joined.
func (r *Runner) RunOnce(ctx context.Context) ([]ProjectResult, error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}

	ids, err := r.Store.ListProjectIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan: list projects: %w", err)
	}

	opts := r.Alerts
	if opts.Logger == nil {
		opts.Logger = logger
	}

	results := make([]ProjectResult, 0, len(ids))
	var errs []error
	for _, id := range ids {
		res := ProjectResult{ProjectID: id}
		res.MilestonesCompleted, res.Err = milestone.AutoComplete(ctx, r.Store, id, now)
		if res.Err == nil {
			var created []models.SchedulingAlert
			created, res.Err = alert.Generate(ctx, r.Store, id, now, opts)
			res.AlertsCreated = len(created)
		}
		if res.Err != nil {
			logger.Error("scan: project failed", zap.String("project", id), zap.Error(res.Err))
			errs = append(errs, fmt.Errorf("scan: %s: %w", id, res.Err))
		}
		results = append(results, res)
	}

	logger.Info("scan complete", zap.Int("projects", len(ids)), zap.Int("failed", len(errs)))
	return results, errors.Join(errs...)
}
