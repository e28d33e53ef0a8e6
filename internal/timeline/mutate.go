package timeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/keystone/internal/models"
	"github.com/zulandar/keystone/internal/store"
)

// ErrInvalidRange is returned when a drag would put end before start.
var ErrInvalidRange = errors.New("timeline: end date before start date")

// TaskUpdater is the persistence surface OnDateChange needs.
type TaskUpdater interface {
	GetTask(ctx context.Context, id string) (*models.Task, error)
	UpdateTask(ctx context.Context, id string, fields map[string]interface{}) (*models.Task, error)
}

// OnDateChange persists a dragged bar's new dates as calendar dates. An id
// that is not a task (milestones included) is a silent no-op and returns a
// nil task. Dependency ordering is not checked.
func OnDateChange(ctx context.Context, st TaskUpdater, itemID string, start, end time.Time) (*models.Task, error) {
	start, end = dateOnly(start), dateOnly(end)
	if end.Before(start) {
		return nil, ErrInvalidRange
	}

	if _, err := st.GetTask(ctx, itemID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("timeline: look up %s: %w", itemID, err)
	}

	task, err := st.UpdateTask(ctx, itemID, map[string]interface{}{
		"start_date": start,
		"end_date":   end,
	})
	if err != nil {
		return nil, fmt.Errorf("timeline: move %s: %w", itemID, err)
	}
	return task, nil
}
