// Package milestone derives milestone progress and status from linked tasks,
// and persists auto-completion, manual overrides and comments.
package milestone

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/zulandar/keystone/internal/metrics"
	"github.com/zulandar/keystone/internal/models"
)

// Status is the derived state of a milestone.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusMissed    Status = "missed"
	StatusUpcoming  Status = "upcoming"
)

// AlertClass is the due-date classification used for alert display.
type AlertClass string

const (
	ClassOverdue AlertClass = "overdue"
	ClassDueSoon AlertClass = "due-soon"
	ClassNone    AlertClass = "none"
)

// DefaultDueSoonDays is the look-ahead window for IsDueSoon and Classify.
const DefaultDueSoonDays = 3

// ErrEmptyComment is returned by AddComment for a blank body.
var ErrEmptyComment = errors.New("milestone: comment body is required")

// View is a milestone enriched with derived progress and status. The
// embedded IsAchieved reflects the derived achievement, not only the stored flag.
type View struct {
	models.Milestone
	Progress int    `json:"progress"`
	Status   Status `json:"status"`
}

// Derive computes progress, achievement and status for raw given its linked
// tasks. Achievement is sticky: a stored IsAchieved stays true even if a
// linked task is later reopened.
func Derive(linked []models.Task, raw models.Milestone, now time.Time) View {
	total := len(linked)
	done := 0
	for _, t := range linked {
		if t.Status == models.TaskCompleted {
			done++
		}
	}

	progress := 0
	if total > 0 {
		progress = int(math.Round(100 * float64(done) / float64(total)))
	}

	v := View{Milestone: raw, Progress: progress}
	v.Tasks = linked
	v.IsAchieved = (total > 0 && done == total) || raw.IsAchieved

	switch {
	case v.IsAchieved:
		v.Status = StatusCompleted
	case DaysUntil(raw.DueDate, now) < 0:
		v.Status = StatusMissed
	default:
		v.Status = StatusUpcoming
	}
	return v
}

// DeriveAll derives every milestone from its preloaded Tasks.
func DeriveAll(milestones []models.Milestone, now time.Time) []View {
	views := make([]View, len(milestones))
	for i, m := range milestones {
		views[i] = Derive(m.Tasks, m, now)
	}
	return views
}

// DaysUntil returns the number of calendar days from today, taken in now's
// location, to due's calendar date. It is negative once the due day has passed.
func DaysUntil(due, now time.Time) int {
	dy, dm, dd := due.Date()
	ny, nm, nd := now.Date()
	d := time.Date(dy, dm, dd, 0, 0, 0, 0, time.UTC)
	n := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return int(d.Sub(n).Hours() / 24)
}

// IsDueSoon reports whether an unachieved milestone falls due within
// windowDays, today included.
func IsDueSoon(v View, now time.Time, windowDays int) bool {
	if v.IsAchieved {
		return false
	}
	d := DaysUntil(v.DueDate, now)
	return d >= 0 && d <= windowDays
}

// Classify maps a derived milestone to its alert display class.
func Classify(v View, now time.Time, windowDays int) AlertClass {
	switch {
	case v.Status == StatusMissed:
		return ClassOverdue
	case IsDueSoon(v, now, windowDays):
		return ClassDueSoon
	default:
		return ClassNone
	}
}

// Store is the persistence surface the write-side operations need.
type Store interface {
	ListMilestones(ctx context.Context, projectID string) ([]models.Milestone, error)
	UpdateMilestone(ctx context.Context, id string, fields map[string]interface{}) (*models.Milestone, error)
	AddMilestoneComment(ctx context.Context, c *models.MilestoneComment) error
}

// AutoComplete marks every milestone whose linked tasks are all completed as
// achieved on now. Milestones without tasks, or already achieved, are left
// alone, so repeated scans write nothing new. It returns the IDs written.
func AutoComplete(ctx context.Context, st Store, projectID string, now time.Time) ([]string, error) {
	milestones, err := st.ListMilestones(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("milestone: auto-complete %s: %w", projectID, err)
	}

	var written []string
	for _, m := range milestones {
		if m.IsAchieved || !allCompleted(m.Tasks) {
			continue
		}
		if _, err := st.UpdateMilestone(ctx, m.ID, map[string]interface{}{
			"is_achieved":   true,
			"achieved_date": now,
		}); err != nil {
			metrics.AddMilestonesAutoCompleted(len(written))
			return written, fmt.Errorf("milestone: auto-complete %s: %w", m.ID, err)
		}
		written = append(written, m.ID)
	}
	metrics.AddMilestonesAutoCompleted(len(written))
	return written, nil
}

func allCompleted(tasks []models.Task) bool {
	if len(tasks) == 0 {
		return false
	}
	for _, t := range tasks {
		if t.Status != models.TaskCompleted {
			return false
		}
	}
	return true
}

// SetAchieved manually marks a milestone achieved on now, or clears it. This
// is the only way to un-achieve a milestone.
func SetAchieved(ctx context.Context, st Store, id string, achieved bool, now time.Time) (*models.Milestone, error) {
	fields := map[string]interface{}{"is_achieved": achieved, "achieved_date": nil}
	if achieved {
		fields["achieved_date"] = now
	}
	m, err := st.UpdateMilestone(ctx, id, fields)
	if err != nil {
		return nil, fmt.Errorf("milestone: set achieved %s: %w", id, err)
	}
	return m, nil
}

// AddComment appends a comment to a milestone.
func AddComment(ctx context.Context, st Store, milestoneID, author, body string) (*models.MilestoneComment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyComment
	}
	c := &models.MilestoneComment{MilestoneID: milestoneID, Author: author, Body: body}
	if err := st.AddMilestoneComment(ctx, c); err != nil {
		return nil, fmt.Errorf("milestone: comment on %s: %w", milestoneID, err)
	}
	return c, nil
}
