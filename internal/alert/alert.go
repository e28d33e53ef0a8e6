// Package alert generates, de-duplicates and toggles scheduling alerts.
package alert

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/zulandar/keystone/internal/metrics"
	"github.com/zulandar/keystone/internal/milestone"
	"github.com/zulandar/keystone/internal/models"
	"github.com/zulandar/keystone/internal/notify"
	"github.com/zulandar/keystone/internal/store"
	"go.uber.org/zap"
)

// Defaults applied when the matching Opts field is zero.
const (
	DefaultLookaheadDays     = 3
	DefaultCapacityHours     = 8.0
	DefaultCriticalAfterDays = 7
	DefaultNotifyTimeout     = 5 * time.Second
)

const dayLayout = "2006-01-02"

// Opts tunes a generator run.
type Opts struct {
	LookaheadDays int

	// CriticalAfterDays escalates overdue alerts to critical once they are
	// more than this many days late. nil uses the default; 0 disables.
	CriticalAfterDays    *int
	DefaultCapacityHours float64

	// Notifier receives the newly inserted alerts before Generate returns.
	// The call runs under ctx bounded by NotifyTimeout, so a chat backend
	// backing off on rate limits delays the caller by at most that long.
	Notifier      notify.Notifier
	NotifyTimeout time.Duration

	Logger *zap.Logger
}

func (o Opts) withDefaults() Opts {
	if o.LookaheadDays <= 0 {
		o.LookaheadDays = DefaultLookaheadDays
	}
	if o.CriticalAfterDays == nil {
		d := DefaultCriticalAfterDays
		o.CriticalAfterDays = &d
	}
	if o.DefaultCapacityHours <= 0 {
		o.DefaultCapacityHours = DefaultCapacityHours
	}
	if o.NotifyTimeout <= 0 {
		o.NotifyTimeout = DefaultNotifyTimeout
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Store is the persistence surface the generator needs.
type Store interface {
	ListTasks(ctx context.Context, projectID string) ([]models.Task, error)
	ListMilestones(ctx context.Context, projectID string) ([]models.Milestone, error)
	ListAllocations(ctx context.Context, projectID string) ([]models.ResourceAllocation, error)
	ListUserAllocations(ctx context.Context, userIDs []string) ([]models.ResourceAllocation, error)
	ListCapacities(ctx context.Context, userIDs []string) ([]models.UserCapacity, error)
	ListAlerts(ctx context.Context, f store.AlertFilter) ([]models.SchedulingAlert, error)
	InsertAlert(ctx context.Context, a *models.SchedulingAlert) error
	SetAlertRead(ctx context.Context, id string, read bool) error
}

// SubjectKey identifies what an alert is about. An unread alert with the
// same key suppresses a new one.
func SubjectKey(alertType, subject string) string {
	return alertType + ":" + subject
}

// Generate evaluates a project's tasks, milestones and resource bookings as of
// now and inserts alerts for new conditions. It returns only the alerts it
// inserted; conditions already covered by an unread alert are skipped.
func Generate(ctx context.Context, st Store, projectID string, now time.Time, opts Opts) ([]models.SchedulingAlert, error) {
	opts = opts.withDefaults()

	tasks, err := st.ListTasks(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("alert: generate %s: %w", projectID, err)
	}
	milestones, err := st.ListMilestones(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("alert: generate %s: %w", projectID, err)
	}
	over, err := overallocations(ctx, st, projectID, now, opts.DefaultCapacityHours)
	if err != nil {
		return nil, fmt.Errorf("alert: generate %s: %w", projectID, err)
	}

	unread := true
	open, err := st.ListAlerts(ctx, store.AlertFilter{ProjectID: projectID, Unread: &unread})
	if err != nil {
		return nil, fmt.Errorf("alert: generate %s: %w", projectID, err)
	}
	seen := make(map[string]bool, len(open))
	for _, a := range open {
		seen[a.SubjectKey] = true
	}

	var candidates []models.SchedulingAlert
	for _, t := range tasks {
		if c, ok := taskAlert(t, now, opts); ok {
			candidates = append(candidates, c)
		}
	}
	for _, v := range milestone.DeriveAll(milestones, now) {
		if c, ok := milestoneAlert(v, now, opts); ok {
			candidates = append(candidates, c)
		}
	}
	candidates = append(candidates, over...)

	var created []models.SchedulingAlert
	for _, c := range candidates {
		if seen[c.SubjectKey] {
			continue
		}
		seen[c.SubjectKey] = true

		c.ID = uuid.NewString()
		c.ProjectID = projectID
		c.CreatedAt = now
		if err := st.InsertAlert(ctx, &c); err != nil {
			return created, fmt.Errorf("alert: generate %s: %w", projectID, err)
		}
		metrics.IncrementAlertGenerated(c.Type, c.Severity)
		created = append(created, c)
	}

	opts.Logger.Info("alerts generated",
		zap.String("project", projectID),
		zap.Int("candidates", len(candidates)),
		zap.Int("created", len(created)))

	if opts.Notifier != nil && len(created) > 0 {
		nctx, cancel := context.WithTimeout(ctx, opts.NotifyTimeout)
		defer cancel()
		if err := opts.Notifier.Notify(nctx, created); err != nil {
			opts.Logger.Warn("alert notification failed",
				zap.String("project", projectID),
				zap.Error(err))
		}
	}
	return created, nil
}

func taskAlert(t models.Task, now time.Time, opts Opts) (models.SchedulingAlert, bool) {
	deadline := t.Deadline()
	if deadline == nil || t.Status == models.TaskCompleted {
		return models.SchedulingAlert{}, false
	}
	id := t.ID
	a := models.SchedulingAlert{TaskID: &id}

	days := milestone.DaysUntil(*deadline, now)
	switch {
	case days < 0:
		a.Type = models.AlertTaskOverdue
		a.Severity = overdueSeverity(-days, opts)
		a.Message = fmt.Sprintf("Task %q is %s overdue (due %s)", t.Name, plural(-days, "day"), deadline.Format(dayLayout))
	case days <= opts.LookaheadDays:
		a.Type = models.AlertDeadlineApproaching
		a.Severity = models.SeverityMedium
		a.Message = fmt.Sprintf("Task %q is due %s (%s)", t.Name, dueIn(days), deadline.Format(dayLayout))
	default:
		return models.SchedulingAlert{}, false
	}
	a.SubjectKey = SubjectKey(a.Type, "task:"+t.ID)
	return a, true
}

func milestoneAlert(v milestone.View, now time.Time, opts Opts) (models.SchedulingAlert, bool) {
	if v.IsAchieved {
		return models.SchedulingAlert{}, false
	}
	id := v.ID
	a := models.SchedulingAlert{MilestoneID: &id}

	days := milestone.DaysUntil(v.DueDate, now)
	switch {
	case days < 0:
		a.Type = models.AlertMilestoneMissed
		a.Severity = overdueSeverity(-days, opts)
		a.Message = fmt.Sprintf("Milestone %q was missed %s ago at %d%% progress", v.Name, plural(-days, "day"), v.Progress)
	case days <= opts.LookaheadDays:
		a.Type = models.AlertDeadlineApproaching
		a.Severity = models.SeverityMedium
		a.Message = fmt.Sprintf("Milestone %q is due %s at %d%% progress", v.Name, dueIn(days), v.Progress)
	default:
		return models.SchedulingAlert{}, false
	}
	a.SubjectKey = SubjectKey(a.Type, "milestone:"+v.ID)
	return a, true
}

func overdueSeverity(daysLate int, opts Opts) string {
	if limit := *opts.CriticalAfterDays; limit > 0 && daysLate > limit {
		return models.SeverityCritical
	}
	return models.SeverityHigh
}

type userDay struct {
	user, day string
}

// overallocations flags each (user, day) from today on where the project
// books the user and the user's hours across all projects exceed capacity.
func overallocations(ctx context.Context, st Store, projectID string, now time.Time, defaultCap float64) ([]models.SchedulingAlert, error) {
	today := now.Format(dayLayout)

	own, err := st.ListAllocations(ctx, projectID)
	if err != nil {
		return nil, err
	}
	pairs := make(map[userDay]bool)
	var users []string
	userSeen := make(map[string]bool)
	for _, a := range own {
		day := a.Date.Format(dayLayout)
		if day < today {
			continue
		}
		pairs[userDay{a.UserID, day}] = true
		if !userSeen[a.UserID] {
			userSeen[a.UserID] = true
			users = append(users, a.UserID)
		}
	}
	if len(pairs) == 0 {
		return nil, nil
	}

	all, err := st.ListUserAllocations(ctx, users)
	if err != nil {
		return nil, err
	}
	hours := make(map[userDay]float64)
	for _, a := range all {
		k := userDay{a.UserID, a.Date.Format(dayLayout)}
		if pairs[k] {
			hours[k] += a.Hours
		}
	}

	caps, err := st.ListCapacities(ctx, users)
	if err != nil {
		return nil, err
	}
	capacity := make(map[string]float64, len(caps))
	for _, c := range caps {
		capacity[c.UserID] = c.HoursPerDay
	}

	keys := make([]userDay, 0, len(hours))
	for k := range hours {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].day != keys[j].day {
			return keys[i].day < keys[j].day
		}
		return keys[i].user < keys[j].user
	})

	var out []models.SchedulingAlert
	for _, k := range keys {
		limit, ok := capacity[k.user]
		if !ok {
			limit = defaultCap
		}
		if hours[k] <= limit {
			continue
		}
		user := k.user
		out = append(out, models.SchedulingAlert{
			Type:       models.AlertResourceOverallocation,
			Severity:   models.SeverityHigh,
			UserID:     &user,
			SubjectKey: SubjectKey(models.AlertResourceOverallocation, "user:"+k.user+":"+k.day),
			Message:    fmt.Sprintf("%s is booked %gh on %s, capacity %gh", k.user, hours[k], k.day, limit),
		})
	}
	return out, nil
}

// SetRead marks an alert read or unread. This is the only change an alert
// accepts after creation.
func SetRead(ctx context.Context, st Store, id string, read bool) error {
	if err := st.SetAlertRead(ctx, id, read); err != nil {
		return fmt.Errorf("alert: set read %s: %w", id, err)
	}
	return nil
}

// Partition splits alerts into unread and read, preserving order.
func Partition(alerts []models.SchedulingAlert) (unread, read []models.SchedulingAlert) {
	for _, a := range alerts {
		if a.IsRead {
			read = append(read, a)
		} else {
			unread = append(unread, a)
		}
	}
	return unread, read
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func dueIn(days int) string {
	switch days {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	}
	return "in " + plural(days, "day")
}
