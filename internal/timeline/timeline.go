// Package timeline turns task and milestone records into Gantt items and
// fits a calendar scale to them.
package timeline

import (
	"strings"
	"time"

	"github.com/zulandar/keystone/internal/models"
)

// Kind distinguishes task bars from milestone markers.
type Kind string

const (
	KindTask      Kind = "task"
	KindMilestone Kind = "milestone"
)

// Theme selects the light or dark color table.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme maps "dark" to ThemeDark and anything else to ThemeLight.
func ParseTheme(s string) Theme {
	if strings.EqualFold(strings.TrimSpace(s), string(ThemeDark)) {
		return ThemeDark
	}
	return ThemeLight
}

// Item is a normalized, render-ready timeline unit. Start is never after End.
type Item struct {
	ID            string    `json:"id"`
	Label         string    `json:"label"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Kind          Kind      `json:"kind"`
	Completion    int       `json:"completion"`
	DependencyIDs []string  `json:"dependency_ids"`
	ColorKey      string    `json:"color_key"`
}

type palette struct {
	light, dark string
}

func (p palette) pick(theme Theme) string {
	if theme == ThemeDark {
		return p.dark
	}
	return p.light
}

const defaultStatus = "default"

var statusColors = map[string]palette{
	models.TaskNotStarted: {light: "#94a3b8", dark: "#64748b"},
	models.TaskInProgress: {light: "#3b82f6", dark: "#60a5fa"},
	models.TaskCompleted:  {light: "#22c55e", dark: "#4ade80"},
	models.TaskBlocked:    {light: "#ef4444", dark: "#f87171"},
	defaultStatus:         {light: "#a1a1aa", dark: "#71717a"},
}

var milestoneColor = palette{light: "#f59e0b", dark: "#fbbf24"}

// StatusColor returns the bar color for a task status.
func StatusColor(status string, theme Theme) string {
	p, ok := statusColors[status]
	if !ok {
		p = statusColors[defaultStatus]
	}
	return p.pick(theme)
}

// MilestoneColor returns the marker color for milestones, independent of status.
func MilestoneColor(theme Theme) string {
	return milestoneColor.pick(theme)
}

// Normalize converts tasks and milestones into timeline items: tasks first,
// then milestones, each in input order. Tasks without a start date, end date
// or name, or whose end is before their start, are dropped.
func Normalize(tasks []models.Task, milestones []models.Milestone, theme Theme) []Item {
	items := make([]Item, 0, len(tasks)+len(milestones))
	for _, t := range tasks {
		if t.StartDate == nil || t.EndDate == nil || strings.TrimSpace(t.Name) == "" {
			continue
		}
		if t.EndDate.Before(*t.StartDate) {
			continue
		}
		items = append(items, Item{
			ID:            t.ID,
			Label:         t.Name,
			Start:         *t.StartDate,
			End:           *t.EndDate,
			Kind:          KindTask,
			Completion:    clampPercent(t.Progress),
			DependencyIDs: t.DependencyIDs(),
			ColorKey:      StatusColor(t.Status, theme),
		})
	}
	for _, m := range milestones {
		items = append(items, Item{
			ID:    m.ID,
			Label: m.Name,
			Start: m.DueDate,
			End:   m.DueDate,
			Kind:  KindMilestone,
			// Milestones always render as complete markers.
			Completion: 100,
			ColorKey:   MilestoneColor(theme),
		})
	}
	return items
}

func clampPercent(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
