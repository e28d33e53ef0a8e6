// Package notify posts newly generated scheduling alerts to chat platforms
// (Slack, Discord).
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/zulandar/keystone/internal/models"
)

// Notifier delivers a batch of new alerts. Implementations must not retain
// the slice.
type Notifier interface {
	Notify(ctx context.Context, alerts []models.SchedulingAlert) error
}

// Color constants for alert severity.
const (
	ColorCritical = "#e53935"
	ColorHigh     = "#ff9800"
	ColorMedium   = "#2196f3"
	ColorLow      = "#36a64f"
)

// Message is a platform-neutral chat post.
type Message struct {
	Text   string  // fallback text
	Events []Event // one attachment or embed per alert
}

// Event is one alert formatted for display in chat.
type Event struct {
	Title  string
	Body   string
	Color  string
	Fields []Field
}

// Field is a key-value pair displayed in an attachment.
type Field struct {
	Name  string
	Value string
	Short bool
}

// SeverityColor maps an alert severity to a sidebar color.
func SeverityColor(severity string) string {
	switch severity {
	case models.SeverityCritical:
		return ColorCritical
	case models.SeverityHigh:
		return ColorHigh
	case models.SeverityLow:
		return ColorLow
	default:
		return ColorMedium
	}
}

var typeTitles = map[string]string{
	models.AlertDeadlineApproaching:    "Deadline approaching",
	models.AlertTaskOverdue:            "Task overdue",
	models.AlertMilestoneMissed:        "Milestone missed",
	models.AlertResourceOverallocation: "Resource overallocated",
}

// Format renders alerts as a single chat message.
func Format(alerts []models.SchedulingAlert) Message {
	msg := Message{}
	if len(alerts) == 0 {
		return msg
	}
	project := alerts[0].ProjectID
	if len(alerts) == 1 {
		msg.Text = fmt.Sprintf("1 new scheduling alert for %s", project)
	} else {
		msg.Text = fmt.Sprintf("%d new scheduling alerts for %s", len(alerts), project)
	}

	for _, a := range alerts {
		title, ok := typeTitles[a.Type]
		if !ok {
			title = a.Type
		}
		fields := []Field{{Name: "Severity", Value: strings.ToUpper(a.Severity), Short: true}}
		switch {
		case a.TaskID != nil:
			fields = append(fields, Field{Name: "Task", Value: *a.TaskID, Short: true})
		case a.MilestoneID != nil:
			fields = append(fields, Field{Name: "Milestone", Value: *a.MilestoneID, Short: true})
		case a.UserID != nil:
			fields = append(fields, Field{Name: "User", Value: *a.UserID, Short: true})
		}
		msg.Events = append(msg.Events, Event{
			Title:  title,
			Body:   a.Message,
			Color:  SeverityColor(a.Severity),
			Fields: fields,
		})
	}
	return msg
}

// Multi fans a batch out to every notifier and joins their errors.
type Multi []Notifier

// Notify calls each notifier in order; one failure does not stop the rest.
func (m Multi) Notify(ctx context.Context, alerts []models.SchedulingAlert) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, alerts); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Mock records every batch it receives. Set Err to simulate delivery failure.
type Mock struct {
	mu      sync.Mutex
	batches [][]models.SchedulingAlert
	Err     error
}

// Notify records the batch.
func (m *Mock) Notify(_ context.Context, alerts []models.SchedulingAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, append([]models.SchedulingAlert(nil), alerts...))
	return m.Err
}

// Batches returns the recorded batches.
func (m *Mock) Batches() [][]models.SchedulingAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]models.SchedulingAlert(nil), m.batches...)
}
