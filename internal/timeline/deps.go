package timeline

import (
	"time"

	"github.com/zulandar/keystone/internal/models"
)

// Violation marks a task scheduled to start before one of its predecessors
// ends. Violations are reported for display; nothing enforces them.
type Violation struct {
	TaskID         string    `json:"task_id"`
	PredecessorID  string    `json:"predecessor_id"`
	TaskStart      time.Time `json:"task_start"`
	PredecessorEnd time.Time `json:"predecessor_end"`
}

// CheckDependencies lists ordering violations among scheduled tasks.
// Predecessors that are missing or unscheduled are skipped.
func CheckDependencies(tasks []models.Task) []Violation {
	byID := make(map[string]models.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	var out []Violation
	for _, t := range tasks {
		if t.StartDate == nil {
			continue
		}
		for _, depID := range t.DependencyIDs() {
			pred, ok := byID[depID]
			if !ok || pred.EndDate == nil {
				continue
			}
			if t.StartDate.Before(*pred.EndDate) {
				out = append(out, Violation{
					TaskID:         t.ID,
					PredecessorID:  depID,
					TaskStart:      *t.StartDate,
					PredecessorEnd: *pred.EndDate,
				})
			}
		}
	}
	return out
}
