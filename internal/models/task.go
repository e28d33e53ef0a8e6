package models

import "time"

// Task statuses.
const (
	TaskNotStarted = "not_started"
	TaskInProgress = "in_progress"
	TaskCompleted  = "completed"
	TaskBlocked    = "blocked"
)

// Task is a schedulable unit of work within a project.
type Task struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	ProjectID   string     `gorm:"size:36;not null;index" json:"project_id"`
	Name        string     `gorm:"size:256" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	Status      string     `gorm:"size:16;default:not_started;index" json:"status"`
	Progress    int        `gorm:"default:0" json:"progress"`
	AssigneeID  *string    `gorm:"size:36" json:"assignee_id"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	DueDate     *time.Time `json:"due_date"`
	Duration    int        `json:"duration"`
	Category    string     `gorm:"size:64" json:"category"`
	Subcategory string     `gorm:"size:64" json:"subcategory"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Deps []TaskDep `gorm:"foreignKey:TaskID" json:"dependencies,omitempty"`
}

// TaskDep records that TaskID follows DependsOn. Dependencies are advisory.
type TaskDep struct {
	TaskID    string `gorm:"primaryKey;size:36" json:"task_id"`
	DependsOn string `gorm:"primaryKey;size:36" json:"depends_on"`
}

// Deadline returns the due date, falling back to the end date.
func (t Task) Deadline() *time.Time {
	if t.DueDate != nil {
		return t.DueDate
	}
	return t.EndDate
}

// DependencyIDs returns the ids of the task's predecessors.
func (t Task) DependencyIDs() []string {
	if len(t.Deps) == 0 {
		return nil
	}
	ids := make([]string, len(t.Deps))
	for i, d := range t.Deps {
		ids[i] = d.DependsOn
	}
	return ids
}
