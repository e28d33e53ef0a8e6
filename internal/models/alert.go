package models

import "time"

// Alert types.
const (
	AlertDeadlineApproaching    = "deadline_approaching"
	AlertTaskOverdue            = "task_overdue"
	AlertMilestoneMissed        = "milestone_missed"
	AlertResourceOverallocation = "resource_overallocation"
)

// Alert severities.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// SchedulingAlert is a generated scheduling warning. Only IsRead changes
// after creation.
type SchedulingAlert struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	ProjectID   string    `gorm:"size:36;not null;index" json:"project_id"`
	Type        string    `gorm:"size:32;not null;index" json:"alert_type"`
	Severity    string    `gorm:"size:16;not null" json:"severity"`
	TaskID      *string   `gorm:"size:36" json:"task_id"`
	MilestoneID *string   `gorm:"size:36" json:"milestone_id"`
	UserID      *string   `gorm:"size:36" json:"user_id"`
	SubjectKey  string    `gorm:"size:128;index" json:"subject_key"`
	Message     string    `gorm:"type:text" json:"message"`
	IsRead      bool      `gorm:"default:false;index" json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

// ResourceAllocation books a user's hours on a task for one calendar day.
type ResourceAllocation struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectID string    `gorm:"size:36;not null;index" json:"project_id"`
	TaskID    string    `gorm:"size:36;index" json:"task_id"`
	UserID    string    `gorm:"size:36;not null;index" json:"user_id"`
	Date      time.Time `gorm:"index" json:"date"`
	Hours     float64   `json:"hours"`
}

// UserCapacity is the number of hours a user can work per day.
type UserCapacity struct {
	UserID      string  `gorm:"primaryKey;size:36" json:"user_id"`
	HoursPerDay float64 `json:"hours_per_day"`
}
