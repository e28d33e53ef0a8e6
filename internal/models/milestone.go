package models

import "time"

// Milestone is a dated checkpoint linked to a set of tasks.
type Milestone struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	ProjectID    string     `gorm:"size:36;not null;index" json:"project_id"`
	Name         string     `gorm:"size:256;not null" json:"name"`
	Description  string     `gorm:"type:text" json:"description"`
	DueDate      time.Time  `gorm:"not null" json:"due_date"`
	IsAchieved   bool       `gorm:"default:false" json:"is_achieved"`
	AchievedDate *time.Time `json:"achieved_date"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Tasks    []Task             `gorm:"many2many:milestone_tasks;" json:"tasks,omitempty"`
	Comments []MilestoneComment `gorm:"foreignKey:MilestoneID" json:"comments,omitempty"`
}

// MilestoneComment is an append-only note on a milestone.
type MilestoneComment struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	MilestoneID string    `gorm:"size:36;not null;index" json:"milestone_id"`
	Author      string    `gorm:"size:64" json:"author"`
	Body        string    `gorm:"type:text;not null" json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}
