package models

import "time"

// Budget is an allocated amount for a project category. PeriodStart and
// PeriodEnd, when set, bound the window over which the allocation is planned
// to be spent.
type Budget struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectID   string     `gorm:"size:36;not null;index" json:"project_id"`
	Category    string     `gorm:"size:64" json:"category"`
	Subcategory string     `gorm:"size:64" json:"subcategory"`
	Amount      float64    `gorm:"not null" json:"amount"`
	Currency    string     `gorm:"size:3;default:USD" json:"currency"`
	PeriodStart *time.Time `json:"period_start"`
	PeriodEnd   *time.Time `json:"period_end"`
	CreatedAt   time.Time  `json:"created_at"`
}

// CostEntry is an actual amount spent against a project category.
type CostEntry struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectID   string    `gorm:"size:36;not null;index" json:"project_id"`
	Category    string    `gorm:"size:64" json:"category"`
	Subcategory string    `gorm:"size:64" json:"subcategory"`
	Amount      float64   `gorm:"not null" json:"amount"`
	Currency    string    `gorm:"size:3;default:USD" json:"currency"`
	EntryDate   time.Time `gorm:"index" json:"entry_date"`
	CreatedAt   time.Time `json:"created_at"`
}

// EarnedValueMetric is an immutable point-in-time EVM snapshot. The index
// fields are nil when their denominator is zero.
type EarnedValueMetric struct {
	ID                       uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectID                string    `gorm:"size:36;not null;index" json:"project_id"`
	MeasurementDate          time.Time `gorm:"index" json:"measurement_date"`
	PlannedValue             float64   `json:"planned_value"`
	EarnedValue              float64   `json:"earned_value"`
	ActualCost               float64   `json:"actual_cost"`
	CostVariance             float64   `json:"cost_variance"`
	ScheduleVariance         float64   `json:"schedule_variance"`
	CostPerformanceIndex     *float64  `json:"cost_performance_index"`
	SchedulePerformanceIndex *float64  `json:"schedule_performance_index"`
	CreatedAt                time.Time `json:"created_at"`
}
