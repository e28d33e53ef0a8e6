// Package store is the gorm-backed system of record for tasks, milestones,
// costs, EVM snapshots and alerts.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/zulandar/keystone/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is wrapped by every lookup that finds no record.
var ErrNotFound = errors.New("not found")

// Store implements the persistence operations the scheduling core consumes.
type Store struct {
	db *gorm.DB
}

// New wraps a migrated gorm connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// AlertFilter narrows ListAlerts. Zero fields match everything.
type AlertFilter struct {
	ProjectID string
	Type      string
	Unread    *bool
}

// ListTasks returns a project's tasks with their dependencies, in creation order.
func (s *Store) ListTasks(ctx context.Context, projectID string) ([]models.Task, error) {
	var tasks []models.Task
	if err := s.db.WithContext(ctx).Preload("Deps").
		Where("project_id = ?", projectID).
		Order("created_at ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("store: list tasks for %s: %w", projectID, err)
	}
	return tasks, nil
}

// GetTask retrieves a task by ID.
func (s *Store) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if err := s.db.WithContext(ctx).Preload("Deps").Where("id = ?", id).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("store: task %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("store: get task %s: %w", id, err)
	}
	return &task, nil
}

// UpdateTask applies a partial update and returns the stored task.
func (s *Store) UpdateTask(ctx context.Context, id string, fields map[string]interface{}) (*models.Task, error) {
	if _, err := s.GetTask(ctx, id); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return nil, fmt.Errorf("store: update task %s: %w", id, err)
	}
	return s.GetTask(ctx, id)
}

// ListMilestones returns a project's milestones with linked tasks and
// comments pre-joined, ordered by due date.
func (s *Store) ListMilestones(ctx context.Context, projectID string) ([]models.Milestone, error) {
	var milestones []models.Milestone
	if err := s.milestoneQuery(ctx).
		Where("project_id = ?", projectID).
		Order("due_date ASC, id ASC").
		Find(&milestones).Error; err != nil {
		return nil, fmt.Errorf("store: list milestones for %s: %w", projectID, err)
	}
	return milestones, nil
}

// GetMilestone retrieves a milestone by ID with its associations.
func (s *Store) GetMilestone(ctx context.Context, id string) (*models.Milestone, error) {
	var m models.Milestone
	if err := s.milestoneQuery(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("store: milestone %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("store: get milestone %s: %w", id, err)
	}
	return &m, nil
}

// UpdateMilestone applies a partial update and returns the stored milestone.
func (s *Store) UpdateMilestone(ctx context.Context, id string, fields map[string]interface{}) (*models.Milestone, error) {
	if _, err := s.GetMilestone(ctx, id); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Milestone{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return nil, fmt.Errorf("store: update milestone %s: %w", id, err)
	}
	return s.GetMilestone(ctx, id)
}

// AddMilestoneComment appends a comment to an existing milestone.
func (s *Store) AddMilestoneComment(ctx context.Context, c *models.MilestoneComment) error {
	if err := s.exists(ctx, &models.Milestone{}, c.MilestoneID); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("store: add comment to %s: %w", c.MilestoneID, err)
	}
	return nil
}

func (s *Store) milestoneQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB { return db.Order("tasks.created_at ASC, tasks.id ASC") }).
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") })
}

// ListBudgets returns a project's budget allocations.
func (s *Store) ListBudgets(ctx context.Context, projectID string) ([]models.Budget, error) {
	var budgets []models.Budget
	if err := s.db.WithContext(ctx).Where("project_id = ?", projectID).Order("id ASC").Find(&budgets).Error; err != nil {
		return nil, fmt.Errorf("store: list budgets for %s: %w", projectID, err)
	}
	return budgets, nil
}

// ListCostEntries returns a project's recorded costs.
func (s *Store) ListCostEntries(ctx context.Context, projectID string) ([]models.CostEntry, error) {
	var entries []models.CostEntry
	if err := s.db.WithContext(ctx).Where("project_id = ?", projectID).Order("entry_date ASC, id ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("store: list cost entries for %s: %w", projectID, err)
	}
	return entries, nil
}

// ListAllocations returns the resource bookings made within a project.
func (s *Store) ListAllocations(ctx context.Context, projectID string) ([]models.ResourceAllocation, error) {
	var allocs []models.ResourceAllocation
	if err := s.db.WithContext(ctx).Where("project_id = ?", projectID).Order("date ASC, id ASC").Find(&allocs).Error; err != nil {
		return nil, fmt.Errorf("store: list allocations for %s: %w", projectID, err)
	}
	return allocs, nil
}

// ListUserAllocations returns every booking, across projects, for the given users.
func (s *Store) ListUserAllocations(ctx context.Context, userIDs []string) ([]models.ResourceAllocation, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var allocs []models.ResourceAllocation
	if err := s.db.WithContext(ctx).Where("user_id IN ?", userIDs).Order("date ASC, id ASC").Find(&allocs).Error; err != nil {
		return nil, fmt.Errorf("store: list user allocations: %w", err)
	}
	return allocs, nil
}

// ListCapacities returns the daily capacity rows for the given users.
func (s *Store) ListCapacities(ctx context.Context, userIDs []string) ([]models.UserCapacity, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var caps []models.UserCapacity
	if err := s.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&caps).Error; err != nil {
		return nil, fmt.Errorf("store: list capacities: %w", err)
	}
	return caps, nil
}

// InsertAlert persists a new alert.
func (s *Store) InsertAlert(ctx context.Context, a *models.SchedulingAlert) error {
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("store: insert alert: %w", err)
	}
	return nil
}

// ListAlerts returns alerts matching the filter, newest first.
func (s *Store) ListAlerts(ctx context.Context, f AlertFilter) ([]models.SchedulingAlert, error) {
	q := s.db.WithContext(ctx).Model(&models.SchedulingAlert{})
	if f.ProjectID != "" {
		q = q.Where("project_id = ?", f.ProjectID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Unread != nil {
		q = q.Where("is_read = ?", !*f.Unread)
	}

	var alerts []models.SchedulingAlert
	if err := q.Order("created_at DESC, id ASC").Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("store: list alerts: %w", err)
	}
	return alerts, nil
}

// SetAlertRead toggles an alert's read flag.
func (s *Store) SetAlertRead(ctx context.Context, id string, read bool) error {
	if err := s.exists(ctx, &models.SchedulingAlert{}, id); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(&models.SchedulingAlert{}).Where("id = ?", id).
		Update("is_read", read).Error; err != nil {
		return fmt.Errorf("store: mark alert %s: %w", id, err)
	}
	return nil
}

// InsertEarnedValueSnapshot appends an EVM snapshot.
func (s *Store) InsertEarnedValueSnapshot(ctx context.Context, m *models.EarnedValueMetric) error {
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("store: insert evm snapshot: %w", err)
	}
	return nil
}

// ListEarnedValueSnapshots returns a project's EVM history, newest first.
func (s *Store) ListEarnedValueSnapshots(ctx context.Context, projectID string) ([]models.EarnedValueMetric, error) {
	var metrics []models.EarnedValueMetric
	if err := s.db.WithContext(ctx).Where("project_id = ?", projectID).
		Order("measurement_date DESC, id DESC").
		Find(&metrics).Error; err != nil {
		return nil, fmt.Errorf("store: list evm snapshots for %s: %w", projectID, err)
	}
	return metrics, nil
}

// ListProjectIDs returns every project id that owns a task or milestone.
func (s *Store) ListProjectIDs(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	for _, model := range []interface{}{&models.Task{}, &models.Milestone{}} {
		var ids []string
		if err := s.db.WithContext(ctx).Model(model).Distinct().Pluck("project_id", &ids).Error; err != nil {
			return nil, fmt.Errorf("store: list project ids: %w", err)
		}
		for _, id := range ids {
			seen[id] = true
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// exists returns a wrapped ErrNotFound when no row of model has the id.
func (s *Store) exists(ctx context.Context, model interface{}, id string) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("store: check %s: %w", id, err)
	}
	if count == 0 {
		return fmt.Errorf("store: %s: %w", id, ErrNotFound)
	}
	return nil
}
