// Package evm computes earned value snapshots from budgets, task progress
// and recorded costs.
package evm

import (
	"context"
	"fmt"
	"time"

	"github.com/zulandar/keystone/internal/metrics"
	"github.com/zulandar/keystone/internal/models"
)

// Weighting selects how task progress is averaged into earned value.
type Weighting string

const (
	WeightEqual    Weighting = "equal"
	WeightDuration Weighting = "duration"
)

// ParseWeighting maps "duration" to WeightDuration and anything else to WeightEqual.
func ParseWeighting(s string) Weighting {
	if Weighting(s) == WeightDuration {
		return WeightDuration
	}
	return WeightEqual
}

// Inputs is everything Compute needs for one measurement.
type Inputs struct {
	ProjectID       string
	Budgets         []models.Budget
	CostEntries     []models.CostEntry
	Tasks           []models.Task
	MeasurementDate time.Time
	Weighting       Weighting
}

// Compute derives a snapshot from in. CPI and SPI are nil when their
// denominator is zero.
func Compute(in Inputs) models.EarnedValueMetric {
	var total, pv float64
	for _, b := range in.Budgets {
		total += b.Amount
		pv += b.Amount * plannedFraction(b, in.MeasurementDate)
	}

	ev := total * AverageProgress(in.Tasks, in.Weighting) / 100

	var ac float64
	cutoff := dayOf(in.MeasurementDate)
	for _, c := range in.CostEntries {
		if !dayOf(c.EntryDate).After(cutoff) {
			ac += c.Amount
		}
	}

	return models.EarnedValueMetric{
		ProjectID:                in.ProjectID,
		MeasurementDate:          in.MeasurementDate,
		PlannedValue:             pv,
		EarnedValue:              ev,
		ActualCost:               ac,
		CostVariance:             ev - ac,
		ScheduleVariance:         ev - pv,
		CostPerformanceIndex:     ratio(ev, ac),
		SchedulePerformanceIndex: ratio(ev, pv),
	}
}

// AverageProgress is the weighted mean of task progress in percent, 0 with
// no tasks. Duration weighting falls back to equal when every duration is zero.
func AverageProgress(tasks []models.Task, w Weighting) float64 {
	if len(tasks) == 0 {
		return 0
	}
	var sum, weights float64
	if w == WeightDuration {
		for _, t := range tasks {
			if t.Duration > 0 {
				sum += float64(clamp(t.Progress) * t.Duration)
				weights += float64(t.Duration)
			}
		}
	}
	if weights == 0 {
		sum = 0
		for _, t := range tasks {
			sum += float64(clamp(t.Progress))
		}
		weights = float64(len(tasks))
	}
	return sum / weights
}

// plannedFraction is the share of a budget planned to have been spent by at.
// Spending is phased linearly over the budget period, inclusive of both ends.
func plannedFraction(b models.Budget, at time.Time) float64 {
	day := dayOf(at)
	switch {
	case b.PeriodStart == nil && b.PeriodEnd == nil:
		return 1
	case b.PeriodStart == nil:
		if day.Before(dayOf(*b.PeriodEnd)) {
			return 0
		}
		return 1
	case b.PeriodEnd == nil:
		if day.Before(dayOf(*b.PeriodStart)) {
			return 0
		}
		return 1
	}

	start, end := dayOf(*b.PeriodStart), dayOf(*b.PeriodEnd)
	if day.Before(start) {
		return 0
	}
	if !day.Before(end) {
		return 1
	}
	elapsed := day.Sub(start).Hours()/24 + 1
	length := end.Sub(start).Hours()/24 + 1
	return elapsed / length
}

func ratio(num, den float64) *float64 {
	if den == 0 {
		return nil
	}
	r := num / den
	return &r
}

func clamp(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Store is the persistence surface Calculate and List need.
type Store interface {
	ListBudgets(ctx context.Context, projectID string) ([]models.Budget, error)
	ListCostEntries(ctx context.Context, projectID string) ([]models.CostEntry, error)
	ListTasks(ctx context.Context, projectID string) ([]models.Task, error)
	InsertEarnedValueSnapshot(ctx context.Context, m *models.EarnedValueMetric) error
	ListEarnedValueSnapshots(ctx context.Context, projectID string) ([]models.EarnedValueMetric, error)
}

// Calculate measures a project as of now and appends the snapshot to its
// history. Earlier snapshots are never touched.
func Calculate(ctx context.Context, st Store, projectID string, now time.Time, w Weighting) (*models.EarnedValueMetric, error) {
	budgets, err := st.ListBudgets(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("evm: calculate %s: %w", projectID, err)
	}
	costs, err := st.ListCostEntries(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("evm: calculate %s: %w", projectID, err)
	}
	tasks, err := st.ListTasks(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("evm: calculate %s: %w", projectID, err)
	}

	m := Compute(Inputs{
		ProjectID:       projectID,
		Budgets:         budgets,
		CostEntries:     costs,
		Tasks:           tasks,
		MeasurementDate: now,
		Weighting:       w,
	})
	if err := st.InsertEarnedValueSnapshot(ctx, &m); err != nil {
		return nil, fmt.Errorf("evm: calculate %s: %w", projectID, err)
	}
	metrics.IncrementEVMCalculation()
	return &m, nil
}

// List returns a project's snapshot history, newest first.
func List(ctx context.Context, st Store, projectID string) ([]models.EarnedValueMetric, error) {
	history, err := st.ListEarnedValueSnapshots(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("evm: list %s: %w", projectID, err)
	}
	return history, nil
}
