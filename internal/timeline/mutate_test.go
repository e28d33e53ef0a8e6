package timeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zulandar/keystone/internal/models"
	"github.com/zulandar/keystone/internal/store/storetest"
	"github.com/zulandar/keystone/internal/timeline"
)

func TestOnDateChange_MovesTask(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	storetest.Create(t, s, storetest.Task("t1", "p1", "Design", models.TaskInProgress, storetest.Date(2024, 1, 1), storetest.Date(2024, 1, 5)))

	start := time.Date(2024, 1, 3, 15, 45, 0, 0, time.UTC)
	end := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	task, err := timeline.OnDateChange(ctx, s, "t1", start, end)
	if err != nil {
		t.Fatalf("OnDateChange: %v", err)
	}
	if task == nil {
		t.Fatal("OnDateChange returned nil task")
	}
	if !task.StartDate.Equal(storetest.Date(2024, 1, 3)) {
		t.Errorf("StartDate = %v, want 2024-01-03 midnight", task.StartDate)
	}
	if !task.EndDate.Equal(storetest.Date(2024, 1, 8)) {
		t.Errorf("EndDate = %v, want 2024-01-08 midnight", task.EndDate)
	}

	stored, err := s.GetTask(ctx, "t1")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if !stored.StartDate.Equal(storetest.Date(2024, 1, 3)) {
		t.Errorf("stored StartDate = %v", stored.StartDate)
	}
}

func TestOnDateChange_NonTaskIsNoOp(t *testing.T) {
	s := storetest.New(t)
	storetest.Create(t, s, &models.Milestone{ID: "m1", ProjectID: "p1", Name: "Beta", DueDate: storetest.Date(2024, 2, 1)})

	task, err := timeline.OnDateChange(context.Background(), s, "m1", storetest.Date(2024, 3, 1), storetest.Date(2024, 3, 1))
	if err != nil {
		t.Fatalf("OnDateChange(milestone) error = %v, want nil", err)
	}
	if task != nil {
		t.Errorf("OnDateChange(milestone) = %+v, want nil", task)
	}
	m, err := s.GetMilestone(context.Background(), "m1")
	if err != nil {
		t.Fatalf("GetMilestone: %v", err)
	}
	if !m.DueDate.Equal(storetest.Date(2024, 2, 1)) {
		t.Errorf("milestone due date changed to %v", m.DueDate)
	}
}

func TestOnDateChange_RejectsInvertedRange(t *testing.T) {
	s := storetest.New(t)
	storetest.Create(t, s, storetest.Task("t1", "p1", "Design", "", storetest.Date(2024, 1, 1), storetest.Date(2024, 1, 5)))

	_, err := timeline.OnDateChange(context.Background(), s, "t1", storetest.Date(2024, 1, 9), storetest.Date(2024, 1, 2))
	if !errors.Is(err, timeline.ErrInvalidRange) {
		t.Fatalf("error = %v, want ErrInvalidRange", err)
	}
}

func TestOnDateChange_SameDayAllowed(t *testing.T) {
	s := storetest.New(t)
	storetest.Create(t, s, storetest.Task("t1", "p1", "Design", "", storetest.Date(2024, 1, 1), storetest.Date(2024, 1, 5)))

	start := time.Date(2024, 1, 4, 18, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 4, 6, 0, 0, 0, time.UTC)
	task, err := timeline.OnDateChange(context.Background(), s, "t1", start, end)
	if err != nil {
		t.Fatalf("OnDateChange: %v", err)
	}
	if !task.StartDate.Equal(*task.EndDate) {
		t.Errorf("start %v != end %v", task.StartDate, task.EndDate)
	}
}

type failingUpdater struct {
	getErr    error
	updateErr error
}

func (f failingUpdater) GetTask(context.Context, string) (*models.Task, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &models.Task{ID: "t1"}, nil
}

func (f failingUpdater) UpdateTask(context.Context, string, map[string]interface{}) (*models.Task, error) {
	return nil, f.updateErr
}

func TestOnDateChange_PropagatesStoreErrors(t *testing.T) {
	boom := errors.New("connection reset")
	day := storetest.Date(2024, 1, 1)

	if _, err := timeline.OnDateChange(context.Background(), failingUpdater{getErr: boom}, "t1", day, day); !errors.Is(err, boom) {
		t.Errorf("get failure: error = %v, want wrapped %v", err, boom)
	}
	if _, err := timeline.OnDateChange(context.Background(), failingUpdater{updateErr: boom}, "t1", day, day); !errors.Is(err, boom) {
		t.Errorf("update failure: error = %v, want wrapped %v", err, boom)
	}
}
