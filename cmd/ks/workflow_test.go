package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zulandar/keystone/internal/models"
	"github.com/zulandar/keystone/internal/store"
	"github.com/zulandar/keystone/internal/store/storetest"
)

func dayOffset(days int) time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d+days, 0, 0, 0, 0, time.UTC)
}

// seedProject initializes the database behind path and fills project p1:
// a completed design task, an overdue build task and one milestone per task.
func seedProject(t *testing.T, path string) *store.Store {
	t.Helper()
	if out, err := run(t, "db", "init", "--config", path); err != nil {
		t.Fatalf("db init: %v\n%s", err, out)
	}
	s := openStore(t, path)

	design := storetest.Task("t1", "p1", "Design", models.TaskCompleted, dayOffset(-20), dayOffset(-10))
	build := storetest.Task("t2", "p1", "Build", models.TaskInProgress, dayOffset(-12), dayOffset(-2))
	storetest.Create(t, s, design, build, &models.TaskDep{TaskID: "t2", DependsOn: "t1"})
	storetest.Create(t, s,
		&models.Milestone{ID: "m1", ProjectID: "p1", Name: "Design signed off", DueDate: dayOffset(-9), Tasks: []models.Task{*design}},
		&models.Milestone{ID: "m2", ProjectID: "p1", Name: "Release", DueDate: dayOffset(5), Tasks: []models.Task{*build}},
		&models.Budget{ProjectID: "p1", Amount: 10000},
		&models.CostEntry{ProjectID: "p1", Amount: 2500, EntryDate: dayOffset(-5)},
	)
	return s
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

func TestTimelineCmd(t *testing.T) {
	path := writeConfig(t)
	seedProject(t, path)

	out := mustRun(t, "timeline", "p1", "--config", path)
	for _, want := range []string{"Scale: day", "Design", "Build", "Release", "milestone", "Dependency warnings", "t2 starts"} {
		if !strings.Contains(out, want) {
			t.Errorf("timeline output missing %q:\n%s", want, out)
		}
	}

	out = mustRun(t, "timeline", "p1", "--zoom", "month", "--config", path)
	if !strings.Contains(out, "Scale: month (column width 150)") {
		t.Errorf("expected zoomed scale, got:\n%s", out)
	}

	if _, err := run(t, "timeline", "p1", "--zoom", "fortnight", "--config", path); err == nil {
		t.Error("expected error for unknown zoom level")
	}

	out = mustRun(t, "timeline", "empty", "--config", path)
	if !strings.Contains(out, "No timeline items") {
		t.Errorf("expected empty message, got:\n%s", out)
	}
}

func TestTaskMoveCmd(t *testing.T) {
	path := writeConfig(t)
	s := seedProject(t, path)

	out := mustRun(t, "task", "move", "t2", "--start", "2030-01-02", "--end", "2030-01-09", "--config", path)
	if !strings.Contains(out, "Moved task t2: 2030-01-02 -> 2030-01-09") {
		t.Errorf("unexpected output: %s", out)
	}
	task, err := s.GetTask(context.Background(), "t2")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if task.EndDate.Format(dateLayout) != "2030-01-09" {
		t.Errorf("stored end = %v, want 2030-01-09", task.EndDate)
	}

	out = mustRun(t, "task", "move", "m1", "--start", "2030-01-02", "--end", "2030-01-09", "--config", path)
	if !strings.Contains(out, "not a task") {
		t.Errorf("expected no-op message, got: %s", out)
	}

	if _, err := run(t, "task", "move", "t2", "--start", "2030-01-09", "--end", "2030-01-02", "--config", path); err == nil {
		t.Error("expected error for end before start")
	}
	if _, err := run(t, "task", "move", "t2", "--start", "Jan 2", "--end", "2030-01-02", "--config", path); err == nil {
		t.Error("expected error for malformed date")
	}
}

func TestMilestoneCmds(t *testing.T) {
	path := writeConfig(t)
	s := seedProject(t, path)

	out := mustRun(t, "milestone", "list", "p1", "--config", path)
	for _, want := range []string{"Design signed off", "100%", "completed", "Release", "upcoming"} {
		if !strings.Contains(out, want) {
			t.Errorf("milestone list missing %q:\n%s", want, out)
		}
	}

	out = mustRun(t, "milestone", "scan", "p1", "--config", path)
	if !strings.Contains(out, "Completed milestone m1") {
		t.Errorf("scan output: %s", out)
	}
	out = mustRun(t, "milestone", "scan", "p1", "--config", path)
	if !strings.Contains(out, "No milestones completed") {
		t.Errorf("second scan should be a no-op, got: %s", out)
	}

	out = mustRun(t, "milestone", "comment", "m2", "on track", "--author", "ana", "--config", path)
	if !strings.Contains(out, "Added comment") {
		t.Errorf("comment output: %s", out)
	}
	if _, err := run(t, "milestone", "comment", "m2", "   ", "--config", path); err == nil {
		t.Error("expected error for blank comment")
	}

	out = mustRun(t, "milestone", "achieve", "m2", "true", "--config", path)
	if !strings.Contains(out, "Milestone m2 achieved") {
		t.Errorf("achieve output: %s", out)
	}
	out = mustRun(t, "milestone", "achieve", "m2", "false", "--config", path)
	if !strings.Contains(out, "marked not achieved") {
		t.Errorf("un-achieve output: %s", out)
	}
	if _, err := run(t, "milestone", "achieve", "m2", "maybe", "--config", path); err == nil {
		t.Error("expected error for non-boolean argument")
	}
	if _, err := run(t, "milestone", "achieve", "ghost", "true", "--config", path); err == nil {
		t.Error("expected error for unknown milestone")
	}

	m, err := s.GetMilestone(context.Background(), "m2")
	if err != nil {
		t.Fatalf("GetMilestone: %v", err)
	}
	if len(m.Comments) != 1 || m.Comments[0].Author != "ana" {
		t.Errorf("comments = %+v, want one by ana", m.Comments)
	}
}

func TestMilestoneExportCmd(t *testing.T) {
	path := writeConfig(t)
	seedProject(t, path)

	out := mustRun(t, "milestone", "export", "p1", "--config", path)
	if !strings.HasPrefix(out, `"Name","Description","Due Date"`) {
		t.Errorf("stdout export should start with header, got:\n%s", out)
	}

	file := filepath.Join(t.TempDir(), "ms.csv")
	out = mustRun(t, "milestone", "export", "p1", "-o", file, "--date-layout", "2006-01-02", "--config", path)
	if !strings.Contains(out, "Wrote 2 milestones") {
		t.Errorf("export message: %s", out)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), `"`+dayOffset(-9).Format("2006-01-02")+`"`) {
		t.Errorf("export should use the custom layout:\n%s", data)
	}
}

func TestEVMCmds(t *testing.T) {
	path := writeConfig(t)
	seedProject(t, path)

	out := mustRun(t, "evm", "history", "p1", "--config", path)
	if !strings.Contains(out, "No EVM snapshots") {
		t.Errorf("expected empty history, got: %s", out)
	}

	out = mustRun(t, "evm", "calculate", "p1", "--config", path)
	for _, want := range []string{"Planned value (PV):", "10000.00", "Actual cost (AC):", "2500.00", "CPI:"} {
		if !strings.Contains(out, want) {
			t.Errorf("calculate output missing %q:\n%s", want, out)
		}
	}
	mustRun(t, "evm", "calculate", "p1", "--weighting", "duration", "--config", path)

	out = mustRun(t, "evm", "history", "p1", "--config", path)
	if got := strings.Count(out, "\n"); got != 3 {
		t.Errorf("history should have header plus 2 rows, got %d lines:\n%s", got, out)
	}

	out = mustRun(t, "evm", "calculate", "empty", "--config", path)
	if !strings.Contains(out, "n/a") {
		t.Errorf("zero denominators should render n/a:\n%s", out)
	}
}

func TestAlertCmds(t *testing.T) {
	path := writeConfig(t)
	s := seedProject(t, path)

	out := mustRun(t, "alert", "generate", "p1", "--no-notify", "--config", path)
	if !strings.Contains(out, "Created 1 alert(s)") || !strings.Contains(out, models.AlertTaskOverdue) {
		t.Errorf("generate output: %s", out)
	}
	out = mustRun(t, "alert", "generate", "p1", "--no-notify", "--config", path)
	if !strings.Contains(out, "No new alerts") {
		t.Errorf("second generate should dedupe, got: %s", out)
	}

	alerts, err := s.ListAlerts(context.Background(), store.AlertFilter{ProjectID: "p1"})
	if err != nil || len(alerts) != 1 {
		t.Fatalf("ListAlerts = %v, %v; want 1", alerts, err)
	}
	id := alerts[0].ID

	out = mustRun(t, "alert", "list", "p1", "--config", path)
	if !strings.Contains(out, "Unread (1)") || !strings.Contains(out, "Read (0)") {
		t.Errorf("list output: %s", out)
	}

	out = mustRun(t, "alert", "read", id, "--config", path)
	if !strings.Contains(out, "marked read") {
		t.Errorf("read output: %s", out)
	}
	out = mustRun(t, "alert", "list", "p1", "--config", path)
	if !strings.Contains(out, "Unread (0)") || !strings.Contains(out, "Read (1)") {
		t.Errorf("list after read: %s", out)
	}
	out = mustRun(t, "alert", "list", "p1", "--unread", "--config", path)
	if strings.Contains(out, "Read (1)") {
		t.Errorf("--unread should hide read alerts: %s", out)
	}

	out = mustRun(t, "alert", "unread", id, "--config", path)
	if !strings.Contains(out, "marked unread") {
		t.Errorf("unread output: %s", out)
	}
	if _, err := run(t, "alert", "read", "ghost", "--config", path); err == nil {
		t.Error("expected error for unknown alert")
	}

	out = mustRun(t, "alert", "list", "p1", "--type", models.AlertResourceOverallocation, "--config", path)
	if !strings.Contains(out, "No alerts found") {
		t.Errorf("type filter output: %s", out)
	}
}
