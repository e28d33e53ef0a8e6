package timeline

import (
	"testing"
	"time"

	"github.com/zulandar/keystone/internal/models"
)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestNormalize_FiltersMalformedTasks(t *testing.T) {
	tasks := []models.Task{
		{ID: "ok", Name: "Design", Status: models.TaskInProgress, Progress: 40, StartDate: day(2024, 1, 1), EndDate: day(2024, 1, 5)},
		{ID: "no-start", Name: "Build", EndDate: day(2024, 1, 9)},
		{ID: "no-end", Name: "Test", StartDate: day(2024, 1, 2)},
		{ID: "no-name", Name: "  ", StartDate: day(2024, 1, 2), EndDate: day(2024, 1, 3)},
		{ID: "inverted", Name: "Deploy", StartDate: day(2024, 1, 10), EndDate: day(2024, 1, 5)},
	}
	milestones := []models.Milestone{{ID: "m1", Name: "Beta", DueDate: *day(2024, 2, 1)}}

	items := Normalize(tasks, milestones, ThemeLight)
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2: %+v", len(items), items)
	}
	if items[0].ID != "ok" || items[1].ID != "m1" {
		t.Errorf("ids = %q, %q; want ok, m1", items[0].ID, items[1].ID)
	}
}

func TestNormalize_InvertedRangeDoesNotSkewScale(t *testing.T) {
	tasks := []models.Task{
		{ID: "inverted", Name: "Deploy", StartDate: day(2024, 1, 10), EndDate: day(2024, 1, 5)},
		{ID: "same-day", Name: "Review", StartDate: day(2024, 1, 1), EndDate: day(2024, 1, 1)},
		{ID: "ok", Name: "Build", StartDate: day(2024, 1, 1), EndDate: day(2024, 1, 14)},
	}
	items := Normalize(tasks, nil, ThemeLight)
	if len(items) != 2 || items[0].ID != "same-day" || items[1].ID != "ok" {
		t.Fatalf("items = %+v, want same-day and ok", items)
	}
	if span := SpanDays(items); span != 14 {
		t.Errorf("SpanDays() = %d, want 14", span)
	}
	if scale, _ := FitRange(items); scale.Granularity != Day {
		t.Errorf("FitRange() = %+v, want day", scale)
	}
}

func TestNormalize_TaskFields(t *testing.T) {
	tasks := []models.Task{{
		ID: "t2", Name: "Build", Status: models.TaskCompleted, Progress: 100,
		StartDate: day(2024, 1, 6), EndDate: day(2024, 1, 20),
		Deps: []models.TaskDep{{TaskID: "t2", DependsOn: "t1"}},
	}}
	it := Normalize(tasks, nil, ThemeDark)[0]

	if it.Kind != KindTask || it.Label != "Build" || it.Completion != 100 {
		t.Errorf("item = %+v", it)
	}
	if !it.Start.Equal(*day(2024, 1, 6)) || !it.End.Equal(*day(2024, 1, 20)) {
		t.Errorf("range = %v..%v", it.Start, it.End)
	}
	if len(it.DependencyIDs) != 1 || it.DependencyIDs[0] != "t1" {
		t.Errorf("DependencyIDs = %v, want [t1]", it.DependencyIDs)
	}
	if it.ColorKey != StatusColor(models.TaskCompleted, ThemeDark) {
		t.Errorf("ColorKey = %q, want dark completed color", it.ColorKey)
	}
}

func TestNormalize_MilestoneAlwaysComplete(t *testing.T) {
	ms := []models.Milestone{
		{ID: "m1", Name: "Open", DueDate: *day(2024, 3, 1), IsAchieved: false},
		{ID: "m2", Name: "Done", DueDate: *day(2024, 4, 1), IsAchieved: true},
	}
	for _, theme := range []Theme{ThemeLight, ThemeDark} {
		for _, it := range Normalize(nil, ms, theme) {
			if it.Kind != KindMilestone {
				t.Errorf("%s kind = %q", it.ID, it.Kind)
			}
			if it.Completion != 100 {
				t.Errorf("%s completion = %d, want 100", it.ID, it.Completion)
			}
			if !it.Start.Equal(it.End) {
				t.Errorf("%s start %v != end %v", it.ID, it.Start, it.End)
			}
			if it.ColorKey != MilestoneColor(theme) {
				t.Errorf("%s color = %q, want %q", it.ID, it.ColorKey, MilestoneColor(theme))
			}
		}
	}
}

func TestNormalize_PreservesInputOrder(t *testing.T) {
	tasks := []models.Task{
		{ID: "late", Name: "Late", StartDate: day(2024, 6, 1), EndDate: day(2024, 6, 2)},
		{ID: "early", Name: "Early", StartDate: day(2024, 1, 1), EndDate: day(2024, 1, 2)},
	}
	ms := []models.Milestone{
		{ID: "m-late", Name: "L", DueDate: *day(2024, 9, 1)},
		{ID: "m-early", Name: "E", DueDate: *day(2024, 2, 1)},
	}
	items := Normalize(tasks, ms, ThemeLight)
	want := []string{"late", "early", "m-late", "m-early"}
	for i, id := range want {
		if items[i].ID != id {
			t.Errorf("items[%d] = %q, want %q", i, items[i].ID, id)
		}
	}
}

func TestNormalize_Empty(t *testing.T) {
	if items := Normalize(nil, nil, ThemeLight); len(items) != 0 {
		t.Errorf("Normalize(nil, nil) = %v, want empty", items)
	}
}

func TestStatusColor(t *testing.T) {
	tests := []struct {
		status string
		theme  Theme
		want   string
	}{
		{models.TaskNotStarted, ThemeLight, "#94a3b8"},
		{models.TaskInProgress, ThemeLight, "#3b82f6"},
		{models.TaskCompleted, ThemeDark, "#4ade80"},
		{models.TaskBlocked, ThemeDark, "#f87171"},
		{"on_hold", ThemeLight, "#a1a1aa"},
		{"", ThemeDark, "#71717a"},
	}
	for _, tt := range tests {
		if got := StatusColor(tt.status, tt.theme); got != tt.want {
			t.Errorf("StatusColor(%q, %q) = %q, want %q", tt.status, tt.theme, got, tt.want)
		}
	}
}

func TestParseTheme(t *testing.T) {
	tests := map[string]Theme{"dark": ThemeDark, "DARK": ThemeDark, " dark ": ThemeDark, "light": ThemeLight, "": ThemeLight, "neon": ThemeLight}
	for in, want := range tests {
		if got := ParseTheme(in); got != want {
			t.Errorf("ParseTheme(%q) = %q, want %q", in, got, want)
		}
	}
}
