package milestone

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/zulandar/keystone/internal/models"
)

func TestWriteCSV(t *testing.T) {
	achieved := date(2024, 1, 9)
	views := []View{
		Derive(tasks(models.TaskCompleted, models.TaskCompleted), models.Milestone{
			Name: "Design done", Description: `Sign-off from "design"`, DueDate: date(2024, 1, 10), AchievedDate: &achieved,
		}, date(2024, 1, 12)),
		Derive(tasks(models.TaskCompleted, models.TaskNotStarted, models.TaskNotStarted, models.TaskNotStarted), models.Milestone{
			Name: "Beta, public", DueDate: date(2024, 12, 25),
		}, date(2024, 1, 12)),
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, views, ExportOpts{}); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\r\n"), "\r\n")
	for i, line := range lines {
		if !strings.HasPrefix(line, `"`) || !strings.HasSuffix(line, `"`) {
			t.Errorf("line %d not fully quoted: %s", i, line)
		}
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want header + 2", len(records))
	}
	if strings.Join(records[0], "|") != "Name|Description|Due Date|Achieved|Achieved Date|Status|Progress|Linked Tasks" {
		t.Errorf("header = %v", records[0])
	}

	want := [][]string{
		{"Design done", `Sign-off from "design"`, "1/10/2024", "Yes", "1/9/2024", "completed", "100%", "task A; task B"},
		{"Beta, public", "", "12/25/2024", "No", "", "upcoming", "25%", "task A; task B; task C; task D"},
	}
	for i, row := range want {
		got := records[i+1]
		for j := range row {
			if got[j] != row[j] {
				t.Errorf("row %d col %s = %q, want %q", i+1, csvHeader[j], got[j], row[j])
			}
		}
	}
}

func TestWriteCSV_CustomLayout(t *testing.T) {
	views := []View{{Milestone: models.Milestone{Name: "x", DueDate: date(2024, 3, 5)}, Status: StatusUpcoming}}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, views, ExportOpts{DateLayout: "2006-01-02"}); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if !strings.Contains(buf.String(), `"2024-03-05"`) {
		t.Errorf("output = %s, want ISO date", buf.String())
	}
}

func TestWriteCSV_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil, ExportOpts{}); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if n := strings.Count(buf.String(), "\r\n"); n != 1 {
		t.Errorf("lines = %d, want 1", n)
	}
}
