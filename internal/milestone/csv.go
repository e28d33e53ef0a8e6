package milestone

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// DefaultDateLayout renders dates as month/day/year without padding.
const DefaultDateLayout = "1/2/2006"

// ExportOpts controls WriteCSV.
type ExportOpts struct {
	DateLayout string
}

var csvHeader = []string{"Name", "Description", "Due Date", "Achieved", "Achieved Date", "Status", "Progress", "Linked Tasks"}

// WriteCSV writes one row per milestone under a header row. Every field is
// quoted.
func WriteCSV(w io.Writer, views []View, opts ExportOpts) error {
	layout := opts.DateLayout
	if layout == "" {
		layout = DefaultDateLayout
	}

	bw := bufio.NewWriter(w)
	if err := writeRow(bw, csvHeader); err != nil {
		return err
	}
	for _, v := range views {
		achieved, achievedDate := "No", ""
		if v.IsAchieved {
			achieved = "Yes"
		}
		if v.AchievedDate != nil {
			achievedDate = v.AchievedDate.Format(layout)
		}
		names := make([]string, len(v.Tasks))
		for i, t := range v.Tasks {
			names[i] = t.Name
		}
		row := []string{
			v.Name,
			v.Description,
			v.DueDate.Format(layout),
			achieved,
			achievedDate,
			string(v.Status),
			fmt.Sprintf("%d%%", v.Progress),
			strings.Join(names, "; "),
		}
		if err := writeRow(bw, row); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("milestone: write csv: %w", err)
	}
	return nil
}

func writeRow(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(f, `"`, `""`))
		w.WriteByte('"')
	}
	if _, err := w.WriteString("\r\n"); err != nil {
		return fmt.Errorf("milestone: write csv: %w", err)
	}
	return nil
}
