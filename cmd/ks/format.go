package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

const dateLayout = "2006-01-02"

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

// truncate shortens s to maxLen runes, ending in "...".
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(dateLayout)
}

// formatIndex renders a nullable performance index; nil means the
// denominator was zero.
func formatIndex(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", *v)
}

func formatMoney(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// parseDate parses a YYYY-MM-DD flag value.
func parseDate(flag, s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s %q: want YYYY-MM-DD", flag, s)
	}
	return t, nil
}
