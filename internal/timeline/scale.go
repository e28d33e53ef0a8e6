package timeline

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Granularity is the calendar zoom level of a timeline chart.
type Granularity string

const (
	Hour  Granularity = "hour"
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
)

var columnWidths = map[Granularity]int{
	Month: 150,
	Week:  60,
	Day:   90,
	Hour:  120,
}

// Scale pairs a granularity with its display column width. Build one with
// ScaleFor so the two never drift apart.
type Scale struct {
	Granularity Granularity `json:"granularity"`
	ColumnWidth int         `json:"column_width"`
}

// ScaleFor returns the scale for g. Unknown granularities fall back to Day.
func ScaleFor(g Granularity) Scale {
	w, ok := columnWidths[g]
	if !ok {
		g, w = Day, columnWidths[Day]
	}
	return Scale{Granularity: g, ColumnWidth: w}
}

// ParseGranularity parses a zoom level name.
func ParseGranularity(s string) (Granularity, error) {
	g := Granularity(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := columnWidths[g]; !ok {
		return "", fmt.Errorf("timeline: unknown granularity %q (want hour, day, week or month)", s)
	}
	return g, nil
}

// SpanDays returns ceil((maxEnd-minStart)/24h)+1 over items. It is 0 for no items.
func SpanDays(items []Item) int {
	if len(items) == 0 {
		return 0
	}
	minStart, maxEnd := items[0].Start, items[0].End
	for _, it := range items[1:] {
		if it.Start.Before(minStart) {
			minStart = it.Start
		}
		if it.End.After(maxEnd) {
			maxEnd = it.End
		}
	}
	days := maxEnd.Sub(minStart).Hours() / 24
	return int(math.Ceil(days)) + 1
}

// GranularityForSpan picks the zoom level for a span in days. The first
// matching rule wins: >90 month, >30 week, <7 hour, otherwise day.
func GranularityForSpan(spanDays int) Granularity {
	switch {
	case spanDays > 90:
		return Month
	case spanDays > 30:
		return Week
	case spanDays < 7:
		return Hour
	default:
		return Day
	}
}

// FitRange selects a scale covering items. It reports false for empty input,
// in which case the caller keeps its current scale.
func FitRange(items []Item) (Scale, bool) {
	if len(items) == 0 {
		return Scale{}, false
	}
	return ScaleFor(GranularityForSpan(SpanDays(items))), true
}

// Viewport tracks the auto-fitted scale and an optional manual zoom override.
// The override lasts until the next Reload with data.
type Viewport struct {
	auto     Scale
	override *Granularity
}

// NewViewport starts at the Day scale.
func NewViewport() *Viewport {
	return &Viewport{auto: ScaleFor(Day)}
}

// Reload refits to items and clears any manual zoom. Empty input changes nothing.
func (v *Viewport) Reload(items []Item) {
	s, ok := FitRange(items)
	if !ok {
		return
	}
	v.auto = s
	v.override = nil
}

// Zoom overrides the auto-selected granularity.
func (v *Viewport) Zoom(g Granularity) {
	v.override = &g
}

// Overridden reports whether a manual zoom is active.
func (v *Viewport) Overridden() bool {
	return v.override != nil
}

// Scale returns the effective scale.
func (v *Viewport) Scale() Scale {
	if v.override != nil {
		return ScaleFor(*v.override)
	}
	return v.auto
}

// dateOnly truncates t to midnight UTC of its calendar day.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
