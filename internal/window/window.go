// Package window maintains the visible time range of a timeline and maps
// executions into it.
package window

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/leapstack-labs/leapline/pkg/core"
)

// MinWidthPercent keeps tiny executions visible and clickable.
const MinWidthPercent = 0.5

// ErrInvalidRange is returned for percentages outside 0 <= p0 <= p100 <= 100.
var ErrInvalidRange = errors.New("invalid window range")

// Extent is a closed time interval.
type Extent struct {
	Start time.Time
	End   time.Time
}

// Duration returns End - Start.
func (e Extent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// ExtentOf returns [min start, max end] over the given intervals.
// ok is false when there are none.
func ExtentOf(intervals []Extent) (ext Extent, ok bool) {
	for i, iv := range intervals {
		if i == 0 || iv.Start.Before(ext.Start) {
			ext.Start = iv.Start
		}
		if i == 0 || iv.End.After(ext.End) {
			ext.End = iv.End
		}
	}
	return ext, len(intervals) > 0
}

// Window is the visible sub-range of a full extent. The zero value is not usable;
// create windows with New or FromPercent.
type Window struct {
	full     Extent
	visible  Extent
	startPct float64
	endPct   float64
}

// New returns a window showing the whole extent.
func New(full Extent) Window {
	return Window{full: full, visible: full, startPct: 0, endPct: 100}
}

// FromPercent returns a window covering [p0, p100] percent of the full extent.
func FromPercent(full Extent, p0, p100 float64) (Window, error) {
	if err := ValidatePercents(p0, p100); err != nil {
		return Window{}, err
	}
	span := float64(full.Duration())
	return Window{
		full: full,
		visible: Extent{
			Start: full.Start.Add(time.Duration(span * p0 / 100)),
			End:   full.Start.Add(time.Duration(span * p100 / 100)),
		},
		startPct: p0,
		endPct:   p100,
	}, nil
}

// ValidatePercents checks 0 <= p0 <= p100 <= 100.
func ValidatePercents(p0, p100 float64) error {
	if math.IsNaN(p0) || math.IsNaN(p100) || p0 < 0 || p100 > 100 || p0 > p100 {
		return fmt.Errorf("%w: [%g, %g]", ErrInvalidRange, p0, p100)
	}
	return nil
}

// Full returns the full extent.
func (w Window) Full() Extent { return w.full }

// Visible returns the visible range.
func (w Window) Visible() Extent { return w.visible }

// Percents returns the window bounds as percentages of the full extent.
func (w Window) Percents() (p0, p100 float64) { return w.startPct, w.endPct }

// IsZoomed reports whether the window is narrower than the full extent.
func (w Window) IsZoomed() bool {
	return w.startPct > 0 || w.endPct < 100
}

// Degenerate reports whether the visible range has zero length.
func (w Window) Degenerate() bool {
	return !w.visible.End.After(w.visible.Start)
}

// Intersects reports whether [start, end] overlaps the visible range.
func (w Window) Intersects(start, end time.Time) bool {
	return !end.Before(w.visible.Start) && !start.After(w.visible.End)
}

// Row is an execution clamped to the window.
type Row struct {
	Start        time.Time
	End          time.Time
	StartPercent float64
	WidthPercent float64
}

// Clamp truncates [start, end] to the visible range and converts it to percentages.
// The caller should check Intersects first. In a degenerate window every row
// starts at 0% and takes the minimum width.
func (w Window) Clamp(start, end time.Time) Row {
	row := Row{Start: start, End: end}
	if start.Before(w.visible.Start) {
		row.Start = w.visible.Start
	}
	if end.After(w.visible.End) {
		row.End = w.visible.End
	}
	if w.Degenerate() {
		row.WidthPercent = MinWidthPercent
		return row
	}
	span := float64(w.visible.Duration())
	row.StartPercent = float64(row.Start.Sub(w.visible.Start)) / span * 100
	row.WidthPercent = math.Max(float64(row.End.Sub(row.Start))/span*100, MinWidthPercent)
	return row
}

// ExecutionRow is a timestamped execution placed in the window.
type ExecutionRow struct {
	Execution core.TimelineExecution
	Row
}

// Rows filters executions to those intersecting the window and clamps them.
func (w Window) Rows(execs []core.TimelineExecution) []ExecutionRow {
	var rows []ExecutionRow
	for _, e := range execs {
		if !w.Intersects(e.StartTime.Time, e.EndTime.Time) {
			continue
		}
		rows = append(rows, ExecutionRow{Execution: e, Row: w.Clamp(e.StartTime.Time, e.EndTime.Time)})
	}
	return rows
}

// PercentOf returns the position of t within the visible range. ok is false when t
// lies outside the range or the window is degenerate.
func (w Window) PercentOf(t time.Time) (pct float64, ok bool) {
	if w.Degenerate() || t.Before(w.visible.Start) || t.After(w.visible.End) {
		return 0, false
	}
	return float64(t.Sub(w.visible.Start)) / float64(w.visible.Duration()) * 100, true
}
