package window

import (
	"time"

	"github.com/leapstack-labs/leapline/pkg/core"
)

// TickInterval picks the axis interval for a window of length d.
func TickInterval(d time.Duration) time.Duration {
	switch {
	case d <= 30*time.Minute:
		return 5 * time.Minute
	case d <= 2*time.Hour:
		return 15 * time.Minute
	case d <= 6*time.Hour:
		return 30 * time.Minute
	default:
		return 60 * time.Minute
	}
}

// Ticks returns the axis ticks inside the visible range. The first candidate is the
// window start floored to the interval within its hour, in the window's location.
// A degenerate window has no ticks.
func (w Window) Ticks() []core.Tick {
	if w.Degenerate() {
		return nil
	}
	start, end := w.visible.Start, w.visible.End
	span := float64(end.Sub(start))
	interval := TickInterval(end.Sub(start))
	step := int(interval / time.Minute)

	t := time.Date(start.Year(), start.Month(), start.Day(), start.Hour(),
		(start.Minute()/step)*step, 0, 0, start.Location())

	var ticks []core.Tick
	for ; !t.After(end); t = t.Add(interval) {
		pct := float64(t.Sub(start)) / span * 100
		if pct < 0 || pct > 100 {
			continue
		}
		ticks = append(ticks, core.Tick{Time: t, Percent: pct, Label: t.Format("15:04")})
	}
	return ticks
}
