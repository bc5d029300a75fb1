package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapline/pkg/core"
)

var base = time.Date(2024, 3, 1, 10, 7, 30, 0, time.UTC)

func at(minutes float64) time.Time {
	return base.Add(time.Duration(minutes * float64(time.Minute)))
}

func TestExtentOf(t *testing.T) {
	ext, ok := ExtentOf([]Extent{{at(5), at(10)}, {at(0), at(3)}, {at(8), at(20)}})
	require.True(t, ok)
	assert.Equal(t, at(0), ext.Start)
	assert.Equal(t, at(20), ext.End)

	_, ok = ExtentOf(nil)
	assert.False(t, ok)
}

func TestFromPercent(t *testing.T) {
	full := Extent{at(0), at(100)}

	w, err := FromPercent(full, 25, 75)
	require.NoError(t, err)
	assert.Equal(t, at(25), w.Visible().Start)
	assert.Equal(t, at(75), w.Visible().End)
	assert.True(t, w.IsZoomed())

	for _, bad := range [][2]float64{{-1, 50}, {10, 101}, {60, 40}} {
		_, err := FromPercent(full, bad[0], bad[1])
		assert.ErrorIs(t, err, ErrInvalidRange, "%v", bad)
	}
}

func TestFullPercentRoundTrip(t *testing.T) {
	full := Extent{at(0), at(42.5)}
	none := New(full)
	all, err := FromPercent(full, 0, 100)
	require.NoError(t, err)

	assert.Equal(t, none.Visible(), all.Visible())
	assert.False(t, all.IsZoomed())

	for _, span := range []Extent{{at(0), at(1)}, {at(10), at(42.5)}, {at(20), at(20)}} {
		assert.Equal(t, none.Clamp(span.Start, span.End), all.Clamp(span.Start, span.End))
	}
	assert.Equal(t, none.Ticks(), all.Ticks())
}

func TestIntersectsAndClamp(t *testing.T) {
	w, err := FromPercent(Extent{at(0), at(100)}, 20, 60)
	require.NoError(t, err)

	assert.False(t, w.Intersects(at(0), at(19)))
	assert.True(t, w.Intersects(at(0), at(20)), "touching the start is visible")
	assert.True(t, w.Intersects(at(60), at(70)), "touching the end is visible")
	assert.False(t, w.Intersects(at(61), at(70)))

	row := w.Clamp(at(10), at(30))
	assert.Equal(t, at(20), row.Start)
	assert.Equal(t, at(30), row.End)
	assert.InDelta(t, 0, row.StartPercent, 1e-9)
	assert.InDelta(t, 25, row.WidthPercent, 1e-9)

	row = w.Clamp(at(50), at(90))
	assert.Equal(t, at(60), row.End)
	assert.InDelta(t, 75, row.StartPercent, 1e-9)
	assert.InDelta(t, 25, row.WidthPercent, 1e-9)
}

func TestClamp_WidthFloor(t *testing.T) {
	w := New(Extent{at(0), at(600)})
	for _, span := range []Extent{{at(10), at(10)}, {at(10), at(10.1)}, {at(599), at(600)}} {
		row := w.Clamp(span.Start, span.End)
		assert.GreaterOrEqual(t, row.WidthPercent, MinWidthPercent)
	}
}

func TestDegenerateWindow(t *testing.T) {
	w := New(Extent{at(5), at(5)})
	require.True(t, w.Degenerate())

	row := w.Clamp(at(5), at(5))
	assert.InDelta(t, 0, row.StartPercent, 1e-9)
	assert.InDelta(t, MinWidthPercent, row.WidthPercent, 1e-9)
	assert.Empty(t, w.Ticks())
}

func TestTickInterval(t *testing.T) {
	tests := []struct {
		window time.Duration
		want   time.Duration
	}{
		{25 * time.Minute, 5 * time.Minute},
		{30 * time.Minute, 5 * time.Minute},
		{90 * time.Minute, 15 * time.Minute},
		{2 * time.Hour, 15 * time.Minute},
		{3 * time.Hour, 30 * time.Minute},
		{6 * time.Hour, 30 * time.Minute},
		{10 * time.Hour, 60 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.window.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, TickInterval(tt.window))
		})
	}
}

func TestTicks(t *testing.T) {
	// 10:07:30 .. 10:32:30 is a 25 minute window -> 5 minute ticks from 10:10
	w := New(Extent{at(0), at(25)})
	ticks := w.Ticks()

	var labels []string
	for _, tick := range ticks {
		labels = append(labels, tick.Label)
		assert.GreaterOrEqual(t, tick.Percent, 0.0)
		assert.LessOrEqual(t, tick.Percent, 100.0)
	}
	assert.Equal(t, []string{"10:10", "10:15", "10:20", "10:25", "10:30"}, labels)
	assert.InDelta(t, 10, ticks[0].Percent, 1e-9)
}

func TestTicks_AlignedStartIncluded(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	w := New(Extent{start, start.Add(3 * time.Hour)})
	ticks := w.Ticks()

	require.Len(t, ticks, 7)
	assert.Equal(t, "09:00", ticks[0].Label)
	assert.Equal(t, "12:00", ticks[6].Label)
	assert.InDelta(t, 100, ticks[6].Percent, 1e-9)
}

func TestRows(t *testing.T) {
	w, err := FromPercent(Extent{at(0), at(60)}, 50, 100)
	require.NoError(t, err)

	execs := []core.TimelineExecution{
		core.NewTimelineExecution("1", "early", "", "", nil, at(0), 10*time.Minute),
		core.NewTimelineExecution("2", "straddle", "", "", nil, at(25), 10*time.Minute),
		core.NewTimelineExecution("3", "late", "", "", nil, at(50), 10*time.Minute),
	}

	rows := w.Rows(execs)
	require.Len(t, rows, 2)
	assert.Equal(t, "straddle", rows[0].Execution.ModelName)
	assert.Equal(t, at(30), rows[0].Start)
	assert.InDelta(t, 0, rows[0].StartPercent, 1e-9)
	assert.InDelta(t, 5/30.0*100, rows[0].WidthPercent, 1e-9)
	assert.Equal(t, "late", rows[1].Execution.ModelName)
}

func TestPercentOf(t *testing.T) {
	w := New(Extent{at(0), at(40)})

	pct, ok := w.PercentOf(at(10))
	require.True(t, ok)
	assert.InDelta(t, 25, pct, 1e-9)

	_, ok = w.PercentOf(at(41))
	assert.False(t, ok)

	_, ok = New(Extent{at(1), at(1)}).PercentOf(at(1))
	assert.False(t, ok)
}
