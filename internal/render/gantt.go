package render

import (
	"math"
	"strings"

	"github.com/leapstack-labs/leapline/pkg/core"
)

// GanttRow places one bar on a character grid.
type GanttRow struct {
	Bar core.Bar
	// Offset and Length are in columns; Length is at least 1.
	Offset int
	Length int
}

// Gantt maps the scene's visible bars onto cols columns using their window
// percentages. Rows keep the scene's top-to-bottom order.
func Gantt(scene *core.Scene, cols int) []GanttRow {
	if cols < 1 {
		cols = 1
	}
	rows := make([]GanttRow, 0, len(scene.Bars))
	for _, b := range scene.Bars {
		offset := int(math.Floor(b.StartPercent / 100 * float64(cols)))
		length := int(math.Round(b.WidthPercent / 100 * float64(cols)))
		if offset >= cols {
			offset = cols - 1
		}
		if offset < 0 {
			offset = 0
		}
		if length < 1 {
			length = 1
		}
		if offset+length > cols {
			length = cols - offset
		}
		rows = append(rows, GanttRow{Bar: b, Offset: offset, Length: length})
	}
	return rows
}

// Line draws the row as a fixed-width track of cols columns.
func (r GanttRow) Line(cols int, fill rune) string {
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", r.Offset))
	b.WriteString(strings.Repeat(string(fill), r.Length))
	if rest := cols - r.Offset - r.Length; rest > 0 {
		b.WriteString(strings.Repeat(" ", rest))
	}
	return b.String()
}

// Fill returns the glyph for a bar: critical bars are solid, the rest shaded by emphasis.
func Fill(b core.Bar) rune {
	switch {
	case b.Emphasis == core.EmphasisDimmed:
		return '░'
	case b.Critical:
		return '█'
	default:
		return '▓'
	}
}
