// Package render draws timeline scenes as SVG documents and terminal Gantt rows.
package render

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/leapstack-labs/leapline/internal/layout"
	"github.com/leapstack-labs/leapline/pkg/core"
)

// BarHeight is the drawn height of a bar, centred on its row.
const BarHeight = 20

const criticalStroke = "#dc3545"

// SVG returns a component that draws scene as a standalone SVG element.
// Bars and connectors carry data-id/data-source/data-target attributes so that
// the browser can route hover and click events back to the server.
func SVG(scene *core.Scene) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		sw := &svgWriter{w: w}
		sw.printf(`<svg xmlns="http://www.w3.org/2000/svg" id="timeline-svg" class="timeline" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">`,
			scene.Width, scene.Height, scene.Width, scene.Height)
		sw.printf(`<defs><marker id="arrow" viewBox="0 0 10 10" refX="9" refY="5" markerWidth="6" markerHeight="6" orient="auto-start-reverse"><path d="M 0 0 L 10 5 L 0 10 z" fill="context-stroke"/></marker></defs>`)

		writeBands(sw, scene)
		writeTicks(sw, scene)
		writeConnectors(sw, scene)
		writeBars(sw, scene)
		writeSLA(sw, scene)

		sw.printf(`</svg>`)
		return sw.err
	})
}

// Document renders scene to a complete SVG string.
func Document(ctx context.Context, scene *core.Scene) (string, error) {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	if err := SVG(scene).Render(ctx, &b); err != nil {
		return "", err
	}
	b.WriteString("\n")
	return b.String(), nil
}

type svgWriter struct {
	w   io.Writer
	err error
}

func (s *svgWriter) printf(format string, a ...any) {
	if s.err != nil {
		return
	}
	_, s.err = fmt.Fprintf(s.w, format, a...)
}

func esc(s string) string { return templ.EscapeString(s) }

func writeBands(sw *svgWriter, scene *core.Scene) {
	sw.printf(`<g class="bands">`)
	for _, b := range scene.Bands {
		sw.printf(`<rect class="band band-%s" x="0" y="%.2f" width="%.2f" height="%.2f" fill="%s" fill-opacity="0.08"/>`,
			esc(string(b.Layer)), b.Y, scene.Width, b.Height, esc(b.Color))
		sw.printf(`<text class="band-label" x="8" y="%.2f" fill="%s" font-weight="bold">%s (%d)</text>`,
			b.Y+18, esc(b.Color), esc(b.Layer.Title()), b.Count)
	}
	sw.printf(`</g>`)
}

func writeTicks(sw *svgWriter, scene *core.Scene) {
	sw.printf(`<g class="axis">`)
	for _, t := range scene.Ticks {
		sw.printf(`<line x1="%.2f" y1="0" x2="%.2f" y2="%.2f" stroke="#dee2e6" stroke-dasharray="2,4"/>`, t.X, t.X, scene.Height)
		sw.printf(`<text class="tick" x="%.2f" y="16" text-anchor="middle" font-size="11">%s</text>`, t.X, esc(t.Label))
	}
	sw.printf(`</g>`)
}

func writeConnectors(sw *svgWriter, scene *core.Scene) {
	sw.printf(`<g class="connectors" fill="none">`)
	for _, c := range scene.Connectors {
		color := layout.LayerColor(c.Layer)
		if c.Critical {
			color = criticalStroke
		}
		dash := ""
		if c.Stroke.Dash != "" {
			dash = fmt.Sprintf(` stroke-dasharray="%s"`, esc(c.Stroke.Dash))
		}
		sw.printf(`<path class="connector %s" data-source="%s" data-target="%s" d="%s" stroke="%s" stroke-width="%.2f" stroke-opacity="%.2f"%s marker-end="url(#arrow)"/>`,
			esc(string(c.Emphasis)), esc(c.Source), esc(c.Target), c.PathData(), color, c.Stroke.Width, c.Stroke.Opacity, dash)
	}
	sw.printf(`</g>`)
}

func writeBars(sw *svgWriter, scene *core.Scene) {
	sw.printf(`<g class="bars">`)
	for _, b := range scene.Bars {
		class := "bar " + string(b.Emphasis)
		stroke := ""
		if b.Critical {
			class += " critical"
			stroke = fmt.Sprintf(` stroke="%s" stroke-width="2"`, criticalStroke)
		}
		sw.printf(`<g class="%s" data-id="%s" opacity="%.2f">`, esc(class), esc(b.ID), b.Opacity)
		sw.printf(`<title>%s</title>`, esc(tooltipText(b.Tooltip)))
		sw.printf(`<rect x="%.2f" y="%.2f" width="%.2f" height="%d" rx="3" fill="%s"%s/>`,
			b.ViewX, b.Y-BarHeight/2, b.ViewWidth, BarHeight, esc(b.Color), stroke)
		sw.printf(`<text class="bar-label" x="%.2f" y="%.2f" font-size="12">%s</text>`,
			scene.PlotLeft-8, b.Y+4, esc(b.Label))
		sw.printf(`</g>`)
	}
	sw.printf(`</g>`)
}

func writeSLA(sw *svgWriter, scene *core.Scene) {
	if scene.SLA == nil {
		return
	}
	sw.printf(`<g class="sla"><line x1="%.2f" y1="0" x2="%.2f" y2="%.2f" stroke="#dc3545" stroke-dasharray="6,4"/>`,
		scene.SLA.X, scene.SLA.X, scene.Height)
	sw.printf(`<text x="%.2f" y="30" fill="#dc3545" font-size="11">SLA %.0fs</text></g>`, scene.SLA.X+4, scene.SLA.Seconds)
}

func tooltipText(t core.Tooltip) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", t.Name, t.Layer.Title())
	fmt.Fprintf(&b, "Execution: %.2fs, avg %.2fs %s\n", t.ExecutionTime, t.AverageTime, t.Trend)
	fmt.Fprintf(&b, "Performance: %s", t.Performance)
	if t.Critical {
		b.WriteString(", critical path")
	}
	if t.Rows != "" {
		fmt.Fprintf(&b, "\nRows: %s", t.Rows)
	}
	if t.Cost != "" {
		fmt.Fprintf(&b, "\nCost: %s", t.Cost)
	}
	return b.String()
}
