package timeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/leapstack-labs/leapline/internal/critpath"
	"github.com/leapstack-labs/leapline/internal/render"
	"github.com/leapstack-labs/leapline/internal/ui/resources"
	"github.com/leapstack-labs/leapline/pkg/core"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"

// PageData is what the timeline page renders.
type PageData struct {
	Scene *core.Scene
	Err   error
	View  View
	IsDev bool
}

type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) printf(format string, a ...any) {
	if h.err != nil {
		return
	}
	_, h.err = fmt.Fprintf(h.w, format, a...)
}

func (h *htmlWriter) component(ctx context.Context, c templ.Component) {
	if h.err != nil {
		return
	}
	h.err = c.Render(ctx, h.w)
}

func esc(s string) string { return templ.EscapeString(s) }

// Page renders the full timeline page.
func Page(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		start, end := data.View.Percents()

		hw.printf(`<!doctype html><html lang="en"><head><meta charset="utf-8">`)
		hw.printf(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		hw.printf(`<title>Execution Timeline - LeapLine</title>`)
		hw.printf(`<link rel="stylesheet" href="%s">`, resources.StaticPath("timeline.css"))
		hw.printf(`<script type="module" src="%s"></script>`, datastarScript)
		hw.printf(`</head><body>`)
		if data.IsDev {
			hw.printf(`<div data-init="@get('/reload')"></div>`)
		}

		hw.printf(`<main id="app" data-signals="{action: '', id: '', start: %g, end: %g}" data-init="@get('/timeline/updates')">`, start, end)
		hw.printf(`<header class="toolbar"><h1>Execution Timeline</h1>`)
		hw.printf(`<label>Start <input type="range" min="0" max="100" step="1" data-bind:start data-on:change="$action = 'window'; @post('/timeline/interact')"></label>`)
		hw.printf(`<label>End <input type="range" min="0" max="100" step="1" data-bind:end data-on:change="$action = 'window'; @post('/timeline/interact')"></label>`)
		hw.printf(`<button type="button" data-on:click="$action = 'reset'; $start = 0; $end = 100; @post('/timeline/interact')">Reset</button>`)
		hw.printf(`</header>`)

		hw.printf(`<section id="timeline-host"`)
		hw.printf(` data-on:mouseover__debounce.100ms="$id = evt.target.closest('[data-id]')?.dataset.id ?? ''; $action = $id ? 'hover' : 'leave'; @post('/timeline/interact')"`)
		hw.printf(` data-on:mouseleave="$action = 'leave'; @post('/timeline/interact')"`)
		hw.printf(` data-on:click="$id = evt.target.closest('[data-id]')?.dataset.id ?? ''; $id && ($action = 'click', @post('/timeline/interact'))">`)
		if data.Err != nil {
			hw.component(ctx, ErrorView(data.Err))
		} else {
			hw.component(ctx, TimelineView(data.Scene))
		}
		hw.printf(`</section></main></body></html>`)
		return hw.err
	})
}

// TimelineView renders the patchable part of the page: the SVG, the critical
// path summary and the selected model's details.
func TimelineView(scene *core.Scene) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.printf(`<div id="timeline-view">`)
		hw.printf(`<p class="summary">%s to %s`, scene.Window.Start.Format("15:04:05"), scene.Window.End.Format("15:04:05"))
		if scene.Window.Zoomed {
			hw.printf(` (%.0f%% to %.0f%%)`, scene.Window.StartPercent, scene.Window.EndPercent)
		}
		hw.printf(` · critical path <strong>%s</strong> (%.2fs)</p>`,
			esc(strings.Join(scene.CriticalPath.IDs, " → ")), scene.CriticalPath.Length)
		if scene.DroppedDependencies > 0 {
			hw.printf(`<p class="warning">%d dependencies reference unknown models and were ignored</p>`, scene.DroppedDependencies)
		}

		hw.printf(`<div class="chart">`)
		hw.component(ctx, render.SVG(scene))
		hw.printf(`</div>`)

		if t := scene.Selected; t != nil {
			writeDetails(hw, t)
		}
		hw.printf(`</div>`)
		return hw.err
	})
}

func writeDetails(hw *htmlWriter, t *core.Tooltip) {
	hw.printf(`<aside id="details" class="details"><h2>%s</h2><dl>`, esc(t.Name))
	row := func(k, v string) {
		if v != "" {
			hw.printf(`<dt>%s</dt><dd>%s</dd>`, k, esc(v))
		}
	}
	row("Layer", t.Layer.Title())
	row("Status", t.Status)
	row("Execution", fmt.Sprintf("%.2fs (avg %.2fs %s)", t.ExecutionTime, t.AverageTime, t.Trend))
	row("Performance", string(t.Performance))
	row("Rows", t.Rows)
	row("Cost", t.Cost)
	row("Depends on", strings.Join(t.Dependencies, ", "))
	row("Used by", strings.Join(t.Dependents, ", "))
	row("Description", t.Description)
	if t.Critical {
		row("Critical path", "yes")
	}
	hw.printf(`</dl></aside>`)
}

// ErrorView replaces the timeline when the scene cannot be built.
func ErrorView(err error) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.printf(`<div id="timeline-view" class="error"><h2>Cannot draw the timeline</h2><p>%s</p>`, esc(err.Error()))
		var cycle *critpath.CycleError
		if errors.As(err, &cycle) {
			hw.printf(`<p class="cycle">%s</p>`, esc(strings.Join(cycle.Path, " → ")))
		}
		hw.printf(`</div>`)
		return hw.err
	})
}
