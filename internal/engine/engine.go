// Package engine assembles timeline scenes.
// It threads a dataset through graph building, critical path, layout, windowing,
// connector routing and highlighting, and produces a fully positioned core.Scene.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapline/internal/connector"
	"github.com/leapstack-labs/leapline/internal/critpath"
	"github.com/leapstack-labs/leapline/internal/dag"
	"github.com/leapstack-labs/leapline/internal/interaction"
	"github.com/leapstack-labs/leapline/internal/layout"
	"github.com/leapstack-labs/leapline/internal/metrics"
	"github.com/leapstack-labs/leapline/internal/window"
	"github.com/leapstack-labs/leapline/pkg/core"
)

// ErrNoDataset is returned by Rebuild before a dataset has been set.
var ErrNoDataset = errors.New("no dataset loaded")

// Config holds engine configuration.
type Config struct {
	// Layout holds the layer/scale constants
	Layout layout.Config
	// Connector holds the viewport geometry constants
	Connector connector.Config
	// Thresholds classify execution performance
	Thresholds core.Thresholds
	// Tolerance is the critical path tie tolerance (0 is exact, negative uses critpath.DefaultTolerance)
	Tolerance float64
	// Viewport supplies the drawing surface width (optional, uses Connector.FallbackWidth if nil)
	Viewport connector.ViewportProvider
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// DefaultConfig returns the stock engine configuration.
func DefaultConfig() Config {
	return Config{
		Layout:     layout.DefaultConfig(),
		Connector:  connector.DefaultConfig(),
		Thresholds: core.DefaultThresholds(),
		Tolerance:  critpath.DefaultTolerance,
	}
}

// Timeline owns the resident dataset, the visible window and the interaction
// state of one view. Every setter replaces its value wholesale; Rebuild recomputes
// the whole scene from scratch. A Timeline is not safe for concurrent use.
type Timeline struct {
	cfg    Config
	logger *slog.Logger

	dataset *core.Dataset
	window  *[2]float64
	state   interaction.State
}

// New creates a timeline with no dataset.
func New(cfg Config) *Timeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Timeline{cfg: cfg, logger: logger}
}

// SetDataset replaces the resident dataset.
func (t *Timeline) SetDataset(ds *core.Dataset) {
	t.dataset = ds
	if ds != nil {
		metrics.SetDatasetNodes(len(ds.Records))
	}
}

// Dataset returns the resident dataset.
func (t *Timeline) Dataset() *core.Dataset {
	return t.dataset
}

// SetWindow sets the visible window as percentages of the full extent.
func (t *Timeline) SetWindow(p0, p100 float64) error {
	if err := window.ValidatePercents(p0, p100); err != nil {
		return err
	}
	t.window = &[2]float64{p0, p100}
	return nil
}

// ResetWindow shows the full extent.
func (t *Timeline) ResetWindow() {
	t.window = nil
}

// Window returns the window percentages.
func (t *Timeline) Window() (p0, p100 float64) {
	if t.window == nil {
		return 0, 100
	}
	return t.window[0], t.window[1]
}

// State returns the interaction state.
func (t *Timeline) State() interaction.State {
	return t.state
}

// SetState replaces the interaction state.
func (t *Timeline) SetState(s interaction.State) {
	t.state = s
}

// Hover focuses a node.
func (t *Timeline) Hover(id string) { t.state = t.state.Hover(id) }

// Leave clears the hover focus.
func (t *Timeline) Leave() { t.state = t.state.Leave() }

// Click selects a node.
func (t *Timeline) Click(id string) { t.state = t.state.Click(id) }

// Rebuild recomputes the scene from the resident dataset.
func (t *Timeline) Rebuild() (*core.Scene, error) {
	if t.dataset == nil {
		return nil, ErrNoDataset
	}

	started := time.Now()
	scene, dropped, err := t.build()
	took := time.Since(started)

	switch {
	case err == nil:
		metrics.ObserveRebuild(metrics.ResultOK, took, dropped)
		t.logger.Debug("rebuilt timeline",
			"nodes", len(t.dataset.Records),
			"bars", len(scene.Bars),
			"connectors", len(scene.Connectors),
			"critical_path", scene.CriticalPath.Length,
			"took", took)
	case errors.Is(err, critpath.ErrCyclicDependency):
		metrics.ObserveRebuild(metrics.ResultCycle, took, dropped)
	default:
		metrics.ObserveRebuild(metrics.ResultInvalid, took, dropped)
	}
	return scene, err
}

func (t *Timeline) build() (*core.Scene, int, error) {
	ds := t.dataset
	if err := ds.Validate(); err != nil {
		return nil, 0, fmt.Errorf("invalid dataset: %w", err)
	}

	g := dag.Build(ds.Records)
	dropped := g.DroppedDependencies()
	for _, e := range dropped {
		t.logger.Debug("dropped dangling dependency", "node", e.Target, "dependency", e.Source)
	}

	cp, err := critpath.Compute(g, critpath.Options{Tolerance: t.cfg.Tolerance})
	if err != nil {
		return nil, len(dropped), fmt.Errorf("failed to compute critical path: %w", err)
	}

	records := g.Nodes()
	nodes := make(map[string]core.Node, len(records))
	for _, r := range records {
		nodes[r.ID] = core.NewNode(r, t.cfg.Thresholds.Classify(r), cp.Times[r.ID])
	}

	duration := layout.TimelineDuration(records, t.cfg.Layout)
	lay := layout.Compute(records, duration, t.cfg.Layout)

	win, err := t.visibleWindow(ds, g, lay)
	if err != nil {
		return nil, len(dropped), err
	}

	geo := connector.NewGeometry(t.cfg.Viewport, t.cfg.Connector)
	hl := interaction.Highlight(t.state, g)
	marginTop := t.cfg.Layout.MarginTop

	p0, p100 := win.Percents()
	scene := &core.Scene{
		Width:     geo.Left + geo.Width + t.cfg.Connector.Padding,
		Height:    lay.Height,
		PlotLeft:  geo.Left,
		PlotWidth: geo.Width,
		Duration:  duration,
		Source:    ds.Source,
		Window: core.WindowSummary{
			Start:        win.Visible().Start,
			End:          win.Visible().End,
			StartPercent: p0,
			EndPercent:   p100,
			Zoomed:       win.IsZoomed(),
		},
		CriticalPath: core.CriticalPathSummary{IDs: cp.Path(), Length: cp.Length},
		Focus:        t.state.Focus,

		DroppedDependencies: len(dropped),
	}

	for _, b := range lay.Bands {
		b.Y += marginTop
		scene.Bands = append(scene.Bands, b)
	}

	anchors := make(map[string]connector.Anchor, len(lay.Order))
	for _, id := range lay.Order {
		n := nodes[id]
		rec := n.Record()
		start, end := ds.At(rec.StartTime), ds.At(rec.EndTime())
		if !win.Intersects(start, end) {
			continue
		}
		pos := lay.Positions[id]
		row := win.Clamp(start, end)
		emphasis := hl.Node(id)

		bar := core.Bar{
			ID:           id,
			Name:         rec.Name,
			Label:        core.DisplayName(rec.Name),
			Layer:        rec.Layer,
			X:            pos.X,
			EndX:         pos.EndX,
			Width:        pos.Width,
			Y:            pos.Y + marginTop,
			Start:        row.Start,
			End:          row.End,
			StartPercent: row.StartPercent,
			WidthPercent: row.WidthPercent,
			ViewX:        geo.X(row.StartPercent),
			ViewWidth:    row.WidthPercent / 100 * geo.Width,
			Performance:  n.PerformanceStatus(),
			Color:        n.PerformanceStatus().Color(),
			Critical:     cp.Contains(id),
			Emphasis:     emphasis,
			Opacity:      interaction.Opacity(emphasis),
			Tooltip:      tooltipFor(n, g, cp),
		}
		scene.Bars = append(scene.Bars, bar)
		anchors[id] = connector.Anchor{StartPercent: row.StartPercent, WidthPercent: row.WidthPercent, Y: bar.Y}
	}

	scene.Connectors = connector.Route(g.Edges(), anchors, t.cfg.Viewport, t.cfg.Connector)
	for i := range scene.Connectors {
		c := &scene.Connectors[i]
		c.Critical = cp.OnEdge(c.Source, c.Target)
		c.Emphasis = hl.Edge(c.Source, c.Target)
		c.Stroke = interaction.Stroke(c.Emphasis)
	}

	scene.Ticks = win.Ticks()
	for i := range scene.Ticks {
		scene.Ticks[i].X = geo.X(scene.Ticks[i].Percent)
	}

	if marker := lay.SLAMarker(t.cfg.Layout); marker != nil {
		if pct, ok := win.PercentOf(ds.At(marker.Seconds)); ok {
			scene.SLA = &core.SLAMarker{Seconds: marker.Seconds, X: geo.X(pct)}
		}
	}

	if sel := t.state.Selected; sel != "" {
		if n, ok := nodes[sel]; ok {
			tip := tooltipFor(n, g, cp)
			scene.Selected = &tip
		}
	}

	return scene, len(dropped), nil
}

// visibleWindow derives the full extent from the laid-out records and applies the
// window percentages. Without laid-out records the extent spans the plotted duration.
func (t *Timeline) visibleWindow(ds *core.Dataset, g *dag.Graph, lay *layout.Layout) (window.Window, error) {
	spans := make([]window.Extent, 0, len(lay.Order))
	for _, id := range lay.Order {
		r, _ := g.Node(id)
		spans = append(spans, window.Extent{Start: ds.At(r.StartTime), End: ds.At(r.EndTime())})
	}
	full, ok := window.ExtentOf(spans)
	if !ok {
		full = window.Extent{Start: ds.Origin, End: ds.At(lay.Duration)}
	}

	if t.window == nil {
		return window.New(full), nil
	}
	return window.FromPercent(full, t.window[0], t.window[1])
}

// Options selects the window and interaction state for Render.
type Options struct {
	// Window holds [p0, p100] percentages; nil shows the full extent
	Window   *[2]float64
	Focus    string
	Selected string
}

// Render builds a single scene for ds without keeping a Timeline around.
func Render(ds *core.Dataset, cfg Config, opts Options) (*core.Scene, error) {
	t := New(cfg)
	t.SetDataset(ds)
	if opts.Window != nil {
		if err := t.SetWindow(opts.Window[0], opts.Window[1]); err != nil {
			return nil, err
		}
	}
	t.SetState(interaction.State{Focus: opts.Focus, Selected: opts.Selected})
	return t.Rebuild()
}
