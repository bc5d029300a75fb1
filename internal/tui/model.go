// Package tui is a terminal timeline viewer. It keeps one engine.Timeline and
// redraws the scene as a Gantt chart after every key press.
package tui

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/leapstack-labs/leapline/internal/engine"
	"github.com/leapstack-labs/leapline/internal/layout"
	"github.com/leapstack-labs/leapline/internal/render"
	"github.com/leapstack-labs/leapline/pkg/core"
)

const (
	labelWidth  = 24
	minCols     = 20
	defaultCols = 60
	// minSpan is the narrowest window, in percent of the full extent.
	minSpan  = 5.0
	panRatio = 0.25
	// chrome is the number of lines around the chart body.
	chrome = 8
)

type styles struct {
	title    lipgloss.Style
	muted    lipgloss.Style
	cursor   lipgloss.Style
	critical lipgloss.Style
	errText  lipgloss.Style
	label    lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("#808080")),
		cursor:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5FAFFF")),
		critical: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#DC2626")),
		errText:  lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")),
		label:    lipgloss.NewStyle().Bold(true),
	}
}

// Model is the bubbletea model of the viewer.
type Model struct {
	timeline *engine.Timeline
	scene    *core.Scene
	err      error

	// cursor is the id of the model under the cursor
	cursor string

	width  int
	height int

	keys   keyMap
	help   help.Model
	styles styles
}

// New creates a viewer over ds.
func New(ds *core.Dataset, cfg engine.Config) Model {
	t := engine.New(cfg)
	t.SetDataset(ds)

	m := Model{
		timeline: t,
		keys:     defaultKeyMap(),
		help:     help.New(),
		styles:   defaultStyles(),
	}
	m.rebuild()
	if m.scene != nil && len(m.scene.Bars) > 0 {
		m.cursor = m.scene.Bars[0].ID
	}
	return m
}

// Run starts the viewer full screen and blocks until it quits.
func Run(ctx context.Context, ds *core.Dataset, cfg engine.Config, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	_, err := tea.NewProgram(New(ds, cfg), opts...).Run()
	return err
}

// Scene returns the last rebuilt scene.
func (m Model) Scene() *core.Scene { return m.scene }

// Err returns the last rebuild error.
func (m Model) Err() error { return m.err }

// Cursor returns the id of the model under the cursor.
func (m Model) Cursor() string { return m.cursor }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Up):
			m.move(-1)
		case key.Matches(msg, m.keys.Down):
			m.move(1)
		case key.Matches(msg, m.keys.Select):
			if m.cursor != "" {
				m.timeline.Click(m.cursor)
				m.rebuild()
			}
		case key.Matches(msg, m.keys.Unfocus):
			m.timeline.Leave()
			m.rebuild()
		case key.Matches(msg, m.keys.ZoomIn):
			m.setWindow(zoom(m.timeline.Window()))
		case key.Matches(msg, m.keys.ZoomOut):
			p0, p1 := m.timeline.Window()
			m.setWindow(zoomBy(p0, p1, 2))
		case key.Matches(msg, m.keys.Left):
			p0, p1 := m.timeline.Window()
			m.setWindow(pan(p0, p1, -(p1-p0)*panRatio))
		case key.Matches(msg, m.keys.Right):
			p0, p1 := m.timeline.Window()
			m.setWindow(pan(p0, p1, (p1-p0)*panRatio))
		case key.Matches(msg, m.keys.Reset):
			m.timeline.ResetWindow()
			m.rebuild()
		}
	}
	return m, nil
}

// move shifts the cursor by delta rows and focuses the model under it.
func (m *Model) move(delta int) {
	if m.scene == nil || len(m.scene.Bars) == 0 {
		return
	}
	i := m.cursorIndex() + delta
	i = max(0, min(i, len(m.scene.Bars)-1))
	m.cursor = m.scene.Bars[i].ID
	m.timeline.Hover(m.cursor)
	m.rebuild()
}

func (m *Model) setWindow(p0, p1 float64) {
	if err := m.timeline.SetWindow(p0, p1); err != nil {
		m.err = err
		return
	}
	m.rebuild()
}

func (m *Model) rebuild() {
	scene, err := m.timeline.Rebuild()
	m.err = err
	if err == nil {
		m.scene = scene
	}
}

func (m Model) cursorIndex() int {
	for i, b := range m.scene.Bars {
		if b.ID == m.cursor {
			return i
		}
	}
	return 0
}

// zoom halves the window around its centre.
func zoom(p0, p1 float64) (float64, float64) {
	return zoomBy(p0, p1, 0.5)
}

// zoomBy scales the window span by factor around its centre, keeping it
// within [minSpan, 100] and inside the full extent.
func zoomBy(p0, p1, factor float64) (float64, float64) {
	span := math.Min(100, math.Max(minSpan, (p1-p0)*factor))
	return clampWindow((p0+p1)/2-span/2, span)
}

// pan shifts the window by delta percent without leaving the full extent.
func pan(p0, p1, delta float64) (float64, float64) {
	return clampWindow(p0+delta, p1-p0)
}

func clampWindow(start, span float64) (float64, float64) {
	start = math.Max(0, math.Min(start, 100-span))
	return start, start + span
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	s := m.styles

	b.WriteString(s.title.Render("Execution Timeline"))
	if m.scene != nil && m.scene.Source != "" {
		b.WriteString(s.muted.Render("  " + m.scene.Source))
	}
	b.WriteString("\n")

	if m.scene == nil {
		b.WriteString(s.errText.Render(fmt.Sprintf("Cannot draw the timeline: %v", m.err)))
		b.WriteString("\n\n" + m.help.View(m.keys) + "\n")
		return b.String()
	}

	b.WriteString(s.muted.Render(windowLine(m.scene)))
	b.WriteString("\n\n")

	cols := m.cols()
	rows := render.Gantt(m.scene, cols)
	top, bottom := m.visibleRows(len(rows))
	for _, row := range rows[top:bottom] {
		b.WriteString(m.renderRow(row, cols))
		b.WriteString("\n")
	}
	if bottom-top < len(rows) {
		b.WriteString(s.muted.Render(fmt.Sprintf("  rows %d-%d of %d", top+1, bottom, len(rows))))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(s.critical.Render("Critical path: "))
	b.WriteString(strings.Join(m.scene.CriticalPath.IDs, " → "))
	b.WriteString(s.muted.Render(fmt.Sprintf("  (%.2fs)", m.scene.CriticalPath.Length)))
	b.WriteString("\n")

	if t := m.scene.Selected; t != nil {
		b.WriteString(m.renderDetails(t))
	}
	if m.err != nil {
		b.WriteString(s.errText.Render(m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

func (m Model) cols() int {
	if m.width == 0 {
		return defaultCols
	}
	return max(minCols, m.width-labelWidth-16)
}

// visibleRows returns the window of rows that fits the terminal and keeps the
// cursor in view.
func (m Model) visibleRows(n int) (int, int) {
	if m.height == 0 {
		return 0, n
	}
	body := max(3, m.height-chrome)
	if m.scene.Selected != nil {
		body = max(3, body-3)
	}
	if n <= body {
		return 0, n
	}
	top := m.cursorIndex() - body/2
	top = max(0, min(top, n-body))
	return top, top + body
}

func (m Model) renderRow(row render.GanttRow, cols int) string {
	s := m.styles
	bar := row.Bar

	marker := "  "
	if bar.ID == m.cursor {
		marker = s.cursor.Render("› ")
	}

	name := fmt.Sprintf("%-*s", labelWidth, truncate(bar.Name, labelWidth))
	label := lipgloss.NewStyle().Foreground(lipgloss.Color(layout.LayerColor(bar.Layer))).Render(name)
	if bar.Critical {
		label = s.critical.Render(name)
	}
	if bar.Emphasis == core.EmphasisDimmed {
		label = s.muted.Render(name)
	}

	track := row.Line(cols, render.Fill(bar))
	if bar.Emphasis != core.EmphasisDimmed {
		track = lipgloss.NewStyle().Foreground(lipgloss.Color(bar.Performance.Color())).Render(track)
	} else {
		track = s.muted.Render(track)
	}
	return fmt.Sprintf("%s%s │%s│ %s", marker, label, track, s.muted.Render(fmt.Sprintf("%6.2fs", bar.Tooltip.ExecutionTime)))
}

func (m Model) renderDetails(t *core.Tooltip) string {
	s := m.styles
	var b strings.Builder
	b.WriteString(s.label.Render(t.Name))
	b.WriteString(s.muted.Render(fmt.Sprintf("  %s · %s", t.Layer.Title(), t.Performance)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %.2fs (avg %.2fs %s)  rows %s  cost %s\n", t.ExecutionTime, t.AverageTime, t.Trend, t.Rows, t.Cost)
	deps := "none"
	if len(t.Dependencies) > 0 {
		deps = strings.Join(t.Dependencies, ", ")
	}
	users := "none"
	if len(t.Dependents) > 0 {
		users = strings.Join(t.Dependents, ", ")
	}
	fmt.Fprintf(&b, "  depends on %s · used by %s\n", deps, users)
	return b.String()
}

func windowLine(scene *core.Scene) string {
	w := scene.Window
	line := fmt.Sprintf("%s – %s", w.Start.Format("15:04:05"), w.End.Format("15:04:05"))
	if w.Zoomed {
		line += fmt.Sprintf("  (%.0f%%–%.0f%%)", w.StartPercent, w.EndPercent)
	}
	return line
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
