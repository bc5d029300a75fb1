package core

import (
	"fmt"
	"time"
)

// Emphasis is the interaction state of a bar, label or connector.
type Emphasis string

// Emphasis constants.
const (
	// EmphasisNone means nothing is focused.
	EmphasisNone Emphasis = "none"
	// EmphasisHighlighted marks the focused node and its one-hop neighbours.
	EmphasisHighlighted Emphasis = "highlighted"
	// EmphasisDimmed marks everything else while a node is focused.
	EmphasisDimmed Emphasis = "dimmed"
)

// Point is a position in scene pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke describes how a connector is drawn.
type Stroke struct {
	Width   float64 `json:"width"`
	Dash    string  `json:"dash,omitempty"` // SVG dasharray, empty for solid
	Opacity float64 `json:"opacity"`
}

// Tooltip is the hover/detail payload for a node.
type Tooltip struct {
	Name          string            `json:"name"`
	Layer         Layer             `json:"layer"`
	Status        string            `json:"status,omitempty"`
	Performance   PerformanceStatus `json:"performance"`
	ExecutionTime float64           `json:"executionTime"`
	AverageTime   float64           `json:"averageTime"`
	Trend         string            `json:"trend"`
	Rows          string            `json:"rows"`
	Cost          string            `json:"cost"`
	Dependencies  []string          `json:"dependencies"`
	Dependents    []string          `json:"dependents"`
	Description   string            `json:"description,omitempty"`
	Critical      bool              `json:"critical"`
	History       []float64         `json:"history,omitempty"`
}

// Bar is one positioned execution on the timeline.
type Bar struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Label string `json:"label"`
	Layer Layer  `json:"layer"`

	// X, EndX, Width and Y are full-timeline layout coordinates.
	X     float64 `json:"x"`
	EndX  float64 `json:"endX"`
	Width float64 `json:"width"`
	Y     float64 `json:"y"`

	// Start and End are the displayed (window-clamped) times.
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	StartPercent float64   `json:"startPercent"`
	WidthPercent float64   `json:"widthPercent"`
	// ViewX and ViewWidth place the bar in the windowed viewport, in pixels.
	ViewX     float64 `json:"viewX"`
	ViewWidth float64 `json:"viewWidth"`

	Performance PerformanceStatus `json:"performance"`
	Color       string            `json:"color"`
	Critical    bool              `json:"critical"`
	Emphasis    Emphasis          `json:"emphasis"`
	Opacity     float64           `json:"opacity"`
	Tooltip     Tooltip           `json:"tooltip"`
}

// Connector is a routed dependency curve between two bars.
type Connector struct {
	Source   string   `json:"source"`
	Target   string   `json:"target"`
	Layer    Layer    `json:"layer"`
	Start    Point    `json:"start"`
	C1       Point    `json:"c1"`
	C2       Point    `json:"c2"`
	End      Point    `json:"end"`
	Critical bool     `json:"critical"`
	Emphasis Emphasis `json:"emphasis"`
	Stroke   Stroke   `json:"stroke"`
}

// PathData renders the connector as an SVG cubic Bézier path.
func (c Connector) PathData() string {
	return fmt.Sprintf("M %.2f %.2f C %.2f %.2f, %.2f %.2f, %.2f %.2f",
		c.Start.X, c.Start.Y, c.C1.X, c.C1.Y, c.C2.X, c.C2.Y, c.End.X, c.End.Y)
}

// Tick is a time-axis label inside the visible window.
type Tick struct {
	Time    time.Time `json:"time"`
	Percent float64   `json:"percent"`
	X       float64   `json:"x"`
	Label   string    `json:"label"`
}

// Band is the background strip of one layer.
type Band struct {
	Layer  Layer   `json:"layer"`
	Y      float64 `json:"y"`
	Height float64 `json:"height"`
	Count  int     `json:"count"`
	Color  string  `json:"color"`
}

// SLAMarker is the vertical SLA threshold line.
type SLAMarker struct {
	Seconds float64 `json:"seconds"`
	X       float64 `json:"x"`
}

// CriticalPathSummary describes the longest dependency chain.
type CriticalPathSummary struct {
	IDs    []string `json:"ids"`
	Length float64  `json:"length"`
}

// WindowSummary describes the visible time range.
type WindowSummary struct {
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	StartPercent float64   `json:"startPercent"`
	EndPercent   float64   `json:"endPercent"`
	Zoomed       bool      `json:"zoomed"`
}

// Scene is everything a renderer needs to draw one timeline frame.
type Scene struct {
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	PlotLeft  float64 `json:"plotLeft"`
	PlotWidth float64 `json:"plotWidth"`
	Duration  float64 `json:"duration"`
	Source    string  `json:"source,omitempty"`

	Window       WindowSummary       `json:"window"`
	Bands        []Band              `json:"bands"`
	Bars         []Bar               `json:"bars"`
	Connectors   []Connector         `json:"connectors"`
	Ticks        []Tick              `json:"ticks"`
	SLA          *SLAMarker          `json:"sla,omitempty"`
	CriticalPath CriticalPathSummary `json:"criticalPath"`
	Focus        string              `json:"focus,omitempty"`
	Selected     *Tooltip            `json:"selected,omitempty"`

	DroppedDependencies int `json:"droppedDependencies"`
}

// Bar returns the bar with the given id.
func (s *Scene) Bar(id string) (Bar, bool) {
	for _, b := range s.Bars {
		if b.ID == id {
			return b, true
		}
	}
	return Bar{}, false
}
