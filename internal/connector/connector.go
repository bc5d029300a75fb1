// Package connector routes dependency curves between timeline bars.
//
// Routing is a pure function of the bar geometry and the viewport width; the
// width is supplied through a ViewportProvider so callers decide where it comes from.
package connector

import (
	"math"

	"github.com/leapstack-labs/leapline/pkg/core"
)

// ViewportProvider reports the current width of the drawing surface in pixels.
type ViewportProvider interface {
	Width() float64
}

// FixedViewport is a ViewportProvider with a constant width.
type FixedViewport float64

// Width implements ViewportProvider.
func (v FixedViewport) Width() float64 { return float64(v) }

// Config holds the viewport geometry constants.
type Config struct {
	LabelColumn   float64 `koanf:"label_column"`
	Padding       float64 `koanf:"padding"`
	FallbackWidth float64 `koanf:"fallback_width"`
	MaxCurve      float64 `koanf:"max_curve"`
	CurveRatio    float64 `koanf:"curve_ratio"`
	BendRatio     float64 `koanf:"bend_ratio"`
}

// DefaultConfig returns the stock router geometry.
func DefaultConfig() Config {
	return Config{
		LabelColumn:   320,
		Padding:       16,
		FallbackWidth: 800,
		MaxCurve:      100,
		CurveRatio:    0.4,
		BendRatio:     0.2,
	}
}

// Geometry maps window percentages to viewport pixels.
type Geometry struct {
	Left  float64
	Width float64
}

// NewGeometry derives the plot area from the viewport. The plot starts after the
// label column and padding; a non-positive viewport uses cfg.FallbackWidth.
func NewGeometry(vp ViewportProvider, cfg Config) Geometry {
	total := 0.0
	if vp != nil {
		total = vp.Width()
	}
	if total <= 0 {
		total = cfg.FallbackWidth
	}
	return Geometry{
		Left:  cfg.LabelColumn + cfg.Padding,
		Width: math.Max(0, total-cfg.LabelColumn-2*cfg.Padding),
	}
}

// X converts a window percentage to an x coordinate.
func (g Geometry) X(percent float64) float64 {
	return g.Left + percent/100*g.Width
}

// Anchor is the windowed geometry of one bar.
type Anchor struct {
	StartPercent float64
	WidthPercent float64
	// Y is the vertical center of the bar's row.
	Y float64
}

// Route computes a connector for every edge whose endpoints both have anchors.
// The curve leaves the right edge of the dependency bar and enters the left edge
// of the dependent bar.
func Route(edges []core.Edge, anchors map[string]Anchor, vp ViewportProvider, cfg Config) []core.Connector {
	geo := NewGeometry(vp, cfg)
	out := make([]core.Connector, 0, len(edges))
	for _, e := range edges {
		src, ok := anchors[e.Source]
		if !ok {
			continue
		}
		dst, ok := anchors[e.Target]
		if !ok {
			continue
		}

		start := core.Point{X: geo.X(src.StartPercent + src.WidthPercent), Y: src.Y}
		end := core.Point{X: geo.X(dst.StartPercent), Y: dst.Y}
		h := math.Min(math.Abs(end.X-start.X)*cfg.CurveRatio, cfg.MaxCurve)
		v := math.Abs(end.Y-start.Y) * cfg.BendRatio

		out = append(out, core.Connector{
			Source: e.Source,
			Target: e.Target,
			Layer:  e.Layer,
			Start:  start,
			C1:     core.Point{X: start.X + h, Y: start.Y + v},
			C2:     core.Point{X: end.X - h, Y: end.Y - v},
			End:    end,
		})
	}
	return out
}
