// Package layout assigns timeline geometry to execution records.
//
// Non-source records are stacked in layer bands (staging, intermediate, marts)
// and placed horizontally on a linear time scale.
package layout

import (
	"math"
	"sort"

	"github.com/leapstack-labs/leapline/pkg/core"
)

// Config holds layout constants.
type Config struct {
	PlotWidth       float64 `koanf:"plot_width"`
	MarginTop       float64 `koanf:"margin_top"`
	MarginBottom    float64 `koanf:"margin_bottom"`
	MinLayerHeight  float64 `koanf:"min_layer_height"`
	RowPitch        float64 `koanf:"row_pitch"`
	LayerPadding    float64 `koanf:"layer_padding"`
	MinBarWidth     float64 `koanf:"min_bar_width"`
	DefaultDuration float64 `koanf:"default_duration"`
	DurationFactor  float64 `koanf:"duration_factor"`
	DurationMargin  float64 `koanf:"duration_margin"`
	SLAThreshold    float64 `koanf:"sla_threshold"`
}

// DefaultConfig returns the stock layout: a 1400px surface with a 150px label
// gutter and 50px right margin leaves 1200px of plot.
func DefaultConfig() Config {
	return Config{
		PlotWidth:       1200,
		MarginTop:       60,
		MarginBottom:    50,
		MinLayerHeight:  100,
		RowPitch:        50,
		LayerPadding:    50,
		MinBarWidth:     2,
		DefaultDuration: 30,
		DurationFactor:  1.1,
		DurationMargin:  2,
		SLAThreshold:    20,
	}
}

// Position is the geometry of one laid-out record.
type Position struct {
	X     float64
	EndX  float64
	Width float64
	Y     float64
	// Index is the record's slot within its layer.
	Index int
}

// Layout is the result of Compute.
type Layout struct {
	Positions map[string]Position
	// Order lists positioned ids, top to bottom.
	Order    []string
	Bands    []core.Band
	Height   float64
	Duration float64
	Scale    Scale
}

// TimelineDuration returns the time span the plot covers: the latest non-source
// end time with a margin, or cfg.DefaultDuration when there are no such records.
func TimelineDuration(records []core.ExecutionRecord, cfg Config) float64 {
	maxEnd, found := 0.0, false
	for _, r := range records {
		if r.Layer == core.LayerSource {
			continue
		}
		maxEnd = math.Max(maxEnd, r.EndTime())
		found = true
	}
	if !found {
		return cfg.DefaultDuration
	}
	return math.Max(maxEnd*cfg.DurationFactor, maxEnd+cfg.DurationMargin)
}

// Compute lays out records over [0, duration].
func Compute(records []core.ExecutionRecord, duration float64, cfg Config) *Layout {
	scale := NewScale(0, duration, 0, cfg.PlotWidth)
	out := &Layout{
		Positions: make(map[string]Position, len(records)),
		Duration:  duration,
		Scale:     scale,
	}

	byLayer := make(map[core.Layer][]core.ExecutionRecord)
	for _, r := range records {
		if r.Layer == core.LayerSource {
			continue
		}
		byLayer[r.Layer] = append(byLayer[r.Layer], r)
	}

	baseY := 0.0
	for _, layer := range core.PlottedLayers {
		rows := byLayer[layer]
		n := len(rows)
		if n == 0 {
			continue
		}
		height := math.Max(cfg.MinLayerHeight, float64(n)*cfg.RowPitch+cfg.LayerPadding)
		spacing := height / float64(n+1)

		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].StartTime != rows[j].StartTime {
				return rows[i].StartTime < rows[j].StartTime
			}
			return rows[i].ID < rows[j].ID
		})

		for i, r := range rows {
			x := scale.Map(r.StartTime)
			endX := scale.Map(r.EndTime())
			out.Positions[r.ID] = Position{
				X:     x,
				EndX:  endX,
				Width: math.Max(cfg.MinBarWidth, endX-x),
				Y:     baseY + spacing*float64(i+1),
				Index: i,
			}
			out.Order = append(out.Order, r.ID)
		}

		out.Bands = append(out.Bands, core.Band{
			Layer:  layer,
			Y:      baseY,
			Height: height,
			Count:  n,
			Color:  LayerColor(layer),
		})
		baseY += height
	}

	out.Height = baseY + cfg.MarginTop + cfg.MarginBottom
	return out
}

// SLAMarker returns the SLA line when the threshold falls inside the plotted duration.
func (l *Layout) SLAMarker(cfg Config) *core.SLAMarker {
	if cfg.SLAThreshold <= 0 || cfg.SLAThreshold > l.Duration {
		return nil
	}
	return &core.SLAMarker{Seconds: cfg.SLAThreshold, X: l.Scale.Map(cfg.SLAThreshold)}
}

// LayerColor returns the band color of a layer.
func LayerColor(l core.Layer) string {
	switch l {
	case core.LayerStaging:
		return "#0dcaf0"
	case core.LayerIntermediate:
		return "#198754"
	case core.LayerMarts:
		return "#ffc107"
	default:
		return "#6c757d"
	}
}
