package config

import (
	"github.com/leapstack-labs/leapline/internal/connector"
	"github.com/leapstack-labs/leapline/internal/critpath"
	"github.com/leapstack-labs/leapline/internal/layout"
	"github.com/leapstack-labs/leapline/pkg/core"
)

// Defaults returns the flat default key map loaded before any other source.
func Defaults() map[string]interface{} {
	lay := layout.DefaultConfig()
	conn := connector.DefaultConfig()
	th := core.DefaultThresholds()

	return map[string]interface{}{
		"source.kind":     DefaultSourceKind,
		"source.schema":   DefaultArtifactsSchema,
		"source.timeout":  DefaultSourceTimeout.String(),
		"source.fallback": true,
		"state_path":      DefaultStateFile,
		"verbose":         false,
		"output":          DefaultOutput,

		"layout.plot_width":       lay.PlotWidth,
		"layout.margin_top":       lay.MarginTop,
		"layout.margin_bottom":    lay.MarginBottom,
		"layout.min_layer_height": lay.MinLayerHeight,
		"layout.row_pitch":        lay.RowPitch,
		"layout.layer_padding":    lay.LayerPadding,
		"layout.min_bar_width":    lay.MinBarWidth,
		"layout.default_duration": lay.DefaultDuration,
		"layout.duration_factor":  lay.DurationFactor,
		"layout.duration_margin":  lay.DurationMargin,
		"layout.sla_threshold":    lay.SLAThreshold,

		"viewport.width":          DefaultViewportWidth,
		"viewport.label_column":   conn.LabelColumn,
		"viewport.padding":        conn.Padding,
		"viewport.fallback_width": conn.FallbackWidth,
		"viewport.max_curve":      conn.MaxCurve,
		"viewport.curve_ratio":    conn.CurveRatio,
		"viewport.bend_ratio":     conn.BendRatio,

		"performance.slow_threshold":     th.Slow,
		"performance.critical_threshold": th.Critical,
		"performance.fast_ratio":         th.FastRatio,

		"critical_path.tolerance": critpath.DefaultTolerance,

		"ui.port":  DefaultPort,
		"ui.watch": true,
	}
}
