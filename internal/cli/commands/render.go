package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapline/internal/cli/config"
	"github.com/leapstack-labs/leapline/internal/cli/output"
	"github.com/leapstack-labs/leapline/internal/engine"
	"github.com/leapstack-labs/leapline/internal/render"
	"github.com/leapstack-labs/leapline/pkg/core"
)

// RenderOptions holds options for the render command.
type RenderOptions struct {
	Start    float64
	End      float64
	Focus    string
	Selected string
	SVG      string
	Columns  int
}

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	opts := &RenderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the execution timeline",
		Long: `Lay out the loaded executions on a timeline and render the scene.

The window flags zoom into a slice of the full run, given as percentages
of the full extent. Focus and selection emphasize a model and its direct
neighbours the same way hovering and clicking do in the UI.

Output adapts to environment:
  - Terminal: Gantt chart with colors
  - Piped/Scripted: Markdown format (agent-friendly)
  - --output json: the full scene (bars, connectors, ticks)`,
		Example: `  # Render the demo pipeline
  leapline render

  # Zoom into the second half and focus a model
  leapline render --start 50 --end 100 --focus fct_orders

  # Write an SVG document
  leapline render --svg timeline.svg

  # Full scene as JSON
  leapline render --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(cmd, opts)
		},
	}

	cmd.Flags().Float64Var(&opts.Start, "start", 0, "Window start, percent of the full extent")
	cmd.Flags().Float64Var(&opts.End, "end", 100, "Window end, percent of the full extent")
	cmd.Flags().StringVar(&opts.Focus, "focus", "", "Model to emphasize with its neighbours")
	cmd.Flags().StringVar(&opts.Selected, "selected", "", "Model whose details to show")
	cmd.Flags().StringVar(&opts.SVG, "svg", "", "Write an SVG document to this file (- for stdout)")
	cmd.Flags().IntVar(&opts.Columns, "columns", 60, "Width of the Gantt track in text output")

	return cmd
}

func runRender(cmd *cobra.Command, opts *RenderOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	ds, err := loadDataset(ctx, cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		return err
	}

	renderOpts := engine.Options{}
	if opts.Focus != "" {
		renderOpts.Focus = modelID(ds.Records, opts.Focus)
	}
	if opts.Selected != "" {
		renderOpts.Selected = modelID(ds.Records, opts.Selected)
	}
	if cmd.Flags().Changed("start") || cmd.Flags().Changed("end") {
		if err := config.ValidateWindow(opts.Start, opts.End); err != nil {
			return err
		}
		renderOpts.Window = &[2]float64{opts.Start, opts.End}
	}

	engCfg := cmdCtx.Cfg.EngineConfig()
	engCfg.Logger = cmdCtx.Logger
	scene, err := engine.Render(ds, engCfg, renderOpts)
	if err != nil {
		return err
	}

	if opts.SVG != "" {
		return writeSVG(cmd, cmdCtx.Renderer, scene, opts.SVG)
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(scene)
	case output.ModeMarkdown:
		return renderMarkdown(r, scene, opts.Columns)
	default:
		return renderText(r, scene, opts.Columns)
	}
}

func writeSVG(cmd *cobra.Command, r *output.Renderer, scene *core.Scene, path string) error {
	doc, err := render.Document(cmd.Context(), scene)
	if err != nil {
		return fmt.Errorf("failed to render SVG: %w", err)
	}
	if path == "-" {
		_, err := fmt.Fprint(r.Writer(), doc)
		return err
	}
	if err := os.WriteFile(path, []byte(doc), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	r.Success(fmt.Sprintf("Wrote %s (%d bars, %d connectors)", path, len(scene.Bars), len(scene.Connectors)))
	return nil
}

// renderText outputs the timeline as a styled Gantt chart.
func renderText(r *output.Renderer, scene *core.Scene, cols int) error {
	styles := r.Styles()

	r.Header(1, "Execution Timeline")
	r.Println(styles.Muted.Render(windowLine(scene)))
	r.Println("")

	var layer core.Layer
	for _, row := range render.Gantt(scene, cols) {
		b := row.Bar
		if b.Layer != layer {
			layer = b.Layer
			r.Println(styles.Layer(layer).Bold(true).Render(layer.Title()))
		}
		label := fmt.Sprintf("  %-24s", truncate(b.Name, 24))
		if b.Critical {
			label = styles.Critical.Render(label)
		}
		track := styles.Performance(b.Performance).Render(row.Line(cols, render.Fill(b)))
		r.Printf("%s │%s│ %s\n", label, track, styles.Muted.Render(output.FormatSeconds(b.Tooltip.ExecutionTime)))
	}

	r.Println("")
	r.Println(styles.Bold.Render("Critical path: ") + strings.Join(scene.CriticalPath.IDs, " → "))
	r.Println(styles.Muted.Render(fmt.Sprintf("Length %s, %d models, %d connectors",
		output.FormatSeconds(scene.CriticalPath.Length), len(scene.Bars), len(scene.Connectors))))
	if scene.DroppedDependencies > 0 {
		r.Warning(fmt.Sprintf("%d dependencies reference unknown models and were ignored", scene.DroppedDependencies))
	}
	if scene.Selected != nil {
		r.Println("")
		printTooltip(r, scene.Selected)
	}
	return nil
}

// renderMarkdown outputs the timeline in markdown format.
func renderMarkdown(r *output.Renderer, scene *core.Scene, cols int) error {
	r.Println(output.FormatHeader(1, "Execution Timeline"))
	r.Println("")
	r.Println(output.FormatKeyValue("Source", scene.Source))
	r.Println(output.FormatKeyValue("Window", windowLine(scene)))
	r.Println(output.FormatKeyValue("Critical Path", strings.Join(scene.CriticalPath.IDs, " → ")))
	r.Println(output.FormatKeyValue("Critical Path Length", output.FormatSeconds(scene.CriticalPath.Length)))
	r.Println("")

	var chart strings.Builder
	for _, row := range render.Gantt(scene, cols) {
		marker := " "
		if row.Bar.Critical {
			marker = "*"
		}
		fmt.Fprintf(&chart, "%s %-24s |%s|\n", marker, truncate(row.Bar.Name, 24), row.Line(cols, render.Fill(row.Bar)))
	}
	r.Println(output.FormatCodeBlock("", chart.String()))
	r.Println("")

	r.Println(output.FormatHeader(2, "Models"))
	r.Println("")
	rows := make([][]string, 0, len(scene.Bars))
	for _, b := range scene.Bars {
		rows = append(rows, []string{
			b.ID, string(b.Layer),
			output.FormatSeconds(b.Tooltip.ExecutionTime),
			string(b.Performance),
			fmt.Sprintf("%t", b.Critical),
		})
	}
	r.Table([]string{"Model", "Layer", "Time", "Performance", "Critical"}, rows)

	if scene.Selected != nil {
		r.Println(output.FormatHeader(2, "Selected"))
		r.Println("")
		printTooltip(r, scene.Selected)
	}
	return nil
}

func printTooltip(r *output.Renderer, t *core.Tooltip) {
	r.Println(output.FormatKeyValue("Model", t.Name))
	r.Println(output.FormatKeyValue("Layer", t.Layer.Title()))
	r.Println(output.FormatKeyValue("Execution", fmt.Sprintf("%s (avg %s, %s)",
		output.FormatSeconds(t.ExecutionTime), output.FormatSeconds(t.AverageTime), t.Trend)))
	r.Println(output.FormatKeyValue("Performance", string(t.Performance)))
	if t.Rows != "" {
		r.Println(output.FormatKeyValue("Rows", t.Rows))
	}
	if t.Cost != "" {
		r.Println(output.FormatKeyValue("Cost", t.Cost))
	}
	if len(t.Dependencies) > 0 {
		r.Println(output.FormatKeyValue("Depends on", strings.Join(t.Dependencies, ", ")))
	}
	if len(t.Dependents) > 0 {
		r.Println(output.FormatKeyValue("Used by", strings.Join(t.Dependents, ", ")))
	}
}

func windowLine(scene *core.Scene) string {
	w := scene.Window
	line := fmt.Sprintf("%s – %s", w.Start.Format("15:04:05"), w.End.Format("15:04:05"))
	if w.Zoomed {
		line += fmt.Sprintf(" (%.0f%%–%.0f%%)", w.StartPercent, w.EndPercent)
	}
	return line
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
