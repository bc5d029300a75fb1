package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapline/internal/cli/output"
	"github.com/leapstack-labs/leapline/internal/critpath"
	"github.com/leapstack-labs/leapline/internal/dag"
)

// CriticalPathOptions holds options for the critical-path command.
type CriticalPathOptions struct {
	Focus string
}

// NewCriticalPathCommand creates the critical-path command.
func NewCriticalPathCommand() *cobra.Command {
	opts := &CriticalPathOptions{}

	cmd := &cobra.Command{
		Use:     "critical-path",
		Aliases: []string{"cp"},
		Short:   "Show the longest dependency chain",
		Long: `Compute the critical path of the loaded pipeline: the chain of
dependent models with the largest total execution time.

Every model that lies on some maximum-length chain is reported, dependencies
first. Ties are detected within the configured tolerance
(critical_path.tolerance).

With --focus the upstream lineage of one model is listed as well: every model
it transitively depends on, marked where it is critical.`,
		Example: `  # Critical path of the demo pipeline
  leapline critical-path

  # From a dataset file, as JSON
  leapline critical-path --source file --dataset run.json -o json

  # Everything fct_orders waits on
  leapline critical-path --focus fct_orders`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCriticalPath(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Focus, "focus", "", "Also list the upstream lineage of this model (name or execution id)")

	return cmd
}

func runCriticalPath(cmd *cobra.Command, opts *CriticalPathOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	cfg := cmdCtx.Cfg

	ds, err := loadDataset(cmd.Context(), cfg, cmdCtx.Logger)
	if err != nil {
		return err
	}
	if err := ds.Validate(); err != nil {
		return err
	}

	g := dag.Build(ds.Records)
	cp, err := critpath.Compute(g, critpath.Options{Tolerance: cfg.CriticalPath.Tolerance})
	if err != nil {
		return err
	}
	order, err := g.TopologicalSort()
	if err != nil {
		return err
	}

	thresholds := cfg.EngineConfig().Thresholds
	node := func(id string) output.CriticalNode {
		rec, _ := g.Node(id)
		return output.CriticalNode{
			ID:               rec.ID,
			Name:             rec.Name,
			Layer:            rec.Layer,
			StartTime:        rec.StartTime,
			ExecutionTime:    rec.ExecutionTime,
			CriticalPathTime: cp.Times[rec.ID],
			Performance:      thresholds.Classify(rec),
			Critical:         cp.Contains(rec.ID),
		}
	}

	out := output.CriticalPathOutput{
		Source:    ds.Source,
		Length:    cp.Length,
		Tolerance: cfg.CriticalPath.Tolerance,
		Dropped:   len(g.DroppedDependencies()),
		Nodes:     []output.CriticalNode{},
	}
	for _, rec := range g.Nodes() {
		out.Duration = max(out.Duration, rec.EndTime())
	}
	for _, id := range order {
		if cp.Contains(id) {
			out.Nodes = append(out.Nodes, node(id))
		}
	}

	if opts.Focus != "" {
		focus, ok := findModel(g.Nodes(), opts.Focus)
		if !ok {
			return fmt.Errorf("unknown model %q", opts.Focus)
		}
		out.Focus = focus.Name
		upstream := make(map[string]bool)
		for _, id := range g.Upstream(focus.ID) {
			upstream[id] = true
		}
		for _, id := range order {
			if upstream[id] || id == focus.ID {
				out.Lineage = append(out.Lineage, node(id))
			}
		}
	}

	path := make([]string, 0, len(out.Nodes))
	for _, id := range cp.Path() {
		rec, _ := g.Node(id)
		path = append(path, rec.Name)
	}

	return writeCriticalPath(cmdCtx.Renderer, out, path)
}

// writeCriticalPath renders out in the renderer's effective mode.
func writeCriticalPath(r *output.Renderer, out output.CriticalPathOutput, path []string) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		return criticalPathMarkdown(r, out, path)
	default:
		return criticalPathText(r, out, path)
	}
}

// criticalPathText outputs the critical path in styled text format.
func criticalPathText(r *output.Renderer, out output.CriticalPathOutput, path []string) error {
	styles := r.Styles()

	r.Header(1, "Critical Path")
	r.Println(styles.Critical.Render(strings.Join(path, " → ")))
	r.Println("")

	for _, n := range out.Nodes {
		r.Printf("  %s %s  %s\n",
			styles.Layer(n.Layer).Render(fmt.Sprintf("%-13s", n.Layer)),
			styles.ModelPath.Render(fmt.Sprintf("%-28s", n.Name)),
			styles.Performance(n.Performance).Render(output.FormatSeconds(n.ExecutionTime)))
	}

	r.Println("")
	r.Println(styles.Muted.Render(fmt.Sprintf("Length %s of %s total (%d models on the path)",
		output.FormatSeconds(out.Length), output.FormatSeconds(out.Duration), len(out.Nodes))))
	if out.Dropped > 0 {
		r.Warning(fmt.Sprintf("%d dependencies reference unknown models and were ignored", out.Dropped))
	}

	if out.Focus != "" {
		r.Println("")
		r.Header(2, "Lineage of "+out.Focus)
		for _, n := range out.Lineage {
			marker := " "
			if n.Critical {
				marker = styles.Critical.Render("●")
			}
			r.Printf("  %s %s %s  %s\n", marker,
				styles.Layer(n.Layer).Render(fmt.Sprintf("%-13s", n.Layer)),
				styles.ModelPath.Render(fmt.Sprintf("%-28s", n.Name)),
				output.FormatSeconds(n.CriticalPathTime))
		}
	}
	return nil
}

// criticalPathMarkdown outputs the critical path in markdown format.
func criticalPathMarkdown(r *output.Renderer, out output.CriticalPathOutput, path []string) error {
	r.Println(output.FormatHeader(1, "Critical Path"))
	r.Println("")
	r.Println(output.FormatKeyValue("Source", out.Source))
	r.Println(output.FormatKeyValue("Path", strings.Join(path, " → ")))
	r.Println(output.FormatKeyValue("Length", output.FormatSeconds(out.Length)))
	r.Println(output.FormatKeyValue("Pipeline Duration", output.FormatSeconds(out.Duration)))
	if out.Dropped > 0 {
		r.Println(output.FormatKeyValue("Ignored Dependencies", fmt.Sprintf("%d", out.Dropped)))
	}
	r.Println("")

	r.Println(output.FormatHeader(2, "Models"))
	r.Println("")
	r.Table([]string{"Model", "Layer", "Start", "Time", "Path Time", "Performance"}, markdownRows(out.Nodes))

	if out.Focus != "" {
		r.Println("")
		r.Println(output.FormatHeader(2, "Lineage of "+out.Focus))
		r.Println("")
		rows := markdownRows(out.Lineage)
		for i, n := range out.Lineage {
			critical := ""
			if n.Critical {
				critical = "yes"
			}
			rows[i] = append(rows[i], critical)
		}
		r.Table([]string{"Model", "Layer", "Start", "Time", "Path Time", "Performance", "Critical"}, rows)
	}
	return nil
}

func markdownRows(nodes []output.CriticalNode) [][]string {
	rows := make([][]string, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, []string{
			n.Name, string(n.Layer),
			output.FormatSeconds(n.StartTime),
			output.FormatSeconds(n.ExecutionTime),
			output.FormatSeconds(n.CriticalPathTime),
			string(n.Performance),
		})
	}
	return rows
}
