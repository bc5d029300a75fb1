package commands

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/leapstack-labs/leapline/internal/tui"
)

// errNotTerminal is returned when the viewer is started without a terminal.
var errNotTerminal = errors.New("the timeline viewer needs a terminal; use render for piped output")

// NewTUICommand creates the tui command.
func NewTUICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse the timeline in the terminal",
		Long: `Open a full-screen Gantt view of the loaded pipeline.

Moving the cursor focuses a model and its direct dependencies, enter shows
its details, and the zoom and pan keys move the visible window. Press ?
for all key bindings.`,
		Example: `  # Browse the demo pipeline
  leapline tui

  # Browse a day stored in the state database
  leapline tui --source state --project shop --date 2024-03-01`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return errNotTerminal
			}
			return runTUI(cmd)
		},
	}
}

func runTUI(cmd *cobra.Command) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	ds, err := loadDataset(ctx, cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		return err
	}
	if err := ds.Validate(); err != nil {
		return err
	}

	// The engine logs nothing here; stderr shares the alternate screen.
	return tui.Run(ctx, ds, cmdCtx.Cfg.EngineConfig())
}
