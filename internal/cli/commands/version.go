package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapline/internal/cli/output"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display LeapLine version and build information.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := output.VersionOutput{Version: version, Commit: commit, Date: date}

			mode := output.ModeAuto
			if f := cmd.Flags().Lookup("output"); f != nil {
				mode = output.Mode(f.Value.String())
			}
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(info)
			}

			r.Printf("LeapLine v%s\n", version)
			r.Println("Execution timeline for dbt pipelines")
			if commit != "" && commit != "unknown" {
				r.Printf("commit %s, built %s\n", commit, date)
			}
			return nil
		},
	}
}
