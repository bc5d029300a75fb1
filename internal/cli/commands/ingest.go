package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapline/internal/cli/config"
	"github.com/leapstack-labs/leapline/internal/cli/output"
	"github.com/leapstack-labs/leapline/internal/source"
	"github.com/leapstack-labs/leapline/pkg/core"
)

// IngestOptions holds options for the ingest command.
type IngestOptions struct {
	Into        string
	Description string
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand() *cobra.Command {
	opts := &IngestOptions{}

	cmd := &cobra.Command{
		Use:   "ingest [timeline.json]",
		Short: "Record a day of executions in the state database",
		Long: `Copy one day of model executions into the local state database.

With a file argument the file must hold a timeline payload (project,
executions, timeExtent). Without one, the day selected by --project and
--date is fetched from the configured http, postgres or duckdb source.

The executions are stored under the project named by --into (default: the
payload's project name), which is created if it does not exist. Executions
with an existing id are updated in place.`,
		Example: `  # Ingest an exported timeline
  leapline ingest day.json --into shop

  # Pull a day from the warehouse
  leapline ingest --source postgres --dsn "$DATABASE_URL" --project 1 --date 2024-03-01`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runIngest(cmd, opts, path)
		},
	}

	cmd.Flags().StringVar(&opts.Into, "into", "", "Project to store the executions under")
	cmd.Flags().StringVar(&opts.Description, "description", "", "Description for a newly created project")

	return cmd
}

func runIngest(cmd *cobra.Command, opts *IngestOptions, path string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	td, err := fetchTimeline(ctx, cmdCtx, path)
	if err != nil {
		return err
	}

	name := opts.Into
	if name == "" {
		name = td.Project.Name
	}
	if name == "" {
		return errors.New("the timeline has no project name; pass --into")
	}

	store, err := openStore(cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	p, err := store.GetProjectByName(ctx, name)
	if errors.Is(err, core.ErrNotFound) {
		p, err = store.CreateProject(ctx, name, opts.Description)
	}
	if err != nil {
		return err
	}

	if err := store.SaveExecutions(ctx, p.ID, td.Executions); err != nil {
		return err
	}

	out := output.IngestOutput{
		Project:    *p,
		Source:     sourceLabel(cmdCtx.Cfg, path),
		Executions: len(td.Executions),
		Day:        td.TimeExtent[0].Format(time.DateOnly),
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Ingest"))
		r.Println("")
		r.Println(output.FormatKeyValue("Project", fmt.Sprintf("%s (id %d)", p.Name, p.ID)))
		r.Println(output.FormatKeyValue("Source", out.Source))
		r.Println(output.FormatKeyValue("Day", out.Day))
		r.Println(output.FormatKeyValue("Executions", fmt.Sprintf("%d", out.Executions)))
	default:
		r.Success(fmt.Sprintf("Stored %d executions from %s under %s (id %d)", out.Executions, out.Source, p.Name, p.ID))
	}
	return nil
}

func sourceLabel(cfg *config.Config, path string) string {
	if path != "" {
		return path
	}
	return cfg.Source.Kind
}

// fetchTimeline reads a timeline payload from path, or fetches the configured day.
func fetchTimeline(ctx context.Context, cmdCtx *CommandContext, path string) (*core.TimelineData, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var td core.TimelineData
		if err := json.Unmarshal(data, &td); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return &td, nil
	}

	cfg := cmdCtx.Cfg
	id, err := parseProjectID(cfg.Source.Project)
	if err != nil {
		return nil, err
	}
	if id == 0 || cfg.Source.Date == "" {
		return nil, errors.New("pass a timeline file, or --project and --date to fetch one")
	}
	day, err := parseDay(cfg.Source.Date)
	if err != nil {
		return nil, err
	}

	switch cfg.Source.Kind {
	case config.SourceHTTP:
		return source.NewClient(cfg.Source.URL).Timeline(ctx, id, cfg.Source.Date)

	case config.SourcePostgres, config.SourceDuckDB:
		wh, err := openWarehouse(ctx, cfg, cmdCtx.Logger)
		if err != nil {
			return nil, err
		}
		defer func() { _ = wh.Close() }()
		return wh.Timeline(ctx, id, day)

	default:
		return nil, fmt.Errorf("cannot fetch a timeline from a %s source", cfg.Source.Kind)
	}
}
