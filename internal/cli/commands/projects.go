package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapline/internal/cli/config"
	"github.com/leapstack-labs/leapline/internal/cli/output"
	"github.com/leapstack-labs/leapline/internal/source"
	"github.com/leapstack-labs/leapline/pkg/core"
)

// NewProjectsCommand creates the projects command.
func NewProjectsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List projects with recorded executions",
		Long: `List the dbt projects known to the configured source.

With an http, postgres or duckdb source the projects are read from the
backend or warehouse; otherwise they come from the local state database.`,
		Example: `  # Projects in the local state database
  leapline projects

  # Projects in the warehouse
  leapline projects --source postgres --dsn "$DATABASE_URL"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProjects(cmd)
		},
	}

	cmd.AddCommand(newProjectsCreateCommand())
	return cmd
}

func newProjectsCreateCommand() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project in the state database",
		Long:  `Create a project in the local state database so executions can be ingested into it.`,
		Example: `  leapline projects create shop --description "E-commerce pipeline"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectsCreate(cmd, args[0], description)
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Project description")
	return cmd
}

func runProjects(cmd *cobra.Command) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	projects, err := listProjects(cmd.Context(), cmdCtx)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(output.ProjectListOutput{Projects: projects, Count: len(projects)})
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Projects"))
		r.Println("")
	default:
		r.Header(1, "Projects")
	}

	if len(projects) == 0 {
		r.Muted("No projects found")
		return nil
	}

	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{fmt.Sprintf("%d", p.ID), p.Name, p.Description, p.CreatedAt.Format("2006-01-02")})
	}
	r.Table([]string{"ID", "Name", "Description", "Created"}, rows)
	return nil
}

func listProjects(ctx context.Context, cmdCtx *CommandContext) ([]*core.Project, error) {
	cfg := cmdCtx.Cfg

	var remote []core.Project
	switch cfg.Source.Kind {
	case config.SourceHTTP:
		ps, err := source.NewClient(cfg.Source.URL).Projects(ctx)
		if err != nil {
			return nil, err
		}
		remote = ps

	case config.SourcePostgres, config.SourceDuckDB:
		wh, err := openWarehouse(ctx, cfg, cmdCtx.Logger)
		if err != nil {
			return nil, err
		}
		defer func() { _ = wh.Close() }()
		ps, err := wh.Projects(ctx)
		if err != nil {
			return nil, err
		}
		remote = ps

	default:
		store, err := openStore(cfg, cmdCtx.Logger)
		if err != nil {
			return nil, err
		}
		defer func() { _ = store.Close() }()
		projects, err := store.ListProjects(ctx)
		if err != nil {
			return nil, err
		}
		if projects == nil {
			projects = []*core.Project{}
		}
		return projects, nil
	}

	projects := make([]*core.Project, len(remote))
	for i := range remote {
		projects[i] = &remote[i]
	}
	return projects, nil
}

func runProjectsCreate(cmd *cobra.Command, name, description string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	store, err := openStore(cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	p, err := store.CreateProject(cmd.Context(), name, description)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(p)
	}
	r.Success(fmt.Sprintf("Created project %s (id %d)", p.Name, p.ID))
	return nil
}
