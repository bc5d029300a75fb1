package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapline/internal/cli/config"
	"github.com/leapstack-labs/leapline/internal/source"
	"github.com/leapstack-labs/leapline/internal/ui"
	"github.com/leapstack-labs/leapline/internal/ui/features/common"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Dev  bool
	Open bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"ui"},
		Short:   "Serve the interactive timeline",
		Long: `Start a local web server with the interactive execution timeline.

The page streams scene updates over server-sent events: hovering a bar
focuses it and its direct dependencies, clicking shows its details, and
the range controls zoom into a slice of the run.

The server also exposes:
  /api/projects, /api/timeline/{projectId}/{date}   stored executions
  /api/real-timeline-data                           per-model run history
  /api/scene                                        the scene as JSON
  /metrics, /healthz

With a file source and --watch, the dataset is reloaded whenever the
file changes and open pages redraw.`,
		Example: `  # Serve the demo pipeline
  leapline serve

  # Serve a dataset file and reload it on change
  leapline serve --source file --dataset run.json --watch

  # Serve a day from the warehouse on a custom port
  leapline serve --source postgres --dsn "$DATABASE_URL" --project 1 --date 2024-03-01 --port 3000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().Int("port", 0, fmt.Sprintf("Port to serve on (default: %d)", config.DefaultPort))
	cmd.Flags().Bool("watch", true, "Reload the dataset file when it changes")
	cmd.Flags().BoolVar(&opts.Dev, "dev", false, "Log requests and enable live reload")
	cmd.Flags().BoolVar(&opts.Open, "open", false, "Open the timeline in a browser")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	cfg := cmdCtx.Cfg
	logger := cmdCtx.Logger
	uiCfg := cfg.GetUIConfig()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l, cleanup, err := newLoader(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	watchPath := ""
	if cfg.Source.Kind == config.SourceFile && uiCfg.Watch {
		watchPath = cfg.Source.Path
	}

	cache := source.NewCache(nil)
	if _, err := cache.Reload(ctx, l, cfg.Source.Timeout); err != nil {
		// A watched file may appear later.
		if watchPath == "" {
			return fmt.Errorf("failed to load %s dataset: %w", l.Name(), err)
		}
		logger.Warn("starting without a dataset", "source", l.Name(), "error", err)
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	server := ui.NewServer(ui.Config{
		Cache:         cache,
		Loader:        l,
		LoadTimeout:   cfg.Source.Timeout,
		Store:         store,
		History:       historyProvider(l),
		Engine:        cfg.EngineConfig(),
		Port:          uiCfg.Port,
		Watch:         watchPath != "",
		WatchPath:     watchPath,
		SessionSecret: uiCfg.SessionSecret,
		Dev:           opts.Dev,
		Origins:       uiCfg.Origins,
		Logger:        logger,
	})

	url := fmt.Sprintf("http://localhost:%d", uiCfg.Port)
	if opts.Open {
		go openBrowser(url)
	}

	r := cmdCtx.Renderer
	r.Printf("Serving the %s timeline on %s\n", l.Name(), url)
	r.Muted("Press Ctrl+C to stop")

	if err := server.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// historyFunc adapts a function to the history provider of the UI.
type historyFunc func(ctx context.Context, runs int) ([]source.ModelHistory, error)

func (f historyFunc) History(ctx context.Context, runs int) ([]source.ModelHistory, error) {
	return f(ctx, runs)
}

// historyProvider returns the run history backing /api/real-timeline-data for
// loaders that have one. Other sources serve the resident dataset.
func historyProvider(l source.Loader) common.HistoryProvider {
	switch p := source.Unwrap(l).(type) {
	case *source.WarehouseLoader:
		return p.Warehouse
	case *source.HTTPLoader:
		return historyFunc(func(ctx context.Context, _ int) ([]source.ModelHistory, error) {
			return p.Client.History(ctx)
		})
	default:
		return nil
	}
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
