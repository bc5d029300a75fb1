package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapline/internal/cli/config"
	"github.com/leapstack-labs/leapline/internal/cli/output"
	"github.com/leapstack-labs/leapline/internal/source"
	"github.com/leapstack-labs/leapline/internal/state"
	"github.com/leapstack-labs/leapline/pkg/core"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the loaded configuration.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg, err := getConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}, nil
}

// getConfig returns the current configuration, loading it from the command's
// flags when the root command has not done so.
func getConfig(cmd *cobra.Command) (*config.Config, error) {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg, nil
	}
	return config.LoadConfig("", cmd.Flags())
}

// openStore opens the state database, creating its directory and schema.
func openStore(cfg *config.Config, logger *slog.Logger) (*state.SQLiteStore, error) {
	if dir := filepath.Dir(cfg.StatePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, err
	}
	if err := store.InitSchema(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// parseDay parses a YYYY-MM-DD date. An empty string is the zero time.
func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	day, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return day, nil
}

// parseProjectID parses a numeric project id. An empty string is 0.
func parseProjectID(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid project id %q", s)
	}
	return id, nil
}

// resolveProject finds a project in the store by id or by name.
func resolveProject(ctx context.Context, store core.Store, ref string) (*core.Project, error) {
	if ref == "" {
		return nil, errors.New("a project is required (--project)")
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return store.GetProject(ctx, id)
	}
	return store.GetProjectByName(ctx, ref)
}

// newLoader builds the dataset loader selected by the configuration.
// The returned cleanup closes any connection the loader holds.
func newLoader(ctx context.Context, cfg *config.Config, logger *slog.Logger) (source.Loader, func(), error) {
	l, cleanup, err := primaryLoader(ctx, cfg, logger)
	if err != nil {
		if !cfg.Source.Fallback {
			return nil, nil, err
		}
		logger.Warn("source unavailable, using demo dataset", "source", cfg.Source.Kind, "error", err)
		return source.DemoLoader{}, func() {}, nil
	}
	if cfg.Source.Fallback {
		l = source.WithFallback(l, logger)
	}
	return l, cleanup, nil
}

func primaryLoader(ctx context.Context, cfg *config.Config, logger *slog.Logger) (source.Loader, func(), error) {
	noop := func() {}
	src := cfg.Source

	switch src.Kind {
	case config.SourceDemo, "":
		return source.DemoLoader{}, noop, nil

	case config.SourceFile:
		return &source.FileLoader{Path: src.Path}, noop, nil

	case config.SourceHTTP:
		id, err := parseProjectID(src.Project)
		if err != nil {
			return nil, nil, err
		}
		return &source.HTTPLoader{Client: source.NewClient(src.URL), ProjectID: id, Date: src.Date}, noop, nil

	case config.SourceState:
		day, err := parseDay(src.Date)
		if err != nil {
			return nil, nil, err
		}
		store, err := openStore(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		p, err := resolveProject(ctx, store, src.Project)
		if err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		return &source.StoreLoader{Store: store, ProjectID: p.ID, Day: day}, func() { _ = store.Close() }, nil

	case config.SourcePostgres, config.SourceDuckDB:
		id, err := parseProjectID(src.Project)
		if err != nil {
			return nil, nil, err
		}
		day, err := parseDay(src.Date)
		if err != nil {
			return nil, nil, err
		}
		wh, err := openWarehouse(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		l := &source.WarehouseLoader{Warehouse: wh, Kind: src.Kind, ProjectID: id, Day: day}
		return l, func() { _ = wh.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown source kind %q", src.Kind)
	}
}

// openWarehouse connects to the configured postgres or duckdb warehouse.
func openWarehouse(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*source.Warehouse, error) {
	dsn := cfg.Source.DSN
	if cfg.Source.Kind == config.SourceDuckDB {
		dsn = cfg.Source.Path
	}
	db, err := source.OpenWarehouse(ctx, cfg.Source.Kind, dsn)
	if err != nil {
		return nil, err
	}
	wh, err := source.NewWarehouse(db, cfg.Source.Schema, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return wh, nil
}

// loadDataset loads the configured dataset once.
func loadDataset(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*core.Dataset, error) {
	l, cleanup, err := newLoader(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	ds, err := source.Load(ctx, l, cfg.Source.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s dataset: %w", l.Name(), err)
	}
	logger.Debug("loaded dataset", "source", ds.Source, "records", len(ds.Records))
	return ds, nil
}

// findModel resolves ref as a record id, or as a model name to its latest run.
func findModel(records []core.ExecutionRecord, ref string) (core.ExecutionRecord, bool) {
	var (
		found core.ExecutionRecord
		ok    bool
	)
	for _, rec := range records {
		if rec.ID == ref {
			return rec, true
		}
		if rec.Name == ref && (!ok || rec.StartTime >= found.StartTime) {
			found, ok = rec, true
		}
	}
	return found, ok
}

// modelID returns the record id ref refers to, or ref when nothing matches.
func modelID(records []core.ExecutionRecord, ref string) string {
	if rec, ok := findModel(records, ref); ok {
		return rec.ID
	}
	return ref
}
