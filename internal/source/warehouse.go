package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"   // registers the "pgx" driver
	_ "github.com/marcboeker/go-duckdb" // registers the "duckdb" driver

	"github.com/leapstack-labs/leapline/pkg/core"
)

// Warehouse names.
const (
	NamePostgres = "postgres"
	NameDuckDB   = "duckdb"
)

// DefaultHistoryRuns is the number of recent dbt invocations read for history.
const DefaultHistoryRuns = 5

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// OpenWarehouse opens a Postgres (DSN) or DuckDB (file path) connection and pings it.
func OpenWarehouse(ctx context.Context, kind, dsn string) (*sql.DB, error) {
	var driver string
	switch kind {
	case NamePostgres:
		driver = "pgx"
	case NameDuckDB:
		driver = "duckdb"
	default:
		return nil, fmt.Errorf("unknown warehouse kind %q", kind)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", kind, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", kind, err)
	}
	return db, nil
}

// Warehouse reads dbt_artifacts tables: dbt_projects, dim_dbt__models,
// fct_dbt__model_executions and model_executions.
type Warehouse struct {
	db     *sql.DB
	schema string
	logger *slog.Logger
}

// NewWarehouse wraps db. Schema must be a plain SQL identifier.
// If logger is nil, a discard logger is used.
func NewWarehouse(db *sql.DB, schema string, logger *slog.Logger) (*Warehouse, error) {
	if !identPattern.MatchString(schema) {
		return nil, fmt.Errorf("invalid artifacts schema %q", schema)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Warehouse{db: db, schema: schema, logger: logger}, nil
}

// Close closes the underlying connection.
func (w *Warehouse) Close() error {
	return w.db.Close()
}

// Projects lists the dbt projects.
func (w *Warehouse) Projects(ctx context.Context) ([]core.Project, error) {
	rows, err := w.db.QueryContext(ctx,
		`SELECT id, name, description, created_at FROM `+w.schema+`.dbt_projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var projects []core.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}
	return projects, nil
}

// Project returns one project, or core.ErrNotFound.
func (w *Warehouse) Project(ctx context.Context, id int64) (*core.Project, error) {
	row := w.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at FROM `+w.schema+`.dbt_projects WHERE id = $1`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %d: %w", id, core.ErrNotFound)
	}
	return p, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(s scanner) (*core.Project, error) {
	var (
		p       core.Project
		desc    sql.NullString
		created time.Time
	)
	if err := s.Scan(&p.ID, &p.Name, &desc, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}
	p.Description = desc.String
	p.CreatedAt = core.Timestamp{Time: created}
	return &p, nil
}

// Executions returns the model executions that started on day, ordered by start.
func (w *Warehouse) Executions(ctx context.Context, day time.Time) ([]core.TimelineExecution, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	to := from.Add(24 * time.Hour)

	rows, err := w.db.QueryContext(ctx, `
		SELECT m.model_execution_id, m.name, m.database, m.schema,
		       array_to_string(m.depends_on_nodes, ','), e.run_started_at, e.total_node_runtime
		FROM `+w.schema+`.dim_dbt__models m
		INNER JOIN `+w.schema+`.fct_dbt__model_executions e ON m.model_execution_id = e.model_execution_id
		WHERE e.run_started_at >= $1 AND e.run_started_at < $2
		ORDER BY e.run_started_at`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var execs []core.TimelineExecution
	for rows.Next() {
		var (
			id, name, database, schema string
			deps                       sql.NullString
			started                    time.Time
			runtime                    float64
		)
		if err := rows.Scan(&id, &name, &database, &schema, &deps, &started, &runtime); err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		execs = append(execs, core.NewTimelineExecution(id, name, database, schema,
			splitList(deps.String), started, secondsToDuration(runtime)))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}
	return execs, nil
}

// Timeline returns a project's timeline for one day.
func (w *Warehouse) Timeline(ctx context.Context, projectID int64, day time.Time) (*core.TimelineData, error) {
	p, err := w.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	execs, err := w.Executions(ctx, day)
	if err != nil {
		return nil, err
	}
	w.logger.Debug("loaded warehouse timeline", "project", projectID, "day", day.Format(time.DateOnly), "executions", len(execs))
	return &core.TimelineData{
		Project:    *p,
		Executions: execs,
		TimeExtent: core.TimeExtentOf(execs, day),
	}, nil
}

// History aggregates the executions of the latest runs per model.
func (w *Warehouse) History(ctx context.Context, runs int) ([]ModelHistory, error) {
	if runs <= 0 {
		runs = DefaultHistoryRuns
	}
	rows, err := w.db.QueryContext(ctx, `
		WITH latest_runs AS (
			SELECT invocation_id, MAX(run_started_at) AS run_time
			FROM `+w.schema+`.model_executions
			GROUP BY invocation_id
			ORDER BY run_time DESC
			LIMIT $1
		)
		SELECT me.name, me.schema, me.execution_time, me.status, lr.run_time, me.rows_affected
		FROM `+w.schema+`.model_executions me
		JOIN latest_runs lr ON me.invocation_id = lr.invocation_id
		WHERE me.execution_time IS NOT NULL
		ORDER BY lr.run_time DESC, me.name`, runs)
	if err != nil {
		return nil, fmt.Errorf("failed to query model history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var flat []execution
	for rows.Next() {
		var (
			e      execution
			status sql.NullString
			rows64 sql.NullInt64
		)
		if err := rows.Scan(&e.name, &e.schema, &e.seconds, &status, &e.runTime, &rows64); err != nil {
			return nil, fmt.Errorf("failed to scan model history: %w", err)
		}
		e.status = status.String
		if rows64.Valid {
			n := rows64.Int64
			e.rows = &n
		}
		flat = append(flat, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating model history: %w", err)
	}
	return aggregateHistory(flat), nil
}

// secondsToDuration rounds to the microsecond so that 420.001s is 420001ms.
func secondsToDuration(s float64) time.Duration {
	return time.Duration(math.Round(s*1e6)) * time.Microsecond
}

func splitList(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// WarehouseLoader loads a dataset from dbt_artifacts. With a project and day it
// loads that day's timeline; otherwise it schedules the model history.
type WarehouseLoader struct {
	Warehouse *Warehouse
	Kind      string
	ProjectID int64
	Day       time.Time
	Runs      int
	// Now anchors history datasets (optional, uses time.Now)
	Now func() time.Time
}

// Name implements Loader.
func (l *WarehouseLoader) Name() string { return l.Kind }

// Load implements Loader.
func (l *WarehouseLoader) Load(ctx context.Context) (*core.Dataset, error) {
	if l.ProjectID != 0 && !l.Day.IsZero() {
		td, err := l.Warehouse.Timeline(ctx, l.ProjectID, l.Day)
		if err != nil {
			return nil, err
		}
		ds, err := td.Dataset()
		if err != nil {
			return nil, err
		}
		ds.Source = l.Kind
		return ds, nil
	}

	histories, err := l.Warehouse.History(ctx, l.Runs)
	if err != nil {
		return nil, err
	}
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	ds := HistoryDataset(histories, now())
	ds.Source = l.Kind
	return ds, nil
}
