package state

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/leapline/pkg/core"
)

// SaveExecutions upserts executions for a project in one transaction.
// Executions without an ID are assigned a UUID.
func (s *SQLiteStore) SaveExecutions(ctx context.Context, projectID int64, execs []core.TimelineExecution) error {
	if s.db == nil {
		return errNotOpened
	}
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO executions (id, project_id, model_name, database_name, schema_name, dependencies, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			model_name = excluded.model_name,
			database_name = excluded.database_name,
			schema_name = excluded.schema_name,
			dependencies = excluded.dependencies,
			started_at = excluded.started_at,
			duration_ms = excluded.duration_ms`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range execs {
		id := e.ModelExecutionID
		if id == "" {
			id = uuid.New().String()
		}
		deps := e.Dependencies
		if deps == nil {
			deps = []string{}
		}
		depsJSON, err := json.Marshal(deps)
		if err != nil {
			return fmt.Errorf("failed to encode dependencies of %s: %w", e.ModelName, err)
		}
		if _, err := stmt.ExecContext(ctx, id, projectID, e.ModelName, e.Database, e.Schema,
			string(depsJSON), e.StartTime.UnixMilli(), e.Duration); err != nil {
			return fmt.Errorf("failed to save execution of %s: %w", e.ModelName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit executions: %w", err)
	}
	s.logger.Debug("saved executions", slog.Int64("project", projectID), slog.Int("count", len(execs)))
	return nil
}

// ListExecutions returns a project's executions that started in [from, to), ordered by start.
func (s *SQLiteStore) ListExecutions(ctx context.Context, projectID int64, from, to time.Time) ([]core.TimelineExecution, error) {
	if s.db == nil {
		return nil, errNotOpened
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, model_name, database_name, schema_name, dependencies, started_at, duration_ms
		FROM executions
		WHERE project_id = ? AND started_at >= ? AND started_at < ?
		ORDER BY started_at, model_name`,
		projectID, from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	execs := []core.TimelineExecution{}
	for rows.Next() {
		var (
			id, model, database, schema, depsJSON string
			started, durationMS                   int64
		)
		if err := rows.Scan(&id, &model, &database, &schema, &depsJSON, &started, &durationMS); err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		var deps []string
		if err := json.Unmarshal([]byte(depsJSON), &deps); err != nil {
			return nil, fmt.Errorf("failed to decode dependencies of %s: %w", model, err)
		}
		if deps == nil {
			deps = []string{}
		}
		execs = append(execs, core.NewTimelineExecution(id, model, database, schema, deps,
			time.UnixMilli(started).UTC(), time.Duration(durationMS)*time.Millisecond))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}
	return execs, nil
}

// GetTimelineData returns the project's executions that started on day (UTC),
// or core.ErrNotFound if the project does not exist.
func (s *SQLiteStore) GetTimelineData(ctx context.Context, projectID int64, day time.Time) (*core.TimelineData, error) {
	p, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	day = day.UTC()
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	execs, err := s.ListExecutions(ctx, projectID, from, from.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}

	return &core.TimelineData{
		Project:    *p,
		Executions: execs,
		TimeExtent: core.TimeExtentOf(execs, from),
	}, nil
}
