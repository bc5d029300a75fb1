package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapline/pkg/core"
)

const projectColumns = `id, name, description, created_at`

// CreateProject inserts a project. Names are unique.
func (s *SQLiteStore) CreateProject(ctx context.Context, name, description string) (*core.Project, error) {
	if s.db == nil {
		return nil, errNotOpened
	}
	if name == "" {
		return nil, fmt.Errorf("project name is required")
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (name, description, created_at) VALUES (?, ?, ?)`,
		name, description, now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to create project %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read project id: %w", err)
	}

	s.logger.Debug("created project", slog.Int64("id", id), slog.String("name", name))
	return &core.Project{ID: id, Name: name, Description: description, CreatedAt: core.Timestamp{Time: now}}, nil
}

// GetProject retrieves a project by ID.
func (s *SQLiteStore) GetProject(ctx context.Context, id int64) (*core.Project, error) {
	if s.db == nil {
		return nil, errNotOpened
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %d: %w", id, core.ErrNotFound)
	}
	return p, err
}

// GetProjectByName retrieves a project by name.
func (s *SQLiteStore) GetProjectByName(ctx context.Context, name string) (*core.Project, error) {
	if s.db == nil {
		return nil, errNotOpened
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE name = ?`, name)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %q: %w", name, core.ErrNotFound)
	}
	return p, err
}

// ListProjects returns all projects ordered by ID.
func (s *SQLiteStore) ListProjects(ctx context.Context) ([]*core.Project, error) {
	if s.db == nil {
		return nil, errNotOpened
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var projects []*core.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}
	return projects, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(sc scanner) (*core.Project, error) {
	var (
		p       core.Project
		created int64
	)
	if err := sc.Scan(&p.ID, &p.Name, &p.Description, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}
	p.CreatedAt = core.Timestamp{Time: time.UnixMilli(created).UTC()}
	return &p, nil
}
