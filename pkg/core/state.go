package core

import (
	"context"
	"time"
)

// Store defines the interface for persisted projects and execution history.
type Store interface {
	Open(path string) error
	Close() error
	InitSchema() error

	// Project operations
	CreateProject(ctx context.Context, name, description string) (*Project, error)
	GetProject(ctx context.Context, id int64) (*Project, error)
	GetProjectByName(ctx context.Context, name string) (*Project, error)
	ListProjects(ctx context.Context) ([]*Project, error)

	// Execution operations
	SaveExecutions(ctx context.Context, projectID int64, execs []TimelineExecution) error
	ListExecutions(ctx context.Context, projectID int64, from, to time.Time) ([]TimelineExecution, error)

	// GetTimelineData returns the project's executions that started on day.
	GetTimelineData(ctx context.Context, projectID int64, day time.Time) (*TimelineData, error)
}
