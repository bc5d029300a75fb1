// Package common provides shared types and utilities for UI features.
package common

import (
	"context"
	"log/slog"

	"github.com/gorilla/sessions"

	"github.com/leapstack-labs/leapline/internal/engine"
	"github.com/leapstack-labs/leapline/internal/source"
	"github.com/leapstack-labs/leapline/internal/ui/notifier"
	"github.com/leapstack-labs/leapline/pkg/core"
)

// HistoryProvider reports recent model executions. *source.Warehouse satisfies it.
type HistoryProvider interface {
	History(ctx context.Context, runs int) ([]source.ModelHistory, error)
}

// Deps holds what the feature handlers share. Store and History are optional.
type Deps struct {
	Cache        *source.Cache
	Store        core.Store
	History      HistoryProvider
	Engine       engine.Config
	Notifier     *notifier.Notifier
	SessionStore sessions.Store
	Logger       *slog.Logger
	IsDev        bool
	// Origins may call the JSON API from a browser
	Origins []string
}

// Log returns the logger, or a discarding logger when none is set.
func (d *Deps) Log() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return d.Logger
}
