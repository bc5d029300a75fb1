package source

import (
	"context"
	"time"

	"github.com/leapstack-labs/leapline/pkg/core"
)

// NameState identifies datasets read from the local state store.
const NameState = "state"

// StoreLoader loads one project's day from a core.Store.
type StoreLoader struct {
	Store     core.Store
	ProjectID int64
	// Day selects the executions to load (optional, uses today)
	Day time.Time
}

// Name implements Loader.
func (l *StoreLoader) Name() string { return NameState }

// Load implements Loader.
func (l *StoreLoader) Load(ctx context.Context) (*core.Dataset, error) {
	day := l.Day
	if day.IsZero() {
		day = time.Now().UTC()
	}
	td, err := l.Store.GetTimelineData(ctx, l.ProjectID, day)
	if err != nil {
		return nil, err
	}
	ds, err := td.Dataset()
	if err != nil {
		return nil, err
	}
	ds.Source = NameState
	return ds, nil
}
