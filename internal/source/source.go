// Package source loads execution history into core.Datasets.
//
// Loaders exist for the embedded demo dataset, local JSON/YAML files, a remote
// timeline backend over HTTP, and dbt_artifacts tables in a Postgres or DuckDB
// warehouse. WithFallback substitutes the demo dataset when a load fails, and
// Cache holds the resident dataset shared by concurrent readers.
package source

import (
	"context"
	"errors"
	"time"

	"github.com/leapstack-labs/leapline/internal/metrics"
	"github.com/leapstack-labs/leapline/pkg/core"
)

// Sentinel errors.
var (
	// ErrEmpty is returned when a source produced no records.
	ErrEmpty = errors.New("source returned no records")
	// ErrUnsupportedFormat is returned for dataset files of unknown type.
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
)

// Loader produces a dataset.
type Loader interface {
	// Name identifies the loader in logs and metrics
	Name() string
	Load(ctx context.Context) (*core.Dataset, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc struct {
	Label string
	Fn    func(ctx context.Context) (*core.Dataset, error)
}

// Name implements Loader.
func (f LoaderFunc) Name() string { return f.Label }

// Load implements Loader.
func (f LoaderFunc) Load(ctx context.Context) (*core.Dataset, error) { return f.Fn(ctx) }

// Load runs l with an optional timeout and records its duration.
func Load(ctx context.Context, l Loader, timeout time.Duration) (*core.Dataset, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	started := time.Now()
	ds, err := l.Load(ctx)
	metrics.ObserveLoad(l.Name(), time.Since(started))
	if err != nil {
		return nil, err
	}
	if ds.Empty() {
		return nil, ErrEmpty
	}
	if ds.Source == "" {
		ds.Source = l.Name()
	}
	return ds, nil
}
