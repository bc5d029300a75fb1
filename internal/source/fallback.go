package source

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/leapstack-labs/leapline/internal/metrics"
	"github.com/leapstack-labs/leapline/pkg/core"
)

// fallbackLoader substitutes the demo dataset when the primary fails.
type fallbackLoader struct {
	primary Loader
	logger  *slog.Logger
}

// WithFallback wraps primary so that a failed or empty load yields the embedded
// demo dataset instead of an error. If logger is nil, a discard logger is used.
func WithFallback(primary Loader, logger *slog.Logger) Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &fallbackLoader{primary: primary, logger: logger}
}

func (f *fallbackLoader) Name() string { return f.primary.Name() }

// Unwrap returns the loader l falls back from, or l itself.
func Unwrap(l Loader) Loader {
	if f, ok := l.(*fallbackLoader); ok {
		return f.primary
	}
	return l
}

func (f *fallbackLoader) Load(ctx context.Context) (*core.Dataset, error) {
	ds, err := f.primary.Load(ctx)
	if err == nil && !ds.Empty() {
		return ds, nil
	}
	if err == nil {
		err = ErrEmpty
	}

	f.logger.Warn("using demo dataset", "source", f.primary.Name(), "error", err)
	metrics.IncFallback(f.primary.Name())
	return Demo()
}

// Cache holds the resident dataset. Readers get the current dataset; a reload
// replaces it wholesale. Datasets handed out must not be modified.
type Cache struct {
	mu      sync.RWMutex
	dataset *core.Dataset
	loaded  time.Time
	version uint64
}

// NewCache creates a cache holding ds (which may be nil).
func NewCache(ds *core.Dataset) *Cache {
	c := &Cache{}
	if ds != nil {
		c.Set(ds)
	}
	return c
}

// Get returns the resident dataset, or nil.
func (c *Cache) Get() *core.Dataset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dataset
}

// Set replaces the resident dataset.
func (c *Cache) Set(ds *core.Dataset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dataset = ds
	c.loaded = time.Now()
	c.version++
	if ds != nil {
		metrics.SetDatasetNodes(len(ds.Records))
	}
}

// Version increments on every Set.
func (c *Cache) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// LoadedAt returns when the resident dataset was set.
func (c *Cache) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Reload loads from l and replaces the resident dataset on success. On failure
// the previous dataset stays resident.
func (c *Cache) Reload(ctx context.Context, l Loader, timeout time.Duration) (*core.Dataset, error) {
	ds, err := Load(ctx, l, timeout)
	if err != nil {
		return nil, err
	}
	c.Set(ds)
	return ds, nil
}
