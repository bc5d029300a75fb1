// Package features provides shared test utilities for UI feature tests.
package features

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapline/internal/engine"
	"github.com/leapstack-labs/leapline/internal/source"
	"github.com/leapstack-labs/leapline/internal/state"
	"github.com/leapstack-labs/leapline/internal/testutil"
	"github.com/leapstack-labs/leapline/internal/ui/features/common"
	"github.com/leapstack-labs/leapline/internal/ui/notifier"
	"github.com/leapstack-labs/leapline/pkg/core"
)

// TestExecution is a helper to create stored executions with minimal boilerplate.
type TestExecution struct {
	Model   string
	Start   time.Time
	Runtime time.Duration
	Deps    []string
}

// TestFixture holds all dependencies needed for UI handler tests.
type TestFixture struct {
	Deps  *common.Deps
	Store core.Store
	Cache *source.Cache
}

// SetupTestFixture creates a fixture whose cache holds ds (nil for the
// three-node reference dataset) and whose store is an empty in-memory database.
func SetupTestFixture(t *testing.T, ds *core.Dataset) *TestFixture {
	t.Helper()

	if ds == nil {
		ds = testutil.ABC()
	}
	logger := testutil.NewTestLogger(t)
	store := SetupTestStore(t)
	cache := source.NewCache(ds)

	deps := &common.Deps{
		Cache:        cache,
		Store:        store,
		Engine:       engine.DefaultConfig(),
		Notifier:     notifier.New(),
		SessionStore: NewTestSessionStore(),
		Logger:       logger,
	}

	return &TestFixture{Deps: deps, Store: store, Cache: cache}
}

// SetupTestStore creates an in-memory store.
func SetupTestStore(t *testing.T) core.Store {
	t.Helper()

	store := state.NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.InitSchema())

	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// AddProject creates a project holding execs and returns it.
func (f *TestFixture) AddProject(t *testing.T, name string, execs ...TestExecution) *core.Project {
	t.Helper()

	ctx := context.Background()
	p, err := f.Store.CreateProject(ctx, name, "")
	require.NoError(t, err)

	rows := make([]core.TimelineExecution, 0, len(execs))
	for _, e := range execs {
		rows = append(rows, core.NewTimelineExecution("", e.Model, "analytics", "main", e.Deps, e.Start, e.Runtime))
	}
	require.NoError(t, f.Store.SaveExecutions(ctx, p.ID, rows))
	return p
}

// RequestWithPathParams wraps a request with chi URL params given as key, value pairs.
func RequestWithPathParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// RequestWithTimeout wraps a request with a context timeout.
func RequestWithTimeout(t *testing.T, r *http.Request, timeout time.Duration) *http.Request {
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	t.Cleanup(cancel)
	return r.WithContext(ctx)
}

// NewTestSessionStore creates a session store for testing.
func NewTestSessionStore() *sessions.CookieStore {
	return sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!"))
}
