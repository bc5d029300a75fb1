package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapline/internal/critpath"
	"github.com/leapstack-labs/leapline/internal/dag"
	"github.com/leapstack-labs/leapline/internal/testutil"
	"github.com/leapstack-labs/leapline/pkg/core"
)

func TestDemo(t *testing.T) {
	ds, err := Demo()
	require.NoError(t, err)
	require.NoError(t, ds.Validate())

	assert.Len(t, ds.Records, 14)
	assert.Equal(t, NameDemo, ds.Source)
	assert.False(t, ds.Origin.IsZero())

	g := dag.Build(ds.Records)
	assert.Empty(t, g.DroppedDependencies())
	_, err = g.TopologicalSort()
	require.NoError(t, err)

	cp, err := critpath.Compute(g, critpath.Options{})
	require.NoError(t, err)
	assert.InDelta(t, 16.5, cp.Length, 1e-9)
	for _, id := range []string{"stg_order_items", "int_customer_orders", "fct_orders", "mart_customer_orders"} {
		assert.True(t, cp.Contains(id), "%s should be critical", id)
	}
	assert.False(t, cp.Contains("dim_products"))

	// Each call returns an independent copy
	other, err := Demo()
	require.NoError(t, err)
	other.Records[0].Name = "changed"
	assert.Equal(t, "customers", ds.Records[0].Name)
}

func TestSchedule(t *testing.T) {
	records := []core.ExecutionRecord{
		testutil.Record("raw", core.LayerSource, 0, 0),
		testutil.Record("A", core.LayerStaging, 0, 2),
		testutil.Record("B", core.LayerStaging, 0, 1),
		testutil.Record("I", core.LayerIntermediate, 0, 3),
		testutil.Record("M", core.LayerMarts, 0, 1),
		testutil.Record("N", core.LayerMarts, 0, 0.5),
	}

	out := Schedule(records)
	require.Len(t, out, 5, "source records are dropped")

	byID := make(map[string]core.ExecutionRecord)
	var order []string
	for _, r := range out {
		byID[r.ID] = r
		order = append(order, r.ID)
	}
	assert.Equal(t, []string{"B", "A", "I", "N", "M"}, order, "faster models start first within a layer")

	assert.InDelta(t, 0, byID["B"].StartTime, 1e-9)
	assert.InDelta(t, 0.5, byID["A"].StartTime, 1e-9)
	assert.Empty(t, byID["A"].Dependencies)

	// staging ends at 2.5, intermediate starts one second later
	assert.InDelta(t, 3.5, byID["I"].StartTime, 1e-9)
	assert.Equal(t, []string{"B", "A"}, byID["I"].Dependencies)

	assert.InDelta(t, 7.5, byID["N"].StartTime, 1e-9)
	assert.InDelta(t, 8.5, byID["M"].StartTime, 1e-9)
	assert.Equal(t, []string{"B", "A", "I"}, byID["M"].Dependencies)

	// input is not modified
	assert.InDelta(t, 0, records[1].StartTime, 1e-9)
}

func TestAggregateHistory(t *testing.T) {
	t1 := time.Date(2024, 3, 2, 6, 0, 0, 0, time.UTC)
	t0 := t1.Add(-24 * time.Hour)
	rows := int64(42)
	histories := aggregateHistory([]execution{
		{name: "stg_a", schema: "analytics_staging", seconds: 2, status: "success", runTime: t1, rows: &rows},
		{name: "fct_b", schema: "analytics", seconds: 6, runTime: t1},
		{name: "stg_a", schema: "analytics_staging", seconds: 1, status: "error", runTime: t0},
	})

	require.Len(t, histories, 2)
	assert.Equal(t, "fct_b", histories[0].ID, "slowest average first")
	assert.Equal(t, core.LayerMarts, histories[0].Layer)
	assert.Equal(t, "success", histories[0].Status)

	a := histories[1]
	assert.Equal(t, core.LayerStaging, a.Layer)
	assert.InDelta(t, 2, a.ExecutionTime, 1e-9, "latest run")
	assert.InDelta(t, 1.5, a.AvgExecutionTime, 1e-9)
	assert.InDelta(t, 1, a.MinExecutionTime, 1e-9)
	assert.InDelta(t, 2, a.MaxExecutionTime, 1e-9)
	assert.Equal(t, 2, a.RunCount)
	assert.Equal(t, []float64{2, 1}, a.HistoricalTimes)
	assert.Equal(t, "success", a.Status, "latest status wins")
	assert.Equal(t, "Model from analytics_staging schema", a.Description)

	rec := a.Record()
	assert.Equal(t, int64(42), rec.RowsProcessed)
	assert.Equal(t, []time.Time{t1, t0}, rec.HistoricalDates)
}

func TestHistoryOf(t *testing.T) {
	plain := testutil.Record("stg_a", core.LayerStaging, 0, 3)
	tracked := testutil.Record("fct_b", core.LayerMarts, 3, 4, "stg_a")
	tracked.HistoricalTimes = []float64{4, 2, 6}
	tracked.RowsProcessed = 10
	tracked.Status = "error"

	histories := HistoryOf([]core.ExecutionRecord{plain, tracked})
	require.Len(t, histories, 2)

	a := histories[0]
	assert.Equal(t, 1, a.RunCount)
	assert.InDelta(t, 3, a.AvgExecutionTime, 1e-9)
	assert.Equal(t, "success", a.Status)
	assert.Nil(t, a.RowsProcessed)
	assert.Nil(t, a.CostUSD)

	b := histories[1]
	assert.Equal(t, 3, b.RunCount)
	assert.InDelta(t, 4, b.AvgExecutionTime, 1e-9)
	assert.InDelta(t, 2, b.MinExecutionTime, 1e-9)
	assert.InDelta(t, 6, b.MaxExecutionTime, 1e-9)
	assert.Equal(t, "error", b.Status)
	require.NotNil(t, b.RowsProcessed)
	assert.Equal(t, int64(10), *b.RowsProcessed)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestFileLoader(t *testing.T) {
	ctx := context.Background()
	now := func() time.Time { return testutil.Origin }

	t.Run("json dataset", func(t *testing.T) {
		path := writeFile(t, "ds.json", `{
			"origin": "2024-03-01T09:00:00Z",
			"nodes": [
				{"id": "A", "name": "A", "layer": "staging", "startTime": 0, "executionTime": 2, "dependencies": []},
				{"id": "B", "name": "B", "layer": "marts", "startTime": 2, "executionTime": 1, "dependencies": ["A"]}
			]
		}`)
		ds, err := (&FileLoader{Path: path}).Load(ctx)
		require.NoError(t, err)
		assert.Len(t, ds.Records, 2)
		assert.Equal(t, NameFile, ds.Source)
		assert.Equal(t, testutil.Origin, ds.Origin)
	})

	t.Run("yaml dataset", func(t *testing.T) {
		path := writeFile(t, "ds.yml", `origin: 2024-03-01T09:00:00Z
source: nightly
nodes:
  - {id: A, name: A, layer: staging, startTime: 0, executionTime: 2}
`)
		ds, err := (&FileLoader{Path: path}).Load(ctx)
		require.NoError(t, err)
		require.Len(t, ds.Records, 1)
		assert.Equal(t, "nightly", ds.Source)
	})

	t.Run("timeline payload", func(t *testing.T) {
		path := writeFile(t, "day.json", `{
			"project": {"id": 1, "name": "shop", "createdAt": "2024-01-01T00:00:00"},
			"executions": [
				{"modelExecutionId": "e2", "modelName": "fct_orders", "database": "db", "schema": "marts",
				 "dependencies": ["model.shop.stg_orders"], "startTime": "2024-03-01T09:00:05",
				 "endTime": "2024-03-01T09:00:08", "duration": 3000, "executionTimeStatus": "success"},
				{"modelExecutionId": "e1", "modelName": "stg_orders", "database": "db", "schema": "staging",
				 "dependencies": [], "startTime": "2024-03-01T09:00:00",
				 "endTime": "2024-03-01T09:00:04", "duration": 4000, "executionTimeStatus": "success"}
			],
			"timeExtent": ["2024-03-01T09:00:00", "2024-03-01T09:00:08"]
		}`)
		ds, err := (&FileLoader{Path: path}).Load(ctx)
		require.NoError(t, err)
		require.Len(t, ds.Records, 2)
		assert.Equal(t, "e1", ds.Records[0].ID)
		assert.Equal(t, "stg_orders", ds.Records[0].Name)
		assert.Equal(t, []string{"e1"}, ds.Records[1].Dependencies)
		assert.InDelta(t, 5, ds.Records[1].StartTime, 1e-9)
	})

	t.Run("history payload", func(t *testing.T) {
		path := writeFile(t, "history.json", `{"success": true, "data": [
			{"id": "stg_a", "name": "stg_a", "layer": "staging", "executionTime": 1.5,
			 "historicalDates": ["2024-03-01T06:00:00", null], "rowsProcessed": null, "costUSD": 0.02}
		]}`)
		ds, err := (&FileLoader{Path: path, Now: now}).Load(ctx)
		require.NoError(t, err)
		require.Len(t, ds.Records, 1)
		assert.Equal(t, testutil.Origin, ds.Origin)
		assert.InDelta(t, 0.02, ds.Records[0].CostUSD, 1e-9)
		assert.Len(t, ds.Records[0].HistoricalDates, 1)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := (&FileLoader{Path: writeFile(t, "ds.csv", "id\n")}).Load(ctx)
		require.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("malformed timestamp", func(t *testing.T) {
		path := writeFile(t, "bad.json", `{"project": {"id": 1}, "executions": [{"startTime": "yesterday"}]}`)
		_, err := (&FileLoader{Path: path}).Load(ctx)
		require.ErrorIs(t, err, core.ErrMalformedTimestamp)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := (&FileLoader{Path: filepath.Join(t.TempDir(), "nope.json")}).Load(ctx)
		require.Error(t, err)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})
}

var errBoom = errors.New("boom")

func failing(name string) Loader {
	return LoaderFunc{Label: name, Fn: func(context.Context) (*core.Dataset, error) { return nil, errBoom }}
}

func fixed(ds *core.Dataset) Loader {
	return LoaderFunc{Label: "fixed", Fn: func(context.Context) (*core.Dataset, error) { return ds, nil }}
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	ds, err := Load(ctx, fixed(&core.Dataset{Records: testutil.ABC().Records}), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "fixed", ds.Source, "source defaults to the loader name")

	_, err = Load(ctx, fixed(&core.Dataset{}), 0)
	require.ErrorIs(t, err, ErrEmpty)

	_, err = Load(ctx, failing("x"), 0)
	require.ErrorIs(t, err, errBoom)

	slow := LoaderFunc{Label: "slow", Fn: func(ctx context.Context) (*core.Dataset, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	_, err = Load(ctx, slow, 10*time.Millisecond)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithFallback(t *testing.T) {
	ctx := context.Background()
	logger := testutil.NewTestLogger(t)

	ds, err := WithFallback(failing("http"), logger).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, NameDemo, ds.Source)
	assert.Len(t, ds.Records, 14)

	ds, err = WithFallback(fixed(&core.Dataset{}), logger).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, NameDemo, ds.Source, "empty results fall back too")

	abc := testutil.ABC()
	ds, err = WithFallback(fixed(abc), logger).Load(ctx)
	require.NoError(t, err)
	assert.Same(t, abc, ds)
}

func TestUnwrap(t *testing.T) {
	primary := &FileLoader{Path: "run.json"}
	assert.Same(t, primary, Unwrap(WithFallback(primary, nil)))
	assert.Same(t, primary, Unwrap(primary))
}

func TestCache(t *testing.T) {
	ctx := context.Background()
	c := NewCache(nil)
	assert.Nil(t, c.Get())
	assert.Zero(t, c.Version())

	abc := testutil.ABC()
	got, err := c.Reload(ctx, fixed(abc), 0)
	require.NoError(t, err)
	assert.Same(t, abc, got)
	assert.Same(t, abc, c.Get())
	assert.Equal(t, uint64(1), c.Version())
	assert.False(t, c.LoadedAt().IsZero())

	_, err = c.Reload(ctx, failing("x"), 0)
	require.ErrorIs(t, err, errBoom)
	assert.Same(t, abc, c.Get(), "failed reload keeps the resident dataset")
	assert.Equal(t, uint64(1), c.Version())
}
