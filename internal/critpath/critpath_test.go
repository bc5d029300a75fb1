package critpath

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapline/internal/dag"
	"github.com/leapstack-labs/leapline/pkg/core"
)

func node(id string, exec float64, deps ...string) core.ExecutionRecord {
	return core.ExecutionRecord{ID: id, Name: id, Layer: core.LayerStaging, ExecutionTime: exec, Dependencies: deps}
}

func TestCompute_Scenario(t *testing.T) {
	g := dag.Build([]core.ExecutionRecord{
		node("A", 2),
		node("B", 3, "A"),
		node("C", 1, "A"),
	})

	res, err := Compute(g, Options{})
	require.NoError(t, err)

	assert.InDelta(t, 2.0, res.Times["A"], 1e-9)
	assert.InDelta(t, 5.0, res.Times["B"], 1e-9)
	assert.InDelta(t, 3.0, res.Times["C"], 1e-9)
	assert.InDelta(t, 5.0, res.Length, 1e-9)

	assert.True(t, res.Contains("A"))
	assert.True(t, res.Contains("B"))
	assert.False(t, res.Contains("C"))
	assert.Equal(t, []string{"A", "B"}, res.Path())
	assert.True(t, res.OnEdge("A", "B"))
	assert.False(t, res.OnEdge("A", "C"))
}

func TestCompute_DanglingDependencyContributesNothing(t *testing.T) {
	g := dag.Build([]core.ExecutionRecord{
		node("A", 2, "missing"),
		node("B", 3, "A"),
	})

	res, err := Compute(g, Options{})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, res.Times["A"], 1e-9)
	assert.InDelta(t, 5.0, res.Times["B"], 1e-9)
	assert.NotContains(t, res.Times, "missing")
}

func TestCompute_Cycle(t *testing.T) {
	tests := []struct {
		name    string
		records []core.ExecutionRecord
	}{
		{"two nodes", []core.ExecutionRecord{node("X", 1, "Y"), node("Y", 1, "X")}},
		{"self dependency", []core.ExecutionRecord{node("X", 1, "X")}},
		{"cycle behind a chain", []core.ExecutionRecord{
			node("A", 1),
			node("B", 1, "A", "D"),
			node("C", 1, "B"),
			node("D", 1, "C"),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(dag.Build(tt.records), Options{})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrCyclicDependency)

			var cycleErr *CycleError
			require.True(t, errors.As(err, &cycleErr))
			assert.GreaterOrEqual(t, len(cycleErr.Path), 2)
			assert.Equal(t, cycleErr.Path[0], cycleErr.Path[len(cycleErr.Path)-1])
		})
	}
}

func TestCompute_Ties(t *testing.T) {
	g := dag.Build([]core.ExecutionRecord{
		node("A", 2),
		node("B", 2),
		node("C", 3, "A", "B"),
		node("D", 1),
	})

	res, err := Compute(g, Options{})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, res.Length, 1e-9)
	assert.True(t, res.Contains("A"))
	assert.True(t, res.Contains("B"))
	assert.True(t, res.Contains("C"))
	assert.False(t, res.Contains("D"))
}

func TestCompute_ToleranceIsConfigurable(t *testing.T) {
	records := []core.ExecutionRecord{
		node("A", 2.00),
		node("B", 2.05),
		node("C", 1, "A", "B"),
	}

	res, err := Compute(dag.Build(records), Options{Tolerance: DefaultTolerance})
	require.NoError(t, err)
	assert.False(t, res.Contains("A"), "0.05 apart is beyond the default tolerance")

	res, err = Compute(dag.Build(records), Options{Tolerance: 0.1})
	require.NoError(t, err)
	assert.True(t, res.Contains("A"))
	assert.True(t, res.Contains("B"))
}

func TestCompute_ToleranceBounds(t *testing.T) {
	records := []core.ExecutionRecord{
		node("A", 2.000),
		node("B", 2.005),
		node("C", 1, "A", "B"),
	}

	tests := []struct {
		name      string
		tolerance float64
		wantA     bool
	}{
		{"exact", 0, false},
		{"negative uses the default", -1, true},
		{"default", DefaultTolerance, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Compute(dag.Build(records), Options{Tolerance: tt.tolerance})
			require.NoError(t, err)
			assert.Equal(t, tt.wantA, res.Contains("A"))
			assert.True(t, res.Contains("B"))
			assert.True(t, res.Contains("C"))
		})
	}
}

func TestCompute_Properties(t *testing.T) {
	records := []core.ExecutionRecord{
		node("s1", 1.2),
		node("s2", 0.8),
		node("s3", 2.1),
		node("i1", 4.1, "s1", "s3"),
		node("i2", 2.8, "s2", "s3"),
		node("m1", 5.8, "i1", "i2", "s3"),
		node("m2", 3.4, "m1", "s1"),
		node("m3", 1.1, "s2"),
	}
	g := dag.Build(records)
	res, err := Compute(g, Options{})
	require.NoError(t, err)

	hasMax := false
	for _, r := range records {
		best := 0.0
		for _, dep := range g.Dependencies(r.ID) {
			best = max(best, res.Times[dep])
		}
		assert.InDelta(t, r.ExecutionTime+best, res.Times[r.ID], 1e-9, r.ID)
		if len(r.Dependencies) == 0 {
			assert.InDelta(t, r.ExecutionTime, res.Times[r.ID], 1e-9, r.ID)
		}
		if res.Contains(r.ID) && res.Times[r.ID] == res.Length {
			hasMax = true
		}
	}
	assert.True(t, hasMax, "critical set must contain a node at the global maximum")
	assert.Equal(t, []string{"s3", "i1", "m1", "m2"}, res.Path())
}

func TestCompute_DeepChainDoesNotRecurse(t *testing.T) {
	const depth = 100_000
	records := make([]core.ExecutionRecord, depth)
	for i := range records {
		records[i] = node(fmt.Sprintf("n%d", i), 1)
		if i > 0 {
			records[i].Dependencies = []string{fmt.Sprintf("n%d", i-1)}
		}
	}
	// start the walk from the deepest node
	records[0], records[depth-1] = records[depth-1], records[0]

	res, err := Compute(dag.Build(records), Options{})
	require.NoError(t, err)
	assert.InDelta(t, float64(depth), res.Length, 1e-6)
	assert.Len(t, res.Set, depth)
}

func TestCompute_Empty(t *testing.T) {
	res, err := Compute(dag.Build(nil), Options{})
	require.NoError(t, err)
	assert.Zero(t, res.Length)
	assert.Empty(t, res.Set)
}
