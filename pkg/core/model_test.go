package core

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutionRecordValidate(t *testing.T) {
	valid := ExecutionRecord{ID: "a", Layer: LayerStaging, StartTime: 0, ExecutionTime: 1}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(r *ExecutionRecord)
	}{
		{"empty id", func(r *ExecutionRecord) { r.ID = "" }},
		{"unknown layer", func(r *ExecutionRecord) { r.Layer = "gold" }},
		{"negative execution time", func(r *ExecutionRecord) { r.ExecutionTime = -1 }},
		{"nan start", func(r *ExecutionRecord) { r.StartTime = math.NaN() }},
		{"inf execution", func(r *ExecutionRecord) { r.ExecutionTime = math.Inf(1) }},
		{"negative rows", func(r *ExecutionRecord) { r.RowsProcessed = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			assert.ErrorIs(t, r.Validate(), ErrInvalidRecord)
		})
	}
}

func TestHistoricalAverage(t *testing.T) {
	r := ExecutionRecord{ExecutionTime: 3, AvgExecutionTime: 2, HistoricalTimes: []float64{1, 2, 3}}
	assert.InDelta(t, 2.0, r.HistoricalAverage(), 1e-9)

	r.HistoricalTimes = nil
	assert.InDelta(t, 2.0, r.HistoricalAverage(), 1e-9)

	r.AvgExecutionTime = 0
	assert.InDelta(t, 3.0, r.HistoricalAverage(), 1e-9)
}

func TestDatasetAt(t *testing.T) {
	origin := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ds := &Dataset{Origin: origin}
	assert.Equal(t, origin.Add(1500*time.Millisecond), ds.At(1.5))
	assert.True(t, ds.Empty())
}

func TestClassify(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		name string
		rec  ExecutionRecord
		want PerformanceStatus
	}{
		{"critical", ExecutionRecord{Layer: LayerMarts, ExecutionTime: 5.8, AvgExecutionTime: 5.2}, PerformanceCritical},
		{"slow", ExecutionRecord{Layer: LayerStaging, ExecutionTime: 3.2, AvgExecutionTime: 2.8}, PerformanceSlow},
		{"fast", ExecutionRecord{Layer: LayerStaging, ExecutionTime: 0.5, AvgExecutionTime: 1.0}, PerformanceFast},
		{"normal", ExecutionRecord{Layer: LayerStaging, ExecutionTime: 1.2, AvgExecutionTime: 1.1}, PerformanceNormal},
		{"no average", ExecutionRecord{Layer: LayerStaging, ExecutionTime: 1.2}, PerformanceNormal},
		{"source ignored", ExecutionRecord{Layer: LayerSource, ExecutionTime: 9}, PerformanceNormal},
		{"exactly critical threshold is slow", ExecutionRecord{Layer: LayerMarts, ExecutionTime: 5}, PerformanceSlow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, th.Classify(tt.rec))
		})
	}
}

func TestClassifyDuration(t *testing.T) {
	assert.Equal(t, ExecutionSuccess, ClassifyDuration(4*time.Minute+59*time.Second))
	assert.Equal(t, ExecutionWarning, ClassifyDuration(5*time.Minute))
	assert.Equal(t, ExecutionWarning, ClassifyDuration(14*time.Minute))
	assert.Equal(t, ExecutionDanger, ClassifyDuration(15*time.Minute))
}

func TestNodeAccessors(t *testing.T) {
	n := NewNode(ExecutionRecord{ID: "x", Layer: LayerMarts}, PerformanceSlow, 7.5)
	assert.Equal(t, "x", n.ID())
	assert.Equal(t, LayerMarts, n.Layer())
	assert.Equal(t, PerformanceSlow, n.PerformanceStatus())
	assert.InDelta(t, 7.5, n.CriticalPathTime(), 1e-9)
}

func TestConnectorPathData(t *testing.T) {
	c := Connector{
		Start: Point{X: 10, Y: 20},
		C1:    Point{X: 30, Y: 24},
		C2:    Point{X: 70, Y: 56},
		End:   Point{X: 90, Y: 60},
	}
	assert.Equal(t, "M 10.00 20.00 C 30.00 24.00, 70.00 56.00, 90.00 60.00", c.PathData())
}
