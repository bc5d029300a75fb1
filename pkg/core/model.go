package core

import (
	"fmt"
	"math"
	"time"
)

// ExecutionRecord is one completed model execution, as delivered by a data source.
// Times are seconds relative to the owning Dataset's Origin.
type ExecutionRecord struct {
	// ID uniquely identifies the model within a dataset
	ID string `json:"id" yaml:"id"`
	// Name is the model name shown on labels
	Name string `json:"name" yaml:"name"`
	// Layer is the pipeline stage of the model
	Layer Layer `json:"layer" yaml:"layer"`
	// StartTime is the offset of the execution start, in seconds
	StartTime float64 `json:"startTime" yaml:"startTime"`
	// ExecutionTime is the duration of the execution, in seconds
	ExecutionTime float64 `json:"executionTime" yaml:"executionTime"`
	// Dependencies are the IDs of upstream models
	Dependencies []string `json:"dependencies" yaml:"dependencies"`

	RowsProcessed    int64       `json:"rowsProcessed,omitempty" yaml:"rowsProcessed,omitempty"`
	CostUSD          float64     `json:"costUSD,omitempty" yaml:"costUSD,omitempty"`
	Status           string      `json:"status,omitempty" yaml:"status,omitempty"`
	HistoricalTimes  []float64   `json:"historicalTimes,omitempty" yaml:"historicalTimes,omitempty"`
	HistoricalDates  []time.Time `json:"historicalDates,omitempty" yaml:"historicalDates,omitempty"`
	AvgExecutionTime float64     `json:"avgExecutionTime,omitempty" yaml:"avgExecutionTime,omitempty"`
	Description      string      `json:"description,omitempty" yaml:"description,omitempty"`
}

// EndTime returns StartTime + ExecutionTime.
func (r ExecutionRecord) EndTime() float64 {
	return r.StartTime + r.ExecutionTime
}

// HistoricalAverage returns the mean of HistoricalTimes, falling back to
// AvgExecutionTime and then ExecutionTime when no history is present.
func (r ExecutionRecord) HistoricalAverage() float64 {
	if len(r.HistoricalTimes) > 0 {
		var sum float64
		for _, t := range r.HistoricalTimes {
			sum += t
		}
		return sum / float64(len(r.HistoricalTimes))
	}
	if r.AvgExecutionTime > 0 {
		return r.AvgExecutionTime
	}
	return r.ExecutionTime
}

// Validate checks the record for values the engine cannot lay out.
func (r ExecutionRecord) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidRecord)
	}
	if !r.Layer.Valid() {
		return fmt.Errorf("%w: %s: %w %q", ErrInvalidRecord, r.ID, ErrUnknownLayer, r.Layer)
	}
	for name, v := range map[string]float64{
		"startTime":        r.StartTime,
		"executionTime":    r.ExecutionTime,
		"costUSD":          r.CostUSD,
		"avgExecutionTime": r.AvgExecutionTime,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s: %s is not finite", ErrInvalidRecord, r.ID, name)
		}
	}
	if r.ExecutionTime < 0 {
		return fmt.Errorf("%w: %s: negative executionTime %g", ErrInvalidRecord, r.ID, r.ExecutionTime)
	}
	if r.RowsProcessed < 0 {
		return fmt.Errorf("%w: %s: negative rowsProcessed %d", ErrInvalidRecord, r.ID, r.RowsProcessed)
	}
	return nil
}

// Dataset is a set of execution records sharing a time origin.
type Dataset struct {
	// Origin is the wall-clock instant that StartTime offsets are relative to
	Origin time.Time `json:"origin" yaml:"origin"`
	// Records are the executions, in source order
	Records []ExecutionRecord `json:"nodes" yaml:"nodes"`
	// Source describes where the dataset came from (demo, file, http, ...)
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

// Validate validates every record in the dataset.
func (d *Dataset) Validate() error {
	for i := range d.Records {
		if err := d.Records[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Empty reports whether the dataset holds no records.
func (d *Dataset) Empty() bool {
	return d == nil || len(d.Records) == 0
}

// At converts a StartTime-style offset into wall-clock time.
func (d *Dataset) At(offset float64) time.Time {
	return d.Origin.Add(time.Duration(offset * float64(time.Second)))
}

// Node is a record enriched with fields derived during a rebuild.
// Nodes are built fresh on every rebuild and are never modified afterwards.
type Node struct {
	record           ExecutionRecord
	performance      PerformanceStatus
	criticalPathTime float64
}

// NewNode builds a node from a record and its derived values.
func NewNode(rec ExecutionRecord, perf PerformanceStatus, criticalPathTime float64) Node {
	return Node{record: rec, performance: perf, criticalPathTime: criticalPathTime}
}

// Record returns the input record the node was built from.
func (n Node) Record() ExecutionRecord { return n.record }

// ID returns the node id.
func (n Node) ID() string { return n.record.ID }

// Layer returns the node layer.
func (n Node) Layer() Layer { return n.record.Layer }

// PerformanceStatus returns the classification computed for this rebuild.
func (n Node) PerformanceStatus() PerformanceStatus { return n.performance }

// CriticalPathTime returns the longest cumulative execution time ending at this node.
func (n Node) CriticalPathTime() float64 { return n.criticalPathTime }

// Edge is a dependency relationship: Target depends on Source.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	// Layer is the target's layer, used for styling
	Layer Layer `json:"layer"`
}
