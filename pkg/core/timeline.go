package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Project is a dbt project whose executions are recorded.
type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   Timestamp `json:"createdAt"`
}

// TimelineExecution is one execution in the timestamped timeline variant.
type TimelineExecution struct {
	ModelExecutionID    string              `json:"modelExecutionId"`
	ModelName           string              `json:"modelName"`
	Database            string              `json:"database"`
	Schema              string              `json:"schema"`
	Dependencies        []string            `json:"dependencies"`
	StartTime           Timestamp           `json:"startTime"`
	EndTime             Timestamp           `json:"endTime"`
	Duration            int64               `json:"duration"` // milliseconds
	ExecutionTimeStatus ExecutionTimeStatus `json:"executionTimeStatus"`
}

// NewTimelineExecution builds an execution from a start time and runtime,
// deriving the end time, millisecond duration and status.
func NewTimelineExecution(id, model, database, schema string, deps []string, start time.Time, runtime time.Duration) TimelineExecution {
	ms := runtime.Milliseconds()
	return TimelineExecution{
		ModelExecutionID:    id,
		ModelName:           model,
		Database:            database,
		Schema:              schema,
		Dependencies:        deps,
		StartTime:           Timestamp{start},
		EndTime:             Timestamp{start.Add(time.Duration(ms) * time.Millisecond)},
		Duration:            ms,
		ExecutionTimeStatus: ClassifyDuration(time.Duration(ms) * time.Millisecond),
	}
}

// TimelineData is the payload of the per-project, per-day timeline endpoint.
type TimelineData struct {
	Project    Project             `json:"project"`
	Executions []TimelineExecution `json:"executions"`
	TimeExtent [2]Timestamp        `json:"timeExtent"`
}

// TimeExtentOf returns [min start, max end] over the executions.
// With no executions the extent is the whole day starting at day 00:00.
func TimeExtentOf(execs []TimelineExecution, day time.Time) [2]Timestamp {
	if len(execs) == 0 {
		start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		return [2]Timestamp{{start}, {start.Add(24 * time.Hour)}}
	}
	lo, hi := execs[0].StartTime.Time, execs[0].EndTime.Time
	for _, e := range execs[1:] {
		if e.StartTime.Before(lo) {
			lo = e.StartTime.Time
		}
		if e.EndTime.After(hi) {
			hi = e.EndTime.Time
		}
	}
	return [2]Timestamp{{lo}, {hi}}
}

// Dataset converts the timeline payload into records relative to the earliest start.
// Each execution becomes one record keyed by its execution id, or by its model name
// when it has none. A dependency names a model; it resolves to the latest execution
// of that model that started no later than the dependent. dbt unique ids
// ("model.pkg.name") are reduced to their final segment. Layers are inferred from
// schema and name. An execution without a start or end time is an error.
func (d *TimelineData) Dataset() (*Dataset, error) {
	execs := make([]TimelineExecution, len(d.Executions))
	copy(execs, d.Executions)
	for _, e := range execs {
		if e.StartTime.IsZero() || e.EndTime.IsZero() {
			return nil, fmt.Errorf("%w: execution %q of %s has no start or end time",
				ErrMalformedTimestamp, e.ModelExecutionID, e.ModelName)
		}
	}
	sort.SliceStable(execs, func(i, j int) bool {
		return execs[i].StartTime.Before(execs[j].StartTime.Time)
	})

	ds := &Dataset{Source: "timeline"}
	if len(execs) == 0 {
		ds.Origin = d.TimeExtent[0].Time
		return ds, nil
	}
	ds.Origin = execs[0].StartTime.Time

	// runs holds the positions of each model's executions in start order
	runs := make(map[string][]int, len(execs))
	for i, e := range execs {
		runs[e.ModelName] = append(runs[e.ModelName], i)
	}

	for _, e := range execs {
		deps := make([]string, 0, len(e.Dependencies))
		for _, dep := range e.Dependencies {
			name := ModelNameFromUniqueID(dep)
			deps = append(deps, resolveDependency(execs, runs[name], e.StartTime.Time, name))
		}
		ds.Records = append(ds.Records, ExecutionRecord{
			ID:            e.recordID(),
			Name:          e.ModelName,
			Layer:         InferLayer(e.Schema, e.ModelName),
			StartTime:     e.StartTime.Sub(ds.Origin).Seconds(),
			ExecutionTime: float64(e.Duration) / 1000,
			Dependencies:  deps,
			Status:        string(e.ExecutionTimeStatus),
		})
	}
	return ds, nil
}

func (e TimelineExecution) recordID() string {
	if e.ModelExecutionID != "" {
		return e.ModelExecutionID
	}
	return e.ModelName
}

// resolveDependency returns the record id of the latest run in runs that started
// no later than start. Without such a run the model name is returned unchanged.
func resolveDependency(execs []TimelineExecution, runs []int, start time.Time, name string) string {
	for i := len(runs) - 1; i >= 0; i-- {
		if run := execs[runs[i]]; !run.StartTime.After(start) {
			return run.recordID()
		}
	}
	return name
}

// ModelNameFromUniqueID returns the last dot-separated segment of a dbt unique id.
func ModelNameFromUniqueID(id string) string {
	if i := strings.LastIndexByte(id, '.'); i >= 0 {
		return id[i+1:]
	}
	return id
}

// timestampLayouts are the accepted input layouts, tried in order.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Timestamp is a time that decodes from RFC 3339 or the naive ISO forms
// emitted by Python backends. Naive values are interpreted as UTC.
// It encodes as RFC 3339.
type Timestamp struct {
	time.Time
}

// ParseTimestamp parses s using the accepted layouts.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, s)
}

// MarshalJSON encodes the timestamp as RFC 3339, or null when zero.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}

// UnmarshalJSON decodes a timestamp string. null leaves the zero value.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedTimestamp, data)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
