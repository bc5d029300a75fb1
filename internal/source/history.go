package source

import (
	"sort"
	"time"

	"github.com/leapstack-labs/leapline/pkg/core"
)

// historyDepth is the number of recent runs kept per model.
const historyDepth = 5

// Schedule stagger, in seconds.
const (
	stagingStagger   = 0.5
	dependentStagger = 1.0
	layerGap         = 1.0
)

// ModelHistory aggregates recent executions of one model. It is the element of
// the real-timeline-data payload and carries no start time or dependencies.
type ModelHistory struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Layer            core.Layer       `json:"layer"`
	ExecutionTime    float64          `json:"executionTime"`
	AvgExecutionTime float64          `json:"avgExecutionTime"`
	MaxExecutionTime float64          `json:"maxExecutionTime"`
	MinExecutionTime float64          `json:"minExecutionTime"`
	RunCount         int              `json:"runCount"`
	HistoricalTimes  []float64        `json:"historicalTimes"`
	HistoricalDates  []core.Timestamp `json:"historicalDates"`
	Status           string           `json:"status"`
	Performance      string           `json:"performanceStatus,omitempty"`
	Description      string           `json:"description,omitempty"`
	RowsProcessed    *int64           `json:"rowsProcessed"`
	CostUSD          *float64         `json:"costUSD"`
}

// HistoryResponse is the real-timeline-data payload.
type HistoryResponse struct {
	Success bool           `json:"success"`
	Data    []ModelHistory `json:"data"`
	Message string         `json:"message,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Record converts the history into an execution record without a schedule.
func (h ModelHistory) Record() core.ExecutionRecord {
	rec := core.ExecutionRecord{
		ID:               h.ID,
		Name:             h.Name,
		Layer:            h.Layer,
		ExecutionTime:    h.ExecutionTime,
		AvgExecutionTime: h.AvgExecutionTime,
		HistoricalTimes:  h.HistoricalTimes,
		Status:           h.Status,
		Description:      h.Description,
	}
	if rec.Name == "" {
		rec.Name = rec.ID
	}
	if rec.Status == "" {
		rec.Status = "success"
	}
	if h.RowsProcessed != nil {
		rec.RowsProcessed = *h.RowsProcessed
	}
	if h.CostUSD != nil {
		rec.CostUSD = *h.CostUSD
	}
	for _, d := range h.HistoricalDates {
		if !d.IsZero() {
			rec.HistoricalDates = append(rec.HistoricalDates, d.Time)
		}
	}
	return rec
}

// execution is one flat row of recent history.
type execution struct {
	name    string
	schema  string
	seconds float64
	status  string
	runTime time.Time
	rows    *int64
}

// aggregateHistory folds flat execution rows into per-model histories, ordered
// by average execution time, slowest first. Rows must be ordered newest first.
func aggregateHistory(rows []execution) []ModelHistory {
	type acc struct {
		h   ModelHistory
		sum float64
	}
	byName := make(map[string]*acc)
	var order []string

	for _, r := range rows {
		a, ok := byName[r.name]
		if !ok {
			a = &acc{
				h: ModelHistory{
					ID:               r.name,
					Name:             r.name,
					Layer:            core.InferLayer(r.schema, r.name),
					ExecutionTime:    r.seconds,
					MinExecutionTime: r.seconds,
					MaxExecutionTime: r.seconds,
					Status:           r.status,
					Description:      "Model from " + r.schema + " schema",
					RowsProcessed:    r.rows,
				},
			}
			byName[r.name] = a
			order = append(order, r.name)
		}
		a.sum += r.seconds
		a.h.RunCount++
		a.h.MinExecutionTime = min(a.h.MinExecutionTime, r.seconds)
		a.h.MaxExecutionTime = max(a.h.MaxExecutionTime, r.seconds)
		if len(a.h.HistoricalTimes) < historyDepth {
			a.h.HistoricalTimes = append(a.h.HistoricalTimes, r.seconds)
			a.h.HistoricalDates = append(a.h.HistoricalDates, core.Timestamp{Time: r.runTime})
		}
	}

	out := make([]ModelHistory, 0, len(order))
	for _, name := range order {
		a := byName[name]
		a.h.AvgExecutionTime = a.sum / float64(a.h.RunCount)
		if a.h.Status == "" {
			a.h.Status = "success"
		}
		out = append(out, a.h)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AvgExecutionTime > out[j].AvgExecutionTime
	})
	return out
}

// Schedule lays out models that carry history but no start times or lineage.
// Staging models start together with a small stagger; each later layer starts one
// second after the previous layer finishes and depends on every model of the
// earlier layers. Within a layer, faster models start first. Records outside the
// plotted layers are dropped.
func Schedule(records []core.ExecutionRecord) []core.ExecutionRecord {
	groups := make(map[core.Layer][]core.ExecutionRecord, len(core.PlottedLayers))
	for _, r := range records {
		if r.Layer.Rank() > core.LayerSource.Rank() {
			groups[r.Layer] = append(groups[r.Layer], r)
		}
	}

	var (
		out     []core.ExecutionRecord
		earlier []string
		current float64
	)
	for _, layer := range core.PlottedLayers {
		models := groups[layer]
		if len(models) == 0 {
			continue
		}
		sort.SliceStable(models, func(i, j int) bool {
			return models[i].ExecutionTime < models[j].ExecutionTime
		})

		stagger := dependentStagger
		if layer == core.LayerStaging {
			stagger = stagingStagger
		}

		layerEnd := current
		for i, m := range models {
			m.StartTime = current + float64(i)*stagger
			m.Dependencies = append([]string(nil), earlier...)
			if layer == core.LayerStaging {
				m.Dependencies = nil
			}
			layerEnd = max(layerEnd, m.EndTime())
			out = append(out, m)
		}
		for _, m := range models {
			earlier = append(earlier, m.ID)
		}
		current = layerEnd + layerGap
	}
	return out
}

// HistoryDataset schedules histories into a dataset anchored at origin.
func HistoryDataset(histories []ModelHistory, origin time.Time) *core.Dataset {
	records := make([]core.ExecutionRecord, 0, len(histories))
	for _, h := range histories {
		records = append(records, h.Record())
	}
	return &core.Dataset{Origin: origin, Records: Schedule(records)}
}

// HistoryOf reports the records of a resident dataset as history entries, in
// record order. Records without history count as a single run.
func HistoryOf(records []core.ExecutionRecord) []ModelHistory {
	out := make([]ModelHistory, 0, len(records))
	for _, r := range records {
		times := r.HistoricalTimes
		if len(times) == 0 {
			times = []float64{r.ExecutionTime}
		}
		h := ModelHistory{
			ID:               r.ID,
			Name:             r.Name,
			Layer:            r.Layer,
			ExecutionTime:    r.ExecutionTime,
			AvgExecutionTime: r.HistoricalAverage(),
			MinExecutionTime: times[0],
			MaxExecutionTime: times[0],
			RunCount:         len(times),
			HistoricalTimes:  times,
			Status:           r.Status,
			Description:      r.Description,
		}
		for _, t := range times[1:] {
			h.MinExecutionTime = min(h.MinExecutionTime, t)
			h.MaxExecutionTime = max(h.MaxExecutionTime, t)
		}
		for _, d := range r.HistoricalDates {
			h.HistoricalDates = append(h.HistoricalDates, core.Timestamp{Time: d})
		}
		if r.RowsProcessed > 0 {
			rows := r.RowsProcessed
			h.RowsProcessed = &rows
		}
		if r.CostUSD > 0 {
			cost := r.CostUSD
			h.CostUSD = &cost
		}
		if h.Status == "" {
			h.Status = "success"
		}
		out = append(out, h)
	}
	return out
}
