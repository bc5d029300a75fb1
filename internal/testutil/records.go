package testutil

import (
	"time"

	"github.com/leapstack-labs/leapline/pkg/core"
)

// Origin is the fixed time origin used by test datasets.
var Origin = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// Record builds an execution record for tests.
func Record(id string, layer core.Layer, start, exec float64, deps ...string) core.ExecutionRecord {
	return core.ExecutionRecord{
		ID:            id,
		Name:          id,
		Layer:         layer,
		StartTime:     start,
		ExecutionTime: exec,
		Dependencies:  deps,
	}
}

// Dataset wraps records in a dataset anchored at Origin.
func Dataset(records ...core.ExecutionRecord) *core.Dataset {
	return &core.Dataset{Origin: Origin, Records: records, Source: "test"}
}

// ABC returns the three-node reference dataset: B and C both depend on A,
// and A -> B is the critical path.
func ABC() *core.Dataset {
	return Dataset(
		Record("A", core.LayerStaging, 0, 2),
		Record("B", core.LayerIntermediate, 2, 3, "A"),
		Record("C", core.LayerIntermediate, 2, 1, "A"),
	)
}
