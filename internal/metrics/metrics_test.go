package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRebuild(t *testing.T) {
	before := testutil.ToFloat64(rebuildsTotal.WithLabelValues(ResultCycle))
	droppedBefore := testutil.ToFloat64(droppedDependencies)

	ObserveRebuild(ResultCycle, time.Millisecond, 2)

	assert.InDelta(t, before+1, testutil.ToFloat64(rebuildsTotal.WithLabelValues(ResultCycle)), 1e-9)
	assert.InDelta(t, droppedBefore+2, testutil.ToFloat64(droppedDependencies), 1e-9)
}

func TestSetDatasetNodes(t *testing.T) {
	SetDatasetNodes(14)
	assert.InDelta(t, 14, testutil.ToFloat64(datasetNodes), 1e-9)
}

func TestIncFallback(t *testing.T) {
	before := testutil.ToFloat64(fallbackTotal.WithLabelValues("http"))
	IncFallback("http")
	assert.InDelta(t, before+1, testutil.ToFloat64(fallbackTotal.WithLabelValues("http")), 1e-9)
}
