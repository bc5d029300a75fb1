package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapline/internal/source"
	"github.com/leapstack-labs/leapline/internal/testutil"
	"github.com/leapstack-labs/leapline/internal/ui/features"
	"github.com/leapstack-labs/leapline/internal/ui/features/common"
	"github.com/leapstack-labs/leapline/pkg/core"
)

func setupTestHandlers(t *testing.T, ds *core.Dataset) (*Handlers, *features.TestFixture) {
	t.Helper()
	fixture := features.SetupTestFixture(t, ds)
	return NewHandlers(fixture.Deps), fixture
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type failingHistory struct{}

func (failingHistory) History(context.Context, int) ([]source.ModelHistory, error) {
	return nil, errors.New("warehouse offline")
}

func TestProjects(t *testing.T) {
	h, fixture := setupTestHandlers(t, nil)

	rec := httptest.NewRecorder()
	h.Projects(rec, httptest.NewRequest(http.MethodGet, "/api/projects", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	fixture.AddProject(t, "shop")
	rec = httptest.NewRecorder()
	h.Projects(rec, httptest.NewRequest(http.MethodGet, "/api/projects", nil))

	projects := decode[[]core.Project](t, rec)
	require.Len(t, projects, 1)
	assert.Equal(t, "shop", projects[0].Name)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestTimeline(t *testing.T) {
	h, fixture := setupTestHandlers(t, nil)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	p := fixture.AddProject(t, "shop",
		features.TestExecution{Model: "stg_orders", Start: day.Add(9 * time.Hour), Runtime: 4 * time.Second},
		features.TestExecution{Model: "fct_orders", Start: day.Add(9*time.Hour + 4*time.Second), Runtime: 2 * time.Second, Deps: []string{"stg_orders"}},
	)

	tests := []struct {
		name       string
		projectID  string
		date       string
		wantStatus int
		wantExecs  int
	}{
		{name: "day with executions", projectID: itoa(p.ID), date: "2024-03-01", wantStatus: http.StatusOK, wantExecs: 2},
		{name: "empty day", projectID: itoa(p.ID), date: "2024-03-02", wantStatus: http.StatusOK, wantExecs: 0},
		{name: "unknown project", projectID: "999", date: "2024-03-01", wantStatus: http.StatusNotFound},
		{name: "malformed project id", projectID: "shop", date: "2024-03-01", wantStatus: http.StatusBadRequest},
		{name: "malformed date", projectID: itoa(p.ID), date: "03/01/2024", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/timeline", nil)
			req = features.RequestWithPathParams(req, "projectId", tt.projectID, "date", tt.date)
			rec := httptest.NewRecorder()

			h.Timeline(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				body := decode[common.ErrorBody](t, rec)
				assert.NotEmpty(t, body.Error)
				return
			}
			td := decode[core.TimelineData](t, rec)
			assert.Equal(t, "shop", td.Project.Name)
			assert.Len(t, td.Executions, tt.wantExecs)
			assert.False(t, td.TimeExtent[0].IsZero())
		})
	}
}

func TestRealTimelineData(t *testing.T) {
	t.Run("from resident dataset", func(t *testing.T) {
		h, _ := setupTestHandlers(t, nil)
		rec := httptest.NewRecorder()
		h.RealTimelineData(rec, httptest.NewRequest(http.MethodGet, "/api/real-timeline-data", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		resp := decode[source.HistoryResponse](t, rec)
		assert.True(t, resp.Success)
		assert.Len(t, resp.Data, 3)
		assert.Equal(t, "Loaded 3 models", resp.Message)
	})

	t.Run("history provider failure", func(t *testing.T) {
		h, fixture := setupTestHandlers(t, nil)
		fixture.Deps.History = failingHistory{}
		rec := httptest.NewRecorder()
		h.RealTimelineData(rec, httptest.NewRequest(http.MethodGet, "/api/real-timeline-data", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		resp := decode[source.HistoryResponse](t, rec)
		assert.False(t, resp.Success)
		assert.Equal(t, "warehouse offline", resp.Error)
	})
}

func TestScene(t *testing.T) {
	tests := []struct {
		name       string
		ds         *core.Dataset
		query      string
		wantStatus int
		check      func(t *testing.T, scene core.Scene)
	}{
		{
			name:       "full extent",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, scene core.Scene) {
				assert.Len(t, scene.Bars, 3)
				assert.Equal(t, []string{"A", "B"}, scene.CriticalPath.IDs)
				assert.InDelta(t, 5, scene.CriticalPath.Length, 1e-9)
				assert.False(t, scene.Window.Zoomed)
			},
		},
		{
			name:       "zoomed with focus and selection",
			query:      "?start=50&end=100&focus=B&selected=C",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, scene core.Scene) {
				assert.True(t, scene.Window.Zoomed)
				assert.Equal(t, "B", scene.Focus)
				require.NotNil(t, scene.Selected)
				assert.Equal(t, "C", scene.Selected.Name)
			},
		},
		{
			name:       "start only",
			query:      "?start=25",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, scene core.Scene) {
				assert.InDelta(t, 25, scene.Window.StartPercent, 1e-9)
				assert.InDelta(t, 100, scene.Window.EndPercent, 1e-9)
			},
		},
		{
			name:       "viewport width",
			query:      "?width=900",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, scene core.Scene) {
				assert.Less(t, scene.Width, sceneWidth(t, 2000))
			},
		},
		{name: "inverted window", query: "?start=80&end=20", wantStatus: http.StatusBadRequest},
		{name: "malformed start", query: "?start=half", wantStatus: http.StatusBadRequest},
		{name: "non-positive width", query: "?width=0", wantStatus: http.StatusBadRequest},
		{name: "infinite width", query: "?width=Inf", wantStatus: http.StatusBadRequest},
		{name: "NaN start", query: "?start=NaN", wantStatus: http.StatusBadRequest},
		{
			name: "cycle",
			ds: testutil.Dataset(
				testutil.Record("A", core.LayerStaging, 0, 1, "B"),
				testutil.Record("B", core.LayerStaging, 1, 1, "A"),
			),
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := setupTestHandlers(t, tt.ds)
			rec := httptest.NewRecorder()

			h.Scene(rec, httptest.NewRequest(http.MethodGet, "/api/scene"+tt.query, nil))

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.check != nil {
				tt.check(t, decode[core.Scene](t, rec))
			}
		})
	}
}

func TestScene_CycleBody(t *testing.T) {
	h, _ := setupTestHandlers(t, testutil.Dataset(
		testutil.Record("A", core.LayerStaging, 0, 1, "B"),
		testutil.Record("B", core.LayerStaging, 1, 1, "A"),
	))
	rec := httptest.NewRecorder()
	h.Scene(rec, httptest.NewRequest(http.MethodGet, "/api/scene", nil))

	body := decode[common.ErrorBody](t, rec)
	assert.Contains(t, body.Error, "cyclic dependency")
	assert.NotEmpty(t, body.Cycle)
}

func TestScene_NoDataset(t *testing.T) {
	h, fixture := setupTestHandlers(t, nil)
	fixture.Cache.Set(nil)
	rec := httptest.NewRecorder()
	h.Scene(rec, httptest.NewRequest(http.MethodGet, "/api/scene", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func sceneWidth(t *testing.T, width int) float64 {
	t.Helper()
	h, _ := setupTestHandlers(t, nil)
	rec := httptest.NewRecorder()
	h.Scene(rec, httptest.NewRequest(http.MethodGet, "/api/scene?width="+strconv.Itoa(width), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return decode[core.Scene](t, rec).Width
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
