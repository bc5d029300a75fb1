package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapline/internal/testutil"
)

func newBackend(t *testing.T, routes map[string]func(w http.ResponseWriter)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		handler(w)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func jsonBody(status int, body string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestClient_Projects(t *testing.T) {
	srv := newBackend(t, map[string]func(http.ResponseWriter){
		"/api/projects": jsonBody(http.StatusOK,
			`[{"id": 1, "name": "shop", "description": "E-commerce", "createdAt": "2024-01-01T00:00:00"}]`),
	})

	projects, err := NewClient(srv.URL + "/").Projects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, int64(1), projects[0].ID)
	assert.Equal(t, "shop", projects[0].Name)
	assert.Equal(t, 2024, projects[0].CreatedAt.Year())
}

func TestClient_Timeline(t *testing.T) {
	srv := newBackend(t, map[string]func(http.ResponseWriter){
		"/api/timeline/7/2024-03-01": jsonBody(http.StatusOK, `{
			"project": {"id": 7, "name": "shop"},
			"executions": [],
			"timeExtent": ["2024-03-01T00:00:00Z", "2024-03-02T00:00:00Z"]
		}`),
	})

	td, err := NewClient(srv.URL).Timeline(context.Background(), 7, "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, "shop", td.Project.Name)
	assert.Empty(t, td.Executions)

	_, err = NewClient(srv.URL).Timeline(context.Background(), 8, "2024-03-01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestClient_History(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := newBackend(t, map[string]func(http.ResponseWriter){
			"/api/real-timeline-data": jsonBody(http.StatusOK, `{"success": true, "data": [
				{"id": "stg_a", "name": "stg_a", "layer": "staging", "executionTime": 1.5},
				{"id": "fct_b", "name": "fct_b", "layer": "marts", "executionTime": 4}
			], "message": "Found 2 models"}`),
		})

		loader := &HTTPLoader{Client: NewClient(srv.URL), Now: func() time.Time { return testutil.Origin }}
		ds, err := loader.Load(context.Background())
		require.NoError(t, err)
		require.Len(t, ds.Records, 2)
		assert.Equal(t, NameHTTP, ds.Source)
		assert.Equal(t, []string{"stg_a"}, ds.Records[1].Dependencies)
		assert.InDelta(t, 2.5, ds.Records[1].StartTime, 1e-9)
	})

	t.Run("backend failure payload", func(t *testing.T) {
		srv := newBackend(t, map[string]func(http.ResponseWriter){
			"/api/real-timeline-data": jsonBody(http.StatusInternalServerError,
				`{"success": false, "error": "relation does not exist", "message": "Could not retrieve"}`),
		})

		_, err := NewClient(srv.URL).History(context.Background())
		require.ErrorIs(t, err, ErrBackend)
		assert.Contains(t, err.Error(), "relation does not exist")
	})

	t.Run("falls back to demo", func(t *testing.T) {
		srv := newBackend(t, map[string]func(http.ResponseWriter){
			"/api/real-timeline-data": jsonBody(http.StatusOK, `{"success": true, "data": []}`),
		})

		loader := WithFallback(&HTTPLoader{Client: NewClient(srv.URL)}, testutil.NewTestLogger(t))
		ds, err := loader.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, NameDemo, ds.Source)
	})
}

func TestHTTPLoader_Timeline(t *testing.T) {
	srv := newBackend(t, map[string]func(http.ResponseWriter){
		"/api/timeline/1/2024-03-01": jsonBody(http.StatusOK, `{
			"project": {"id": 1, "name": "shop"},
			"executions": [
				{"modelExecutionId": "e1", "modelName": "stg_orders", "schema": "staging",
				 "dependencies": [], "startTime": "2024-03-01T09:00:00Z",
				 "endTime": "2024-03-01T09:00:04Z", "duration": 4000, "executionTimeStatus": "success"}
			],
			"timeExtent": ["2024-03-01T09:00:00Z", "2024-03-01T09:00:04Z"]
		}`),
	})

	ds, err := (&HTTPLoader{Client: NewClient(srv.URL), ProjectID: 1, Date: "2024-03-01"}).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, ds.Records, 1)
	assert.Equal(t, testutil.Origin, ds.Origin)
	assert.Equal(t, NameHTTP, ds.Source)
}
