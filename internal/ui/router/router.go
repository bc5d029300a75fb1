// Package router sets up HTTP routes for the UI server.
package router

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/starfederation/datastar-go/datastar"

	apiFeature "github.com/leapstack-labs/leapline/internal/ui/features/api"
	"github.com/leapstack-labs/leapline/internal/ui/features/common"
	timelineFeature "github.com/leapstack-labs/leapline/internal/ui/features/timeline"
	"github.com/leapstack-labs/leapline/internal/ui/resources"
)

// Health is the /healthz payload.
type Health struct {
	Status   string    `json:"status"`
	Version  uint64    `json:"datasetVersion"`
	Nodes    int       `json:"nodes"`
	Source   string    `json:"source,omitempty"`
	LoadedAt time.Time `json:"loadedAt"`
}

// SetupRoutes configures all routes for the UI server.
func SetupRoutes(router chi.Router, deps *common.Deps) error {
	// Hot reload endpoint for dev mode
	if deps.IsDev {
		setupReload(router)
	}

	// Static assets
	router.Handle("/static/*", resources.Handler())

	// Feature routes
	if err := timelineFeature.SetupRoutes(router, deps); err != nil {
		return err
	}

	if err := apiFeature.SetupRoutes(router, deps); err != nil {
		return err
	}

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		h := Health{Status: "ok", Version: deps.Cache.Version(), LoadedAt: deps.Cache.LoadedAt()}
		if ds := deps.Cache.Get(); ds != nil {
			h.Nodes = len(ds.Records)
			h.Source = ds.Source
		} else {
			h.Status = "empty"
		}
		if err := common.WriteJSON(w, http.StatusOK, h); err != nil {
			deps.Log().Error("failed to write health", "error", err)
		}
	})

	return nil
}

func setupReload(router chi.Router) {
	reloadChan := make(chan struct{}, 1)
	var hotReloadOnce sync.Once

	router.Get("/reload", func(w http.ResponseWriter, r *http.Request) {
		sse := datastar.NewSSE(w, r)
		reload := func() { _ = sse.ExecuteScript("window.location.reload()") }
		hotReloadOnce.Do(reload)
		select {
		case <-reloadChan:
			reload()
		case <-r.Context().Done():
		}
	})

	router.Get("/hotreload", func(w http.ResponseWriter, _ *http.Request) {
		select {
		case reloadChan <- struct{}{}:
		default:
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}
