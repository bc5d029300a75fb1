package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/leapline/internal/connector"
	"github.com/leapstack-labs/leapline/internal/engine"
	"github.com/leapstack-labs/leapline/internal/source"
	"github.com/leapstack-labs/leapline/internal/ui/features/common"
	"github.com/leapstack-labs/leapline/pkg/core"
)

// Handlers provides HTTP handlers for the api feature.
type Handlers struct {
	deps *common.Deps
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps *common.Deps) *Handlers {
	return &Handlers{deps: deps}
}

// Projects lists the projects in the state store.
func (h *Handlers) Projects(w http.ResponseWriter, r *http.Request) {
	out := []core.Project{}
	if h.deps.Store != nil {
		projects, err := h.deps.Store.ListProjects(r.Context())
		if err != nil {
			common.WriteError(w, err)
			return
		}
		for _, p := range projects {
			out = append(out, *p)
		}
	}
	h.writeJSON(w, http.StatusOK, out)
}

// Timeline returns one project's executions on one day.
func (h *Handlers) Timeline(w http.ResponseWriter, r *http.Request) {
	rawID := chi.URLParam(r, "projectId")
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		common.WriteError(w, &common.ParamError{Name: "projectId", Value: rawID})
		return
	}
	rawDate := chi.URLParam(r, "date")
	day, err := time.Parse(time.DateOnly, rawDate)
	if err != nil {
		common.WriteError(w, &common.ParamError{Name: "date", Value: rawDate})
		return
	}
	if h.deps.Store == nil {
		common.WriteError(w, fmt.Errorf("project %d: %w", id, core.ErrNotFound))
		return
	}

	td, err := h.deps.Store.GetTimelineData(r.Context(), id, day)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, td)
}

// RealTimelineData returns recent per-model execution history, read from the
// warehouse when one is configured and from the resident dataset otherwise.
func (h *Handlers) RealTimelineData(w http.ResponseWriter, r *http.Request) {
	var (
		data []source.ModelHistory
		err  error
	)
	if h.deps.History != nil {
		data, err = h.deps.History.History(r.Context(), source.DefaultHistoryRuns)
	} else if ds := h.deps.Cache.Get(); ds != nil {
		data = source.HistoryOf(ds.Records)
	}
	if err != nil {
		h.deps.Log().Error("failed to read execution history", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, source.HistoryResponse{
			Success: false,
			Data:    []source.ModelHistory{},
			Error:   err.Error(),
		})
		return
	}
	if data == nil {
		data = []source.ModelHistory{}
	}

	h.writeJSON(w, http.StatusOK, source.HistoryResponse{
		Success: true,
		Data:    data,
		Message: fmt.Sprintf("Loaded %d models", len(data)),
	})
}

// Scene rebuilds the resident dataset with the window, focus and selection
// given in the query string and returns the scene.
func (h *Handlers) Scene(w http.ResponseWriter, r *http.Request) {
	opts, cfg, err := h.sceneOptions(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	ds := h.deps.Cache.Get()
	if ds == nil {
		common.WriteError(w, engine.ErrNoDataset)
		return
	}

	scene, err := engine.Render(ds, cfg, opts)
	if err != nil {
		h.deps.Log().Debug("scene rebuild failed", "error", err)
		common.WriteError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, scene)
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	if err := common.WriteJSON(w, status, v); err != nil {
		h.deps.Log().Error("failed to write response", "error", err)
	}
}

func (h *Handlers) sceneOptions(r *http.Request) (engine.Options, engine.Config, error) {
	q := r.URL.Query()
	opts := engine.Options{Focus: q.Get("focus"), Selected: q.Get("selected")}
	cfg := h.deps.Engine
	cfg.Logger = h.deps.Logger

	start, hasStart, err := common.FloatParam(r, "start")
	if err != nil {
		return opts, cfg, err
	}
	end, hasEnd, err := common.FloatParam(r, "end")
	if err != nil {
		return opts, cfg, err
	}
	if hasStart || hasEnd {
		if !hasEnd {
			end = 100
		}
		opts.Window = &[2]float64{start, end}
	}

	width, hasWidth, err := common.FloatParam(r, "width")
	if err != nil {
		return opts, cfg, err
	}
	if hasWidth {
		if width <= 0 {
			return opts, cfg, &common.ParamError{Name: "width", Value: q.Get("width")}
		}
		cfg.Viewport = connector.FixedViewport(width)
	}
	return opts, cfg, nil
}
