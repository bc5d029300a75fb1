package timeline

import (
	"net/http"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/leapline/internal/engine"
	"github.com/leapstack-labs/leapline/internal/ui/features/common"
	"github.com/leapstack-labs/leapline/pkg/core"
)

// Handlers provides HTTP handlers for the timeline feature.
type Handlers struct {
	deps  *common.Deps
	views *Views
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps *common.Deps, views *Views) *Handlers {
	return &Handlers{deps: deps, views: views}
}

// Redirect sends the root path to the timeline page.
func (h *Handlers) Redirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/timeline", http.StatusFound)
}

// TimelinePage renders the page with the session's current scene.
func (h *Handlers) TimelinePage(w http.ResponseWriter, r *http.Request) {
	id, err := viewID(h.deps.SessionStore, w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	view := h.views.Get(id)
	scene, err := h.scene(view)

	data := PageData{Scene: scene, Err: err, View: view, IsDev: h.deps.IsDev}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err != nil {
		w.WriteHeader(common.StatusFor(err))
	}
	if err := Page(data).Render(r.Context(), w); err != nil {
		h.deps.Log().Error("failed to render timeline page", "error", err)
	}
}

// TimelineUpdates is the long-lived SSE endpoint of the page. It pushes a
// re-rendered timeline whenever the resident dataset is reloaded. The initial
// state is rendered by TimelinePage.
func (h *Handlers) TimelineUpdates(w http.ResponseWriter, r *http.Request) {
	id, err := viewID(h.deps.SessionStore, w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	updates := h.deps.Notifier.Subscribe()
	defer h.deps.Notifier.Unsubscribe(updates)

	sse := datastar.NewSSE(w, r)
	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case version := <-updates:
			h.deps.Log().Debug("pushing reloaded timeline", "view", id, "version", version)
			if err := h.sendTimeline(sse, h.views.Get(id)); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}

// Interact applies a hover, leave, click or window action and sends the
// rebuilt timeline back.
func (h *Handlers) Interact(w http.ResponseWriter, r *http.Request) {
	// Signals and the session cookie must be handled before the SSE starts.
	var signals Signals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		sse := datastar.NewSSE(w, r)
		_ = sse.ConsoleError(err)
		return
	}
	id, err := viewID(h.deps.SessionStore, w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	view, err := h.views.Get(id).Apply(signals)
	if err != nil {
		sse := datastar.NewSSE(w, r)
		_ = sse.ConsoleError(err)
		return
	}
	h.views.Put(id, view)

	sse := datastar.NewSSE(w, r)
	if err := h.sendTimeline(sse, view); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// sendTimeline patches the timeline view, or the error view when the scene
// cannot be built.
func (h *Handlers) sendTimeline(sse *datastar.ServerSentEventGenerator, view View) error {
	scene, err := h.scene(view)
	if err != nil {
		return sse.PatchElementTempl(ErrorView(err))
	}
	return sse.PatchElementTempl(TimelineView(scene))
}

// scene rebuilds the resident dataset for view on a fresh timeline.
func (h *Handlers) scene(view View) (*core.Scene, error) {
	ds := h.deps.Cache.Get()
	if ds == nil {
		return nil, engine.ErrNoDataset
	}
	cfg := h.deps.Engine
	cfg.Logger = h.deps.Logger
	return engine.Render(ds, cfg, view.Options())
}
