package timeline

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/leapstack-labs/leapline/internal/engine"
	"github.com/leapstack-labs/leapline/internal/interaction"
	"github.com/leapstack-labs/leapline/internal/window"
)

const (
	sessionName = "leapline"
	viewKey     = "view"
)

// Interaction actions sent by the page.
const (
	ActionHover  = "hover"
	ActionLeave  = "leave"
	ActionClick  = "click"
	ActionWindow = "window"
	ActionReset  = "reset"
)

// Signals are the datastar signals posted to /timeline/interact.
type Signals struct {
	Action string  `json:"action"`
	ID     string  `json:"id"`
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
}

// View is the window and interaction state of one browser session.
type View struct {
	State  interaction.State
	Window *[2]float64
}

// Apply returns the view after the action in s.
func (v View) Apply(s Signals) (View, error) {
	switch s.Action {
	case ActionHover:
		v.State = v.State.Hover(s.ID)
	case ActionLeave:
		v.State = v.State.Leave()
	case ActionClick:
		v.State = v.State.Click(s.ID)
	case ActionWindow:
		if err := window.ValidatePercents(s.Start, s.End); err != nil {
			return v, err
		}
		v.Window = &[2]float64{s.Start, s.End}
	case ActionReset:
		v.Window = nil
	default:
		return v, fmt.Errorf("unknown action %q", s.Action)
	}
	return v, nil
}

// Options converts the view into engine render options.
func (v View) Options() engine.Options {
	return engine.Options{Window: v.Window, Focus: v.State.Focus, Selected: v.State.Selected}
}

// Percents returns the window percentages, [0, 100] when unzoomed.
func (v View) Percents() (float64, float64) {
	if v.Window == nil {
		return 0, 100
	}
	return v.Window[0], v.Window[1]
}

// Views keeps the view of every session. The session cookie only carries the
// view id, so the SSE stream sees interactions posted after it was opened.
// At most maxViews views are kept; a view not updated for viewTTL is forgotten.
type Views struct {
	views *expirable.LRU[string, View]
}

const (
	maxViews = 4096
	viewTTL  = 12 * time.Hour
)

// NewViews creates an empty view registry with the default bounds.
func NewViews() *Views {
	return NewViewsWithLimit(maxViews, viewTTL)
}

// NewViewsWithLimit creates an empty view registry holding at most size views,
// each for ttl after its last update.
func NewViewsWithLimit(size int, ttl time.Duration) *Views {
	return &Views{views: expirable.NewLRU[string, View](size, nil, ttl)}
}

// Get returns the view for id, or the zero view.
func (v *Views) Get(id string) View {
	view, _ := v.views.Get(id)
	return view
}

// Put replaces the view for id.
func (v *Views) Put(id string, view View) {
	v.views.Add(id, view)
}

// Len returns the number of views kept.
func (v *Views) Len() int {
	return v.views.Len()
}

// viewID returns the view id stored in the session, assigning a new one when
// the session has none. It must run before the response is written.
func viewID(store sessions.Store, w http.ResponseWriter, r *http.Request) (string, error) {
	session, err := store.Get(r, sessionName)
	if err != nil && session == nil {
		return "", err
	}
	if id, ok := session.Values[viewKey].(string); ok && id != "" {
		return id, nil
	}
	id := uuid.NewString()
	session.Values[viewKey] = id
	if err := session.Save(r, w); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}
	return id, nil
}
