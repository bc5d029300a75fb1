// Package interaction tracks hover focus and selection and derives one-hop highlighting.
package interaction

import (
	"github.com/leapstack-labs/leapline/pkg/core"
)

// Neighbours answers one-hop adjacency questions. *dag.Graph satisfies it.
type Neighbours interface {
	Dependencies(id string) []string
	Dependents(id string) []string
}

// State is the focus and selection of one timeline. It is a value; every
// transition returns a new State.
type State struct {
	// Focus is the hovered node id, empty when nothing is hovered.
	Focus string
	// Selected is the most recently clicked node id.
	Selected string
}

// Hover focuses id.
func (s State) Hover(id string) State {
	s.Focus = id
	return s
}

// Leave clears the hover focus. Selection is kept.
func (s State) Leave() State {
	s.Focus = ""
	return s
}

// Click selects id until the next click.
func (s State) Click(id string) State {
	s.Selected = id
	return s
}

// Highlighter classifies nodes and edges against a focus.
type Highlighter struct {
	focus string
	set   map[string]bool
}

// Highlight builds the highlight set for the state's focus: the focal node plus
// its direct dependencies and dependents. Transitive neighbours are not included.
func Highlight(s State, g Neighbours) Highlighter {
	h := Highlighter{focus: s.Focus}
	if s.Focus == "" {
		return h
	}
	h.set = map[string]bool{s.Focus: true}
	for _, id := range g.Dependencies(s.Focus) {
		h.set[id] = true
	}
	for _, id := range g.Dependents(s.Focus) {
		h.set[id] = true
	}
	return h
}

// Active reports whether a node is focused.
func (h Highlighter) Active() bool {
	return h.focus != ""
}

// Node returns the emphasis of a bar or label.
func (h Highlighter) Node(id string) core.Emphasis {
	switch {
	case !h.Active():
		return core.EmphasisNone
	case h.set[id]:
		return core.EmphasisHighlighted
	default:
		return core.EmphasisDimmed
	}
}

// Edge returns the emphasis of the connector source -> target. Only connectors
// touching the focal node are highlighted.
func (h Highlighter) Edge(source, target string) core.Emphasis {
	switch {
	case !h.Active():
		return core.EmphasisNone
	case source == h.focus || target == h.focus:
		return core.EmphasisHighlighted
	default:
		return core.EmphasisDimmed
	}
}

// Opacity returns the bar and label opacity for an emphasis.
func Opacity(e core.Emphasis) float64 {
	if e == core.EmphasisDimmed {
		return 0.3
	}
	return 1
}

// Stroke returns the connector stroke for an emphasis.
func Stroke(e core.Emphasis) core.Stroke {
	switch e {
	case core.EmphasisHighlighted:
		return core.Stroke{Width: 3, Opacity: 0.9}
	case core.EmphasisDimmed:
		return core.Stroke{Width: 2, Dash: "5,5", Opacity: 0.1}
	default:
		return core.Stroke{Width: 2, Dash: "5,5", Opacity: 0.6}
	}
}
