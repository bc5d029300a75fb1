package output

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/leapstack-labs/leapline/internal/layout"
	"github.com/leapstack-labs/leapline/pkg/core"
)

// Styles holds the lipgloss styles used for text output.
type Styles struct {
	Header1   lipgloss.Style
	Header2   lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Info      lipgloss.Style
	ModelPath lipgloss.Style
	Critical  lipgloss.Style

	r *lipgloss.Renderer
}

func newStyles(r *lipgloss.Renderer) *Styles {
	s := &Styles{
		Header1:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		Header2:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#5FAFFF")),
		Bold:      r.NewStyle().Bold(true),
		Muted:     r.NewStyle().Foreground(lipgloss.Color("#808080")),
		Success:   r.NewStyle().Foreground(lipgloss.Color("#10B981")),
		Warning:   r.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
		Error:     r.NewStyle().Foreground(lipgloss.Color("#EF4444")),
		Info:      r.NewStyle().Foreground(lipgloss.Color("#06B6D4")),
		ModelPath: r.NewStyle().Foreground(lipgloss.Color("#A78BFA")),
		Critical:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#DC2626")),
		r:         r,
	}
	return s
}

// Layer returns a style in the layer's band color.
func (s *Styles) Layer(l core.Layer) lipgloss.Style {
	return s.r.NewStyle().Foreground(lipgloss.Color(layout.LayerColor(l)))
}

// Performance returns a style in the bar color of a performance status.
func (s *Styles) Performance(p core.PerformanceStatus) lipgloss.Style {
	return s.r.NewStyle().Foreground(lipgloss.Color(p.Color()))
}
