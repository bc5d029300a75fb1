package render

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapline/internal/engine"
	"github.com/leapstack-labs/leapline/internal/testutil"
	"github.com/leapstack-labs/leapline/pkg/core"
)

func abcScene(t *testing.T, opts engine.Options) *core.Scene {
	t.Helper()
	scene, err := engine.Render(testutil.ABC(), engine.DefaultConfig(), opts)
	require.NoError(t, err)
	return scene
}

func TestDocument(t *testing.T) {
	scene := abcScene(t, engine.Options{Focus: "B"})

	doc, err := Document(context.Background(), scene)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(doc, "<?xml"))
	assert.Contains(t, doc, `<svg xmlns="http://www.w3.org/2000/svg"`)
	assert.Equal(t, len(scene.Bars), strings.Count(doc, `<g class="bar `))
	assert.Equal(t, len(scene.Connectors), strings.Count(doc, `class="connector `))
	assert.Contains(t, doc, `data-id="B"`)
	assert.Contains(t, doc, "highlighted")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(doc), "</svg>"))
}

func TestSVG_EscapesNames(t *testing.T) {
	scene := &core.Scene{
		Width: 100, Height: 100,
		Bars: []core.Bar{{ID: `a"><script>`, Label: "<b>", Emphasis: core.EmphasisNone, Opacity: 1}},
	}
	doc, err := Document(context.Background(), scene)
	require.NoError(t, err)
	assert.NotContains(t, doc, "<script>")
	assert.NotContains(t, doc, "<b>")
	assert.Contains(t, doc, "&lt;b&gt;")
}

func TestGantt(t *testing.T) {
	scene := &core.Scene{Bars: []core.Bar{
		{ID: "a", StartPercent: 0, WidthPercent: 50},
		{ID: "b", StartPercent: 50, WidthPercent: 0.1},
		{ID: "c", StartPercent: 100, WidthPercent: 0},
		{ID: "d", StartPercent: 90, WidthPercent: 40},
	}}

	rows := Gantt(scene, 20)
	require.Len(t, rows, 4)
	assert.Equal(t, 0, rows[0].Offset)
	assert.Equal(t, 10, rows[0].Length)
	assert.Equal(t, 1, rows[1].Length, "tiny bars stay visible")
	assert.Equal(t, 19, rows[2].Offset, "bars at the right edge stay on the grid")
	assert.Equal(t, 20, rows[3].Offset+rows[3].Length, "bars are clipped to the grid")

	line := rows[0].Line(20, '#')
	assert.Equal(t, "##########          ", line)
}

func TestFill(t *testing.T) {
	assert.Equal(t, '█', Fill(core.Bar{Critical: true, Emphasis: core.EmphasisNone}))
	assert.Equal(t, '░', Fill(core.Bar{Critical: true, Emphasis: core.EmphasisDimmed}))
	assert.Equal(t, '▓', Fill(core.Bar{Emphasis: core.EmphasisHighlighted}))
}
