package core

import (
	"fmt"
	"strings"
)

// Layer is the semantic stage of a model in the pipeline.
type Layer string

// Layer constants, in pipeline order.
const (
	LayerSource       Layer = "source"
	LayerStaging      Layer = "staging"
	LayerIntermediate Layer = "intermediate"
	LayerMarts        Layer = "marts"
)

// PlottedLayers are the layers that receive a band on the timeline, top to bottom.
var PlottedLayers = []Layer{LayerStaging, LayerIntermediate, LayerMarts}

// Rank returns the position of the layer in pipeline order, or -1 if unknown.
func (l Layer) Rank() int {
	switch l {
	case LayerSource:
		return 0
	case LayerStaging:
		return 1
	case LayerIntermediate:
		return 2
	case LayerMarts:
		return 3
	default:
		return -1
	}
}

// Valid reports whether l is one of the known layers.
func (l Layer) Valid() bool {
	return l.Rank() >= 0
}

// Title returns the display name of the layer ("Staging", "Marts", ...).
func (l Layer) Title() string {
	if l == "" {
		return ""
	}
	return strings.ToUpper(string(l[:1])) + string(l[1:])
}

// ParseLayer parses a layer name, case-insensitively.
func ParseLayer(s string) (Layer, error) {
	l := Layer(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownLayer, s)
	}
	return l, nil
}

// InferLayer classifies a model from its schema and name.
// The schema wins when it names a layer; otherwise the dbt-style name prefix decides.
// Anything unrecognized is treated as staging.
func InferLayer(schema, name string) Layer {
	schema = strings.ToLower(schema)
	switch {
	case strings.Contains(schema, "staging"):
		return LayerStaging
	case strings.Contains(schema, "intermediate"):
		return LayerIntermediate
	case strings.Contains(schema, "mart"):
		return LayerMarts
	}

	name = strings.ToLower(name)
	switch {
	case strings.HasPrefix(name, "raw_"):
		return LayerSource
	case strings.HasPrefix(name, "stg_"):
		return LayerStaging
	case strings.HasPrefix(name, "int_"):
		return LayerIntermediate
	case strings.HasPrefix(name, "dim_"), strings.HasPrefix(name, "fct_"), strings.HasPrefix(name, "mart_"):
		return LayerMarts
	default:
		return LayerStaging
	}
}

// DisplayName strips the layer prefix from a model name and replaces underscores
// with spaces, e.g. "fct_orders" becomes "orders".
func DisplayName(name string) string {
	for _, prefix := range []string{"stg_", "int_", "dim_", "fct_", "mart_"} {
		if strings.HasPrefix(name, prefix) {
			name = strings.TrimPrefix(name, prefix)
			break
		}
	}
	return strings.ReplaceAll(name, "_", " ")
}
