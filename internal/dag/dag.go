// Package dag builds the dependency graph of model executions.
// Edges run from a dependency to its dependent; dangling dependency ids are dropped.
package dag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapline/pkg/core"
)

var (
	// ErrUnknownNode is returned when an edge references a node that is not in the graph.
	ErrUnknownNode = errors.New("unknown node")
	// ErrCycle is returned when no dependency order exists.
	ErrCycle = errors.New("dependency cycle")
)

// Graph is the node/edge structure built from a flat list of execution records.
// A Graph is read-only once Build returns.
type Graph struct {
	order   []string // node ids in first-seen order
	nodes   map[string]core.ExecutionRecord
	edges   map[string][]string // parent -> children (dependents)
	parents map[string][]string // child -> parents (dependencies)
	dropped []core.Edge
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:   make(map[string]core.ExecutionRecord),
		edges:   make(map[string][]string),
		parents: make(map[string][]string),
	}
}

// Build creates a graph with one node per record and one edge per dependency
// that names an existing node. A repeated id replaces the earlier record's data.
func Build(records []core.ExecutionRecord) *Graph {
	g := NewGraph()
	for _, rec := range records {
		g.AddNode(rec)
	}
	for _, id := range g.order {
		for _, dep := range g.nodes[id].Dependencies {
			if err := g.AddEdge(dep, id); err != nil {
				g.dropped = append(g.dropped, core.Edge{Source: dep, Target: id, Layer: g.nodes[id].Layer})
			}
		}
	}
	return g
}

// AddNode adds a node to the graph.
func (g *Graph) AddNode(rec core.ExecutionRecord) {
	if _, exists := g.nodes[rec.ID]; !exists {
		g.order = append(g.order, rec.ID)
		g.edges[rec.ID] = []string{}
		g.parents[rec.ID] = []string{}
	}
	g.nodes[rec.ID] = rec
}

// AddEdge adds a directed edge from parent to child (child depends on parent).
// Self-loops are kept so that cycle detection can report them.
func (g *Graph) AddEdge(parentID, childID string) error {
	if _, exists := g.nodes[parentID]; !exists {
		return fmt.Errorf("parent %w %q", ErrUnknownNode, parentID)
	}
	if _, exists := g.nodes[childID]; !exists {
		return fmt.Errorf("child %w %q", ErrUnknownNode, childID)
	}

	if !contains(g.edges[parentID], childID) {
		g.edges[parentID] = append(g.edges[parentID], childID)
	}
	if !contains(g.parents[childID], parentID) {
		g.parents[childID] = append(g.parents[childID], parentID)
	}
	return nil
}

// Node returns the record for id.
func (g *Graph) Node(id string) (core.ExecutionRecord, bool) {
	rec, ok := g.nodes[id]
	return rec, ok
}

// Nodes returns all records in first-seen order.
func (g *Graph) Nodes() []core.ExecutionRecord {
	out := make([]core.ExecutionRecord, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Edges returns every retained edge, grouped by target in node order and by
// dependency order within a target.
func (g *Graph) Edges() []core.Edge {
	var out []core.Edge
	for _, id := range g.order {
		for _, dep := range g.parents[id] {
			out = append(out, core.Edge{Source: dep, Target: id, Layer: g.nodes[id].Layer})
		}
	}
	return out
}

// DroppedDependencies returns the dependency references that did not match a node.
func (g *Graph) DroppedDependencies() []core.Edge {
	return g.dropped
}

// Dependencies returns the direct dependencies of a node.
func (g *Graph) Dependencies(id string) []string {
	return g.parents[id]
}

// Dependents returns the direct dependents of a node.
func (g *Graph) Dependents(id string) []string {
	return g.edges[id]
}

// TopologicalSort returns the node ids with every dependency before its dependents.
// Nodes without an ordering constraint keep their first-seen order.
func (g *Graph) TopologicalSort() ([]string, error) {
	inDegree := make(map[string]int, len(g.order))
	var ready []string
	for _, id := range g.order {
		inDegree[id] = len(g.parents[id])
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	sorted := make([]string, 0, len(g.order))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		sorted = append(sorted, id)
		for _, child := range g.edges[id] {
			inDegree[child]--
			if inDegree[child] == 0 {
				ready = append(ready, child)
			}
		}
	}

	if len(sorted) != len(g.order) {
		var stuck []string
		for _, id := range g.order {
			if inDegree[id] > 0 {
				stuck = append(stuck, id)
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrCycle, strings.Join(stuck, ", "))
	}
	return sorted, nil
}

// Upstream returns every transitive dependency of id in first-seen order.
// The node itself is not included.
func (g *Graph) Upstream(id string) []string {
	seen := map[string]bool{id: true}
	stack := append([]string(nil), g.parents[id]...)
	for len(stack) > 0 {
		dep := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[dep] {
			continue
		}
		seen[dep] = true
		stack = append(stack, g.parents[dep]...)
	}

	var out []string
	for _, n := range g.order {
		if n != id && seen[n] {
			out = append(out, n)
		}
	}
	return out
}

// contains checks if a slice contains a string.
func contains(slice []string, str string) bool {
	for _, s := range slice {
		if s == str {
			return true
		}
	}
	return false
}
