package dag

import (
	"errors"
	"reflect"
	"testing"

	"github.com/leapstack-labs/leapline/pkg/core"
)

func rec(id string, layer core.Layer, deps ...string) core.ExecutionRecord {
	return core.ExecutionRecord{ID: id, Name: id, Layer: layer, Dependencies: deps}
}

func TestBuild_NodesAndEdges(t *testing.T) {
	g := Build([]core.ExecutionRecord{
		rec("a", core.LayerStaging),
		rec("b", core.LayerIntermediate, "a"),
		rec("c", core.LayerMarts, "a", "b"),
	})

	if n := len(g.Nodes()); n != 3 {
		t.Errorf("expected 3 nodes, got %d", n)
	}

	want := []core.Edge{
		{Source: "a", Target: "b", Layer: core.LayerIntermediate},
		{Source: "a", Target: "c", Layer: core.LayerMarts},
		{Source: "b", Target: "c", Layer: core.LayerMarts},
	}
	if got := g.Edges(); !reflect.DeepEqual(got, want) {
		t.Errorf("edges = %v, want %v", got, want)
	}
}

func TestBuild_DanglingDependencyDropped(t *testing.T) {
	g := Build([]core.ExecutionRecord{
		rec("a", core.LayerStaging),
		rec("b", core.LayerMarts, "a", "ghost"),
	})

	if n := len(g.Edges()); n != 1 {
		t.Errorf("expected 1 edge, got %d", n)
	}
	for _, e := range g.Edges() {
		if e.Source == "ghost" {
			t.Errorf("dangling edge retained: %v", e)
		}
	}
	if deps := g.Dependencies("b"); !reflect.DeepEqual(deps, []string{"a"}) {
		t.Errorf("expected b to depend only on a, got %v", deps)
	}

	dropped := g.DroppedDependencies()
	if len(dropped) != 1 || dropped[0].Source != "ghost" || dropped[0].Target != "b" {
		t.Errorf("unexpected dropped dependencies: %v", dropped)
	}
}

func TestBuild_DuplicateIDReplacesRecord(t *testing.T) {
	first := rec("a", core.LayerStaging)
	first.ExecutionTime = 1
	second := rec("a", core.LayerStaging)
	second.ExecutionTime = 4

	g := Build([]core.ExecutionRecord{first, rec("b", core.LayerMarts, "a"), second})

	if n := len(g.Nodes()); n != 2 {
		t.Errorf("expected 2 nodes, got %d", n)
	}
	if n, _ := g.Node("a"); n.ExecutionTime != 4 {
		t.Errorf("expected replaced execution time 4, got %v", n.ExecutionTime)
	}
	if ids := []string{g.Nodes()[0].ID, g.Nodes()[1].ID}; !reflect.DeepEqual(ids, []string{"a", "b"}) {
		t.Errorf("expected first-seen order, got %v", ids)
	}
}

func TestBuild_DuplicateDependencyIgnored(t *testing.T) {
	g := Build([]core.ExecutionRecord{
		rec("a", core.LayerStaging),
		rec("b", core.LayerMarts, "a", "a"),
	})
	if n := len(g.Edges()); n != 1 {
		t.Errorf("expected 1 edge, got %d", n)
	}
}

func TestAddEdge_UnknownNode(t *testing.T) {
	g := NewGraph()
	g.AddNode(rec("a", core.LayerStaging))

	if err := g.AddEdge("a", "nonexistent"); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("expected ErrUnknownNode for child, got %v", err)
	}
	if err := g.AddEdge("nonexistent", "a"); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("expected ErrUnknownNode for parent, got %v", err)
	}
}

func TestDependenciesAndDependents(t *testing.T) {
	g := Build([]core.ExecutionRecord{
		rec("a", core.LayerStaging),
		rec("b", core.LayerIntermediate, "a"),
		rec("c", core.LayerMarts, "a", "b"),
	})

	if parents := g.Dependencies("c"); len(parents) != 2 {
		t.Errorf("expected c to have 2 dependencies, got %d", len(parents))
	}
	if children := g.Dependents("a"); len(children) != 2 {
		t.Errorf("expected a to have 2 dependents, got %d", len(children))
	}
	if deps := g.Dependencies("missing"); len(deps) != 0 {
		t.Errorf("expected no dependencies for unknown node, got %v", deps)
	}
}

func TestTopologicalSort(t *testing.T) {
	tests := []struct {
		name    string
		records []core.ExecutionRecord
		want    []string
		wantErr bool
	}{
		{
			name: "dependents listed first",
			records: []core.ExecutionRecord{
				rec("c", core.LayerMarts, "b"),
				rec("b", core.LayerIntermediate, "a"),
				rec("a", core.LayerStaging),
			},
			want: []string{"a", "b", "c"},
		},
		{
			name: "independent nodes keep their order",
			records: []core.ExecutionRecord{
				rec("x", core.LayerStaging),
				rec("d", core.LayerMarts, "a"),
				rec("a", core.LayerStaging),
			},
			want: []string{"x", "a", "d"},
		},
		{
			name: "diamond",
			records: []core.ExecutionRecord{
				rec("a", core.LayerStaging),
				rec("b", core.LayerIntermediate, "a"),
				rec("c", core.LayerIntermediate, "a"),
				rec("d", core.LayerMarts, "b", "c"),
			},
			want: []string{"a", "b", "c", "d"},
		},
		{
			name: "two node cycle",
			records: []core.ExecutionRecord{
				rec("x", core.LayerStaging, "y"),
				rec("y", core.LayerStaging, "x"),
			},
			wantErr: true,
		},
		{
			name:    "self dependency",
			records: []core.ExecutionRecord{rec("x", core.LayerStaging, "x")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Build(tt.records).TopologicalSort()
			if tt.wantErr {
				if !errors.Is(err, ErrCycle) {
					t.Fatalf("expected ErrCycle, got %v (order %v)", err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("order = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUpstream(t *testing.T) {
	g := Build([]core.ExecutionRecord{
		rec("a", core.LayerStaging),
		rec("b", core.LayerStaging),
		rec("c", core.LayerIntermediate, "a"),
		rec("d", core.LayerMarts, "c", "ghost"),
		rec("e", core.LayerMarts, "b"),
	})

	tests := []struct {
		id   string
		want []string
	}{
		{"d", []string{"a", "c"}},
		{"e", []string{"b"}},
		{"a", nil},
		{"missing", nil},
	}
	for _, tt := range tests {
		if got := g.Upstream(tt.id); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Upstream(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}

	cyclic := Build([]core.ExecutionRecord{
		rec("x", core.LayerStaging, "y"),
		rec("y", core.LayerStaging, "x"),
	})
	if got := cyclic.Upstream("x"); !reflect.DeepEqual(got, []string{"y"}) {
		t.Errorf("cyclic Upstream(x) = %v", got)
	}
}
