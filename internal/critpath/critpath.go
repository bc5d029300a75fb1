// Package critpath computes the longest cumulative-duration path through a dependency graph.
package critpath

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapline/internal/dag"
)

// DefaultTolerance is the floating-point slack used when matching path times.
const DefaultTolerance = 0.01

// ErrCyclicDependency is returned when the dependency graph contains a cycle.
var ErrCyclicDependency = errors.New("cyclic dependency")

// CycleError reports the cycle found while computing path times.
type CycleError struct {
	// Path lists the node ids of the cycle, starting and ending at the same id.
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCyclicDependency, strings.Join(e.Path, " -> "))
}

// Is makes errors.Is(err, ErrCyclicDependency) match.
func (e *CycleError) Is(target error) bool {
	return target == ErrCyclicDependency
}

// Options configures the computation.
type Options struct {
	// Tolerance is the epsilon for tie detection during backtracking.
	// Zero matches path times exactly; a negative value means DefaultTolerance.
	Tolerance float64
}

// Result holds per-node path times and the critical set.
type Result struct {
	// Times maps node id to the longest cumulative execution time ending at that node.
	Times map[string]float64
	// Length is the maximum of Times, i.e. the critical path length.
	Length float64
	// Set contains every node on some maximum-length path.
	Set map[string]bool
}

// Contains reports whether id lies on a critical path.
func (r *Result) Contains(id string) bool {
	return r.Set[id]
}

// OnEdge reports whether the dependency edge source -> target lies on a critical path.
func (r *Result) OnEdge(source, target string) bool {
	return r.Set[source] && r.Set[target]
}

// Path returns the critical node ids ordered by path time, then id.
func (r *Result) Path() []string {
	ids := make([]string, 0, len(r.Set))
	for id := range r.Set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if r.Times[ids[i]] != r.Times[ids[j]] {
			return r.Times[ids[i]] < r.Times[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}

const (
	unvisited = iota
	inProgress
	done
)

type frame struct {
	id   string
	next int
	best float64
}

// Compute calculates the critical path time of every node and the critical set.
// Each node is finalized exactly once. Reaching a node that is still in progress
// means the graph has a cycle and a *CycleError is returned.
func Compute(g *dag.Graph, opts Options) (*Result, error) {
	tol := opts.Tolerance
	if tol < 0 {
		tol = DefaultTolerance
	}

	nodes := g.Nodes()
	times := make(map[string]float64, len(nodes))
	state := make(map[string]int, len(nodes))

	for _, root := range nodes {
		if state[root.ID] != unvisited {
			continue
		}
		stack := []frame{{id: root.ID}}
		state[root.ID] = inProgress

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			deps := g.Dependencies(top.id)

			if top.next == len(deps) {
				rec, _ := g.Node(top.id)
				times[top.id] = rec.ExecutionTime + top.best
				state[top.id] = done
				stack = stack[:len(stack)-1]
				if len(stack) > 0 {
					parent := &stack[len(stack)-1]
					parent.best = math.Max(parent.best, times[top.id])
				}
				continue
			}

			dep := deps[top.next]
			top.next++

			switch state[dep] {
			case done:
				top.best = math.Max(top.best, times[dep])
			case inProgress:
				return nil, &CycleError{Path: cyclePath(stack, dep)}
			default:
				state[dep] = inProgress
				stack = append(stack, frame{id: dep})
			}
		}
	}

	res := &Result{Times: times, Set: make(map[string]bool)}
	for _, t := range times {
		res.Length = math.Max(res.Length, t)
	}
	if len(times) == 0 {
		return res, nil
	}

	// Backtrack from every node that ends a maximum-length path.
	var queue []string
	for _, n := range nodes {
		if math.Abs(times[n.ID]-res.Length) <= tol && !res.Set[n.ID] {
			res.Set[n.ID] = true
			queue = append(queue, n.ID)
		}
	}
	for len(queue) > 0 {
		id := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		rec, _ := g.Node(id)
		for _, dep := range g.Dependencies(id) {
			if res.Set[dep] {
				continue
			}
			if math.Abs(times[dep]+rec.ExecutionTime-times[id]) <= tol {
				res.Set[dep] = true
				queue = append(queue, dep)
			}
		}
	}
	return res, nil
}

// cyclePath reconstructs the cycle closing at id from the traversal stack.
func cyclePath(stack []frame, id string) []string {
	var path []string
	for i := len(stack) - 1; i >= 0; i-- {
		path = append(path, stack[i].id)
		if stack[i].id == id {
			break
		}
	}
	// reversed, the path reads from dependent to dependency
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return append(path, path[0])
}
