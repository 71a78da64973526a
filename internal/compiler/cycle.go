package compiler

import (
	"slices"

	"github.com/roach88/gatehouse/internal/engine"
	"github.com/roach88/gatehouse/internal/ir"
)

// slotGraph maps each node index to the slot nodes it reads from.
// Input nodes have no outgoing edges.
type slotGraph [][]int

func buildSlotGraph(g *ir.WiringGroup) slotGraph {
	graph := make(slotGraph, len(g.Nodes))
	for i, n := range g.Nodes {
		if n.Kind != ir.NodeSlot {
			continue
		}
		for _, ref := range n.Inputs {
			if ref.Valid() && int(ref) < len(g.Nodes) && g.Nodes[ref].Kind == ir.NodeSlot {
				graph[i] = append(graph[i], int(ref))
			}
		}
	}
	return graph
}

// FindCycles returns every reference cycle in g as a path of node ids with
// the first id repeated at the end. An acyclic group returns nil.
func FindCycles(g *ir.WiringGroup) [][]string {
	graph := buildSlotGraph(g)
	var paths [][]string
	for _, scc := range cyclicSCCs(graph) {
		paths = append(paths, nodeIDs(g, cyclePath(scc, graph)))
	}
	return paths
}

// cutCycles reports each cycle and cuts every edge between members of the
// same strongly connected component, leaving the group acyclic.
func cutCycles(g *ir.WiringGroup) []error {
	graph := buildSlotGraph(g)
	var errs []error
	for _, scc := range cyclicSCCs(graph) {
		errs = append(errs, engine.NewCycleError(g.Name, nodeIDs(g, cyclePath(scc, graph))))

		members := make(map[int]bool, len(scc))
		for _, m := range scc {
			members[m] = true
		}
		for _, m := range scc {
			for k, ref := range g.Nodes[m].Inputs {
				if ref.Valid() && members[int(ref)] {
					g.Nodes[m].Inputs[k] = ir.NoRef
				}
			}
		}
	}
	return errs
}

// cyclicSCCs returns the components with more than one node or a self-loop,
// each sorted ascending, ordered by their smallest member.
func cyclicSCCs(graph slotGraph) [][]int {
	var out [][]int
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || slices.Contains(graph[scc[0]], scc[0]) {
			slices.Sort(scc)
			out = append(out, scc)
		}
	}
	slices.SortFunc(out, func(a, b []int) int { return a[0] - b[0] })
	return out
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in index order.
func tarjanSCC(graph slotGraph) [][]int {
	var (
		index   = 0
		stack   []int
		indices = make([]int, len(graph))
		lowlink = make([]int, len(graph))
		onStack = make([]bool, len(graph))
		sccs    [][]int
	)
	for i := range indices {
		indices[i] = -1
	}

	var strongConnect func(int)
	strongConnect = func(v int) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if indices[w] < 0 {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for v := range graph {
		if indices[v] < 0 {
			strongConnect(v)
		}
	}
	return sccs
}

// cyclePath returns the shortest cycle through the smallest member of scc,
// found by breadth-first search restricted to scc.
func cyclePath(scc []int, graph slotGraph) []int {
	start := scc[0]
	members := make(map[int]bool, len(scc))
	for _, m := range scc {
		members[m] = true
	}

	parent := map[int]int{}
	queue := []int{start}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, w := range graph[v] {
			if !members[w] {
				continue
			}
			if w == start {
				path := []int{start}
				for cur := v; cur != start; cur = parent[cur] {
					path = append(path, cur)
				}
				slices.Reverse(path[1:])
				return append(path, start)
			}
			if _, seen := parent[w]; !seen {
				parent[w] = v
				queue = append(queue, w)
			}
		}
	}
	return []int{start, start}
}

func nodeIDs(g *ir.WiringGroup, path []int) []string {
	ids := make([]string, len(path))
	for i, n := range path {
		ids[i] = g.Nodes[n].ID
	}
	return ids
}
