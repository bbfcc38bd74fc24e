// Package pathfind answers how two anchor nodes relate: shortest path,
// bounded alternate-path enumeration, and direct/shared-neighbor checks.
//
// All traversals expand neighbors in lexicographic normalized-id order, so
// results are deterministic for a given snapshot. Where several shortest
// paths exist, the one returned is the first found under that order.
package pathfind

import (
	"github.com/archivegraph/lattice/internal/core/graph"
	"github.com/archivegraph/lattice/internal/core/model"
)

const (
	// DefaultMaxPathLength bounds alternate paths to four hops.
	DefaultMaxPathLength = 4
	// DefaultTolerance admits paths up to one hop longer than the shortest.
	DefaultTolerance = 1
	// ExpansionBudget caps enumeration work. Hitting it yields a truncated
	// result with Overflow set instead of an unbounded search.
	ExpansionBudget = 50000
)

// Shortest returns a minimal-length path between start and end as display
// names, or ok=false when either anchor is absent or no path exists.
// Identical anchors yield a trivial single-node path.
func Shortest(ix *graph.Index, start, end string) (model.Path, bool) {
	startNode, okS := ix.Node(start)
	_, okE := ix.Node(end)
	if !okS || !okE {
		return nil, false
	}

	s := model.NormalizeID(start)
	e := model.NormalizeID(end)
	if s == e {
		return model.Path{startNode.ID}, true
	}

	parent := map[string]string{s: ""}
	queue := []string{s}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range ix.Neighbors(u) {
			if _, seen := parent[v]; seen {
				continue
			}
			parent[v] = u
			if v == e {
				return reconstruct(ix, parent, e), true
			}
			queue = append(queue, v)
		}
	}
	return nil, false
}

func reconstruct(ix *graph.Index, parent map[string]string, end string) model.Path {
	var rev []string
	for u := end; u != ""; u = parent[u] {
		rev = append(rev, u)
	}
	path := make(model.Path, 0, len(rev))
	for i := len(rev) - 1; i >= 0; i-- {
		path = append(path, ix.DisplayID(rev[i]))
	}
	return path
}

// distances runs a plain BFS from s and returns hop counts for every
// reachable node.
func distances(ix *graph.Index, s string) map[string]int {
	dist := map[string]int{s: 0}
	queue := []string{s}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range ix.Neighbors(u) {
			if _, seen := dist[v]; seen {
				continue
			}
			dist[v] = dist[u] + 1
			queue = append(queue, v)
		}
	}
	return dist
}

type pathState struct {
	node string
	path []string
}

// AllWithinTolerance enumerates every simple path from start to end whose
// length is at most min(maxLen, shortest+tolerance). Expansion revisiting a
// node at a depth more than tolerance beyond the best depth recorded for it
// is pruned, which keeps dense graphs from exploding combinatorially. When
// the expansion budget runs out the paths found so far are returned with
// Overflow set.
//
// Non-positive maxLen, tolerance or budget fall back to the package
// defaults. The returned Paths slice is non-nil whenever a search actually
// ran, so an unreachable pair is distinguishable from "not yet searched".
func AllWithinTolerance(ix *graph.Index, start, end string, maxLen, tolerance, budget int) model.PathResult {
	if maxLen <= 0 {
		maxLen = DefaultMaxPathLength
	}
	if tolerance < 0 {
		tolerance = DefaultTolerance
	}
	if budget <= 0 {
		budget = ExpansionBudget
	}

	startNode, okS := ix.Node(start)
	_, okE := ix.Node(end)
	if !okS || !okE {
		return model.PathResult{}
	}

	s := model.NormalizeID(start)
	e := model.NormalizeID(end)
	result := model.PathResult{Paths: []model.Path{}}
	if s == e {
		result.Paths = append(result.Paths, model.Path{startNode.ID})
		return result
	}

	dist := distances(ix, s)
	shortest, reachable := dist[e]
	if !reachable {
		return result
	}

	bound := shortest + tolerance
	if bound > maxLen {
		bound = maxLen
	}

	bestDepth := map[string]int{s: 0}
	queue := []pathState{{node: s, path: []string{s}}}
	expansions := 0

	for len(queue) > 0 {
		if expansions >= budget {
			result.Overflow = true
			break
		}
		expansions++

		st := queue[0]
		queue = queue[1:]
		depth := len(st.path) - 1

		next := depth + 1
		for _, v := range ix.Neighbors(st.node) {
			if onPath(st.path, v) {
				continue
			}
			if v == e {
				result.Paths = append(result.Paths, displayPath(ix, st.path, v))
				continue
			}
			if next == bound {
				continue // dead end: cannot still reach the target
			}
			if bd, seen := bestDepth[v]; seen {
				if next > bd+tolerance {
					continue
				}
			} else {
				bestDepth[v] = next
			}
			branch := make([]string, len(st.path), len(st.path)+1)
			copy(branch, st.path)
			queue = append(queue, pathState{node: v, path: append(branch, v)})
		}
	}

	return result
}

func onPath(path []string, id string) bool {
	for _, p := range path {
		if p == id {
			return true
		}
	}
	return false
}

func displayPath(ix *graph.Index, prefix []string, last string) model.Path {
	out := make(model.Path, 0, len(prefix)+1)
	for _, id := range prefix {
		out = append(out, ix.DisplayID(id))
	}
	return append(out, ix.DisplayID(last))
}

// DirectAndShared reports whether start and end are adjacent and which nodes
// neighbor both (the triangles through the pair), without any general path
// enumeration. Absent anchors yield an empty result.
func DirectAndShared(ix *graph.Index, start, end string) model.DirectConnection {
	if !ix.Contains(start) || !ix.Contains(end) {
		return model.DirectConnection{SharedNeighbors: []string{}}
	}

	e := model.NormalizeID(end)
	shared := []string{}
	for _, v := range ix.Neighbors(start) {
		if v == e {
			continue
		}
		if ix.HasEdge(v, end) {
			shared = append(shared, ix.DisplayID(v))
		}
	}

	return model.DirectConnection{
		DirectEdge:      ix.HasEdge(start, end),
		SharedNeighbors: shared,
	}
}
