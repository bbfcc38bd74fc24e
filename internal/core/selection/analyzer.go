// Package selection analyzes direct adjacency among a small hand-picked set
// of nodes: which pairs are connected, who is isolated within the pick, how
// dense the selection is, and whether it splits into disjoint clusters.
// Intermediate nodes are never considered; only edges inside the selection
// count.
package selection

import (
	"errors"
	"fmt"
	"sort"

	"github.com/archivegraph/lattice/internal/core/graph"
	"github.com/archivegraph/lattice/internal/core/model"
)

// MaxSelection is the default upper bound on selection size. The pairwise
// work is O(n²), so the bound stays small.
const MaxSelection = 10

// ErrTooFewNodes rejects an empty selection. A single node is accepted and
// yields a trivial result with no links.
var ErrTooFewNodes = errors.New("selection requires at least one node")

// TooManyNodesError rejects selections above the configured bound.
type TooManyNodesError struct {
	Count int
	Max   int
}

func (e *TooManyNodesError) Error() string {
	return fmt.Sprintf("selection has %d nodes, maximum is %d", e.Count, e.Max)
}

// Link is one direct connection between two selected nodes, by display name.
type Link struct {
	A string `json:"a"`
	B string `json:"b"`
}

// Analysis is the direct-connection report for a selection. Nodes fixes the
// row/column order of Matrix; Density is |links| / (n·(n-1)/2), kept exact
// and rounded only for display.
type Analysis struct {
	Nodes            []string       `json:"nodes"`
	DirectLinks      []Link         `json:"direct_links"`
	ConnectionCounts map[string]int `json:"connection_counts"`
	IsolatedNodes    []string       `json:"isolated_nodes"`
	Density          float64        `json:"density"`
	Matrix           [][]bool       `json:"connection_matrix"`
	Components       [][]string     `json:"components"`
}

// Analyze computes the direct-connection report for ids against the given
// snapshot. Ids are normalized and deduplicated first; unknown ids are all
// collected into a single *graph.UnknownNodeError rather than failing on the
// first. maxNodes <= 0 falls back to MaxSelection.
func Analyze(ix *graph.Index, ids []string, maxNodes int) (*Analysis, error) {
	if maxNodes <= 0 {
		maxNodes = MaxSelection
	}

	seen := make(map[string]struct{}, len(ids))
	var selected []string
	var unknown []string
	for _, raw := range ids {
		id := model.NormalizeID(raw)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if !ix.Contains(id) {
			unknown = append(unknown, id)
			continue
		}
		selected = append(selected, id)
	}

	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &graph.UnknownNodeError{IDs: unknown}
	}
	if len(selected) == 0 {
		return nil, ErrTooFewNodes
	}
	if len(selected) > maxNodes {
		return nil, &TooManyNodesError{Count: len(selected), Max: maxNodes}
	}
	sort.Strings(selected)

	n := len(selected)
	a := &Analysis{
		Nodes:            make([]string, n),
		DirectLinks:      []Link{},
		ConnectionCounts: make(map[string]int, n),
		IsolatedNodes:    []string{},
		Matrix:           make([][]bool, n),
	}
	for i, id := range selected {
		a.Nodes[i] = ix.DisplayID(id)
		a.ConnectionCounts[ix.DisplayID(id)] = 0
		a.Matrix[i] = make([]bool, n)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if !ix.HasEdge(selected[i], selected[j]) {
				continue
			}
			a.DirectLinks = append(a.DirectLinks, Link{A: a.Nodes[i], B: a.Nodes[j]})
			a.ConnectionCounts[a.Nodes[i]]++
			a.ConnectionCounts[a.Nodes[j]]++
			a.Matrix[i][j] = true
			a.Matrix[j][i] = true
		}
	}

	for _, id := range a.Nodes {
		if a.ConnectionCounts[id] == 0 {
			a.IsolatedNodes = append(a.IsolatedNodes, id)
		}
	}

	if n > 1 {
		a.Density = float64(len(a.DirectLinks)) / float64(n*(n-1)/2)
	}

	a.Components = components(selected, a.Matrix, a.Nodes)
	return a, nil
}

// components decomposes the induced subgraph on the selection via BFS over
// the connection matrix, so disjoint clusters within the pick show up
// explicitly.
func components(selected []string, matrix [][]bool, display []string) [][]string {
	n := len(selected)
	visited := make([]bool, n)
	var out [][]string

	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		visited[i] = true
		comp := []string{display[i]}
		queue := []int{i}
		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			for v := 0; v < n; v++ {
				if visited[v] || !matrix[u][v] {
					continue
				}
				visited[v] = true
				comp = append(comp, display[v])
				queue = append(queue, v)
			}
		}
		sort.Strings(comp)
		out = append(out, comp)
	}
	return out
}
