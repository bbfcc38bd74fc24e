package graph

import (
	"sort"

	"github.com/archivegraph/lattice/internal/core/model"
)

// Index is a validated, immutable adjacency view over one snapshot of the
// network. All analysis packages read from it; none mutate it. Reflecting
// graph changes means building a new Index.
//
// Internally everything is keyed by the normalized id form
// (model.NormalizeID); public methods accept raw ids and normalize them.
type Index struct {
	nodes     map[string]model.Node
	adj       map[string]map[string]struct{}
	sorted    map[string][]string      // neighbors in lexicographic normalized order
	edges     []model.Edge             // deduplicated, first-seen orientation kept
	edgeByKey map[[2]string]model.Edge // sorted normalized pair -> stored edge
	ids       []string                 // all normalized ids, sorted
}

// Build validates and indexes a raw node/edge list. Edges are deduplicated
// (a second occurrence, or the reversed orientation, counts once) and
// self-loops are dropped. Any edge endpoint that does not resolve to a known
// node fails the whole build with an *UnknownNodeError listing every
// offending id.
func Build(nodes []model.Node, edges []model.Edge) (*Index, error) {
	ix := &Index{
		nodes:     make(map[string]model.Node, len(nodes)),
		adj:       make(map[string]map[string]struct{}, len(nodes)),
		sorted:    make(map[string][]string, len(nodes)),
		edgeByKey: make(map[[2]string]model.Edge, len(edges)),
	}

	for _, n := range nodes {
		id := model.NormalizeID(n.ID)
		if id == "" {
			continue
		}
		if _, exists := ix.nodes[id]; exists {
			// Duplicate rows for the same normalized name: first one wins,
			// matching the unique-name constraint of the source data.
			continue
		}
		ix.nodes[id] = n
		ix.adj[id] = make(map[string]struct{})
		ix.ids = append(ix.ids, id)
	}
	sort.Strings(ix.ids)

	var unknown []string
	unknownSeen := make(map[string]struct{})
	reportUnknown := func(id string) {
		if _, ok := unknownSeen[id]; !ok {
			unknownSeen[id] = struct{}{}
			unknown = append(unknown, id)
		}
	}

	edgeSeen := make(map[[2]string]struct{}, len(edges))
	for _, e := range edges {
		a := model.NormalizeID(e.Source)
		b := model.NormalizeID(e.Target)

		_, aOK := ix.nodes[a]
		_, bOK := ix.nodes[b]
		if !aOK {
			reportUnknown(a)
		}
		if !bOK {
			reportUnknown(b)
		}
		if !aOK || !bOK {
			continue
		}
		if a == b {
			continue
		}

		key := [2]string{a, b}
		if b < a {
			key = [2]string{b, a}
		}
		if _, dup := edgeSeen[key]; dup {
			continue
		}
		edgeSeen[key] = struct{}{}

		ix.adj[a][b] = struct{}{}
		ix.adj[b][a] = struct{}{}
		ix.edges = append(ix.edges, e)
		ix.edgeByKey[key] = e
	}

	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &UnknownNodeError{IDs: unknown}
	}

	for id, nbrs := range ix.adj {
		s := make([]string, 0, len(nbrs))
		for n := range nbrs {
			s = append(s, n)
		}
		sort.Strings(s)
		ix.sorted[id] = s
	}

	return ix, nil
}

// Contains reports whether id resolves to a known node.
func (ix *Index) Contains(id string) bool {
	_, ok := ix.nodes[model.NormalizeID(id)]
	return ok
}

// Node returns the node record for id, if known.
func (ix *Index) Node(id string) (model.Node, bool) {
	n, ok := ix.nodes[model.NormalizeID(id)]
	return n, ok
}

// Neighbors returns the normalized neighbor ids of id in lexicographic
// order. An absent id yields an empty result, not an error: callers treat
// unknown ids as isolated.
func (ix *Index) Neighbors(id string) []string {
	return ix.sorted[model.NormalizeID(id)]
}

// HasEdge reports whether a and b are directly connected.
func (ix *Index) HasEdge(a, b string) bool {
	nbrs, ok := ix.adj[model.NormalizeID(a)]
	if !ok {
		return false
	}
	_, connected := nbrs[model.NormalizeID(b)]
	return connected
}

// Degree returns the number of distinct neighbors of id. Deduplication at
// build time guarantees a stored edge never counts twice.
func (ix *Index) Degree(id string) int {
	return len(ix.adj[model.NormalizeID(id)])
}

// Order returns the node count of the snapshot.
func (ix *Index) Order() int {
	return len(ix.nodes)
}

// Size returns the deduplicated, undirected edge count.
func (ix *Index) Size() int {
	return len(ix.edges)
}

// IDs returns every normalized node id in lexicographic order. The returned
// slice is shared; callers must not modify it.
func (ix *Index) IDs() []string {
	return ix.ids
}

// Nodes returns every node record in normalized-id order.
func (ix *Index) Nodes() []model.Node {
	out := make([]model.Node, 0, len(ix.ids))
	for _, id := range ix.ids {
		out = append(out, ix.nodes[id])
	}
	return out
}

// Edges returns the deduplicated edge list in build order. The returned
// slice is shared; callers must not modify it.
func (ix *Index) Edges() []model.Edge {
	return ix.edges
}

// Edge returns the stored edge record connecting a and b, if one exists,
// regardless of the orientation it was stored under.
func (ix *Index) Edge(a, b string) (model.Edge, bool) {
	na := model.NormalizeID(a)
	nb := model.NormalizeID(b)
	key := [2]string{na, nb}
	if nb < na {
		key = [2]string{nb, na}
	}
	e, ok := ix.edgeByKey[key]
	return e, ok
}

// DisplayID returns the original display name for a normalized (or raw) id,
// falling back to the input when unknown.
func (ix *Index) DisplayID(id string) string {
	if n, ok := ix.nodes[model.NormalizeID(id)]; ok {
		return n.ID
	}
	return id
}
