// Package visibility reconciles "what the explorer found" with "what the
// filters allow" into the single authoritative visible node/edge set.
//
// The resolver is a pure combinator: it never mutates the explorer or
// filter state it is handed, holds nothing between calls, and can be re-run
// on every filter toggle.
package visibility

import (
	"sort"

	"github.com/archivegraph/lattice/internal/core/graph"
	"github.com/archivegraph/lattice/internal/core/model"
)

// Result is the final visible set, by display name. Edges is the full
// induced subgraph over Nodes whenever subtype filters are active, so every
// real connection among displayed nodes is shown even when the expansion
// walk never traversed it.
type Result struct {
	Nodes []string     `json:"nodes"`
	Edges []model.Edge `json:"edges"`
}

// Resolve combines an optional explorer state (nil means "whole graph") and
// an optional filter state (nil means "no restriction") against a snapshot.
//
// Rules, in order:
//   - anchors are always visible, regardless of filters
//   - every other node must be in the explorer's visible set AND satisfy
//     the filter predicate
//   - active subtype filters with anchors additionally walk two hops out
//     from each anchor to pick up matching institutions, including the
//     intermediary nodes on the way even though those match no filter
//     themselves
func Resolve(ix *graph.Index, explorer *model.ExplorerState, filter *model.FilterState) Result {
	f := newFilterView(ix, filter)

	// Candidate pool: the explorer's visible set, or the whole snapshot.
	candidates := ix.IDs()
	anchors := map[string]struct{}{}
	if explorer != nil {
		pool := make([]string, 0, len(explorer.VisibleNodes))
		poolSeen := map[string]struct{}{}
		add := func(raw string) {
			id := model.NormalizeID(raw)
			if !ix.Contains(id) {
				return
			}
			if _, dup := poolSeen[id]; !dup {
				poolSeen[id] = struct{}{}
				pool = append(pool, id)
			}
		}
		for _, raw := range explorer.VisibleNodes {
			add(raw)
		}
		for _, raw := range explorer.Anchors {
			add(raw)
			if id := model.NormalizeID(raw); ix.Contains(id) {
				anchors[id] = struct{}{}
			}
		}
		candidates = pool
	}

	visible := map[string]struct{}{}
	for id := range anchors {
		visible[id] = struct{}{}
	}
	for _, id := range candidates {
		if _, anchored := anchors[id]; anchored {
			continue
		}
		if f.pass(id) {
			visible[id] = struct{}{}
		}
	}

	if f.subtypesActive() && len(anchors) > 0 {
		expandSubtypes(ix, f, anchors, visible)
	}

	return collect(ix, explorer, f, visible)
}

// filterView is the FilterState predicate, precomputed against a snapshot.
type filterView struct {
	ix         *graph.Index
	kinds      map[model.Kind]struct{}
	subtypes   map[string]struct{}
	requireAll bool // FilterAnd with two or more subtypes
}

func newFilterView(ix *graph.Index, filter *model.FilterState) *filterView {
	f := &filterView{
		ix:       ix,
		kinds:    map[model.Kind]struct{}{},
		subtypes: map[string]struct{}{},
	}
	if filter == nil {
		return f
	}
	for _, k := range filter.Kinds {
		f.kinds[k] = struct{}{}
	}
	for _, s := range filter.Subtypes {
		if norm := model.NormalizeID(s); norm != "" {
			f.subtypes[norm] = struct{}{}
		}
	}
	f.requireAll = filter.Mode == model.FilterAnd && len(f.subtypes) >= 2
	return f
}

func (f *filterView) subtypesActive() bool {
	return len(f.subtypes) > 0
}

func (f *filterView) kindOK(k model.Kind) bool {
	if len(f.kinds) == 0 {
		return true
	}
	_, ok := f.kinds[k]
	return ok
}

// matchingInstitution reports whether id is an institution carrying one of
// the selected subtypes.
func (f *filterView) matchingInstitution(id string) bool {
	n, ok := f.ix.Node(id)
	if !ok || n.Kind != model.KindInstitution {
		return false
	}
	_, match := f.subtypes[model.NormalizeID(n.Subtype)]
	return match
}

// reachedSubtypes collects which of the selected subtypes id can reach
// through a directly adjacent institution.
func (f *filterView) reachedSubtypes(id string) map[string]struct{} {
	reached := map[string]struct{}{}
	for _, v := range f.ix.Neighbors(id) {
		n, ok := f.ix.Node(v)
		if !ok || n.Kind != model.KindInstitution {
			continue
		}
		sub := model.NormalizeID(n.Subtype)
		if _, selected := f.subtypes[sub]; selected {
			reached[sub] = struct{}{}
		}
	}
	return reached
}

// connectionOK applies the Or/And combination rule for non-institution
// nodes under active subtype filters: Or needs one matching institution
// neighbor, And needs all selected subtypes covered.
func (f *filterView) connectionOK(id string) bool {
	reached := f.reachedSubtypes(id)
	if f.requireAll {
		return len(reached) == len(f.subtypes)
	}
	return len(reached) > 0
}

// pass is the full filter predicate for one node.
func (f *filterView) pass(id string) bool {
	n, ok := f.ix.Node(id)
	if !ok {
		return false
	}
	if !f.kindOK(n.Kind) {
		return false
	}
	if !f.subtypesActive() {
		return true
	}
	if n.Kind == model.KindInstitution {
		_, match := f.subtypes[model.NormalizeID(n.Subtype)]
		return match
	}
	return f.connectionOK(id)
}

// expandSubtypes walks up to two hops from each anchor to find institutions
// matching a selected subtype, pulling in the intermediary nodes on the way.
// This is what lets a user see WHY an anchor connects to a filtered
// institution, not just that it does.
func expandSubtypes(ix *graph.Index, f *filterView, anchors, visible map[string]struct{}) {
	for anchor := range anchors {
		for _, p := range ix.Neighbors(anchor) {
			// One hop: a matching institution adjacent to the anchor.
			if f.matchingInstitution(p) {
				visible[p] = struct{}{}
				continue
			}
			// Two hops: institutions behind an intermediary. Under And the
			// intermediary itself must cover every selected subtype.
			if f.requireAll && !f.connectionOK(p) {
				continue
			}
			included := false
			for _, y := range ix.Neighbors(p) {
				if y == anchor || !f.matchingInstitution(y) {
					continue
				}
				visible[y] = struct{}{}
				included = true
			}
			if included {
				visible[p] = struct{}{}
			}
		}
	}
}

// collect materializes the result. Subtype filters force the induced
// subgraph over the final node set; otherwise explorer edges (when present)
// are trimmed to visible endpoints, and the whole-graph case falls back to
// the induced subgraph as well.
func collect(ix *graph.Index, explorer *model.ExplorerState, f *filterView, visible map[string]struct{}) Result {
	nodes := make([]string, 0, len(visible))
	for id := range visible {
		nodes = append(nodes, id)
	}
	sort.Strings(nodes)

	res := Result{Nodes: make([]string, 0, len(nodes)), Edges: []model.Edge{}}
	for _, id := range nodes {
		res.Nodes = append(res.Nodes, ix.DisplayID(id))
	}

	induced := f.subtypesActive() || explorer == nil
	if induced {
		for _, e := range ix.Edges() {
			_, a := visible[model.NormalizeID(e.Source)]
			_, b := visible[model.NormalizeID(e.Target)]
			if a && b {
				res.Edges = append(res.Edges, e)
			}
		}
		return res
	}

	seen := map[[2]string]struct{}{}
	for _, e := range explorer.VisibleEdges {
		a := model.NormalizeID(e.Source)
		b := model.NormalizeID(e.Target)
		if _, ok := visible[a]; !ok {
			continue
		}
		if _, ok := visible[b]; !ok {
			continue
		}
		key := [2]string{a, b}
		if b < a {
			key = [2]string{b, a}
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		res.Edges = append(res.Edges, e)
	}
	return res
}
