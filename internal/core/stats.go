package core

import (
	"github.com/archivegraph/lattice/internal/core/community"
	"github.com/archivegraph/lattice/internal/core/model"
)

// NetworkStats summarizes the installed snapshot.
type NetworkStats struct {
	Nodes         int                    `json:"nodes"`
	Edges         int                    `json:"edges"`
	NodesByKind   map[model.Kind]int     `json:"nodes_by_kind"`
	EdgesByKind   map[model.EdgeKind]int `json:"edges_by_kind"`
	Subtypes      map[string]int         `json:"subtypes"`
	IsolatedNodes int                    `json:"isolated_nodes"`
	Components    int                    `json:"components"`
	AvgDegree     float64                `json:"avg_degree"`
}

// Stats computes node/edge breakdowns against the current snapshot.
func (e *Engine) Stats() (NetworkStats, error) {
	ix, err := e.Snapshot()
	if err != nil {
		return NetworkStats{}, err
	}

	stats := NetworkStats{
		Nodes:       ix.Order(),
		Edges:       ix.Size(),
		NodesByKind: make(map[model.Kind]int),
		EdgesByKind: make(map[model.EdgeKind]int),
		Subtypes:    make(map[string]int),
		Components:  community.CountComponents(ix),
	}

	for _, n := range ix.Nodes() {
		stats.NodesByKind[n.Kind]++
		if n.Kind == model.KindInstitution && n.Subtype != "" {
			stats.Subtypes[model.NormalizeID(n.Subtype)]++
		}
		if ix.Degree(n.ID) == 0 {
			stats.IsolatedNodes++
		}
	}

	for _, e := range ix.Edges() {
		kind := e.Kind
		if kind == "" {
			kind = model.EdgeKindUnknown
		}
		stats.EdgesByKind[kind]++
	}

	if stats.Nodes > 0 {
		stats.AvgDegree = 2 * float64(stats.Edges) / float64(stats.Nodes)
	}
	return stats, nil
}

// GraphPayload is the full snapshot in the visualization's graph.json
// shape: node ids are display names, links reference them.
type GraphPayload struct {
	Nodes []model.Node `json:"nodes"`
	Links []model.Edge `json:"links"`
}

// GraphJSON exports the current snapshot for the rendering layer.
func (e *Engine) GraphJSON() (GraphPayload, error) {
	ix, err := e.Snapshot()
	if err != nil {
		return GraphPayload{}, err
	}
	return GraphPayload{
		Nodes: ix.Nodes(),
		Links: ix.Edges(),
	}, nil
}
