package model

// Path is an ordered node sequence from start to end, by display name.
// Its length in hops is len(path)-1; a single-node path has length zero.
type Path []string

// Length returns the hop count of the path.
func (p Path) Length() int {
	if len(p) == 0 {
		return 0
	}
	return len(p) - 1
}

// PathResult is the outcome of bounded alternate-path enumeration.
// Overflow reports that the expansion budget was hit and Paths is a
// truncated (but valid) subset rather than a failure.
type PathResult struct {
	Paths    []Path `json:"paths"`
	Overflow bool   `json:"overflow"`
}

// DirectConnection is the lightweight "direct only" answer for two anchors:
// whether they are adjacent, plus the nodes adjacent to both.
type DirectConnection struct {
	DirectEdge      bool     `json:"direct_edge"`
	SharedNeighbors []string `json:"shared_neighbors"`
}
