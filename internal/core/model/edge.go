package model

// EdgeKind classifies a connection between two actors.
type EdgeKind string

const (
	EdgeKindPersonal    EdgeKind = "personal"
	EdgeKindAffiliation EdgeKind = "affiliation"
	EdgeKindUnknown     EdgeKind = "unknown"
)

// Edge is an undirected connection between two nodes, referenced by display
// name. Source/Target carry no direction for analysis; a→b and b→a describe
// the same stored edge.
type Edge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Kind   EdgeKind `json:"type,omitempty"`
}
