package model

// ExplorerMode names the query strategy that produced an ExplorerState.
type ExplorerMode string

const (
	ModeShortest ExplorerMode = "shortest"
	ModeDirect   ExplorerMode = "direct"
	ModeAllPaths ExplorerMode = "all_paths"
)

// ExplorerState is the outcome of an active path or multi-node query.
// It is created per query, replaced wholesale by the next query, and
// cleared on reset. Anchors are always rendered regardless of filters.
type ExplorerState struct {
	Anchors      []string     `json:"anchors"`
	VisibleNodes []string     `json:"visible_nodes"`
	VisibleEdges []Edge       `json:"visible_edges"`
	Mode         ExplorerMode `json:"mode"`
}

// FilterMode controls how multiple subtype filters combine for persons.
type FilterMode string

const (
	FilterOr  FilterMode = "or"
	FilterAnd FilterMode = "and"
)

// FilterState holds the persistent type/subtype filters. It is independent
// of ExplorerState and survives explorer queries until explicitly cleared.
// Empty Kinds/Subtypes mean no restriction on that axis.
type FilterState struct {
	Kinds    []Kind     `json:"kinds"`
	Subtypes []string   `json:"subtypes"`
	Mode     FilterMode `json:"mode"`
}
