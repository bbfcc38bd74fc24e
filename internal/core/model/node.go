package model

import "strings"

// Kind classifies an actor in the historical network.
type Kind string

const (
	KindPerson      Kind = "person"
	KindInstitution Kind = "institution"
	// KindUnknown marks nodes imported from edge lists without a type row.
	KindUnknown Kind = "unknown"
)

// Node is one actor in the network. ID is the display name exactly as
// imported; all matching happens on the normalized form (see NormalizeID).
// Subtype is only meaningful for institutions.
type Node struct {
	ID      string `json:"id"`
	Kind    Kind   `json:"type"`
	Subtype string `json:"subtype,omitempty"`
}

// NormalizeID is the canonical comparison form of a node id: trimmed,
// inner whitespace collapsed to single spaces, lowercased. Every lookup in
// the engine normalizes before matching.
func NormalizeID(id string) string {
	return strings.ToLower(strings.Join(strings.Fields(id), " "))
}
