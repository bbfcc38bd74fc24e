// Package importer reads the project's two-file CSV layout: a types file
// declaring each actor (name, type, optional subtype) and an edges file
// listing connections (source, target, optional type).
package importer

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/archivegraph/lattice/internal/core/model"
)

// Report is the import accounting: what was created and what was skipped
// as a duplicate or malformed row.
type Report struct {
	NodesCreated int `json:"nodes_created"`
	NodesSkipped int `json:"nodes_skipped"`
	EdgesCreated int `json:"edges_created"`
	EdgesSkipped int `json:"edges_skipped"`
}

// LoadCSV parses both files into deduplicated node and edge lists.
//
// Unrecognized node types are coerced to "unknown", a missing edge type
// defaults to "affiliation" (matching the source data where most untyped
// rows are person-institution links), blank rows are dropped, and edge
// endpoints never declared in the types file are created as unknown-kind
// nodes so the edge list alone still yields a loadable graph. Self-loops
// and duplicate edges (either orientation) are skipped.
func LoadCSV(typesPath, edgesPath string) ([]model.Node, []model.Edge, *Report, error) {
	typeRows, err := readCSV(typesPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to read types csv: %w", err)
	}
	edgeRows, err := readCSV(edgesPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to read edges csv: %w", err)
	}

	report := &Report{}
	var nodes []model.Node
	known := map[string]struct{}{}

	addNode := func(name string, kind model.Kind, subtype string) {
		id := model.NormalizeID(name)
		if id == "" {
			return
		}
		if _, dup := known[id]; dup {
			report.NodesSkipped++
			return
		}
		known[id] = struct{}{}
		nodes = append(nodes, model.Node{ID: name, Kind: kind, Subtype: subtype})
		report.NodesCreated++
	}

	for _, row := range skipHeader(typeRows) {
		if len(row) < 2 {
			continue
		}
		name := trimmed(row, 0)
		if name == "" {
			continue
		}
		kind := model.Kind(model.NormalizeID(trimmed(row, 1)))
		if kind != model.KindPerson && kind != model.KindInstitution {
			kind = model.KindUnknown
		}
		addNode(name, kind, trimmed(row, 2))
	}

	var edges []model.Edge
	edgeSeen := map[[2]string]struct{}{}
	for _, row := range skipHeader(edgeRows) {
		if len(row) < 2 {
			continue
		}
		source := trimmed(row, 0)
		target := trimmed(row, 1)
		if source == "" || target == "" {
			continue
		}

		kind := model.EdgeKind(model.NormalizeID(trimmed(row, 2)))
		if kind != model.EdgeKindPersonal && kind != model.EdgeKindAffiliation {
			kind = model.EdgeKindAffiliation
		}

		s := model.NormalizeID(source)
		t := model.NormalizeID(target)
		if s == t {
			report.EdgesSkipped++
			continue
		}
		if _, ok := known[s]; !ok {
			addNode(source, model.KindUnknown, "")
		}
		if _, ok := known[t]; !ok {
			addNode(target, model.KindUnknown, "")
		}

		key := [2]string{s, t}
		if t < s {
			key = [2]string{t, s}
		}
		if _, dup := edgeSeen[key]; dup {
			report.EdgesSkipped++
			continue
		}
		edgeSeen[key] = struct{}{}
		edges = append(edges, model.Edge{Source: source, Target: target, Kind: kind})
		report.EdgesCreated++
	}

	return nodes, edges, report, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // rows vary between 2 and 3 columns
	return r.ReadAll()
}

func skipHeader(rows [][]string) [][]string {
	if len(rows) == 0 {
		return rows
	}
	return rows[1:]
}

func trimmed(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
