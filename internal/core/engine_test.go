package core

import (
	"context"
	"strings"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archivegraph/lattice/internal/core/graph"
	"github.com/archivegraph/lattice/internal/core/model"
)

// mockDriver satisfies driver.GraphDriver with a pluggable query handler.
type mockDriver struct {
	exec    func(query string, params map[string]interface{}) (neo4j.EagerResult, error)
	queries []string
}

func (m *mockDriver) ExecuteQuery(_ context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	m.queries = append(m.queries, query)
	if m.exec == nil {
		return neo4j.EagerResult{}, nil
	}
	return m.exec(query, params)
}

func (m *mockDriver) BuildIndices(context.Context) error { return nil }
func (m *mockDriver) Close(context.Context) error        { return nil }

func record(keys []string, values ...interface{}) *neo4j.Record {
	return &neo4j.Record{Keys: keys, Values: values}
}

func loadedEngine(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine(&mockDriver{}, nil)
	err := e.Load(
		[]model.Node{
			{ID: "Verdi", Kind: model.KindPerson},
			{ID: "Ricordi", Kind: model.KindPerson},
			{ID: "Casa Ricordi", Kind: model.KindInstitution, Subtype: "publisher"},
			{ID: "Lone", Kind: model.KindPerson},
		},
		[]model.Edge{
			{Source: "Verdi", Target: "Ricordi", Kind: model.EdgeKindPersonal},
			{Source: "Ricordi", Target: "Casa Ricordi", Kind: model.EdgeKindAffiliation},
		},
	)
	require.NoError(t, err)
	return e
}

func TestEngine_NoSnapshot(t *testing.T) {
	e := NewEngine(&mockDriver{}, nil)

	_, _, err := e.ShortestPath("a", "b")
	assert.ErrorIs(t, err, ErrNoSnapshot)

	_, err = e.Stats()
	assert.ErrorIs(t, err, ErrNoSnapshot)

	_, err = e.Info()
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestEngine_LoadInstallsSnapshot(t *testing.T) {
	e := loadedEngine(t)

	info, err := e.Info()
	require.NoError(t, err)
	assert.NotEmpty(t, info.ID)
	assert.False(t, info.LoadedAt.IsZero())
	assert.Equal(t, 4, info.Nodes)
	assert.Equal(t, 2, info.Edges)
}

func TestEngine_LoadRotatesSnapshotID(t *testing.T) {
	e := loadedEngine(t)
	first, err := e.Info()
	require.NoError(t, err)

	require.NoError(t, e.Load([]model.Node{{ID: "solo", Kind: model.KindPerson}}, nil))
	second, err := e.Info()
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 1, second.Nodes)
}

func TestEngine_Refresh(t *testing.T) {
	nodeKeys := []string{"name", "kind", "subtype"}
	edgeKeys := []string{"source", "target", "kind"}
	mock := &mockDriver{
		exec: func(query string, _ map[string]interface{}) (neo4j.EagerResult, error) {
			if strings.Contains(query, "CONNECTED_TO") {
				return neo4j.EagerResult{Records: []*neo4j.Record{
					record(edgeKeys, "Verdi", "Ricordi", "personal"),
				}}, nil
			}
			return neo4j.EagerResult{Records: []*neo4j.Record{
				record(nodeKeys, "Verdi", "person", ""),
				record(nodeKeys, "Ricordi", "person", ""),
				record(nodeKeys, "Odd Row", nil, nil), // null kind coerced to unknown
			}}, nil
		},
	}
	e := NewEngine(mock, nil)

	require.NoError(t, e.Refresh(context.Background()))

	info, err := e.Info()
	require.NoError(t, err)
	assert.Equal(t, 3, info.Nodes)
	assert.Equal(t, 1, info.Edges)

	ix, err := e.Snapshot()
	require.NoError(t, err)
	n, ok := ix.Node("odd row")
	require.True(t, ok)
	assert.Equal(t, model.KindUnknown, n.Kind)
}

func TestEngine_ShortestPath(t *testing.T) {
	e := loadedEngine(t)

	p, ok, err := e.ShortestPath("verdi", "casa ricordi")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.Path{"Verdi", "Ricordi", "Casa Ricordi"}, p)

	_, ok, err = e.ShortestPath("verdi", "lone")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEngine_AllPathsUsesConfiguredBounds(t *testing.T) {
	e := loadedEngine(t)

	res, err := e.AllPaths("verdi", "casa ricordi", 0, -1)
	require.NoError(t, err)
	require.Len(t, res.Paths, 1)
	assert.False(t, res.Overflow)
}

func TestEngine_Explore_Shortest(t *testing.T) {
	e := loadedEngine(t)

	state, result, err := e.Explore("verdi", "casa ricordi", model.ModeShortest)
	require.NoError(t, err)

	assert.Equal(t, []string{"Verdi", "Casa Ricordi"}, state.Anchors)
	assert.Equal(t, []string{"Verdi", "Ricordi", "Casa Ricordi"}, state.VisibleNodes)
	assert.Len(t, state.VisibleEdges, 2)
	require.Len(t, result.Paths, 1)
}

func TestEngine_Explore_NoPathKeepsAnchorsVisible(t *testing.T) {
	e := loadedEngine(t)

	state, result, err := e.Explore("verdi", "lone", model.ModeShortest)
	require.NoError(t, err)

	assert.Equal(t, []string{"Verdi", "Lone"}, state.VisibleNodes)
	assert.Empty(t, state.VisibleEdges)
	assert.Empty(t, result.Paths)
}

func TestEngine_Explore_Direct(t *testing.T) {
	e := loadedEngine(t)

	state, _, err := e.Explore("verdi", "ricordi", model.ModeDirect)
	require.NoError(t, err)

	assert.Contains(t, state.VisibleNodes, "Verdi")
	assert.Contains(t, state.VisibleNodes, "Ricordi")
	require.Len(t, state.VisibleEdges, 1)
	assert.Equal(t, model.EdgeKindPersonal, state.VisibleEdges[0].Kind)
}

func TestEngine_Stats(t *testing.T) {
	e := loadedEngine(t)

	stats, err := e.Stats()
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Nodes)
	assert.Equal(t, 2, stats.Edges)
	assert.Equal(t, 3, stats.NodesByKind[model.KindPerson])
	assert.Equal(t, 1, stats.NodesByKind[model.KindInstitution])
	assert.Equal(t, 1, stats.Subtypes["publisher"])
	assert.Equal(t, 1, stats.IsolatedNodes)
	assert.Equal(t, 2, stats.Components)
	assert.Equal(t, 1, stats.EdgesByKind[model.EdgeKindPersonal])
	assert.InDelta(t, 1.0, stats.AvgDegree, 1e-9)
}

func TestEngine_GraphJSON(t *testing.T) {
	e := loadedEngine(t)

	payload, err := e.GraphJSON()
	require.NoError(t, err)
	assert.Len(t, payload.Nodes, 4)
	assert.Len(t, payload.Links, 2)
}

func TestEngine_SaveNodeValidation(t *testing.T) {
	mock := &mockDriver{}
	e := NewEngine(mock, nil)

	err := e.SaveNode(context.Background(), model.Node{ID: "   "})
	require.Error(t, err)
	assert.Empty(t, mock.queries, "invalid input never reaches the store")
}

func TestEngine_SaveNodeDefaultsKind(t *testing.T) {
	var gotParams map[string]interface{}
	mock := &mockDriver{
		exec: func(_ string, params map[string]interface{}) (neo4j.EagerResult, error) {
			gotParams = params
			return neo4j.EagerResult{}, nil
		},
	}
	e := NewEngine(mock, nil)

	require.NoError(t, e.SaveNode(context.Background(), model.Node{ID: "New Actor"}))
	assert.Equal(t, "new actor", gotParams["name_normalized"])
	assert.Equal(t, "unknown", gotParams["kind"])
}

func TestEngine_SaveEdgeRejectsSelfLoop(t *testing.T) {
	e := NewEngine(&mockDriver{}, nil)

	err := e.SaveEdge(context.Background(), model.Edge{Source: "A", Target: " a "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "self-loops")
}

func TestEngine_SaveEdgeReportsMissingEndpoints(t *testing.T) {
	// The edge MERGE matches nothing; the follow-up probes find only
	// "known" present.
	mock := &mockDriver{
		exec: func(query string, params map[string]interface{}) (neo4j.EagerResult, error) {
			if strings.Contains(query, "CONNECTED_TO") {
				return neo4j.EagerResult{}, nil
			}
			if params["name_normalized"] == "known" {
				return neo4j.EagerResult{Records: []*neo4j.Record{
					record([]string{"name", "kind", "subtype"}, "Known", "person", ""),
				}}, nil
			}
			return neo4j.EagerResult{}, nil
		},
	}
	e := NewEngine(mock, nil)

	err := e.SaveEdge(context.Background(), model.Edge{Source: "Known", Target: "Missing"})
	var unknown *graph.UnknownNodeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, []string{"missing"}, unknown.IDs)
}
