package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archivegraph/lattice/internal/core/graph"
	"github.com/archivegraph/lattice/internal/core/model"
)

func buildIndex(t *testing.T, names []string, pairs [][2]string) *graph.Index {
	t.Helper()
	nodes := make([]model.Node, 0, len(names))
	for _, n := range names {
		nodes = append(nodes, model.Node{ID: n, Kind: model.KindPerson})
	}
	edges := make([]model.Edge, 0, len(pairs))
	for _, p := range pairs {
		edges = append(edges, model.Edge{Source: p[0], Target: p[1]})
	}
	ix, err := graph.Build(nodes, edges)
	require.NoError(t, err)
	return ix
}

func TestAnalyze_FourCycle(t *testing.T) {
	// a - b
	// |   |
	// d - c     4 of 6 possible links present
	ix := buildIndex(t,
		[]string{"a", "b", "c", "d"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"c", "d"}, {"d", "a"}},
	)

	res, err := Analyze(ix, []string{"a", "b", "c", "d"}, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c", "d"}, res.Nodes)
	assert.Len(t, res.DirectLinks, 4)
	assert.InDelta(t, 4.0/6.0, res.Density, 1e-9)
	assert.Empty(t, res.IsolatedNodes)
	assert.Equal(t, 2, res.ConnectionCounts["a"])

	require.Len(t, res.Components, 1)
	assert.Equal(t, []string{"a", "b", "c", "d"}, res.Components[0])

	assert.True(t, res.Matrix[0][1], "a-b")
	assert.False(t, res.Matrix[0][2], "a-c is not a direct link")
	assert.True(t, res.Matrix[2][1], "matrix is symmetric")
}

func TestAnalyze_DisconnectedSelection(t *testing.T) {
	// Edges exist in the graph but none between the selected trio.
	ix := buildIndex(t,
		[]string{"a", "b", "c", "hub"},
		[][2]string{{"a", "hub"}, {"b", "hub"}, {"c", "hub"}},
	)

	res, err := Analyze(ix, []string{"a", "b", "c"}, 0)
	require.NoError(t, err)

	assert.Empty(t, res.DirectLinks)
	assert.Zero(t, res.Density)
	assert.Equal(t, []string{"a", "b", "c"}, res.IsolatedNodes)
	assert.Len(t, res.Components, 3, "every node is its own component")
}

func TestAnalyze_SplitComponents(t *testing.T) {
	// Pair a-b plus pair c-d, no cross links.
	ix := buildIndex(t,
		[]string{"a", "b", "c", "d"},
		[][2]string{{"a", "b"}, {"c", "d"}},
	)

	res, err := Analyze(ix, []string{"a", "b", "c", "d"}, 0)
	require.NoError(t, err)

	assert.Empty(t, res.IsolatedNodes)
	require.Len(t, res.Components, 2)
	assert.Equal(t, []string{"a", "b"}, res.Components[0])
	assert.Equal(t, []string{"c", "d"}, res.Components[1])
}

func TestAnalyze_SingleNode(t *testing.T) {
	ix := buildIndex(t, []string{"a", "b"}, [][2]string{{"a", "b"}})

	res, err := Analyze(ix, []string{"a"}, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, res.Nodes)
	assert.Empty(t, res.DirectLinks)
	assert.Zero(t, res.Density)
	assert.Equal(t, []string{"a"}, res.IsolatedNodes)
}

func TestAnalyze_DeduplicatesInput(t *testing.T) {
	ix := buildIndex(t, []string{"Alice", "Bob"}, [][2]string{{"Alice", "Bob"}})

	res, err := Analyze(ix, []string{"Alice", "ALICE ", "bob", ""}, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"Alice", "Bob"}, res.Nodes)
	assert.Len(t, res.DirectLinks, 1)
	assert.Equal(t, 1.0, res.Density)
}

func TestAnalyze_EmptySelection(t *testing.T) {
	ix := buildIndex(t, []string{"a"}, nil)

	_, err := Analyze(ix, nil, 0)
	assert.ErrorIs(t, err, ErrTooFewNodes)

	_, err = Analyze(ix, []string{"", "   "}, 0)
	assert.ErrorIs(t, err, ErrTooFewNodes)
}

func TestAnalyze_TooManyNodes(t *testing.T) {
	names := []string{"a", "b", "c", "d"}
	ix := buildIndex(t, names, nil)

	_, err := Analyze(ix, names, 3)
	var tooMany *TooManyNodesError
	require.ErrorAs(t, err, &tooMany)
	assert.Equal(t, 4, tooMany.Count)
	assert.Equal(t, 3, tooMany.Max)
}

func TestAnalyze_UnknownIDsAggregated(t *testing.T) {
	ix := buildIndex(t, []string{"a"}, nil)

	_, err := Analyze(ix, []string{"a", "Ghost Two", "ghost one"}, 0)
	var unknown *graph.UnknownNodeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, []string{"ghost one", "ghost two"}, unknown.IDs)
}
