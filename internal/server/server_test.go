package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archivegraph/lattice/internal/config"
	"github.com/archivegraph/lattice/internal/core"
	"github.com/archivegraph/lattice/internal/core/model"
)

type stubDriver struct{}

func (stubDriver) ExecuteQuery(context.Context, string, map[string]interface{}) (neo4j.EagerResult, error) {
	return neo4j.EagerResult{}, nil
}
func (stubDriver) BuildIndices(context.Context) error { return nil }
func (stubDriver) Close(context.Context) error        { return nil }

func testServer(t *testing.T, loaded bool) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := core.NewEngine(stubDriver{}, config.Default())
	if loaded {
		err := engine.Load(
			[]model.Node{
				{ID: "Verdi", Kind: model.KindPerson},
				{ID: "Ricordi", Kind: model.KindPerson},
				{ID: "Casa Ricordi", Kind: model.KindInstitution, Subtype: "publisher"},
			},
			[]model.Edge{
				{Source: "Verdi", Target: "Ricordi", Kind: model.EdgeKindPersonal},
				{Source: "Ricordi", Target: "Casa Ricordi", Kind: model.EdgeKindAffiliation},
			},
		)
		require.NoError(t, err)
	}
	return &Server{Engine: engine, Config: engine.Config}
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetGraph(t *testing.T) {
	s := testServer(t, true)
	w := doJSON(t, s.SetupRouter(), http.MethodGet, "/api/graph", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var payload core.GraphPayload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Len(t, payload.Nodes, 3)
	assert.Len(t, payload.Links, 2)
}

func TestGetGraph_NoSnapshot(t *testing.T) {
	s := testServer(t, false)
	w := doJSON(t, s.SetupRouter(), http.MethodGet, "/api/graph", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestShortestPathRoute(t *testing.T) {
	s := testServer(t, true)
	r := s.SetupRouter()

	w := doJSON(t, r, http.MethodGet, "/api/paths/shortest?start=verdi&end=casa%20ricordi", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Found  bool     `json:"found"`
		Path   []string `json:"path"`
		Length int      `json:"length"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Found)
	assert.Equal(t, []string{"Verdi", "Ricordi", "Casa Ricordi"}, resp.Path)
	assert.Equal(t, 2, resp.Length)
}

func TestShortestPathRoute_MissingParams(t *testing.T) {
	s := testServer(t, true)
	w := doJSON(t, s.SetupRouter(), http.MethodGet, "/api/paths/shortest?start=verdi", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAllPathsRoute(t *testing.T) {
	s := testServer(t, true)
	w := doJSON(t, s.SetupRouter(), http.MethodGet, "/api/paths/all?start=verdi&end=ricordi", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var result model.PathResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.False(t, result.Overflow)
	require.Len(t, result.Paths, 1)
}

func TestExploreRoute(t *testing.T) {
	s := testServer(t, true)
	w := doJSON(t, s.SetupRouter(), http.MethodPost, "/api/explore", gin.H{
		"start": "verdi",
		"end":   "casa ricordi",
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		ExplorerState model.ExplorerState `json:"explorer_state"`
		Paths         []model.Path        `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, model.ModeShortest, resp.ExplorerState.Mode, "mode defaults to shortest")
	assert.Len(t, resp.ExplorerState.VisibleNodes, 3)
	require.Len(t, resp.Paths, 1)
}

func TestAnalyzeSelectionRoute_Errors(t *testing.T) {
	s := testServer(t, true)
	r := s.SetupRouter()

	w := doJSON(t, r, http.MethodPost, "/api/selection/analyze", gin.H{"ids": []string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/selection/analyze", gin.H{"ids": []string{"Nobody Here"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCommunitiesRoute(t *testing.T) {
	s := testServer(t, true)
	w := doJSON(t, s.SetupRouter(), http.MethodGet, "/api/communities?seed=42", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Labels      map[string]int  `json:"labels"`
		Communities []CommunityView `json:"communities"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Labels, 3)
	require.NotEmpty(t, resp.Communities)
	assert.False(t, resp.Communities[0].Emphasized, "threshold is far above this fixture")
}

func TestCommunitiesRoute_BadSeed(t *testing.T) {
	s := testServer(t, true)
	w := doJSON(t, s.SetupRouter(), http.MethodGet, "/api/communities?seed=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVisibilityRoute(t *testing.T) {
	s := testServer(t, true)
	w := doJSON(t, s.SetupRouter(), http.MethodPost, "/api/visibility", gin.H{
		"explorer": gin.H{
			"anchors":       []string{"Verdi"},
			"visible_nodes": []string{"Verdi"},
		},
		"filter": gin.H{
			"subtypes": []string{"publisher"},
			"mode":     "or",
		},
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Nodes []string `json:"nodes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Casa Ricordi", "Ricordi", "Verdi"}, resp.Nodes)
}

func TestCreateNodeRoute_InvalidType(t *testing.T) {
	s := testServer(t, true)
	w := doJSON(t, s.SetupRouter(), http.MethodPost, "/api/nodes", gin.H{
		"name": "Someone",
		"type": "spaceship",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateNodeRoute(t *testing.T) {
	s := testServer(t, true)
	w := doJSON(t, s.SetupRouter(), http.MethodPost, "/api/nodes", gin.H{
		"name": "Someone New",
		"type": "person",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateEdgeRoute_MissingEndpointIs404(t *testing.T) {
	// The stub driver returns zero records for the edge MERGE and for the
	// endpoint probes, so both endpoints come back unknown.
	s := testServer(t, true)
	w := doJSON(t, s.SetupRouter(), http.MethodPost, "/api/edges", gin.H{
		"source": "Verdi",
		"target": "Nobody",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
