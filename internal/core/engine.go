package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"golang.org/x/sync/errgroup"

	"github.com/archivegraph/lattice/internal/config"
	"github.com/archivegraph/lattice/internal/core/community"
	"github.com/archivegraph/lattice/internal/core/graph"
	"github.com/archivegraph/lattice/internal/core/model"
	"github.com/archivegraph/lattice/internal/core/pathfind"
	"github.com/archivegraph/lattice/internal/core/selection"
	"github.com/archivegraph/lattice/internal/core/visibility"
	"github.com/archivegraph/lattice/internal/driver"
)

// ErrNoSnapshot means analysis was requested before any graph was loaded.
var ErrNoSnapshot = errors.New("no graph snapshot loaded; refresh first")

// Engine owns the current immutable snapshot of the network and runs every
// analytical query against it. Writes go through the driver and become
// observable only after the next Refresh; rebuilding is the only way a
// snapshot changes.
type Engine struct {
	Driver driver.GraphDriver
	Config *config.Config

	mu         sync.RWMutex
	snapshot   *graph.Index
	snapshotID string
	loadedAt   time.Time
}

func NewEngine(d driver.GraphDriver, cfg *config.Config) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Engine{
		Driver: d,
		Config: cfg,
	}
}

// Refresh loads the full node and edge lists from the store (concurrently),
// builds a fresh validated index and swaps it in atomically. Queries running
// against the previous snapshot keep their consistent view.
func (e *Engine) Refresh(ctx context.Context) error {
	var nodes []model.Node
	var edges []model.Edge

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := e.Driver.ExecuteQuery(gctx, driver.GetAllNodesQuery, nil)
		if err != nil {
			return fmt.Errorf("failed to load nodes: %w", err)
		}
		for _, rec := range res.Records {
			kind := model.Kind(stringValue(rec, "kind"))
			if kind == "" {
				kind = model.KindUnknown
			}
			nodes = append(nodes, model.Node{
				ID:      stringValue(rec, "name"),
				Kind:    kind,
				Subtype: stringValue(rec, "subtype"),
			})
		}
		return nil
	})
	g.Go(func() error {
		res, err := e.Driver.ExecuteQuery(gctx, driver.GetAllEdgesQuery, nil)
		if err != nil {
			return fmt.Errorf("failed to load edges: %w", err)
		}
		for _, rec := range res.Records {
			edges = append(edges, model.Edge{
				Source: stringValue(rec, "source"),
				Target: stringValue(rec, "target"),
				Kind:   model.EdgeKind(stringValue(rec, "kind")),
			})
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	return e.Load(nodes, edges)
}

// Load builds and installs a snapshot directly from in-memory lists. The
// import pipeline and tests use this; Refresh uses it after fetching.
func (e *Engine) Load(nodes []model.Node, edges []model.Edge) error {
	ix, err := graph.Build(nodes, edges)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.snapshot = ix
	e.snapshotID = uuid.New().String()
	e.loadedAt = time.Now().UTC()
	e.mu.Unlock()
	return nil
}

// Snapshot returns the current index, or ErrNoSnapshot before the first
// load.
func (e *Engine) Snapshot() (*graph.Index, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.snapshot == nil {
		return nil, ErrNoSnapshot
	}
	return e.snapshot, nil
}

// SnapshotInfo describes the installed snapshot for status endpoints.
type SnapshotInfo struct {
	ID       string    `json:"id"`
	LoadedAt time.Time `json:"loaded_at"`
	Nodes    int       `json:"nodes"`
	Edges    int       `json:"edges"`
}

func (e *Engine) Info() (SnapshotInfo, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.snapshot == nil {
		return SnapshotInfo{}, ErrNoSnapshot
	}
	return SnapshotInfo{
		ID:       e.snapshotID,
		LoadedAt: e.loadedAt,
		Nodes:    e.snapshot.Order(),
		Edges:    e.snapshot.Size(),
	}, nil
}

// ShortestPath finds a minimal path between the two anchors, ok=false when
// none exists.
func (e *Engine) ShortestPath(start, end string) (model.Path, bool, error) {
	ix, err := e.Snapshot()
	if err != nil {
		return nil, false, err
	}
	p, ok := pathfind.Shortest(ix, start, end)
	return p, ok, nil
}

// AllPaths enumerates alternate paths under the configured bounds.
// Non-positive maxLen/tolerance fall back to the configured defaults.
func (e *Engine) AllPaths(start, end string, maxLen, tolerance int) (model.PathResult, error) {
	ix, err := e.Snapshot()
	if err != nil {
		return model.PathResult{}, err
	}
	if maxLen <= 0 {
		maxLen = e.Config.Analysis.MaxPathLength
	}
	if tolerance < 0 {
		tolerance = e.Config.Analysis.Tolerance
	}
	return pathfind.AllWithinTolerance(ix, start, end, maxLen, tolerance, e.Config.Analysis.ExpansionBudget), nil
}

// DirectConnection answers the lightweight adjacency/triangle question for
// two anchors.
func (e *Engine) DirectConnection(start, end string) (model.DirectConnection, error) {
	ix, err := e.Snapshot()
	if err != nil {
		return model.DirectConnection{}, err
	}
	return pathfind.DirectAndShared(ix, start, end), nil
}

// AnalyzeSelection runs the multi-node direct-connection report.
func (e *Engine) AnalyzeSelection(ids []string) (*selection.Analysis, error) {
	ix, err := e.Snapshot()
	if err != nil {
		return nil, err
	}
	return selection.Analyze(ix, ids, e.Config.Analysis.MaxSelection)
}

// DetectCommunities partitions the snapshot by seeded label propagation.
func (e *Engine) DetectCommunities(seed int64) (community.Partition, error) {
	ix, err := e.Snapshot()
	if err != nil {
		return community.Partition{}, err
	}
	d := community.NewDetector()
	if e.Config.Analysis.MaxRounds > 0 {
		d.MaxRounds = e.Config.Analysis.MaxRounds
	}
	return d.Detect(ix, seed), nil
}

// ResolveVisibility combines explorer and filter state into the final
// visible set.
func (e *Engine) ResolveVisibility(explorer *model.ExplorerState, filter *model.FilterState) (visibility.Result, error) {
	ix, err := e.Snapshot()
	if err != nil {
		return visibility.Result{}, err
	}
	return visibility.Resolve(ix, explorer, filter), nil
}

// Explore runs a two-anchor query under the given mode and packages the
// outcome as an ExplorerState ready for the visibility resolver. The
// returned PathResult carries the raw paths (and the overflow flag for
// all-paths mode).
func (e *Engine) Explore(start, end string, mode model.ExplorerMode) (*model.ExplorerState, model.PathResult, error) {
	ix, err := e.Snapshot()
	if err != nil {
		return nil, model.PathResult{}, err
	}

	state := &model.ExplorerState{
		Anchors:      []string{},
		VisibleNodes: []string{},
		VisibleEdges: []model.Edge{},
		Mode:         mode,
	}
	for _, a := range []string{start, end} {
		if n, ok := ix.Node(a); ok {
			state.Anchors = append(state.Anchors, n.ID)
		}
	}

	var result model.PathResult
	switch mode {
	case model.ModeDirect:
		dc := pathfind.DirectAndShared(ix, start, end)
		addNodes(ix, state, start, end)
		for _, p := range dc.SharedNeighbors {
			addNodes(ix, state, p)
			addEdge(ix, state, start, p)
			addEdge(ix, state, p, end)
		}
		if dc.DirectEdge {
			addEdge(ix, state, start, end)
		}
	case model.ModeAllPaths:
		result = pathfind.AllWithinTolerance(ix, start, end,
			e.Config.Analysis.MaxPathLength, e.Config.Analysis.Tolerance, e.Config.Analysis.ExpansionBudget)
		for _, p := range result.Paths {
			addPath(ix, state, p)
		}
	default:
		if p, ok := pathfind.Shortest(ix, start, end); ok {
			result.Paths = append(result.Paths, p)
			addPath(ix, state, p)
		}
	}

	// Anchors stay visible even when no path was found.
	for _, a := range state.Anchors {
		addNodes(ix, state, a)
	}
	return state, result, nil
}

func addNodes(ix *graph.Index, state *model.ExplorerState, ids ...string) {
	for _, raw := range ids {
		n, ok := ix.Node(raw)
		if !ok {
			continue
		}
		if !containsID(state.VisibleNodes, n.ID) {
			state.VisibleNodes = append(state.VisibleNodes, n.ID)
		}
	}
}

func addEdge(ix *graph.Index, state *model.ExplorerState, a, b string) {
	e, ok := ix.Edge(a, b)
	if !ok {
		return
	}
	for _, have := range state.VisibleEdges {
		if have.Source == e.Source && have.Target == e.Target {
			return
		}
	}
	state.VisibleEdges = append(state.VisibleEdges, e)
}

func addPath(ix *graph.Index, state *model.ExplorerState, p model.Path) {
	for i, id := range p {
		addNodes(ix, state, id)
		if i > 0 {
			addEdge(ix, state, p[i-1], id)
		}
	}
}

func containsID(ids []string, id string) bool {
	for _, have := range ids {
		if have == id {
			return true
		}
	}
	return false
}

// SaveNode writes one node through the driver. The snapshot is unaffected
// until Refresh.
func (e *Engine) SaveNode(ctx context.Context, n model.Node) error {
	norm := model.NormalizeID(n.ID)
	if norm == "" {
		return errors.New("node name is required")
	}
	kind := n.Kind
	if kind == "" {
		kind = model.KindUnknown
	}

	params := map[string]interface{}{
		"name":            n.ID,
		"name_normalized": norm,
		"kind":            string(kind),
		"subtype":         n.Subtype,
	}
	if _, err := e.Driver.ExecuteQuery(ctx, driver.SaveNodeQuery, params); err != nil {
		return fmt.Errorf("failed to save node '%s': %w", n.ID, err)
	}
	return nil
}

// SaveEdge writes one connection through the driver. Both endpoints must
// already exist; the pair key makes the reverse orientation the same edge.
func (e *Engine) SaveEdge(ctx context.Context, edge model.Edge) error {
	src := model.NormalizeID(edge.Source)
	dst := model.NormalizeID(edge.Target)
	if src == "" || dst == "" {
		return errors.New("edge endpoints are required")
	}
	if src == dst {
		return errors.New("self-loops are not allowed")
	}
	kind := edge.Kind
	if kind == "" {
		kind = model.EdgeKindAffiliation
	}

	params := map[string]interface{}{
		"source_normalized": src,
		"target_normalized": dst,
		"pair_key":          pairKey(src, dst),
		"kind":              string(kind),
	}
	res, err := e.Driver.ExecuteQuery(ctx, driver.SaveEdgeQuery, params)
	if err != nil {
		return fmt.Errorf("failed to save edge '%s'-'%s': %w", edge.Source, edge.Target, err)
	}
	if len(res.Records) == 0 {
		// MERGE matched nothing: at least one endpoint is missing. Report
		// every missing one, not just the first.
		var missing []string
		for _, id := range []string{src, dst} {
			nodeRes, err := e.Driver.ExecuteQuery(ctx, driver.GetNodeQuery, map[string]interface{}{"name_normalized": id})
			if err != nil {
				return fmt.Errorf("failed to save edge '%s'-'%s': %w", edge.Source, edge.Target, err)
			}
			if len(nodeRes.Records) == 0 {
				missing = append(missing, id)
			}
		}
		return &graph.UnknownNodeError{IDs: missing}
	}
	return nil
}

// DeleteNode removes a node and all its connections from the store.
func (e *Engine) DeleteNode(ctx context.Context, name string) error {
	params := map[string]interface{}{
		"name_normalized": model.NormalizeID(name),
	}
	if _, err := e.Driver.ExecuteQuery(ctx, driver.DeleteNodeQuery, params); err != nil {
		return fmt.Errorf("failed to delete node '%s': %w", name, err)
	}
	return nil
}

func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

func stringValue(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
