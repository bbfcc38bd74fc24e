package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/archivegraph/lattice/internal/config"
	"github.com/archivegraph/lattice/internal/core"
	"github.com/archivegraph/lattice/internal/core/graph"
	"github.com/archivegraph/lattice/internal/core/model"
	"github.com/archivegraph/lattice/internal/core/selection"
	"github.com/archivegraph/lattice/internal/driver"
)

type Server struct {
	Engine *core.Engine
	Config *config.Config
}

func NewServer() *Server {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Printf("Could not load %s: %v. Using defaults", cfgPath, err)
		cfg = config.Default()
	}

	// Env overrides for deployment
	if uri := os.Getenv("MEMGRAPH_URI"); uri != "" {
		cfg.Memgraph.URI = uri
	}
	if user := os.Getenv("MEMGRAPH_USER"); user != "" {
		cfg.Memgraph.User = user
	}
	if pass := os.Getenv("MEMGRAPH_PASSWORD"); pass != "" {
		cfg.Memgraph.Password = pass
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}

	d, err := driver.NewMemgraphDriver(cfg.Memgraph.URI, cfg.Memgraph.User, cfg.Memgraph.Password)
	if err != nil {
		log.Fatalf("Failed to connect to Memgraph: %v", err)
	}
	if err := d.BuildIndices(context.Background()); err != nil {
		log.Printf("Failed to build indices: %v", err)
	}

	engine := core.NewEngine(d, cfg)
	if err := engine.Refresh(context.Background()); err != nil {
		log.Printf("Initial snapshot load failed: %v (import or refresh to load data)", err)
	}

	return &Server{Engine: engine, Config: cfg}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	if len(s.Config.Server.AllowOrigins) > 0 {
		corsCfg.AllowOrigins = s.Config.Server.AllowOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	r.Use(cors.New(corsCfg))

	api := r.Group("/api")
	{
		api.GET("/graph", s.GetGraph)
		api.GET("/stats", s.GetStats)
		api.GET("/snapshot", s.GetSnapshot)
		api.POST("/refresh", s.Refresh)
		api.POST("/import", s.Import)

		api.GET("/paths/shortest", s.ShortestPath)
		api.GET("/paths/all", s.AllPaths)
		api.GET("/paths/direct", s.DirectPath)
		api.POST("/explore", s.Explore)

		api.POST("/selection/analyze", s.AnalyzeSelection)
		api.GET("/communities", s.Communities)
		api.POST("/visibility", s.Visibility)

		api.POST("/nodes", s.CreateNode)
		api.DELETE("/nodes/:name", s.DeleteNode)
		api.POST("/edges", s.CreateEdge)
	}

	return r
}

// abortWith maps engine error types onto HTTP statuses: selection-size and
// validation problems are the caller's to fix, unknown ids are 404s, a
// missing snapshot means the service has no data yet.
func abortWith(c *gin.Context, err error) {
	var unknown *graph.UnknownNodeError
	var tooMany *selection.TooManyNodesError

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrNoSnapshot):
		status = http.StatusServiceUnavailable
	case errors.Is(err, selection.ErrTooFewNodes):
		status = http.StatusBadRequest
	case errors.As(err, &tooMany):
		status = http.StatusBadRequest
	case errors.As(err, &unknown):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		log.Printf("Request failed: %v", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) GetGraph(c *gin.Context) {
	payload, err := s.Engine.GraphJSON()
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

func (s *Server) GetStats(c *gin.Context) {
	stats, err := s.Engine.Stats()
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) GetSnapshot(c *gin.Context) {
	info, err := s.Engine.Info()
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) Refresh(c *gin.Context) {
	if err := s.Engine.Refresh(c.Request.Context()); err != nil {
		abortWith(c, err)
		return
	}
	info, err := s.Engine.Info()
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

type ImportRequest struct {
	TypesCSV string `json:"types_csv"`
	EdgesCSV string `json:"edges_csv"`
}

func (s *Server) Import(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.TypesCSV == "" {
		req.TypesCSV = s.Config.Import.TypesCSV
	}
	if req.EdgesCSV == "" {
		req.EdgesCSV = s.Config.Import.EdgesCSV
	}
	if req.TypesCSV == "" || req.EdgesCSV == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "types_csv and edges_csv are required"})
		return
	}

	report, err := s.Engine.ImportCSV(c.Request.Context(), req.TypesCSV, req.EdgesCSV)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func anchorParams(c *gin.Context) (string, string, bool) {
	start := c.Query("start")
	end := c.Query("end")
	if start == "" || end == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start and end are required"})
		return "", "", false
	}
	return start, end, true
}

func (s *Server) ShortestPath(c *gin.Context) {
	start, end, ok := anchorParams(c)
	if !ok {
		return
	}

	path, found, err := s.Engine.ShortestPath(start, end)
	if err != nil {
		abortWith(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusOK, gin.H{"found": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"found": true, "path": path, "length": path.Length()})
}

func (s *Server) AllPaths(c *gin.Context) {
	start, end, ok := anchorParams(c)
	if !ok {
		return
	}
	maxLen, _ := strconv.Atoi(c.DefaultQuery("max_length", "0"))
	tolerance, _ := strconv.Atoi(c.DefaultQuery("tolerance", "-1"))

	result, err := s.Engine.AllPaths(start, end, maxLen, tolerance)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) DirectPath(c *gin.Context) {
	start, end, ok := anchorParams(c)
	if !ok {
		return
	}

	dc, err := s.Engine.DirectConnection(start, end)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, dc)
}

type ExploreRequest struct {
	Start string             `json:"start"`
	End   string             `json:"end"`
	Mode  model.ExplorerMode `json:"mode"`
}

func (s *Server) Explore(c *gin.Context) {
	var req ExploreRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Start == "" || req.End == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start and end are required"})
		return
	}
	if req.Mode == "" {
		req.Mode = model.ModeShortest
	}

	state, paths, err := s.Engine.Explore(req.Start, req.End, req.Mode)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"explorer_state": state,
		"paths":          paths.Paths,
		"overflow":       paths.Overflow,
	})
}

type AnalyzeRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) AnalyzeSelection(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	analysis, err := s.Engine.AnalyzeSelection(req.IDs)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

type CommunityView struct {
	Label      int      `json:"label"`
	Size       int      `json:"size"`
	Members    []string `json:"members"`
	Emphasized bool     `json:"emphasized"`
}

func (s *Server) Communities(c *gin.Context) {
	seed, err := strconv.ParseInt(c.DefaultQuery("seed", "1"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "seed must be an integer"})
		return
	}

	partition, err := s.Engine.DetectCommunities(seed)
	if err != nil {
		abortWith(c, err)
		return
	}

	// Emphasis (extra rendering weight for big communities) is a display
	// policy, so it is reported per community rather than applied here.
	views := []CommunityView{}
	for _, members := range partition.Members() {
		label := partition.Labels[members[0]]
		views = append(views, CommunityView{
			Label:      label,
			Size:       len(members),
			Members:    members,
			Emphasized: len(members) >= s.Config.Analysis.EmphasisMinSize,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"labels":      partition.Labels,
		"sizes":       partition.Sizes,
		"communities": views,
	})
}

type VisibilityRequest struct {
	Explorer *model.ExplorerState `json:"explorer"`
	Filter   *model.FilterState   `json:"filter"`
}

func (s *Server) Visibility(c *gin.Context) {
	var req VisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result, err := s.Engine.ResolveVisibility(req.Explorer, req.Filter)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type CreateNodeRequest struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Subtype string `json:"subtype"`
}

func (s *Server) CreateNode(c *gin.Context) {
	var req CreateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	kind := model.Kind(req.Type)
	switch kind {
	case "", model.KindPerson, model.KindInstitution, model.KindUnknown:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid type"})
		return
	}

	node := model.Node{ID: req.Name, Kind: kind, Subtype: req.Subtype}
	if err := s.Engine.SaveNode(c.Request.Context(), node); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusCreated, node)
}

func (s *Server) DeleteNode(c *gin.Context) {
	name := c.Param("name")
	if err := s.Engine.DeleteNode(c.Request.Context(), name); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": name})
}

type CreateEdgeRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

func (s *Server) CreateEdge(c *gin.Context) {
	var req CreateEdgeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Source == "" || req.Target == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source and target are required"})
		return
	}

	edge := model.Edge{Source: req.Source, Target: req.Target, Kind: model.EdgeKind(req.Type)}
	if err := s.Engine.SaveEdge(c.Request.Context(), edge); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusCreated, edge)
}
