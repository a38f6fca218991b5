// Package api serves the published world over HTTP.
// GET endpoints are public and read-only.
// POST endpoints require a bearer token and are rate limited.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/realmgen/internal/export"
	"github.com/talgya/realmgen/internal/geom"
	"github.com/talgya/realmgen/internal/metrics"
	"github.com/talgya/realmgen/internal/persistence"
	"github.com/talgya/realmgen/internal/politics"
	"github.com/talgya/realmgen/internal/world"
)

// Server serves the session's world state over HTTP.
type Server struct {
	Session  *world.Session
	DB       *persistence.DB   // Optional; snapshot and history endpoints need it
	Metrics  *metrics.Recorder // Optional
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	// Admin work budget per client: one token per pipeline stage run.
	// Zero values fall back to 100 tokens per hour.
	GenerateBudget int
	GenerateWindow time.Duration
}

// Handler builds the routed handler with CORS and request metrics applied.
func (s *Server) Handler() http.Handler {
	budget, window := s.GenerateBudget, s.GenerateWindow
	if budget <= 0 {
		budget = 100
	}
	if window <= 0 {
		window = time.Hour
	}
	adminLimiter := NewRateLimiter(budget, window)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/world", s.handleWorld)
	mux.HandleFunc("/api/v1/cells", s.handleCells)
	mux.HandleFunc("/api/v1/rivers", s.handleRivers)
	mux.HandleFunc("/api/v1/lakes", s.handleLakes)
	mux.HandleFunc("/api/v1/kingdoms", s.handleKingdoms)
	mux.HandleFunc("/api/v1/kingdom/", s.handleKingdomDetail)
	mux.HandleFunc("/api/v1/cities", s.handleCities)
	mux.HandleFunc("/api/v1/roads", s.handleRoads)
	mux.HandleFunc("/api/v1/boundaries", s.handleBoundaries)
	mux.HandleFunc("/api/v1/locate", s.handleLocate)
	mux.HandleFunc("/api/v1/generations", s.handleGenerations)
	mux.Handle("/metrics", s.Metrics.Handler())

	mux.HandleFunc("/api/v1/generate", s.adminOnly(s.handleGenerate(adminLimiter)))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(RateLimitMiddleware(adminLimiter, 1, s.handleSnapshot)))

	return corsMiddleware(s.observe(mux))
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	handler := s.Handler()
	go func() {
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of extra origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// observe records request latency by route and status class.
func (s *Server) observe(next http.Handler) http.Handler {
	if s.Metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.Metrics.ObserveRequest(routeOf(r.URL.Path), sw.status, time.Since(start))
	})
}

// routeOf collapses ID-bearing paths so metric labels stay bounded.
func routeOf(path string) string {
	if strings.HasPrefix(path, "/api/v1/kingdom/") {
		return "/api/v1/kingdom/:id"
	}
	return path
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require POST with bearer token auth.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no REALMGEN_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// world returns the published world, writing 503 when there is none yet.
func (s *Server) world(w http.ResponseWriter, need world.Stage) *world.WorldState {
	ws := s.Session.State()
	if ws == nil {
		http.Error(w, "no world generated", http.StatusServiceUnavailable)
		return nil
	}
	if !ws.Has(need) {
		http.Error(w, need.String()+" not generated", http.StatusConflict)
		return nil
	}
	return ws
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ws := s.Session.State()
	if ws == nil {
		writeJSON(w, map[string]any{"name": "Realmgen", "generated": false})
		return
	}

	status := map[string]any{
		"name":         "Realmgen",
		"generated":    true,
		"world_id":     ws.ID.String(),
		"seed":         ws.Seed,
		"stage":        ws.Completed.String(),
		"generated_at": ws.GeneratedAt,
		"cells":        ws.CellCount(),
		"kingdoms":     ws.KingdomCount(),
		"cities":       len(ws.Cities),
		"roads":        len(ws.Roads),
	}
	if ws.Elevation != nil {
		land := 0
		for _, l := range ws.Land {
			if l {
				land++
			}
		}
		lo, hi := ws.ElevationRange()
		status["land_cells"] = land
		status["elevation_min"] = lo
		status["elevation_max"] = hi
	}
	if ws.Hydro != nil {
		status["rivers"] = len(ws.Hydro.Rivers)
		status["lakes"] = len(ws.Hydro.Lakes)
	}
	if ws.Terrain != nil {
		counts := make(map[string]int)
		for t, c := range world.TerrainCounts(ws.Terrain) {
			counts[t.String()] = c
		}
		status["terrain"] = counts
	}
	writeJSON(w, status)
}

// handleWorld returns the full export snapshot.
func (s *Server) handleWorld(w http.ResponseWriter, r *http.Request) {
	ws := s.world(w, world.StagePoints)
	if ws == nil {
		return
	}
	writeJSON(w, export.Build(ws))
}

// handleCells returns cell records, optionally filtered with ?kingdom=ID or
// ?land=true.
func (s *Server) handleCells(w http.ResponseWriter, r *http.Request) {
	ws := s.world(w, world.StagePoints)
	if ws == nil {
		return
	}
	cells := export.Build(ws).Cells

	q := r.URL.Query()
	if v := q.Get("kingdom"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid kingdom id", http.StatusBadRequest)
			return
		}
		filtered := cells[:0]
		for _, c := range cells {
			if c.Kingdom != nil && *c.Kingdom == id {
				filtered = append(filtered, c)
			}
		}
		cells = filtered
	}
	if q.Get("land") == "true" {
		filtered := cells[:0]
		for _, c := range cells {
			if c.Land != nil && *c.Land {
				filtered = append(filtered, c)
			}
		}
		cells = filtered
	}
	writeJSON(w, cells)
}

func (s *Server) handleRivers(w http.ResponseWriter, r *http.Request) {
	ws := s.world(w, world.StageDrainage)
	if ws == nil {
		return
	}
	writeJSON(w, ws.Hydro.Rivers)
}

func (s *Server) handleLakes(w http.ResponseWriter, r *http.Request) {
	ws := s.world(w, world.StageDrainage)
	if ws == nil {
		return
	}
	writeJSON(w, ws.Hydro.Lakes)
}

func (s *Server) handleKingdoms(w http.ResponseWriter, r *http.Request) {
	type kingdomSummary struct {
		ID        int    `json:"id"`
		Name      string `json:"name"`
		Color     string `json:"color"`
		Capital   int    `json:"capital"`
		Landmass  int    `json:"landmass"`
		Cells     int    `json:"cells"`
		Cities    int    `json:"cities"`
		Neighbors []int  `json:"neighbors"`
	}

	ws := s.world(w, world.StageKingdoms)
	if ws == nil {
		return
	}
	cities := make(map[int]int)
	for _, c := range ws.Cities {
		cities[c.Kingdom]++
	}
	out := make([]kingdomSummary, 0, len(ws.Politics.Kingdoms))
	for _, k := range ws.Politics.Kingdoms {
		out = append(out, kingdomSummary{
			ID: k.ID, Name: k.Name, Color: k.Color, Capital: k.Capital,
			Landmass: k.Landmass, Cells: len(k.Cells), Cities: cities[k.ID],
			Neighbors: k.Neighbors,
		})
	}
	writeJSON(w, out)
}

// handleKingdomDetail returns one kingdom with its cities and border loops.
func (s *Server) handleKingdomDetail(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(r.URL.Path, "/")
	if len(parts) < 5 || parts[4] == "" {
		http.Error(w, "missing kingdom id", http.StatusBadRequest)
		return
	}
	id, err := strconv.Atoi(parts[4])
	if err != nil {
		http.Error(w, "invalid kingdom id", http.StatusBadRequest)
		return
	}

	ws := s.world(w, world.StageKingdoms)
	if ws == nil {
		return
	}
	if id < 0 || id >= len(ws.Politics.Kingdoms) {
		http.Error(w, "kingdom not found", http.StatusNotFound)
		return
	}
	k := ws.Politics.Kingdoms[id]

	var cities []politics.City
	for _, c := range ws.Cities {
		if c.Kingdom == id {
			cities = append(cities, c)
		}
	}
	var loops []geom.Loop
	for _, b := range ws.Borders {
		if b.Kingdom == id {
			loops = b.Loops
		}
	}

	writeJSON(w, map[string]any{
		"kingdom": k,
		"cities":  cities,
		"border":  loops,
	})
}

// handleCities returns cities, optionally filtered with ?kind=port etc.
func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	ws := s.world(w, world.StageKingdoms)
	if ws == nil {
		return
	}
	cities := ws.Cities
	if v := r.URL.Query().Get("kind"); v != "" {
		var kind politics.CityKind
		if err := kind.UnmarshalText([]byte(v)); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		filtered := make([]politics.City, 0, len(cities))
		for _, c := range cities {
			if c.Kind == kind {
				filtered = append(filtered, c)
			}
		}
		cities = filtered
	}
	writeJSON(w, cities)
}

func (s *Server) handleRoads(w http.ResponseWriter, r *http.Request) {
	ws := s.world(w, world.StageKingdoms)
	if ws == nil {
		return
	}
	writeJSON(w, ws.Roads)
}

func (s *Server) handleBoundaries(w http.ResponseWriter, r *http.Request) {
	ws := s.world(w, world.StageKingdoms)
	if ws == nil {
		return
	}
	writeJSON(w, map[string]any{
		"coastlines": ws.Coastlines,
		"borders":    ws.Borders,
	})
}

// handleLocate returns the cell containing ?x=&y=.
func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	ws := s.world(w, world.StagePoints)
	if ws == nil {
		return
	}
	x, errX := strconv.ParseFloat(r.URL.Query().Get("x"), 64)
	y, errY := strconv.ParseFloat(r.URL.Query().Get("y"), 64)
	if errX != nil || errY != nil {
		http.Error(w, "x and y must be numbers", http.StatusBadRequest)
		return
	}
	if x < 0 || y < 0 || x > ws.Width || y > ws.Height {
		http.Error(w, "point outside the map", http.StatusBadRequest)
		return
	}
	id, ok := ws.Mesh.Locate(geom.Vec2{X: x, Y: y})
	if !ok {
		http.Error(w, "cell not found", http.StatusNotFound)
		return
	}
	writeJSON(w, export.Build(ws).Cells[id])
}

func (s *Server) handleGenerations(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	gens, err := s.DB.RecentGenerations(limit)
	if err != nil {
		slog.Error("generation history query failed", "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, gens)
}

// fullPipelineCost is the token charge for a whole-world run, one per stage.
const fullPipelineCost = int(world.StageKingdoms) + 1

type generateRequest struct {
	Stage  string `json:"stage,omitempty"`
	Seed   int64  `json:"seed,omitempty"`
	Points int    `json:"points,omitempty"`
}

// stageRunner dispatches the request to its session entry point and reports the
// token cost. ok is false for an unknown stage.
func (s *Server) stageRunner(req generateRequest) (run func() (*world.WorldState, error), cost int, ok bool) {
	switch req.Stage {
	case "", "all":
		return func() (*world.WorldState, error) { return s.Session.Generate(req.Seed, req.Points) }, fullPipelineCost, true
	case "points":
		return func() (*world.WorldState, error) { return s.Session.GeneratePoints(req.Seed, req.Points) }, 1, true
	case "elevation":
		return s.Session.GenerateElevation, 1, true
	case "drainage":
		return s.Session.ComputeDrainage, 1, true
	case "precipitation":
		return s.Session.GeneratePrecipitation, 1, true
	case "kingdoms":
		return s.Session.GenerateKingdoms, 1, true
	}
	return nil, 0, false
}

// handleGenerate runs one stage, or the whole pipeline when stage is empty
// or "all". A stage whose precondition is missing answers 409. Requests are
// charged against rl by the number of stages they run.
func (s *Server) handleGenerate(rl *RateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
				return
			}
		}
		run, cost, ok := s.stageRunner(req)
		if !ok {
			http.Error(w, fmt.Sprintf("unknown stage %q", req.Stage), http.StatusBadRequest)
			return
		}
		if ok, wait := rl.Take(clientIP(r), cost); !ok {
			tooMany(w, wait)
			return
		}
		s.respondGenerated(w, req.Stage, run)
	}
}

func (s *Server) respondGenerated(w http.ResponseWriter, stage string, run func() (*world.WorldState, error)) {
	ws, err := run()

	switch {
	case errors.Is(err, world.ErrInvariant):
		slog.Error("generation produced an inconsistent world", "stage", stage, "error", err)
		http.Error(w, "generation failed", http.StatusInternalServerError)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case ws == nil:
		http.Error(w, "missing precondition for stage "+stage, http.StatusConflict)
		return
	}

	writeJSON(w, map[string]any{
		"world_id": ws.ID.String(),
		"seed":     ws.Seed,
		"stage":    ws.Completed.String(),
		"cells":    ws.CellCount(),
		"kingdoms": ws.KingdomCount(),
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	ws := s.world(w, world.StagePoints)
	if ws == nil {
		return
	}

	if err := s.DB.SaveWorld(ws); err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"world_id": ws.ID.String(),
		"message":  "snapshot saved",
	})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
