package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/realmgen/internal/export"
	"github.com/talgya/realmgen/internal/metrics"
	"github.com/talgya/realmgen/internal/persistence"
	"github.com/talgya/realmgen/internal/politics"
	"github.com/talgya/realmgen/internal/world"
)

const testKey = "test-admin-key"

func newTestServer(t *testing.T, generate bool) (*Server, http.Handler) {
	t.Helper()
	rec := metrics.NewRecorder()
	sess := world.NewSession(world.SmallTestConfig(), rec)
	if generate {
		_, err := sess.Generate(0, 0)
		require.NoError(t, err)
	}
	db, err := persistence.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := &Server{Session: sess, DB: db, Metrics: rec, AdminKey: testKey}
	return s, s.Handler()
}

func do(h http.Handler, method, path, body, key string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestStatusBeforeGeneration(t *testing.T) {
	_, h := newTestServer(t, false)

	rr := do(h, http.MethodGet, "/api/v1/status", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var status map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.Equal(t, false, status["generated"])

	assert.Equal(t, http.StatusServiceUnavailable, do(h, http.MethodGet, "/api/v1/kingdoms", "", "").Code)
}

func TestReadEndpoints(t *testing.T) {
	s, h := newTestServer(t, true)
	ws := s.Session.State()

	rr := do(h, http.MethodGet, "/api/v1/status", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var status map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.Equal(t, ws.ID.String(), status["world_id"])
	assert.Equal(t, "kingdoms", status["stage"])

	rr = do(h, http.MethodGet, "/api/v1/world", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var snap export.Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	assert.Len(t, snap.Cells, ws.CellCount())

	rr = do(h, http.MethodGet, "/api/v1/kingdoms", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var kingdoms []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &kingdoms))
	assert.Len(t, kingdoms, ws.KingdomCount())

	rr = do(h, http.MethodGet, "/api/v1/cells?kingdom=0", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var cells []export.Cell
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &cells))
	assert.Len(t, cells, len(ws.Politics.Kingdoms[0].Cells))

	for _, path := range []string{"/api/v1/rivers", "/api/v1/lakes", "/api/v1/cities", "/api/v1/roads", "/api/v1/boundaries", "/api/v1/kingdom/0"} {
		assert.Equal(t, http.StatusOK, do(h, http.MethodGet, path, "", "").Code, path)
	}
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/api/v1/kingdom/999", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/api/v1/kingdom/abc", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/api/v1/cells?kingdom=x", "", "").Code)
}

func TestCitiesFilterByKind(t *testing.T) {
	s, h := newTestServer(t, true)

	rr := do(h, http.MethodGet, "/api/v1/cities?kind=capital", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var cities []politics.City
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &cities))
	assert.Len(t, cities, s.Session.State().KingdomCount())
	for _, c := range cities {
		assert.Equal(t, politics.KindCapital, c.Kind)
	}

	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/api/v1/cities?kind=village", "", "").Code)
}

func TestLocate(t *testing.T) {
	s, h := newTestServer(t, true)
	ws := s.Session.State()
	site := ws.Mesh.Site(7)

	rr := do(h, http.MethodGet, "/api/v1/locate?x="+ftoa(site.X)+"&y="+ftoa(site.Y), "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var cell export.Cell
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &cell))
	assert.Equal(t, 7, cell.ID)

	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/api/v1/locate?x=a&y=1", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/api/v1/locate?x=-5&y=1", "", "").Code)
}

func TestGenerateRequiresAuth(t *testing.T) {
	_, h := newTestServer(t, false)

	assert.Equal(t, http.StatusMethodNotAllowed, do(h, http.MethodGet, "/api/v1/generate", "", testKey).Code)
	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodPost, "/api/v1/generate", "", "wrong").Code)

	s := &Server{Session: world.NewSession(world.SmallTestConfig(), nil)}
	assert.Equal(t, http.StatusForbidden, do(s.Handler(), http.MethodPost, "/api/v1/generate", "", "anything").Code)
}

func TestGenerateStages(t *testing.T) {
	s, h := newTestServer(t, false)

	// Kingdoms need elevation first.
	assert.Equal(t, http.StatusConflict, do(h, http.MethodPost, "/api/v1/generate", `{"stage":"kingdoms"}`, testKey).Code)

	rr := do(h, http.MethodPost, "/api/v1/generate", `{"stage":"points","seed":9,"points":300}`, testKey)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 300, s.Session.State().CellCount())

	for _, stage := range []string{"elevation", "drainage", "precipitation", "kingdoms"} {
		rr = do(h, http.MethodPost, "/api/v1/generate", `{"stage":"`+stage+`"}`, testKey)
		require.Equal(t, http.StatusOK, rr.Code, stage)
	}
	assert.Equal(t, world.StageKingdoms, s.Session.State().Completed)

	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPost, "/api/v1/generate", `{"stage":"oceans"}`, testKey).Code)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPost, "/api/v1/generate", `{bad`, testKey).Code)
}

func TestGenerateAllWithPointCount(t *testing.T) {
	s, h := newTestServer(t, false)

	rr := do(h, http.MethodPost, "/api/v1/generate", `{"seed":4,"points":250}`, testKey)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 250, s.Session.State().CellCount())
	assert.Equal(t, world.SmallTestConfig().Sampler.Count, s.Session.Config().Sampler.Count)
}

func TestGenerateRateLimited(t *testing.T) {
	rec := metrics.NewRecorder()
	s := &Server{
		Session:        world.NewSession(world.SmallTestConfig(), rec),
		Metrics:        rec,
		AdminKey:       testKey,
		GenerateBudget: fullPipelineCost + 1,
	}
	h := s.Handler()

	require.Equal(t, http.StatusOK, do(h, http.MethodPost, "/api/v1/generate", `{"seed":5}`, testKey).Code)
	// One token left: a full run is refused, a single stage still fits.
	rr := do(h, http.MethodPost, "/api/v1/generate", `{"seed":6}`, testKey)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	require.Equal(t, http.StatusOK, do(h, http.MethodPost, "/api/v1/generate", `{"stage":"precipitation"}`, testKey).Code)
	rr = do(h, http.MethodPost, "/api/v1/generate", `{"stage":"kingdoms"}`, testKey)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestUnknownStageIsNotCharged(t *testing.T) {
	rec := metrics.NewRecorder()
	s := &Server{
		Session:        world.NewSession(world.SmallTestConfig(), rec),
		Metrics:        rec,
		AdminKey:       testKey,
		GenerateBudget: fullPipelineCost,
	}
	h := s.Handler()

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPost, "/api/v1/generate", `{"stage":"weather"}`, testKey).Code)
	}
	assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "/api/v1/generate", `{"seed":5}`, testKey).Code)
}

func TestSnapshotAndHistory(t *testing.T) {
	s, h := newTestServer(t, true)

	rr := do(h, http.MethodPost, "/api/v1/snapshot", "", testKey)
	require.Equal(t, http.StatusOK, rr.Code)

	n, err := s.DB.CellCount()
	require.NoError(t, err)
	assert.Equal(t, s.Session.State().CellCount(), n)

	rr = do(h, http.MethodGet, "/api/v1/generations?limit=5", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var gens []persistence.Generation
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &gens))
	require.Len(t, gens, 1)
	assert.Equal(t, s.Session.State().ID.String(), gens[0].WorldID)
}

func TestMetricsEndpoint(t *testing.T) {
	_, h := newTestServer(t, true)

	do(h, http.MethodGet, "/api/v1/status", "", "")
	rr := do(h, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "realmgen_http_request_duration_seconds")
	assert.Contains(t, body, "realmgen_regenerations_total")
}

func TestCORS(t *testing.T) {
	_, h := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/status", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
}

func ftoa(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}
