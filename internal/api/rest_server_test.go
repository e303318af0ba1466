package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/annel0/tileworld/internal/eventbus"
	"github.com/annel0/tileworld/internal/pipeline"
	"github.com/annel0/tileworld/internal/ruleset"
	"github.com/annel0/tileworld/internal/vec"
	"github.com/annel0/tileworld/internal/world"
	"github.com/annel0/tileworld/internal/world/object"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) (*RestServer, *pipeline.Pipeline) {
	t.Helper()
	rules, err := ruleset.LoadDefault(ruleset.Options{Strict: true})
	require.NoError(t, err)

	cfg := pipeline.DefaultConfig(42)
	cfg.PathsEnabled = false
	p, err := pipeline.New(cfg, pipeline.Deps{Rules: rules})
	require.NoError(t, err)
	t.Cleanup(p.Close)

	bus := eventbus.NewMemoryBus(8)
	t.Cleanup(bus.Close)

	reg := prometheus.NewRegistry()
	rs, err := NewRestServer(Config{Pipeline: p, Bus: bus, Registerer: reg, Gatherer: reg})
	require.NoError(t, err)
	return rs, p
}

func do(rs *RestServer, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	rs.Handler().ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestGetChunk(t *testing.T) {
	rs, p := newServer(t)

	w := do(rs, http.MethodGet, "/api/chunks/1/-2")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool         `json:"success"`
		Data    ChunkSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Data.X)
	assert.Equal(t, -2, resp.Data.Y)

	total := 0
	for _, n := range resp.Data.Terrain {
		total += n
	}
	assert.Equal(t, vec.ChunkSize*vec.ChunkSize, total, "каждый тайл учтён в гистограмме")
	assert.Equal(t, pipeline.Finalized, p.State(vec.Vec2{X: 1, Y: -2}))
}

func TestSummarize_Buildings(t *testing.T) {
	chunk := world.NewChunk(vec.Vec2{X: 4, Y: 4})
	chunk.SetPath(vec.Vec2{X: 1, Y: 2}, object.Connection(0).With(vec.Top))
	chunk.SetBuilding(world.Index(1, 1), object.HouseDoor)
	chunk.SetBuilding(world.Index(1, 0), object.HouseRoofLeft)
	chunk.Settled = true
	chunk.Buildings = []world.Building{{Door: world.Index(1, 1), Entrance: world.Index(1, 2), Cells: []int{world.Index(1, 0), world.Index(1, 1)}}}

	s := Summarize(chunk)
	assert.True(t, s.Settled)
	assert.Equal(t, 1, s.Buildings)
	assert.Equal(t, 1, s.Paths, "клетки дома не считаются дорогой")
	assert.Equal(t, 3, s.Objects)
}

func TestGetMap(t *testing.T) {
	rs, _ := newServer(t)

	w := do(rs, http.MethodGet, "/api/chunks/0/0/map")
	require.Equal(t, http.StatusOK, w.Code)
	rows := strings.Split(strings.TrimSuffix(w.Body.String(), "\n"), "\n")
	assert.Len(t, rows, vec.ChunkSize)
}

func TestBadCoords(t *testing.T) {
	rs, _ := newServer(t)

	assert.Equal(t, http.StatusBadRequest, do(rs, http.MethodGet, "/api/chunks/a/0").Code)
	assert.Equal(t, http.StatusBadRequest, do(rs, http.MethodGet, "/api/chunks/0/b/state").Code)
	assert.Equal(t, http.StatusBadRequest, do(rs, http.MethodGet, "/api/chunks/ready?max=0").Code)
}

func TestRequestPollUnload(t *testing.T) {
	rs, p := newServer(t)

	assert.Equal(t, http.StatusAccepted, do(rs, http.MethodPost, "/api/chunks/3/3/request").Code)
	// Дожидаемся той же задачи
	w := do(rs, http.MethodGet, "/api/chunks/3/3")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(rs, http.MethodGet, "/api/chunks/ready?max=4")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []ChunkSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, 3, resp.Data[0].X)

	assert.Equal(t, http.StatusNoContent, do(rs, http.MethodDelete, "/api/chunks/3/3").Code)
	assert.Equal(t, pipeline.Unknown, p.State(vec.Vec2{X: 3, Y: 3}))

	w = do(rs, http.MethodGet, "/api/chunks/3/3/state")
	assert.Contains(t, w.Body.String(), `"state":"Unknown"`)
}

func TestHealthStatsMetrics(t *testing.T) {
	rs, _ := newServer(t)

	assert.Equal(t, http.StatusOK, do(rs, http.MethodGet, "/health").Code)

	w := do(rs, http.MethodGet, "/api/stats")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"events"`)
	assert.NotContains(t, w.Body.String(), `"routes"`, "дороги выключены")
	assert.Contains(t, w.Body.String(), `"log_components"`)

	w = do(rs, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "tileworld_http_requests_inflight")
}
