package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/tileworld/internal/logging"
	"github.com/annel0/tileworld/internal/pipeline"
	"github.com/annel0/tileworld/internal/vec"
	"github.com/annel0/tileworld/internal/world"
	"github.com/gin-gonic/gin"
)

// GenericResponse общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ChunkSummary краткое описание готового чанка
type ChunkSummary struct {
	X          int            `json:"x"`
	Y          int            `json:"y"`
	Objects    int            `json:"objects"`
	Paths      int            `json:"paths"`
	Placements int            `json:"placements"`
	Settled    bool           `json:"settled"`
	Buildings  int            `json:"buildings"`
	Degraded   bool           `json:"degraded"`
	Attempts   int            `json:"attempts"`
	Terrain    map[string]int `json:"terrain"`
}

// Summarize собирает описание чанка
func Summarize(c *world.Chunk) ChunkSummary {
	s := ChunkSummary{
		X:          c.Coords.X,
		Y:          c.Coords.Y,
		Objects:    c.CountObjects(),
		Paths:      c.CountPaths(),
		Placements: len(c.Placements),
		Settled:    c.Settled,
		Buildings:  len(c.Buildings),
		Degraded:   c.Degraded,
		Attempts:   c.Attempts,
		Terrain:    make(map[string]int),
	}
	for _, t := range c.Tiles {
		s.Terrain[t.Terrain.String()]++
	}
	return s
}

func parseCoords(c *gin.Context) (vec.Vec2, error) {
	x, err := strconv.Atoi(c.Param("x"))
	if err != nil {
		return vec.Vec2{}, fmt.Errorf("некорректная координата x: %q", c.Param("x"))
	}
	y, err := strconv.Atoi(c.Param("y"))
	if err != nil {
		return vec.Vec2{}, fmt.Errorf("некорректная координата y: %q", c.Param("y"))
	}
	return vec.Vec2{X: x, Y: y}, nil
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: err.Error()})
}

// generate ждёт чанк не дольше timeout
func (rs *RestServer) generate(c *gin.Context) (*world.Chunk, bool) {
	coords, err := parseCoords(c)
	if err != nil {
		badRequest(c, err)
		return nil, false
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), rs.timeout)
	defer cancel()

	chunk, err := rs.pipeline.Generate(ctx, coords)
	switch {
	case err == nil:
		return chunk, true
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, GenericResponse{Success: false, Message: "Чанк ещё генерируется"})
	case errors.Is(err, pipeline.ErrCancelled):
		c.JSON(http.StatusConflict, GenericResponse{Success: false, Message: err.Error()})
	case errors.Is(err, pipeline.ErrClosed):
		c.JSON(http.StatusServiceUnavailable, GenericResponse{Success: false, Message: err.Error()})
	default:
		rs.log.Error("Ошибка генерации %v: %v", coords, err)
		c.JSON(http.StatusInternalServerError, GenericResponse{Success: false, Message: "Ошибка генерации чанка"})
	}
	return nil, false
}

func (rs *RestServer) handleGetChunk(c *gin.Context) {
	chunk, ok := rs.generate(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Чанк готов",
		Data:    Summarize(chunk),
	})
}

func (rs *RestServer) handleGetMap(c *gin.Context) {
	chunk, ok := rs.generate(c)
	if !ok {
		return
	}
	c.String(http.StatusOK, chunk.RenderASCII())
}

func (rs *RestServer) handleGetState(c *gin.Context) {
	coords, err := parseCoords(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Состояние чанка",
		Data:    gin.H{"x": coords.X, "y": coords.Y, "state": rs.pipeline.State(coords).String()},
	})
}

func (rs *RestServer) handleRequest(c *gin.Context) {
	coords, err := parseCoords(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := rs.pipeline.Request(coords); err != nil {
		c.JSON(http.StatusServiceUnavailable, GenericResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, GenericResponse{Success: true, Message: "Генерация запланирована"})
}

func (rs *RestServer) handleUnload(c *gin.Context) {
	coords, err := parseCoords(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	rs.pipeline.Unload(coords)
	c.Status(http.StatusNoContent)
}

// handlePoll забирает готовые чанки из очереди опроса
func (rs *RestServer) handlePoll(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("max", "16"))
	if err != nil || limit < 1 || limit > 1024 {
		badRequest(c, fmt.Errorf("max должен быть в [1,1024]"))
		return
	}
	ready := rs.pipeline.Poll(limit)
	out := make([]ChunkSummary, 0, len(ready))
	for _, chunk := range ready {
		out = append(out, Summarize(chunk))
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Готовые чанки", Data: out})
}

// handleStats возвращает статистику генератора
func (rs *RestServer) handleStats(c *gin.Context) {
	stats := make(map[string]interface{})

	if planner := rs.pipeline.Planner(); planner != nil {
		stats["routes"] = planner.Stats()
	}
	if rs.bus != nil {
		stats["events"] = rs.bus.Metrics()
	}
	stats["log_components"] = logging.GetLoggerManager().ListComponents()
	if rs.process != nil {
		cpuPercent, _ := rs.process.CPUUsage()
		stats["server"] = map[string]interface{}{
			"uptime":      rs.process.Uptime(),
			"memory_mb":   fmt.Sprintf("%.2f", rs.process.MemoryUsage()),
			"cpu_percent": fmt.Sprintf("%.2f", cpuPercent),
			"server_time": time.Now().Unix(),
		}
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data:    stats,
	})
}

func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}
