package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/annel0/tileworld/internal/eventbus"
	"github.com/annel0/tileworld/internal/logging"
	"github.com/annel0/tileworld/internal/middleware"
	"github.com/annel0/tileworld/internal/observability"
	"github.com/annel0/tileworld/internal/pipeline"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// DefaultGenerateTimeout предел ожидания генерации одного чанка в запросе
const DefaultGenerateTimeout = 30 * time.Second

// RestServer HTTP API для просмотра сгенерированного мира
type RestServer struct {
	router   *gin.Engine
	server   *http.Server
	pipeline *pipeline.Pipeline
	process  *observability.ProcessMetrics
	bus      eventbus.EventBus
	timeout  time.Duration
	log      *logging.Logger
}

// Config содержит конфигурацию REST сервера
type Config struct {
	Addr        string             // адрес, например ":8088"
	ServiceName string             // имя сервиса для спанов и метрик
	Pipeline    *pipeline.Pipeline // обязательный
	Process     *observability.ProcessMetrics
	Bus         eventbus.EventBus
	Registerer  prometheus.Registerer
	Gatherer    prometheus.Gatherer // источник для /metrics
	Timeout     time.Duration
}

// NewRestServer создаёт сервер и настраивает маршруты
func NewRestServer(config Config) (*RestServer, error) {
	if config.Pipeline == nil {
		return nil, fmt.Errorf("не задан конвейер генерации")
	}
	if config.Addr == "" {
		config.Addr = ":8088"
	}
	if config.ServiceName == "" {
		config.ServiceName = "tileworld"
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultGenerateTimeout
	}
	if config.Gatherer == nil {
		config.Gatherer = prometheus.DefaultGatherer
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	// === Observability middleware ===
	router.Use(otelgin.Middleware(config.ServiceName))
	router.Use(middleware.NewRequestLogger().Handler())

	promMw := middleware.NewPrometheusMiddleware("tileworld", config.Registerer)
	router.Use(promMw.Handler())
	middleware.RegisterMetricsEndpoint(router, config.Gatherer)

	rs := &RestServer{
		router:   router,
		pipeline: config.Pipeline,
		process:  config.Process,
		bus:      config.Bus,
		timeout:  config.Timeout,
		log:      logging.GetComponentLogger("http"),
		server: &http.Server{
			Addr:              config.Addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
	rs.setupRoutes()
	return rs, nil
}

func (rs *RestServer) setupRoutes() {
	rs.router.GET("/health", rs.handleHealth)

	api := rs.router.Group("/api")
	{
		api.GET("/stats", rs.handleStats)

		chunks := api.Group("/chunks")
		chunks.GET("/ready", rs.handlePoll)
		chunks.GET("/:x/:y", rs.handleGetChunk)
		chunks.GET("/:x/:y/map", rs.handleGetMap)
		chunks.GET("/:x/:y/state", rs.handleGetState)
		chunks.POST("/:x/:y/request", rs.handleRequest)
		chunks.DELETE("/:x/:y", rs.handleUnload)
	}
}

// Handler для тестов и встраивания
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// Start запускает сервер и блокируется до Stop
func (rs *RestServer) Start() error {
	rs.log.Info("🌐 HTTP API слушает %s", rs.server.Addr)
	if err := rs.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop дожидается завершения активных запросов
func (rs *RestServer) Stop(ctx context.Context) error {
	return rs.server.Shutdown(ctx)
}
