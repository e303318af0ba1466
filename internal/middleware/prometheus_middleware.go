package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// unmatchedRoute метка для запросов мимо зарегистрированных маршрутов,
// чтобы координаты из URL не раздували кардинальность
const unmatchedRoute = "unmatched"

// PrometheusMiddleware метрики HTTP API инспекции мира.
// Маршруты метятся шаблоном gin (/api/chunks/:x/:y), а не фактическим путём.
type PrometheusMiddleware struct {
	reqDuration *prometheus.HistogramVec
	reqInflight prometheus.Gauge
	reqErrors   *prometheus.CounterVec
	respBytes   *prometheus.HistogramVec
}

// NewPrometheusMiddleware регистрирует метрики в reg, nil означает регистр по умолчанию
func NewPrometheusMiddleware(service string, reg prometheus.Registerer) *PrometheusMiddleware {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	labels := []string{"method", "route", "status"}

	pm := &PrometheusMiddleware{
		// генерация чанка в запросе может занять секунды, отсюда верхние корзины
		reqDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: service,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Время обработки запроса к API мира.",
			Buckets:   []float64{0.001, 0.005, 0.025, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, labels),
		reqInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: service,
			Subsystem: "http",
			Name:      "requests_inflight",
			Help:      "Запросы, ожидающие ответа.",
		}),
		reqErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: service,
			Subsystem: "http",
			Name:      "request_errors_total",
			Help:      "Ответы со статусом 4xx и 5xx.",
		}, labels),
		respBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: service,
			Subsystem: "http",
			Name:      "response_bytes",
			Help:      "Размер тела ответа, ASCII-карта чанка около 1 КиБ.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 6),
		}, []string{"route"}),
	}

	reg.MustRegister(pm.reqDuration, pm.reqInflight, pm.reqErrors, pm.respBytes)
	return pm
}

func routeOf(c *gin.Context) string {
	if r := c.FullPath(); r != "" {
		return r
	}
	return unmatchedRoute
}

// Handler возвращает gin.HandlerFunc для router.Use()
func (pm *PrometheusMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		pm.reqInflight.Inc()
		defer pm.reqInflight.Dec()

		start := time.Now()
		c.Next()
		elapsed := time.Since(start).Seconds()

		route := routeOf(c)
		code := c.Writer.Status()
		status := strconv.Itoa(code)

		pm.reqDuration.WithLabelValues(c.Request.Method, route, status).Observe(elapsed)
		if size := c.Writer.Size(); size > 0 {
			pm.respBytes.WithLabelValues(route).Observe(float64(size))
		}
		if code >= 400 {
			pm.reqErrors.WithLabelValues(c.Request.Method, route, status).Inc()
		}
	}
}

// RegisterMetricsEndpoint добавляет GET /metrics с выдачей из g
func RegisterMetricsEndpoint(r gin.IRoutes, g prometheus.Gatherer) {
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))
}
