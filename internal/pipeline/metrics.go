package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics Prometheus-метрики конвейера
type Metrics struct {
	generated     *prometheus.CounterVec
	failed        prometheus.Counter
	cancelled     prometheus.Counter
	phaseDuration *prometheus.HistogramVec
	wfcAttempts   prometheus.Histogram
	routesFailed  prometheus.Counter
	pathTiles     prometheus.Counter
	buildings     prometheus.Counter
	inflight      prometheus.Gauge
	pollDropped   prometheus.Counter
}

// NewMetrics создаёт метрики и регистрирует их в reg.
// reg == nil означает отдельный регистр (удобно для нескольких конвейеров в тестах).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		generated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tileworld",
			Subsystem: "pipeline",
			Name:      "chunks_generated_total",
			Help:      "Готовые чанки по результату (ok, degraded).",
		}, []string{"result"}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tileworld",
			Subsystem: "pipeline",
			Name:      "chunks_failed_total",
			Help:      "Чанки, генерация которых завершилась ошибкой.",
		}),
		cancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tileworld",
			Subsystem: "pipeline",
			Name:      "chunks_cancelled_total",
			Help:      "Генерации, отменённые выгрузкой чанка.",
		}),
		phaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tileworld",
			Subsystem: "pipeline",
			Name:      "phase_duration_seconds",
			Help:      "Длительность фаз генерации.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"phase"}),
		wfcAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tileworld",
			Subsystem: "wfc",
			Name:      "attempts",
			Help:      "Попыток WFC на чанк.",
			Buckets:   prometheus.LinearBuckets(1, 1, 8),
		}),
		routesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tileworld",
			Subsystem: "paths",
			Name:      "routes_failed_total",
			Help:      "Маршруты между чанками, которые не удалось проложить.",
		}),
		pathTiles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tileworld",
			Subsystem: "paths",
			Name:      "tiles_committed_total",
			Help:      "Зафиксированные клетки дорог.",
		}),
		buildings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tileworld",
			Subsystem: "settlements",
			Name:      "buildings_placed_total",
			Help:      "Дома, поставленные у дорог поселений.",
		}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tileworld",
			Subsystem: "pipeline",
			Name:      "inflight",
			Help:      "Генерации в процессе.",
		}),
		pollDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tileworld",
			Subsystem: "pipeline",
			Name:      "poll_dropped_total",
			Help:      "Готовые чанки, вытесненные из переполненной очереди опроса.",
		}),
	}
	reg.MustRegister(m.generated, m.failed, m.cancelled, m.phaseDuration, m.wfcAttempts,
		m.routesFailed, m.pathTiles, m.buildings, m.inflight, m.pollDropped)
	return m
}
