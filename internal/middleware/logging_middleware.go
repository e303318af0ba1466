package middleware

import (
	"time"

	"github.com/annel0/tileworld/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// RequestLogger снабжает каждый HTTP-запрос trace-ID и пишет краткие логи
// в логгер компонента http.
type RequestLogger struct {
	log *logging.Logger
}

func NewRequestLogger() *RequestLogger {
	return &RequestLogger{log: logging.GetComponentLogger("http")}
}

func (rl *RequestLogger) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// trace-id из OpenTelemetry, если otelgin уже создал спан
		span := trace.SpanFromContext(c.Request.Context())
		var traceID string
		if span.SpanContext().IsValid() {
			traceID = span.SpanContext().TraceID().String()
		} else {
			traceID = uuid.NewString()
		}
		c.Set("trace_id", traceID)
		c.Header("X-Trace-Id", traceID)

		start := time.Now()
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		if status >= 500 {
			rl.log.Warn("[HTTP] %s %s %d %s ip=%s trace=%s", method, path, status, latency, c.ClientIP(), traceID)
			return
		}
		rl.log.Debug("[HTTP] %s %s %d %s trace=%s", method, path, status, latency, traceID)
	}
}
