package observability

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessMetrics(t *testing.T) {
	pm, err := NewProcessMetrics()
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	require.NoError(t, pm.Register(reg))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "tileworld_uptime_seconds")
	assert.Contains(t, names, "tileworld_heap_alloc_megabytes")

	assert.Greater(t, pm.MemoryUsage(), 0.0)
	assert.Contains(t, pm.Uptime(), "с")

	// Повторная регистрация в том же регистре запрещена
	assert.Error(t, pm.Register(reg))
}

func TestTracerWithoutInit(t *testing.T) {
	_, span := Tracer().Start(context.Background(), "noop")
	defer span.End()
	assert.NoError(t, NoopShutdown(context.Background()))
}
