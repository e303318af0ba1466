package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	ev := NewEnvelope(EventChunkFinalized, "pipeline", []byte{1, 2})
	_, err := uuid.Parse(ev.ID)
	assert.NoError(t, err, "ID должен быть UUID")
	assert.Equal(t, EventChunkFinalized, ev.EventType)
	assert.Equal(t, PriorityNormal, ev.Priority)
	assert.NotNil(t, ev.Metadata)

	other := NewEnvelope(EventChunkFinalized, "pipeline", nil)
	assert.NotEqual(t, ev.ID, other.ID)
}

func TestMemoryBus_FilterAndOrder(t *testing.T) {
	bus := NewMemoryBus(16)
	defer bus.Close()

	got := make(chan *Envelope, 8)
	sub, err := bus.Subscribe(context.Background(), Filter{Types: []string{EventChunkDegraded}}, func(_ context.Context, ev *Envelope) {
		got <- ev
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, NewEnvelope(EventChunkFinalized, "pipeline", nil)))
	first := NewEnvelope(EventChunkDegraded, "pipeline", nil)
	second := NewEnvelope(EventChunkDegraded, "pipeline", nil)
	require.NoError(t, bus.Publish(ctx, first))
	require.NoError(t, bus.Publish(ctx, second))

	for _, want := range []*Envelope{first, second} {
		select {
		case ev := <-got:
			assert.Equal(t, want.ID, ev.ID, "события доставляются в порядке публикации")
		case <-time.After(time.Second):
			t.Fatal("событие не доставлено")
		}
	}
	select {
	case ev := <-got:
		t.Fatalf("лишнее событие %s", ev.EventType)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryBus_ChunkFilter(t *testing.T) {
	bus := NewMemoryBus(8)
	got := make(chan string, 4)
	_, err := bus.Subscribe(context.Background(), Filter{Chunks: []string{"1,-2"}}, func(_ context.Context, ev *Envelope) {
		got <- ev.Metadata[MetaChunk]
	})
	require.NoError(t, err)

	for _, key := range []string{"0,0", "1,-2", ""} {
		ev := NewEnvelope(EventChunkFinalized, "pipeline", nil)
		if key != "" {
			ev.Metadata[MetaChunk] = key
		}
		require.NoError(t, bus.Publish(context.Background(), ev))
	}
	bus.Close()

	require.Len(t, got, 1, "доставлено только событие своего чанка")
	assert.Equal(t, "1,-2", <-got)
}

func TestMemoryBus_Close(t *testing.T) {
	bus := NewMemoryBus(4)
	delivered := make(chan struct{}, 4)
	_, err := bus.Subscribe(context.Background(), Filter{}, func(context.Context, *Envelope) {
		delivered <- struct{}{}
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), NewEnvelope(EventRouteFailed, "paths", nil)))
	bus.Close()
	assert.Len(t, delivered, 1, "принятые события рассылаются до закрытия")

	assert.ErrorIs(t, bus.Publish(context.Background(), NewEnvelope(EventRouteFailed, "paths", nil)), ErrBusClosed)
	_, err = bus.Subscribe(context.Background(), Filter{}, func(context.Context, *Envelope) {})
	assert.ErrorIs(t, err, ErrBusClosed)
	bus.Close() // повторное закрытие безопасно
}

func TestMetricsExporter(t *testing.T) {
	bus := NewMemoryBus(8)
	reg := prometheus.NewRegistry()
	me := NewMetricsExporter(bus, reg)

	for i := 0; i < 3; i++ {
		require.NoError(t, bus.Publish(context.Background(), NewEnvelope(EventChunkFinalized, "pipeline", nil)))
	}
	bus.Close()

	me.Collect()
	assert.Equal(t, 3.0, testutil.ToFloat64(me.published))
	assert.Equal(t, 0.0, testutil.ToFloat64(me.dropped))

	// Повторный сбор не удваивает счётчики
	me.Collect()
	assert.Equal(t, 3.0, testutil.ToFloat64(me.published))
}

func TestGlobalPublish(t *testing.T) {
	Init(nil)
	assert.NoError(t, Publish(context.Background(), NewEnvelope(EventChunkFinalized, "test", nil)), "без шины публикация игнорируется")

	bus := NewMemoryBus(2)
	Init(bus)
	defer func() {
		Init(nil)
		bus.Close()
	}()
	assert.NoError(t, Publish(context.Background(), NewEnvelope(EventChunkFinalized, "test", nil)))
	assert.Same(t, bus, Global())
}
