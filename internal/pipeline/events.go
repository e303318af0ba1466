package pipeline

import (
	"context"
	"fmt"
	"strconv"

	"github.com/annel0/tileworld/internal/eventbus"
	"github.com/annel0/tileworld/internal/pathfinding"
	"github.com/annel0/tileworld/internal/world"
)

const eventSource = "pipeline"

func (p *Pipeline) eventBus() eventbus.EventBus {
	if p.bus != nil {
		return p.bus
	}
	return eventbus.Global()
}

func (p *Pipeline) publish(ctx context.Context, ev *eventbus.Envelope) {
	bus := p.eventBus()
	if bus == nil {
		return
	}
	if err := bus.Publish(ctx, ev); err != nil {
		p.log.Warn("Событие %s не опубликовано: %v", ev.EventType, err)
	}
}

// publishChunk отправляет ChunkFinalized с сжатым чанком и, для чанков
// с откатом, дополнительно ChunkDegraded
func (p *Pipeline) publishChunk(ctx context.Context, chunk *world.Chunk) {
	if p.eventBus() == nil {
		return
	}
	payload, err := p.compressor.Compress(chunk)
	if err != nil {
		p.log.Warn("Не удалось сжать чанк %v: %v", chunk.Coords, err)
		return
	}

	ev := eventbus.NewEnvelope(eventbus.EventChunkFinalized, eventSource, payload)
	fillChunkMetadata(ev, chunk)
	p.publish(ctx, ev)

	if chunk.Degraded {
		deg := eventbus.NewEnvelope(eventbus.EventChunkDegraded, eventSource, nil)
		deg.CorrelationID = ev.ID
		deg.Priority = eventbus.PriorityHigh
		fillChunkMetadata(deg, chunk)
		p.publish(ctx, deg)
	}
}

func (p *Pipeline) publishRouteFailed(ctx context.Context, r *pathfinding.Route) {
	ev := eventbus.NewEnvelope(eventbus.EventRouteFailed, eventSource, nil)
	ev.Priority = eventbus.PriorityLow
	ev.Metadata[eventbus.MetaChunk] = coordsKey(r.From.X, r.From.Y)
	ev.Metadata["to"] = coordsKey(r.To.X, r.To.Y)
	ev.Metadata["error"] = r.Err.Error()
	p.publish(ctx, ev)
}

func fillChunkMetadata(ev *eventbus.Envelope, chunk *world.Chunk) {
	ev.Metadata[eventbus.MetaChunk] = coordsKey(chunk.Coords.X, chunk.Coords.Y)
	ev.Metadata["attempts"] = strconv.Itoa(chunk.Attempts)
	ev.Metadata["degraded"] = strconv.FormatBool(chunk.Degraded)
	ev.Metadata["paths"] = strconv.Itoa(chunk.CountPaths())
	ev.Metadata["buildings"] = strconv.Itoa(len(chunk.Buildings))
}

func coordsKey(x, y int) string {
	return fmt.Sprintf("%d,%d", x, y)
}
