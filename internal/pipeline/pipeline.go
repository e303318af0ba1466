package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/annel0/tileworld/internal/codec"
	"github.com/annel0/tileworld/internal/eventbus"
	"github.com/annel0/tileworld/internal/logging"
	"github.com/annel0/tileworld/internal/observability"
	"github.com/annel0/tileworld/internal/pathfinding"
	"github.com/annel0/tileworld/internal/ruleset"
	"github.com/annel0/tileworld/internal/settlement"
	"github.com/annel0/tileworld/internal/util"
	"github.com/annel0/tileworld/internal/vec"
	"github.com/annel0/tileworld/internal/wfc"
	"github.com/annel0/tileworld/internal/world"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// ErrCancelled генерация прервана выгрузкой чанка или закрытием конвейера
var ErrCancelled = errors.New("генерация чанка отменена")

// ErrClosed конвейер закрыт
var ErrClosed = errors.New("конвейер закрыт")

// Config параметры конвейера
type Config struct {
	Seed         int64
	Noise        util.NoiseParams
	PathsEnabled bool
	Paths        pathfinding.Config
	// поселения ставятся только вместе с дорогами
	SettlementsEnabled bool
	Settlements        settlement.Config
	// ElevationPenalty штраф стоимости дороги за перепад высоты
	ElevationPenalty float64
	Wfc              wfc.Options
	Workers          int // параллельные генерации
	QueueSize        int // ёмкость очереди опроса
}

// DefaultConfig параметры по умолчанию для сида
func DefaultConfig(seed int64) Config {
	return Config{
		Seed:               seed,
		Noise:              util.DefaultNoiseParams(),
		PathsEnabled:       true,
		Paths:              pathfinding.DefaultConfig(seed),
		SettlementsEnabled: true,
		Settlements:        settlement.DefaultConfig(seed),
		ElevationPenalty:   pathfinding.DefaultElevationPenalty,
		Wfc: wfc.Options{
			Seed:             seed,
			RetryBudget:      wfc.DefaultRetryBudget,
			FootprintRetries: wfc.DefaultFootprintRetries,
		},
		Workers:   4,
		QueueSize: 256,
	}
}

// Deps внешние зависимости конвейера. Необязательные поля могут быть nil.
type Deps struct {
	Rules      *ruleset.Set
	Bus        eventbus.EventBus     // nil: глобальная шина, если она есть
	Registerer prometheus.Registerer // nil: отдельный регистр
	Compressor codec.ChunkCompressor // nil: zstd
	// CostField заменяет стоимость по ландшафту (для тестов)
	CostField pathfinding.CostField
}

// task генерация одного чанка. Владеет чанком до публикации.
type task struct {
	coords vec.Vec2
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	notify bool // результат нужно положить в очередь опроса

	chunk *world.Chunk
	err   error
}

// Pipeline строит чанки по фазам: метаданные, ландшафт, дороги, WFC.
// На каждую координату одновременно работает не больше одной задачи.
type Pipeline struct {
	cfg        Config
	builder    *world.ChunkBuilder
	planner    *pathfinding.Planner
	placer     *settlement.Placer
	engine     *wfc.Engine
	bus        eventbus.EventBus
	compressor codec.ChunkCompressor
	metrics    *Metrics
	tracer     trace.Tracer
	log        *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	sem    chan struct{}
	wg     sync.WaitGroup

	mu        sync.Mutex
	closed    bool
	states    map[vec.Vec2]Lifecycle
	tasks     map[vec.Vec2]*task
	finalized map[vec.Vec2]*world.Chunk
	queue     []*world.Chunk

	// beforeSettle вызывается между последней фазой и приёмом результата
	beforeSettle func(coords vec.Vec2)
}

// New создаёт конвейер
func New(cfg Config, deps Deps) (*Pipeline, error) {
	if deps.Rules == nil {
		return nil, fmt.Errorf("не задан набор правил")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	cfg.Paths.Seed = cfg.Seed
	cfg.Settlements.Seed = cfg.Seed
	cfg.Wfc.Seed = cfg.Seed

	field := util.NewNoiseField(cfg.Seed, cfg.Noise)

	p := &Pipeline{
		cfg:        cfg,
		builder:    world.NewChunkBuilder(field),
		engine:     wfc.NewEngine(deps.Rules, cfg.Wfc),
		bus:        deps.Bus,
		compressor: deps.Compressor,
		metrics:    NewMetrics(deps.Registerer),
		tracer:     observability.Tracer(),
		log:        logging.GetPipelineLogger(),
		sem:        make(chan struct{}, cfg.Workers),
		states:     make(map[vec.Vec2]Lifecycle),
		tasks:      make(map[vec.Vec2]*task),
		finalized:  make(map[vec.Vec2]*world.Chunk),
	}

	if cfg.PathsEnabled {
		cost := deps.CostField
		if cost == nil {
			cost = pathfinding.NewTerrainCost(world.NewTerrainSampler(field), cfg.ElevationPenalty)
		}
		planner, err := pathfinding.NewPlanner(cost, cfg.Paths)
		if err != nil {
			return nil, err
		}
		p.planner = planner

		if cfg.SettlementsEnabled {
			placer, err := settlement.NewPlacer(cfg.Settlements)
			if err != nil {
				planner.Close()
				return nil, err
			}
			p.placer = placer
		}
	}

	if p.compressor == nil {
		z, err := codec.NewZstdCompressor()
		if err != nil {
			return nil, err
		}
		p.compressor = z
	}

	p.ctx, p.cancel = context.WithCancel(context.Background())
	return p, nil
}

// Close отменяет все задачи и ждёт их завершения
func (p *Pipeline) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
	if p.planner != nil {
		p.planner.Close()
	}
}

// Generate возвращает готовый чанк, при необходимости запуская генерацию.
// Параллельные вызовы для одной координаты ждут одну и ту же задачу.
// Отмена ctx прекращает ожидание, но не саму генерацию.
func (p *Pipeline) Generate(ctx context.Context, coords vec.Vec2) (*world.Chunk, error) {
	t, chunk, err := p.acquire(coords, false)
	if chunk != nil || err != nil {
		return chunk, err
	}
	select {
	case <-t.done:
		return t.chunk, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Request запускает генерацию в фоне. Готовый чанк попадёт в очередь Poll.
func (p *Pipeline) Request(coords vec.Vec2) error {
	_, chunk, err := p.acquire(coords, true)
	if chunk != nil {
		p.mu.Lock()
		p.enqueue(chunk)
		p.mu.Unlock()
	}
	return err
}

// acquire возвращает готовый чанк либо текущую или новую задачу
func (p *Pipeline) acquire(coords vec.Vec2, notify bool) (*task, *world.Chunk, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, nil, ErrClosed
	}
	if chunk, ok := p.finalized[coords]; ok {
		return nil, chunk, nil
	}
	if t, ok := p.tasks[coords]; ok {
		t.notify = t.notify || notify
		return t, nil, nil
	}

	ctx, cancel := context.WithCancel(p.ctx)
	t := &task{coords: coords, ctx: ctx, cancel: cancel, done: make(chan struct{}), notify: notify}
	p.tasks[coords] = t
	p.states[coords] = Pending
	p.metrics.inflight.Inc()

	p.wg.Add(1)
	go p.run(t)
	return t, nil, nil
}

// Poll забирает до max готовых чанков из очереди. Неблокирующий.
func (p *Pipeline) Poll(max int) []*world.Chunk {
	p.mu.Lock()
	defer p.mu.Unlock()
	if max <= 0 || max > len(p.queue) {
		max = len(p.queue)
	}
	out := make([]*world.Chunk, max)
	copy(out, p.queue[:max])
	p.queue = p.queue[max:]
	return out
}

// enqueue добавляет чанк в очередь опроса, вытесняя самый старый при переполнении.
// Вызывается под mu.
func (p *Pipeline) enqueue(chunk *world.Chunk) {
	if len(p.queue) >= p.cfg.QueueSize {
		p.queue = p.queue[1:]
		p.metrics.pollDropped.Inc()
	}
	p.queue = append(p.queue, chunk)
}

// Unload отменяет генерацию чанка и забывает готовый результат.
// Частичные результаты отменённой задачи отбрасываются.
func (p *Pipeline) Unload(coords vec.Vec2) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t, ok := p.tasks[coords]; ok {
		t.cancel()
		delete(p.tasks, coords)
		p.states[coords] = Cancelled
		return
	}
	if _, ok := p.finalized[coords]; ok {
		delete(p.finalized, coords)
		delete(p.states, coords)
	}
}

// State текущее состояние чанка
func (p *Pipeline) State(coords vec.Vec2) Lifecycle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.states[coords]
}

// Chunk возвращает готовый чанк без запуска генерации
func (p *Pipeline) Chunk(coords vec.Vec2) (*world.Chunk, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.finalized[coords]
	return c, ok
}

// Planner планировщик дорог (nil, если дороги выключены)
func (p *Pipeline) Planner() *pathfinding.Planner {
	return p.planner
}

// GenerateArea генерирует квадрат чанков радиуса radius вокруг center,
// не больше Workers одновременно. Порядок результата: от центра наружу.
func (p *Pipeline) GenerateArea(ctx context.Context, center vec.Vec2, radius int) ([]*world.Chunk, error) {
	coords := AreaCoords(center, radius)
	chunks := make([]*world.Chunk, len(coords))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for i, c := range coords {
		i, c := i, c
		g.Go(func() error {
			chunk, err := p.Generate(gctx, c)
			if err != nil {
				return fmt.Errorf("чанк %v: %w", c, err)
			}
			chunks[i] = chunk
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return chunks, nil
}

// AreaCoords координаты квадрата вокруг центра, отсортированные по удалённости
func AreaCoords(center vec.Vec2, radius int) []vec.Vec2 {
	var coords []vec.Vec2
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			coords = append(coords, center.Add(vec.Vec2{X: dx, Y: dy}))
		}
	}
	sort.SliceStable(coords, func(i, j int) bool {
		return coords[i].ManhattanTo(center) < coords[j].ManhattanTo(center)
	})
	return coords
}

func (p *Pipeline) run(t *task) {
	defer p.wg.Done()
	defer close(t.done)
	defer p.metrics.inflight.Dec()

	var (
		out *outcome
		err error
	)
	select {
	case p.sem <- struct{}{}:
		out, err = p.generate(t)
		<-p.sem
	case <-t.ctx.Done():
		err = t.ctx.Err()
	}

	if p.beforeSettle != nil {
		p.beforeSettle(t.coords)
	}
	if p.settle(t, out, err) {
		// чанк принят, события уходят без блокировки
		p.finalize(out)
	}
}

// settle фиксирует итог задачи под блокировкой. Возвращает true, если
// чанк принят: только тогда у генерации появляются внешние следы.
func (p *Pipeline) settle(t *task, out *outcome, err error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	current := p.tasks[t.coords] == t
	if current {
		delete(p.tasks, t.coords)
	}

	switch {
	case t.ctx.Err() != nil || !current:
		t.err = fmt.Errorf("%w: %v", ErrCancelled, t.coords)
		p.metrics.cancelled.Inc()
		if current {
			p.states[t.coords] = Cancelled
		}
		p.log.Debug("Генерация чанка %v отменена", t.coords)
		return false
	case err != nil:
		t.err = err
		p.states[t.coords] = Failed
		p.metrics.failed.Inc()
		p.log.Error("Ошибка генерации чанка %v: %v", t.coords, err)
		return false
	default:
		t.chunk = out.chunk
		p.finalized[t.coords] = out.chunk
		p.states[t.coords] = Finalized
		if t.notify {
			p.enqueue(out.chunk)
		}
		return true
	}
}

// setState меняет фазу, только пока задача актуальна
func (p *Pipeline) setState(t *task, s Lifecycle) {
	p.mu.Lock()
	if p.tasks[t.coords] == t {
		p.states[t.coords] = s
	}
	p.mu.Unlock()
}

// phase выполняет одну фазу в своём спане и замеряет её длительность
func (p *Pipeline) phase(ctx context.Context, t *task, state Lifecycle, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.setState(t, state)

	ctx, span := p.tracer.Start(ctx, "pipeline."+state.String())
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	p.metrics.phaseDuration.WithLabelValues(state.String()).Observe(time.Since(start).Seconds())
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// outcome результат фаз, ещё не ставший видимым снаружи
type outcome struct {
	chunk     *world.Chunk
	paths     pathfinding.CommitStats
	buildings settlement.Stats
	took      time.Duration
}

func (p *Pipeline) generate(t *task) (*outcome, error) {
	start := time.Now()
	ctx, span := p.tracer.Start(t.ctx, "pipeline.Generate", trace.WithAttributes(
		attribute.Int("chunk.x", t.coords.X),
		attribute.Int("chunk.y", t.coords.Y),
	))
	defer span.End()

	var (
		meta   *world.MetadataLayer
		result wfc.Result
	)
	out := &outcome{}

	err := p.phase(ctx, t, Metadata, func(context.Context) error {
		meta = p.builder.BuildMetadata(t.coords)
		return nil
	})
	if err == nil {
		err = p.phase(ctx, t, Terrain, func(context.Context) error {
			out.chunk = p.builder.BuildTerrain(meta)
			return nil
		})
	}
	if err == nil {
		err = p.phase(ctx, t, Paths, func(ctx context.Context) error {
			var commitErr error
			out.paths, commitErr = p.commitPaths(ctx, out.chunk)
			if commitErr == nil && p.placer != nil {
				// дома ставятся у готовых дорог до WFC
				out.buildings = p.placer.Place(out.chunk)
			}
			return commitErr
		})
	}
	if err == nil {
		err = p.phase(ctx, t, Wfc, func(ctx context.Context) error {
			var solveErr error
			result, solveErr = p.engine.Solve(ctx, wfc.GridFromChunk(out.chunk))
			return solveErr
		})
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	result.Apply(out.chunk)
	out.took = time.Since(start)
	span.SetAttributes(attribute.Bool("chunk.degraded", out.chunk.Degraded), attribute.Int("wfc.attempts", out.chunk.Attempts))
	return out, nil
}

func (p *Pipeline) commitPaths(ctx context.Context, chunk *world.Chunk) (pathfinding.CommitStats, error) {
	if p.planner == nil {
		return pathfinding.CommitStats{}, nil
	}
	return p.planner.CommitPaths(ctx, chunk)
}

// finalize метрики, журнал и события принятого чанка
func (p *Pipeline) finalize(out *outcome) {
	chunk := out.chunk
	p.metrics.pathTiles.Add(float64(out.paths.Tiles))
	p.metrics.buildings.Add(float64(out.buildings.Placed))
	p.metrics.wfcAttempts.Observe(float64(chunk.Attempts))
	result := "ok"
	if chunk.Degraded {
		result = "degraded"
	}
	p.metrics.generated.WithLabelValues(result).Inc()

	logging.LogChunkGenerated(chunk.Coords.X, chunk.Coords.Y, chunk.CountObjects(), chunk.CountPaths(), chunk.Attempts, chunk.Degraded, out.took)

	// контекст конвейера: выгрузка чанка после приёма не отзывает его события
	for _, r := range out.paths.Failed {
		p.metrics.routesFailed.Inc()
		p.publishRouteFailed(p.ctx, r)
	}
	p.publishChunk(p.ctx, chunk)
}
