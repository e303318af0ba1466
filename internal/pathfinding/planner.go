package pathfinding

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/annel0/tileworld/internal/logging"
	"github.com/annel0/tileworld/internal/util"
	"github.com/annel0/tileworld/internal/vec"
	"github.com/annel0/tileworld/internal/world"
	"github.com/annel0/tileworld/internal/world/object"
	"github.com/dgraph-io/ristretto"
	"golang.org/x/sync/singleflight"
)

// Соль хеша, чтобы розыгрыши точек маршрута не совпадали с розыгрышами WFC
const waypointSalt = 0x5741_5950

// Config параметры прокладки дорог
type Config struct {
	Seed             int64
	Density          float64 // доля чанков с точкой маршрута, [0,1]
	Margin           int     // запас области поиска вокруг пары чанков, не больше ChunkSize
	MaxExpansions    int
	WaypointAttempts int   // сколько клеток пробовать при выборе точки маршрута
	CacheSize        int64 // число маршрутов в кэше
}

// DefaultConfig параметры по умолчанию
func DefaultConfig(seed int64) Config {
	return Config{
		Seed:             seed,
		Density:          0.35,
		Margin:           8,
		MaxExpansions:    DefaultMaxExpansions,
		WaypointAttempts: 16,
		CacheSize:        4096,
	}
}

// Route дорога между точками маршрута двух соседних чанков.
// Маршрут зависит только от сида и ландшафта, поэтому каждый чанк
// может пересчитать его независимо и получить те же клетки.
type Route struct {
	From, To   vec.Vec2 // координаты чанков
	Start, End vec.Vec2 // точки маршрута в мировых координатах
	Bounds     vec.Rect
	Tiles      []vec.Vec2
	Cost       float64
	Err        error
}

// Failed маршрут не удалось проложить
func (r *Route) Failed() bool {
	return r.Err != nil
}

// CommitStats итог фиксации дорог в чанке
type CommitStats struct {
	Routes int      // маршруты, задевшие чанк
	Tiles  int      // зафиксированные клетки
	Failed []*Route // неудавшиеся маршруты, начинающиеся в этом чанке
}

// Stats счётчики планировщика
type Stats struct {
	Computed  int64
	CacheHits int64
	Failed    int64
}

// Planner прокладывает дороги между чанками поиском A* по полю стоимости.
// Безопасен для параллельного использования.
type Planner struct {
	cfg   Config
	field CostField
	cache *ristretto.Cache
	group singleflight.Group
	log   *logging.Logger

	computed  atomic.Int64
	cacheHits atomic.Int64
	failed    atomic.Int64
}

// NewPlanner создаёт планировщик с кэшем маршрутов
func NewPlanner(field CostField, cfg Config) (*Planner, error) {
	if cfg.Margin < 0 || cfg.Margin > vec.ChunkSize {
		return nil, fmt.Errorf("запас поиска %d вне [0,%d]", cfg.Margin, vec.ChunkSize)
	}
	if cfg.Density < 0 || cfg.Density > 1 {
		return nil, fmt.Errorf("плотность точек маршрута %v вне [0,1]", cfg.Density)
	}
	if cfg.WaypointAttempts <= 0 {
		cfg.WaypointAttempts = 16
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 4096
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        cfg.CacheSize * 10,
		MaxCost:            cfg.CacheSize,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка создания кэша маршрутов: %w", err)
	}

	return &Planner{
		cfg:   cfg,
		field: field,
		cache: cache,
		log:   logging.GetPathLogger(),
	}, nil
}

// Close освобождает кэш
func (p *Planner) Close() {
	p.cache.Close()
}

// Stats возвращает счётчики
func (p *Planner) Stats() Stats {
	return Stats{
		Computed:  p.computed.Load(),
		CacheHits: p.cacheHits.Load(),
		Failed:    p.failed.Load(),
	}
}

func (p *Planner) passable(pos vec.Vec2) bool {
	_, ok := p.field.Cost(pos, pos)
	return ok
}

// Waypoint точка маршрута чанка. Есть не у каждого чанка: решает хеш сида
// и координат, затем выбирается первая проходимая клетка из серии розыгрышей.
func (p *Planner) Waypoint(c vec.Vec2) (vec.Vec2, bool) {
	if util.Unit(util.Hash(p.cfg.Seed, waypointSalt, int64(c.X), int64(c.Y))) >= p.cfg.Density {
		return vec.Vec2{}, false
	}
	origin := c.ChunkOrigin()
	rng := util.NewStream(p.cfg.Seed, waypointSalt, int64(c.X), int64(c.Y), 1)
	for i := 0; i < p.cfg.WaypointAttempts; i++ {
		pos := origin.Add(vec.Vec2{X: rng.Intn(vec.ChunkSize), Y: rng.Intn(vec.ChunkSize)})
		if p.passable(pos) {
			return pos, true
		}
	}
	return vec.Vec2{}, false
}

// Route маршрут от чанка a к соседу справа (Right) или снизу (Bottom).
// nil без ошибки, если у одного из чанков нет точки маршрута.
func (p *Planner) Route(ctx context.Context, a vec.Vec2, dir vec.Direction) (*Route, error) {
	if dir != vec.Right && dir != vec.Bottom {
		return nil, fmt.Errorf("маршруты строятся только вправо и вниз, получено %s", dir)
	}
	b := a.Step(dir)
	start, ok := p.Waypoint(a)
	if !ok {
		return nil, nil
	}
	end, ok := p.Waypoint(b)
	if !ok {
		return nil, nil
	}

	key := fmt.Sprintf("%d:%d:%s", a.X, a.Y, dir)
	if v, found := p.cache.Get(key); found {
		p.cacheHits.Add(1)
		return v.(*Route), nil
	}

	// Поиск ограничен лимитом раскрытий, поэтому выполняется до конца даже
	// при отмене вызывающего: результат нужен соседним чанкам.
	ch := p.group.DoChan(key, func() (interface{}, error) {
		r := p.compute(context.WithoutCancel(ctx), a, b, start, end)
		p.cache.Set(key, r, 1)
		p.cache.Wait()
		return r, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Route), nil
	}
}

func (p *Planner) compute(ctx context.Context, a, b, start, end vec.Vec2) *Route {
	startTime := time.Now()
	r := &Route{
		From:   a,
		To:     b,
		Start:  start,
		End:    end,
		Bounds: vec.ChunkRect(a).Union(vec.ChunkRect(b)).Expand(p.cfg.Margin),
	}
	tiles, err := FindPath(ctx, p.field, start, end, r.Bounds, p.cfg.MaxExpansions)
	p.computed.Add(1)
	if err != nil {
		r.Err = err
		p.failed.Add(1)
		p.log.Debug("Маршрут %v -> %v не проложен: %v", a, b, err)
		return r
	}
	r.Tiles = tiles
	r.Cost = PathCost(p.field, tiles)
	p.log.Debug("Маршрут %v -> %v: %d клеток, стоимость %.2f за %v", a, b, len(tiles), r.Cost, time.Since(startTime))
	return r
}

// RoutesTouching все маршруты, чья область поиска пересекает чанк c.
// Только такие маршруты могут пройти через его клетки.
func (p *Planner) RoutesTouching(ctx context.Context, c vec.Vec2) ([]*Route, error) {
	rect := vec.ChunkRect(c)
	var routes []*Route
	for ay := c.Y - 2; ay <= c.Y+1; ay++ {
		for ax := c.X - 2; ax <= c.X+1; ax++ {
			a := vec.Vec2{X: ax, Y: ay}
			for _, dir := range []vec.Direction{vec.Right, vec.Bottom} {
				bounds := vec.ChunkRect(a).Union(vec.ChunkRect(a.Step(dir))).Expand(p.cfg.Margin)
				if !bounds.Intersects(rect) {
					continue
				}
				r, err := p.Route(ctx, a, dir)
				if err != nil {
					return nil, err
				}
				if r != nil {
					routes = append(routes, r)
				}
			}
		}
	}
	return routes, nil
}

// CommitPaths фиксирует в чанке клетки всех маршрутов, проходящих через него.
// Соединения клетки берутся из соседних клеток маршрута, пересечения
// маршрутов объединяют соединения.
func (p *Planner) CommitPaths(ctx context.Context, chunk *world.Chunk) (CommitStats, error) {
	var stats CommitStats
	routes, err := p.RoutesTouching(ctx, chunk.Coords)
	if err != nil {
		return stats, err
	}

	rect := vec.ChunkRect(chunk.Coords)
	for _, r := range routes {
		stats.Routes++
		if r.Failed() {
			if r.From == chunk.Coords {
				stats.Failed = append(stats.Failed, r)
			}
			continue
		}
		for k, pos := range r.Tiles {
			if !rect.Contains(pos) {
				continue
			}
			var conn object.Connection
			if k > 0 {
				conn = connect(conn, pos, r.Tiles[k-1])
			}
			if k+1 < len(r.Tiles) {
				conn = connect(conn, pos, r.Tiles[k+1])
			}
			chunk.SetPath(pos.Sub(rect.Min), conn)
			stats.Tiles++
		}
	}
	return stats, nil
}

func connect(conn object.Connection, pos, next vec.Vec2) object.Connection {
	if d, ok := vec.DirectionTo(pos, next); ok {
		return conn.With(d)
	}
	return conn
}

// IsNoPath проверяет, что маршрут не найден (а не отменён)
func IsNoPath(err error) bool {
	return errors.Is(err, ErrNoPathFound)
}
