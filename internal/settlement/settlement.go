// Package settlement ставит дома поселений рядом с дорогами чанка.
// Дома ставятся после дорог и до WFC: их клетки закрепляются так же,
// как клетки дорог, и WFC подбирает соседей под них.
package settlement

import (
	"fmt"

	"github.com/annel0/tileworld/internal/logging"
	"github.com/annel0/tileworld/internal/util"
	"github.com/annel0/tileworld/internal/vec"
	"github.com/annel0/tileworld/internal/world"
	"github.com/annel0/tileworld/internal/world/object"
)

// Соли хеша отделяют розыгрыши поселений от точек маршрута и WFC
const (
	settledSalt = 0x5345_544c
	placeSalt   = 0x484f_5553
)

// Config параметры поселений
type Config struct {
	Seed        int64
	Probability float64 // доля чанков-поселений, [0,1]
	Density     float64 // доля клеток дороги, у которых пробуется дом, [0,1]
}

// DefaultConfig параметры по умолчанию
func DefaultConfig(seed int64) Config {
	return Config{
		Seed:        seed,
		Probability: 0.3,
		Density:     0.25,
	}
}

// Validate проверяет диапазоны
func (c Config) Validate() error {
	if c.Probability < 0 || c.Probability > 1 {
		return fmt.Errorf("settlement: probability %.2f вне [0,1]", c.Probability)
	}
	if c.Density < 0 || c.Density > 1 {
		return fmt.Errorf("settlement: density %.2f вне [0,1]", c.Density)
	}
	return nil
}

// Stats итог расстановки в одном чанке
type Stats struct {
	Candidates int // клетки дороги, прошедшие розыгрыш плотности
	Placed     int
}

// Placer ставит дома. Результат зависит только от сида и содержимого чанка.
type Placer struct {
	cfg Config
	log *logging.Logger
}

// NewPlacer создаёт расстановщик
func NewPlacer(cfg Config) (*Placer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Placer{cfg: cfg, log: logging.GetSettlementLogger()}, nil
}

// Settled чанк отмечен как поселение
func (p *Placer) Settled(c vec.Vec2) bool {
	return util.Unit(util.Hash(p.cfg.Seed, settledSalt, int64(c.X), int64(c.Y))) < p.cfg.Probability
}

// Place ставит дома у дорог чанка. Дороги должны быть уже закреплены.
// Каждый дом дверью выходит на клетку дороги, и эта клетка получает
// соединение в сторону двери.
func (p *Placer) Place(chunk *world.Chunk) Stats {
	var stats Stats
	chunk.Settled = p.Settled(chunk.Coords)
	if !chunk.Settled {
		return stats
	}

	rng := util.NewStream(p.cfg.Seed, placeSalt, int64(chunk.Coords.X), int64(chunk.Coords.Y))
	// клетки дорог собираются заранее: дома меняют соединения
	var candidates []vec.Vec2
	for i, conn := range chunk.Paths {
		if conn != 0 && rng.Float64() < p.cfg.Density {
			candidates = append(candidates, world.LocalOf(i))
		}
	}
	stats.Candidates = len(candidates)

	for _, path := range candidates {
		t, ok := p.choose(chunk, path, rng)
		if !ok {
			p.log.Trace("чанк %v: у дороги %v нет места для дома", chunk.Coords, path)
			continue
		}
		b := build(chunk, t, path)
		chunk.Buildings = append(chunk.Buildings, b)
		stats.Placed++
	}

	if stats.Placed > 0 {
		p.log.Debug("чанк %v: поставлено домов %d из %d кандидатов", chunk.Coords, stats.Placed, stats.Candidates)
	}
	return stats
}

// choose выбирает случайный шаблон из подходящих
func (p *Placer) choose(chunk *world.Chunk, path vec.Vec2, rng *util.Stream) (int, bool) {
	var fitting []int
	for k := range Templates {
		if fits(chunk, &Templates[k], path) {
			fitting = append(fitting, k)
		}
	}
	if len(fitting) == 0 {
		return 0, false
	}
	return fitting[rng.Intn(len(fitting))], true
}

// fits все клетки дома внутри чанка и свободны
func fits(chunk *world.Chunk, t *Template, path vec.Vec2) bool {
	origin := t.Origin(path)
	for dy := 0; dy < t.Height(); dy++ {
		for dx := 0; dx < t.Width(); dx++ {
			if !available(chunk, origin.Add(vec.Vec2{X: dx, Y: dy})) {
				return false
			}
		}
	}
	return true
}

// available клетка годится под дом: суша без склона и не занята дорогой или другим домом
func available(chunk *world.Chunk, p vec.Vec2) bool {
	if !world.InBounds(p) {
		return false
	}
	i := world.Index(p.X, p.Y)
	tile := &chunk.Tiles[i]
	return !chunk.Fixed[i] && tile.Terrain >= world.Land1 && tile.TileType == world.Fill
}

func build(chunk *world.Chunk, k int, path vec.Vec2) world.Building {
	t := &Templates[k]
	origin := t.Origin(path)
	door := t.DoorFor(path)
	b := world.Building{
		Template: k,
		Door:     world.Index(door.X, door.Y),
		Entrance: world.Index(path.X, path.Y),
	}
	for dy, row := range t.Rows {
		for dx, name := range row {
			i := world.Index(origin.X+dx, origin.Y+dy)
			chunk.SetBuilding(i, name)
			b.Cells = append(b.Cells, i)
		}
	}
	chunk.SetPath(path, object.Connection(0).With(t.Facing.Opposite()))
	return b
}
