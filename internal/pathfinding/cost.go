package pathfinding

import (
	"math"

	"github.com/annel0/tileworld/internal/vec"
	"github.com/annel0/tileworld/internal/world"
)

// CostField стоимость шага между соседними клетками мира.
// ok=false означает непроходимую клетку.
type CostField interface {
	Cost(from, to vec.Vec2) (cost float64, ok bool)
	// MinStepCost нижняя граница стоимости шага для эвристики
	MinStepCost() float64
}

// DefaultElevationPenalty штраф за единицу перепада высоты
const DefaultElevationPenalty = 4.0

var layerCost = map[world.Terrain]float64{
	world.Land1: 1.0,
	world.Land2: 1.5,
	world.Land3: 2.5,
}

// TerrainCost стоимость по слою ландшафта: вода непроходима, лес дороже
// песка, перепад высоты добавляет штраф
type TerrainCost struct {
	sampler          *world.TerrainSampler
	elevationPenalty float64
}

// NewTerrainCost создаёт поле стоимости поверх сэмплера ландшафта
func NewTerrainCost(sampler *world.TerrainSampler, elevationPenalty float64) *TerrainCost {
	if elevationPenalty < 0 {
		elevationPenalty = 0
	}
	return &TerrainCost{sampler: sampler, elevationPenalty: elevationPenalty}
}

// Passable проверяет, можно ли проложить дорогу через клетку
func (c *TerrainCost) Passable(p vec.Vec2) bool {
	t, _ := c.sampler.Sample(p)
	_, ok := layerCost[t]
	return ok
}

func (c *TerrainCost) Cost(from, to vec.Vec2) (float64, bool) {
	t, sTo := c.sampler.Sample(to)
	base, ok := layerCost[t]
	if !ok {
		return 0, false
	}
	_, sFrom := c.sampler.Sample(from)
	return base + c.elevationPenalty*math.Abs(sTo.Elevation-sFrom.Elevation), true
}

func (c *TerrainCost) MinStepCost() float64 {
	return layerCost[world.Land1]
}
