package settlement

import (
	"bytes"
	"testing"

	"github.com/annel0/tileworld/internal/vec"
	"github.com/annel0/tileworld/internal/world"
	"github.com/annel0/tileworld/internal/world/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const roadRow = 10

func newPlacer(t *testing.T, mutate func(*Config)) *Placer {
	t.Helper()
	cfg := DefaultConfig(42)
	cfg.Probability = 1
	cfg.Density = 1
	if mutate != nil {
		mutate(&cfg)
	}
	p, err := NewPlacer(cfg)
	require.NoError(t, err)
	return p
}

// roadChunk суша с горизонтальной дорогой через весь чанк
func roadChunk(terrain world.Terrain) *world.Chunk {
	c := world.NewChunk(vec.Vec2{X: 3, Y: -1})
	for i := range c.Tiles {
		c.Tiles[i].Terrain = terrain
		c.Tiles[i].TileType = world.Fill
	}
	for x := 0; x < world.ChunkSize; x++ {
		var conn object.Connection
		if x > 0 {
			conn = conn.With(vec.Left)
		}
		if x < world.ChunkSize-1 {
			conn = conn.With(vec.Right)
		}
		c.SetPath(vec.Vec2{X: x, Y: roadRow}, conn)
	}
	return c
}

func TestTemplates_DoorOnEdge(t *testing.T) {
	for k := range Templates {
		tpl := &Templates[k]
		for _, row := range tpl.Rows {
			assert.Len(t, row, tpl.Width(), "шаблон %s: строки разной ширины", tpl.Name)
		}
		assert.Equal(t, object.HouseDoor, tpl.Rows[tpl.Door.Y][tpl.Door.X], "шаблон %s: дверь не на своём месте", tpl.Name)

		out := tpl.Door.Step(tpl.Facing)
		inside := out.X >= 0 && out.X < tpl.Width() && out.Y >= 0 && out.Y < tpl.Height()
		assert.False(t, inside, "шаблон %s: дверь должна выходить наружу", tpl.Name)

		for _, row := range tpl.Rows {
			for _, n := range row {
				assert.True(t, n.IsBuilding(), "шаблон %s: %s не часть дома", tpl.Name, n)
			}
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	_, err := NewPlacer(Config{Probability: 1.5})
	assert.Error(t, err)
	_, err = NewPlacer(Config{Density: -0.1})
	assert.Error(t, err)
	_, err = NewPlacer(DefaultConfig(1))
	assert.NoError(t, err)
}

func TestPlacer_Settled(t *testing.T) {
	always := newPlacer(t, nil)
	never := newPlacer(t, func(c *Config) { c.Probability = 0 })
	half := newPlacer(t, func(c *Config) { c.Probability = 0.5 })

	settled := 0
	for x := -10; x < 10; x++ {
		c := vec.Vec2{X: x, Y: 7}
		assert.True(t, always.Settled(c))
		assert.False(t, never.Settled(c))
		assert.Equal(t, half.Settled(c), half.Settled(c), "флаг поселения зависит только от сида и координат")
		if half.Settled(c) {
			settled++
		}
	}
	assert.Positive(t, settled)
	assert.Less(t, settled, 20)
}

func TestPlace_DoorsFacePath(t *testing.T) {
	chunk := roadChunk(world.Land2)
	stats := newPlacer(t, nil).Place(chunk)

	require.True(t, chunk.Settled)
	require.Positive(t, stats.Placed)
	assert.Equal(t, world.ChunkSize, stats.Candidates)
	assert.Len(t, chunk.Buildings, stats.Placed)

	seen := map[int]bool{}
	for _, b := range chunk.Buildings {
		tpl := &Templates[b.Template]
		// на горизонтальной дороге помещаются только дома дверью на юг
		assert.Equal(t, vec.Bottom, tpl.Facing)

		door := world.LocalOf(b.Door)
		entrance := world.LocalOf(b.Entrance)
		assert.Equal(t, entrance, door.Step(tpl.Facing), "дверь смотрит на дорогу")
		assert.Equal(t, object.HouseDoor, chunk.Objects[b.Door])
		assert.True(t, chunk.Paths[b.Entrance].Has(tpl.Facing.Opposite()), "дорога перед дверью соединена с домом")
		assert.True(t, chunk.Objects[b.Entrance].IsPath())

		assert.Len(t, b.Cells, tpl.Width()*tpl.Height())
		for _, i := range b.Cells {
			assert.False(t, seen[i], "дома не пересекаются")
			seen[i] = true
			assert.True(t, chunk.Fixed[i])
			assert.True(t, chunk.Objects[i].IsBuilding())
			assert.Zero(t, chunk.Paths[i], "дом не стоит на дороге")
		}
	}
	assert.Equal(t, world.ChunkSize, chunk.CountPaths(), "дома не меняют число клеток дороги")
}

func TestPlace_NotSettled(t *testing.T) {
	chunk := roadChunk(world.Land2)
	before := chunk.Encode()

	stats := newPlacer(t, func(c *Config) { c.Probability = 0 }).Place(chunk)
	assert.False(t, chunk.Settled)
	assert.Zero(t, stats.Placed)
	assert.Empty(t, chunk.Buildings)
	assert.True(t, bytes.Equal(before, chunk.Encode()), "чанк без поселения не меняется")
}

func TestPlace_NoRoomOnWater(t *testing.T) {
	chunk := roadChunk(world.ShallowWater)
	stats := newPlacer(t, nil).Place(chunk)

	assert.True(t, chunk.Settled)
	assert.Zero(t, stats.Placed, "на воде дома не ставятся")
	assert.Empty(t, chunk.Buildings)
}

func TestPlace_SlopeBlocks(t *testing.T) {
	chunk := roadChunk(world.Land2)
	for i := range chunk.Tiles {
		if chunk.Tiles[i].Local.Y < roadRow {
			chunk.Tiles[i].TileType = world.BottomFill
		}
	}
	stats := newPlacer(t, nil).Place(chunk)
	assert.Zero(t, stats.Placed, "на склоне дома не ставятся")
}

func TestPlace_Deterministic(t *testing.T) {
	a := roadChunk(world.Land3)
	b := roadChunk(world.Land3)
	p := newPlacer(t, func(c *Config) { c.Density = 0.5 })

	assert.Equal(t, p.Place(a), p.Place(b))
	assert.True(t, bytes.Equal(a.Encode(), b.Encode()), "одинаковый сид должен давать одинаковые дома")
}
