package world

import (
	"bytes"
	"math"
	"testing"

	"github.com/annel0/tileworld/internal/util"
	"github.com/annel0/tileworld/internal/vec"
	"github.com/annel0/tileworld/internal/world/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuilder(seed int64) *ChunkBuilder {
	return NewChunkBuilder(util.NewNoiseField(seed, util.DefaultNoiseParams()))
}

func TestChunkCreate(t *testing.T) {
	coords := vec.Vec2{X: 5, Y: 10}
	chunk := NewChunk(coords)

	// Проверяем координаты
	assert.Equal(t, coords, chunk.Coords)
	assert.Equal(t, vec.Vec2{X: 3, Y: 4}, chunk.Tiles[Index(3, 4)].Local)
	assert.Equal(t, object.Empty, chunk.ObjectAt(vec.Vec2{X: 3, Y: 4}), "клетки изначально пустые")
	assert.Equal(t, vec.Vec2{X: 160 + 3, Y: 320 + 4}, chunk.WorldPos(vec.Vec2{X: 3, Y: 4}))
}

func TestChunkSetPath(t *testing.T) {
	chunk := NewChunk(vec.Vec2{})
	p := vec.Vec2{X: 2, Y: 2}

	chunk.SetPath(p, object.Connection(0).With(vec.Left))
	assert.Equal(t, object.PathLeft, chunk.ObjectAt(p))

	// Соединения накапливаются
	chunk.SetPath(p, object.Connection(0).With(vec.Right))
	assert.Equal(t, object.PathHorizontal, chunk.ObjectAt(p))
	assert.Equal(t, 1, chunk.CountPaths())
	assert.Equal(t, 1, chunk.CountObjects())
}

func TestChunkSetBuilding(t *testing.T) {
	chunk := NewChunk(vec.Vec2{})
	chunk.SetPath(vec.Vec2{X: 2, Y: 3}, object.Connection(0).With(vec.Top))
	chunk.SetBuilding(Index(2, 2), object.HouseDoor)

	assert.True(t, chunk.Fixed[Index(2, 2)])
	assert.Equal(t, object.HouseDoor, chunk.ObjectAt(vec.Vec2{X: 2, Y: 2}))
	assert.Equal(t, 1, chunk.CountPaths(), "клетки домов не считаются дорогами")
	assert.Equal(t, 2, chunk.CountObjects())
}

func TestBuilder_Deterministic(t *testing.T) {
	a := newBuilder(42).Build(vec.Vec2{X: 0, Y: 0})
	b := newBuilder(42).Build(vec.Vec2{X: 0, Y: 0})

	assert.True(t, bytes.Equal(a.Encode(), b.Encode()), "одинаковый сид должен давать одинаковый чанк")
}

func TestBuilder_SeamContinuity(t *testing.T) {
	b := newBuilder(42)
	left := b.BuildMetadata(vec.Vec2{X: 0, Y: 0})
	right := b.BuildMetadata(vec.Vec2{X: 1, Y: 0})
	below := b.BuildMetadata(vec.Vec2{X: 0, Y: 1})

	for i := -BufferSize; i < ChunkSize+BufferSize; i++ {
		// Правая граница левого чанка совпадает с буфером правого
		l := left.At(ChunkSize-1, i)
		r := right.At(-1, i)
		require.Equal(t, math.Float64bits(l.Elevation), math.Float64bits(r.Elevation), "строка %d", i)
		require.Equal(t, math.Float64bits(l.Moisture), math.Float64bits(r.Moisture), "строка %d", i)

		l = left.At(ChunkSize, i)
		r = right.At(0, i)
		require.Equal(t, l, r, "буфер левого чанка совпадает с первой колонкой правого, строка %d", i)

		top := left.At(i, ChunkSize)
		bottom := below.At(i, 0)
		require.Equal(t, top, bottom, "колонка %d", i)
		require.Equal(t, left.TerrainAt(i, ChunkSize), below.TerrainAt(i, 0))
	}
}

func TestBuilder_TileTypesMatchNeighbours(t *testing.T) {
	b := newBuilder(7)
	for _, coords := range []vec.Vec2{{X: 0, Y: 0}, {X: -1, Y: 2}, {X: 3, Y: -4}} {
		meta := b.BuildMetadata(coords)
		chunk := b.BuildTerrain(meta)

		for i, tile := range chunk.Tiles {
			assert.NotEqual(t, Unknown, tile.TileType)
			assert.Equal(t, meta.TerrainAt(tile.Local.X, tile.Local.Y), tile.Terrain)
			if tile.Terrain.IsWater() {
				assert.Equal(t, Fill, tile.TileType, "вода всегда Fill, клетка %d", i)
			}
			want := ClassifyTileType(tile.Terrain, neighboursOf(meta, tile.Local.X, tile.Local.Y))
			assert.Equal(t, want, tile.TileType)
		}
	}
}

func TestClassifyTerrain(t *testing.T) {
	wet := 0.9
	cases := []struct {
		elevation float64
		want      Terrain
	}{
		{0.1, DeepWater},
		{0.35, ShallowWater},
		{0.5, Land1},
		{0.65, Land2},
		{0.8, Land3},
	}
	for _, c := range cases {
		got, climate := ClassifyTerrain(util.MetadataSample{Elevation: c.elevation, Moisture: wet})
		assert.Equal(t, c.want, got, "высота %.2f", c.elevation)
		assert.Equal(t, Humid, climate)
	}

	// Полоса биома ограничивает максимальный слой
	capped := []struct {
		moisture float64
		want     Terrain
		climate  Climate
	}{
		{0.8, Land3, Humid},
		{0.6, Land2, Moderate},
		{0.4, Land1, Moderate},
		{0.26, Land1, Dry},
		{0.25, ShallowWater, Dry},
		{0.1, ShallowWater, Dry},
	}
	for _, c := range capped {
		got, climate := ClassifyTerrain(util.MetadataSample{Elevation: 0.95, Moisture: c.moisture})
		assert.Equal(t, c.want, got, "влажность %.2f", c.moisture)
		assert.Equal(t, c.climate, climate, "влажность %.2f", c.moisture)
	}

	// Ограничение не поднимает низкие слои
	got, _ := ClassifyTerrain(util.MetadataSample{Elevation: 0.1, Moisture: 0.1})
	assert.Equal(t, DeepWater, got)
}

func TestCodec_RoundTrip(t *testing.T) {
	chunk := newBuilder(3).Build(vec.Vec2{X: -2, Y: 1})
	chunk.SetPath(vec.Vec2{X: 1, Y: 1}, object.Connection(0).With(vec.Top).With(vec.Bottom))
	chunk.Objects[Index(5, 5)] = object.ForestTree2
	chunk.Objects[Index(5, 4)] = object.ForestTree2
	chunk.Placements = []Placement{{ID: 1, Name: object.ForestTree2, Anchor: Index(5, 5), Cells: []int{Index(5, 5), Index(5, 4)}}}
	chunk.Degraded = true
	chunk.Attempts = 3
	chunk.Settled = true
	chunk.SetBuilding(Index(8, 7), object.HouseRoofLeft)
	chunk.SetBuilding(Index(8, 8), object.HouseDoor)
	chunk.Buildings = []Building{{Template: 2, Door: Index(8, 8), Entrance: Index(8, 9), Cells: []int{Index(8, 7), Index(8, 8)}}}

	data := chunk.Encode()
	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, chunk.Coords, decoded.Coords)
	assert.Equal(t, chunk.Tiles, decoded.Tiles)
	assert.Equal(t, chunk.Objects, decoded.Objects)
	assert.Equal(t, chunk.Fixed, decoded.Fixed)
	assert.Equal(t, chunk.Placements, decoded.Placements)
	assert.Equal(t, chunk.Buildings, decoded.Buildings)
	assert.True(t, decoded.Degraded)
	assert.True(t, decoded.Settled)
	assert.Equal(t, data, decoded.Encode())

	_, err = Decode(data[:len(data)-3])
	assert.ErrorIs(t, err, ErrCorruptChunk)
	_, err = Decode([]byte("nope"))
	assert.ErrorIs(t, err, ErrCorruptChunk)
}
