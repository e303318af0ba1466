package world

import (
	"github.com/annel0/tileworld/internal/util"
	"github.com/annel0/tileworld/internal/vec"
)

// ChunkBuilder строит ландшафт чанка: слой, климат, высоту и форму тайлов
type ChunkBuilder struct {
	field *util.NoiseField
}

// NewChunkBuilder создаёт построитель поверх поля шума
func NewChunkBuilder(field *util.NoiseField) *ChunkBuilder {
	return &ChunkBuilder{field: field}
}

// Field возвращает поле шума
func (b *ChunkBuilder) Field() *util.NoiseField {
	return b.field
}

// BuildMetadata строит слой метаданных для чанка
func (b *ChunkBuilder) BuildMetadata(coords vec.Vec2) *MetadataLayer {
	return BuildMetadata(b.field, coords)
}

// BuildTerrain выполняет фазу ландшафта по готовым метаданным.
// Первый проход задаёт слой и высоту, второй выбирает форму тайла по 8 соседям.
func (b *ChunkBuilder) BuildTerrain(meta *MetadataLayer) *Chunk {
	chunk := NewChunk(meta.Coords)

	for y := 0; y < ChunkSize; y++ {
		for x := 0; x < ChunkSize; x++ {
			tile := &chunk.Tiles[Index(x, y)]
			tile.Terrain = meta.TerrainAt(x, y)
			tile.Climate = meta.ClimateAt(x, y)
			tile.Elevation = meta.At(x, y).Elevation
		}
	}

	for y := 0; y < ChunkSize; y++ {
		for x := 0; x < ChunkSize; x++ {
			tile := &chunk.Tiles[Index(x, y)]
			tile.TileType = ClassifyTileType(tile.Terrain, neighboursOf(meta, x, y))
		}
	}

	return chunk
}

// Build строит ландшафт чанка целиком
func (b *ChunkBuilder) Build(coords vec.Vec2) *Chunk {
	return b.BuildTerrain(b.BuildMetadata(coords))
}

// neighboursOf собирает флаги соседей. Буферное кольцо метаданных
// даёт настоящий ландшафт соседнего чанка на границе.
func neighboursOf(meta *MetadataLayer, x, y int) Neighbours {
	own := meta.TerrainAt(x, y)
	same := func(dx, dy int) bool {
		return meta.TerrainAt(x+dx, y+dy) >= own
	}
	return Neighbours{
		TopLeft:     same(-1, -1),
		Top:         same(0, -1),
		TopRight:    same(1, -1),
		Left:        same(-1, 0),
		Right:       same(1, 0),
		BottomLeft:  same(-1, 1),
		Bottom:      same(0, 1),
		BottomRight: same(1, 1),
	}
}
