package world

import (
	"github.com/annel0/tileworld/internal/util"
	"github.com/annel0/tileworld/internal/vec"
)

// ChunkSize размер стороны чанка в тайлах
const ChunkSize = vec.ChunkSize

// BufferSize ширина дополнительного кольца вокруг чанка.
// Нужна, чтобы форма тайлов на краю чанка учитывала соседний чанк.
const BufferSize = 1

const metaSide = ChunkSize + 2*BufferSize

// MetadataLayer значения шума и производные классы для всех тайлов чанка
// вместе с буферным кольцом. После построения не изменяется.
type MetadataLayer struct {
	Coords  vec.Vec2
	samples [metaSide * metaSide]util.MetadataSample
	terrain [metaSide * metaSide]Terrain
	climate [metaSide * metaSide]Climate
}

// BuildMetadata строит слой метаданных чанка.
// Каждая точка считается по мировым координатам.
func BuildMetadata(field *util.NoiseField, coords vec.Vec2) *MetadataLayer {
	m := &MetadataLayer{Coords: coords}
	origin := coords.ChunkOrigin()

	for y := -BufferSize; y < ChunkSize+BufferSize; y++ {
		for x := -BufferSize; x < ChunkSize+BufferSize; x++ {
			s := field.Sample(origin.X+x, origin.Y+y)
			i := metaIndex(x, y)
			m.samples[i] = s
			m.terrain[i], m.climate[i] = ClassifyTerrain(s)
		}
	}
	return m
}

func metaIndex(lx, ly int) int {
	return (ly+BufferSize)*metaSide + lx + BufferSize
}

func inMeta(lx, ly int) bool {
	return lx >= -BufferSize && lx < ChunkSize+BufferSize && ly >= -BufferSize && ly < ChunkSize+BufferSize
}

// At возвращает значения шума; допустимы координаты от -BufferSize до ChunkSize+BufferSize-1
func (m *MetadataLayer) At(lx, ly int) util.MetadataSample {
	if !inMeta(lx, ly) {
		panic("world: координаты вне слоя метаданных")
	}
	return m.samples[metaIndex(lx, ly)]
}

// TerrainAt возвращает слой ландшафта
func (m *MetadataLayer) TerrainAt(lx, ly int) Terrain {
	if !inMeta(lx, ly) {
		panic("world: координаты вне слоя метаданных")
	}
	return m.terrain[metaIndex(lx, ly)]
}

// ClimateAt возвращает климат
func (m *MetadataLayer) ClimateAt(lx, ly int) Climate {
	return m.climate[metaIndex(lx, ly)]
}

// TerrainSampler лёгкая выборка ландшафта без построения чанка.
// Используется для оценки стоимости клеток в ещё не построенных чанках.
type TerrainSampler struct {
	field *util.NoiseField
}

// NewTerrainSampler создаёт выборку поверх поля шума
func NewTerrainSampler(field *util.NoiseField) *TerrainSampler {
	return &TerrainSampler{field: field}
}

// Sample возвращает слой и значения шума для мировой точки
func (s *TerrainSampler) Sample(p vec.Vec2) (Terrain, util.MetadataSample) {
	sample := s.field.Sample(p.X, p.Y)
	t, _ := ClassifyTerrain(sample)
	return t, sample
}
