package world

import (
	"fmt"

	"github.com/annel0/tileworld/internal/util"
)

// Terrain определяет слой ландшафта тайла.
// Слои упорядочены: более высокий слой "накрывает" более низкий,
// поэтому сосед с более высоким слоем считается своим при выборе формы тайла.
//
// 0 – DeepWater: глубокая вода;
// 1 – ShallowWater: мелководье;
// 2 – Land1: песок;
// 3 – Land2: трава;
// 4 – Land3: лес.
type Terrain uint8

const (
	DeepWater Terrain = iota
	ShallowWater
	Land1
	Land2
	Land3

	TerrainCount // всегда последний: количество слоёв

	// Any используется только в наборах правил
	Any Terrain = 255
)

// Пороги высоты для слоёв
const (
	ShallowWaterStart = 0.30
	Land1Start        = 0.45
	Land2Start        = 0.60
	Land3Start        = 0.75
)

var terrainNames = map[Terrain]string{
	DeepWater:    "DeepWater",
	ShallowWater: "ShallowWater",
	Land1:        "Land1",
	Land2:        "Land2",
	Land3:        "Land3",
	Any:          "Any",
}

func (t Terrain) String() string {
	if s, ok := terrainNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Terrain(%d)", uint8(t))
}

// ParseTerrain разбирает имя слоя
func ParseTerrain(s string) (Terrain, error) {
	for t, name := range terrainNames {
		if name == s {
			return t, nil
		}
	}
	return DeepWater, fmt.Errorf("неизвестный ландшафт %q", s)
}

// IsWater слой является водой
func (t Terrain) IsWater() bool {
	return t == DeepWater || t == ShallowWater
}

// Climate климат тайла по влажности
type Climate uint8

const (
	Dry Climate = iota
	Moderate
	Humid
)

func (c Climate) String() string {
	switch c {
	case Dry:
		return "Dry"
	case Moderate:
		return "Moderate"
	default:
		return "Humid"
	}
}

// Biome полоса биома: климат и максимальный слой суши
type Biome struct {
	Climate  Climate
	MaxLayer Terrain
}

// BiomeFor выбирает биом по влажности
func BiomeFor(moisture float64) Biome {
	var b Biome
	switch {
	case moisture < 0.33:
		b.Climate = Dry
	case moisture < 0.65:
		b.Climate = Moderate
	default:
		b.Climate = Humid
	}

	switch {
	case moisture > 0.75:
		b.MaxLayer = Land3
	case moisture > 0.5:
		b.MaxLayer = Land2
	case moisture > 0.25:
		b.MaxLayer = Land1
	default:
		// самые сухие полосы затоплены: суши нет совсем
		b.MaxLayer = ShallowWater
	}
	return b
}

// ClassifyTerrain определяет слой и климат по значениям шума.
// Чистая функция: её же использует планировщик дорог для ещё не построенных чанков.
func ClassifyTerrain(s util.MetadataSample) (Terrain, Climate) {
	biome := BiomeFor(s.Moisture)

	var t Terrain
	switch {
	case s.Elevation > Land3Start:
		t = Land3
	case s.Elevation > Land2Start:
		t = Land2
	case s.Elevation > Land1Start:
		t = Land1
	case s.Elevation > ShallowWaterStart:
		t = ShallowWater
	default:
		t = DeepWater
	}

	if t > biome.MaxLayer {
		t = biome.MaxLayer
	}
	return t, biome.Climate
}
