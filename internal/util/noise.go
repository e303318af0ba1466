package util

import (
	"github.com/aquilax/go-perlin"
)

// NoiseParams параметры фрактального шума
type NoiseParams struct {
	Alpha          float64 // Сглаживание шума (вес следующей октавы 1/alpha)
	Beta           float64 // Множитель частоты между октавами
	Octaves        int32   // Количество октав
	ElevationScale float64 // Масштаб шума высоты
	MoistureScale  float64 // Масштаб шума влажности/биомов
}

// DefaultNoiseParams параметры по умолчанию
func DefaultNoiseParams() NoiseParams {
	return NoiseParams{
		Alpha:          2.0,
		Beta:           2.0,
		Octaves:        3,
		ElevationScale: 0.05,
		MoistureScale:  0.02,
	}
}

// MetadataSample непрерывные значения поля в мировой точке, оба в диапазоне [0,1]
type MetadataSample struct {
	Elevation float64
	Moisture  float64
}

// NoiseField детерминированное поле шума для одного сида мира.
// Генераторы Перлина только читаются после создания, поэтому поле
// безопасно использовать из нескольких горутин.
type NoiseField struct {
	seed      int64
	params    NoiseParams
	elevation *perlin.Perlin
	moisture  *perlin.Perlin
}

// NewNoiseField создаёт поле шума для указанного сида
func NewNoiseField(seed int64, params NoiseParams) *NoiseField {
	return &NoiseField{
		seed:      seed,
		params:    params,
		elevation: perlin.NewPerlin(params.Alpha, params.Beta, params.Octaves, seed),
		moisture:  perlin.NewPerlin(params.Alpha, params.Beta, params.Octaves, seed+1),
	}
}

// Seed возвращает сид мира
func (f *NoiseField) Seed() int64 { return f.seed }

// Sample возвращает значения поля для мировых координат тайла.
// Используются только мировые координаты, поэтому соседние чанки
// получают одинаковые значения на общей границе.
func (f *NoiseField) Sample(x, y int) MetadataSample {
	ex := float64(x) * f.params.ElevationScale
	ey := float64(y) * f.params.ElevationScale
	mx := float64(x) * f.params.MoistureScale
	my := float64(y) * f.params.MoistureScale

	return MetadataSample{
		Elevation: normalize(f.elevation.Noise2D(ex, ey)),
		Moisture:  normalize(f.moisture.Noise2D(mx, my)),
	}
}

// normalize переводит значение шума из [-1,1] в [0,1]
func normalize(n float64) float64 {
	v := (n + 1.0) / 2.0
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
