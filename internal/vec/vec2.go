package vec

import "math"

// ChunkSize размер стороны чанка в тайлах
const ChunkSize = 32

const (
	chunkShift = 5             // log2(ChunkSize)
	chunkMask  = ChunkSize - 1 // для локальных координат
)

// Vec2 представляет 2D координаты
type Vec2 struct {
	X, Y int
}

// ToChunkCoords преобразует глобальные координаты в координаты чанка.
// Сдвиг арифметический, поэтому отрицательные координаты округляются вниз.
func (v Vec2) ToChunkCoords() Vec2 {
	return Vec2{X: v.X >> chunkShift, Y: v.Y >> chunkShift}
}

// LocalInChunk возвращает локальные координаты внутри чанка
func (v Vec2) LocalInChunk() Vec2 {
	return Vec2{X: v.X & chunkMask, Y: v.Y & chunkMask}
}

// ChunkOrigin возвращает мировую координату тайла (0,0) чанка v
func (v Vec2) ChunkOrigin() Vec2 {
	return Vec2{X: v.X << chunkShift, Y: v.Y << chunkShift}
}

// Add складывает два вектора
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub вычитает вектор
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

// Step возвращает соседнюю клетку в направлении d
func (v Vec2) Step(d Direction) Vec2 {
	return v.Add(d.Offset())
}

// Neighbours4 возвращает 4 соседние клетки в порядке Top, Right, Bottom, Left
func (v Vec2) Neighbours4() [4]Vec2 {
	return [4]Vec2{v.Step(Top), v.Step(Right), v.Step(Bottom), v.Step(Left)}
}

// DistanceTo вычисляет расстояние до другой точки
func (v Vec2) DistanceTo(other Vec2) float64 {
	dx := float64(v.X - other.X)
	dy := float64(v.Y - other.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// ManhattanTo вычисляет манхэттенское расстояние
func (v Vec2) ManhattanTo(other Vec2) int {
	return abs(v.X-other.X) + abs(v.Y-other.Y)
}

func abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}

// Rect прямоугольник в мировых координатах, Max не включается
type Rect struct {
	Min, Max Vec2
}

// ChunkRect возвращает прямоугольник тайлов чанка c
func ChunkRect(c Vec2) Rect {
	o := c.ChunkOrigin()
	return Rect{Min: o, Max: Vec2{X: o.X + ChunkSize, Y: o.Y + ChunkSize}}
}

// Contains проверяет, лежит ли точка внутри прямоугольника
func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.Min.X && p.X < r.Max.X && p.Y >= r.Min.Y && p.Y < r.Max.Y
}

// Union возвращает минимальный прямоугольник, содержащий оба
func (r Rect) Union(o Rect) Rect {
	return Rect{
		Min: Vec2{X: min(r.Min.X, o.Min.X), Y: min(r.Min.Y, o.Min.Y)},
		Max: Vec2{X: max(r.Max.X, o.Max.X), Y: max(r.Max.Y, o.Max.Y)},
	}
}

// Expand расширяет прямоугольник на n клеток со всех сторон
func (r Rect) Expand(n int) Rect {
	return Rect{
		Min: Vec2{X: r.Min.X - n, Y: r.Min.Y - n},
		Max: Vec2{X: r.Max.X + n, Y: r.Max.Y + n},
	}
}

// Intersects проверяет пересечение прямоугольников
func (r Rect) Intersects(o Rect) bool {
	return r.Min.X < o.Max.X && o.Min.X < r.Max.X && r.Min.Y < o.Max.Y && o.Min.Y < r.Max.Y
}
