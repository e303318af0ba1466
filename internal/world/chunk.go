package world

import (
	"github.com/annel0/tileworld/internal/vec"
	"github.com/annel0/tileworld/internal/world/object"
)

// TileCount количество тайлов в чанке
const TileCount = ChunkSize * ChunkSize

// Tile тайл чанка. Ландшафт и форма не меняются после фазы ландшафта.
type Tile struct {
	Local     vec.Vec2
	Terrain   Terrain
	TileType  TileType
	Climate   Climate
	Elevation float64
}

// Placement размещённый объект вместе со всеми занятыми клетками
type Placement struct {
	ID     int
	Name   object.Name
	Anchor int   // индекс клетки-якоря
	Cells  []int // все клетки, якорь первый
}

// Building дом поселения. Клетки дома закреплены до WFC так же, как дороги.
type Building struct {
	Template int   // номер шаблона дома
	Door     int   // индекс клетки двери
	Entrance int   // клетка дороги перед дверью
	Cells    []int // все клетки дома по строкам
}

// Chunk представляет участок мира размером ChunkSize x ChunkSize тайлов.
// Пока чанк строится, им владеет одна задача генерации;
// после публикации чанк не изменяется.
type Chunk struct {
	Coords vec.Vec2 // Координаты чанка в мире

	Tiles   [TileCount]Tile
	Objects [TileCount]object.Name       // занятость клеток объектами
	Paths   [TileCount]object.Connection // соединения дорог, ненулевые только на дорогах
	Fixed   [TileCount]bool              // клетки дорог и домов, которые WFC не трогает

	Placements []Placement

	Settled   bool // чанк отмечен как поселение
	Buildings []Building

	Degraded bool // WFC не сошёлся и остаток заполнен Empty
	Attempts int  // количество попыток WFC
}

// NewChunk создаёт пустой чанк с указанными координатами
func NewChunk(coords vec.Vec2) *Chunk {
	c := &Chunk{Coords: coords}
	for i := range c.Tiles {
		c.Tiles[i].Local = LocalOf(i)
	}
	return c
}

// Index возвращает индекс тайла по локальным координатам
func Index(x, y int) int {
	return y*ChunkSize + x
}

// LocalOf возвращает локальные координаты по индексу
func LocalOf(i int) vec.Vec2 {
	return vec.Vec2{X: i % ChunkSize, Y: i / ChunkSize}
}

// InBounds проверяет, что локальные координаты внутри чанка
func InBounds(p vec.Vec2) bool {
	return p.X >= 0 && p.X < ChunkSize && p.Y >= 0 && p.Y < ChunkSize
}

// TileAt возвращает тайл по локальным координатам
func (c *Chunk) TileAt(local vec.Vec2) Tile {
	return c.Tiles[Index(local.X, local.Y)]
}

// ObjectAt возвращает объект по локальным координатам
func (c *Chunk) ObjectAt(local vec.Vec2) object.Name {
	return c.Objects[Index(local.X, local.Y)]
}

// WorldPos переводит локальные координаты в мировые
func (c *Chunk) WorldPos(local vec.Vec2) vec.Vec2 {
	return c.Coords.ChunkOrigin().Add(local)
}

// SetPath фиксирует дорогу в клетке. Используется только до фазы WFC.
func (c *Chunk) SetPath(local vec.Vec2, conn object.Connection) {
	i := Index(local.X, local.Y)
	c.Paths[i] |= conn
	c.Objects[i] = object.PathFor(c.Paths[i])
	c.Fixed[i] = true
}

// SetBuilding закрепляет клетку дома. Используется только до фазы WFC.
func (c *Chunk) SetBuilding(i int, n object.Name) {
	c.Objects[i] = n
	c.Fixed[i] = true
}

// CountObjects считает клетки с объектами (без Empty)
func (c *Chunk) CountObjects() int {
	n := 0
	for _, o := range c.Objects {
		if o != object.Empty {
			n++
		}
	}
	return n
}

// CountPaths считает клетки дорог
func (c *Chunk) CountPaths() int {
	n := 0
	for _, conn := range c.Paths {
		if conn != 0 {
			n++
		}
	}
	return n
}
