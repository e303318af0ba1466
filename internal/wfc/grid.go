package wfc

import (
	"github.com/annel0/tileworld/internal/vec"
	"github.com/annel0/tileworld/internal/world"
	"github.com/annel0/tileworld/internal/world/object"
)

// Cell входные данные одной клетки решателя
type Cell struct {
	Terrain  world.Terrain
	TileType world.TileType
	Fixed    bool
	Value    object.Name // значение закреплённой клетки (дорога)
}

// Grid прямоугольная сетка клеток. Для чанка это ChunkSize x ChunkSize,
// тесты могут собирать сетки меньшего размера.
type Grid struct {
	Coords        vec.Vec2
	Width, Height int
	Cells         []Cell
}

// NewGrid создаёт сетку с клетками по умолчанию (Land1, Fill)
func NewGrid(coords vec.Vec2, w, h int) Grid {
	cells := make([]Cell, w*h)
	for i := range cells {
		cells[i] = Cell{Terrain: world.Land1, TileType: world.Fill}
	}
	return Grid{Coords: coords, Width: w, Height: h, Cells: cells}
}

// GridFromChunk переносит ландшафт, формы и дороги чанка в сетку
func GridFromChunk(c *world.Chunk) Grid {
	g := Grid{Coords: c.Coords, Width: world.ChunkSize, Height: world.ChunkSize, Cells: make([]Cell, world.TileCount)}
	for i := range g.Cells {
		g.Cells[i] = Cell{
			Terrain:  c.Tiles[i].Terrain,
			TileType: c.Tiles[i].TileType,
			Fixed:    c.Fixed[i],
			Value:    c.Objects[i],
		}
	}
	return g
}

// Index индекс клетки по координатам
func (g Grid) Index(x, y int) int {
	return y*g.Width + x
}

// Pos координаты клетки по индексу
func (g Grid) Pos(i int) vec.Vec2 {
	return vec.Vec2{X: i % g.Width, Y: i / g.Width}
}

// neighbour индекс соседа в направлении d или -1 за границей сетки
func (g Grid) neighbour(i int, d vec.Direction) int {
	return g.at(g.Pos(i).Step(d))
}

func (g Grid) at(p vec.Vec2) int {
	if p.X < 0 || p.Y < 0 || p.X >= g.Width || p.Y >= g.Height {
		return -1
	}
	return g.Index(p.X, p.Y)
}

// Result итог решения: значение каждой клетки и размещения объектов
type Result struct {
	Objects    []object.Name
	Placements []world.Placement
	Degraded   bool // остаток заполнен Empty после исчерпания попыток
	Attempts   int
	Collapses  int
	Discards   int // отброшенные выборы многоклеточных объектов
}

// Apply записывает результат в чанк. Закреплённые клетки не меняются.
func (r Result) Apply(c *world.Chunk) {
	for i, n := range r.Objects {
		if i >= world.TileCount || c.Fixed[i] {
			continue
		}
		c.Objects[i] = n
	}
	c.Placements = append(c.Placements[:0], r.Placements...)
	c.Degraded = r.Degraded
	c.Attempts = r.Attempts
}
