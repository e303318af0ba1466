package world

import (
	"strings"

	"github.com/annel0/tileworld/internal/vec"
	"github.com/annel0/tileworld/internal/world/object"
)

var terrainGlyphs = map[Terrain]byte{
	DeepWater:    '~',
	ShallowWater: '-',
	Land1:        '.',
	Land2:        ',',
	Land3:        ';',
}

// Glyph символ клетки для текстовой карты: дороги, затем объекты, затем ландшафт
func (c *Chunk) Glyph(local vec.Vec2) byte {
	i := Index(local.X, local.Y)
	if conn := c.Paths[i]; conn != 0 {
		horizontal := conn.Has(vec.Left) || conn.Has(vec.Right)
		vertical := conn.Has(vec.Top) || conn.Has(vec.Bottom)
		switch {
		case horizontal && vertical:
			return '+'
		case horizontal:
			return '='
		default:
			return '|'
		}
	}

	switch n := c.Objects[i]; {
	case n == object.Empty:
	case n.IsMultiTile():
		return 'T'
	case n == object.HouseDoor:
		return 'D'
	case n.IsHouse():
		return 'H'
	case n.IsBuilding():
		return 'R'
	default:
		return '*'
	}

	if g, ok := terrainGlyphs[c.Tiles[i].Terrain]; ok {
		return g
	}
	return '?'
}

// RenderASCII текстовая карта чанка, строка на ряд, сверху вниз
func (c *Chunk) RenderASCII() string {
	var sb strings.Builder
	sb.Grow(TileCount + ChunkSize)
	for y := 0; y < ChunkSize; y++ {
		for x := 0; x < ChunkSize; x++ {
			sb.WriteByte(c.Glyph(vec.Vec2{X: x, Y: y}))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
