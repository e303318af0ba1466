package world

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/annel0/tileworld/internal/vec"
	"github.com/annel0/tileworld/internal/world/object"
)

var chunkMagic = [4]byte{'T', 'W', 'C', '2'}

// ErrCorruptChunk повреждённые данные чанка
var ErrCorruptChunk = errors.New("повреждённые данные чанка")

// Encode сериализует чанк в компактный двоичный вид.
// Формат детерминирован: одинаковые чанки дают одинаковые байты.
//
//	magic[4] x:i32 y:i32 degraded:u8 attempts:u16 settled:u8
//	tiles: terrain:u8 type:u8 climate:u8 elevation:f64 object:u8 path:u8 fixed:u8
//	placements: n:u16 { id:u32 name:u8 anchor:u16 cells:u8 {cell:u16} }
//	buildings: n:u16 { template:u8 door:u16 entrance:u16 cells:u8 {cell:u16} }
func (c *Chunk) Encode() []byte {
	var buf bytes.Buffer
	buf.Grow(16 + TileCount*14)

	buf.Write(chunkMagic[:])
	writeU32(&buf, uint32(int32(c.Coords.X)))
	writeU32(&buf, uint32(int32(c.Coords.Y)))
	buf.WriteByte(boolByte(c.Degraded))
	writeU16(&buf, uint16(c.Attempts))
	buf.WriteByte(boolByte(c.Settled))

	for i := range c.Tiles {
		t := &c.Tiles[i]
		buf.WriteByte(byte(t.Terrain))
		buf.WriteByte(byte(t.TileType))
		buf.WriteByte(byte(t.Climate))
		var f [8]byte
		binary.BigEndian.PutUint64(f[:], math.Float64bits(t.Elevation))
		buf.Write(f[:])
		buf.WriteByte(byte(c.Objects[i]))
		buf.WriteByte(byte(c.Paths[i]))
		buf.WriteByte(boolByte(c.Fixed[i]))
	}

	writeU16(&buf, uint16(len(c.Placements)))
	for _, p := range c.Placements {
		writeU32(&buf, uint32(p.ID))
		buf.WriteByte(byte(p.Name))
		writeU16(&buf, uint16(p.Anchor))
		writeCells(&buf, p.Cells)
	}

	writeU16(&buf, uint16(len(c.Buildings)))
	for _, b := range c.Buildings {
		buf.WriteByte(byte(b.Template))
		writeU16(&buf, uint16(b.Door))
		writeU16(&buf, uint16(b.Entrance))
		writeCells(&buf, b.Cells)
	}
	return buf.Bytes()
}

// Decode восстанавливает чанк из Encode
func Decode(data []byte) (*Chunk, error) {
	r := &reader{data: data}

	var magic [4]byte
	copy(magic[:], r.next(4))
	if r.err != nil || magic != chunkMagic {
		return nil, fmt.Errorf("%w: неверная сигнатура", ErrCorruptChunk)
	}

	x := int32(r.u32())
	y := int32(r.u32())
	c := NewChunk(vec.Vec2{X: int(x), Y: int(y)})
	c.Degraded = r.u8() != 0
	c.Attempts = int(r.u16())
	c.Settled = r.u8() != 0

	for i := range c.Tiles {
		t := &c.Tiles[i]
		t.Terrain = Terrain(r.u8())
		t.TileType = TileType(r.u8())
		t.Climate = Climate(r.u8())
		t.Elevation = math.Float64frombits(binary.BigEndian.Uint64(r.next(8)))
		c.Objects[i] = object.Name(r.u8())
		c.Paths[i] = object.Connection(r.u8())
		c.Fixed[i] = r.u8() != 0
	}

	n := int(r.u16())
	for k := 0; k < n && r.err == nil; k++ {
		p := Placement{
			ID:     int(r.u32()),
			Name:   object.Name(r.u8()),
			Anchor: int(r.u16()),
		}
		p.Cells = r.cells()
		c.Placements = append(c.Placements, p)
	}

	n = int(r.u16())
	for k := 0; k < n && r.err == nil; k++ {
		b := Building{
			Template: int(r.u8()),
			Door:     int(r.u16()),
			Entrance: int(r.u16()),
		}
		b.Cells = r.cells()
		c.Buildings = append(c.Buildings, b)
	}

	if r.err != nil {
		return nil, r.err
	}
	if r.off != len(data) {
		return nil, fmt.Errorf("%w: лишние %d байт", ErrCorruptChunk, len(data)-r.off)
	}
	return c, nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func writeCells(buf *bytes.Buffer, cells []int) {
	buf.WriteByte(byte(len(cells)))
	for _, cell := range cells {
		writeU16(buf, uint16(cell))
	}
}

func writeU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

type reader struct {
	data []byte
	off  int
	err  error
}

// next возвращает следующие n байт; после ошибки возвращает нули
func (r *reader) next(n int) []byte {
	if r.err != nil || r.off+n > len(r.data) {
		if r.err == nil {
			r.err = fmt.Errorf("%w: неожиданный конец данных", ErrCorruptChunk)
		}
		return make([]byte, n)
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) u8() uint8   { return r.next(1)[0] }
func (r *reader) u16() uint16 { return binary.BigEndian.Uint16(r.next(2)) }
func (r *reader) u32() uint32 { return binary.BigEndian.Uint32(r.next(4)) }

func (r *reader) cells() []int {
	n := int(r.u8())
	var out []int
	for j := 0; j < n && r.err == nil; j++ {
		out = append(out, int(r.u16()))
	}
	return out
}
