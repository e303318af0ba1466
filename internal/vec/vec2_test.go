package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec2_ChunkCoords(t *testing.T) {
	cases := []struct {
		world, chunk, local Vec2
	}{
		{Vec2{0, 0}, Vec2{0, 0}, Vec2{0, 0}},
		{Vec2{31, 31}, Vec2{0, 0}, Vec2{31, 31}},
		{Vec2{32, 5}, Vec2{1, 0}, Vec2{0, 5}},
		{Vec2{-1, -1}, Vec2{-1, -1}, Vec2{31, 31}},
		{Vec2{-32, -33}, Vec2{-1, -2}, Vec2{0, 31}},
	}
	for _, c := range cases {
		assert.Equal(t, c.chunk, c.world.ToChunkCoords(), "чанк для %v", c.world)
		assert.Equal(t, c.local, c.world.LocalInChunk(), "локальная позиция для %v", c.world)
		assert.Equal(t, c.world, c.chunk.ChunkOrigin().Add(c.local), "обратное преобразование для %v", c.world)
	}
}

func TestDirection_OppositeAndOffset(t *testing.T) {
	for _, d := range Directions {
		assert.Equal(t, d, d.Opposite().Opposite())
		back := Vec2{}.Step(d).Step(d.Opposite())
		assert.Equal(t, Vec2{}, back, "шаг туда и обратно для %s", d)

		parsed, err := ParseDirection(d.String())
		assert.NoError(t, err)
		assert.Equal(t, d, parsed)
	}

	_, err := ParseDirection("Up")
	assert.Error(t, err, "неизвестное направление должно давать ошибку")

	d, ok := DirectionTo(Vec2{1, 1}, Vec2{1, 0})
	assert.True(t, ok)
	assert.Equal(t, Top, d)

	_, ok = DirectionTo(Vec2{1, 1}, Vec2{2, 2})
	assert.False(t, ok, "диагональ не является направлением")
}

func TestRect(t *testing.T) {
	r := ChunkRect(Vec2{1, -1})
	assert.True(t, r.Contains(Vec2{32, -32}))
	assert.True(t, r.Contains(Vec2{63, -1}))
	assert.False(t, r.Contains(Vec2{64, -1}))
	assert.False(t, r.Contains(Vec2{40, 0}))

	u := r.Union(ChunkRect(Vec2{2, -1}))
	assert.Equal(t, Rect{Min: Vec2{32, -32}, Max: Vec2{96, 0}}, u)
	assert.True(t, u.Expand(1).Intersects(ChunkRect(Vec2{1, 0})))
	assert.False(t, u.Intersects(ChunkRect(Vec2{1, 0})))
	assert.Equal(t, 3, Vec2{0, 0}.ManhattanTo(Vec2{-2, 1}))
}
