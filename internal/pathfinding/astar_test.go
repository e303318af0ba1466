package pathfinding

import (
	"context"
	"testing"

	"github.com/annel0/tileworld/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gridField синтетическое поле: стоимость входа 1, если не задано иное
type gridField struct {
	blocked func(p vec.Vec2) bool
	cost    map[vec.Vec2]float64
}

func (f gridField) Cost(_, to vec.Vec2) (float64, bool) {
	if f.blocked != nil && f.blocked(to) {
		return 0, false
	}
	if c, ok := f.cost[to]; ok {
		return c, true
	}
	return 1, true
}

func (f gridField) MinStepCost() float64 { return 1 }

func box(w, h int) vec.Rect {
	return vec.Rect{Max: vec.Vec2{X: w, Y: h}}
}

func assertContiguous(t *testing.T, path []vec.Vec2) {
	t.Helper()
	for i := 1; i < len(path); i++ {
		_, ok := vec.DirectionTo(path[i-1], path[i])
		assert.True(t, ok, "клетки %v и %v не соседние", path[i-1], path[i])
	}
}

func TestFindPath_Straight(t *testing.T) {
	path, err := FindPath(context.Background(), gridField{}, vec.Vec2{}, vec.Vec2{X: 5}, box(10, 10), 0)
	require.NoError(t, err)
	assert.Len(t, path, 6)
	assert.Equal(t, 5.0, PathCost(gridField{}, path))
}

func TestFindPath_WallWithGap(t *testing.T) {
	field := gridField{blocked: func(p vec.Vec2) bool { return p.X == 3 && p.Y != 4 }}

	path, err := FindPath(context.Background(), field, vec.Vec2{}, vec.Vec2{X: 6}, box(10, 10), 0)
	require.NoError(t, err)
	assertContiguous(t, path)
	assert.Contains(t, path, vec.Vec2{X: 3, Y: 4}, "единственный проход")
	assert.Equal(t, 14.0, PathCost(field, path), "6 шагов по X и 8 по Y")
}

func TestFindPath_AvoidsExpensiveTiles(t *testing.T) {
	field := gridField{cost: map[vec.Vec2]float64{}}
	for y := 0; y < 3; y++ {
		field.cost[vec.Vec2{X: 2, Y: y}] = 10
	}

	path, err := FindPath(context.Background(), field, vec.Vec2{X: 0, Y: 1}, vec.Vec2{X: 4, Y: 1}, box(5, 5), 0)
	require.NoError(t, err)
	// Обход через y=3: 4 шага вправо и 4 по вертикали дешевле болота
	assert.Equal(t, 8.0, PathCost(field, path))
	for _, p := range path {
		assert.NotEqual(t, 10.0, field.cost[p], "путь зашёл в болото в %v", p)
	}
}

func TestFindPath_Unreachable(t *testing.T) {
	wall := gridField{blocked: func(p vec.Vec2) bool { return p.X == 3 }}
	_, err := FindPath(context.Background(), wall, vec.Vec2{}, vec.Vec2{X: 6}, box(10, 10), 0)
	assert.ErrorIs(t, err, ErrNoPathFound)

	// Цель вне области поиска
	_, err = FindPath(context.Background(), gridField{}, vec.Vec2{}, vec.Vec2{X: 20}, box(10, 10), 0)
	assert.ErrorIs(t, err, ErrNoPathFound)

	// Лимит раскрытий
	_, err = FindPath(context.Background(), wall, vec.Vec2{}, vec.Vec2{X: 6}, box(10, 10), 5)
	assert.ErrorIs(t, err, ErrNoPathFound)
	assert.True(t, IsNoPath(err))
}

func TestFindPath_DeterministicTies(t *testing.T) {
	first, err := FindPath(context.Background(), gridField{}, vec.Vec2{}, vec.Vec2{X: 7, Y: 7}, box(8, 8), 0)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := FindPath(context.Background(), gridField{}, vec.Vec2{}, vec.Vec2{X: 7, Y: 7}, box(8, 8), 0)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, 14.0, PathCost(gridField{}, first))
}

func TestFindPath_SameCell(t *testing.T) {
	path, err := FindPath(context.Background(), gridField{}, vec.Vec2{X: 2, Y: 2}, vec.Vec2{X: 2, Y: 2}, box(5, 5), 0)
	require.NoError(t, err)
	assert.Equal(t, []vec.Vec2{{X: 2, Y: 2}}, path)
}
