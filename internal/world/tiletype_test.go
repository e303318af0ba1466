package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// allSame соседи одного слоя со всех сторон
func allSame() Neighbours {
	return Neighbours{true, true, true, true, true, true, true, true}
}

func TestClassifyTileType_Basic(t *testing.T) {
	assert.Equal(t, Fill, ClassifyTileType(Land2, allSame()))

	// Вода всегда Fill, даже в одиночестве
	assert.Equal(t, Fill, ClassifyTileType(ShallowWater, Neighbours{}))
	assert.Equal(t, Single, ClassifyTileType(Land1, Neighbours{}))
}

func TestClassifyTileType_EdgesAndCorners(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(n *Neighbours)
		want   TileType
	}{
		{"верхний край", func(n *Neighbours) { n.Top = false; n.TopLeft = false; n.TopRight = false }, TopFill},
		{"правый край", func(n *Neighbours) { n.Right = false }, RightFill},
		{"нижний край", func(n *Neighbours) { n.Bottom = false; n.BottomRight = false }, BottomFill},
		{"левый край", func(n *Neighbours) { n.Left = false; n.BottomLeft = false }, LeftFill},
		{"внешний угол", func(n *Neighbours) { n.Top = false; n.Left = false; n.TopLeft = false }, OuterCornerTopLeft},
		{"внешний угол снизу справа", func(n *Neighbours) { n.Bottom = false; n.Right = false }, OuterCornerBottomRight},
		{"внутренний угол", func(n *Neighbours) { n.TopRight = false }, InnerCornerTopRight},
		{"внутренний угол снизу слева", func(n *Neighbours) { n.BottomLeft = false }, InnerCornerBottomLeft},
		{"мост", func(n *Neighbours) { n.TopLeft = false; n.BottomRight = false }, TopLeftToBottomRightBridge},
		{"обратный мост", func(n *Neighbours) { n.TopRight = false; n.BottomLeft = false }, TopRightToBottomLeftBridge},
		{"две верхние диагонали", func(n *Neighbours) { n.TopLeft = false; n.TopRight = false }, TopFill},
		{"узкая полоса", func(n *Neighbours) { n.Left = false; n.Right = false }, Single},
		{"три стороны", func(n *Neighbours) { n.Left = false; n.Right = false; n.Top = false }, Single},
		{"три диагонали", func(n *Neighbours) { n.TopLeft = false; n.TopRight = false; n.BottomLeft = false }, Single},
	}

	for _, c := range cases {
		n := allSame()
		c.mutate(&n)
		assert.Equal(t, c.want, ClassifyTileType(Land1, n), c.name)
	}
}

func TestClassifyTileType_Total(t *testing.T) {
	// Все 256 конфигураций должны давать определённую форму
	for mask := 0; mask < 256; mask++ {
		bit := func(i int) bool { return mask&(1<<i) != 0 }
		n := Neighbours{
			TopLeft: bit(0), Top: bit(1), TopRight: bit(2),
			Left: bit(3), Right: bit(4),
			BottomLeft: bit(5), Bottom: bit(6), BottomRight: bit(7),
		}
		assert.NotPanics(t, func() {
			tt := ClassifyTileType(Land3, n)
			assert.NotEqual(t, Unknown, tt)
			assert.Less(t, tt, TileTypeCount)
			if n.SameCount() == 8 {
				assert.Equal(t, Fill, tt)
			}
		}, "маска %08b", mask)
	}
}

func TestTileType_Parse(t *testing.T) {
	for tt := Fill; tt <= Unknown; tt++ {
		parsed, err := ParseTileType(tt.String())
		assert.NoError(t, err)
		assert.Equal(t, tt, parsed)
	}
	_, err := ParseTileType("Corner")
	assert.Error(t, err)
}
