package world

import "fmt"

// TileType форма тайла относительно соседей.
// Направление в названии указывает сторону, где лежит более низкий слой.
type TileType uint8

const (
	Fill TileType = iota
	TopFill
	RightFill
	BottomFill
	LeftFill
	InnerCornerTopLeft
	InnerCornerTopRight
	InnerCornerBottomLeft
	InnerCornerBottomRight
	OuterCornerTopLeft
	OuterCornerTopRight
	OuterCornerBottomLeft
	OuterCornerBottomRight
	TopLeftToBottomRightBridge
	TopRightToBottomLeftBridge
	Single
	Unknown

	TileTypeCount = Unknown
)

var tileTypeNames = [...]string{
	Fill:                       "Fill",
	TopFill:                    "TopFill",
	RightFill:                  "RightFill",
	BottomFill:                 "BottomFill",
	LeftFill:                   "LeftFill",
	InnerCornerTopLeft:         "InnerCornerTopLeft",
	InnerCornerTopRight:        "InnerCornerTopRight",
	InnerCornerBottomLeft:      "InnerCornerBottomLeft",
	InnerCornerBottomRight:     "InnerCornerBottomRight",
	OuterCornerTopLeft:         "OuterCornerTopLeft",
	OuterCornerTopRight:        "OuterCornerTopRight",
	OuterCornerBottomLeft:      "OuterCornerBottomLeft",
	OuterCornerBottomRight:     "OuterCornerBottomRight",
	TopLeftToBottomRightBridge: "TopLeftToBottomRightBridge",
	TopRightToBottomLeftBridge: "TopRightToBottomLeftBridge",
	Single:                     "Single",
	Unknown:                    "Unknown",
}

func (t TileType) String() string {
	if int(t) < len(tileTypeNames) {
		return tileTypeNames[t]
	}
	return fmt.Sprintf("TileType(%d)", uint8(t))
}

// ParseTileType разбирает имя формы
func ParseTileType(s string) (TileType, error) {
	for i, name := range tileTypeNames {
		if name == s {
			return TileType(i), nil
		}
	}
	return Unknown, fmt.Errorf("неизвестная форма тайла %q", s)
}

// Neighbours флаги "свой сосед" для 8 направлений.
// Сосед свой, если его слой не ниже слоя тайла.
type Neighbours struct {
	TopLeft, Top, TopRight          bool
	Left, Right                     bool
	BottomLeft, Bottom, BottomRight bool
}

// SameCount количество своих соседей
func (n Neighbours) SameCount() int {
	c := 0
	for _, s := range [8]bool{n.TopLeft, n.Top, n.TopRight, n.Left, n.Right, n.BottomLeft, n.Bottom, n.BottomRight} {
		if s {
			c++
		}
	}
	return c
}

// ClassifyTileType выбирает форму тайла.
//
// Порядок проверок фиксирован:
//  1. вода всегда Fill;
//  2. отличающиеся стороны важнее диагоналей;
//  3. три-четыре стороны или две противоположные дают Single;
//  4. две смежные стороны дают внешний угол, одна сторона даёт край;
//  5. при совпадающих сторонах: одна диагональ даёт внутренний угол,
//     две противоположные дают мост, две с одной стороны дают край,
//     три-четыре дают Single.
func ClassifyTileType(t Terrain, n Neighbours) TileType {
	if t.IsWater() {
		return Fill
	}

	top, right, bottom, left := !n.Top, !n.Right, !n.Bottom, !n.Left
	cardinal := count(top, right, bottom, left)

	switch cardinal {
	case 0:
		return classifyDiagonals(n)
	case 1:
		switch {
		case top:
			return TopFill
		case right:
			return RightFill
		case bottom:
			return BottomFill
		case left:
			return LeftFill
		}
	case 2:
		switch {
		case top && bottom, left && right:
			return Single
		case top && left:
			return OuterCornerTopLeft
		case top && right:
			return OuterCornerTopRight
		case bottom && left:
			return OuterCornerBottomLeft
		case bottom && right:
			return OuterCornerBottomRight
		}
	default:
		return Single
	}

	panic(fmt.Sprintf("world: форма тайла не определена для %s %+v", t, n))
}

func classifyDiagonals(n Neighbours) TileType {
	tl, tr, bl, br := !n.TopLeft, !n.TopRight, !n.BottomLeft, !n.BottomRight

	switch count(tl, tr, bl, br) {
	case 0:
		return Fill
	case 1:
		switch {
		case tl:
			return InnerCornerTopLeft
		case tr:
			return InnerCornerTopRight
		case bl:
			return InnerCornerBottomLeft
		case br:
			return InnerCornerBottomRight
		}
	case 2:
		switch {
		case tl && br:
			return TopLeftToBottomRightBridge
		case tr && bl:
			return TopRightToBottomLeftBridge
		case tl && tr:
			return TopFill
		case bl && br:
			return BottomFill
		case tl && bl:
			return LeftFill
		case tr && br:
			return RightFill
		}
	default:
		return Single
	}

	panic(fmt.Sprintf("world: форма тайла не определена для диагоналей %+v", n))
}

func count(flags ...bool) int {
	c := 0
	for _, f := range flags {
		if f {
			c++
		}
	}
	return c
}
