package vec

import "fmt"

// Direction одно из четырёх основных направлений.
// Ось Y направлена вниз: Top соответствует Y-1.
type Direction uint8

const (
	Top Direction = iota
	Right
	Bottom
	Left
)

// Directions все направления в фиксированном порядке обхода
var Directions = [4]Direction{Top, Right, Bottom, Left}

// Offset возвращает смещение на одну клетку
func (d Direction) Offset() Vec2 {
	switch d {
	case Top:
		return Vec2{X: 0, Y: -1}
	case Right:
		return Vec2{X: 1, Y: 0}
	case Bottom:
		return Vec2{X: 0, Y: 1}
	case Left:
		return Vec2{X: -1, Y: 0}
	}
	panic(fmt.Sprintf("vec: неизвестное направление %d", d))
}

// Opposite возвращает противоположное направление
func (d Direction) Opposite() Direction {
	return (d + 2) % 4
}

func (d Direction) String() string {
	switch d {
	case Top:
		return "Top"
	case Right:
		return "Right"
	case Bottom:
		return "Bottom"
	case Left:
		return "Left"
	default:
		return "Unknown"
	}
}

// ParseDirection разбирает имя направления из файлов правил
func ParseDirection(s string) (Direction, error) {
	for _, d := range Directions {
		if d.String() == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("неизвестное направление %q", s)
}

// DirectionTo возвращает направление от a к соседней клетке b
func DirectionTo(a, b Vec2) (Direction, bool) {
	delta := b.Sub(a)
	for _, d := range Directions {
		if d.Offset() == delta {
			return d, true
		}
	}
	return 0, false
}
