package settlement

import (
	"github.com/annel0/tileworld/internal/vec"
	"github.com/annel0/tileworld/internal/world/object"
)

// Template шаблон дома. Rows идут сверху вниз: первая строка крыша,
// последняя первый этаж с дверью.
type Template struct {
	Name   string
	Rows   [][]object.Name
	Door   vec.Vec2      // позиция двери от левого верхнего угла
	Facing vec.Direction // куда от двери лежит дорога
}

// Width ширина дома в клетках
func (t *Template) Width() int { return len(t.Rows[0]) }

// Height высота дома в клетках
func (t *Template) Height() int { return len(t.Rows) }

// Origin левый верхний угол дома, если дорога перед дверью в клетке path
func (t *Template) Origin(path vec.Vec2) vec.Vec2 {
	return t.DoorFor(path).Sub(t.Door)
}

// DoorFor клетка двери для дороги в клетке path
func (t *Template) DoorFor(path vec.Vec2) vec.Vec2 {
	return path.Step(t.Facing.Opposite())
}

const (
	roofL, roofM, roofR = object.HouseRoofLeft, object.HouseRoofMiddle, object.HouseRoofRight
	wallL, wallM, wallR = object.HouseWallLeft, object.HouseWallMiddle, object.HouseWallRight
	door                = object.HouseDoor
)

// Templates все шаблоны домов. Порядок входит в формат чанка
// (Building.Template), новые шаблоны добавляются только в конец.
var Templates = []Template{
	{
		Name:   "small-east",
		Rows:   [][]object.Name{{roofL, roofR}, {wallL, door}},
		Door:   vec.Vec2{X: 1, Y: 1},
		Facing: vec.Right,
	},
	{
		Name:   "small-west",
		Rows:   [][]object.Name{{roofL, roofR}, {door, wallR}},
		Door:   vec.Vec2{X: 0, Y: 1},
		Facing: vec.Left,
	},
	{
		Name:   "small-south",
		Rows:   [][]object.Name{{roofL, roofR}, {door, wallR}},
		Door:   vec.Vec2{X: 0, Y: 1},
		Facing: vec.Bottom,
	},
	{
		Name:   "medium-south",
		Rows:   [][]object.Name{{roofL, roofM, roofR}, {wallL, door, wallR}},
		Door:   vec.Vec2{X: 1, Y: 1},
		Facing: vec.Bottom,
	},
	{
		Name:   "medium-east",
		Rows:   [][]object.Name{{roofL, roofM, roofR}, {wallL, wallM, door}},
		Door:   vec.Vec2{X: 2, Y: 1},
		Facing: vec.Right,
	},
	{
		Name:   "medium-west",
		Rows:   [][]object.Name{{roofL, roofM, roofR}, {door, wallM, wallR}},
		Door:   vec.Vec2{X: 0, Y: 1},
		Facing: vec.Left,
	},
	{
		Name:   "large-south",
		Rows:   [][]object.Name{{roofL, roofM, roofR}, {wallL, wallM, wallR}, {wallL, door, wallR}},
		Door:   vec.Vec2{X: 1, Y: 2},
		Facing: vec.Bottom,
	},
}
