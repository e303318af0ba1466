package object

import (
	"fmt"

	"github.com/annel0/tileworld/internal/vec"
)

// Name идентификатор объекта из каталога
type Name uint8

// Константы каталога. Порядок определяет номер бита в домене WFC,
// поэтому новые объекты добавляются только в конец.
const (
	Empty Name = iota // Нет объекта, совместим с любым краем

	// Песок (Land1)
	SandStone1
	SandStone2
	SandStone3
	SandStone4
	SandStone5
	SandStone6
	SandGrassPatch1
	SandGrassPatch2
	SandPattern1
	SandPattern2
	SandPattern3
	SandPattern4
	SandPattern5

	// Трава (Land2)
	GrassRubble1
	GrassRubble2
	GrassRubble3
	GrassBush1
	GrassBush2
	GrassBush3
	GrassBush4
	GrassFlower1
	GrassFlower2
	GrassFlower3
	GrassRuin1
	GrassRuin2

	// Лес (Land3)
	ForestBush1
	ForestBush2
	ForestBush3
	ForestBush4
	Land3Grass1
	Land3Grass2
	ForestTree1
	ForestTree2
	ForestTree3
	ForestTree4
	ForestTree5
	ForestRuin1
	ForestRuin2
	ForestRuin3

	// Дороги
	PathRight
	PathHorizontal
	PathCross
	PathVertical
	PathBottom
	PathTop
	PathLeft
	PathTopRight
	PathTopLeft
	PathBottomRight
	PathBottomLeft
	PathTopHorizontal
	PathBottomHorizontal
	PathLeftVertical
	PathRightVertical
	PathUndefined

	// Дома поселений: крыша над первым этажом, дверь на первом этаже
	HouseRoofLeft
	HouseRoofMiddle
	HouseRoofRight
	HouseWallLeft
	HouseWallMiddle
	HouseWallRight
	HouseDoor

	Count // всегда последний: размер каталога
)

// MaxNames предел каталога: домен WFC хранится в одном uint64
const MaxNames = 64

// Category категория объекта
type Category uint8

const (
	CategoryNone Category = iota
	CategoryDecorative
	CategoryBuilding
	CategoryPath
)

func (c Category) String() string {
	switch c {
	case CategoryDecorative:
		return "decorative"
	case CategoryBuilding:
		return "building"
	case CategoryPath:
		return "path"
	default:
		return "none"
	}
}

// Footprint размер объекта в клетках. Якорь находится в нижней левой
// клетке, остальные клетки лежат правее и выше.
type Footprint struct {
	W, H int
}

// Cells возвращает смещения клеток относительно якоря (якорь первый)
func (f Footprint) Cells() []vec.Vec2 {
	cells := make([]vec.Vec2, 0, f.W*f.H)
	for dy := 0; dy < f.H; dy++ {
		for dx := 0; dx < f.W; dx++ {
			cells = append(cells, vec.Vec2{X: dx, Y: -dy})
		}
	}
	return cells
}

// IsLarge объект занимает больше одной клетки
func (f Footprint) IsLarge() bool {
	return f.W*f.H > 1
}

func init() {
	if Count > MaxNames {
		panic(fmt.Sprintf("object: каталог из %d имён не помещается в домен", Count))
	}
	for n := Name(0); n < Count; n++ {
		if _, ok := registry[n]; !ok {
			panic(fmt.Sprintf("object: имя %d не зарегистрировано", n))
		}
	}
}

// String возвращает каноническое имя из файлов правил
func (n Name) String() string {
	if info, ok := registry[n]; ok {
		return info.label
	}
	return fmt.Sprintf("Name(%d)", uint8(n))
}

// Category возвращает категорию объекта
func (n Name) Category() Category {
	return registry[n].category
}

// Footprint возвращает размер объекта
func (n Name) Footprint() Footprint {
	if info, ok := registry[n]; ok && info.footprint.W > 0 {
		return info.footprint
	}
	return Footprint{W: 1, H: 1}
}

// IsPath объект является дорогой
func (n Name) IsPath() bool { return n.Category() == CategoryPath }

// IsBuilding объект является постройкой
func (n Name) IsBuilding() bool { return n.Category() == CategoryBuilding }

// IsHouse часть дома поселения (руины сюда не входят)
func (n Name) IsHouse() bool { return n >= HouseRoofLeft && n <= HouseDoor }

// IsMultiTile объект занимает несколько клеток
func (n Name) IsMultiTile() bool { return n.Footprint().IsLarge() }

// Valid имя входит в каталог
func (n Name) Valid() bool { return n < Count }
