package object

import (
	"fmt"
	"sort"

	"github.com/annel0/tileworld/internal/vec"
)

type info struct {
	label     string
	category  Category
	footprint Footprint
}

var tree = Footprint{W: 1, H: 2}

var registry = map[Name]info{
	Empty: {label: "Empty", category: CategoryNone},

	SandStone1:      {label: "SandStone1", category: CategoryDecorative},
	SandStone2:      {label: "SandStone2", category: CategoryDecorative},
	SandStone3:      {label: "SandStone3", category: CategoryDecorative},
	SandStone4:      {label: "SandStone4", category: CategoryDecorative},
	SandStone5:      {label: "SandStone5", category: CategoryDecorative},
	SandStone6:      {label: "SandStone6", category: CategoryDecorative},
	SandGrassPatch1: {label: "SandGrassPatch1", category: CategoryDecorative},
	SandGrassPatch2: {label: "SandGrassPatch2", category: CategoryDecorative},
	SandPattern1:    {label: "SandPattern1", category: CategoryDecorative},
	SandPattern2:    {label: "SandPattern2", category: CategoryDecorative},
	SandPattern3:    {label: "SandPattern3", category: CategoryDecorative},
	SandPattern4:    {label: "SandPattern4", category: CategoryDecorative},
	SandPattern5:    {label: "SandPattern5", category: CategoryDecorative},

	GrassRubble1: {label: "GrassRubble1", category: CategoryDecorative},
	GrassRubble2: {label: "GrassRubble2", category: CategoryDecorative},
	GrassRubble3: {label: "GrassRubble3", category: CategoryDecorative},
	GrassBush1:   {label: "GrassBush1", category: CategoryDecorative},
	GrassBush2:   {label: "GrassBush2", category: CategoryDecorative},
	GrassBush3:   {label: "GrassBush3", category: CategoryDecorative},
	GrassBush4:   {label: "GrassBush4", category: CategoryDecorative},
	GrassFlower1: {label: "GrassFlower1", category: CategoryDecorative},
	GrassFlower2: {label: "GrassFlower2", category: CategoryDecorative},
	GrassFlower3: {label: "GrassFlower3", category: CategoryDecorative},
	GrassRuin1:   {label: "GrassRuin1", category: CategoryBuilding},
	GrassRuin2:   {label: "GrassRuin2", category: CategoryBuilding},

	ForestBush1: {label: "ForestBush1", category: CategoryDecorative},
	ForestBush2: {label: "ForestBush2", category: CategoryDecorative},
	ForestBush3: {label: "ForestBush3", category: CategoryDecorative},
	ForestBush4: {label: "ForestBush4", category: CategoryDecorative},
	Land3Grass1: {label: "Land3Grass1", category: CategoryDecorative},
	Land3Grass2: {label: "Land3Grass2", category: CategoryDecorative},
	ForestTree1: {label: "ForestTree1", category: CategoryDecorative, footprint: tree},
	ForestTree2: {label: "ForestTree2", category: CategoryDecorative, footprint: tree},
	ForestTree3: {label: "ForestTree3", category: CategoryDecorative, footprint: tree},
	ForestTree4: {label: "ForestTree4", category: CategoryDecorative, footprint: tree},
	ForestTree5: {label: "ForestTree5", category: CategoryDecorative, footprint: tree},
	ForestRuin1: {label: "ForestRuin1", category: CategoryBuilding},
	ForestRuin2: {label: "ForestRuin2", category: CategoryBuilding},
	ForestRuin3: {label: "ForestRuin3", category: CategoryBuilding},

	PathRight:            {label: "PathRight", category: CategoryPath},
	PathHorizontal:       {label: "PathHorizontal", category: CategoryPath},
	PathCross:            {label: "PathCross", category: CategoryPath},
	PathVertical:         {label: "PathVertical", category: CategoryPath},
	PathBottom:           {label: "PathBottom", category: CategoryPath},
	PathTop:              {label: "PathTop", category: CategoryPath},
	PathLeft:             {label: "PathLeft", category: CategoryPath},
	PathTopRight:         {label: "PathTopRight", category: CategoryPath},
	PathTopLeft:          {label: "PathTopLeft", category: CategoryPath},
	PathBottomRight:      {label: "PathBottomRight", category: CategoryPath},
	PathBottomLeft:       {label: "PathBottomLeft", category: CategoryPath},
	PathTopHorizontal:    {label: "PathTopHorizontal", category: CategoryPath},
	PathBottomHorizontal: {label: "PathBottomHorizontal", category: CategoryPath},
	PathLeftVertical:     {label: "PathLeftVertical", category: CategoryPath},
	PathRightVertical:    {label: "PathRightVertical", category: CategoryPath},
	PathUndefined:        {label: "PathUndefined", category: CategoryPath},

	HouseRoofLeft:   {label: "HouseRoofLeft", category: CategoryBuilding},
	HouseRoofMiddle: {label: "HouseRoofMiddle", category: CategoryBuilding},
	HouseRoofRight:  {label: "HouseRoofRight", category: CategoryBuilding},
	HouseWallLeft:   {label: "HouseWallLeft", category: CategoryBuilding},
	HouseWallMiddle: {label: "HouseWallMiddle", category: CategoryBuilding},
	HouseWallRight:  {label: "HouseWallRight", category: CategoryBuilding},
	HouseDoor:       {label: "HouseDoor", category: CategoryBuilding},
}

var byLabel = func() map[string]Name {
	m := make(map[string]Name, len(registry))
	for n, i := range registry {
		m[i.label] = n
	}
	return m
}()

// Parse возвращает имя каталога по строке из файлов правил
func Parse(s string) (Name, error) {
	if n, ok := byLabel[s]; ok {
		return n, nil
	}
	return Empty, fmt.Errorf("неизвестный объект %q", s)
}

// All возвращает все имена каталога по возрастанию
func All() []Name {
	names := make([]Name, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Connection биты соединений дороги, по одному на направление
type Connection uint8

// With добавляет направление
func (c Connection) With(d vec.Direction) Connection {
	return c | 1<<d
}

// Has проверяет направление
func (c Connection) Has(d vec.Direction) bool {
	return c&(1<<d) != 0
}

var (
	top    = Connection(0).With(vec.Top)
	right  = Connection(0).With(vec.Right)
	bottom = Connection(0).With(vec.Bottom)
	left   = Connection(0).With(vec.Left)
)

var pathByConnection = map[Connection]Name{
	0:                           PathUndefined,
	top:                         PathTop,
	right:                       PathRight,
	bottom:                      PathBottom,
	left:                        PathLeft,
	top | bottom:                PathVertical,
	left | right:                PathHorizontal,
	top | right:                 PathTopRight,
	top | left:                  PathTopLeft,
	bottom | right:              PathBottomRight,
	bottom | left:               PathBottomLeft,
	left | right | top:          PathTopHorizontal,
	left | right | bottom:       PathBottomHorizontal,
	top | bottom | left:         PathLeftVertical,
	top | bottom | right:        PathRightVertical,
	top | right | bottom | left: PathCross,
}

// PathFor возвращает спрайт дороги для набора соединений
func PathFor(c Connection) Name {
	return pathByConnection[c&0xF]
}
