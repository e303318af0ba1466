package ruleset

import (
	"testing"
	"testing/fstest"

	"github.com/annel0/tileworld/internal/vec"
	"github.com/annel0/tileworld/internal/world"
	"github.com/annel0/tileworld/internal/world/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// everywhere правило, разрешающее любых соседей
func everywhere(index int, name string, weight int) State {
	st := State{Index: index, Name: name, Weight: weight}
	for _, d := range vec.Directions {
		st.PermittedNeighbours = append(st.PermittedNeighbours, Connection{Direction: d.String(), Names: []string{Wildcard}})
	}
	return st
}

func allTileTypes(self ...string) TileTypeFile {
	var f TileTypeFile
	for tt := world.TileType(0); tt < world.TileTypeCount; tt++ {
		f.TileTypes = append(f.TileTypes, TileTypeEntry{TileType: tt.String(), PermittedSelf: self})
	}
	return f
}

func TestLoadDefault(t *testing.T) {
	set, err := LoadDefault(Options{Strict: true})
	require.NoError(t, err, "встроенные правила должны загружаться в строгом режиме")
	assert.Empty(t, set.Warnings())

	// Песок: свои объекты плюс Empty из набора Any
	land1 := set.Candidates(world.Land1)
	assert.True(t, land1.Has(object.Empty))
	assert.True(t, land1.Has(object.SandPattern3))
	assert.False(t, land1.Has(object.ForestTree1), "деревья не растут на песке")

	// Вода содержит только Empty
	assert.Equal(t, object.SetOf(object.Empty), set.Candidates(world.DeepWater))

	// Дороги никогда не являются кандидатами
	for _, n := range object.All() {
		if n.IsPath() {
			for tr := world.Terrain(0); tr < world.TerrainCount; tr++ {
				assert.False(t, set.Candidates(tr).Has(n), "%s на %s", n, tr)
			}
		}
	}

	assert.True(t, set.PermittedSelf(world.Fill).Has(object.ForestTree2))
	assert.Equal(t, object.SetOf(object.Empty), set.PermittedSelf(world.Single))
}

func TestLayeredLookup(t *testing.T) {
	set, err := LoadDefault(Options{})
	require.NoError(t, err)

	// Land2 переопределяет Empty, Land1 берёт его из Any
	r2, ok := set.Rule(world.Land2, object.Empty)
	require.True(t, ok)
	r1, ok := set.Rule(world.Land1, object.Empty)
	require.True(t, ok)
	assert.Equal(t, 70, r2.Weight)
	assert.Equal(t, 100, r1.Weight)

	_, ok = set.Rule(world.Land1, object.ForestTree1)
	assert.False(t, ok)
	assert.Equal(t, 0, set.Weight(world.Land1, object.ForestTree1))

	// SandPattern1 не допускает Empty справа
	rule, ok := set.Rule(world.Land1, object.SandPattern1)
	require.True(t, ok)
	assert.False(t, rule.Permits(vec.Right, object.Empty))
	assert.True(t, rule.Permits(vec.Right, object.SandPattern5))
	assert.True(t, rule.Permits(vec.Left, object.Empty))

	// Объект без правила ничего не ограничивает
	assert.Equal(t, object.Universe(), set.Permitted(world.Land1, object.PathCross, vec.Top))
}

func TestBuild_Malformed(t *testing.T) {
	anyFile := TerrainFile{Terrain: "Any", States: []State{everywhere(0, "Empty", 10)}}
	tiles := allTileTypes("Empty")

	missingDir := everywhere(1, "SandStone1", 1)
	missingDir.PermittedNeighbours = missingDir.PermittedNeighbours[:3]

	dupDir := everywhere(1, "SandStone1", 1)
	dupDir.PermittedNeighbours = append(dupDir.PermittedNeighbours, Connection{Direction: "Top", Names: []string{"Empty"}})

	dupName := everywhere(1, "SandStone1", 1)
	dupName.PermittedNeighbours[0].Names = []string{"Empty", "Empty"}

	badDir := everywhere(1, "SandStone1", 1)
	badDir.PermittedNeighbours[0].Direction = "North"

	badNeighbour := everywhere(1, "SandStone1", 1)
	badNeighbour.PermittedNeighbours[1].Names = []string{"Castle"}

	cases := map[string]struct {
		terrains []TerrainFile
		tiles    TileTypeFile
	}{
		"неизвестный объект": {
			terrains: []TerrainFile{anyFile, {Terrain: "Land1", States: []State{everywhere(1, "Dragon", 1)}}},
			tiles:    tiles,
		},
		"нет направления":          {terrains: []TerrainFile{anyFile, {Terrain: "Land1", States: []State{missingDir}}}, tiles: tiles},
		"направление дважды":       {terrains: []TerrainFile{anyFile, {Terrain: "Land1", States: []State{dupDir}}}, tiles: tiles},
		"сосед дважды":             {terrains: []TerrainFile{anyFile, {Terrain: "Land1", States: []State{dupName}}}, tiles: tiles},
		"неизвестное направление":  {terrains: []TerrainFile{anyFile, {Terrain: "Land1", States: []State{badDir}}}, tiles: tiles},
		"неизвестный сосед":        {terrains: []TerrainFile{anyFile, {Terrain: "Land1", States: []State{badNeighbour}}}, tiles: tiles},
		"нет набора Any":           {terrains: []TerrainFile{{Terrain: "Land1", States: []State{everywhere(0, "SandStone1", 1)}}}, tiles: tiles},
		"неизвестный слой":         {terrains: []TerrainFile{anyFile, {Terrain: "Lava"}}, tiles: tiles},
		"форма Unknown":            {terrains: []TerrainFile{anyFile}, tiles: TileTypeFile{TileTypes: append(tiles.TileTypes, TileTypeEntry{TileType: "Unknown"})}},
		"не все формы описаны":     {terrains: []TerrainFile{anyFile}, tiles: TileTypeFile{TileTypes: tiles.TileTypes[:3]}},
		"неизвестный объект формы": {terrains: []TerrainFile{anyFile}, tiles: allTileTypes("Empty", "Ghost")},
	}

	for name, c := range cases {
		_, err := Build(c.terrains, c.tiles, Options{})
		assert.ErrorIs(t, err, ErrMalformedRuleset, name)
	}

	// Корректный минимальный набор
	set, err := Build([]TerrainFile{anyFile}, tiles, Options{})
	require.NoError(t, err)
	assert.Equal(t, object.SetOf(object.Empty), set.Candidates(world.Land3))
}

func TestBuild_Asymmetry(t *testing.T) {
	a := everywhere(1, "SandStone1", 1)
	a.PermittedNeighbours[1].Names = []string{"SandStone2"} // справа только SandStone2
	b := everywhere(2, "SandStone2", 1)
	b.PermittedNeighbours[3].Names = []string{"Empty"} // слева только Empty

	terrains := []TerrainFile{
		{Terrain: "Any", States: []State{everywhere(0, "Empty", 10)}},
		{Terrain: "Land1", States: []State{a, b}},
	}

	set, err := Build(terrains, allTileTypes("Empty"), Options{})
	require.NoError(t, err, "в нестрогом режиме асимметрия только предупреждение")
	assert.NotEmpty(t, set.Warnings())

	_, err = Build(terrains, allTileTypes("Empty"), Options{Strict: true})
	assert.ErrorIs(t, err, ErrMalformedRuleset)
}

func TestLoad_SchemaValidation(t *testing.T) {
	fsys := fstest.MapFS{
		"any.json":        {Data: []byte(`{"terrain": "Any", "states": [{"index": 0, "name": "Empty", "weight": "heavy", "permitted_neighbours": []}]}`)},
		"tile_types.json": {Data: []byte(`{"tile_types": []}`)},
	}
	_, err := Load(fsys, Options{})
	assert.ErrorIs(t, err, ErrMalformedRuleset, "вес-строка должен отклоняться схемой")

	fsys = fstest.MapFS{
		"any.json": {Data: []byte(`{"terrain": "Any", "states": []}`)},
	}
	_, err = Load(fsys, Options{})
	assert.ErrorIs(t, err, ErrMalformedRuleset, "без tile_types.json загрузка невозможна")
}

func TestLoadDir(t *testing.T) {
	_, err := LoadDir(t.TempDir(), Options{})
	assert.ErrorIs(t, err, ErrMalformedRuleset, "пустой каталог не является набором правил")
}

func TestPermittedSelf_CoversEveryTileType(t *testing.T) {
	set, err := LoadDefault(Options{})
	require.NoError(t, err)

	// Любая форма из классификатора должна допускать хотя бы Empty,
	// иначе у клетки не останется значений
	for tt := world.TileType(0); tt < world.TileTypeCount; tt++ {
		self := set.PermittedSelf(tt)
		assert.False(t, self.Empty(), "форма %s без допустимых объектов", tt)
		assert.True(t, self.Has(object.Empty), "форма %s должна допускать Empty", tt)
	}
}
