package ruleset

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/annel0/tileworld/internal/logging"
	"github.com/annel0/tileworld/internal/vec"
	"github.com/annel0/tileworld/internal/world"
	"github.com/annel0/tileworld/internal/world/object"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed data/*.json
var defaultData embed.FS

//go:embed schema/*.json
var schemaFS embed.FS

// Wildcard в списке соседей означает любой объект каталога
const Wildcard = "*"

// TileTypesFile имя файла с правилами форм тайлов
const TileTypesFile = "tile_types.json"

// TerrainFile файл правил одного слоя (или "Any")
type TerrainFile struct {
	Terrain string  `json:"terrain"`
	States  []State `json:"states"`
}

// State запись правила объекта
type State struct {
	Index               int          `json:"index"`
	Name                string       `json:"name"`
	Weight              int          `json:"weight"`
	PermittedNeighbours []Connection `json:"permitted_neighbours"`
}

// Connection допустимые соседи в одном направлении
type Connection struct {
	Direction string   `json:"direction"`
	Names     []string `json:"names"`
}

// TileTypeFile правила форм тайлов
type TileTypeFile struct {
	TileTypes []TileTypeEntry `json:"tile_types"`
}

// TileTypeEntry объекты, допустимые для формы тайла
type TileTypeEntry struct {
	TileType      string   `json:"tile_type"`
	PermittedSelf []string `json:"permitted_self"`
}

// Options параметры загрузки
type Options struct {
	// Strict превращает асимметричные правила из предупреждений в ошибку
	Strict bool
}

// LoadDefault загружает встроенный набор правил
func LoadDefault(opts Options) (*Set, error) {
	sub, err := fs.Sub(defaultData, "data")
	if err != nil {
		return nil, err
	}
	return Load(sub, opts)
}

// LoadDir загружает набор правил из каталога
func LoadDir(dir string, opts Options) (*Set, error) {
	return Load(os.DirFS(dir), opts)
}

// Load читает все *.json из fsys: tile_types.json и по файлу на слой.
// Каждый файл проверяется JSON-схемой, затем набор проверяется целиком.
func Load(fsys fs.FS, opts Options) (*Set, error) {
	terrainSchema, err := compileSchema("terrain.schema.json")
	if err != nil {
		return nil, err
	}
	tileSchema, err := compileSchema("tile_types.schema.json")
	if err != nil {
		return nil, err
	}

	names, err := fs.Glob(fsys, "*.json")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	var (
		terrains []TerrainFile
		tiles    *TileTypeFile
	)
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения %s: %w", name, err)
		}

		schema := terrainSchema
		if name == TileTypesFile {
			schema = tileSchema
		}
		if err := validateSchema(schema, data); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedRuleset, name, err)
		}

		if name == TileTypesFile {
			tiles = &TileTypeFile{}
			if err := json.Unmarshal(data, tiles); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrMalformedRuleset, name, err)
			}
			continue
		}

		var tf TerrainFile
		if err := json.Unmarshal(data, &tf); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedRuleset, name, err)
		}
		terrains = append(terrains, tf)
	}

	if tiles == nil {
		return nil, fmt.Errorf("%w: нет файла %s", ErrMalformedRuleset, TileTypesFile)
	}
	return Build(terrains, *tiles, opts)
}

func compileSchema(name string) (*jsonschema.Schema, error) {
	data, err := schemaFS.ReadFile(path.Join("schema", name))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("ошибка загрузки схемы %s: %w", name, err)
	}
	return c.Compile(name)
}

func validateSchema(s *jsonschema.Schema, data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	return s.Validate(v)
}

// Build собирает набор из уже разобранных файлов и проверяет его
func Build(terrains []TerrainFile, tiles TileTypeFile, opts Options) (*Set, error) {
	s := newSet()
	var problems []string
	fail := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	for _, tf := range terrains {
		t, err := world.ParseTerrain(tf.Terrain)
		if err != nil {
			fail("%v", err)
			continue
		}
		if _, dup := s.byTerrain[t]; dup {
			fail("слой %s описан дважды", t)
			continue
		}
		rules := make(map[object.Name]*Rule, len(tf.States))
		s.byTerrain[t] = rules

		indexes := make(map[int]string)
		for _, st := range tf.States {
			r, errs := parseState(st)
			for _, e := range errs {
				fail("%s/%s: %s", t, st.Name, e)
			}
			if r == nil {
				continue
			}
			if _, dup := rules[r.Name]; dup {
				fail("%s: объект %s описан дважды", t, r.Name)
				continue
			}
			if prev, dup := indexes[st.Index]; dup {
				fail("%s: индекс %d у %s и %s", t, st.Index, prev, st.Name)
			}
			indexes[st.Index] = st.Name
			rules[r.Name] = r
		}
	}

	if _, ok := s.byTerrain[world.Any]; !ok {
		fail("нет набора правил Any")
	} else if _, ok := s.byTerrain[world.Any][object.Empty]; !ok {
		fail("набор Any должен содержать Empty")
	}

	seen := make(map[world.TileType]bool)
	for _, e := range tiles.TileTypes {
		tt, err := world.ParseTileType(e.TileType)
		if err != nil {
			fail("%v", err)
			continue
		}
		if tt == world.Unknown {
			fail("форма Unknown недопустима в правилах")
			continue
		}
		if seen[tt] {
			fail("форма %s описана дважды", tt)
			continue
		}
		seen[tt] = true
		set, errs := parseNames(e.PermittedSelf)
		for _, msg := range errs {
			fail("%s: %s", tt, msg)
		}
		s.self[tt] = set
	}
	for tt := world.TileType(0); tt < world.TileTypeCount; tt++ {
		if !seen[tt] {
			fail("нет правил для формы %s", tt)
		}
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMalformedRuleset, strings.Join(problems, "; "))
	}

	s.warnings = asymmetries(terrains, s)
	if len(s.warnings) > 0 {
		if opts.Strict {
			return nil, fmt.Errorf("%w: асимметричные правила: %s", ErrMalformedRuleset, strings.Join(s.warnings, "; "))
		}
		for _, w := range s.warnings {
			logging.Warn("Правила: %s", w)
		}
	}

	s.resolve()
	return s, nil
}

func parseState(st State) (*Rule, []string) {
	var errs []string
	name, err := object.Parse(st.Name)
	if err != nil {
		return nil, []string{err.Error()}
	}
	if st.Weight < 0 {
		errs = append(errs, fmt.Sprintf("отрицательный вес %d", st.Weight))
	}

	r := &Rule{Index: st.Index, Name: name, Weight: st.Weight}
	var present [4]bool
	for _, c := range st.PermittedNeighbours {
		d, err := vec.ParseDirection(c.Direction)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		if present[d] {
			errs = append(errs, fmt.Sprintf("направление %s указано дважды", d))
			continue
		}
		present[d] = true

		set, nameErrs := parseNames(c.Names)
		for _, e := range nameErrs {
			errs = append(errs, fmt.Sprintf("%s: %s", d, e))
		}
		r.Permitted[d] = set
	}
	for _, d := range vec.Directions {
		if !present[d] {
			errs = append(errs, fmt.Sprintf("нет соседей для направления %s", d))
		}
	}
	return r, errs
}

func parseNames(names []string) (object.Set, []string) {
	var (
		set  object.Set
		errs []string
	)
	seen := make(map[string]bool, len(names))
	for _, s := range names {
		if seen[s] {
			errs = append(errs, fmt.Sprintf("сосед %s указан дважды", s))
			continue
		}
		seen[s] = true
		if s == Wildcard {
			set = set.Union(object.Universe())
			continue
		}
		n, err := object.Parse(s)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		set = set.Add(n)
	}
	return set, errs
}

// asymmetries ищет явно перечисленных соседей, которые не разрешают объект
// в обратном направлении. Списки с Wildcard не проверяются как источник,
// дороги и постройки пропускаются.
func asymmetries(terrains []TerrainFile, s *Set) []string {
	var out []string
	for _, tf := range terrains {
		t, _ := world.ParseTerrain(tf.Terrain)
		rules := s.byTerrain[t]
		for _, st := range tf.States {
			a, err := object.Parse(st.Name)
			if err != nil || a.IsPath() || a.IsBuilding() {
				continue
			}
			for _, c := range st.PermittedNeighbours {
				if containsWildcard(c.Names) {
					continue
				}
				d, _ := vec.ParseDirection(c.Direction)
				for _, bn := range c.Names {
					b, _ := object.Parse(bn)
					if b.IsPath() || b.IsBuilding() {
						continue
					}
					rb := rules[b]
					if rb == nil {
						rb = s.byTerrain[world.Any][b]
					}
					if rb != nil && !rb.Permits(d.Opposite(), a) {
						out = append(out, fmt.Sprintf("%s: %s допускает %s в направлении %s, обратного правила нет", t, a, b, d))
					}
				}
			}
		}
	}
	sort.Strings(out)
	return out
}

func containsWildcard(names []string) bool {
	for _, n := range names {
		if n == Wildcard {
			return true
		}
	}
	return false
}
