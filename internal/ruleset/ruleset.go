package ruleset

import (
	"errors"

	"github.com/annel0/tileworld/internal/vec"
	"github.com/annel0/tileworld/internal/world"
	"github.com/annel0/tileworld/internal/world/object"
)

// ErrMalformedRuleset данные правил ссылаются на неизвестные имена,
// направления или нарушают структуру. Ошибка фатальна при загрузке.
var ErrMalformedRuleset = errors.New("некорректный набор правил")

// Rule правило объекта для одного слоя ландшафта
type Rule struct {
	Index     int
	Name      object.Name
	Weight    int
	Permitted [4]object.Set // по vec.Direction
}

// Permits проверяет, допускает ли правило соседа v в направлении d
func (r *Rule) Permits(d vec.Direction, v object.Name) bool {
	return r.Permitted[d].Has(v)
}

// Set объединённый набор правил: правила слоёв, правила "any" и
// допустимые объекты для форм тайлов. Только для чтения после загрузки,
// поэтому безопасен для параллельных генераций без блокировок.
type Set struct {
	byTerrain map[world.Terrain]map[object.Name]*Rule

	// resolved[t][n] правило слоя, иначе правило "any", иначе nil
	resolved   [world.TerrainCount][object.Count]*Rule
	candidates [world.TerrainCount]object.Set
	self       [world.TileTypeCount]object.Set

	warnings []string
}

func newSet() *Set {
	return &Set{byTerrain: make(map[world.Terrain]map[object.Name]*Rule)}
}

// resolve строит слоёную таблицу поиска: сначала правило слоя,
// затем правило "any", если для слоя записи нет.
func (s *Set) resolve() {
	anyRules := s.byTerrain[world.Any]
	for t := world.Terrain(0); t < world.TerrainCount; t++ {
		own := s.byTerrain[t]
		var cand object.Set
		for n := object.Name(0); n < object.Count; n++ {
			r := own[n]
			if r == nil {
				r = anyRules[n]
			}
			s.resolved[t][n] = r
			if r != nil && r.Weight > 0 {
				cand = cand.Add(n)
			}
		}
		s.candidates[t] = cand
	}
}

// Rule возвращает правило объекта для слоя с откатом на "any"
func (s *Set) Rule(t world.Terrain, n object.Name) (*Rule, bool) {
	if t >= world.TerrainCount || !n.Valid() {
		return nil, false
	}
	r := s.resolved[t][n]
	return r, r != nil
}

// Weight возвращает вес объекта на слое (0, если правила нет)
func (s *Set) Weight(t world.Terrain, n object.Name) int {
	if r, ok := s.Rule(t, n); ok {
		return r.Weight
	}
	return 0
}

// Candidates объекты с положительным весом для слоя
func (s *Set) Candidates(t world.Terrain) object.Set {
	if t >= world.TerrainCount {
		return 0
	}
	return s.candidates[t]
}

// PermittedSelf объекты, совместимые с формой тайла
func (s *Set) PermittedSelf(tt world.TileType) object.Set {
	if tt >= world.TileTypeCount {
		return 0
	}
	return s.self[tt]
}

// Permitted соседи, которых объект u на слое t допускает в направлении d.
// Объект без правила (например, дорога) ничего не ограничивает.
func (s *Set) Permitted(t world.Terrain, u object.Name, d vec.Direction) object.Set {
	if r, ok := s.Rule(t, u); ok {
		return r.Permitted[d]
	}
	return object.Universe()
}

// Warnings замечания, найденные при загрузке в нестрогом режиме
func (s *Set) Warnings() []string {
	return s.warnings
}
