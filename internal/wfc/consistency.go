package wfc

import (
	"fmt"

	"github.com/annel0/tileworld/internal/ruleset"
	"github.com/annel0/tileworld/internal/vec"
	"github.com/annel0/tileworld/internal/world"
	"github.com/annel0/tileworld/internal/world/object"
)

// Violation нарушение правил соседства в готовом результате
type Violation struct {
	Pos       vec.Vec2
	Direction vec.Direction
	Occupant  object.Name
	Neighbour object.Name
}

func (v Violation) String() string {
	return fmt.Sprintf("%v: %s не допускает %s в направлении %s", v.Pos, v.Occupant, v.Neighbour, v.Direction)
}

// CheckConsistency проверяет, что каждый непустой объект допускает всех
// непустых соседей. Пары клеток одного размещения не проверяются.
func CheckConsistency(rules *ruleset.Set, g Grid, res Result) []Violation {
	owner := placementOwners(len(g.Cells), res.Placements)

	var out []Violation
	for i, u := range res.Objects {
		if u == object.Empty {
			continue
		}
		for _, d := range vec.Directions {
			j := g.neighbour(i, d)
			if j < 0 {
				continue
			}
			v := res.Objects[j]
			if v == object.Empty || (owner[i] != 0 && owner[i] == owner[j]) {
				continue
			}
			if !rules.Permitted(g.Cells[i].Terrain, u, d).Has(v) {
				out = append(out, Violation{Pos: g.Pos(i), Direction: d, Occupant: u, Neighbour: v})
			}
		}
	}
	return out
}

// CheckFootprints проверяет атомарность размещений: клетки следа не
// пересекаются, не задевают закреплённые клетки (дороги, дома) и несут имя своего объекта.
func CheckFootprints(g Grid, res Result) error {
	owner := make([]int, len(g.Cells))
	for _, p := range res.Placements {
		if want := len(p.Name.Footprint().Cells()); len(p.Cells) != want {
			return fmt.Errorf("размещение %d (%s): %d клеток вместо %d", p.ID, p.Name, len(p.Cells), want)
		}
		for _, j := range p.Cells {
			if owner[j] != 0 {
				return fmt.Errorf("клетка %v занята размещениями %d и %d", g.Pos(j), owner[j], p.ID)
			}
			if g.Cells[j].Fixed {
				return fmt.Errorf("размещение %d накрывает закреплённую клетку в %v", p.ID, g.Pos(j))
			}
			if res.Objects[j] != p.Name {
				return fmt.Errorf("клетка %v размещения %d содержит %s вместо %s", g.Pos(j), p.ID, res.Objects[j], p.Name)
			}
			owner[j] = p.ID
		}
	}
	for i, n := range res.Objects {
		if n.IsMultiTile() && owner[i] == 0 {
			return fmt.Errorf("клетка %v содержит %s без размещения", g.Pos(i), n)
		}
	}
	return nil
}

func placementOwners(n int, placements []world.Placement) []int {
	owner := make([]int, n)
	for _, p := range placements {
		for _, j := range p.Cells {
			owner[j] = p.ID
		}
	}
	return owner
}
