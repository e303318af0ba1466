package wfc

import (
	"context"

	"github.com/annel0/tileworld/internal/util"
	"github.com/annel0/tileworld/internal/vec"
	"github.com/annel0/tileworld/internal/world"
	"github.com/annel0/tileworld/internal/world/object"
)

// state одна попытка решения
type state struct {
	e       *Engine
	g       Grid
	attempt int

	domains   []object.Set
	collapsed []bool
	// reservations клетка -> id размещения (0 - свободна)
	reservations []int
	placements   []world.Placement

	queue    []int
	queued   []bool
	steps    int
	discards []int // отброшенные выборы многоклеточных объектов по клеткам
	discard  int
}

func (e *Engine) newState(g Grid, attempt int) *state {
	n := len(g.Cells)
	st := &state{
		e:            e,
		g:            g,
		attempt:      attempt,
		domains:      make([]object.Set, n),
		collapsed:    make([]bool, n),
		reservations: make([]int, n),
		queue:        make([]int, 0, n),
		queued:       make([]bool, n),
		discards:     make([]int, n),
	}
	for i := range g.Cells {
		st.domains[i] = st.initialDomain(i)
		if g.Cells[i].Fixed {
			st.collapsed[i] = true
		}
	}
	return st
}

// initialDomain кандидаты слоя, допустимые для формы тайла. Многоклеточные
// объекты, не помещающиеся в сетку, и значения, несовместимые с соседней
// дорогой, отбрасываются. Пустой домен заменяется на {Empty}.
func (st *state) initialDomain(i int) object.Set {
	c := st.g.Cells[i]
	if c.Fixed {
		return object.SetOf(c.Value)
	}

	rules := st.e.rules
	dom := rules.Candidates(c.Terrain).Intersect(rules.PermittedSelf(c.TileType))
	for _, n := range dom.Names() {
		if n.IsMultiTile() && !st.fits(i, n) {
			dom = dom.Remove(n)
		}
	}
	for _, d := range vec.Directions {
		j := st.g.neighbour(i, d)
		if j < 0 || !st.g.Cells[j].Fixed {
			continue
		}
		dom &= st.e.supported(object.SetOf(st.g.Cells[j].Value), st.g.Cells[j].Terrain, d.Opposite(), c.Terrain)
	}

	if dom.Empty() {
		return object.SetOf(object.Empty)
	}
	return dom
}

// fits проверяет, что след объекта с якорем в i целиком внутри сетки
// и не задевает закреплённые клетки
func (st *state) fits(i int, n object.Name) bool {
	anchor := st.g.Pos(i)
	for _, off := range n.Footprint().Cells() {
		j := st.g.at(anchor.Add(off))
		if j < 0 || st.g.Cells[j].Fixed {
			return false
		}
	}
	return true
}

func (st *state) run(ctx context.Context) error {
	for i := range st.domains {
		st.enqueue(i)
	}
	if err := st.propagate(); err != nil {
		return err
	}

	for {
		if st.steps%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		i := st.selectCell()
		if i < 0 {
			return nil
		}
		if err := st.collapse(i); err != nil {
			return err
		}
		st.steps++
	}
}

// selectCell клетка с наименьшим доменом среди несхлопнутых.
// Равные домены разрешаются детерминированным хешем.
func (st *state) selectCell() int {
	best, bestLen := -1, 0
	var bestKey uint64
	for i, dom := range st.domains {
		if st.collapsed[i] {
			continue
		}
		l := dom.Len()
		if best >= 0 && l > bestLen {
			continue
		}
		key := util.Hash(st.e.opts.Seed, int64(st.g.Coords.X), int64(st.g.Coords.Y), int64(st.attempt), int64(i), int64(st.steps))
		if best < 0 || l < bestLen || key < bestKey {
			best, bestLen, bestKey = i, l, key
		}
	}
	return best
}

// sample взвешенный выбор из домена клетки
func (st *state) sample(i int) object.Name {
	c := st.g.Cells[i]
	names := st.domains[i].Names()
	weights := make([]int, len(names))
	total := 0
	for k, n := range names {
		weights[k] = st.e.rules.Weight(c.Terrain, n)
		total += weights[k]
	}

	rng := util.NewStream(st.e.opts.Seed, int64(st.g.Coords.X), int64(st.g.Coords.Y), int64(st.attempt), int64(i), int64(st.steps))
	if total <= 0 {
		return names[rng.Intn(len(names))]
	}
	r := rng.Intn(total)
	for k, w := range weights {
		if r < w {
			return names[k]
		}
		r -= w
	}
	return names[len(names)-1]
}

func (st *state) collapse(i int) error {
	value := st.sample(i)

	if value.IsMultiTile() {
		cells, ok := st.footprint(i, value)
		if !ok {
			st.discard++
			st.discards[i]++
			if st.discards[i] > st.e.opts.FootprintRetries && st.domains[i].Has(object.Empty) {
				value = object.Empty
			} else {
				st.domains[i] = st.domains[i].Remove(value)
				if st.domains[i].Empty() {
					return contradiction(st.g, i)
				}
				st.enqueue(i)
				return st.propagate()
			}
		} else {
			st.place(value, cells)
			return st.propagate()
		}
	}

	st.domains[i] = object.SetOf(value)
	st.collapsed[i] = true
	st.enqueue(i)
	return st.propagate()
}

// footprint клетки следа объекта с якорем в i. Все клетки должны быть
// внутри сетки, свободны и ещё допускать этот объект.
func (st *state) footprint(i int, n object.Name) ([]int, bool) {
	anchor := st.g.Pos(i)
	offsets := n.Footprint().Cells()
	cells := make([]int, 0, len(offsets))
	for _, off := range offsets {
		j := st.g.at(anchor.Add(off))
		if j < 0 || st.g.Cells[j].Fixed || st.reservations[j] != 0 {
			return nil, false
		}
		if j != i && (st.collapsed[j] || !st.domains[j].Has(n)) {
			return nil, false
		}
		cells = append(cells, j)
	}
	return cells, true
}

// place атомарно занимает все клетки следа
func (st *state) place(n object.Name, cells []int) {
	id := len(st.placements) + 1
	st.placements = append(st.placements, world.Placement{ID: id, Name: n, Anchor: cells[0], Cells: cells})
	for _, j := range cells {
		st.reservations[j] = id
		st.domains[j] = object.SetOf(n)
		st.collapsed[j] = true
		st.enqueue(j)
	}
}

func (st *state) enqueue(i int) {
	if !st.queued[i] {
		st.queued[i] = true
		st.queue = append(st.queue, i)
	}
}

// propagate доводит сетку до дуговой согласованности. Закреплённые клетки
// и клетки того же размещения не сужаются, соседи за границей сетки
// ничего не ограничивают.
func (st *state) propagate() error {
	for len(st.queue) > 0 {
		i := st.queue[0]
		st.queue = st.queue[1:]
		st.queued[i] = false

		ti := st.g.Cells[i].Terrain
		for _, d := range vec.Directions {
			j := st.g.neighbour(i, d)
			if j < 0 || st.g.Cells[j].Fixed {
				continue
			}
			if st.reservations[i] != 0 && st.reservations[i] == st.reservations[j] {
				continue
			}
			next := st.domains[j] & st.e.supported(st.domains[i], ti, d, st.g.Cells[j].Terrain)
			if next == st.domains[j] {
				continue
			}
			if next.Empty() {
				st.queue = st.queue[:0]
				for k := range st.queued {
					st.queued[k] = false
				}
				return contradiction(st.g, j)
			}
			st.domains[j] = next
			st.enqueue(j)
		}
	}
	return nil
}

// result собирает итог. Клетки, не получившие значения, заполняются Empty.
func (st *state) result(attempts int, degraded bool) Result {
	res := Result{
		Objects:    make([]object.Name, len(st.g.Cells)),
		Placements: st.placements,
		Degraded:   degraded,
		Attempts:   attempts,
		Collapses:  st.steps,
		Discards:   st.discard,
	}
	for i, c := range st.g.Cells {
		switch {
		case c.Fixed:
			res.Objects[i] = c.Value
		case st.collapsed[i]:
			res.Objects[i], _ = st.domains[i].Single()
		default:
			res.Objects[i] = object.Empty
		}
	}
	return res
}
