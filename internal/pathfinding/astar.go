package pathfinding

import (
	"container/heap"
	"context"
	"errors"

	"github.com/annel0/tileworld/internal/vec"
)

// ErrNoPathFound цель недостижима в пределах области поиска
// или исчерпан лимит раскрытий
var ErrNoPathFound = errors.New("путь не найден")

// DefaultMaxExpansions лимит раскрытых узлов для одного поиска
const DefaultMaxExpansions = 20000

const cancelCheckEvery = 256

// node элемент открытого списка. seq задаёт порядок FIFO при равных f,
// поэтому результат не зависит от устройства кучи.
type node struct {
	pos vec.Vec2
	g   float64
	f   float64
	seq int
}

type openList []*node

func (h openList) Len() int { return len(h) }
func (h openList) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	return h[i].seq < h[j].seq
}
func (h openList) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *openList) Push(x interface{}) { *h = append(*h, x.(*node)) }
func (h *openList) Pop() interface{} {
	old := *h
	n := old[len(old)-1]
	*h = old[:len(old)-1]
	return n
}

// FindPath ищет путь наименьшей стоимости от from до to по четырём
// направлениям, не выходя за bounds. Возвращает клетки пути, включая концы.
func FindPath(ctx context.Context, field CostField, from, to vec.Vec2, bounds vec.Rect, maxExpansions int) ([]vec.Vec2, error) {
	if !bounds.Contains(from) || !bounds.Contains(to) {
		return nil, ErrNoPathFound
	}
	if from == to {
		return []vec.Vec2{from}, nil
	}
	if maxExpansions <= 0 {
		maxExpansions = DefaultMaxExpansions
	}

	minStep := field.MinStepCost()
	h := func(p vec.Vec2) float64 {
		return float64(p.ManhattanTo(to)) * minStep
	}

	open := &openList{}
	seq := 0
	heap.Push(open, &node{pos: from, f: h(from), seq: seq})
	best := map[vec.Vec2]float64{from: 0}
	parent := make(map[vec.Vec2]vec.Vec2)
	closed := make(map[vec.Vec2]bool)

	expansions := 0
	for open.Len() > 0 {
		cur := heap.Pop(open).(*node)
		if closed[cur.pos] {
			continue
		}
		if cur.pos == to {
			return reconstruct(parent, from, to), nil
		}
		closed[cur.pos] = true

		expansions++
		if expansions > maxExpansions {
			return nil, ErrNoPathFound
		}
		if expansions%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		for _, d := range vec.Directions {
			next := cur.pos.Step(d)
			if !bounds.Contains(next) || closed[next] {
				continue
			}
			cost, ok := field.Cost(cur.pos, next)
			if !ok {
				continue
			}
			g := cur.g + cost
			if prev, seen := best[next]; seen && g >= prev {
				continue
			}
			best[next] = g
			parent[next] = cur.pos
			seq++
			heap.Push(open, &node{pos: next, g: g, f: g + h(next), seq: seq})
		}
	}
	return nil, ErrNoPathFound
}

func reconstruct(parent map[vec.Vec2]vec.Vec2, from, to vec.Vec2) []vec.Vec2 {
	path := []vec.Vec2{to}
	for p := to; p != from; {
		p = parent[p]
		path = append(path, p)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// PathCost суммарная стоимость пути
func PathCost(field CostField, path []vec.Vec2) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		c, _ := field.Cost(path[i-1], path[i])
		total += c
	}
	return total
}
