package wfc

import (
	"context"
	"errors"
	"fmt"

	"github.com/annel0/tileworld/internal/logging"
	"github.com/annel0/tileworld/internal/ruleset"
	"github.com/annel0/tileworld/internal/vec"
	"github.com/annel0/tileworld/internal/world"
	"github.com/annel0/tileworld/internal/world/object"
)

// ErrWfcContradiction домен клетки опустел во время распространения.
// Внутри движка приводит к повторной попытке, наружу не выходит.
var ErrWfcContradiction = errors.New("противоречие WFC")

const (
	DefaultRetryBudget      = 5
	DefaultFootprintRetries = 8

	// cancelCheckEvery как часто цикл схлопывания проверяет отмену
	cancelCheckEvery = 64
)

// Options параметры движка
type Options struct {
	Seed             int64
	RetryBudget      int // повторные попытки после первой
	FootprintRetries int // отброшенные в одной клетке выборы многоклеточных объектов до отката на Empty
}

// Engine решатель ограничений для размещения объектов.
// Не хранит состояние между вызовами Solve и безопасен для параллельного использования.
type Engine struct {
	rules *ruleset.Set
	opts  Options
	log   *logging.Logger

	// fwd[t][u][d] соседи, которых u на слое t допускает в направлении d
	fwd [world.TerrainCount][object.Count][4]object.Set
	// rev[t][d][u] значения на слое t, чьё правило допускает u в направлении d
	rev [world.TerrainCount][4][object.Count]object.Set
}

// NewEngine создаёт движок и заранее раскладывает правила в таблицы совместимости
func NewEngine(rules *ruleset.Set, opts Options) *Engine {
	if opts.RetryBudget < 0 {
		opts.RetryBudget = 0
	}
	if opts.FootprintRetries <= 0 {
		opts.FootprintRetries = DefaultFootprintRetries
	}
	e := &Engine{rules: rules, opts: opts, log: logging.GetWfcLogger()}

	for t := world.Terrain(0); t < world.TerrainCount; t++ {
		for u := object.Name(0); u < object.Count; u++ {
			for _, d := range vec.Directions {
				e.fwd[t][u][d] = rules.Permitted(t, u, d)
			}
		}
		for _, d := range vec.Directions {
			for v := object.Name(0); v < object.Count; v++ {
				allowed := rules.Permitted(t, v, d)
				for u := object.Name(0); u < object.Count; u++ {
					if allowed.Has(u) {
						e.rev[t][d][u] = e.rev[t][d][u].Add(v)
					}
				}
			}
		}
	}
	return e
}

// Rules возвращает набор правил движка
func (e *Engine) Rules() *ruleset.Set {
	return e.rules
}

// Options возвращает параметры движка
func (e *Engine) Options() Options {
	return e.opts
}

// Solve назначает объект каждой незакреплённой клетке сетки.
// При противоречии решение повторяется с новой серией случайных выборов;
// после RetryBudget повторов оставшиеся клетки получают Empty и результат
// помечается Degraded. Ошибку возвращает только отмена контекста.
func (e *Engine) Solve(ctx context.Context, g Grid) (Result, error) {
	var last *state
	for attempt := 0; attempt <= e.opts.RetryBudget; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		st := e.newState(g, attempt)
		err := st.run(ctx)
		if err == nil {
			return st.result(attempt+1, false), nil
		}
		if !errors.Is(err, ErrWfcContradiction) {
			return Result{}, err
		}
		e.log.Debug("Чанк %v: попытка %d не сошлась: %v", g.Coords, attempt+1, err)
		last = st
	}

	e.log.Warn("Чанк %v: попытки исчерпаны (%d), остаток заполнен Empty", g.Coords, e.opts.RetryBudget+1)
	return last.result(e.opts.RetryBudget+1, true), nil
}

// supported значения соседа j в направлении d от клетки i, совместимые
// хотя бы с одним значением домена i. Совместимость взаимна: u должен
// допускать v, и v должен допускать u в обратном направлении.
func (e *Engine) supported(dom object.Set, ti world.Terrain, d vec.Direction, tj world.Terrain) object.Set {
	var out object.Set
	opp := d.Opposite()
	for _, u := range dom.Names() {
		out |= e.fwd[ti][u][d] & e.rev[tj][opp][u]
	}
	return out
}

func contradiction(g Grid, i int) error {
	return fmt.Errorf("%w: клетка %v чанка %v", ErrWfcContradiction, g.Pos(i), g.Coords)
}
