package mdp

import (
	"fmt"

	"github.com/trial-mdp/trial-mdp/mdp/trace"
)

// evaluator scores every action for one state at a time. It owns its
// iterators and scratch vectors, so each goroutine needs its own.
type evaluator struct {
	objective   *Objective
	results     *ResultsTable
	actions     *ActionIterator
	transitions *TransitionIterator

	expected []float64
	cur      []float64
	next     []float64
	best     StateResult
	ctx      LookaheadContext

	nActions  int64
	nOutcomes int64
	chosen    map[int]int
}

func newEvaluator(s *Solver) *evaluator {
	n := s.objective.NumAttributes()
	return &evaluator{
		objective:   s.objective,
		results:     s.results,
		actions:     s.actions.Clone(),
		transitions: NewTransitionIterator(s.model.Clone()),
		expected:    make([]float64, n),
		cur:         make([]float64, n),
		next:        make([]float64, n),
		best:        NewStateResult(n),
		chosen:      make(map[int]int),
	}
}

// bestAction returns the highest expected-reward action from ct at
// checkpoint idx. The first action seeds the choice and later ones replace
// it only when strictly better, so ties keep enumeration order.
// The returned record aliases the evaluator's scratch space.
func (e *evaluator) bestAction(idx int, ct ContingencyTable) (StateResult, error) {
	rw := e.objective.RewardIndex()
	seeded := false
	for e.actions.Reset(idx); !e.actions.Exhausted(); e.actions.Advance() {
		choice := e.actions.Value()
		a, b := choice.AAllocation, choice.BAllocation()
		for i := range e.expected {
			e.expected[i] = 0
		}
		e.ctx = LookaheadContext{State: ct, ActionA: a, ActionB: b, Next: e.next}
		for e.transitions.Reset(ct, a, b); !e.transitions.Exhausted(); e.transitions.Advance() {
			p := e.transitions.Prob()
			if p == 0 {
				continue
			}
			next := e.transitions.Value()
			if _, ok := e.results.ReadInto(choice.Target, next, e.next); !ok {
				return StateResult{}, fmt.Errorf("state %v at checkpoint %d read before it was resolved", next, choice.Target)
			}
			e.ctx.SuccA, e.ctx.SuccB = e.transitions.Successes()
			e.objective.LookAhead(e.cur, &e.ctx)
			for i, v := range e.cur {
				e.expected[i] += p * v
			}
			e.nOutcomes++
		}
		e.nActions++
		if !seeded || e.expected[rw] > e.best.Values[rw] {
			e.best.Action = choice.Action
			copy(e.best.Values, e.expected)
			seeded = true
		}
	}
	if !seeded {
		return StateResult{}, fmt.Errorf("no legal action from checkpoint %d", idx)
	}
	e.chosen[e.best.Action.BlockSize]++
	return e.best, nil
}

// evaluatorPool hands out evaluators to batches. Each evaluator is used by
// one goroutine at a time.
type evaluatorPool struct {
	all  []*evaluator
	free chan *evaluator
}

func newEvaluatorPool(s *Solver, workers int) *evaluatorPool {
	p := &evaluatorPool{free: make(chan *evaluator, workers)}
	for i := 0; i < workers; i++ {
		e := newEvaluator(s)
		p.all = append(p.all, e)
		p.free <- e
	}
	return p
}

func (p *evaluatorPool) size() int { return len(p.all) }

// run resolves one batch of states at checkpoint idx and stores them.
func (p *evaluatorPool) run(idx int, batch []ContingencyTable) error {
	e := <-p.free
	defer func() { p.free <- e }()
	for _, ct := range batch {
		res, err := e.bestAction(idx, ct)
		if err != nil {
			return err
		}
		if err := e.results.Put(idx, ct, res); err != nil {
			return err
		}
	}
	return nil
}

// reset clears per-checkpoint counters. Call only between checkpoints.
func (p *evaluatorPool) reset() {
	for _, e := range p.all {
		e.nActions = 0
		e.nOutcomes = 0
		clear(e.chosen)
	}
}

// collect merges per-evaluator counters into rec. Call only after the
// checkpoint's batches have all finished.
func (p *evaluatorPool) collect(rec *trace.CheckpointRecord) {
	for _, e := range p.all {
		rec.Actions += e.nActions
		rec.Outcomes += e.nOutcomes
		for size, n := range e.chosen {
			rec.ChosenBlockSizes[size] += n
		}
	}
}
