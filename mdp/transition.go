package mdp

import "fmt"

// Priors holds Beta pseudocounts per arm: A0/B0 weight failures, A1/B1 weight
// successes.
type Priors struct {
	A0 float64
	A1 float64
	B0 float64
	B1 float64
}

// TransitionModel gives the distribution of next-block outcomes for one
// (state, action). SetStateAction precomputes the two per-arm marginals so
// Prob is a single multiplication.
// Implementations own their scratch buffers and are not safe for concurrent
// use; Clone yields an independent instance with the same parameters.
type TransitionModel interface {
	SetStateAction(ct ContingencyTable, sizeA, sizeB int)
	Prob(succA, succB int) float64
	Clone() TransitionModel
}

// ValidTransitionModels is the set of recognized transition model names.
var ValidTransitionModels = map[string]bool{"beta_binom": true, "binom": true}

// IsValidTransitionModel returns true if name is a recognized transition model.
func IsValidTransitionModel(name string) bool { return ValidTransitionModels[name] }

// NewTransitionModelFunc is set by mdp/transition's init(). Keeping the
// implementations in a sub-package lets them depend on mdp types without an
// import cycle.
var NewTransitionModelFunc func(name string, priors Priors) (TransitionModel, error)

// NewTransitionModel creates a TransitionModel by name.
func NewTransitionModel(name string, priors Priors) (TransitionModel, error) {
	if !IsValidTransitionModel(name) {
		return nil, fmt.Errorf("unknown transition model %q", name)
	}
	if NewTransitionModelFunc == nil {
		panic("NewTransitionModelFunc not registered: import github.com/trial-mdp/trial-mdp/mdp/transition")
	}
	return NewTransitionModelFunc(name, priors)
}

// TransitionIterator visits every next-block outcome (s_A, s_B) with
// 0 <= s_A <= a_A and 0 <= s_B <= a_B exactly once, arm B innermost.
//
// Thread-safety: NOT thread-safe.
type TransitionIterator struct {
	model        TransitionModel
	state        ContingencyTable
	sizeA, sizeB int
	succA, succB int
}

// NewTransitionIterator wraps a model. Call Reset before iterating.
func NewTransitionIterator(model TransitionModel) *TransitionIterator {
	return &TransitionIterator{model: model, succA: 1}
}

// Reset prepares the iterator (and its model) for a state and action.
func (it *TransitionIterator) Reset(ct ContingencyTable, sizeA, sizeB int) {
	it.state = ct
	it.sizeA = sizeA
	it.sizeB = sizeB
	it.succA = 0
	it.succB = 0
	it.model.SetStateAction(ct, sizeA, sizeB)
}

// Exhausted reports whether every outcome has been visited.
func (it *TransitionIterator) Exhausted() bool { return it.succA > it.sizeA }

// Advance moves to the next outcome.
func (it *TransitionIterator) Advance() {
	if it.succB < it.sizeB {
		it.succB++
		return
	}
	it.succB = 0
	it.succA++
}

// Successes returns the current outcome's successes on each arm.
func (it *TransitionIterator) Successes() (int, int) { return it.succA, it.succB }

// Prob returns the probability of the current outcome.
func (it *TransitionIterator) Prob() float64 { return it.model.Prob(it.succA, it.succB) }

// Value returns the state reached by the current outcome.
func (it *TransitionIterator) Value() ContingencyTable {
	return ContingencyTable{
		A0: it.state.A0 + uint16(it.sizeA-it.succA),
		A1: it.state.A1 + uint16(it.succA),
		B0: it.state.B0 + uint16(it.sizeB-it.succB),
		B1: it.state.B1 + uint16(it.succB),
	}
}
