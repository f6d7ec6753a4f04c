package mdp

import (
	"fmt"
	"math"
)

// ActionChoice is an Action together with the checkpoint it lands on.
type ActionChoice struct {
	Action
	Target int
}

// AllocationFractions returns count evenly spaced fractions in [lower, upper].
// A single fraction is lower itself.
func AllocationFractions(lower, upper float64, count int) ([]float64, error) {
	if count < 1 {
		return nil, fmt.Errorf("alloc_count must be >= 1, got %d", count)
	}
	if math.IsNaN(lower) || math.IsNaN(upper) || lower < 0 || upper > 1 || lower > upper {
		return nil, fmt.Errorf("allocation bounds must satisfy 0 <= lower <= upper <= 1, got [%v, %v]", lower, upper)
	}
	fractions := make([]float64, count)
	if count == 1 {
		fractions[0] = lower
		return fractions, nil
	}
	step := (upper - lower) / float64(count-1)
	for i := range fractions {
		fractions[i] = lower + float64(i)*step
	}
	return fractions, nil
}

// ActionIterator enumerates the legal actions from a checkpoint: every later
// checkpoint within maxSteps ladder steps (ascending), and within each block
// size every distinct arm-A allocation implied by the fractions (ascending
// fraction order, first occurrence wins). Action lists are built once per
// checkpoint at construction, so Reset is O(1) and one iterator can be
// reused across all states.
//
// Thread-safety: NOT thread-safe; use Clone per goroutine.
type ActionIterator struct {
	byCheckpoint [][]ActionChoice
	cur          []ActionChoice
	pos          int
}

// NewActionIterator builds the per-checkpoint action lists. maxSteps <= 0
// means any later checkpoint is reachable.
func NewActionIterator(ladder Ladder, fractions []float64, maxSteps int) *ActionIterator {
	it := &ActionIterator{byCheckpoint: make([][]ActionChoice, ladder.Len())}
	for i := 0; i < ladder.Terminal(); i++ {
		last := ladder.Terminal()
		if maxSteps > 0 && i+maxSteps < last {
			last = i + maxSteps
		}
		var list []ActionChoice
		for j := i + 1; j <= last; j++ {
			size := ladder.BlockSize(i, j)
			first := len(list)
			for _, f := range fractions {
				a := int(math.Round(f * float64(size)))
				if containsAllocation(list[first:], a) {
					continue
				}
				list = append(list, ActionChoice{Action: Action{BlockSize: size, AAllocation: a}, Target: j})
			}
		}
		it.byCheckpoint[i] = list
	}
	return it
}

func containsAllocation(list []ActionChoice, a int) bool {
	for _, c := range list {
		if c.AAllocation == a {
			return true
		}
	}
	return false
}

// Clone returns an iterator sharing the immutable action lists.
func (it *ActionIterator) Clone() *ActionIterator {
	return &ActionIterator{byCheckpoint: it.byCheckpoint}
}

// Reset positions the iterator on the first action from checkpoint idx.
func (it *ActionIterator) Reset(idx int) {
	it.cur = it.byCheckpoint[idx]
	it.pos = 0
}

// Exhausted reports whether every action has been visited.
func (it *ActionIterator) Exhausted() bool { return it.pos >= len(it.cur) }

// Value returns the current action.
func (it *ActionIterator) Value() ActionChoice { return it.cur[it.pos] }

// Advance moves to the next action.
func (it *ActionIterator) Advance() { it.pos++ }

// Actions returns the full action list for checkpoint idx. The slice must
// not be modified.
func (it *ActionIterator) Actions(idx int) []ActionChoice { return it.byCheckpoint[idx] }
