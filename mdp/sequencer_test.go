package mdp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequencer_VisitsCheckpointsInDecreasingOrder(t *testing.T) {
	// GIVEN ladder [0, 2, 3]
	ladder := Ladder{0, 2, 3}

	// WHEN the sequencer runs to completion
	counts := make(map[int]int)
	var order []int
	for seq := NewSequencer(ladder); seq.HasMore(); seq.Advance() {
		idx := seq.Checkpoint()
		if len(order) == 0 || order[len(order)-1] != idx {
			order = append(order, idx)
		}
		if got := seq.State().Total(); got != ladder[idx] {
			t.Fatalf("state %v at checkpoint %d has total %d, want %d", seq.State(), idx, got, ladder[idx])
		}
		counts[idx]++
	}

	// THEN checkpoints appear terminal first, each with all its states
	assert.Equal(t, []int{2, 1, 0}, order)
	assert.Equal(t, map[int]int{2: StateCount(3), 1: StateCount(2), 0: 1}, counts)
}

func TestSequencer_AdvancePastEnd_IsNoop(t *testing.T) {
	seq := NewSequencer(Ladder{0, 1})
	for seq.HasMore() {
		seq.Advance()
	}
	seq.Advance()
	assert.False(t, seq.HasMore())
	assert.Equal(t, -1, seq.Checkpoint())
}
