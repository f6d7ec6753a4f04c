package mdp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trial-mdp/trial-mdp/mdp/internal/testutil"
)

func TestAllocationFractions(t *testing.T) {
	got, err := AllocationFractions(0.2, 0.8, 7)
	require.NoError(t, err)
	require.Len(t, got, 7)
	want := []float64{0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8}
	for i := range want {
		testutil.AssertFloat64Equal(t, "fraction", want[i], got[i], 1e-12)
	}

	single, err := AllocationFractions(0.4, 0.9, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.4}, single)
}

func TestAllocationFractions_Invalid(t *testing.T) {
	tests := []struct {
		name         string
		lower, upper float64
		count        int
	}{
		{"zero count", 0.2, 0.8, 0},
		{"lower above upper", 0.8, 0.2, 3},
		{"negative lower", -0.1, 0.5, 3},
		{"upper above one", 0.5, 1.1, 3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := AllocationFractions(tc.lower, tc.upper, tc.count)
			assert.Error(t, err)
		})
	}
}

func TestActionIterator_DeduplicatesRoundedAllocations(t *testing.T) {
	// GIVEN a single block of 10 and fractions that round to 5, 5 and 6
	it := NewActionIterator(Ladder{0, 10}, []float64{0.45, 0.5, 0.55}, 0)

	// WHEN enumerated from the opening checkpoint
	var got []ActionChoice
	for it.Reset(0); !it.Exhausted(); it.Advance() {
		got = append(got, it.Value())
	}

	// THEN the duplicate split appears once, in first-seen order
	// (0.45*10 rounds half away from zero to 5)
	assert.Equal(t, []ActionChoice{
		{Action: Action{BlockSize: 10, AAllocation: 5}, Target: 1},
		{Action: Action{BlockSize: 10, AAllocation: 6}, Target: 1},
	}, got)
}

func TestActionIterator_OrderAndReachability(t *testing.T) {
	ladder := Ladder{0, 2, 4}
	fractions := []float64{0, 0.5, 1}

	tests := []struct {
		name     string
		maxSteps int
		idx      int
		want     []ActionChoice
	}{
		{
			name: "any later checkpoint", maxSteps: 0, idx: 0,
			want: []ActionChoice{
				{Action{2, 0}, 1}, {Action{2, 1}, 1}, {Action{2, 2}, 1},
				{Action{4, 0}, 2}, {Action{4, 2}, 2}, {Action{4, 4}, 2},
			},
		},
		{
			name: "one step only", maxSteps: 1, idx: 0,
			want: []ActionChoice{{Action{2, 0}, 1}, {Action{2, 1}, 1}, {Action{2, 2}, 1}},
		},
		{
			name: "from last intermediate", maxSteps: 0, idx: 1,
			want: []ActionChoice{{Action{2, 0}, 2}, {Action{2, 1}, 2}, {Action{2, 2}, 2}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			it := NewActionIterator(ladder, fractions, tc.maxSteps)
			assert.Equal(t, tc.want, it.Actions(tc.idx))
		})
	}
}

func TestActionIterator_TerminalHasNoActions(t *testing.T) {
	it := NewActionIterator(Ladder{0, 3}, []float64{0.5}, 0)
	it.Reset(1)
	assert.True(t, it.Exhausted())
}

func TestActionIterator_CloneIsIndependent(t *testing.T) {
	it := NewActionIterator(Ladder{0, 4}, []float64{0.25, 0.75}, 0)
	it.Reset(0)
	clone := it.Clone()
	clone.Reset(0)
	clone.Advance()

	assert.Equal(t, 1, it.Value().AAllocation)
	assert.Equal(t, 3, clone.Value().AAllocation)
}
