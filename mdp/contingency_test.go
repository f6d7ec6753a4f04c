package mdp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContingencyTable_Counts(t *testing.T) {
	ct := NewContingencyTable(3, 1, 0, 2)
	assert.Equal(t, 6, ct.Total())
	assert.Equal(t, 4, ct.NA())
	assert.Equal(t, 2, ct.NB())
	assert.Equal(t, NewContingencyTable(0, 2, 3, 1), ct.Swapped())
	assert.Equal(t, NewContingencyTable(4, 3, 1, 2), ct.Add(NewContingencyTable(1, 2, 1, 0)))
}

func TestContingencyTable_OutOfRange_Panics(t *testing.T) {
	assert.Panics(t, func() { NewContingencyTable(-1, 0, 0, 0) })
	assert.Panics(t, func() { NewContingencyTable(0, 0, 0, MaxPatients+1) })
}

func TestContingencyTable_Key_DistinctForPermutedCounts(t *testing.T) {
	// GIVEN tables that share a multiset of counts in different positions
	tables := []ContingencyTable{
		NewContingencyTable(1, 2, 3, 4),
		NewContingencyTable(4, 3, 2, 1),
		NewContingencyTable(1, 2, 4, 3),
		NewContingencyTable(2, 1, 3, 4),
		NewContingencyTable(3, 4, 1, 2),
	}
	// THEN every key is distinct
	seen := make(map[uint64]ContingencyTable)
	for _, ct := range tables {
		if prev, dup := seen[ct.Key()]; dup {
			t.Errorf("key collision between %v and %v", prev, ct)
		}
		seen[ct.Key()] = ct
	}
}

func TestProportion_ZeroDenominator_DefaultsToHalf(t *testing.T) {
	assert.Equal(t, 0.5, proportion(0, 0))
	assert.Equal(t, 0.25, proportion(1, 4))
}
