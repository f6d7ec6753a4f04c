package mdp

import "fmt"

// ContingencyTable counts observed outcomes per arm.
// A0/A1 are failures/successes on arm A, B0/B1 the same on arm B.
// It is a value type and is safe to use as a map key.
type ContingencyTable struct {
	A0 uint16
	A1 uint16
	B0 uint16
	B1 uint16
}

// NewContingencyTable builds a table from int counts. Negative or oversized
// counts are a programming error.
func NewContingencyTable(a0, a1, b0, b1 int) ContingencyTable {
	for _, v := range [4]int{a0, a1, b0, b1} {
		if v < 0 || v > MaxPatients {
			panic(fmt.Sprintf("contingency count %d out of range [0, %d]", v, MaxPatients))
		}
	}
	return ContingencyTable{A0: uint16(a0), A1: uint16(a1), B0: uint16(b0), B1: uint16(b1)}
}

// Total returns the number of enrolled patients.
func (ct ContingencyTable) Total() int {
	return int(ct.A0) + int(ct.A1) + int(ct.B0) + int(ct.B1)
}

// NA returns the number of patients on arm A.
func (ct ContingencyTable) NA() int { return int(ct.A0) + int(ct.A1) }

// NB returns the number of patients on arm B.
func (ct ContingencyTable) NB() int { return int(ct.B0) + int(ct.B1) }

// Swapped returns the table with the arm labels exchanged.
func (ct ContingencyTable) Swapped() ContingencyTable {
	return ContingencyTable{A0: ct.B0, A1: ct.B1, B0: ct.A0, B1: ct.A1}
}

// Key packs the four counts into one integer. Distinct tables always have
// distinct keys.
func (ct ContingencyTable) Key() uint64 {
	return uint64(ct.A0)<<48 | uint64(ct.A1)<<32 | uint64(ct.B0)<<16 | uint64(ct.B1)
}

// Add returns the element-wise sum of two tables.
func (ct ContingencyTable) Add(other ContingencyTable) ContingencyTable {
	return ContingencyTable{
		A0: ct.A0 + other.A0,
		A1: ct.A1 + other.A1,
		B0: ct.B0 + other.B0,
		B1: ct.B1 + other.B1,
	}
}

func (ct ContingencyTable) String() string {
	return fmt.Sprintf("[A: %d fail %d succ | B: %d fail %d succ]", ct.A0, ct.A1, ct.B0, ct.B1)
}

// proportion returns num/den, or 0.5 when den is zero.
func proportion(num, den int) float64 {
	if den == 0 {
		return 0.5
	}
	return float64(num) / float64(den)
}
