package mdp

import "math"

// TerminalRule computes the record values of a fully enrolled state.
type TerminalRule interface {
	Apply(ct ContingencyTable, dst []float64)
}

// WaldStatistic returns the two-arm Wald (equivalently chi-square) statistic
// (p_A - p_B)^2 / (P(1-P)) * N_A N_B / N. It is -Inf when either arm is empty
// and 0 when the pooled rate is 0 or 1.
func WaldStatistic(ct ContingencyTable) float64 {
	na, nb := ct.NA(), ct.NB()
	if na == 0 || nb == 0 {
		return math.Inf(-1)
	}
	n := na + nb
	pa := proportion(int(ct.A1), na)
	pb := proportion(int(ct.B1), nb)
	pooled := proportion(int(ct.A1)+int(ct.B1), n)
	if pooled == 0 || pooled == 1 {
		return 0
	}
	d := pa - pb
	return d * d / (pooled * (1 - pooled)) * float64(na) * float64(nb) / float64(n)
}

// ExcessFailures estimates how many patients got the inferior arm's success
// rate instead of the superior arm's: |p_A - p_B| times the inferior arm's
// size.
func ExcessFailures(ct ContingencyTable) float64 {
	na, nb := ct.NA(), ct.NB()
	pa := proportion(int(ct.A1), na)
	pb := proportion(int(ct.B1), nb)
	if pa >= pb {
		return (pa - pb) * float64(nb)
	}
	return (pb - pa) * float64(na)
}

// accumulatorStatistic is the terminal value of statistics built up block by
// block: nothing has accrued after the last block.
func accumulatorStatistic(ct ContingencyTable) float64 {
	if ct.NA() == 0 || ct.NB() == 0 {
		return math.Inf(-1)
	}
	return 0
}

// statFailureTerminal scores a terminal state as statistic minus weighted
// excess failures. Attributes it does not name (accumulator terms) are 0 and
// no blocks remain.
type statFailureTerminal struct {
	statistic   func(ContingencyTable) float64
	stat        int
	failures    int
	blocks      int
	reward      int
	failureCost float64
}

func (t *statFailureTerminal) Apply(ct ContingencyTable, dst []float64) {
	for i := range dst {
		dst[i] = 0
	}
	stat := t.statistic(ct)
	failures := ExcessFailures(ct)
	dst[t.stat] = stat
	dst[t.failures] = failures
	dst[t.blocks] = 0
	dst[t.reward] = stat - t.failureCost*failures
}
