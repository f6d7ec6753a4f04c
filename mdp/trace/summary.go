package trace

import "time"

// TraceSummary aggregates statistics from a SolveTrace.
type TraceSummary struct {
	Checkpoints   int
	TotalStates   int
	TotalActions  int64
	TotalOutcomes int64
	TotalDuration time.Duration
	Slowest       CheckpointRecord
	// BlockSizeDistribution merges ChosenBlockSizes over every checkpoint.
	BlockSizeDistribution map[int]int
}

// Summarize computes aggregate statistics from a SolveTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SolveTrace) *TraceSummary {
	summary := &TraceSummary{
		BlockSizeDistribution: make(map[int]int),
	}
	if st == nil {
		return summary
	}

	summary.Checkpoints = len(st.Checkpoints)
	for _, r := range st.Checkpoints {
		summary.TotalStates += r.States
		summary.TotalActions += r.Actions
		summary.TotalOutcomes += r.Outcomes
		summary.TotalDuration += r.Duration
		if r.Duration > summary.Slowest.Duration {
			summary.Slowest = r
		}
		for size, n := range r.ChosenBlockSizes {
			summary.BlockSizeDistribution[size] += n
		}
	}
	return summary
}
