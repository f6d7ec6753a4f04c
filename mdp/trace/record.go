// Package trace provides per-checkpoint solve records for progress and policy
// analysis. It has no dependencies on mdp/ and stores pure data types.
package trace

import "time"

// Phase names the solver phase a checkpoint was resolved in.
type Phase string

const (
	PhaseTerminal  Phase = "terminal"
	PhaseInduction Phase = "induction"
)

// CheckpointRecord captures the work done to resolve one checkpoint.
type CheckpointRecord struct {
	Index      int
	Enrollment int
	Phase      Phase
	States     int
	Actions    int64 // actions scored across all states
	Outcomes   int64 // next-block outcomes visited across all actions
	Duration   time.Duration
	// ChosenBlockSizes maps a chosen block size to how many states picked it.
	// Nil for the terminal checkpoint.
	ChosenBlockSizes map[int]int
}
