package trace

// TraceLevel controls the verbosity of solve tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing.
	TraceLevelNone TraceLevel = "none"
	// TraceLevelCheckpoints records one CheckpointRecord per checkpoint.
	TraceLevelCheckpoints TraceLevel = "checkpoints"
)

var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:        true,
	TraceLevelCheckpoints: true,
	"":                    true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// SolveTrace collects checkpoint records during a solve, in resolution order
// (terminal checkpoint first).
type SolveTrace struct {
	Level       TraceLevel
	Checkpoints []CheckpointRecord
}

// NewSolveTrace creates a SolveTrace ready for recording.
func NewSolveTrace(level TraceLevel) *SolveTrace {
	return &SolveTrace{
		Level:       level,
		Checkpoints: make([]CheckpointRecord, 0),
	}
}

// Enabled reports whether records should be collected.
func (st *SolveTrace) Enabled() bool {
	return st != nil && st.Level == TraceLevelCheckpoints
}

// RecordCheckpoint appends a checkpoint record.
func (st *SolveTrace) RecordCheckpoint(record CheckpointRecord) {
	st.Checkpoints = append(st.Checkpoints, record)
}
