package export

import "fmt"

// Phase names the export step that failed.
type Phase string

const (
	PhaseConnect Phase = "connect"
	PhaseSchema  Phase = "schema"
	PhaseInsert  Phase = "insert"
)

// Error reports a failed export. Chunk is the zero-based insert chunk for
// PhaseInsert and -1 otherwise. The results table is never modified by an
// export, so a failed export can simply be retried.
type Error struct {
	Phase Phase
	Chunk int
	Err   error
}

func (e *Error) Error() string {
	if e.Phase == PhaseInsert {
		return fmt.Sprintf("export %s failed at chunk %d: %v", e.Phase, e.Chunk, e.Err)
	}
	return fmt.Sprintf("export %s failed: %v", e.Phase, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func connectError(err error) error { return &Error{Phase: PhaseConnect, Chunk: -1, Err: err} }

func schemaError(err error) error { return &Error{Phase: PhaseSchema, Chunk: -1, Err: err} }
