package mdp

// Sequencer visits every (checkpoint, state) pair of a Ladder, checkpoints in
// decreasing order from the terminal index down to 0 and states within a
// checkpoint in SimplexIterator order.
//
// Thread-safety: NOT thread-safe.
type Sequencer struct {
	ladder Ladder
	idx    int
	states *SimplexIterator
}

// NewSequencer positions a Sequencer on the first state of the terminal
// checkpoint.
func NewSequencer(ladder Ladder) *Sequencer {
	idx := ladder.Terminal()
	return &Sequencer{
		ladder: ladder,
		idx:    idx,
		states: NewSimplexIterator(ladder[idx]),
	}
}

// Checkpoint returns the current checkpoint index.
func (s *Sequencer) Checkpoint() int { return s.idx }

// State returns the current state.
func (s *Sequencer) State() ContingencyTable { return s.states.Value() }

// HasMore reports whether State is still valid.
func (s *Sequencer) HasMore() bool { return s.idx >= 0 }

// Advance moves to the next state, stepping down one checkpoint when the
// current checkpoint's states are exhausted.
func (s *Sequencer) Advance() {
	if s.idx < 0 {
		return
	}
	s.states.Advance()
	if !s.states.Exhausted() {
		return
	}
	s.idx--
	if s.idx >= 0 {
		s.states.Reset(s.ladder[s.idx])
	}
}
