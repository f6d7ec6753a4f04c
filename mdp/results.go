package mdp

import "fmt"

// Action is one next-block design: how many patients to enroll and how many
// of them go to arm A.
type Action struct {
	BlockSize   int
	AAllocation int
}

// BAllocation returns the number of patients assigned to arm B.
func (a Action) BAllocation() int { return a.BlockSize - a.AAllocation }

// StateResult is the resolved record for one (checkpoint, state) pair: the
// chosen action and the objective's attribute vector. Values is owned by the
// StateResult; the table copies on both read and write.
type StateResult struct {
	Action Action
	Values []float64
}

// NewStateResult allocates a zeroed record with nAttr attributes.
func NewStateResult(nAttr int) StateResult {
	return StateResult{Values: make([]float64, nAttr)}
}

// Clone returns a deep copy.
func (r StateResult) Clone() StateResult {
	return StateResult{Action: r.Action, Values: append([]float64(nil), r.Values...)}
}

type packedAction struct {
	size  uint16
	alloc uint16
}

// shard holds every state of one checkpoint as dense slabs indexed by
// StateRank. No per-entry key is stored.
type shard struct {
	total    int
	actions  []packedAction
	values   []float64
	resolved []bool
}

func newShard(total, nAttr int) *shard {
	n := StateCount(total)
	return &shard{
		total:    total,
		actions:  make([]packedAction, n),
		values:   make([]float64, n*nAttr),
		resolved: make([]bool, n),
	}
}

// ResultsTable maps (checkpoint index, state) to a StateResult, sharded by
// checkpoint. Shards are allocated lazily by Allocate and may be dropped by
// Release once nothing will read them again.
//
// Concurrent Put calls are safe only for distinct states; Put must not race
// with reads of the same shard.
type ResultsTable struct {
	ladder Ladder
	nAttr  int
	shards []*shard
}

// NewResultsTable creates an empty table for the ladder.
func NewResultsTable(ladder Ladder, nAttr int) *ResultsTable {
	return &ResultsTable{
		ladder: ladder,
		nAttr:  nAttr,
		shards: make([]*shard, ladder.Len()),
	}
}

// Ladder returns the checkpoint ladder the table is sharded by.
func (t *ResultsTable) Ladder() Ladder { return t.ladder }

// NumAttributes returns the length of every record's attribute vector.
func (t *ResultsTable) NumAttributes() int { return t.nAttr }

// Allocate reserves storage for checkpoint idx. It is a no-op for an
// already allocated shard.
func (t *ResultsTable) Allocate(idx int) {
	if t.shards[idx] == nil {
		t.shards[idx] = newShard(t.ladder[idx], t.nAttr)
	}
}

// Release drops the storage for checkpoint idx.
func (t *ResultsTable) Release(idx int) {
	t.shards[idx] = nil
}

// Allocated reports whether checkpoint idx currently has storage.
func (t *ResultsTable) Allocated(idx int) bool { return t.shards[idx] != nil }

// Complete reports whether every checkpoint still has storage and every
// state in it is resolved.
func (t *ResultsTable) Complete() bool {
	for _, s := range t.shards {
		if s == nil {
			return false
		}
		for _, ok := range s.resolved {
			if !ok {
				return false
			}
		}
	}
	return true
}

func (t *ResultsTable) locate(idx int, ct ContingencyTable) (*shard, int) {
	s := t.shards[idx]
	if s == nil || ct.Total() != s.total {
		return nil, -1
	}
	return s, StateRank(ct)
}

// Put stores res for (idx, ct). Each key is written at most once; a second
// write, a write to an unallocated shard, or a state whose total does not
// match the checkpoint is an error.
func (t *ResultsTable) Put(idx int, ct ContingencyTable, res StateResult) error {
	if len(res.Values) != t.nAttr {
		return fmt.Errorf("result has %d attributes, table expects %d", len(res.Values), t.nAttr)
	}
	s, r := t.locate(idx, ct)
	if s == nil {
		return fmt.Errorf("no shard for checkpoint %d holding state %v", idx, ct)
	}
	if s.resolved[r] {
		return fmt.Errorf("state %v at checkpoint %d already resolved", ct, idx)
	}
	s.actions[r] = packedAction{size: uint16(res.Action.BlockSize), alloc: uint16(res.Action.AAllocation)}
	copy(s.values[r*t.nAttr:(r+1)*t.nAttr], res.Values)
	s.resolved[r] = true
	return nil
}

// ReadInto copies the attributes for (idx, ct) into dst and returns the
// stored action. Unresolved keys leave dst zeroed and report false.
func (t *ResultsTable) ReadInto(idx int, ct ContingencyTable, dst []float64) (Action, bool) {
	s, r := t.locate(idx, ct)
	if s == nil || !s.resolved[r] {
		for i := range dst {
			dst[i] = 0
		}
		return Action{}, false
	}
	copy(dst, s.values[r*t.nAttr:(r+1)*t.nAttr])
	p := s.actions[r]
	return Action{BlockSize: int(p.size), AAllocation: int(p.alloc)}, true
}

// Get returns a copy of the record for (idx, ct), or a zero record and false.
func (t *ResultsTable) Get(idx int, ct ContingencyTable) (StateResult, bool) {
	res := NewStateResult(t.nAttr)
	action, ok := t.ReadInto(idx, ct, res.Values)
	res.Action = action
	return res, ok
}

// Len returns the number of resolved entries across all allocated shards.
func (t *ResultsTable) Len() int {
	n := 0
	for _, s := range t.shards {
		if s == nil {
			continue
		}
		for _, ok := range s.resolved {
			if ok {
				n++
			}
		}
	}
	return n
}

// Bytes estimates the resident size of the allocated shards.
func (t *ResultsTable) Bytes() int64 {
	var n int64
	for _, s := range t.shards {
		if s == nil {
			continue
		}
		n += int64(len(s.actions))*4 + int64(len(s.values))*8 + int64(len(s.resolved))
	}
	return n
}

// Each calls fn for every resolved entry, checkpoints from terminal down to
// 0 and states in SimplexIterator order. Released shards are skipped. The
// StateResult passed to fn is reused between calls; Clone it to keep it.
func (t *ResultsTable) Each(fn func(idx int, ct ContingencyTable, res StateResult) error) error {
	res := NewStateResult(t.nAttr)
	for idx := t.ladder.Terminal(); idx >= 0; idx-- {
		if t.shards[idx] == nil {
			continue
		}
		for it := NewSimplexIterator(t.ladder[idx]); !it.Exhausted(); it.Advance() {
			ct := it.Value()
			action, ok := t.ReadInto(idx, ct, res.Values)
			if !ok {
				continue
			}
			res.Action = action
			if err := fn(idx, ct, res); err != nil {
				return err
			}
		}
	}
	return nil
}
