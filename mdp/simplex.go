package mdp

const tableDims = 4

// SimplexIterator walks every ContingencyTable whose counts sum to a fixed
// total. Coordinates are ordered (A0, A1, B0, B1); each coordinate counts
// down from its remaining budget before the coordinate to its right moves,
// so the first table is (T,0,0,0) and the last is (0,0,0,T).
//
// Thread-safety: NOT thread-safe.
type SimplexIterator struct {
	total     int
	cur       [tableDims]int
	exhausted bool
}

// NewSimplexIterator creates an iterator positioned on the first table with
// the given total.
func NewSimplexIterator(total int) *SimplexIterator {
	it := &SimplexIterator{}
	it.Reset(total)
	return it
}

// Reset restarts the iteration for a new total.
func (it *SimplexIterator) Reset(total int) {
	if total < 0 || total > MaxPatients {
		panic("simplex total out of range")
	}
	it.total = total
	it.cur = [tableDims]int{total, 0, 0, 0}
	it.exhausted = false
}

// Total returns the fixed sum of every table produced.
func (it *SimplexIterator) Total() int { return it.total }

// Value returns the current table.
func (it *SimplexIterator) Value() ContingencyTable {
	return ContingencyTable{
		A0: uint16(it.cur[0]),
		A1: uint16(it.cur[1]),
		B0: uint16(it.cur[2]),
		B1: uint16(it.cur[3]),
	}
}

// Exhausted reports whether Advance has moved past the last table.
func (it *SimplexIterator) Exhausted() bool { return it.exhausted }

// Advance moves to the next table. The rightmost free coordinate that is
// still positive gives one unit away and the whole remainder carries into
// the coordinate after it.
func (it *SimplexIterator) Advance() {
	if it.exhausted {
		return
	}
	d := tableDims - 2
	for d >= 0 && it.cur[d] == 0 {
		d--
	}
	if d < 0 {
		it.exhausted = true
		return
	}
	it.cur[d]--
	rem := it.total
	for i := 0; i <= d; i++ {
		rem -= it.cur[i]
	}
	it.cur[d+1] = rem
	for i := d + 2; i < tableDims; i++ {
		it.cur[i] = 0
	}
}

// StateCount returns the number of tables with the given total, C(T+3, 3).
func StateCount(total int) int {
	t := total
	return (t + 3) * (t + 2) * (t + 1) / 6
}

// StateRank returns the zero-based position of ct in SimplexIterator order
// for its own total. It is the dense index used by ResultsTable shards.
func StateRank(ct ContingencyTable) int {
	t := ct.Total()
	r1 := t - int(ct.A0)
	r2 := r1 - int(ct.A1)
	return choose3(r1+2) + choose2(r2+1) + (r2 - int(ct.B0))
}

// choose3 returns C(n, 3) for n >= 0.
func choose3(n int) int {
	if n < 3 {
		return 0
	}
	return n * (n - 1) * (n - 2) / 6
}

// choose2 returns C(n, 2) for n >= 0.
func choose2(n int) int {
	if n < 2 {
		return 0
	}
	return n * (n - 1) / 2
}
