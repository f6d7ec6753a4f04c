package mdp

import "fmt"

// MaxPatients is the largest enrollment a ContingencyTable count can hold.
const MaxPatients = 1<<16 - 1

// Ladder is the strictly increasing sequence of cumulative enrollments at
// which the trial may pause: 0 = c0 < c1 < ... < cK = N.
type Ladder []int

// BuildLadder lays out checkpoints for nPatients. Intermediate checkpoints
// are multiples of blockIncr that are at least minBlockSize and leave at
// least minBlockSize patients for the final block; the last step lands on
// nPatients exactly and may be irregular.
func BuildLadder(nPatients, minBlockSize, blockIncr int) (Ladder, error) {
	if nPatients < 1 || nPatients > MaxPatients {
		return nil, fmt.Errorf("n_patients must be in [1, %d], got %d", MaxPatients, nPatients)
	}
	if blockIncr < 1 {
		return nil, fmt.Errorf("block_increment must be >= 1, got %d", blockIncr)
	}
	if minBlockSize < 0 {
		return nil, fmt.Errorf("min_block_size must be >= 0, got %d", minBlockSize)
	}
	ladder := Ladder{0}
	for c := blockIncr; c <= nPatients-minBlockSize; c += blockIncr {
		if c >= minBlockSize && c < nPatients {
			ladder = append(ladder, c)
		}
	}
	ladder = append(ladder, nPatients)
	return ladder, nil
}

// Len returns the number of checkpoints, K+1.
func (l Ladder) Len() int { return len(l) }

// Terminal returns the index of the full-enrollment checkpoint.
func (l Ladder) Terminal() int { return len(l) - 1 }

// N returns the total patient count.
func (l Ladder) N() int { return l[len(l)-1] }

// BlockSize returns the number of patients enrolled when moving from
// checkpoint i to checkpoint j.
func (l Ladder) BlockSize(i, j int) int { return l[j] - l[i] }

// IndexOf returns the checkpoint index holding the given cumulative
// enrollment, or -1.
func (l Ladder) IndexOf(total int) int {
	lo, hi := 0, len(l)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		switch {
		case l[mid] == total:
			return mid
		case l[mid] < total:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	return -1
}
