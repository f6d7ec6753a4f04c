// Package testutil provides float assertion helpers shared by the mdp test
// packages.
package testutil

import (
	"math"
	"testing"
)

// AssertFloat64Equal compares two float64 values with relative tolerance.
// Infinities must match exactly and NaN only equals NaN.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if math.IsNaN(want) || math.IsNaN(got) {
		if !(math.IsNaN(want) && math.IsNaN(got)) {
			t.Errorf("%s: got %v, want %v", name, got, want)
		}
		return
	}
	if math.IsInf(want, 0) || math.IsInf(got, 0) {
		if want != got {
			t.Errorf("%s: got %v, want %v", name, got, want)
		}
		return
	}
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertValuesEqual applies AssertFloat64Equal element-wise, naming each
// element by names[i] when names is long enough.
func AssertValuesEqual(t *testing.T, names []string, want, got []float64, relTol float64) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("value vector length: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		name := "value"
		if i < len(names) {
			name = names[i]
		}
		AssertFloat64Equal(t, name, want[i], got[i], relTol)
	}
}

// AssertBitIdentical fails unless want and got have identical bit patterns,
// which also distinguishes -0 from 0.
func AssertBitIdentical(t *testing.T, name string, want, got []float64) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("%s: length got %d, want %d", name, len(got), len(want))
	}
	for i := range want {
		if math.Float64bits(want[i]) != math.Float64bits(got[i]) {
			t.Errorf("%s[%d]: got %v, want %v", name, i, got[i], want[i])
		}
	}
}
