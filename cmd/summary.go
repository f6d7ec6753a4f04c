package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/trial-mdp/trial-mdp/mdp/trace"
)

// printTraceSummary writes the per-solve totals and the distribution of
// chosen block sizes.
func printTraceSummary(w io.Writer, s *trace.TraceSummary) {
	fmt.Fprintln(w, "=== Solve Trace ===")
	fmt.Fprintf(w, "Checkpoints: %d\n", s.Checkpoints)
	fmt.Fprintf(w, "States: %s\n", humanize.Comma(int64(s.TotalStates)))
	fmt.Fprintf(w, "Actions scored: %s\n", humanize.Comma(s.TotalActions))
	fmt.Fprintf(w, "Outcomes visited: %s\n", humanize.Comma(s.TotalOutcomes))
	fmt.Fprintf(w, "Solve time: %v\n", s.TotalDuration)
	if s.Checkpoints > 0 {
		fmt.Fprintf(w, "Slowest checkpoint: %d (enrollment %d, %v)\n",
			s.Slowest.Index, s.Slowest.Enrollment, s.Slowest.Duration)
	}
	if len(s.BlockSizeDistribution) == 0 {
		return
	}
	sizes := make([]int, 0, len(s.BlockSizeDistribution))
	for size := range s.BlockSizeDistribution {
		sizes = append(sizes, size)
	}
	sort.Ints(sizes)
	fmt.Fprintln(w, "Chosen block sizes:")
	for _, size := range sizes {
		fmt.Fprintf(w, "  %d: %s\n", size, humanize.Comma(int64(s.BlockSizeDistribution[size])))
	}
}
