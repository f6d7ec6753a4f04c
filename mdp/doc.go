// Package mdp computes exact optimal block-adaptive two-arm trial designs by
// backward induction over every reachable 2x2 outcome table.
//
// # Reading Guide
//
// Start with these files to understand the engine:
//   - contingency.go: ContingencyTable, the immutable state and cache key
//   - checkpoint.go: the cumulative-enrollment ladder that layers the DP
//   - solver.go: terminal phase, induction phase, and checkpoint barriers
//
// # Architecture
//
// The mdp package defines interfaces and the solve loop; implementations live in
// sub-packages:
//   - mdp/transition/: next-block outcome models (beta_binom, binom)
//   - mdp/export/: SQLite export of a solved ResultsTable and policy lookup
//   - mdp/trace/: per-checkpoint solve records
//
// Sub-packages register their implementations via init() functions that set
// package-level factory variables (NewTransitionModelFunc).
//
// # Key Interfaces
//
//   - TransitionModel: marginal outcome probabilities for one (state, action)
//   - TerminalRule: result record for a fully enrolled state
//   - LookaheadRule: derives current attributes from a resolved next state
package mdp
