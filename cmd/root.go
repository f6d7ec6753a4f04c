package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/trial-mdp/trial-mdp/mdp"
	"github.com/trial-mdp/trial-mdp/mdp/export"
	"github.com/trial-mdp/trial-mdp/mdp/trace"
	_ "github.com/trial-mdp/trial-mdp/mdp/transition"
)

var (
	// Trial definition flags; see bindTrialFlags
	trial = mdp.DefaultConfig()

	// Run flags
	configPath string // YAML trial config; flags override its fields
	logLevel   string // Log verbosity level
	dbPath     string // SQLite file to export the policy to
	chunkSize  int    // Rows per export transaction
	workers    int    // Goroutines per checkpoint
	batchSize  int    // States handed to a worker at a time
	retain     bool   // Keep every results shard in memory
	metricsOut string // Prometheus text file written after the solve
	traceLevel string // Solve trace verbosity
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "trial-mdp",
	Short: "Exact optimal adaptive two-arm trial designs by backward induction",
}

// solveCmd computes the policy from parameters in the config file and flags
var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve the trial design and optionally export the policy",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg, err := resolveConfig(cmd.Flags(), configPath, trial)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Unknown trace level %q; valid: none, checkpoints", traceLevel)
		}
		if err := runSolve(cmd.Context(), cfg, os.Stdout); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// runSolve solves cfg, prints the opening move to out and performs the
// requested export and metrics dump.
func runSolve(ctx context.Context, cfg mdp.Config, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	opts := mdp.SolverOptions{
		Workers:      workers,
		BatchSize:    batchSize,
		RetainShards: retain || dbPath != "",
	}
	var reg *prometheus.Registry
	if metricsOut != "" {
		reg = prometheus.NewRegistry()
		opts.Metrics = reg
	}
	var st *trace.SolveTrace
	if trace.TraceLevel(traceLevel) == trace.TraceLevelCheckpoints {
		st = trace.NewSolveTrace(trace.TraceLevelCheckpoints)
		opts.Trace = st
	}

	logrus.Infof("Solving n_patients=%d objective=%s transition=%s with %d workers",
		cfg.NPatients, cfg.Objective, cfg.Transition, max(1, workers))
	solver, err := mdp.NewSolver(cfg, opts)
	if err != nil {
		return err
	}
	logrus.Infof("Checkpoint ladder: %v", []int(solver.Ladder()))
	first, err := solver.Solve()
	if err != nil {
		return fmt.Errorf("solve failed: %w", err)
	}

	fmt.Fprint(out, solver.Objective().Format(first))
	if st != nil {
		printTraceSummary(out, trace.Summarize(st))
	}

	if dbPath != "" {
		run := export.NewRunInfo(cfg)
		if _, err := export.Export(ctx, dbPath, solver.Results(), solver.Objective(),
			export.Options{ChunkSize: chunkSize, Run: run}); err != nil {
			return err
		}
		fmt.Fprintf(out, "Policy exported to %s (run %s)\n", dbPath, run.RunID)
	}
	if reg != nil {
		if err := prometheus.WriteToTextfile(metricsOut, reg); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
		logrus.Infof("Metrics written to %s", metricsOut)
	}
	return nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	solveCmd.Flags().StringVar(&configPath, "config", "", "YAML trial config file; explicitly set flags override it")
	solveCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	bindTrialFlags(solveCmd.Flags(), &trial)

	// Execution
	solveCmd.Flags().IntVar(&workers, "workers", runtime.GOMAXPROCS(0), "Goroutines resolving states of one checkpoint")
	solveCmd.Flags().IntVar(&batchSize, "batch-size", 0, "States per worker batch (0 = default)")
	solveCmd.Flags().BoolVar(&retain, "retain", false, "Keep every checkpoint's results in memory (implied by --db)")

	// Outputs
	solveCmd.Flags().StringVar(&dbPath, "db", "", "SQLite file to export the full policy to")
	solveCmd.Flags().IntVar(&chunkSize, "chunk-size", export.DefaultChunkSize, "Rows per export transaction")
	solveCmd.Flags().StringVar(&metricsOut, "metrics-out", "", "Write Prometheus metrics in text format to this file")
	solveCmd.Flags().StringVar(&traceLevel, "trace", "none", "Solve trace level (none, checkpoints)")

	rootCmd.AddCommand(solveCmd)
	rootCmd.AddCommand(lookupCmd)
}
