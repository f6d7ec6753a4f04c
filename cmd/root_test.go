package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trial-mdp/trial-mdp/mdp"
	"github.com/trial-mdp/trial-mdp/mdp/export"
	"github.com/trial-mdp/trial-mdp/mdp/trace"
)

func newTrialFlagSet(cfg *mdp.Config) *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	bindTrialFlags(fs, cfg)
	return fs
}

func TestBindTrialFlags_EveryFieldRegistered(t *testing.T) {
	cfg := mdp.DefaultConfig()
	fs := newTrialFlagSet(&cfg)
	for _, f := range trialFlags {
		assert.NotNil(t, fs.Lookup(f.name), "flag %s not registered", f.name)
	}
	n := 0
	fs.VisitAll(func(*pflag.Flag) { n++ })
	assert.Equal(t, len(trialFlags), n, "trialFlags out of sync with bindTrialFlags")
}

func TestResolveConfig_NoFile_UsesFlags(t *testing.T) {
	cfg := mdp.DefaultConfig()
	fs := newTrialFlagSet(&cfg)
	require.NoError(t, fs.Parse([]string{"--n-patients=12", "--objective=cmh"}))

	got, err := resolveConfig(fs, "", cfg)
	require.NoError(t, err)
	assert.Equal(t, 12, got.NPatients)
	assert.Equal(t, "cmh", got.Objective)
	assert.Equal(t, "beta_binom", got.Transition)
}

func TestResolveConfig_ChangedFlagsOverrideFile(t *testing.T) {
	// GIVEN a config file with n_patients 30 and objective wald
	path := filepath.Join(t.TempDir(), "trial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("n_patients: 30\nobjective: wald\nfailure_cost: 0.2\n"), 0o644))

	// AND the user sets --objective and --alloc-count only
	cfg := mdp.DefaultConfig()
	fs := newTrialFlagSet(&cfg)
	require.NoError(t, fs.Parse([]string{"--objective=harmonic_mean", "--alloc-count=3"}))

	// WHEN resolved
	got, err := resolveConfig(fs, path, cfg)
	require.NoError(t, err)

	// THEN the set flags win and everything else comes from the file
	assert.Equal(t, "harmonic_mean", got.Objective)
	assert.Equal(t, 3, got.AllocCount)
	assert.Equal(t, 30, got.NPatients)
	assert.Equal(t, 0.2, got.FailureCost)
}

func TestResolveConfig_InvalidMerge_Fails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("n_patients: 30\n"), 0o644))
	cfg := mdp.DefaultConfig()
	fs := newTrialFlagSet(&cfg)
	require.NoError(t, fs.Parse([]string{"--transition=poisson"}))

	_, err := resolveConfig(fs, path, cfg)
	assert.Error(t, err)
}

func TestParseState(t *testing.T) {
	ct, err := parseState([]int{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, mdp.NewContingencyTable(1, 2, 3, 4), ct)

	_, err = parseState([]int{1, 2, 3})
	assert.Error(t, err)
	_, err = parseState([]int{1, -2, 3, 4})
	assert.Error(t, err)
}

func TestRunSolve_ExportAndMetrics(t *testing.T) {
	// GIVEN a small trial with export, metrics and tracing requested
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "policy.db")
	metricsOut = filepath.Join(dir, "metrics.prom")
	traceLevel = string(trace.TraceLevelCheckpoints)
	workers, batchSize, chunkSize, retain = 2, 0, 7, false
	t.Cleanup(func() { dbPath, metricsOut, traceLevel = "", "", "none" })

	cfg := mdp.DefaultConfig()
	cfg.NPatients = 4

	// WHEN solved
	var out bytes.Buffer
	require.NoError(t, runSolve(context.Background(), cfg, &out))

	// THEN the first move, the trace summary and the export line are printed
	text := out.String()
	assert.Contains(t, text, "Block size:")
	assert.Contains(t, text, "=== Solve Trace ===")
	assert.Contains(t, text, "Policy exported to "+dbPath)

	// AND the export holds the opening state
	entry, ok, err := export.Lookup(context.Background(), dbPath, mdp.ContingencyTable{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Positive(t, entry.Action.BlockSize)

	// AND metrics were written in text format
	metrics, err := os.ReadFile(metricsOut)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(metrics), "trialmdp_states_resolved_total"))
}

func TestPrintEntry(t *testing.T) {
	var out bytes.Buffer
	printEntry(&out, export.Entry{
		State:      mdp.NewContingencyTable(1, 0, 0, 1),
		Action:     mdp.Action{BlockSize: 2, AAllocation: 1},
		Attributes: []string{"WaldStatistic"},
		Values:     []float64{2},
	})
	assert.Contains(t, out.String(), "State: [A: 1 fail 0 succ | B: 0 fail 1 succ]")
	assert.Contains(t, out.String(), "WaldStatistic: 2.000000")
}

func TestPrintTraceSummary_SortsBlockSizes(t *testing.T) {
	var out bytes.Buffer
	printTraceSummary(&out, &trace.TraceSummary{
		Checkpoints:           2,
		TotalStates:           1500,
		BlockSizeDistribution: map[int]int{4: 1, 2: 1200},
	})
	text := out.String()
	assert.Contains(t, text, "States: 1,500")
	assert.Less(t, strings.Index(text, "  2: 1,200"), strings.Index(text, "  4: 1"))
}
