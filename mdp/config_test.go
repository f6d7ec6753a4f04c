package mdp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trial.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_OverlaysDefaults(t *testing.T) {
	// GIVEN a file setting only a few fields
	path := writeConfig(t, `
n_patients: 40
min_block_size: 5
failure_cost: 0.25
objective: scaled_cmh
`)

	// WHEN loaded
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	// THEN file values win and the rest keep their defaults
	assert.Equal(t, 40, cfg.NPatients)
	assert.Equal(t, 5, cfg.MinBlockSize)
	assert.Equal(t, 0.25, cfg.FailureCost)
	assert.Equal(t, "scaled_cmh", cfg.Objective)
	assert.Equal(t, "beta_binom", cfg.Transition)
	assert.Equal(t, 1, cfg.BlockIncrement)
	assert.Equal(t, 7, cfg.AllocCount)
	assert.Equal(t, Priors{A0: 1, A1: 1, B0: 1, B1: 1}, cfg.Priors())
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_UnknownKey_Rejected(t *testing.T) {
	path := writeConfig(t, "n_patients: 10\nfailure_costs: 1\n")
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := DefaultConfig()
	valid.NPatients = 10

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero patients", func(c *Config) { c.NPatients = 0 }, true},
		{"too many patients", func(c *Config) { c.NPatients = MaxPatients + 1 }, true},
		{"zero increment", func(c *Config) { c.BlockIncrement = 0 }, true},
		{"negative min block", func(c *Config) { c.MinBlockSize = -1 }, true},
		{"negative failure cost", func(c *Config) { c.FailureCost = -0.1 }, true},
		{"unknown model", func(c *Config) { c.Transition = "poisson" }, true},
		{"unknown objective", func(c *Config) { c.Objective = "lr" }, true},
		{"zero prior beta_binom", func(c *Config) { c.PriorB1 = 0 }, true},
		{"zero prior binom", func(c *Config) { c.Transition = "binom"; c.PriorB1 = 0 }, false},
		{"inverted bounds", func(c *Config) { c.AllocLower, c.AllocUpper = 0.9, 0.1 }, true},
		{"negative max steps", func(c *Config) { c.MaxBlockSteps = -1 }, true},
		{"one step", func(c *Config) { c.MaxBlockSteps = 1 }, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
