package mdp

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full problem definition for one solve run. Loadable from YAML
// via LoadConfig; every field can also be set from CLI flags.
type Config struct {
	NPatients      int     `yaml:"n_patients"`
	MinBlockSize   int     `yaml:"min_block_size"`
	BlockIncrement int     `yaml:"block_increment"`
	FailureCost    float64 `yaml:"failure_cost"`
	BlockCost      float64 `yaml:"block_cost"`
	PriorA0        float64 `yaml:"prior_a0"`
	PriorA1        float64 `yaml:"prior_a1"`
	PriorB0        float64 `yaml:"prior_b0"`
	PriorB1        float64 `yaml:"prior_b1"`
	Transition     string  `yaml:"transition"`
	Objective      string  `yaml:"objective"`
	AllocLower     float64 `yaml:"alloc_lower"`
	AllocUpper     float64 `yaml:"alloc_upper"`
	AllocCount     int     `yaml:"alloc_count"`
	MaxBlockSteps  int     `yaml:"max_block_steps"` // 0 = any later checkpoint
}

// DefaultConfig returns a Config with every optional field at its default.
// NPatients still has to be supplied.
func DefaultConfig() Config {
	return Config{
		MinBlockSize:   0,
		BlockIncrement: 1,
		FailureCost:    0,
		BlockCost:      0,
		PriorA0:        1,
		PriorA1:        1,
		PriorB0:        1,
		PriorB1:        1,
		Transition:     "beta_binom",
		Objective:      "wald",
		AllocLower:     0.2,
		AllocUpper:     0.8,
		AllocCount:     7,
	}
}

// LoadConfig reads a YAML config file on top of DefaultConfig. Unknown keys
// are errors so typos cannot silently fall back to defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading trial config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing trial config: %w", err)
	}
	return cfg, nil
}

// Priors returns the Beta pseudocounts.
func (c Config) Priors() Priors {
	return Priors{A0: c.PriorA0, A1: c.PriorA1, B0: c.PriorB0, B1: c.PriorB1}
}

// Validate checks names and parameter ranges.
func (c Config) Validate() error {
	if c.NPatients < 1 || c.NPatients > MaxPatients {
		return fmt.Errorf("n_patients must be in [1, %d], got %d", MaxPatients, c.NPatients)
	}
	if c.BlockIncrement < 1 {
		return fmt.Errorf("block_increment must be >= 1, got %d", c.BlockIncrement)
	}
	if c.MinBlockSize < 0 {
		return fmt.Errorf("min_block_size must be >= 0, got %d", c.MinBlockSize)
	}
	if !finiteNonNegative(c.FailureCost) {
		return fmt.Errorf("failure_cost must be finite and non-negative, got %v", c.FailureCost)
	}
	if !finiteNonNegative(c.BlockCost) {
		return fmt.Errorf("block_cost must be finite and non-negative, got %v", c.BlockCost)
	}
	if !IsValidTransitionModel(c.Transition) {
		return fmt.Errorf("unknown transition model %q", c.Transition)
	}
	if !IsValidObjective(c.Objective) {
		return fmt.Errorf("unknown objective %q", c.Objective)
	}
	priors := []struct {
		name string
		v    float64
	}{{"prior_a0", c.PriorA0}, {"prior_a1", c.PriorA1}, {"prior_b0", c.PriorB0}, {"prior_b1", c.PriorB1}}
	for _, p := range priors {
		name, v := p.name, p.v
		if !finiteNonNegative(v) {
			return fmt.Errorf("%s must be finite and non-negative, got %v", name, v)
		}
		if c.Transition == "beta_binom" && v == 0 {
			return fmt.Errorf("%s must be positive for beta_binom", name)
		}
	}
	if _, err := AllocationFractions(c.AllocLower, c.AllocUpper, c.AllocCount); err != nil {
		return err
	}
	if c.MaxBlockSteps < 0 {
		return fmt.Errorf("max_block_steps must be >= 0, got %d", c.MaxBlockSteps)
	}
	return nil
}

func finiteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
