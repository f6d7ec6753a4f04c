package cmd

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/trial-mdp/trial-mdp/mdp"
)

// trialFlag ties one CLI flag to the Config field it sets.
type trialFlag struct {
	name string
	copy func(dst *mdp.Config, src mdp.Config)
}

// trialFlags lists every flag bindTrialFlags registers, in registration order.
var trialFlags = []trialFlag{
	{"n-patients", func(d *mdp.Config, s mdp.Config) { d.NPatients = s.NPatients }},
	{"min-block-size", func(d *mdp.Config, s mdp.Config) { d.MinBlockSize = s.MinBlockSize }},
	{"block-increment", func(d *mdp.Config, s mdp.Config) { d.BlockIncrement = s.BlockIncrement }},
	{"failure-cost", func(d *mdp.Config, s mdp.Config) { d.FailureCost = s.FailureCost }},
	{"block-cost", func(d *mdp.Config, s mdp.Config) { d.BlockCost = s.BlockCost }},
	{"prior-a0", func(d *mdp.Config, s mdp.Config) { d.PriorA0 = s.PriorA0 }},
	{"prior-a1", func(d *mdp.Config, s mdp.Config) { d.PriorA1 = s.PriorA1 }},
	{"prior-b0", func(d *mdp.Config, s mdp.Config) { d.PriorB0 = s.PriorB0 }},
	{"prior-b1", func(d *mdp.Config, s mdp.Config) { d.PriorB1 = s.PriorB1 }},
	{"transition", func(d *mdp.Config, s mdp.Config) { d.Transition = s.Transition }},
	{"objective", func(d *mdp.Config, s mdp.Config) { d.Objective = s.Objective }},
	{"alloc-lower", func(d *mdp.Config, s mdp.Config) { d.AllocLower = s.AllocLower }},
	{"alloc-upper", func(d *mdp.Config, s mdp.Config) { d.AllocUpper = s.AllocUpper }},
	{"alloc-count", func(d *mdp.Config, s mdp.Config) { d.AllocCount = s.AllocCount }},
	{"max-block-steps", func(d *mdp.Config, s mdp.Config) { d.MaxBlockSteps = s.MaxBlockSteps }},
}

// bindTrialFlags registers one flag per Config field, defaulting to the
// values already in cfg.
func bindTrialFlags(fs *pflag.FlagSet, cfg *mdp.Config) {
	// Trial size and checkpoints
	fs.IntVar(&cfg.NPatients, "n-patients", cfg.NPatients, "Total number of patients N")
	fs.IntVar(&cfg.MinBlockSize, "min-block-size", cfg.MinBlockSize, "Smallest allowed enrollment block")
	fs.IntVar(&cfg.BlockIncrement, "block-increment", cfg.BlockIncrement, "Spacing between intermediate checkpoints")

	// Objective
	fs.Float64Var(&cfg.FailureCost, "failure-cost", cfg.FailureCost, "Penalty per expected excess failure")
	fs.Float64Var(&cfg.BlockCost, "block-cost", cfg.BlockCost, "Penalty per enrollment block")
	fs.StringVar(&cfg.Objective, "objective", cfg.Objective,
		"Objective (wald, cmh, scaled_cmh, scaled_cmh_2nd_order, harmonic_mean, block_harmonic_mean, harmonic_mean_dsq)")

	// Outcome model
	fs.StringVar(&cfg.Transition, "transition", cfg.Transition, "Transition model (beta_binom, binom)")
	fs.Float64Var(&cfg.PriorA0, "prior-a0", cfg.PriorA0, "Beta prior failures, arm A")
	fs.Float64Var(&cfg.PriorA1, "prior-a1", cfg.PriorA1, "Beta prior successes, arm A")
	fs.Float64Var(&cfg.PriorB0, "prior-b0", cfg.PriorB0, "Beta prior failures, arm B")
	fs.Float64Var(&cfg.PriorB1, "prior-b1", cfg.PriorB1, "Beta prior successes, arm B")

	// Actions
	fs.Float64Var(&cfg.AllocLower, "alloc-lower", cfg.AllocLower, "Lowest arm-A allocation fraction")
	fs.Float64Var(&cfg.AllocUpper, "alloc-upper", cfg.AllocUpper, "Highest arm-A allocation fraction")
	fs.IntVar(&cfg.AllocCount, "alloc-count", cfg.AllocCount, "Number of evenly spaced allocation fractions")
	fs.IntVar(&cfg.MaxBlockSteps, "max-block-steps", cfg.MaxBlockSteps, "Checkpoints an action may skip ahead (0 = any)")
}

// resolveConfig returns the trial config for a run. Without a config file
// the flag values are used as-is; with one, the file is loaded and only the
// flags the user explicitly set override it.
func resolveConfig(fs *pflag.FlagSet, path string, fromFlags mdp.Config) (mdp.Config, error) {
	if path == "" {
		return fromFlags, nil
	}
	cfg, err := mdp.LoadConfig(path)
	if err != nil {
		return cfg, err
	}
	for _, f := range trialFlags {
		if fs.Changed(f.name) {
			f.copy(&cfg, fromFlags)
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid trial config %s: %w", path, err)
	}
	return cfg, nil
}
