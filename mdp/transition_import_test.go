package mdp_test

// Registers the transition models for every test in this directory.
import _ "github.com/trial-mdp/trial-mdp/mdp/transition"
