// register.go wires the transition model constructors into the mdp package's
// registration variable (NewTransitionModelFunc). This init() runs when any
// package imports mdp/transition; test code in package mdp uses
// transition_import_test.go for the blank import.
package transition

import "github.com/trial-mdp/trial-mdp/mdp"

func init() {
	mdp.NewTransitionModelFunc = NewTransitionModel
}
