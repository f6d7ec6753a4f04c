package cmd

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/trial-mdp/trial-mdp/mdp"
	"github.com/trial-mdp/trial-mdp/mdp/export"
)

var lookupState []int // A0,A1,B0,B1 of the state to look up

// lookupCmd prints the exported policy for one state
var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Print the exported policy entry for one state",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if dbPath == "" {
			logrus.Fatalf("--db is required")
		}
		ct, err := parseState(lookupState)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		entry, ok, err := export.Lookup(cmd.Context(), dbPath, ct)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if !ok {
			logrus.Fatalf("State %v is not in %s", ct, dbPath)
		}
		printEntry(cmd.OutOrStdout(), entry)
	},
}

// parseState converts --state into a table.
func parseState(counts []int) (mdp.ContingencyTable, error) {
	if len(counts) != 4 {
		return mdp.ContingencyTable{}, fmt.Errorf("--state needs 4 counts A0,A1,B0,B1, got %d", len(counts))
	}
	for _, c := range counts {
		if c < 0 || c > mdp.MaxPatients {
			return mdp.ContingencyTable{}, fmt.Errorf("state count %d out of range [0, %d]", c, mdp.MaxPatients)
		}
	}
	return mdp.NewContingencyTable(counts[0], counts[1], counts[2], counts[3]), nil
}

func printEntry(w io.Writer, e export.Entry) {
	fmt.Fprintf(w, "State: %v\n", e.State)
	res := mdp.StateResult{Action: e.Action, Values: e.Values}
	fmt.Fprint(w, mdp.FormatResult(e.Attributes, res))
}

func init() {
	lookupCmd.Flags().StringVar(&dbPath, "db", "", "SQLite file written by solve --db")
	lookupCmd.Flags().IntSliceVar(&lookupState, "state", []int{0, 0, 0, 0}, "State counts A0,A1,B0,B1")
	lookupCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
}
