package export

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/trial-mdp/trial-mdp/mdp"
)

// Entry is one exported policy row. Values holds -Inf where the database
// stores NULL.
type Entry struct {
	State      mdp.ContingencyTable
	Action     mdp.Action
	Attributes []string
	Values     []float64
}

// Lookup reads the policy row for ct from an exported database. It reports
// false if the state is not in the export.
func Lookup(ctx context.Context, path string, ct mdp.ContingencyTable) (Entry, bool, error) {
	db, err := open(ctx, path)
	if err != nil {
		return Entry{}, false, connectError(err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx,
		`SELECT * FROM RESULTS WHERE A0 = ? AND A1 = ? AND B0 = ? AND B1 = ?`,
		int(ct.A0), int(ct.A1), int(ct.B0), int(ct.B1))
	if err != nil {
		return Entry{}, false, fmt.Errorf("querying state %v: %w", ct, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return Entry{}, false, err
	}
	if len(cols) < len(stateColumns) {
		return Entry{}, false, fmt.Errorf("RESULTS has %d columns, expected at least %d", len(cols), len(stateColumns))
	}
	if !rows.Next() {
		return Entry{}, false, rows.Err()
	}

	var counts [4]int
	var blockSize, alloc int
	vals := make([]sql.NullFloat64, len(cols)-len(stateColumns))
	dest := []any{&counts[0], &counts[1], &counts[2], &counts[3], &blockSize, &alloc}
	for i := range vals {
		dest = append(dest, &vals[i])
	}
	if err := rows.Scan(dest...); err != nil {
		return Entry{}, false, fmt.Errorf("scanning state %v: %w", ct, err)
	}
	if rows.Next() {
		return Entry{}, false, errors.New("state matched more than one row")
	}

	e := Entry{
		State:      mdp.NewContingencyTable(counts[0], counts[1], counts[2], counts[3]),
		Action:     mdp.Action{BlockSize: blockSize, AAllocation: alloc},
		Attributes: cols[len(stateColumns):],
		Values:     make([]float64, len(vals)),
	}
	for i, v := range vals {
		if v.Valid {
			e.Values[i] = v.Float64
		} else {
			e.Values[i] = math.Inf(-1)
		}
	}
	return e, true, rows.Err()
}

// ReadRunInfo returns the RUN_INFO row of an exported database.
func ReadRunInfo(ctx context.Context, path string) (RunInfo, error) {
	db, err := open(ctx, path)
	if err != nil {
		return RunInfo{}, connectError(err)
	}
	defer db.Close()

	var run RunInfo
	err = db.QueryRowContext(ctx,
		`SELECT run_id, objective, transition, n_patients FROM RUN_INFO LIMIT 1`).
		Scan(&run.RunID, &run.Objective, &run.Transition, &run.NPatients)
	if err != nil {
		return RunInfo{}, fmt.Errorf("reading run info: %w", err)
	}
	return run, nil
}
