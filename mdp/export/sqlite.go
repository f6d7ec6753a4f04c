// Package export writes a solved policy to SQLite and reads single states
// back from it.
package export

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/trial-mdp/trial-mdp/mdp"

	_ "modernc.org/sqlite"
)

// DefaultChunkSize is the number of rows committed per transaction.
const DefaultChunkSize = 10000

// stateColumns precede the attribute columns in every RESULTS row.
var stateColumns = []string{"A0", "A1", "B0", "B1", "BlockSize", "AAllocation"}

// RunInfo identifies the solve that produced an export.
type RunInfo struct {
	RunID      string
	Objective  string
	Transition string
	NPatients  int
}

// NewRunInfo stamps cfg with a fresh run id.
func NewRunInfo(cfg mdp.Config) RunInfo {
	return RunInfo{
		RunID:      uuid.NewString(),
		Objective:  cfg.Objective,
		Transition: cfg.Transition,
		NPatients:  cfg.NPatients,
	}
}

// Options controls an export.
type Options struct {
	// ChunkSize rows are inserted per transaction; <= 0 means DefaultChunkSize.
	ChunkSize int
	Run       RunInfo
}

func open(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// createTables replaces RESULTS and RUN_INFO. The RESULTS primary key is the
// state alone; totals differ between checkpoints so states never collide.
func createTables(ctx context.Context, db *sql.DB, attrs []string, run RunInfo) error {
	cols := make([]string, 0, len(stateColumns)+len(attrs)+1)
	for _, c := range stateColumns {
		cols = append(cols, c+" INTEGER NOT NULL")
	}
	for _, a := range attrs {
		cols = append(cols, quote(a)+" REAL")
	}
	cols = append(cols, "PRIMARY KEY (A0, A1, B0, B1)")

	stmts := []string{
		`DROP TABLE IF EXISTS RESULTS`,
		`CREATE TABLE RESULTS (` + strings.Join(cols, ", ") + `)`,
		`DROP TABLE IF EXISTS RUN_INFO`,
		`CREATE TABLE RUN_INFO (
			run_id TEXT PRIMARY KEY,
			objective TEXT NOT NULL,
			transition TEXT NOT NULL,
			n_patients INTEGER NOT NULL,
			exported_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO RUN_INFO (run_id, objective, transition, n_patients, exported_at) VALUES (?, ?, ?, ?, ?)`,
		run.RunID, run.Objective, run.Transition, run.NPatients, time.Now().UTC().Format(time.RFC3339))
	return err
}

// chunkWriter batches inserts into transactions of a fixed size.
type chunkWriter struct {
	db     *sql.DB
	query  string
	size   int
	chunk  int
	inTx   int
	tx     *sql.Tx
	stmt   *sql.Stmt
	args   []any
	rows   int64
	ctx    context.Context
	failed bool
}

func (w *chunkWriter) fail(err error) error {
	w.failed = true
	if w.tx != nil {
		_ = w.tx.Rollback()
		w.tx = nil
	}
	return &Error{Phase: PhaseInsert, Chunk: w.chunk, Err: err}
}

func (w *chunkWriter) write(ct mdp.ContingencyTable, res mdp.StateResult) error {
	if w.tx == nil {
		tx, err := w.db.BeginTx(w.ctx, nil)
		if err != nil {
			return w.fail(err)
		}
		stmt, err := tx.PrepareContext(w.ctx, w.query)
		if err != nil {
			w.tx = tx
			return w.fail(err)
		}
		w.tx, w.stmt, w.inTx = tx, stmt, 0
	}
	w.args = w.args[:0]
	w.args = append(w.args, int(ct.A0), int(ct.A1), int(ct.B0), int(ct.B1),
		res.Action.BlockSize, res.Action.AAllocation)
	for _, v := range res.Values {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			w.args = append(w.args, nil)
		} else {
			w.args = append(w.args, v)
		}
	}
	if _, err := w.stmt.ExecContext(w.ctx, w.args...); err != nil {
		return w.fail(err)
	}
	w.inTx++
	w.rows++
	if w.inTx >= w.size {
		return w.commit()
	}
	return nil
}

func (w *chunkWriter) commit() error {
	if w.tx == nil {
		return nil
	}
	_ = w.stmt.Close()
	if err := w.tx.Commit(); err != nil {
		w.tx = nil
		return w.fail(err)
	}
	w.tx = nil
	logrus.Debugf("export chunk %d committed (%s rows total)", w.chunk, humanize.Comma(w.rows))
	w.chunk++
	return nil
}

// Export writes every resolved entry of results to the SQLite database at
// path, replacing any earlier export there, and returns the row count.
// Rows are emitted terminal checkpoint first. Non-finite attribute values
// are stored as NULL. A table with released shards or unresolved states is
// rejected before the database is touched.
func Export(ctx context.Context, path string, results *mdp.ResultsTable, objective *mdp.Objective, opts Options) (int64, error) {
	if results.NumAttributes() != objective.NumAttributes() {
		return 0, fmt.Errorf("results table has %d attributes, objective %q has %d",
			results.NumAttributes(), objective.Name(), objective.NumAttributes())
	}
	if !results.Complete() {
		return 0, errors.New("results table is incomplete: solve with RetainShards to export every checkpoint")
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Run.RunID == "" {
		opts.Run.RunID = uuid.NewString()
	}
	start := time.Now()

	db, err := open(ctx, path)
	if err != nil {
		return 0, connectError(err)
	}
	defer db.Close()

	attrs := objective.Attributes().Names()
	if err := createTables(ctx, db, attrs, opts.Run); err != nil {
		return 0, schemaError(err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(stateColumns)+len(attrs)), ", ")
	w := &chunkWriter{
		db:    db,
		query: "INSERT INTO RESULTS VALUES (" + placeholders + ")",
		size:  opts.ChunkSize,
		ctx:   ctx,
		args:  make([]any, 0, len(stateColumns)+len(attrs)),
	}
	err = results.Each(func(_ int, ct mdp.ContingencyTable, res mdp.StateResult) error {
		return w.write(ct, res)
	})
	if err == nil {
		err = w.commit()
	}
	if err != nil {
		if !w.failed {
			err = w.fail(err)
		}
		return w.rows, err
	}
	logrus.Infof("exported %s rows to %s in %d chunks (%v), run %s",
		humanize.Comma(w.rows), path, w.chunk, time.Since(start).Round(time.Millisecond), opts.Run.RunID)
	return w.rows, nil
}
