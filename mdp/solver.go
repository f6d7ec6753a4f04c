package mdp

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/trial-mdp/trial-mdp/mdp/trace"
)

const defaultBatchSize = 4096

// SolverOptions controls how a solve is executed. None of them change the
// computed policy.
type SolverOptions struct {
	// Workers is the number of goroutines resolving states of one checkpoint
	// in parallel. Values <= 1 resolve states inline.
	Workers int
	// BatchSize is the number of states handed to a worker at a time.
	BatchSize int
	// RetainShards keeps every checkpoint's results until the solver is
	// discarded. Required for export. When false and MaxBlockSteps > 0,
	// shards no remaining checkpoint can reach are released.
	RetainShards bool
	// Metrics receives the solver's collectors; nil leaves them unregistered.
	Metrics prometheus.Registerer
	// Trace, when enabled, receives one record per checkpoint.
	Trace *trace.SolveTrace
}

// Solver runs backward induction over the checkpoint ladder. It owns the
// ResultsTable; the table is read-only once Solve returns.
type Solver struct {
	cfg       Config
	opts      SolverOptions
	ladder    Ladder
	objective *Objective
	actions   *ActionIterator
	model     TransitionModel
	results   *ResultsTable
	metrics   *SolverMetrics
	solved    bool
}

// NewSolver validates cfg and builds every collaborator. Configuration
// errors are reported here, before any computation starts.
func NewSolver(cfg Config, opts SolverOptions) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid trial config: %w", err)
	}
	ladder, err := BuildLadder(cfg.NPatients, cfg.MinBlockSize, cfg.BlockIncrement)
	if err != nil {
		return nil, err
	}
	objective, err := NewObjective(cfg.Objective, ObjectiveParams{
		FailureCost: cfg.FailureCost,
		BlockCost:   cfg.BlockCost,
		NPatients:   cfg.NPatients,
	})
	if err != nil {
		return nil, err
	}
	model, err := NewTransitionModel(cfg.Transition, cfg.Priors())
	if err != nil {
		return nil, err
	}
	fractions, err := AllocationFractions(cfg.AllocLower, cfg.AllocUpper, cfg.AllocCount)
	if err != nil {
		return nil, err
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	return &Solver{
		cfg:       cfg,
		opts:      opts,
		ladder:    ladder,
		objective: objective,
		actions:   NewActionIterator(ladder, fractions, cfg.MaxBlockSteps),
		model:     model,
		results:   NewResultsTable(ladder, objective.NumAttributes()),
		metrics:   NewSolverMetrics(opts.Metrics),
	}, nil
}

// Config returns the validated configuration.
func (s *Solver) Config() Config { return s.cfg }

// Ladder returns the checkpoint ladder.
func (s *Solver) Ladder() Ladder { return s.ladder }

// Objective returns the objective policy.
func (s *Solver) Objective() *Objective { return s.objective }

// Results returns the results table.
func (s *Solver) Results() *ResultsTable { return s.results }

// Solve resolves every state, terminal checkpoint first, and returns the
// record of the empty opening state: the trial's first move and its
// expected outcome. A Solver can only be solved once.
func (s *Solver) Solve() (StateResult, error) {
	if s.solved {
		return StateResult{}, errors.New("solver already ran")
	}
	s.solved = true
	start := time.Now()
	s.metrics.CheckpointsLeft.Set(float64(s.ladder.Len()))

	seq := NewSequencer(s.ladder)
	if err := s.resolveTerminal(seq); err != nil {
		return StateResult{}, err
	}
	logrus.Debugf("terminal phase done; entering induction over %d checkpoints", s.ladder.Terminal())

	workers := newEvaluatorPool(s, max(1, s.opts.Workers))
	for seq.HasMore() {
		idx := seq.Checkpoint()
		if err := s.resolveInduction(seq, workers); err != nil {
			return StateResult{}, err
		}
		s.releaseUnreachable(idx)
	}

	first, ok := s.results.Get(0, ContingencyTable{})
	if !ok {
		return StateResult{}, errors.New("opening state left unresolved")
	}
	logrus.Infof("solve finished in %v: %s results, ~%s resident",
		time.Since(start).Round(time.Millisecond),
		humanize.Comma(int64(s.results.Len())),
		humanize.IBytes(uint64(s.results.Bytes())))
	return first, nil
}

// resolveTerminal assigns terminal-rule records to every state of the last
// checkpoint.
func (s *Solver) resolveTerminal(seq *Sequencer) error {
	start := time.Now()
	idx := seq.Checkpoint()
	s.results.Allocate(idx)
	res := NewStateResult(s.objective.NumAttributes())
	n := 0
	for ; seq.HasMore() && seq.Checkpoint() == idx; seq.Advance() {
		ct := seq.State()
		s.objective.Terminal(ct, res.Values)
		if err := s.results.Put(idx, ct, res); err != nil {
			return err
		}
		n++
	}
	s.finishCheckpoint(trace.CheckpointRecord{
		Index:      idx,
		Enrollment: s.ladder[idx],
		Phase:      trace.PhaseTerminal,
		States:     n,
		Duration:   time.Since(start),
	})
	return nil
}

// resolveInduction resolves every state of the sequencer's current
// checkpoint. States are independent given the frozen later shards, so
// batches may run in parallel; the method returns only after all of them
// finished, which is the barrier before the next lower checkpoint.
func (s *Solver) resolveInduction(seq *Sequencer, pool *evaluatorPool) error {
	start := time.Now()
	idx := seq.Checkpoint()
	s.results.Allocate(idx)
	pool.reset()

	var g errgroup.Group
	g.SetLimit(pool.size())
	n := 0
	for seq.HasMore() && seq.Checkpoint() == idx {
		batch := make([]ContingencyTable, 0, s.opts.BatchSize)
		for ; seq.HasMore() && seq.Checkpoint() == idx && len(batch) < s.opts.BatchSize; seq.Advance() {
			batch = append(batch, seq.State())
		}
		n += len(batch)
		if pool.size() == 1 {
			if err := pool.run(idx, batch); err != nil {
				return err
			}
			continue
		}
		g.Go(func() error { return pool.run(idx, batch) })
	}
	if err := g.Wait(); err != nil {
		return err
	}

	rec := trace.CheckpointRecord{
		Index:            idx,
		Enrollment:       s.ladder[idx],
		Phase:            trace.PhaseInduction,
		States:           n,
		Duration:         time.Since(start),
		ChosenBlockSizes: make(map[int]int),
	}
	pool.collect(&rec)
	s.finishCheckpoint(rec)
	return nil
}

func (s *Solver) finishCheckpoint(rec trace.CheckpointRecord) {
	s.metrics.StatesResolved.WithLabelValues(string(rec.Phase)).Add(float64(rec.States))
	s.metrics.ActionsEvaluated.Add(float64(rec.Actions))
	s.metrics.OutcomesEvaluated.Add(float64(rec.Outcomes))
	s.metrics.CheckpointDuration.Observe(rec.Duration.Seconds())
	s.metrics.ResidentBytes.Set(float64(s.results.Bytes()))
	s.metrics.CheckpointsLeft.Dec()
	if s.opts.Trace.Enabled() {
		s.opts.Trace.RecordCheckpoint(rec)
	}
	logrus.Infof("checkpoint %d/%d (enrollment %d, %s): %s states in %v",
		rec.Index, s.ladder.Terminal(), rec.Enrollment, rec.Phase,
		humanize.Comma(int64(rec.States)), rec.Duration.Round(time.Microsecond))
}

// releaseUnreachable drops the shard that no checkpoint below idx can reach
// once idx is resolved. Only possible when actions are limited to
// MaxBlockSteps ladder steps.
func (s *Solver) releaseUnreachable(idx int) {
	steps := s.cfg.MaxBlockSteps
	if s.opts.RetainShards || steps <= 0 {
		return
	}
	drop := idx + steps
	if drop <= s.ladder.Terminal() && s.results.Allocated(drop) {
		s.results.Release(drop)
		logrus.Debugf("released results shard for checkpoint %d", drop)
	}
}
