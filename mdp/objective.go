package mdp

import (
	"fmt"
	"math"
	"strings"
)

// Attribute names shared by every objective.
const (
	AttrTotalReward     = "TotalReward"
	AttrExcessFailures  = "ExcessFailures"
	AttrRemainingBlocks = "RemainingBlocks"
)

// ValidObjectives is the set of recognized objective names.
var ValidObjectives = map[string]bool{
	"wald":                 true,
	"cmh":                  true,
	"scaled_cmh":           true,
	"scaled_cmh_2nd_order": true,
	"harmonic_mean":        true,
	"block_harmonic_mean":  true,
	"harmonic_mean_dsq":    true,
}

// IsValidObjective returns true if name is a recognized objective.
func IsValidObjective(name string) bool { return ValidObjectives[name] }

// AttributeRegistry maps attribute names to fixed positions in every
// StateResult's value vector.
type AttributeRegistry struct {
	names []string
	index map[string]int
}

func newAttributeRegistry() *AttributeRegistry {
	return &AttributeRegistry{index: make(map[string]int)}
}

func (r *AttributeRegistry) add(name string) int {
	if _, dup := r.index[name]; dup {
		panic(fmt.Sprintf("attribute %q registered twice", name))
	}
	r.index[name] = len(r.names)
	r.names = append(r.names, name)
	return len(r.names) - 1
}

// Len returns the number of attributes.
func (r *AttributeRegistry) Len() int { return len(r.names) }

// Names returns the attribute names in index order.
func (r *AttributeRegistry) Names() []string { return append([]string(nil), r.names...) }

// Name returns the attribute stored at idx.
func (r *AttributeRegistry) Name(idx int) string { return r.names[idx] }

// Index returns the position of the named attribute.
func (r *AttributeRegistry) Index(name string) (int, error) {
	idx, ok := r.index[name]
	if !ok {
		return -1, fmt.Errorf("unknown attribute %q", name)
	}
	return idx, nil
}

// Objective bundles the attribute registry, the terminal rule and the
// lookahead rules for one named objective. It is immutable after
// construction and safe to share between goroutines.
type Objective struct {
	name      string
	attrs     *AttributeRegistry
	terminal  TerminalRule
	rules     []LookaheadRule
	owner     []int
	rewardIdx int
}

// ObjectiveParams are the weights an objective needs.
type ObjectiveParams struct {
	FailureCost float64
	BlockCost   float64
	NPatients   int
}

// NewObjective creates an Objective by name. Valid names are listed in
// ValidObjectives.
func NewObjective(name string, p ObjectiveParams) (*Objective, error) {
	if !IsValidObjective(name) {
		return nil, fmt.Errorf("unknown objective %q", name)
	}
	if p.NPatients < 1 {
		return nil, fmt.Errorf("objective needs n_patients >= 1, got %d", p.NPatients)
	}
	attrs := newAttributeRegistry()
	n := float64(p.NPatients)
	var statRule LookaheadRule
	var stat int
	switch name {
	case "wald":
		stat = attrs.add("WaldStatistic")
		statRule = &identityRule{idx: stat}
	case "cmh", "scaled_cmh":
		stat = attrs.add("CMHStatistic")
		scale := 1.0
		if name == "scaled_cmh" {
			scale = 1 / n
		}
		statRule = &cmhRule{
			stat:  stat,
			num:   attrs.add("CMHNumerator"),
			den:   attrs.add("CMHDenominator"),
			scale: scale,
		}
	case "scaled_cmh_2nd_order":
		stat = attrs.add("CMHStatistic")
		statRule = &cmhSecondOrderRule{
			stat:    stat,
			numSqrt: attrs.add("CMHNumeratorSqrt"),
			num:     attrs.add("CMHNumerator"),
			den:     attrs.add("CMHDenominator"),
			scale:   1 / n,
		}
	case "harmonic_mean":
		stat = attrs.add("HarmonicMean")
		statRule = &harmonicMeanRule{stat: stat, inv: attrs.add("HarmonicMeanInverse")}
	case "block_harmonic_mean":
		stat = attrs.add("BlockHarmonicMean")
		statRule = &blockHarmonicMeanRule{idx: stat}
	case "harmonic_mean_dsq":
		stat = attrs.add("HarmonicMeanDSQ")
		statRule = &harmonicMeanDSQRule{
			stat:    stat,
			numSqrt: attrs.add("HMNumeratorSqrt"),
			num:     attrs.add("HMNumerator"),
			den:     attrs.add("HMDenominator"),
			scale:   1 / n,
		}
	}
	failures := attrs.add(AttrExcessFailures)
	blocks := attrs.add(AttrRemainingBlocks)
	reward := attrs.add(AttrTotalReward)

	var statistic func(ContingencyTable) float64
	if name == "wald" {
		statistic = WaldStatistic
	} else {
		statistic = accumulatorStatistic
	}

	o := &Objective{
		name:  name,
		attrs: attrs,
		terminal: &statFailureTerminal{
			statistic:   statistic,
			stat:        stat,
			failures:    failures,
			blocks:      blocks,
			reward:      reward,
			failureCost: p.FailureCost,
		},
		rules: []LookaheadRule{
			statRule,
			&identityRule{idx: failures},
			&addConstRule{idx: blocks, addend: 1},
			// Reads the attributes computed above, so it must stay last.
			&linearCombRule{
				idx:     reward,
				sources: []int{stat, failures, blocks},
				weights: []float64{1, -p.FailureCost, -p.BlockCost},
			},
		},
		rewardIdx: reward,
	}
	if err := o.bindOwners(); err != nil {
		return nil, fmt.Errorf("objective %q: %w", name, err)
	}
	return o, nil
}

// bindOwners checks that every attribute is written by exactly one rule.
func (o *Objective) bindOwners() error {
	o.owner = make([]int, o.attrs.Len())
	for i := range o.owner {
		o.owner[i] = -1
	}
	for r, rule := range o.rules {
		for _, idx := range rule.Owns() {
			if idx < 0 || idx >= len(o.owner) {
				return fmt.Errorf("lookahead rule %T owns out-of-range attribute index %d", rule, idx)
			}
			if o.owner[idx] != -1 {
				return fmt.Errorf("attribute %q owned by two lookahead rules", o.attrs.Name(idx))
			}
			o.owner[idx] = r
		}
	}
	for idx, r := range o.owner {
		if r == -1 {
			return fmt.Errorf("attribute %q has no lookahead rule", o.attrs.Name(idx))
		}
	}
	return nil
}

// Name returns the objective's configuration name.
func (o *Objective) Name() string { return o.name }

// Attributes returns the attribute registry.
func (o *Objective) Attributes() *AttributeRegistry { return o.attrs }

// NumAttributes returns the attribute vector length.
func (o *Objective) NumAttributes() int { return o.attrs.Len() }

// RewardIndex returns the position of the attribute actions are ranked by.
func (o *Objective) RewardIndex() int { return o.rewardIdx }

// RuleFor returns the lookahead rule that owns attribute idx.
func (o *Objective) RuleFor(idx int) (LookaheadRule, error) {
	if idx < 0 || idx >= len(o.owner) {
		return nil, fmt.Errorf("no lookahead rule for attribute index %d", idx)
	}
	return o.rules[o.owner[idx]], nil
}

// Terminal writes the record values for a fully enrolled state into dst.
func (o *Objective) Terminal(ct ContingencyTable, dst []float64) {
	o.terminal.Apply(ct, dst)
}

// LookAhead writes the current-state attribute values implied by one
// resolved next-state record into cur.
func (o *Objective) LookAhead(cur []float64, ctx *LookaheadContext) {
	for _, rule := range o.rules {
		rule.Apply(cur, ctx)
	}
}

// Format renders a record as a human-readable action plus expected values.
func (o *Objective) Format(res StateResult) string {
	return FormatResult(o.attrs.names, res)
}

// FormatResult renders res with names labelling its values in order.
// Non-finite values print as NULL, matching the export.
func FormatResult(names []string, res StateResult) string {
	var b strings.Builder
	b.WriteString("Action:\n")
	fmt.Fprintf(&b, "\tBlock size: %d\n", res.Action.BlockSize)
	fmt.Fprintf(&b, "\tN_A: %d\n", res.Action.AAllocation)
	fmt.Fprintf(&b, "\tN_B: %d\n", res.Action.BAllocation())
	b.WriteString("Expected values:\n")
	for i, name := range names {
		fmt.Fprintf(&b, "\t%s: %s\n", name, formatValue(res.Values[i]))
	}
	return b.String()
}

func formatValue(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return "NULL"
	}
	return fmt.Sprintf("%f", v)
}
