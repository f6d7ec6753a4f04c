package mdp

import "math"

// LookaheadContext describes one next-block outcome: the current state, the
// action taken, the successes observed on each arm, and the resolved record
// of the state it leads to.
type LookaheadContext struct {
	State   ContingencyTable
	ActionA int
	ActionB int
	SuccA   int
	SuccB   int
	Next    []float64
}

// LookaheadRule derives the current state's value for the attributes it owns
// from one outcome. Every attribute is owned by exactly one rule; Apply
// writes only the indices returned by Owns.
type LookaheadRule interface {
	Owns() []int
	Apply(cur []float64, ctx *LookaheadContext)
}

// identityRule passes the next state's value through unchanged.
type identityRule struct {
	idx int
}

func (r *identityRule) Owns() []int { return []int{r.idx} }

func (r *identityRule) Apply(cur []float64, ctx *LookaheadContext) {
	cur[r.idx] = ctx.Next[r.idx]
}

// addConstRule adds a constant to the next state's value.
type addConstRule struct {
	idx    int
	addend float64
}

func (r *addConstRule) Owns() []int { return []int{r.idx} }

func (r *addConstRule) Apply(cur []float64, ctx *LookaheadContext) {
	cur[r.idx] = ctx.Next[r.idx] + r.addend
}

// linearCombRule combines attributes already computed for the current
// outcome.
type linearCombRule struct {
	idx     int
	sources []int
	weights []float64
}

func (r *linearCombRule) Owns() []int { return []int{r.idx} }

func (r *linearCombRule) Apply(cur []float64, _ *LookaheadContext) {
	v := 0.0
	for i, src := range r.sources {
		v += r.weights[i] * cur[src]
	}
	cur[r.idx] = v
}

// cmhRule accumulates the Cochran-Mantel-Haenszel statistic over blocks,
// each block one stratum:
//
//	num = (s_A - a_A*s/T) + num_next
//	den = a_A*a_B*s*(T-s) / (T^2 (T-1)) + den_next
//	cmh = scale * num^2 / den
type cmhRule struct {
	stat, num, den int
	scale          float64
}

func (r *cmhRule) Owns() []int { return []int{r.stat, r.num, r.den} }

func (r *cmhRule) Apply(cur []float64, ctx *LookaheadContext) {
	if ctx.ActionA == 0 || ctx.ActionB == 0 {
		cur[r.stat] = math.Inf(-1)
		cur[r.num] = 0
		cur[r.den] = 0
		return
	}
	nterm, dterm := cmhTerms(ctx)
	num := nterm + ctx.Next[r.num]
	den := dterm + ctx.Next[r.den]
	cur[r.num] = num
	cur[r.den] = den
	cur[r.stat] = 0
	if den != 0 {
		cur[r.stat] = r.scale * num * num / den
	}
}

// cmhTerms returns one block's numerator and variance contributions.
// Callers guarantee both allocations are positive, so T >= 2.
func cmhTerms(ctx *LookaheadContext) (float64, float64) {
	a, b := float64(ctx.ActionA), float64(ctx.ActionB)
	t := a + b
	s := float64(ctx.SuccA + ctx.SuccB)
	nterm := float64(ctx.SuccA) - a*s/t
	dterm := a * b * s * (t - s) / (t * t * (t - 1))
	return nterm, dterm
}

// cmhSecondOrderRule tracks the first and second moments of the CMH
// numerator so the expectation of its square is not approximated by the
// square of its expectation.
type cmhSecondOrderRule struct {
	stat, numSqrt, num, den int
	scale                   float64
}

func (r *cmhSecondOrderRule) Owns() []int { return []int{r.stat, r.numSqrt, r.num, r.den} }

func (r *cmhSecondOrderRule) Apply(cur []float64, ctx *LookaheadContext) {
	if ctx.ActionA == 0 || ctx.ActionB == 0 {
		cur[r.stat] = math.Inf(-1)
		cur[r.numSqrt] = 0
		cur[r.num] = 0
		cur[r.den] = 0
		return
	}
	nterm, dterm := cmhTerms(ctx)
	sqrtNext := ctx.Next[r.numSqrt]
	num := nterm*(nterm+2*sqrtNext) + ctx.Next[r.num]
	den := dterm + ctx.Next[r.den]
	cur[r.numSqrt] = nterm + sqrtNext
	cur[r.num] = num
	cur[r.den] = den
	cur[r.stat] = 0
	if den != 0 {
		cur[r.stat] = r.scale * num / den
	}
}

// harmonicMeanRule accumulates sum(1/a_A + 1/a_B) over blocks and reports
// its reciprocal.
type harmonicMeanRule struct {
	stat, inv int
}

func (r *harmonicMeanRule) Owns() []int { return []int{r.stat, r.inv} }

func (r *harmonicMeanRule) Apply(cur []float64, ctx *LookaheadContext) {
	if ctx.ActionA == 0 || ctx.ActionB == 0 {
		cur[r.stat] = math.Inf(-1)
		cur[r.inv] = 0
		return
	}
	inv := ctx.Next[r.inv] + 1/float64(ctx.ActionA) + 1/float64(ctx.ActionB)
	cur[r.inv] = inv
	cur[r.stat] = 1 / inv
}

// blockHarmonicMeanRule adds this block's a_A*a_B/(a_A+a_B) to the next
// state's running sum.
type blockHarmonicMeanRule struct {
	idx int
}

func (r *blockHarmonicMeanRule) Owns() []int { return []int{r.idx} }

func (r *blockHarmonicMeanRule) Apply(cur []float64, ctx *LookaheadContext) {
	a, b := float64(ctx.ActionA), float64(ctx.ActionB)
	cur[r.idx] = a*b/(a+b) + ctx.Next[r.idx]
}

// harmonicMeanDSQRule computes V = (sum w)^2 / sum(w^2 pq) / N where each
// block's weight w is a_A*a_B/T and pq is the variance of the difference in
// proportions estimated with Laplace smoothing from the current state.
type harmonicMeanDSQRule struct {
	stat, numSqrt, num, den int
	scale                   float64
}

func (r *harmonicMeanDSQRule) Owns() []int { return []int{r.stat, r.numSqrt, r.num, r.den} }

func (r *harmonicMeanDSQRule) Apply(cur []float64, ctx *LookaheadContext) {
	if ctx.ActionA == 0 || ctx.ActionB == 0 {
		cur[r.stat] = math.Inf(-1)
		cur[r.numSqrt] = 0
		cur[r.num] = 0
		cur[r.den] = 0
		return
	}
	a, b := float64(ctx.ActionA), float64(ctx.ActionB)
	w := a * b / (a + b)
	pa := float64(int(ctx.State.A1)+1) / float64(ctx.State.NA()+2)
	pb := float64(int(ctx.State.B1)+1) / float64(ctx.State.NB()+2)
	pq := pa*(1-pa)/a + pb*(1-pb)/b

	sqrtNext := ctx.Next[r.numSqrt]
	num := w*(w+2*sqrtNext) + ctx.Next[r.num]
	den := w*w*pq + ctx.Next[r.den]
	cur[r.numSqrt] = w + sqrtNext
	cur[r.num] = num
	cur[r.den] = den
	cur[r.stat] = 0
	if den != 0 {
		cur[r.stat] = r.scale * num / den
	}
}
