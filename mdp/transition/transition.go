// Package transition provides next-block outcome models for the mdp solver.
// The TransitionModel interface is defined in mdp/ (parent package).
package transition

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mathext"

	"github.com/trial-mdp/trial-mdp/mdp"
)

// NewTransitionModel creates a model by name. Valid names are listed in
// mdp.ValidTransitionModels.
func NewTransitionModel(name string, priors mdp.Priors) (mdp.TransitionModel, error) {
	switch name {
	case "beta_binom":
		if priors.A0 <= 0 || priors.A1 <= 0 || priors.B0 <= 0 || priors.B1 <= 0 {
			return nil, fmt.Errorf("beta_binom priors must be positive, got %+v", priors)
		}
		return &BetaBinomial{priors: priors}, nil
	case "binom":
		return &Binomial{}, nil
	default:
		return nil, fmt.Errorf("unknown transition model %q", name)
	}
}

// BetaBinomial is the Bayesian posterior predictive: each arm's success rate
// has a Beta prior updated by that arm's observed counts, and the two arms
// are independent.
type BetaBinomial struct {
	priors mdp.Priors
	aProbs []float64
	bProbs []float64
}

func (m *BetaBinomial) SetStateAction(ct mdp.ContingencyTable, sizeA, sizeB int) {
	m.aProbs = betaBinomialPMF(m.aProbs, sizeA, float64(ct.A1)+m.priors.A1, float64(ct.A0)+m.priors.A0)
	m.bProbs = betaBinomialPMF(m.bProbs, sizeB, float64(ct.B1)+m.priors.B1, float64(ct.B0)+m.priors.B0)
}

func (m *BetaBinomial) Prob(succA, succB int) float64 {
	return m.aProbs[succA] * m.bProbs[succB]
}

func (m *BetaBinomial) Clone() mdp.TransitionModel {
	return &BetaBinomial{priors: m.priors}
}

// Binomial uses the observed success proportion of each arm as a point
// estimate, 0.5 for an arm with no patients yet.
type Binomial struct {
	aProbs []float64
	bProbs []float64
}

func (m *Binomial) SetStateAction(ct mdp.ContingencyTable, sizeA, sizeB int) {
	m.aProbs = binomialPMF(m.aProbs, sizeA, successRate(int(ct.A1), ct.NA()))
	m.bProbs = binomialPMF(m.bProbs, sizeB, successRate(int(ct.B1), ct.NB()))
}

func (m *Binomial) Prob(succA, succB int) float64 {
	return m.aProbs[succA] * m.bProbs[succB]
}

func (m *Binomial) Clone() mdp.TransitionModel {
	return &Binomial{}
}

func successRate(succ, n int) float64 {
	if n == 0 {
		return 0.5
	}
	return float64(succ) / float64(n)
}

// logChoose returns log C(n, k) through the Beta function so it stays finite
// for large blocks.
func logChoose(n, k int) float64 {
	return -math.Log(float64(n+1)) - mathext.Lbeta(float64(n-k+1), float64(k+1))
}

// betaBinomialPMF fills buf with P(X = x), x = 0..n, for X ~ BetaBinomial(n,
// alpha, beta) where alpha weights successes.
func betaBinomialPMF(buf []float64, n int, alpha, beta float64) []float64 {
	buf = resize(buf, n+1)
	norm := mathext.Lbeta(alpha, beta)
	for x := 0; x <= n; x++ {
		buf[x] = math.Exp(logChoose(n, x) + mathext.Lbeta(float64(x)+alpha, float64(n-x)+beta) - norm)
	}
	return buf
}

// binomialPMF fills buf with P(X = x), x = 0..n, for X ~ Binomial(n, p).
func binomialPMF(buf []float64, n int, p float64) []float64 {
	buf = resize(buf, n+1)
	switch p {
	case 0:
		for x := range buf {
			buf[x] = 0
		}
		buf[0] = 1
		return buf
	case 1:
		for x := range buf {
			buf[x] = 0
		}
		buf[n] = 1
		return buf
	}
	logP, logQ := math.Log(p), math.Log1p(-p)
	for x := 0; x <= n; x++ {
		buf[x] = math.Exp(logChoose(n, x) + float64(x)*logP + float64(n-x)*logQ)
	}
	return buf
}

func resize(buf []float64, n int) []float64 {
	if cap(buf) < n {
		return make([]float64, n)
	}
	return buf[:n]
}
