package transition

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trial-mdp/trial-mdp/mdp"
	"github.com/trial-mdp/trial-mdp/mdp/internal/testutil"
)

var uniformPriors = mdp.Priors{A0: 1, A1: 1, B0: 1, B1: 1}

func TestNewTransitionModel_AllValidNames_Succeed(t *testing.T) {
	for name := range mdp.ValidTransitionModels {
		t.Run(name, func(t *testing.T) {
			m, err := NewTransitionModel(name, uniformPriors)
			require.NoError(t, err)
			assert.NotNil(t, m)
		})
	}
}

func TestNewTransitionModel_Invalid(t *testing.T) {
	_, err := NewTransitionModel("poisson", uniformPriors)
	assert.Error(t, err)

	_, err = NewTransitionModel("beta_binom", mdp.Priors{A0: 1, A1: 0, B0: 1, B1: 1})
	assert.Error(t, err, "zero prior must be rejected for beta_binom")

	_, err = NewTransitionModel("binom", mdp.Priors{})
	assert.NoError(t, err, "binom ignores priors")
}

func TestRegistration_WiresParentPackage(t *testing.T) {
	m, err := mdp.NewTransitionModel("binom", mdp.Priors{})
	require.NoError(t, err)
	_, ok := m.(*Binomial)
	assert.True(t, ok, "expected *Binomial, got %T", m)
}

func TestBetaBinomial_UniformPrior_EmptyState(t *testing.T) {
	// GIVEN uniform priors and no observations, two patients on arm A
	m, err := NewTransitionModel("beta_binom", uniformPriors)
	require.NoError(t, err)
	m.SetStateAction(mdp.ContingencyTable{}, 2, 1)

	// THEN arm A successes are uniform over {0,1,2} and arm B is a fair coin
	for sa := 0; sa <= 2; sa++ {
		for sb := 0; sb <= 1; sb++ {
			testutil.AssertFloat64Equal(t, "P(sa,sb)", 1.0/6, m.Prob(sa, sb), 1e-12)
		}
	}
}

func TestBetaBinomial_PosteriorShiftsTowardObservedSuccesses(t *testing.T) {
	// GIVEN arm A has 3 successes and no failures under a uniform prior
	m, err := NewTransitionModel("beta_binom", uniformPriors)
	require.NoError(t, err)
	m.SetStateAction(mdp.NewContingencyTable(0, 3, 0, 0), 1, 0)

	// THEN the predictive success probability is (3+1)/(3+2)
	testutil.AssertFloat64Equal(t, "P(success)", 0.8, m.Prob(1, 0), 1e-12)
	testutil.AssertFloat64Equal(t, "P(failure)", 0.2, m.Prob(0, 0), 1e-12)
}

func TestBinomial_PointEstimates(t *testing.T) {
	m, err := NewTransitionModel("binom", mdp.Priors{})
	require.NoError(t, err)

	// Empty arms default to p = 0.5
	m.SetStateAction(mdp.ContingencyTable{}, 2, 0)
	testutil.AssertFloat64Equal(t, "P(0)", 0.25, m.Prob(0, 0), 1e-12)
	testutil.AssertFloat64Equal(t, "P(1)", 0.5, m.Prob(1, 0), 1e-12)
	testutil.AssertFloat64Equal(t, "P(2)", 0.25, m.Prob(2, 0), 1e-12)

	// An arm with only successes is degenerate at p = 1, one with only
	// failures at p = 0
	m.SetStateAction(mdp.NewContingencyTable(0, 2, 4, 0), 3, 2)
	assert.Equal(t, 1.0, m.Prob(3, 0))
	assert.Equal(t, 0.0, m.Prob(2, 0))
	assert.Equal(t, 0.0, m.Prob(3, 1))
}

func TestTransitionModels_ProbabilitiesSumToOne(t *testing.T) {
	states := []mdp.ContingencyTable{
		{},
		mdp.NewContingencyTable(3, 1, 0, 5),
		mdp.NewContingencyTable(10, 0, 2, 8),
		mdp.NewContingencyTable(0, 40, 40, 0),
	}
	actions := [][2]int{{0, 1}, {1, 0}, {3, 4}, {25, 25}, {60, 1}}
	priors := mdp.Priors{A0: 0.5, A1: 2, B0: 1.5, B1: 0.7}

	for name := range mdp.ValidTransitionModels {
		m, err := NewTransitionModel(name, priors)
		require.NoError(t, err)
		for _, ct := range states {
			for _, a := range actions {
				it := mdp.NewTransitionIterator(m)
				sum := 0.0
				n := 0
				for it.Reset(ct, a[0], a[1]); !it.Exhausted(); it.Advance() {
					p := it.Prob()
					if p < 0 {
						t.Fatalf("%s: negative probability %v at %v action %v", name, p, ct, a)
					}
					sum += p
					n++
				}
				assert.Equal(t, (a[0]+1)*(a[1]+1), n, "%s: outcome count", name)
				testutil.AssertFloat64Equal(t, name+" total probability", 1, sum, 1e-9)
			}
		}
	}
}

func TestTransitionIterator_NextStates(t *testing.T) {
	// GIVEN state (1,1,0,0) and action (a_A=1, a_B=1)
	m, err := NewTransitionModel("binom", mdp.Priors{})
	require.NoError(t, err)
	it := mdp.NewTransitionIterator(m)
	assert.True(t, it.Exhausted(), "iterator must be exhausted before Reset")

	// WHEN iterated
	var got []mdp.ContingencyTable
	for it.Reset(mdp.NewContingencyTable(1, 1, 0, 0), 1, 1); !it.Exhausted(); it.Advance() {
		got = append(got, it.Value())
	}

	// THEN arm B varies fastest and counts grow by the outcome
	assert.Equal(t, []mdp.ContingencyTable{
		mdp.NewContingencyTable(2, 1, 1, 0),
		mdp.NewContingencyTable(2, 1, 0, 1),
		mdp.NewContingencyTable(1, 2, 1, 0),
		mdp.NewContingencyTable(1, 2, 0, 1),
	}, got)
}

func TestClone_IndependentBuffers(t *testing.T) {
	m, err := NewTransitionModel("beta_binom", uniformPriors)
	require.NoError(t, err)
	m.SetStateAction(mdp.ContingencyTable{}, 1, 1)
	clone := m.Clone()
	clone.SetStateAction(mdp.NewContingencyTable(0, 9, 0, 0), 1, 1)

	testutil.AssertFloat64Equal(t, "source model", 0.25, m.Prob(1, 1), 1e-12)
	assert.Greater(t, clone.Prob(1, 1), 0.25)
}

func TestLogChoose(t *testing.T) {
	tests := []struct {
		n, k int
		want float64
	}{
		{0, 0, 1}, {5, 0, 1}, {5, 2, 10}, {10, 5, 252},
	}
	for _, tc := range tests {
		testutil.AssertFloat64Equal(t, "C(n,k)", tc.want, math.Exp(logChoose(tc.n, tc.k)), 1e-10)
	}
}
