package suggest

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patternlab/internal/eval"
	"patternlab/internal/genome"
)

// peaked builds a genome whose k-th gene in every component dominates
func peaked(k int, fitness float64) *genome.Genome {
	g := genome.New()
	for _, c := range genome.Schema() {
		for i, name := range c.Genes {
			v := 0.1
			if i == k {
				v = 0.9
			}
			g.SetGene(c.Name, name, genome.Scalar(v))
		}
	}
	g.SetGene(genome.Melodic, "intervals", genome.Sequence([]float64{1, 2, 3}))
	g.Metadata.Fitness = fitness
	return g
}

func newEngine() *Engine {
	return NewEngine(genome.NewSystem(rand.New(rand.NewSource(1))))
}

func TestComplementarity(t *testing.T) {
	a := peaked(1, 0.5)
	assert.InDelta(t, 0.6, Complementarity(a, peaked(1, 0.5)), 1e-9)
	assert.InDelta(t, 1.0, Complementarity(a, peaked(2, 0.5)), 1e-9)
}

func TestGetSuggestions(t *testing.T) {
	a := peaked(1, 0.5)
	b := peaked(2, 0.6)
	c := peaked(1, 0.7)
	d := peaked(2, 0.3)

	out := newEngine().GetSuggestions([]*genome.Genome{a, b, c, d}, Analysis{}, eval.Preferences{})
	require.Len(t, out, 5)

	assert.Equal(t, KindCrossover, out[0].Kind)
	assert.Same(t, a, out[0].Parent1)
	assert.Same(t, b, out[0].Parent2)
	assert.Equal(t, ComplementaryGuidance, out[0].Crossover)
	assert.Same(t, b, out[1].Parent1)
	assert.Same(t, c, out[1].Parent2)

	assert.Equal(t, KindMutation, out[2].Kind)
	assert.Same(t, c, out[2].Target)
	var genes []string
	for _, in := range out[2].Mutation.Instructions {
		genes = append(genes, in.Component+"."+in.Gene)
		assert.Equal(t, enhancementValue, in.Value)
	}
	assert.Equal(t, []string{"rhythmic.kick", "harmonic.progression", "structural.form", "structural.development"}, genes)

	for _, s := range out {
		assert.NotSame(t, d, s.Parent1)
		assert.NotSame(t, d, s.Parent2)
		assert.NotSame(t, d, s.Target)
	}
}

func TestGetSuggestionsEmptyWithoutCandidates(t *testing.T) {
	out := newEngine().GetSuggestions([]*genome.Genome{peaked(1, 0.2), peaked(2, 0.4)}, Analysis{}, eval.Preferences{})
	assert.Empty(t, out)
}

func TestSuggestionCap(t *testing.T) {
	var pop []*genome.Genome
	for i := 0; i < 12; i++ {
		pop = append(pop, peaked(i%3, 0.9))
	}
	out := newEngine().GetSuggestions(pop, Analysis{}, eval.Preferences{})
	assert.LessOrEqual(t, len(out), maxSuggestions)
}

func TestSuggestPairs(t *testing.T) {
	sys := genome.NewSystem(rand.New(rand.NewSource(2)))
	var pop []*genome.Genome
	for i := 0; i < 10; i++ {
		g := sys.RandomGenome()
		g.Metadata.Fitness = 0.8
		pop = append(pop, g)
	}

	pairs := NewEngine(sys).SuggestPairs(pop, eval.Preferences{})
	require.NotEmpty(t, pairs)
	assert.LessOrEqual(t, len(pairs), maxPairs)
	for i, p := range pairs {
		assert.Greater(t, p.Compatibility, pairCutoff)
		assert.InDelta(t, 0.9, p.ExpectedTraits.ExpectedFitness, 1e-9)
		assert.True(t, strings.HasPrefix(p.Recommendation, "Crossing "+p.Parent1.SpeciesIdentifier()+" with "))
		if i > 0 {
			assert.GreaterOrEqual(t, pairs[i-1].Compatibility, p.Compatibility)
		}
	}
}

func TestSuggestPairsSkipsClones(t *testing.T) {
	a := peaked(1, 0.5)
	pairs := newEngine().SuggestPairs([]*genome.Genome{a, a.Clone()}, eval.Preferences{})
	assert.Empty(t, pairs)
}

func TestEmergentPatternsAndAnalysis(t *testing.T) {
	pop := []*genome.Genome{peaked(0, 0.2), peaked(0, 0.4), peaked(0, 0.6), peaked(1, 0.8)}
	emergent := EmergentPatterns(pop)
	assert.Contains(t, emergent, "rhythmic.kick")
	assert.NotContains(t, emergent, "rhythmic.snare")

	a := newEngine().Analyze(pop, []float64{0.2, 0.4, 0.6, 0.8})
	assert.InDelta(t, 0.5, a.AverageFitness, 1e-9)
	assert.InDelta(t, 0.4, a.ConvergenceRate, 1e-9)
	assert.Equal(t, "kick", a.DominantTraits[genome.Rhythmic])
	assert.Greater(t, a.Diversity, 0.0)
}
