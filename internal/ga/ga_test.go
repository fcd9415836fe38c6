package ga

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patternlab/internal/genome"
	"patternlab/internal/pattern"
)

func setup(seed int64) (*rand.Rand, *genome.System) {
	rng := rand.New(rand.NewSource(seed))
	return rng, genome.NewSystem(rng)
}

func assertClamped(t *testing.T, g *genome.Genome) {
	t.Helper()
	g.Each(func(comp, name string, v genome.Gene) {
		if v.Kind == genome.KindScalar {
			assert.GreaterOrEqual(t, v.Scalar, 0.0, "%s.%s", comp, name)
			assert.LessOrEqual(t, v.Scalar, 1.0, "%s.%s", comp, name)
		}
	})
}

func TestCreateVariationRejectsBadIntensity(t *testing.T) {
	rng, sys := setup(1)
	m := NewMutationEngine(rng)
	g := sys.RandomGenome()

	for _, intensity := range []float64{0, -0.1, 1.5} {
		_, err := m.CreateVariation(g, VariationConfig{Strategy: Balanced, Intensity: intensity})
		assert.ErrorIs(t, err, ErrInvalidIntensity)
	}
}

func TestCreateVariationLineage(t *testing.T) {
	rng, sys := setup(2)
	m := NewMutationEngine(rng)
	g := sys.AnalyzePattern(pattern.New(`sound("bd sd hh*2")`))

	v, err := m.CreateVariation(g, VariationConfig{Strategy: Balanced, Intensity: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{g.ID}, v.Metadata.ParentIDs)
	assert.Equal(t, 1, v.Metadata.Generation)
	assert.NotEqual(t, g.ID, v.ID)
	assertClamped(t, v)
}

func TestUnknownStrategyFallsBackToBalanced(t *testing.T) {
	assert.Equal(t, Balanced, ResolveStrategy("wild"))
	assert.Equal(t, Balanced, ResolveStrategy(""))
	assert.Equal(t, TexturalChange, ResolveStrategy(TexturalChange))

	rng, sys := setup(3)
	v, err := NewMutationEngine(rng).CreateVariation(sys.RandomGenome(), VariationConfig{Strategy: "wild", Intensity: 0.5})
	require.NoError(t, err)
	assert.Equal(t, string(Balanced), v.Metadata.Strategy)
}

func TestDirectStrategiesOnlyTouchTheirComponents(t *testing.T) {
	cases := map[Strategy][]string{
		RhythmicShift:       {genome.Rhythmic},
		StructuralVariation: {genome.Structural},
		TimbralMutation:     {genome.Timbral},
		TexturalChange:      {genome.Timbral, genome.Stylistic},
	}
	for strategy, touched := range cases {
		t.Run(string(strategy), func(t *testing.T) {
			rng, sys := setup(4)
			m := NewMutationEngine(rng)
			g := sys.RandomGenome()

			v, err := m.CreateVariation(g, VariationConfig{Strategy: strategy, Intensity: 1})
			require.NoError(t, err)

			allowed := make(map[string]bool)
			for _, c := range touched {
				allowed[c] = true
			}
			changed := false
			for _, comp := range genome.ComponentNames() {
				d := g.CompareComponent(v, comp)
				if !allowed[comp] {
					assert.Equal(t, 0.0, d, comp)
					continue
				}
				if d > 0 {
					changed = true
				}
			}
			assert.True(t, changed)
		})
	}
}

func TestMutationKeepsGenesClamped(t *testing.T) {
	rng, sys := setup(5)
	m := NewMutationEngine(rng)
	g := sys.RandomGenome()
	for i := 0; i < 200; i++ {
		var err error
		g, err = m.Mutate(g, 1)
		require.NoError(t, err)
		assertClamped(t, g)
	}
	assert.Equal(t, 200, g.Metadata.Generation)
}

func TestExperimentalMutationPreservesComponents(t *testing.T) {
	rng, sys := setup(6)
	m := NewMutationEngine(rng)
	g := sys.RandomGenome()

	preserve := []string{genome.Rhythmic, genome.Melodic, genome.Harmonic, genome.Timbral, genome.Stylistic}
	v := m.ExperimentalMutation(g, ExperimentalConfig{Intensity: 0.9, PreserveComponents: preserve})

	assert.True(t, v.Metadata.Experimental)
	assert.Equal(t, []string{g.ID}, v.Metadata.ParentIDs)
	assert.Equal(t, g.Metadata.Generation+1, v.Metadata.Generation)
	for _, comp := range preserve {
		assert.Equal(t, 0.0, g.CompareComponent(v, comp), comp)
	}
	assert.Greater(t, g.CompareComponent(v, genome.Structural), 0.0)
}

func TestGuidedMutationAppliesInstructions(t *testing.T) {
	rng, sys := setup(7)
	m := NewMutationEngine(rng)
	g := sys.RandomGenome()

	v := m.GuidedMutation(g, Guidance{Instructions: []Instruction{
		{Component: genome.Rhythmic, Gene: "kick", Value: 0.9},
		{Component: genome.Melodic, Gene: "contour", Value: 4},
		{Component: genome.Melodic, Gene: "nonexistent", Value: 0.2},
	}})

	assert.Equal(t, 0.9, v.ScalarValue(genome.Rhythmic, "kick"))
	assert.Equal(t, 1.0, v.ScalarValue(genome.Melodic, "contour"))
	_, ok := v.Gene(genome.Melodic, "nonexistent")
	assert.False(t, ok)
	assert.Equal(t, []string{g.ID}, v.Metadata.ParentIDs)
}

func TestCrossoverGeneration(t *testing.T) {
	rng, sys := setup(8)
	b := NewBreedingChamber(rng)
	p1 := sys.RandomGenome()
	p2 := sys.RandomGenome()
	p1.Metadata.Generation = 3
	p2.Metadata.Generation = 5

	for _, s := range []CrossoverStrategy{Uniform, SinglePoint, ArtisticBlend, "unknown"} {
		child := b.Crossover(p1, p2, CrossoverConfig{Strategy: s})
		assert.Equal(t, 6, child.Metadata.Generation)
		assert.Equal(t, []string{p1.ID, p2.ID}, child.Metadata.ParentIDs)
		require.NoError(t, child.Validate())
		assertClamped(t, child)
	}
}

func TestCrossoverGenesComeFromParents(t *testing.T) {
	rng, sys := setup(9)
	b := NewBreedingChamber(rng)
	p1 := sys.RandomGenome()
	p2 := sys.RandomGenome()

	child := b.Crossover(p1, p2, CrossoverConfig{Strategy: Uniform})
	child.Each(func(comp, name string, v genome.Gene) {
		a, _ := p1.Gene(comp, name)
		c, _ := p2.Gene(comp, name)
		assert.True(t, genome.Difference(v, a) == 0 || genome.Difference(v, c) == 0, "%s.%s", comp, name)
	})
}

func TestArtisticBlendAveragesScalars(t *testing.T) {
	rng, sys := setup(10)
	b := NewBreedingChamber(rng)
	p1 := sys.RandomGenome()
	p2 := sys.RandomGenome()
	p1.SetGene(genome.Rhythmic, "kick", genome.Scalar(0.2))
	p2.SetGene(genome.Rhythmic, "kick", genome.Scalar(0.8))

	child := b.Crossover(p1, p2, CrossoverConfig{Strategy: ArtisticBlend})
	assert.InDelta(t, 0.5, child.ScalarValue(genome.Rhythmic, "kick"), 1e-9)
	assert.Equal(t, string(ArtisticBlend), child.Metadata.Crossover)
}

func TestGuidedCrossoverBoostsTraits(t *testing.T) {
	rng, sys := setup(11)
	b := NewBreedingChamber(rng)
	p1 := sys.RandomGenome()
	p2 := p1.Clone()
	p1.SetGene(genome.Rhythmic, "swing", genome.Scalar(0.3))
	p2.SetGene(genome.Rhythmic, "swing", genome.Scalar(0.3))
	p1.SetGene(genome.Rhythmic, "kick", genome.Scalar(0.9))
	p2.SetGene(genome.Rhythmic, "kick", genome.Scalar(0.9))

	child := b.GuidedCrossover(p1, p2, CrossoverGuidance{EmphasizeTraits: []string{"swing", "kick"}})
	assert.InDelta(t, 0.8, child.ScalarValue(genome.Rhythmic, "swing"), 1e-9)
	assert.Equal(t, 1.0, child.ScalarValue(genome.Rhythmic, "kick"))
}

func TestHybridCrossover(t *testing.T) {
	rng, sys := setup(12)
	b := NewBreedingChamber(rng)
	p1 := sys.RandomGenome()
	p2 := sys.RandomGenome()
	p1.SetGene(genome.Timbral, "space", genome.Scalar(0.9))
	p2.SetGene(genome.Timbral, "space", genome.Scalar(1.0))
	p1.SetGene(genome.Harmonic, "tension", genome.Scalar(0.5))
	p2.SetGene(genome.Harmonic, "tension", genome.Scalar(0.05))

	child := b.HybridCrossover(p1, p2, CrossoverConfig{})
	assert.True(t, child.Metadata.Hybrid)
	assert.Equal(t, []string{p1.SpeciesIdentifier(), p2.SpeciesIdentifier()}, child.Metadata.ParentSpecies)
	assert.InDelta(t, 0.95, child.ScalarValue(genome.Timbral, "space"), 1e-9)
	assert.InDelta(t, 0.05, child.ScalarValue(genome.Harmonic, "tension"), 1e-9)
}

func TestInitialCrossover(t *testing.T) {
	a := pattern.Pattern{Code: `sound("bd sd")`, Metadata: pattern.Metadata{Genre: "trap"}}
	b := pattern.Pattern{Code: `note("c4 e4")`, Metadata: pattern.Metadata{Genre: "jazz"}}

	p := InitialCrossover(a, b)
	assert.Equal(t, "stack(\n  sound(\"bd sd\"),\n  note(\"c4 e4\")\n)", p.Code)
	assert.Equal(t, "trap_jazz_hybrid", p.Metadata.Genre)
	assert.Equal(t, []string{"trap", "jazz"}, p.Metadata.HybridGenres)
}

func TestSelection(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	fitness := []float64{0.1, 0.9, 0.3, 0.5}

	counts := make([]int, len(fitness))
	for i := 0; i < 2000; i++ {
		counts[TournamentSelect(fitness, TournamentSize, rng)]++
	}
	assert.Greater(t, counts[1], counts[0])
	assert.Greater(t, counts[1], counts[2])

	counts = make([]int, len(fitness))
	for i := 0; i < 2000; i++ {
		counts[RouletteSelect(fitness, rng)]++
	}
	assert.Greater(t, counts[1], counts[0])

	counts = make([]int, len(fitness))
	for i := 0; i < 2000; i++ {
		counts[RankSelect(fitness, rng)]++
	}
	assert.Greater(t, counts[1], counts[0])

	assert.Equal(t, -1, Select(Roulette, nil, rng))
	zero := []float64{0, 0, 0}
	for i := 0; i < 20; i++ {
		idx := RouletteSelect(zero, rng)
		assert.True(t, idx >= 0 && idx < 3)
	}
}

func TestSortedIndicesStable(t *testing.T) {
	assert.Equal(t, []int{1, 3, 0, 2}, SortedIndices([]float64{0.5, 0.9, 0.1, 0.5}))
}

func TestPopulationHelpers(t *testing.T) {
	_, sys := setup(14)
	genomes := make([]*genome.Genome, 10)
	for i := range genomes {
		genomes[i] = sys.RandomGenome()
	}
	pop := NewPopulation(genomes)
	pop.SetFitness([]float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.05})

	best, f := pop.Best()
	assert.Equal(t, genomes[8], best)
	assert.Equal(t, 0.9, f)
	assert.Equal(t, []int{9, 0}, pop.Worst(2))

	elites := pop.Elites(0.2, 10)
	require.Len(t, elites, 2)
	assert.Equal(t, "elite", elites[0].Metadata.Status)
	assert.Equal(t, 0.0, sys.GeneticDistance(elites[0], genomes[8]))
}

func TestSummarizeAndDiversity(t *testing.T) {
	stats := Summarize([]float64{0.2, 0.4, 0.6})
	assert.InDelta(t, 0.4, stats.Average, 1e-9)
	assert.Equal(t, 0.6, stats.Maximum)
	assert.Equal(t, 0.2, stats.Minimum)
	assert.InDelta(t, 0.163299, stats.StdDev, 1e-6)
	assert.Equal(t, 0.0, Summarize(nil).Average)

	_, sys := setup(15)
	g := sys.RandomGenome()
	assert.Equal(t, 0.0, Diversity(sys, []*genome.Genome{g}))
	assert.Equal(t, 0.0, Diversity(sys, []*genome.Genome{g, g.Clone()}))
	assert.Greater(t, Diversity(sys, []*genome.Genome{g, sys.RandomGenome()}), 0.0)
}
