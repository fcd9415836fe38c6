package suggest

import (
	"fmt"
	"math"
	"sort"

	"patternlab/internal/eval"
	"patternlab/internal/ga"
	"patternlab/internal/genome"
)

const (
	candidateFitness     = 0.4
	complementaryCutoff  = 0.7
	pairCutoff           = 0.6
	emergentValue        = 0.75
	emergentShare        = 0.75
	enhancementThreshold = 0.3
	enhancementValue     = 0.6

	maxComplementary = 3
	maxEnhancements  = 3
	maxSuggestions   = 10
	maxPairs         = 5
)

// ComplementaryGuidance is attached to every complementary pairing
var ComplementaryGuidance = ga.CrossoverGuidance{Strategy: "complementary", Intensity: 0.6}

// bonusGenes are the genes the evaluator rewards once above its threshold
var bonusGenes = []struct{ component, gene string }{
	{genome.Rhythmic, "kick"},
	{genome.Rhythmic, "snare"},
	{genome.Melodic, "contour"},
	{genome.Harmonic, "progression"},
	{genome.Harmonic, "voicing"},
	{genome.Structural, "form"},
	{genome.Structural, "development"},
}

// Kind tells crossover and mutation suggestions apart
type Kind string

const (
	KindCrossover Kind = "crossover"
	KindMutation  Kind = "mutation"
)

// Suggestion is one breeding or mutation proposal. Crossover suggestions
// carry two parents, mutation suggestions a target.
type Suggestion struct {
	Kind      Kind
	Parent1   *genome.Genome
	Parent2   *genome.Genome
	Target    *genome.Genome
	Score     float64
	Crossover ga.CrossoverGuidance
	Mutation  ga.Guidance
}

// Analysis summarizes population trends for one generation
type Analysis struct {
	AverageFitness   float64           `json:"average_fitness"`
	Diversity        float64           `json:"diversity_index"`
	DominantTraits   map[string]string `json:"dominant_traits"`
	EmergentPatterns []string          `json:"emergent_patterns"`
	ConvergenceRate  float64           `json:"convergence_rate"`
}

// PredictedTraits is the expected outcome of crossing a pair
type PredictedTraits struct {
	ExpectedFitness float64  `json:"expected_fitness"`
	DominantTraits  []string `json:"dominant_traits"`
	NovelTraits     []string `json:"novel_traits"`
}

// PairSuggestion is a ranked breeding pair
type PairSuggestion struct {
	Parent1        *genome.Genome  `json:"-"`
	Parent2        *genome.Genome  `json:"-"`
	Parent1ID      string          `json:"parent1_id"`
	Parent2ID      string          `json:"parent2_id"`
	Compatibility  float64         `json:"compatibility"`
	ExpectedTraits PredictedTraits `json:"expected_traits"`
	Recommendation string          `json:"recommendation"`
}

// Engine proposes pairings and mutations to steer guided evolution
type Engine struct {
	distance ga.Distancer
}

// NewEngine creates a suggestion engine measuring distance with d
func NewEngine(d ga.Distancer) *Engine {
	return &Engine{distance: d}
}

// Analyze computes population trends. fitness is index-aligned with genomes.
func (e *Engine) Analyze(genomes []*genome.Genome, fitness []float64) Analysis {
	a := Analysis{
		DominantTraits:   DominantTraits(genomes),
		EmergentPatterns: EmergentPatterns(genomes),
		Diversity:        ga.Diversity(e.distance, genomes),
	}
	if len(fitness) > 0 {
		stats := ga.Summarize(fitness)
		a.AverageFitness = stats.Average
		if len(fitness) >= 2 {
			a.ConvergenceRate = 1 - (stats.Maximum - stats.Minimum)
		}
	}
	return a
}

// GetSuggestions returns complementary crossovers followed by trait
// enhancing mutations. Only genomes with fitness above 0.4 take part.
func (e *Engine) GetSuggestions(genomes []*genome.Genome, _ Analysis, _ eval.Preferences) []Suggestion {
	var candidates []*genome.Genome
	for _, g := range genomes {
		if g.Metadata.Fitness > candidateFitness {
			candidates = append(candidates, g)
		}
	}

	var out []Suggestion
	out = append(out, complementaryPairings(candidates)...)
	out = append(out, traitEnhancements(candidates)...)
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

// SuggestPairs ranks every pair by breeding compatibility and returns the
// best five above 0.6
func (e *Engine) SuggestPairs(genomes []*genome.Genome, _ eval.Preferences) []PairSuggestion {
	var pairs []PairSuggestion
	for i := 0; i < len(genomes); i++ {
		for j := i + 1; j < len(genomes); j++ {
			p1, p2 := genomes[i], genomes[j]
			c := e.compatibility(p1, p2)
			if c <= pairCutoff {
				continue
			}
			pairs = append(pairs, PairSuggestion{
				Parent1:        p1,
				Parent2:        p2,
				Parent1ID:      p1.ID,
				Parent2ID:      p2.ID,
				Compatibility:  c,
				ExpectedTraits: predictTraits(p1, p2),
				Recommendation: recommendation(p1, p2),
			})
		}
	}
	sort.SliceStable(pairs, func(a, b int) bool {
		return pairs[a].Compatibility > pairs[b].Compatibility
	})
	if len(pairs) > maxPairs {
		pairs = pairs[:maxPairs]
	}
	return pairs
}

// Complementarity rises with the share of components whose dominant gene
// differs between the two genomes
func Complementarity(a, b *genome.Genome) float64 {
	da := a.DominantGenes()
	db := b.DominantGenes()
	differ := 0
	for _, comp := range genome.ComponentNames() {
		if da[comp] != db[comp] {
			differ++
		}
	}
	return 0.6 + 0.4*float64(differ)/float64(len(genome.ComponentNames()))
}

// DominantTraits maps each component to the dominant gene most common
// across the population
func DominantTraits(genomes []*genome.Genome) map[string]string {
	counts := make(map[string]map[string]int)
	for _, g := range genomes {
		for comp, gene := range g.DominantGenes() {
			if counts[comp] == nil {
				counts[comp] = make(map[string]int)
			}
			counts[comp][gene]++
		}
	}
	out := make(map[string]string, len(counts))
	for _, comp := range genome.ComponentNames() {
		c, ok := counts[comp]
		if !ok {
			continue
		}
		best, bestCount := "", -1
		for _, gene := range genome.GeneNames(comp) {
			if c[gene] > bestCount {
				best, bestCount = gene, c[gene]
			}
		}
		out[comp] = best
	}
	return out
}

// EmergentPatterns lists "component.gene" keys where at least three quarters
// of the population carry a value above 0.75
func EmergentPatterns(genomes []*genome.Genome) []string {
	if len(genomes) == 0 {
		return nil
	}
	high := make(map[string]int)
	for _, g := range genomes {
		g.Each(func(comp, name string, v genome.Gene) {
			if f, ok := v.Numeric(); ok && f > emergentValue {
				high[comp+"."+name]++
			}
		})
	}
	var out []string
	for _, c := range genome.Schema() {
		for _, name := range c.Genes {
			key := c.Name + "." + name
			if float64(high[key]) >= emergentShare*float64(len(genomes)) {
				out = append(out, key)
			}
		}
	}
	return out
}

func complementaryPairings(candidates []*genome.Genome) []Suggestion {
	var out []Suggestion
	for i := 0; i < len(candidates) && len(out) < maxComplementary; i++ {
		for j := i + 1; j < len(candidates) && len(out) < maxComplementary; j++ {
			score := Complementarity(candidates[i], candidates[j])
			if score <= complementaryCutoff {
				continue
			}
			out = append(out, Suggestion{
				Kind:      KindCrossover,
				Parent1:   candidates[i],
				Parent2:   candidates[j],
				Score:     score,
				Crossover: ComplementaryGuidance,
			})
		}
	}
	return out
}

// traitEnhancements raises rewarded genes that sit below the evaluator's
// threshold on the fittest candidates
func traitEnhancements(candidates []*genome.Genome) []Suggestion {
	fitness := make([]float64, len(candidates))
	for i, g := range candidates {
		fitness[i] = g.Metadata.Fitness
	}

	var out []Suggestion
	for _, idx := range ga.SortedIndices(fitness) {
		if len(out) >= maxEnhancements {
			break
		}
		g := candidates[idx]
		var instructions []ga.Instruction
		for _, b := range bonusGenes {
			v, ok := g.Gene(b.component, b.gene)
			if !ok || v.Kind != genome.KindScalar || v.Scalar > enhancementThreshold {
				continue
			}
			instructions = append(instructions, ga.Instruction{Component: b.component, Gene: b.gene, Value: enhancementValue})
		}
		if len(instructions) == 0 {
			continue
		}
		out = append(out, Suggestion{
			Kind:     KindMutation,
			Target:   g,
			Score:    g.Metadata.Fitness,
			Mutation: ga.Guidance{Instructions: instructions},
		})
	}
	return out
}

func (e *Engine) compatibility(a, b *genome.Genome) float64 {
	c := 0.5
	if d := e.distance.GeneticDistance(a, b); d > 0.2 && d < 0.8 {
		c += 0.3
	}
	c += (a.Metadata.Fitness + b.Metadata.Fitness) / 2 * 0.2
	return math.Min(1, c)
}

func predictTraits(a, b *genome.Genome) PredictedTraits {
	var shared, novel []string
	for _, comp := range genome.ComponentNames() {
		sa := a.HasSignificantGenes(comp)
		sb := b.HasSignificantGenes(comp)
		switch {
		case sa && sb:
			shared = append(shared, comp)
		case sa != sb:
			novel = append(novel, comp)
		}
	}
	return PredictedTraits{
		ExpectedFitness: (a.Metadata.Fitness+b.Metadata.Fitness)/2 + 0.1,
		DominantTraits:  shared,
		NovelTraits:     novel,
	}
}

func recommendation(a, b *genome.Genome) string {
	return fmt.Sprintf("Crossing %s with %s may produce offspring with enhanced creative potential.",
		a.SpeciesIdentifier(), b.SpeciesIdentifier())
}
