package ga

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"patternlab/internal/genome"
	"patternlab/internal/model"
)

// Distancer measures genetic distance between two genomes
type Distancer interface {
	GeneticDistance(a, b *genome.Genome) float64
}

// Summarize computes fitness statistics across a population
func Summarize(fitness []float64) model.FitnessStats {
	if len(fitness) == 0 {
		return model.FitnessStats{}
	}
	mean, std := stat.PopMeanStdDev(fitness, nil)
	return model.FitnessStats{
		Average: mean,
		Maximum: floats.Max(fitness),
		Minimum: floats.Min(fitness),
		StdDev:  std,
	}
}

// Diversity is the mean pairwise genetic distance. Fewer than two genomes
// have no diversity.
func Diversity(d Distancer, genomes []*genome.Genome) float64 {
	if len(genomes) < 2 {
		return 0
	}
	var total float64
	pairs := 0
	for i := 0; i < len(genomes); i++ {
		for j := i + 1; j < len(genomes); j++ {
			total += d.GeneticDistance(genomes[i], genomes[j])
			pairs++
		}
	}
	return total / float64(pairs)
}

// MinDistance is the smallest distance from g to any member of others,
// 1 when others is empty
func MinDistance(d Distancer, g *genome.Genome, others []*genome.Genome) float64 {
	best := 1.0
	for _, o := range others {
		if o == nil {
			continue
		}
		if dist := d.GeneticDistance(g, o); dist < best {
			best = dist
		}
	}
	return best
}

// SpeciesCounts groups genomes by species identifier
func SpeciesCounts(genomes []*genome.Genome) map[string]int {
	out := make(map[string]int)
	for _, g := range genomes {
		out[g.SpeciesIdentifier()]++
	}
	return out
}
