package ga

import (
	"sort"

	"patternlab/internal/genome"
)

// Population is the fixed-size working set of genomes evolved together.
// Fitness is index-aligned with Genomes once the population is evaluated.
type Population struct {
	Genomes []*genome.Genome
	Fitness []float64
}

// NewPopulation wraps genomes with zeroed fitness
func NewPopulation(genomes []*genome.Genome) *Population {
	return &Population{
		Genomes: genomes,
		Fitness: make([]float64, len(genomes)),
	}
}

// Size returns the population size
func (p *Population) Size() int {
	return len(p.Genomes)
}

// SetFitness stores evaluated scores, which must match the population size
func (p *Population) SetFitness(scores []float64) {
	p.Fitness = append(p.Fitness[:0], scores...)
}

// SortedIndices returns genome indices ordered by fitness (descending)
func (p *Population) SortedIndices() []int {
	return SortedIndices(p.Fitness)
}

// TopK returns the K fittest genomes
func (p *Population) TopK(k int) []*genome.Genome {
	idx := p.SortedIndices()
	if k > len(idx) {
		k = len(idx)
	}
	out := make([]*genome.Genome, k)
	for i := 0; i < k; i++ {
		out[i] = p.Genomes[idx[i]]
	}
	return out
}

// Best returns the genome with highest fitness. Ties go to the lowest index.
func (p *Population) Best() (*genome.Genome, float64) {
	if len(p.Genomes) == 0 {
		return nil, 0
	}
	best := 0
	for i := 1; i < len(p.Genomes) && i < len(p.Fitness); i++ {
		if p.Fitness[i] > p.Fitness[best] {
			best = i
		}
	}
	return p.Genomes[best], p.fitnessAt(best)
}

// Worst returns the indices of the n least fit genomes, worst first
func (p *Population) Worst(n int) []int {
	idx := p.SortedIndices()
	if n > len(idx) {
		n = len(idx)
	}
	out := make([]int, 0, n)
	for i := len(idx) - 1; i >= len(idx)-n; i-- {
		out = append(out, idx[i])
	}
	return out
}

// Elites clones the top fraction of the population, tagging them as elite
func (p *Population) Elites(fraction float64, size int) []*genome.Genome {
	count := int(float64(size) * fraction)
	idx := p.SortedIndices()
	if count > len(idx) {
		count = len(idx)
	}
	out := make([]*genome.Genome, 0, count)
	for i := 0; i < count; i++ {
		elite := p.Genomes[idx[i]].Clone()
		elite.Metadata.Status = "elite"
		out = append(out, elite)
	}
	return out
}

// Clone creates a deep copy of the population
func (p *Population) Clone() *Population {
	c := &Population{
		Genomes: make([]*genome.Genome, len(p.Genomes)),
		Fitness: append([]float64(nil), p.Fitness...),
	}
	for i, g := range p.Genomes {
		c.Genomes[i] = g.Clone()
	}
	return c
}

// Replace swaps in a new generation and resets fitness
func (p *Population) Replace(genomes []*genome.Genome) {
	p.Genomes = genomes
	p.ResetFitness()
}

// ResetFitness zeroes all fitness scores
func (p *Population) ResetFitness() {
	p.Fitness = make([]float64, len(p.Genomes))
}

func (p *Population) fitnessAt(i int) float64 {
	if i < len(p.Fitness) {
		return p.Fitness[i]
	}
	return 0
}

// SortedIndices orders indices by value (descending); equal values keep index order
func SortedIndices(values []float64) []int {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return values[idx[a]] > values[idx[b]]
	})
	return idx
}
