package ga

import (
	"math/rand"

	"patternlab/internal/genome"
)

// Method names a parent selection algorithm
type Method string

const (
	Tournament Method = "tournament"
	Roulette   Method = "roulette"
	Rank       Method = "rank"
)

// TournamentSize is the number of draws per tournament
const TournamentSize = 3

// TournamentSelect picks the fittest of k random draws
func TournamentSelect(fitness []float64, k int, rng *rand.Rand) int {
	if len(fitness) == 0 {
		return -1
	}
	best := rng.Intn(len(fitness))
	for i := 1; i < k; i++ {
		candidate := rng.Intn(len(fitness))
		if fitness[candidate] > fitness[best] {
			best = candidate
		}
	}
	return best
}

// RouletteSelect picks an index with probability proportional to fitness.
// A population with no positive fitness falls back to a uniform pick.
func RouletteSelect(fitness []float64, rng *rand.Rand) int {
	if len(fitness) == 0 {
		return -1
	}
	var total float64
	for _, f := range fitness {
		if f > 0 {
			total += f
		}
	}
	if total <= 0 {
		return rng.Intn(len(fitness))
	}
	spin := rng.Float64() * total
	var acc float64
	for i, f := range fitness {
		if f > 0 {
			acc += f
		}
		if acc >= spin && f > 0 {
			return i
		}
	}
	return len(fitness) - 1
}

// RankSelect picks an index with probability proportional to its rank,
// so the best of n has weight n and the worst has weight 1.
func RankSelect(fitness []float64, rng *rand.Rand) int {
	n := len(fitness)
	if n == 0 {
		return -1
	}
	sorted := SortedIndices(fitness)
	rankSum := float64(n*(n+1)) / 2
	spin := rng.Float64() * rankSum
	var acc float64
	for i := 0; i < n; i++ {
		acc += float64(n - i)
		if acc >= spin {
			return sorted[i]
		}
	}
	return sorted[0]
}

// Select dispatches to the named method; unknown methods use a tournament
func Select(method Method, fitness []float64, rng *rand.Rand) int {
	switch method {
	case Roulette:
		return RouletteSelect(fitness, rng)
	case Rank:
		return RankSelect(fitness, rng)
	default:
		return TournamentSelect(fitness, TournamentSize, rng)
	}
}

// SelectParent returns one genome chosen by method
func (p *Population) SelectParent(method Method, rng *rand.Rand) *genome.Genome {
	i := Select(method, p.Fitness, rng)
	if i < 0 {
		return nil
	}
	return p.Genomes[i]
}

// SelectParents selects two parents using tournament selection
func (p *Population) SelectParents(rng *rand.Rand) (*genome.Genome, *genome.Genome) {
	return p.SelectParent(Tournament, rng), p.SelectParent(Tournament, rng)
}
