package evolution

import (
	"patternlab/internal/ga"
	"patternlab/internal/genome"
)

// initialPopulation seeds the first generation: the original genome followed
// by variations that keep the diversity floor from every earlier member.
// A slot whose variations keep failing the floor gets a random genome.
func (e *Engine) initialPopulation(original *genome.Genome, cfg Config) (*ga.Population, error) {
	seed := original.Clone()
	seed.Metadata.Status = statusOriginal
	if cfg.PreserveOriginalDNA {
		// member 0 is the registered original, same id and lineage
		seed.ID = original.ID
	}

	floor := cfg.diversityFloor()
	members := make([]*genome.Genome, 0, cfg.PopulationSize)
	members = append(members, seed)

	for len(members) < cfg.PopulationSize {
		strategy := ga.VariationStrategies[len(members)%len(ga.VariationStrategies)]

		var accepted *genome.Genome
		for attempt := 0; attempt < seedAttempts; attempt++ {
			v, err := e.mutator.CreateVariation(original, ga.VariationConfig{
				Strategy:  strategy,
				Intensity: 0.1 + e.rng.Float64()*0.5,
			})
			if err != nil {
				return nil, err
			}
			if ga.MinDistance(e.system, v, members) >= floor {
				accepted = v
				break
			}
		}
		if accepted == nil {
			accepted = e.randomSpecimen(members, floor)
		}
		members = append(members, accepted)
	}
	return ga.NewPopulation(members), nil
}

// ensureDiversity replaces the least fit quarter with random genomes when
// mean pairwise distance has dropped below the threshold. Fitness here is
// what each member inherited from its parents. Returns the number replaced.
func (e *Engine) ensureDiversity(pop *ga.Population, cfg Config) int {
	if ga.Diversity(e.system, pop.Genomes) >= diversityThreshold {
		return 0
	}

	for i, g := range pop.Genomes {
		pop.Fitness[i] = g.Metadata.Fitness
	}

	count := int(float64(pop.Size()) * injectFraction)
	replace := make([]int, 0, count)
	marked := make(map[int]bool, count)
	for _, idx := range pop.Worst(pop.Size()) {
		if len(replace) == count {
			break
		}
		if cfg.PreserveOriginalDNA && pop.Genomes[idx].Metadata.Status == statusOriginal {
			continue
		}
		replace = append(replace, idx)
		marked[idx] = true
	}

	kept := make([]*genome.Genome, 0, pop.Size()-len(replace))
	for i, g := range pop.Genomes {
		if !marked[i] {
			kept = append(kept, g)
		}
	}

	floor := cfg.diversityFloor()
	for _, idx := range replace {
		pop.Genomes[idx] = e.randomSpecimen(kept, floor)
	}
	pop.ResetFitness()

	e.metrics.IncDiversityInjection()
	e.log.Debug().Int("replaced", len(replace)).Msg("low diversity, injected random genomes")
	return len(replace)
}

// randomSpecimen draws random genomes until one is farther than floor from
// every genome in others, giving up after a fixed number of draws
func (e *Engine) randomSpecimen(others []*genome.Genome, floor float64) *genome.Genome {
	var g *genome.Genome
	for attempt := 0; attempt < randomAttempts; attempt++ {
		g = e.system.RandomGenome()
		if ga.MinDistance(e.system, g, others) > floor {
			break
		}
	}
	g.Metadata.Status = statusRandom
	return g
}
