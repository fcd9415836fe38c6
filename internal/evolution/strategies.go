package evolution

import (
	"fmt"
	"math"

	"patternlab/internal/ga"
	"patternlab/internal/genome"
	"patternlab/internal/suggest"
)

const (
	naturalEliteRate = 0.15
	guidedEliteRate  = 0.20
	driftEliteRate   = 0.10

	crossoverRate = 0.75
	hybridChance  = 0.6

	driftBaseIntensity = 0.5
	driftJitter        = 0.3
	structureKeepRate  = 0.3
)

// applyStrategy produces the next generation. The result always holds
// exactly cfg.PopulationSize genomes.
func (e *Engine) applyStrategy(pop *ga.Population, cfg Config, gen int) ([]*genome.Genome, error) {
	switch cfg.Strategy {
	case NaturalSelection:
		return e.naturalSelection(pop, cfg)
	case GuidedEvolution:
		return e.guidedEvolution(pop, cfg)
	case ExperimentalDrift:
		return e.experimentalDrift(pop, cfg), nil
	case HybridBreeding:
		return e.hybridBreeding(pop, cfg)
	case PressureEvolution:
		return e.pressureEvolution(pop, cfg, gen)
	case CreativeExplosion:
		if gen%diversityInterval == 0 {
			e.log.Debug().Int("generation", gen).Msg("creative explosion")
			return e.experimentalDrift(pop, cfg), nil
		}
		return e.naturalSelection(pop, cfg)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, cfg.Strategy)
}

// elites clones the fittest fraction, keeping the original's status so
// diversity injection can still recognize it
func elites(pop *ga.Population, fraction float64, size int) []*genome.Genome {
	out := pop.Elites(fraction, size)
	idx := pop.SortedIndices()
	for i, el := range out {
		if pop.Genomes[idx[i]].Metadata.Status == statusOriginal {
			el.Metadata.Status = statusOriginal
		}
	}
	return out
}

func (e *Engine) naturalSelection(pop *ga.Population, cfg Config) ([]*genome.Genome, error) {
	next := elites(pop, naturalEliteRate, cfg.PopulationSize)
	crossover := ga.CrossoverConfig{Strategy: cfg.CrossoverStrategy}

	for len(next) < cfg.PopulationSize {
		if e.rng.Float64() < crossoverRate {
			p1, p2 := pop.SelectParents(e.rng)
			next = append(next, e.chamber.Crossover(p1, p2, crossover))
			continue
		}
		mutant, err := e.mutator.Mutate(pop.SelectParent(ga.Roulette, e.rng), cfg.MutationIntensity)
		if err != nil {
			return nil, err
		}
		next = append(next, mutant)
	}
	return next, nil
}

// guidedEvolution cycles through the suggestion list. With nothing to
// suggest it falls back to tournament selection and balanced mutation.
func (e *Engine) guidedEvolution(pop *ga.Population, cfg Config) ([]*genome.Genome, error) {
	analysis := e.suggester.Analyze(pop.Genomes, pop.Fitness)
	suggestions := e.suggester.GetSuggestions(pop.Genomes, analysis, cfg.UserPreferences)

	next := elites(pop, guidedEliteRate, cfg.PopulationSize)
	for i := 0; len(next) < cfg.PopulationSize; i++ {
		if len(suggestions) == 0 {
			mutant, err := e.mutator.Mutate(pop.SelectParent(ga.Tournament, e.rng), cfg.MutationIntensity)
			if err != nil {
				return nil, err
			}
			next = append(next, mutant)
			continue
		}

		s := suggestions[i%len(suggestions)]
		switch s.Kind {
		case suggest.KindCrossover:
			next = append(next, e.chamber.GuidedCrossover(s.Parent1, s.Parent2, s.Crossover))
		default:
			next = append(next, e.mutator.GuidedMutation(s.Target, s.Mutation))
		}
	}
	return next, nil
}

func (e *Engine) experimentalDrift(pop *ga.Population, cfg Config) []*genome.Genome {
	next := elites(pop, driftEliteRate, cfg.PopulationSize)
	for len(next) < cfg.PopulationSize {
		base := pop.Genomes[e.rng.Intn(pop.Size())]

		preserve := append([]string(nil), cfg.Constraints.PreserveComponents...)
		if e.rng.Float64() < structureKeepRate {
			preserve = append(preserve, genome.Structural)
		}
		intensity := math.Min(1, driftBaseIntensity+cfg.CreativityBoost+e.rng.Float64()*driftJitter)

		next = append(next, e.mutator.ExperimentalMutation(base, ga.ExperimentalConfig{
			Intensity:          intensity,
			PreserveComponents: preserve,
		}))
	}
	return next
}

func (e *Engine) hybridBreeding(pop *ga.Population, cfg Config) ([]*genome.Genome, error) {
	species, groups := groupBySpecies(pop.Genomes)
	crossover := ga.CrossoverConfig{Strategy: cfg.CrossoverStrategy}

	next := make([]*genome.Genome, 0, cfg.PopulationSize)
	for _, key := range species {
		members := groups[key]
		if len(members) < 2 {
			continue
		}
		p1 := members[e.rng.Intn(len(members))]
		p2 := members[e.rng.Intn(len(members))]
		next = append(next, e.chamber.Crossover(p1, p2, crossover))
	}

	for len(next) < cfg.PopulationSize {
		if cfg.EnableHybridization && len(species) > 1 && e.rng.Float64() < hybridChance {
			s1 := species[e.rng.Intn(len(species))]
			s2 := species[e.rng.Intn(len(species))]
			if s1 == s2 {
				continue
			}
			next = append(next, e.chamber.HybridCrossover(groups[s1][0], groups[s2][0], crossover))
			continue
		}
		mutant, err := e.mutator.Mutate(pop.SelectParent(ga.Tournament, e.rng), cfg.MutationIntensity)
		if err != nil {
			return nil, err
		}
		next = append(next, mutant)
	}

	if len(next) > cfg.PopulationSize {
		next = next[:cfg.PopulationSize]
	}
	return next, nil
}

func (e *Engine) pressureEvolution(pop *ga.Population, cfg Config, gen int) ([]*genome.Genome, error) {
	pressure := EnvironmentalPressure(gen, cfg.Generations)
	adjusted := make([]float64, pop.Size())
	for i, g := range pop.Genomes {
		adjusted[i] = ApplySelectionPressure(g, pop.Fitness[i], pressure)
	}
	e.log.Debug().
		Float64("complexity", pressure.Complexity).
		Float64("creativity", pressure.Creativity).
		Float64("stability", pressure.Stability).
		Msg("environmental pressure")

	return e.naturalSelection(&ga.Population{Genomes: pop.Genomes, Fitness: adjusted}, cfg)
}

// Pressure is the environment a generation is selected under
type Pressure struct {
	Complexity float64
	Creativity float64
	Stability  float64
}

// EnvironmentalPressure oscillates with the generation index
func EnvironmentalPressure(gen, generations int) Pressure {
	if generations < 1 {
		generations = 1
	}
	g := float64(gen)
	return Pressure{
		Complexity: math.Sin(g*0.1)*0.5 + 0.5,
		Creativity: math.Cos(g*0.15)*0.3 + 0.7,
		Stability:  1 - g/float64(generations)*0.5,
	}
}

// ApplySelectionPressure rescales fitness by how well g's complexity and
// creativity suit the pressure. Never negative.
func ApplySelectionPressure(g *genome.Genome, fitness float64, p Pressure) float64 {
	adjusted := fitness
	adjusted *= 1 + (p.Complexity-0.5)*g.ComplexityScore()*0.2
	adjusted *= 1 + (p.Creativity-0.5)*g.CreativityScore()*0.3
	return math.Max(0, adjusted)
}

// groupBySpecies buckets genomes by species identifier, keys in order of
// first appearance
func groupBySpecies(genomes []*genome.Genome) ([]string, map[string][]*genome.Genome) {
	var keys []string
	groups := make(map[string][]*genome.Genome)
	for _, g := range genomes {
		key := g.SpeciesIdentifier()
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], g)
	}
	return keys, groups
}
