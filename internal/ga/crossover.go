package ga

import (
	"math/rand"
	"strings"

	"patternlab/internal/genome"
	"patternlab/internal/pattern"
)

// CrossoverStrategy names a two-parent recombination rule
type CrossoverStrategy string

const (
	Uniform       CrossoverStrategy = "uniform"
	SinglePoint   CrossoverStrategy = "single_point"
	ArtisticBlend CrossoverStrategy = "artistic_blend"
)

// DefaultEmphasis is the boost applied by GuidedCrossover when none is given
const DefaultEmphasis = 0.5

// CrossoverConfig selects the recombination rule
type CrossoverConfig struct {
	Strategy CrossoverStrategy
}

// CrossoverGuidance emphasizes named genes after a crossover
type CrossoverGuidance struct {
	Strategy        CrossoverStrategy `json:"strategy,omitempty"`
	EmphasizeTraits []string          `json:"emphasize_traits,omitempty"`
	Intensity       float64           `json:"intensity,omitempty"`
}

// BreedingChamber combines two parent genomes into one offspring
type BreedingChamber struct {
	rng *rand.Rand
}

// NewBreedingChamber creates a chamber drawing from rng
func NewBreedingChamber(rng *rand.Rand) *BreedingChamber {
	return &BreedingChamber{rng: rng}
}

// Crossover clones p1 and recombines it with p2. Unknown strategies use uniform.
func (b *BreedingChamber) Crossover(p1, p2 *genome.Genome, cfg CrossoverConfig) *genome.Genome {
	child := childOf(p1, p2)
	strategy := cfg.Strategy
	switch strategy {
	case SinglePoint:
		b.singlePoint(child, p2)
	case ArtisticBlend:
		b.artisticBlend(child, p2)
	default:
		strategy = Uniform
		b.uniform(child, p2)
	}
	child.Metadata.Crossover = string(strategy)
	return child
}

// GuidedCrossover crosses the parents then boosts every gene named in
// EmphasizeTraits, in whichever component carries it.
func (b *BreedingChamber) GuidedCrossover(p1, p2 *genome.Genome, guidance CrossoverGuidance) *genome.Genome {
	child := b.Crossover(p1, p2, CrossoverConfig{Strategy: guidance.Strategy})
	boost := guidance.Intensity
	if boost <= 0 {
		boost = DefaultEmphasis
	}
	for _, trait := range guidance.EmphasizeTraits {
		for _, comp := range genome.ComponentNames() {
			v, ok := child.Gene(comp, trait)
			if !ok || v.Kind != genome.KindScalar {
				continue
			}
			child.SetGene(comp, trait, genome.Scalar(v.Scalar+boost))
		}
	}
	return child
}

// HybridCrossover breeds across species. Genes distinctive in both parents
// are averaged and genes distinctive only in p2 are inherited from p2.
func (b *BreedingChamber) HybridCrossover(p1, p2 *genome.Genome, cfg CrossoverConfig) *genome.Genome {
	child := b.Crossover(p1, p2, cfg)
	child.Metadata.Hybrid = true
	child.Metadata.ParentSpecies = []string{p1.SpeciesIdentifier(), p2.SpeciesIdentifier()}

	t1 := p1.DistinctiveTraits()
	t2 := p2.DistinctiveTraits()
	for key, v2 := range t2 {
		comp, name, ok := strings.Cut(key, ".")
		if !ok {
			continue
		}
		if v1, shared := t1[key]; shared {
			child.SetGene(comp, name, genome.Scalar((v1+v2)/2))
			continue
		}
		child.SetGene(comp, name, genome.Scalar(v2))
	}
	for key, v1 := range t1 {
		if _, shared := t2[key]; shared {
			continue
		}
		if comp, name, ok := strings.Cut(key, "."); ok {
			child.SetGene(comp, name, genome.Scalar(v1))
		}
	}
	return child
}

// InitialCrossover layers two patterns textually, seeding hybrid sessions
func InitialCrossover(a, b pattern.Pattern) pattern.Pattern {
	p := pattern.New(pattern.Stack(a.Code, b.Code))
	p.Description = "Initial hybrid of two source patterns"
	p.Metadata.Hybrid = true
	if a.Metadata.Genre != "" && b.Metadata.Genre != "" && a.Metadata.Genre != b.Metadata.Genre {
		p.Metadata.Genre = a.Metadata.Genre + "_" + b.Metadata.Genre + "_hybrid"
		p.Metadata.HybridGenres = []string{a.Metadata.Genre, b.Metadata.Genre}
	} else if a.Metadata.Genre != "" {
		p.Metadata.Genre = a.Metadata.Genre
	} else {
		p.Metadata.Genre = b.Metadata.Genre
	}
	if a.Metadata.ID != "" && b.Metadata.ID != "" {
		p.Metadata.ParentIDs = []string{a.Metadata.ID, b.Metadata.ID}
	}
	return p
}

func (b *BreedingChamber) uniform(child, p2 *genome.Genome) {
	child.Each(func(comp, name string, _ genome.Gene) {
		other, ok := p2.Gene(comp, name)
		if ok && b.rng.Float64() < 0.5 {
			child.SetGene(comp, name, other.Clone())
		}
	})
}

// singlePoint replaces every component at or past a random cut with p2's
func (b *BreedingChamber) singlePoint(child, p2 *genome.Genome) {
	comps := genome.ComponentNames()
	cut := b.rng.Intn(len(comps))
	for _, comp := range comps[cut:] {
		genes, ok := p2.Genes[comp]
		if !ok {
			continue
		}
		replaced := make(map[string]genome.Gene, len(genes))
		for name, v := range genes {
			replaced[name] = v.Clone()
		}
		child.Genes[comp] = replaced
	}
}

func (b *BreedingChamber) artisticBlend(child, p2 *genome.Genome) {
	child.Each(func(comp, name string, v genome.Gene) {
		other, ok := p2.Gene(comp, name)
		if !ok {
			return
		}
		switch {
		case v.Kind == genome.KindScalar && other.Kind == genome.KindScalar:
			child.SetGene(comp, name, genome.Scalar((v.Scalar+other.Scalar)/2))
		case v.Kind == genome.KindSequence && other.Kind == genome.KindSequence:
			child.SetGene(comp, name, genome.Sequence(b.blendSequence(v.Seq, other.Seq)))
		default:
			if b.rng.Float64() < 0.5 {
				child.SetGene(comp, name, other.Clone())
			}
		}
	})
}

// blendSequence picks each position from either parent; picking a position
// the shorter parent lacks drops it
func (b *BreedingChamber) blendSequence(a, c []float64) []float64 {
	n := len(a)
	if len(c) > n {
		n = len(c)
	}
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		src := a
		if b.rng.Float64() < 0.5 {
			src = c
		}
		if i < len(src) {
			out = append(out, src[i])
		}
	}
	return out
}

// childOf clones p1 as the base of a two-parent offspring
func childOf(p1, p2 *genome.Genome) *genome.Genome {
	child := p1.Clone()
	gen := p1.Metadata.Generation
	if p2.Metadata.Generation > gen {
		gen = p2.Metadata.Generation
	}
	child.Metadata.Generation = gen + 1
	child.Metadata.ParentIDs = []string{p1.ID, p2.ID}
	child.Metadata.Status = ""
	child.Metadata.Mutations = nil
	child.Metadata.Hybrid = false
	child.Metadata.Experimental = false
	child.Metadata.ParentSpecies = nil
	return child
}
