package ga

import (
	"errors"
	"fmt"
	"math/rand"

	"patternlab/internal/genome"
)

// ErrInvalidIntensity is returned when a mutation intensity is outside (0,1]
var ErrInvalidIntensity = errors.New("mutation intensity must be in (0, 1]")

// Strategy names a mutation strategy
type Strategy string

const (
	RhythmicShift        Strategy = "rhythmic_shift"
	MelodicDrift         Strategy = "melodic_drift"
	HarmonicSubstitution Strategy = "harmonic_substitution"
	TexturalChange       Strategy = "textural_change"
	StructuralVariation  Strategy = "structural_variation"
	TimbralMutation      Strategy = "timbral_mutation"
	Balanced             Strategy = "balanced"
)

// FallbackStrategy is used for empty or unrecognised strategy names
const FallbackStrategy = Balanced

// VariationStrategies rotate through population initialization
var VariationStrategies = []Strategy{
	RhythmicShift, MelodicDrift, HarmonicSubstitution,
	TexturalChange, StructuralVariation, TimbralMutation,
}

// strategyTargets lists the components each direct strategy perturbs
var strategyTargets = map[Strategy][]string{
	RhythmicShift:        {genome.Rhythmic},
	MelodicDrift:         {genome.Melodic},
	HarmonicSubstitution: {genome.Harmonic},
	TexturalChange:       {genome.Timbral, genome.Stylistic},
	StructuralVariation:  {genome.Structural},
	TimbralMutation:      {genome.Timbral},
}

// ResolveStrategy maps a strategy name to a known strategy
func ResolveStrategy(s Strategy) Strategy {
	if s == Balanced {
		return s
	}
	if _, ok := strategyTargets[s]; ok {
		return s
	}
	return FallbackStrategy
}

// VariationConfig controls a single variation
type VariationConfig struct {
	Strategy  Strategy
	Intensity float64
}

// ExperimentalConfig controls a radical mutation
type ExperimentalConfig struct {
	Intensity          float64
	PreserveComponents []string
}

// Instruction sets one gene to an explicit value
type Instruction struct {
	Component string  `json:"component"`
	Gene      string  `json:"gene"`
	Value     float64 `json:"value"`
}

// Guidance is an explicit list of gene assignments
type Guidance struct {
	Instructions []Instruction `json:"instructions"`
}

// MutationEngine produces perturbed clones of a single parent
type MutationEngine struct {
	rng *rand.Rand
}

// NewMutationEngine creates a mutation engine drawing from rng
func NewMutationEngine(rng *rand.Rand) *MutationEngine {
	return &MutationEngine{rng: rng}
}

// CreateVariation clones g, advances its generation and perturbs it
func (m *MutationEngine) CreateVariation(g *genome.Genome, cfg VariationConfig) (*genome.Genome, error) {
	if cfg.Intensity <= 0 || cfg.Intensity > 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidIntensity, cfg.Intensity)
	}
	strategy := ResolveStrategy(cfg.Strategy)

	v := offspringOf(g)
	v.Metadata.Strategy = string(strategy)
	v.Metadata.Intensity = cfg.Intensity
	v.Metadata.Mutations = append(v.Metadata.Mutations, string(strategy))

	if strategy == Balanced {
		for _, comp := range genome.ComponentNames() {
			m.perturbComponent(v, comp, cfg.Intensity*0.5, cfg.Intensity)
		}
		return v, nil
	}
	for _, comp := range strategyTargets[strategy] {
		m.perturbComponent(v, comp, cfg.Intensity, cfg.Intensity)
	}
	return v, nil
}

// Mutate applies a balanced variation
func (m *MutationEngine) Mutate(g *genome.Genome, intensity float64) (*genome.Genome, error) {
	return m.CreateVariation(g, VariationConfig{Strategy: Balanced, Intensity: intensity})
}

// ExperimentalMutation re-randomizes one whole component chosen among those
// not preserved. Remaining free scalar genes drift with probability
// intensity/4.
func (m *MutationEngine) ExperimentalMutation(g *genome.Genome, cfg ExperimentalConfig) *genome.Genome {
	v := offspringOf(g)
	v.Metadata.Experimental = true
	v.Metadata.Intensity = cfg.Intensity
	v.Metadata.Mutations = append(v.Metadata.Mutations, "experimental")

	preserved := make(map[string]bool, len(cfg.PreserveComponents))
	for _, c := range cfg.PreserveComponents {
		preserved[c] = true
	}
	var candidates []string
	for _, c := range genome.ComponentNames() {
		if !preserved[c] {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return v
	}

	target := candidates[m.rng.Intn(len(candidates))]
	for _, name := range genome.GeneNames(target) {
		v.SetGene(target, name, genome.RandomGeneValue(m.rng, target, name))
	}
	if cfg.Intensity > 0 {
		for _, c := range candidates {
			if c != target {
				m.perturbComponent(v, c, cfg.Intensity/4, cfg.Intensity)
			}
		}
	}
	return v
}

// GuidedMutation applies explicit instructions without randomness.
// Instructions naming genes the genome lacks are skipped.
func (m *MutationEngine) GuidedMutation(g *genome.Genome, guidance Guidance) *genome.Genome {
	v := offspringOf(g)
	v.Metadata.Mutations = append(v.Metadata.Mutations, "guided")
	for _, in := range guidance.Instructions {
		if _, ok := v.Gene(in.Component, in.Gene); !ok {
			continue
		}
		v.SetGene(in.Component, in.Gene, genome.Scalar(in.Value))
	}
	return v
}

// perturbComponent mutates each gene of a component with probability p
func (m *MutationEngine) perturbComponent(g *genome.Genome, component string, p, intensity float64) {
	for _, name := range genome.GeneNames(component) {
		gene, ok := g.Gene(component, name)
		if !ok || m.rng.Float64() >= p {
			continue
		}
		g.SetGene(component, name, m.mutateGene(component, name, gene, intensity))
	}
}

func (m *MutationEngine) mutateGene(component, name string, gene genome.Gene, intensity float64) genome.Gene {
	switch gene.Kind {
	case genome.KindScalar:
		return genome.Scalar(gene.Scalar + (m.rng.Float64()*2-1)*intensity)
	case genome.KindSequence:
		fresh := genome.RandomGeneValue(m.rng, component, name)
		seq := append([]float64{}, gene.Seq...)
		if fresh.Kind != genome.KindSequence || len(fresh.Seq) == 0 {
			return genome.Sequence(seq)
		}
		if len(seq) == 0 {
			return genome.Sequence(fresh.Seq[:1])
		}
		seq[m.rng.Intn(len(seq))] = fresh.Seq[0]
		return genome.Sequence(seq)
	}
	return gene
}

// offspringOf clones a single parent into its next-generation child
func offspringOf(g *genome.Genome) *genome.Genome {
	v := g.Clone()
	v.Metadata.Generation = g.Metadata.Generation + 1
	v.Metadata.ParentIDs = []string{g.ID}
	v.Metadata.Status = ""
	return v
}
