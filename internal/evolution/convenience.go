package evolution

import (
	"context"
	"fmt"

	"patternlab/internal/eval"
	"patternlab/internal/ga"
	"patternlab/internal/genome"
	"patternlab/internal/model"
	"patternlab/internal/pattern"
	"patternlab/internal/suggest"
)

// Default generation counts for the shorthand entry points
const (
	QuickGenerations    = 5
	CreativeGenerations = 8
	GuidedGenerations   = 6
	HybridGenerations   = 7
	PreviewSteps        = 3

	maxPopulation  = 32
	maxGenerations = 50
)

// QuickEvolve runs natural selection toward a modest target.
// generations <= 0 uses QuickGenerations.
func (e *Engine) QuickEvolve(ctx context.Context, p pattern.Pattern, generations int) (*Result, error) {
	cfg := DefaultConfig()
	cfg.Strategy = NaturalSelection
	cfg.Generations = orDefault(generations, QuickGenerations)
	cfg.TargetFitness = 0.75
	return e.EvolvePattern(ctx, p, cfg)
}

// CreativeEvolve alternates bursts of experimental drift with selection
func (e *Engine) CreativeEvolve(ctx context.Context, p pattern.Pattern, generations int) (*Result, error) {
	cfg := DefaultConfig()
	cfg.Strategy = CreativeExplosion
	cfg.Generations = orDefault(generations, CreativeGenerations)
	cfg.MutationIntensity = 0.5
	cfg.TargetFitness = 0.7
	return e.EvolvePattern(ctx, p, cfg)
}

// GuidedEvolve steers evolution with suggestions and listener preferences
func (e *Engine) GuidedEvolve(ctx context.Context, p pattern.Pattern, prefs eval.Preferences, generations int) (*Result, error) {
	cfg := DefaultConfig()
	cfg.Strategy = GuidedEvolution
	cfg.Generations = orDefault(generations, GuidedGenerations)
	cfg.UserPreferences = prefs
	cfg.TargetFitness = 0.8
	return e.EvolvePattern(ctx, p, cfg)
}

// HybridEvolve layers two patterns into one seed and evolves it with
// inter-species breeding
func (e *Engine) HybridEvolve(ctx context.Context, a, b pattern.Pattern, generations int) (*Result, error) {
	cfg := DefaultConfig()
	cfg.Strategy = HybridBreeding
	cfg.Generations = orDefault(generations, HybridGenerations)
	cfg.EnableHybridization = true
	cfg.TargetFitness = 0.8
	return e.EvolvePattern(ctx, ga.InitialCrossover(a, b), cfg)
}

// Preview is one step of a mutation walk
type Preview struct {
	Step    int                       `json:"step"`
	Pattern pattern.Pattern           `json:"pattern"`
	Traits  map[string]map[string]any `json:"traits"`
	Changes []string                  `json:"changes"`
}

// PreviewEvolution walks steps balanced mutations away from p without
// running a session. steps <= 0 uses PreviewSteps.
func (e *Engine) PreviewEvolution(p pattern.Pattern, steps int) ([]Preview, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	original := e.system.AnalyzePattern(p)
	current := original
	previews := make([]Preview, 0, orDefault(steps, PreviewSteps))
	for i := 0; i < cap(previews); i++ {
		next, err := e.mutator.CreateVariation(current, ga.VariationConfig{Strategy: ga.Balanced, Intensity: 0.3})
		if err != nil {
			return nil, err
		}
		current = next
		previews = append(previews, Preview{
			Step:    i + 1,
			Pattern: e.system.GenomeToPattern(current),
			Traits:  current.TraitSummary(),
			Changes: changesFrom(original, current),
		})
	}
	return previews, nil
}

// changesFrom lists components that differ from the original, with distance
func changesFrom(original, g *genome.Genome) []string {
	changes := []string{}
	for _, comp := range genome.ComponentNames() {
		if d := g.CompareComponent(original, comp); d > 0 {
			changes = append(changes, fmt.Sprintf("%s %.3f", comp, d))
		}
	}
	return changes
}

// SuggestBreedingPairs ranks pairs of patterns for crossover. Patterns
// without a fitness are scored first.
func (e *Engine) SuggestBreedingPairs(patterns []pattern.Pattern, prefs eval.Preferences) []suggest.PairSuggestion {
	e.mu.Lock()
	defer e.mu.Unlock()

	genomes := make([]*genome.Genome, 0, len(patterns))
	for _, p := range patterns {
		if p.Validate() != nil {
			continue
		}
		g := e.system.AnalyzePattern(p)
		if p.Fitness == nil {
			e.evaluator.EvaluateSpecimen(g, prefs)
		}
		genomes = append(genomes, g)
	}
	return e.suggester.SuggestPairs(genomes, prefs)
}

// History lists recorded sessions, oldest first
func (e *Engine) History(ctx context.Context) ([]model.Session, error) {
	return e.store.ListSessions(ctx)
}

// Capabilities describes what the engine supports
type Capabilities struct {
	Strategies     []Strategy `json:"strategies"`
	MaxPopulation  int        `json:"max_population"`
	MaxGenerations int        `json:"max_generations"`
}

// Stats aggregates recorded sessions
type Stats struct {
	TotalSessions                int          `json:"total_sessions"`
	TotalGenerations             int          `json:"total_generations"`
	AverageGenerationsPerSession float64      `json:"average_generations_per_session"`
	SpecimenRegistry             int          `json:"specimen_registry"`
	Version                      string       `json:"version"`
	Capabilities                 Capabilities `json:"capabilities"`
}

// Stats summarizes the sessions and specimens held by the store
func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	sessions, err := e.store.ListSessions(ctx)
	if err != nil {
		return Stats{}, err
	}
	specimens, err := e.store.CountSpecimens(ctx)
	if err != nil {
		return Stats{}, err
	}

	total := 0
	for _, s := range sessions {
		total += len(s.Generations)
	}
	return Stats{
		TotalSessions:                len(sessions),
		TotalGenerations:             total,
		AverageGenerationsPerSession: float64(total) / float64(max(1, len(sessions))),
		SpecimenRegistry:             specimens,
		Version:                      Version,
		Capabilities: Capabilities{
			Strategies:     append([]Strategy(nil), Strategies...),
			MaxPopulation:  maxPopulation,
			MaxGenerations: maxGenerations,
		},
	}, nil
}

// Reset forgets every session and specimen
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.store.Reset(ctx); err != nil {
		return err
	}
	e.log.Info().Msg("evolution engine reset")
	return nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
