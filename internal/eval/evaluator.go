package eval

import (
	"context"
	"math"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"patternlab/internal/genome"
)

// presenceThreshold is the gene value above which a trait counts as present
const presenceThreshold = 0.3

// Preferences bias fitness toward what a listener asked for
type Preferences struct {
	FavoriteGenres      []string `yaml:"favorite_genres" json:"favorite_genres,omitempty" mapstructure:"favorite_genres"`
	PreferredComplexity float64  `yaml:"preferred_complexity" json:"preferred_complexity,omitempty" mapstructure:"preferred_complexity" validate:"gte=0,lte=10"`
}

// Weights are the contributions of each fitness criterion
type Weights struct {
	Coherence  float64
	Rhythmic   float64
	Melodic    float64
	Harmonic   float64
	Structural float64
	Creative   float64
}

// DefaultWeights sum to 1
var DefaultWeights = Weights{
	Coherence:  0.25,
	Rhythmic:   0.20,
	Melodic:    0.20,
	Harmonic:   0.15,
	Structural: 0.10,
	Creative:   0.10,
}

// Breakdown is the per-criterion score of one genome
type Breakdown struct {
	Coherence  float64 `json:"musical_coherence"`
	Rhythmic   float64 `json:"rhythmic_stability"`
	Melodic    float64 `json:"melodic_interest"`
	Harmonic   float64 `json:"harmonic_richness"`
	Structural float64 `json:"structural_integrity"`
	Creative   float64 `json:"creative_uniqueness"`
}

// Evaluator scores genomes
type Evaluator struct {
	weights Weights
	workers int
}

// NewEvaluator creates an evaluator running up to workers evaluations at once.
// Zero or negative workers uses one per CPU.
func NewEvaluator(workers int) *Evaluator {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Evaluator{weights: DefaultWeights, workers: workers}
}

// EvaluateSpecimen scores g, applies preferences and stores the result on g
func (e *Evaluator) EvaluateSpecimen(g *genome.Genome, prefs Preferences) float64 {
	b := Score(g)
	w := e.weights
	fitness := b.Coherence*w.Coherence +
		b.Rhythmic*w.Rhythmic +
		b.Melodic*w.Melodic +
		b.Harmonic*w.Harmonic +
		b.Structural*w.Structural +
		b.Creative*w.Creative

	fitness = ApplyUserPreferences(fitness, g, prefs)
	g.Metadata.Fitness = fitness
	return fitness
}

// EvaluatePopulation scores every genome in parallel. Scores are
// index-aligned with genomes.
func (e *Evaluator) EvaluatePopulation(ctx context.Context, genomes []*genome.Genome, prefs Preferences) ([]float64, error) {
	scores := make([]float64, len(genomes))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, specimen := range genomes {
		i, specimen := i, specimen
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			scores[i] = e.EvaluateSpecimen(specimen, prefs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

// ApplyUserPreferences rewards favourite genres and penalizes distance from
// the preferred complexity (given on a 0-10 scale). The result is clamped.
func ApplyUserPreferences(fitness float64, g *genome.Genome, prefs Preferences) float64 {
	if len(prefs.FavoriteGenres) > 0 {
		species := strings.ToLower(g.SpeciesIdentifier())
		genre := strings.ToLower(g.Genre())
		for _, fav := range prefs.FavoriteGenres {
			fav = strings.ToLower(strings.TrimSpace(fav))
			if fav == "" {
				continue
			}
			if strings.Contains(species, fav) || (genre != "" && strings.Contains(genre, fav)) {
				fitness *= 1.2
				break
			}
		}
	}
	if prefs.PreferredComplexity > 0 {
		target := prefs.PreferredComplexity / 10
		fitness *= 1 - math.Abs(g.ComplexityScore()-target)
	}
	return genome.Clamp(fitness)
}

// Score computes every criterion for g without preferences
func Score(g *genome.Genome) Breakdown {
	return Breakdown{
		Coherence:  coherence(g),
		Rhythmic:   rhythmicStability(g),
		Melodic:    melodicInterest(g),
		Harmonic:   harmonicRichness(g),
		Structural: structuralIntegrity(g),
		Creative:   g.CreativityScore(),
	}
}

func coherence(g *genome.Genome) float64 {
	score := 0.5
	if g.HasSignificantGenes(genome.Rhythmic) && g.HasSignificantGenes(genome.Melodic) {
		score += 0.2
	}
	if g.HasSignificantGenes(genome.Harmonic) {
		score += 0.2
	}
	if c := g.ComplexityScore(); c > 0.3 && c < 0.8 {
		score += 0.1
	}
	return math.Min(1, score)
}

func rhythmicStability(g *genome.Genome) float64 {
	score := 0.5
	if present(g, genome.Rhythmic, "kick") {
		score += 0.25
	}
	if present(g, genome.Rhythmic, "snare") {
		score += 0.25
	}
	return score
}

func melodicInterest(g *genome.Genome) float64 {
	score := 0.4
	if iv, ok := g.Gene(genome.Melodic, "intervals"); ok && len(iv.Seq) > 2 {
		score += 0.3
	}
	if present(g, genome.Melodic, "contour") {
		score += 0.3
	}
	return score
}

func harmonicRichness(g *genome.Genome) float64 {
	score := 0.5
	if present(g, genome.Harmonic, "progression") {
		score += 0.3
	}
	if present(g, genome.Harmonic, "voicing") {
		score += 0.2
	}
	return score
}

func structuralIntegrity(g *genome.Genome) float64 {
	score := 0.5
	if present(g, genome.Structural, "form") {
		score += 0.3
	}
	if present(g, genome.Structural, "development") {
		score += 0.2
	}
	return score
}

func present(g *genome.Genome, component, gene string) bool {
	return g.ScalarValue(component, gene) > presenceThreshold
}
